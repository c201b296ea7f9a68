package collective

import (
	"context"
	"sync/atomic"
)

// NewLocalGroup returns the members of an in-process group of the given
// size, indexed by rank. Members talk over channels and are meant to run on
// separate goroutines.
func NewLocalGroup(size int) []Communicator {
	links := make([][]chan []byte, size)
	for from := range links {
		links[from] = make([]chan []byte, size)
		for to := range links[from] {
			if from != to {
				links[from][to] = make(chan []byte, 1)
			}
		}
	}
	members := make([]Communicator, size)
	for rank := range members {
		members[rank] = &localComm{links: links, rank: rank}
	}
	return members
}

type localComm struct {
	links  [][]chan []byte
	rank   int
	closed atomic.Bool
}

func (c *localComm) Rank() int { return c.rank }
func (c *localComm) Size() int { return len(c.links) }

func (c *localComm) check(root int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if root < 0 || root >= len(c.links) {
		return ErrInvalidRank
	}
	return nil
}

func (c *localComm) send(ctx context.Context, to int, payload []byte) error {
	select {
	case c.links[c.rank][to] <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *localComm) recv(ctx context.Context, from int) ([]byte, error) {
	select {
	case payload := <-c.links[from][c.rank]:
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *localComm) Bcast(ctx context.Context, root int, payload []byte) ([]byte, error) {
	if err := c.check(root); err != nil {
		return nil, err
	}
	if c.rank != root {
		buf, err := c.recv(ctx, root)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), buf...), nil
	}
	for to := range c.links {
		if to == root {
			continue
		}
		if err := c.send(ctx, to, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (c *localComm) Gather(ctx context.Context, root int, payload []byte) ([][]byte, error) {
	if err := c.check(root); err != nil {
		return nil, err
	}
	if c.rank != root {
		return nil, c.send(ctx, root, payload)
	}
	parts := make([][]byte, len(c.links))
	parts[root] = payload
	for from := range c.links {
		if from == root {
			continue
		}
		buf, err := c.recv(ctx, from)
		if err != nil {
			return nil, err
		}
		parts[from] = buf
	}
	return parts, nil
}

func (c *localComm) Barrier(ctx context.Context) error {
	return barrier(ctx, c)
}

func (c *localComm) Close() error {
	c.closed.Store(true)
	return nil
}
