// Package collective provides the group communication a coordinator and its
// workers use: broadcast from a root, gather to a root, and a barrier.
// Payloads are opaque bytes; Encode and Decode helpers convert the numeric
// arrays of a round.
package collective

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrClosed        = errors.New("collective: communicator closed")
	ErrRootOnly      = errors.New("collective: only rank 0 can be the root of this communicator")
	ErrCountMismatch = errors.New("collective: payload length does not match element size")
	ErrInvalidRank   = errors.New("collective: invalid rank")
	ErrRejected      = errors.New("collective: coordinator rejected the worker")
)

// Communicator is one member of a fixed process group. Every member must call
// the same collective operations in the same order.
type Communicator interface {
	Rank() int
	Size() int

	// Bcast sends payload from root to every member. The root gets payload
	// back, every other member gets a copy of the root's payload.
	Bcast(ctx context.Context, root int, payload []byte) ([]byte, error)

	// Gather collects the payload of every member at root, indexed by rank.
	// Members other than root get nil.
	Gather(ctx context.Context, root int, payload []byte) ([][]byte, error)

	// Barrier returns once every member has entered it.
	Barrier(ctx context.Context) error

	Close() error
}

func barrier(ctx context.Context, c Communicator) error {
	if _, err := c.Gather(ctx, 0, nil); err != nil {
		return err
	}
	_, err := c.Bcast(ctx, 0, nil)
	return err
}

func EncodeInts(v []int) []byte {
	buf := make([]byte, 0, 8*len(v))
	for _, x := range v {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(x)))
	}
	return buf
}

func DecodeInts(buf []byte) ([]int, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("%w: %v bytes of int64", ErrCountMismatch, len(buf))
	}
	v := make([]int, len(buf)/8)
	for i := range v {
		v[i] = int(int64(binary.LittleEndian.Uint64(buf[8*i:])))
	}
	return v, nil
}

func EncodeFloat64s(v []float64) []byte {
	buf := make([]byte, 0, 8*len(v))
	for _, x := range v {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	}
	return buf
}

func DecodeFloat64s(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("%w: %v bytes of float64", ErrCountMismatch, len(buf))
	}
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return v, nil
}

// BcastInts broadcasts an int slice from root. Members other than root pass nil.
func BcastInts(ctx context.Context, c Communicator, root int, v []int) ([]int, error) {
	var payload []byte
	if c.Rank() == root {
		payload = EncodeInts(v)
	}
	buf, err := c.Bcast(ctx, root, payload)
	if err != nil {
		return nil, err
	}
	if c.Rank() == root {
		return v, nil
	}
	return DecodeInts(buf)
}

// BcastFloat64s broadcasts a float64 slice from root. Members other than root pass nil.
func BcastFloat64s(ctx context.Context, c Communicator, root int, v []float64) ([]float64, error) {
	var payload []byte
	if c.Rank() == root {
		payload = EncodeFloat64s(v)
	}
	buf, err := c.Bcast(ctx, root, payload)
	if err != nil {
		return nil, err
	}
	if c.Rank() == root {
		return v, nil
	}
	return DecodeFloat64s(buf)
}

// GatherFloat64s gathers the float64 slice of every member at root.
func GatherFloat64s(ctx context.Context, c Communicator, root int, v []float64) ([][]float64, error) {
	parts, err := c.Gather(ctx, root, EncodeFloat64s(v))
	if err != nil || parts == nil {
		return nil, err
	}
	out := make([][]float64, len(parts))
	for rank, part := range parts {
		if out[rank], err = DecodeFloat64s(part); err != nil {
			return nil, fmt.Errorf("rank %v: %w", rank, err)
		}
	}
	return out, nil
}
