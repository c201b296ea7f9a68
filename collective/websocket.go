package collective

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	collectivePath = "/collective"
	sessionHeader  = "X-Selinv-Session"
)

type Options struct {
	// Compress zstd-compresses large payloads.
	Compress bool
	// Session names the group. A coordinator with a session only admits
	// workers of the same session, and a worker with a session only joins a
	// coordinator of the same session. Listen picks a random session when
	// it is empty.
	Session string
	Retry   RetryConfig
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1 << 20,
}

type joined struct {
	rank int
	conn *websocket.Conn
}

// Server is the rank 0 end of a websocket group. Workers connect to it with
// Dial, and Accept returns the communicator once all of them have joined.
type Server struct {
	size    int
	opts    Options
	session string
	ln      net.Listener
	srv     *http.Server
	joins   chan joined

	mu   sync.Mutex
	done bool
}

// Listen starts accepting workers for a group of the given size.
func Listen(ctx context.Context, addr string, size int, opts Options) (*Server, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: group size %v", ErrInvalidRank, size)
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	session := opts.Session
	if session == "" {
		session = uuid.NewString()
	}
	s := &Server{
		size:    size,
		opts:    opts,
		session: session,
		ln:      ln,
		joins:   make(chan joined, size),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(collectivePath, s.handleJoin)
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctxzap.Extract(ctx).Error("collective server stopped", zap.Error(err))
		}
	}()
	return s, nil
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Session() string {
	return s.session
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rank, err := strconv.Atoi(q.Get("rank"))
	if err != nil || rank < 1 || rank >= s.size {
		http.Error(w, "invalid rank", http.StatusBadRequest)
		return
	}
	if size, err := strconv.Atoi(q.Get("size")); err != nil || size != s.size {
		http.Error(w, "group size mismatch", http.StatusBadRequest)
		return
	}
	if session := r.Header.Get(sessionHeader); session != "" && session != s.session {
		http.Error(w, "session mismatch", http.StatusForbidden)
		return
	}
	conn, err := upgrader.Upgrade(w, r, http.Header{sessionHeader: []string{s.session}})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		_ = conn.Close()
		return
	}
	select {
	case s.joins <- joined{rank: rank, conn: conn}:
	default:
		_ = conn.Close()
	}
}

// Close stops accepting workers and closes the connections of workers that
// joined but were not handed out by Accept. Accept closes the server itself
// once the group is complete.
func (s *Server) Close() error {
	err := s.srv.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	for {
		select {
		case j := <-s.joins:
			_ = j.conn.Close()
		default:
			return err
		}
	}
}

// Accept waits until every worker rank has joined.
func (s *Server) Accept(ctx context.Context) (Communicator, error) {
	l := ctxzap.Extract(ctx)
	conns := make([]*websocket.Conn, s.size)
	for missing := s.size - 1; missing > 0; {
		select {
		case j := <-s.joins:
			if conns[j.rank] != nil {
				l.Warn("duplicate worker rank", zap.Int("rank", j.rank))
				_ = j.conn.Close()
				continue
			}
			conns[j.rank] = j.conn
			missing--
			l.Debug("worker joined", zap.Int("rank", j.rank), zap.Int("missing", missing))
		case <-ctx.Done():
			for _, c := range conns {
				if c != nil {
					_ = c.Close()
				}
			}
			return nil, ctx.Err()
		}
	}
	if err := s.Close(); err != nil {
		l.Debug("closing collective server", zap.Error(err))
	}
	return &wsComm{rank: 0, size: s.size, opts: s.opts, conns: conns}, nil
}

// Dial joins the group served at addr as the given rank, retrying while the
// coordinator is not reachable yet.
func Dial(ctx context.Context, addr string, rank, size int, opts Options) (Communicator, error) {
	if rank < 1 || rank >= size {
		return nil, fmt.Errorf("%w: rank %v of %v", ErrInvalidRank, rank, size)
	}
	u := url.URL{
		Scheme:   "ws",
		Host:     addr,
		Path:     collectivePath,
		RawQuery: url.Values{"rank": {strconv.Itoa(rank)}, "size": {strconv.Itoa(size)}}.Encode(),
	}
	var header http.Header
	if opts.Session != "" {
		header = http.Header{sessionHeader: []string{opts.Session}}
	}
	l := ctxzap.Extract(ctx)
	retryer := NewRetryer(opts.Retry)
	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
		if err == nil {
			session := resp.Header.Get(sessionHeader)
			if opts.Session != "" && session != opts.Session {
				_ = conn.Close()
				return nil, fmt.Errorf("%w: session %q, expected %q", ErrRejected, session, opts.Session)
			}
			l.Debug("joined group", zap.Int("rank", rank), zap.String("session", session))
			return &wsComm{rank: rank, size: size, opts: opts, conns: []*websocket.Conn{conn}}, nil
		}
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, resp.Status)
		}
		if !retryer.ShouldWaitAndRetry(ctx, err) {
			return nil, err
		}
	}
}

// wsComm supports rank 0 as the only root. At rank 0, conns is indexed by
// worker rank; at a worker, conns[0] is the connection to the coordinator.
type wsComm struct {
	rank, size int
	opts       Options
	conns      []*websocket.Conn
	closed     atomic.Bool
	closeOnce  sync.Once
}

func (c *wsComm) Rank() int { return c.rank }
func (c *wsComm) Size() int { return c.size }

func (c *wsComm) check(root int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if root != 0 {
		return ErrRootOnly
	}
	return nil
}

func (c *wsComm) write(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	frame, err := encodeFrame(payload, c.opts.Compress)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetWriteDeadline(time.Now()) })
	defer stop()
	if err = conn.WriteMessage(websocket.BinaryMessage, frame); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *wsComm) read(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()
	_, frame, err := conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return decodeFrame(frame)
}

func (c *wsComm) Bcast(ctx context.Context, root int, payload []byte) ([]byte, error) {
	if err := c.check(root); err != nil {
		return nil, err
	}
	if c.rank != 0 {
		return c.read(ctx, c.conns[0])
	}
	for rank := 1; rank < c.size; rank++ {
		if err := c.write(ctx, c.conns[rank], payload); err != nil {
			return nil, fmt.Errorf("bcast to rank %v: %w", rank, err)
		}
	}
	return payload, nil
}

func (c *wsComm) Gather(ctx context.Context, root int, payload []byte) ([][]byte, error) {
	if err := c.check(root); err != nil {
		return nil, err
	}
	if c.rank != 0 {
		return nil, c.write(ctx, c.conns[0], payload)
	}
	parts := make([][]byte, c.size)
	parts[0] = payload
	for rank := 1; rank < c.size; rank++ {
		buf, err := c.read(ctx, c.conns[rank])
		if err != nil {
			return nil, fmt.Errorf("gather from rank %v: %w", rank, err)
		}
		parts[rank] = buf
	}
	return parts, nil
}

func (c *wsComm) Barrier(ctx context.Context) error {
	return barrier(ctx, c)
}

func (c *wsComm) Close() (err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		for _, conn := range c.conns {
			if conn != nil {
				err = errors.Join(err, conn.Close())
			}
		}
	})
	return
}
