package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"thorplan/internal/domain/world"
)

const (
	TypeObserve = "observe"
	TypeStep    = "step"
	TypeReset   = "reset"

	defaultTimeout = 60 * time.Second
)

var ErrBridgeClosed = errors.New("simulator bridge closed")

// Request is sent to the simulator sidecar, which answers every request
// with exactly one Response carrying the same id.
type Request struct {
	ID      uint64         `json:"id"`
	Type    string         `json:"type"`
	Scene   string         `json:"scene,omitempty"`
	Command *world.Command `json:"command,omitempty"`
}

type Response struct {
	ID       uint64          `json:"id"`
	Metadata json.RawMessage `json:"metadata"`
	Error    string          `json:"error,omitempty"`
}

type Config struct {
	URL string
	// Timeout bounds one round trip when the caller's context has no deadline.
	Timeout time.Duration
	Header  http.Header
	// SkipReachable disables the GetReachablePositions query issued after
	// the first snapshot of a scene that carries no reachable positions.
	SkipReachable bool
}

// Bridge drives a remote simulator controller over a websocket. Calls are
// serialized: one request is in flight at a time.
type Bridge struct {
	cfg Config

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
	closed bool

	cacheMu    sync.Mutex
	cacheScene string
	reachable  []world.Vector3
}

func New(cfg Config) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Bridge{cfg: cfg}
}

func (b *Bridge) Observe(ctx context.Context) (world.Snapshot, error) {
	snap, err := b.roundTrip(ctx, Request{Type: TypeObserve})
	if err != nil {
		return snap, err
	}
	return b.withReachable(ctx, snap)
}

func (b *Bridge) Step(ctx context.Context, cmd world.Command) (world.Snapshot, error) {
	snap, err := b.roundTrip(ctx, Request{Type: TypeStep, Command: &cmd})
	if err != nil {
		return snap, err
	}
	if cmd.Action == "GetReachablePositions" && len(snap.ReachablePositions) > 0 {
		b.remember(snap.SceneName, snap.ReachablePositions)
		return snap, nil
	}
	return b.cached(snap), nil
}

func (b *Bridge) Reset(ctx context.Context, scene string) (world.Snapshot, error) {
	b.remember("", nil)
	snap, err := b.roundTrip(ctx, Request{Type: TypeReset, Scene: scene})
	if err != nil {
		return snap, err
	}
	return b.withReachable(ctx, snap)
}

// withReachable attaches the reachable positions of the loaded scene,
// querying the simulator once per scene when needed.
func (b *Bridge) withReachable(ctx context.Context, snap world.Snapshot) (world.Snapshot, error) {
	if len(snap.ReachablePositions) > 0 {
		b.remember(snap.SceneName, snap.ReachablePositions)
		return snap, nil
	}
	snap = b.cached(snap)
	if len(snap.ReachablePositions) > 0 || b.cfg.SkipReachable {
		return snap, nil
	}
	probe, err := b.roundTrip(ctx, Request{Type: TypeStep, Command: &world.Command{Action: "GetReachablePositions"}})
	if err != nil {
		return snap, fmt.Errorf("reachable positions: %w", err)
	}
	b.remember(snap.SceneName, probe.ReachablePositions)
	snap.ReachablePositions = append([]world.Vector3(nil), probe.ReachablePositions...)
	return snap, nil
}

func (b *Bridge) remember(scene string, positions []world.Vector3) {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	b.cacheScene = scene
	b.reachable = append([]world.Vector3(nil), positions...)
}

func (b *Bridge) cached(snap world.Snapshot) world.Snapshot {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	if len(snap.ReachablePositions) == 0 && len(b.reachable) > 0 && snap.SceneName == b.cacheScene {
		snap.ReachablePositions = append([]world.Vector3(nil), b.reachable...)
	}
	return snap
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *Bridge) roundTrip(ctx context.Context, req Request) (world.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return world.Snapshot{}, ErrBridgeClosed
	}
	conn, err := b.connect(ctx)
	if err != nil {
		return world.Snapshot{}, err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(b.cfg.Timeout)
	}
	stop := context.AfterFunc(ctx, func() {
		// Wakes a blocked read when the caller gives up.
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	b.nextID++
	req.ID = b.nextID
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(req); err != nil {
		b.drop()
		return world.Snapshot{}, fmt.Errorf("send %s: %w", req.Type, err)
	}

	for {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			b.drop()
			if ctx.Err() != nil {
				return world.Snapshot{}, ctx.Err()
			}
			return world.Snapshot{}, fmt.Errorf("read %s: %w", req.Type, err)
		}
		var resp Response
		if err := json.Unmarshal(msg, &resp); err != nil {
			return world.Snapshot{}, fmt.Errorf("decode response: %w", err)
		}
		if resp.ID != req.ID {
			// stale answer to an abandoned request
			continue
		}
		if resp.Error != "" {
			return world.Snapshot{}, fmt.Errorf("simulator %s: %s", req.Type, resp.Error)
		}
		return world.DecodeSnapshot(resp.Metadata)
	}
}

func (b *Bridge) connect(ctx context.Context) (*websocket.Conn, error) {
	if b.conn != nil {
		return b.conn, nil
	}
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.DialContext(ctx, b.cfg.URL, b.cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial simulator %s: %w", b.cfg.URL, err)
	}
	b.conn = conn
	return conn, nil
}

func (b *Bridge) drop() {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}
