package transport

import (
	"context"
	"sync"
)

// fakeGateway replays queued lines and records writes
type fakeGateway struct {
	lines chan string

	mu      sync.Mutex
	written []string
	closed  bool
}

func newFakeGateway(lines ...string) *fakeGateway {
	g := &fakeGateway{lines: make(chan string, 64)}
	for _, l := range lines {
		g.lines <- l
	}
	return g
}

func (g *fakeGateway) ReadLine(ctx context.Context) (string, error) {
	select {
	case l := <-g.lines:
		return l, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *fakeGateway) WriteLine(_ context.Context, line string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.written = append(g.written, line)
	return nil
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeGateway) Name() string { return "fake" }
