package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrClosed is returned by reads and writes on a closed gateway
var ErrClosed = errors.New("gateway closed")

// maxLineLength bounds one gateway line. evofw3 lines are well under 128 bytes.
const maxLineLength = 1024

// Gateway is an open link to a radio gateway
type Gateway interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(ctx context.Context, line string) error
	Close() error

	// Name identifies the gateway in logs (port path or URL)
	Name() string
}

// LineConn turns a byte stream into gateway lines.
//
// A background goroutine reads lines into a channel so ReadLine can honour
// context cancellation without losing data: a line that arrives after a
// cancelled read is delivered to the next one.
type LineConn struct {
	name string
	rwc  io.ReadWriteCloser

	lines chan string
	done  chan struct{}

	errMu   sync.Mutex
	readErr error

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewLineConn starts reading lines from rwc
func NewLineConn(name string, rwc io.ReadWriteCloser) *LineConn {
	c := &LineConn{
		name:  name,
		rwc:   rwc,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *LineConn) readLoop() {
	defer close(c.lines)

	scanner := bufio.NewScanner(c.rwc)
	scanner.Buffer(make([]byte, 0, maxLineLength), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.errMu.Lock()
	c.readErr = err
	c.errMu.Unlock()
}

// Name returns the gateway name
func (c *LineConn) Name() string {
	return c.name
}

// ReadLine returns the next non-empty line without its terminator
func (c *LineConn) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", c.err()
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", ErrClosed
	}
}

func (c *LineConn) err() error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr == nil {
		return ErrClosed
	}
	return fmt.Errorf("read from %s: %w", c.name, c.readErr)
}

// WriteLine writes a complete line. Writes are serialized.
func (c *LineConn) WriteLine(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := io.WriteString(c.rwc, line); err != nil {
		return fmt.Errorf("write to %s: %w", c.name, err)
	}
	return nil
}

// Close stops the reader and closes the underlying stream
func (c *LineConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.rwc.Close()
	})
	return err
}
