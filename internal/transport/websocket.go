package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/ithorft/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the bridge
	writeWait = 10 * time.Second

	// Maximum message size accepted from the bridge
	maxMessageSize = 8192
)

// WebSocketConn talks to a gateway exposed by a network serial bridge.
// Each text message carries one or more gateway lines.
type WebSocketConn struct {
	url  string
	ws   *websocket.Conn
	conn *LineConn
}

// DialWebSocket connects to a ws:// or wss:// gateway bridge
func DialWebSocket(ctx context.Context, url string) (*WebSocketConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	ws.SetReadLimit(maxMessageSize)

	logging.Info("WebSocket gateway connected", zap.String("url", url))

	w := &WebSocketConn{url: url, ws: ws}
	w.conn = NewLineConn(url, &wsStream{ws: ws})
	return w, nil
}

// Name returns the bridge URL
func (w *WebSocketConn) Name() string {
	return w.url
}

// ReadLine returns the next gateway line
func (w *WebSocketConn) ReadLine(ctx context.Context) (string, error) {
	return w.conn.ReadLine(ctx)
}

// WriteLine sends one line as a text message
func (w *WebSocketConn) WriteLine(ctx context.Context, line string) error {
	return w.conn.WriteLine(ctx, line)
}

// Close sends a close frame and shuts the connection
func (w *WebSocketConn) Close() error {
	_ = w.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return w.conn.Close()
}

// wsStream adapts a websocket connection to an io.ReadWriteCloser so the
// line splitting in LineConn applies to both transports.
type wsStream struct {
	ws *websocket.Conn

	mu      sync.Mutex
	pending []byte
}

func (s *wsStream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		typ, data, err := s.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		if !strings.HasSuffix(string(data), "\n") {
			data = append(data, '\n')
		}
		s.pending = data
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *wsStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return 0, err
	}
	if err := s.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.ws.Close()
}
