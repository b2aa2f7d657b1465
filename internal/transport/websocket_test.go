package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// bridge emulates a network serial bridge in front of an evofw3 stick
func bridge(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer ws.Close()

		// Two lines in one message
		ws.WriteMessage(websocket.TextMessage, []byte(":0102\r\n:0304\r\n"))

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if string(data) == VersionCommand {
				ws.WriteMessage(websocket.TextMessage, []byte("# evofw3 0.7.1"))
			}
		}
	}))
}

func TestWebSocketConn(t *testing.T) {
	srv := bridge(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	gw, err := Open(ctx, url, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer gw.Close()

	if gw.Name() != url {
		t.Errorf("Name() = %q, want %q", gw.Name(), url)
	}

	for _, want := range []string{":0102", ":0304"} {
		got, err := gw.ReadLine(ctx)
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadLine() = %q, want %q", got, want)
		}
	}

	version, err := SelfTest(ctx, gw, "0.7.0", time.Second)
	if err != nil {
		t.Fatalf("SelfTest() error = %v", err)
	}
	if version != "0.7.1" {
		t.Errorf("version = %q, want 0.7.1", version)
	}
}

func TestDialWebSocket_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := DialWebSocket(ctx, url); err == nil {
		t.Error("DialWebSocket() to closed server succeeded")
	}
}
