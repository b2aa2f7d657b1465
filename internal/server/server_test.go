package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/muurk/ithorft/internal/metrics"
)

func TestServer_ServesAndShutsDown(t *testing.T) {
	collector := metrics.NewCollector()
	collector.FrameReceived("status")

	srv := New(Config{Addr: "127.0.0.1:0"}, collector)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	base := "http://" + srv.Addr()

	body := get(t, base+"/healthz")
	if body != "ok\n" {
		t.Errorf("/healthz = %q, want %q", body, "ok\n")
	}

	body = get(t, base+"/metrics")
	if !strings.Contains(body, `ithorft_frames_received_total{result="status"} 1`) {
		t.Errorf("/metrics missing frame counter:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestServer_ListenError(t *testing.T) {
	srv := New(Config{Addr: "256.0.0.1:bad"}, metrics.NewCollector())
	if err := srv.Run(context.Background()); err == nil {
		t.Error("Run() expected listen error")
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return string(data)
}
