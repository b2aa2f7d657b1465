package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestLineConn_ReadLine(t *testing.T) {
	local, remote := net.Pipe()
	c := NewLineConn("pipe", local)
	defer c.Close()

	go func() {
		remote.Write([]byte("# evofw3 0.7.1\r\n\r\n:0102\r\n"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, want := range []string{"# evofw3 0.7.1", ":0102"} {
		got, err := c.ReadLine(ctx)
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadLine() = %q, want %q", got, want)
		}
	}
}

func TestLineConn_CancelledReadKeepsLine(t *testing.T) {
	local, remote := net.Pipe()
	c := NewLineConn("pipe", local)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.ReadLine(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ReadLine() error = %v, want deadline exceeded", err)
	}

	go remote.Write([]byte(":AABB\r\n"))

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	got, err := c.ReadLine(ctx2)
	if err != nil || got != ":AABB" {
		t.Errorf("ReadLine() = %q, %v", got, err)
	}
}

func TestLineConn_WriteLine(t *testing.T) {
	local, remote := net.Pipe()
	c := NewLineConn("pipe", local)
	defer c.Close()

	received := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(remote).ReadString('\n')
		received <- line
	}()

	if err := c.WriteLine(context.Background(), "!V\r\n"); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
	if got := <-received; got != "!V\r\n" {
		t.Errorf("peer received %q", got)
	}
}

func TestLineConn_PeerClosed(t *testing.T) {
	local, remote := net.Pipe()
	c := NewLineConn("pipe", local)
	defer c.Close()

	remote.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.ReadLine(ctx)
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadLine() error = %v, want read failure", err)
	}
}

func TestLineConn_Closed(t *testing.T) {
	local, _ := net.Pipe()
	c := NewLineConn("pipe", local)

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := c.ReadLine(context.Background()); err == nil {
		t.Error("ReadLine() after Close() succeeded")
	}
	if err := c.WriteLine(context.Background(), "x\r\n"); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteLine() after Close() error = %v, want ErrClosed", err)
	}
}

func TestIsWebSocketURL(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"ws://gateway.local:8080/evofw3", true},
		{"wss://gateway.local/evofw3", true},
		{"/dev/ttyUSB0", false},
		{"COM3", false},
	}
	for _, tt := range tests {
		if got := IsWebSocketURL(tt.target); got != tt.want {
			t.Errorf("IsWebSocketURL(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
