package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/muurk/ithorft/internal/logging"
	"github.com/muurk/ithorft/internal/protocol"
	"go.uber.org/zap"
)

const (
	capturePrefix = "capture-"
	captureSuffix = ".jsonl"

	// DefaultCaptureKeep is how many daily capture files are retained
	DefaultCaptureKeep = 7
)

// CaptureRecord is one captured gateway line (JSON Lines format)
type CaptureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Gateway   string    `json:"gateway"`
	Direction string    `json:"direction"`
	Line      string    `json:"line"`
	Frame     string    `json:"frame,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Capture records all gateway traffic to one JSONL file per day and keeps
// only the most recent files.
type Capture struct {
	Gateway

	dir  string
	keep int
	now  func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewCapture wraps gw. keep <= 0 uses DefaultCaptureKeep.
func NewCapture(gw Gateway, dir string, keep int) (*Capture, error) {
	if keep <= 0 {
		keep = DefaultCaptureKeep
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	return &Capture{Gateway: gw, dir: dir, keep: keep, now: time.Now}, nil
}

// ReadLine reads from the gateway and records the line
func (c *Capture) ReadLine(ctx context.Context) (string, error) {
	line, err := c.Gateway.ReadLine(ctx)
	if err == nil {
		c.record("rx", line)
	}
	return line, err
}

// WriteLine records the line and writes it to the gateway
func (c *Capture) WriteLine(ctx context.Context, line string) error {
	err := c.Gateway.WriteLine(ctx, line)
	if err == nil {
		c.record("tx", line)
	}
	return err
}

// Close closes the capture file and the gateway
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.file != nil {
		_ = c.file.Close()
		c.file = nil
	}
	c.mu.Unlock()
	return c.Gateway.Close()
}

func (c *Capture) record(direction, line string) {
	now := c.now()
	rec := CaptureRecord{
		Timestamp: now,
		Gateway:   c.Gateway.Name(),
		Direction: direction,
		Line:      strings.TrimRight(line, "\r\n"),
	}
	if f, err := protocol.DecodeLine(line); err != nil {
		rec.Error = err.Error()
	} else {
		rec.Frame = f.String()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal capture record", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := c.fileFor(now)
	if err != nil {
		logging.Error("Failed to open capture file", zap.String("dir", c.dir), zap.Error(err))
		return
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write capture file",
			zap.String("filename", file.Name()),
			zap.Error(err),
		)
	}
}

// fileFor returns the file for now's day, rotating at midnight; c.mu must be held
func (c *Capture) fileFor(now time.Time) (*os.File, error) {
	day := now.Format("2006-01-02")
	if c.file != nil && c.day == day {
		return c.file, nil
	}
	if c.file != nil {
		_ = c.file.Close()
		c.file = nil
	}

	name := filepath.Join(c.dir, capturePrefix+day+captureSuffix)
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	c.file = f
	c.day = day

	logging.Debug("Capture file opened", zap.String("filename", name))
	c.prune()
	return f, nil
}

// prune removes all but the newest c.keep capture files
func (c *Capture) prune() {
	matches, err := filepath.Glob(filepath.Join(c.dir, capturePrefix+"*"+captureSuffix))
	if err != nil || len(matches) <= c.keep {
		return
	}

	// Names embed the ISO date, so lexical order is chronological
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-c.keep] {
		if err := os.Remove(old); err != nil {
			logging.Warn("Failed to remove old capture file",
				zap.String("filename", old),
				zap.Error(err),
			)
			continue
		}
		logging.Debug("Removed old capture file", zap.String("filename", old))
	}
}

// ReadCapture reads capture records from r. Blank lines are skipped; a
// malformed record fails with its line number.
func ReadCapture(r io.Reader) ([]CaptureRecord, error) {
	var records []CaptureRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec CaptureRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return records, fmt.Errorf("capture line %d: %w", n, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to read capture: %w", err)
	}
	return records, nil
}
