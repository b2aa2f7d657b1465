package transport

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/ithorft/internal/logging"
	"go.uber.org/zap"
)

const (
	// VersionCommand asks evofw3 for its firmware version
	VersionCommand = "!V\r\n"

	// DefaultMinVersion is the oldest evofw3 release known to relay RFT frames
	DefaultMinVersion = "0.7.0"

	// DefaultSelfTestTimeout bounds the wait for the version banner
	DefaultSelfTestTimeout = 5 * time.Second
)

var versionPattern = regexp.MustCompile(`^#\s*evofw3\s+(\d+\.\d+\.\d+)`)

// SelfTest asks the gateway for its firmware version and checks it is at
// least minVersion. Frame lines received while waiting are skipped.
func SelfTest(ctx context.Context, gw Gateway, minVersion string, timeout time.Duration) (string, error) {
	if minVersion == "" {
		minVersion = DefaultMinVersion
	}
	if timeout <= 0 {
		timeout = DefaultSelfTestTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := gw.WriteLine(ctx, VersionCommand); err != nil {
		return "", fmt.Errorf("self-test: %w", err)
	}

	for {
		line, err := gw.ReadLine(ctx)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("self-test: no version reply from %s within %s", gw.Name(), timeout)
			}
			return "", fmt.Errorf("self-test: %w", err)
		}

		m := versionPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		version := m[1]
		older, err := versionLess(version, minVersion)
		if err != nil {
			return version, fmt.Errorf("self-test: %w", err)
		}
		if older {
			return version, fmt.Errorf("self-test: evofw3 %s is older than required %s", version, minVersion)
		}

		logging.Info("Gateway self-test passed",
			zap.String("gateway", gw.Name()),
			zap.String("version", version),
		)
		return version, nil
	}
}

// versionLess compares dotted numeric versions
func versionLess(a, b string) (bool, error) {
	pa, err := parseVersion(a)
	if err != nil {
		return false, err
	}
	pb, err := parseVersion(b)
	if err != nil {
		return false, err
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return pa[i] < pb[i], nil
		}
	}
	return false, nil
}

func parseVersion(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid version %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v, fmt.Errorf("invalid version %q", s)
		}
		v[i] = n
	}
	return v, nil
}
