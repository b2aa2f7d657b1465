package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ithorft/internal/identity"
	"github.com/muurk/ithorft/internal/protocol"
	"github.com/muurk/ithorft/internal/transport"
)

func init() {
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Decode a traffic capture offline",
	Long: `Decode a capture file written by monitor (capture_dir) and print the
frames and status reports it contains. Status frames are interpreted
against the stored identity.`,
	Example: `  ithorft replay ~/.config/ithorft/captures/capture-2024-03-01.jsonl`,
	Args:    cobra.ExactArgs(1),
	RunE:    runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	records, err := transport.ReadCapture(f)
	if err != nil {
		return err
	}

	id, err := identity.NewFileStore(cfg.IdentityFile).LoadIdentity()
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		return err
	}

	summary := replay(cmd.OutOrStdout(), records, id)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d lines: %d frames, %d status, %d discarded\n",
		summary.lines, summary.frames, summary.status, summary.discarded)
	return nil
}

type replaySummary struct {
	lines, frames, status, discarded int
}

// replay prints one line per captured record
func replay(w io.Writer, records []transport.CaptureRecord, id protocol.Identity) replaySummary {
	var s replaySummary
	for _, rec := range records {
		s.lines++
		ts := rec.Timestamp.Format(time.DateTime)

		f, err := protocol.DecodeLine(rec.Line)
		if err != nil {
			s.discarded++
			fmt.Fprintf(w, "%s %s  %q (%v)\n", ts, rec.Direction, rec.Line, err)
			continue
		}
		s.frames++

		status, matched, err := protocol.Interpret(f, id)
		switch {
		case matched && err == nil:
			s.status++
			fmt.Fprintf(w, "%s %s  %s\n", ts, rec.Direction, formatStatusLine(status))
		default:
			fmt.Fprintf(w, "%s %s  %s\n", ts, rec.Direction, f)
		}
	}
	return s
}
