package protocol

import (
	"encoding/hex"
	"errors"

	"github.com/muurk/ithorft/internal/logging"
	"go.uber.org/zap"
)

// FrameFields returns structured log fields describing a frame
func FrameFields(f *Frame) []zap.Field {
	return []zap.Field{
		zap.String("type", f.Type.String()),
		zap.Stringer("src", f.Src),
		zap.Stringer("dest", f.Dest),
		zap.String("code", f.Code.String()),
		zap.String("code_name", f.Code.Name()),
		zap.Int("payload_len", len(f.Payload)),
		zap.String("payload_hex", hex.EncodeToString(f.Payload)),
	}
}

// LogDecodeError logs a discarded line at a level matching its kind.
// Lines that are not frames at all (gateway banners, noise) only show at debug.
func LogDecodeError(gateway string, err error) {
	var perr *Error
	if !errors.As(err, &perr) {
		logging.Warn("Failed to decode line",
			zap.String("gateway", gateway),
			zap.Error(err),
		)
		return
	}

	fields := []zap.Field{
		zap.String("gateway", gateway),
		zap.String("kind", perr.Kind.String()),
		zap.String("detail", perr.Message),
		zap.String("line", perr.Line),
	}

	switch perr.Kind {
	case KindChecksumMismatch:
		logging.Warn("Discarding frame with bad checksum", fields...)
	default:
		logging.Debug("Discarding malformed line", fields...)
	}
}

// LogStatus logs a decoded status record
func LogStatus(f *Frame, rec *StatusRecord) {
	fields := append(FrameFields(f),
		zap.String("speed_mode", rec.SpeedMode.String()),
		zap.Uint8("raw_speed_mode", rec.RawSpeedMode),
		zap.Bool("fault_active", rec.FaultActive),
		zap.Bool("filter_dirty", rec.FilterDirty),
		zap.Bool("defrost_active", rec.DefrostActive),
	)
	if rec.Temperature != nil {
		fields = append(fields, zap.Stringer("temperature", rec.Temperature))
	}
	logging.Debug("Unit status received", fields...)
}
