package device

import (
	"io"
	"log/slog"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// Log rotation settings for device log files
const (
	LogRotationTime = 24 * time.Hour
	LogMaxAge       = 7 * 24 * time.Hour
)

// NewLogger builds the device logger. With log_file set, logs go to a daily
// rotated file with a stable symlink at log_file; otherwise to stdout.
// The returned closer releases the file and is safe to call on stdout.
func NewLogger(cfg Config, level slog.Level) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFile == "" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), io.NopCloser(nil), nil
	}

	writer, err := rotatelogs.New(
		cfg.LogFile+".%Y%m%d",
		rotatelogs.WithLinkName(cfg.LogFile),
		rotatelogs.WithRotationTime(LogRotationTime),
		rotatelogs.WithMaxAge(LogMaxAge),
	)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(writer, opts)), writer, nil
}
