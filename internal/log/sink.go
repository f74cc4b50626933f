package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures the rotating structured log file.
type FileConfig struct {
	Path       string // log file path (required)
	Level      string // debug, info, warn, error (default info)
	MaxSizeMB  int    // size before rotation (default 10)
	MaxBackups int    // rotated files to keep (default 5)
	MaxAgeDays int    // days to keep rotated files (default 7)
}

// NewFileSink builds a JSON zap logger writing to a rotating file.
// The returned close func flushes and closes the file.
func NewFileSink(cfg FileConfig) (*zap.Logger, func() error, error) {
	if cfg.Path == "" {
		return nil, nil, fmt.Errorf("log file path is required")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 7
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil || cfg.Level == "" {
		level = zapcore.InfoLevel
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	z := zap.New(newCore(zapcore.AddSync(w), level))
	closeFn := func() error {
		_ = z.Sync()
		return w.Close()
	}
	return z, closeFn, nil
}

func newCore(ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.EpochTimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), ws, level)
}
