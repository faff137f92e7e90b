package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"tiledash/internal/store"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a JSON zap logger on w. The level is debug with --verbose,
// else config.json logLevel, else warn.
func newLogger(w io.Writer, verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg, err := store.LoadConfig(); err == nil && strings.TrimSpace(cfg.LogLevel) != "" {
		l, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = l
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

func newFileLogger(dir string) (*zap.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{filepath.Join(dir, "tiledash.log")}
	cfg.ErrorOutputPaths = []string{filepath.Join(dir, "tiledash.log")}
	return cfg.Build()
}
