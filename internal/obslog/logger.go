// Package obslog builds the structured logger that cmd/kairos hands to the
// LLM call observer and uses for its own startup line.
package obslog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Verbose enables debug-level output. cmd/kairos sets it when the
	// configured log level is "debug".
	Verbose bool
	// JSON selects the JSON encoder. When false the console encoder is
	// used, whatever the output is attached to; it is easier to read in a
	// terminal but harder to grep in production.
	JSON bool
}

// New builds a production-profile zap logger tuned by cfg. Callers must
// call Sync before process exit.
func New(cfg Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if !cfg.JSON {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	log, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// Noop returns a logger that discards everything. Useful for tests.
func Noop() *zap.Logger {
	return zap.NewNop()
}
