package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, production := range []bool{true, false} {
		logger, err := New(production)
		if err != nil {
			t.Fatalf("unexpected error (production=%v): %v", production, err)
		}
		if logger == nil {
			t.Fatalf("expected logger instance")
		}
		if debug := logger.Core().Enabled(zapcore.DebugLevel); debug == production {
			t.Fatalf("debug level enabled=%v for production=%v", debug, production)
		}
		_ = logger.Sync()
	}
}
