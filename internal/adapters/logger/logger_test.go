package logger_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.trai.ch/grove/internal/adapters/logger"
)

func TestLoggerWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New()
	log.SetOutput(&buf)

	log.Info("locked environment")
	log.Warn("registry entry is stale")
	log.Error(errors.New("catalog unreachable"))

	out := buf.String()
	for _, want := range []string{
		"level=INFO",
		"locked environment",
		"level=WARN",
		"registry entry is stale",
		"level=ERROR",
		"catalog unreachable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
