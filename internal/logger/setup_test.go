package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"recruit-console/internal/config"
)

func TestNewRespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.Logger{Level: slog.LevelWarn, Plaintext: false})
	log.Info("hidden")
	log.Warn("shown", "job_id", "507f1f77bcf86cd799439011")

	out := buf.String()
	be.True(t, !strings.Contains(out, "hidden"))
	be.True(t, strings.Contains(out, `"msg":"shown"`))
	be.True(t, strings.Contains(out, `"job_id":"507f1f77bcf86cd799439011"`))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	be.Equal(t, FromContext(context.Background()), slog.Default())

	log := Discard()
	ctx := Context(context.Background(), log)
	be.Equal(t, FromContext(ctx), log)
}
