package logger

import (
	"errors"
	"testing"

	"decksync/pkg/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
	}{
		{
			name:      "Development Config",
			config:    Config{Level: "debug", Environment: "development", ServiceName: "decksync"},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "Production Config",
			config:    Config{Level: "info", Environment: "production", ServiceName: "decksync"},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "Invalid Level Defaults to Info",
			config:    Config{Level: "loud", Environment: "development", ServiceName: "decksync"},
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			require.NoError(t, err)
			assert.True(t, l.zap.Core().Enabled(tt.wantLevel), "expected level %v to be enabled", tt.wantLevel)
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.Info("deck appended", zap.String("deck", "Red Zoro"))
	require.Equal(t, 1, observed.Len())
	entry := observed.TakeAll()[0]
	assert.Equal(t, "deck appended", entry.Message)
	assert.Equal(t, "Red Zoro", entry.ContextMap()["deck"])

	l.Error("store unavailable", errors.New("dial tcp: refused"))
	entry = observed.TakeAll()[0]
	assert.Equal(t, "dial tcp: refused", entry.ContextMap()["error"])

	l.Debug("ignored")
	assert.Equal(t, 0, observed.Len())
}

func TestFailureLevels(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.Failure("row skipped", failure.MissingField("https://example.test", "author", 2))
	l.Failure("page skipped", failure.PageLoad("https://example.test", errors.New("timeout")))

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "field_not_found", entries[0].ContextMap()["failure"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "page_load_failure", entries[1].ContextMap()["failure"])
}

func TestForJob(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.ForJob("op08-en", "OP08 English Winning Deck", "https://example.test").Info("job started")

	ctx := observed.All()[0].ContextMap()
	assert.Equal(t, "op08-en", ctx["job"])
	assert.Equal(t, "OP08 English Winning Deck", ctx["tab"])
	assert.Equal(t, "https://example.test", ctx["url"])
}
