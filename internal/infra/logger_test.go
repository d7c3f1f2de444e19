package infra

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		appEnv string
		want   zerolog.Level
	}{
		{appEnv: "development", want: zerolog.DebugLevel},
		{appEnv: "production", want: zerolog.InfoLevel},
		{appEnv: "test", want: zerolog.InfoLevel},
	}
	for _, tc := range tests {
		if got := NewLogger(tc.appEnv).GetLevel(); got != tc.want {
			t.Fatalf("NewLogger(%q) level = %s, want %s", tc.appEnv, got, tc.want)
		}
	}
}

func TestNewLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production").Output(&buf)

	logger.Info().Msg("ping")
	if line := buf.String(); !strings.Contains(line, `"service":"editlab"`) {
		t.Fatalf("log line %q carries no service tag", line)
	}
}

func TestNewLoggerSuppressesDebugOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production").Output(&buf)

	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line emitted outside development: %q", buf.String())
	}
}
