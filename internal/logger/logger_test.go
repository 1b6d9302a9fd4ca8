package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"uppercase", "ERROR", zerolog.ErrorLevel},
		{"default level", "", zerolog.WarnLevel},
		{"invalid level", "loud", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(ResetForTesting)
			var buf bytes.Buffer
			Setup(Config{Level: tt.level, Format: FormatJSON, Output: &buf})
			assert.Equal(t, tt.expected, Get().GetLevel())
		})
	}
}

func TestWithComponentJSON(t *testing.T) {
	t.Cleanup(ResetForTesting)
	var buf bytes.Buffer
	Setup(Config{Level: "info", Format: FormatJSON, Output: &buf})

	l := WithComponent("books")
	l.Info().Int("status", 404).Msg("bad response")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "books", entry["component"])
	assert.Equal(t, "bad response", entry["message"])
	assert.Equal(t, float64(404), entry["status"])
}

func TestConsoleFormat(t *testing.T) {
	t.Cleanup(ResetForTesting)
	var buf bytes.Buffer
	Setup(Config{Level: "debug", Format: FormatConsole, Output: &buf})

	Get().Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseLogFormat("JSON"))
	assert.Equal(t, FormatConsole, ParseLogFormat("console"))
	assert.Equal(t, FormatConsole, ParseLogFormat("unknown"))
}

func TestGetWithoutSetup(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)
	l := Get()
	require.NotNil(t, l)
	assert.Same(t, l, Get())
}
