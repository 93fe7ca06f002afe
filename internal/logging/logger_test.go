package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Format
		wantErr bool
	}{
		{"", logging.FormatText, false},
		{"text", logging.FormatText, false},
		{" JSON ", logging.FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWith_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWith(logging.Options{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("import failed", "error", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"import failed\"")
	assert.Contains(t, out, "err=boom")
}

func TestNewWith_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWith(logging.Options{Format: logging.FormatJSON, Output: &buf})

	logger.Info("scene entered", "scene", "ferry", "error", "none")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scene entered", line["msg"])
	assert.Equal(t, "ferry", line["scene"])
	assert.Equal(t, "none", line["err"])
	assert.NotContains(t, line, "error")
}

func TestNewNop(t *testing.T) {
	assert.False(t, logging.NewNop().Enabled(t.Context(), slog.LevelError))
}
