package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{JSON: true})

	logger.Info("content uploaded", slog.String("key", "abc"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "content uploaded", line["msg"])
	assert.Equal(t, "abc", line["key"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, Options{Debug: true}).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_TextWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Prefix: "sharethis"}).With(slog.String("component", "reaper"))

	logger.Warn("tick failed")
	out := buf.String()
	assert.Contains(t, out, "sharethis")
	assert.Contains(t, out, "tick failed")
	assert.Contains(t, out, "component=reaper")
}
