package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overdevelop/graft/internal/config"
	"github.com/overdevelop/graft/internal/logger"
)

func TestNewWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, config.Config{})

	log.Debug("hidden")
	log.Info("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "key=value")
}

func TestNewWriter_DebugJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, config.Config{Debug: true, LogFormat: "json"})

	log.Debug("planned")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "planned", record["msg"])
	assert.Contains(t, record, "source")
}

func TestNewWriter_PanicLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, config.Config{})

	log.Log(context.Background(), logger.LevelPanic, "fatal resolution")

	assert.Contains(t, buf.String(), "level=PANIC")
}

func TestDefault(t *testing.T) {
	assert.NotNil(t, logger.Default())
}
