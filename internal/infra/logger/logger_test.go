package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("prod", &buf).Debug("hidden")
	assert.Empty(t, buf.String())

	NewWithWriter("dev", &buf).Debug("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	Component(NewWithWriter("prod", &buf), "sync").Info("pushed", "orders", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "batchbook", rec["app"])
	assert.Equal(t, "prod", rec["env"])
	assert.Equal(t, "sync", rec["component"])
	assert.Equal(t, float64(3), rec["orders"])
}
