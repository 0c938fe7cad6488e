package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirkon/tapegraph/internal/config"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.Log{Level: config.LevelWarn, Format: config.FormatText}, &buf)

	l.Info("hidden")
	l.Warn("shown", "tape_id", "t1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "tape_id=t1")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.Log{Level: config.LevelDebug, Format: config.FormatJSON}, &buf)

	l.Debug("node recorded", "node", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "node recorded", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, 3, rec["node"])
}
