package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
)

func TestZeroLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZeroLogger(NewZeroLog(&buf, false))

	l.Warn("unrecognized lab status", errors.New("boom"), map[string]interface{}{"status": "archived"}, core.UserID("u1"), 42)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "unrecognized lab status", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "archived", entry["status"])
	assert.Equal(t, "u1", entry["user"])
	assert.EqualValues(t, 42, entry["arg0"])
}

func TestZeroLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewZeroLogger(NewZeroLog(&buf, false))
	l.Debug("hidden")
	assert.Zero(t, buf.Len())
}
