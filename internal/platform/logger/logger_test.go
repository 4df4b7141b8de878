package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel(" DEBUG "))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Error, ParseLevel("error"))
	assert.Equal(t, Info, ParseLevel("nope"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestJSONLogger_WritesFieldsAndBase(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "adoptions", Output: &buf})

	l.With(map[string]any{"feed": "pets"}).Warn("primary subscription failed", map[string]any{
		"err":  errors.New("index required"),
		"role": "adopter",
		" ":    "ignored",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "primary subscription failed", entry["message"])
	assert.Equal(t, "adoptions", entry["app"])
	assert.Equal(t, "pets", entry["feed"])
	assert.Equal(t, "adopter", entry["role"])
	assert.Equal(t, "index required", entry["err"])
	assert.NotContains(t, entry, " ")
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Warn, Format: FormatJSON, Output: &buf})

	l.Info("hidden", nil)
	l.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	l.Error("shown", nil)
	assert.True(t, strings.Contains(buf.String(), "shown"))
}

func TestTextLogger_IsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatText, Output: &buf})

	l.Debug("merged snapshot", map[string]any{"size": 3})
	out := buf.String()
	assert.Contains(t, out, "merged snapshot")
	assert.Contains(t, out, "size=3")
}
