package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "json", "info")
	assert.NoError(t, err)

	log.WithName("spreadsheet").Info("saved spreadsheet", "cells", 3)

	var record map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "saved spreadsheet", record["message"])
	assert.Equal(t, "spreadsheet", record["logger"])
	assert.Equal[any](t, float64(3), record["cells"])
}

func TestLevelFiltersVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "json", "info")
	assert.NoError(t, err)
	log.V(1).Info("recalculated cells")
	assert.Equal(t, "", buf.String())

	buf.Reset()
	log, err = New(&buf, "json", "debug")
	assert.NoError(t, err)
	log.V(1).Info("recalculated cells")
	assert.Contains(t, buf.String(), "recalculated cells")
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "console", "INFO")
	assert.NoError(t, err)
	log.Info("loaded spreadsheet", "version", "v1")
	assert.True(t, strings.Contains(buf.String(), "loaded spreadsheet"))
	assert.True(t, strings.Contains(buf.String(), "version="))
}

func TestInvalidSettings(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "json", "loud")
	assert.Error(t, err)
}
