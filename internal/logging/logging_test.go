package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "aula.log")
	logger, closer, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("task", "progress").Msg("fetched")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fetched", entry["message"])
	assert.Equal(t, "progress", entry["task"])
	assert.Equal(t, "aula", entry["app"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_ConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "debug", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug().Msg("hello console")
	assert.Contains(t, buf.String(), "hello console")
}

func TestNew_NoSinksIsNop(t *testing.T) {
	logger, closer, err := New(Options{})
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
