package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	prev := Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	restoreLogger(t)
	err := InitLogger(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitLoggerWritesToFile(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "logs", "classifybot.log")

	require.NoError(t, InitLogger(Config{Level: "info", Output: "file", FilePath: path}))
	Info().Str("history_id", "abc").Msg("record appended")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"history_id":"abc"`)
	assert.Contains(t, string(data), "record appended")
}

func TestInitLoggerFileRequiresPath(t *testing.T) {
	restoreLogger(t)
	require.Error(t, InitLogger(Config{Output: "file"}))
}
