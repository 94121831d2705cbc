package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{"port": 8080}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "memory", cfg.DocStore.Type)
	require.Empty(t, cfg.FileStore.Type)
	require.Equal(t, 30, cfg.AI.TimeoutSeconds)
	require.Equal(t, 24000, cfg.AI.MaxPromptChars)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}

func TestLoadMissingPort(t *testing.T) {
	path := writeConfig(t, `{}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadProviderValidation(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"ai": {"providers": [{"provider": "gemini"}]}
	}`)
	_, err := Load(path)
	require.ErrorContains(t, err, "model is required")

	path = writeConfig(t, `{
		"port": 8080,
		"ai": {"providers": [{"provider": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "k"}}]}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "gemini", cfg.AI.Providers[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
