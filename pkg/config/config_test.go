package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yomiko.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
discord:
  token: test-token
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, "❌", cfg.DeleteEmoji)
	assert.Equal(t, 1800, cfg.CharLimit)
	assert.True(t, cfg.EmbedsActive)
	assert.Equal(t, "test-token", cfg.Discord.Token)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
prefix: "?"
char_limit: 500
embeds_active: false
owner_id: "42"
timeout_notice:
  title: Too long
  description: truncated
discord:
  token: test-token
`))
	require.NoError(t, err)

	assert.Equal(t, "?", cfg.Prefix)
	assert.Equal(t, 500, cfg.CharLimit)
	assert.False(t, cfg.EmbedsActive)
	assert.True(t, cfg.Timeout.IsStructured())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("YOMIKO_DISCORD_TOKEN", "env-token")
	t.Setenv("YOMIKO_DB_PATH", "/tmp/env.db")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing token", "prefix: '!'\n"},
		{"zero char limit", "char_limit: 0\ndiscord:\n  token: t\n"},
		{"empty prefix", "prefix: \"\"\ndiscord:\n  token: t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestTemplateShape(t *testing.T) {
	assert.False(t, Template{Text: "plain"}.IsStructured())
	assert.True(t, Template{Title: "t"}.IsStructured())
	assert.False(t, Template{}.IsStructured())
}
