// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "spotify.client_id", envTransformFunc("MELODEX_SPOTIFY_CLIENT_ID"))
	assert.Equal(t, "youtube.api_key_2", envTransformFunc("MELODEX_YOUTUBE_API_KEY_2"))
	// Unmapped names fall through to the mechanical transform.
	assert.Equal(t, "search.cache_ttl", envTransformFunc("MELODEX_SEARCH_CACHE_TTL"))
}

func TestFindConfigFile(t *testing.T) {
	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "/tmp/explicit.yaml")
		assert.Equal(t, "/tmp/explicit.yaml", findConfigFile())
	})

	t.Run("falls back to empty when nothing exists", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		dir := t.TempDir()
		cwd, err := os.Getwd()
		require.NoError(t, err)
		defer func() { _ = os.Chdir(cwd) }()
		require.NoError(t, os.Chdir(dir))
		assert.Equal(t, "", findConfigFile())
	})
}

func TestLoadWithKoanf(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MELODEX_SPOTIFY_CLIENT_ID", "test-client")
	t.Setenv("MELODEX_SPOTIFY_CLIENT_SECRET", "test-secret")
	t.Setenv("MELODEX_YOUTUBE_API_KEY", "test-key")
	t.Setenv("MELODEX_SERVER_PORT", "9999")

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(cwd) }()
	require.NoError(t, os.Chdir(dir))

	cfg, err := LoadWithKoanf()
	require.NoError(t, err)
	assert.Equal(t, "test-client", cfg.Spotify.ClientID)
	assert.Equal(t, "test-secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "test-key", cfg.YouTube.APIKey)
	assert.Equal(t, 9999, cfg.Server.Port)
	// Untouched defaults still come through the struct layer.
	assert.Equal(t, 80, cfg.YouTube.DailyRequestCap)

	require.NotNil(t, GetKoanfInstance())
}

func TestLoadWithKoanfFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "melodex.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
spotify:
  client_id: yaml-client
  client_secret: yaml-secret
youtube:
  api_key: yaml-key
`), 0o644))

	t.Setenv("CONFIG_PATH", yamlPath)

	cfg, err := LoadWithKoanf()
	require.NoError(t, err)
	assert.Equal(t, "yaml-client", cfg.Spotify.ClientID)
	assert.Equal(t, "yaml-key", cfg.YouTube.APIKey)
}
