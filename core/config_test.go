package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "netcore.toml")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c.Server, again.Server)
	assert.Equal(t, c.Store, again.Store)
	assert.Equal(t, c.Scoreboard, again.Scoreboard)
}

func TestLoadConfigFillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netcore.toml")
	data := `
[server]
name = "game-2"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"
timeout = ""

[bus]
pool_size = 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "game-2", c.Server.Name)
	assert.Equal(t, BackendMongo, c.Store.Backend)
	assert.Equal(t, "10s", c.Store.Timeout)
	assert.Equal(t, 10, c.Bus.PoolSize)
	assert.Equal(t, "5m", c.Cache.ProfileTTL)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("NETCORE_SERVER_NAME", "game-7")
	t.Setenv("NETCORE_BUS_POOL_SIZE", "3")
	t.Setenv("NETCORE_WHITELIST_ENABLED", "true")
	t.Setenv("NETCORE_PLUGINS_FILES", "a.so,b.so")

	c, err := LoadConfig(filepath.Join(t.TempDir(), "netcore.toml"))
	require.NoError(t, err)
	assert.Equal(t, "game-7", c.Server.Name)
	assert.Equal(t, 3, c.Bus.PoolSize)
	assert.True(t, c.Whitelist.Enabled)
	assert.Equal(t, []string{"a.so", "b.so"}, c.Plugins.Files)
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netcore.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "decode config")
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	c.Store.Backend = "sqlite"
	assert.ErrorContains(t, c.Validate(), "unknown backend")

	c = DefaultConfig()
	c.Store.Backend = BackendMongo
	assert.ErrorContains(t, c.Validate(), "mongo_uri")

	c = DefaultConfig()
	c.Scoreboard.Refresh = "soon"
	assert.ErrorContains(t, c.Validate(), "scoreboard.refresh")

	c = DefaultConfig()
	c.Cache.SkinTTL = "-1m"
	assert.ErrorContains(t, c.Validate(), "cache.skin_ttl")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, duration("5m"))
	assert.Zero(t, duration("bogus"))
}
