package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dm-vev/netcore/core/plugin"
	"github.com/pelletier/go-toml"
)

// Store backends.
const (
	BackendLevelDB = "leveldb"
	BackendMongo   = "mongo"
)

// Config is the network configuration of a server. It is read from a TOML
// file and may be overridden by NETCORE_* environment variables.
type Config struct {
	Server struct {
		// Name identifies the server on the message bus, such as lobby-1.
		Name string `toml:"name" env:"NETCORE_SERVER_NAME"`
		// LogLevel is one of debug, info, warn and error.
		LogLevel string `toml:"log_level" env:"NETCORE_LOG_LEVEL"`
	} `toml:"server"`
	Store struct {
		// Backend is either leveldb or mongo.
		Backend string `toml:"backend" env:"NETCORE_STORE_BACKEND"`
		// Path is the LevelDB directory.
		Path string `toml:"path" env:"NETCORE_STORE_PATH"`
		// MongoURI and MongoDatabase select the MongoDB database.
		MongoURI      string `toml:"mongo_uri" env:"NETCORE_MONGO_URI"`
		MongoDatabase string `toml:"mongo_database" env:"NETCORE_MONGO_DATABASE"`
		// Timeout bounds connecting to the store, such as 10s.
		Timeout string `toml:"timeout" env:"NETCORE_STORE_TIMEOUT"`
	} `toml:"store"`
	Bus struct {
		// RedisURL enables the Redis bus. An empty URL keeps the server
		// standalone.
		RedisURL string `toml:"redis_url" env:"NETCORE_REDIS_URL"`
		Prefix   string `toml:"prefix" env:"NETCORE_BUS_PREFIX"`
		PoolSize int    `toml:"pool_size" env:"NETCORE_BUS_POOL_SIZE"`
	} `toml:"bus"`
	Cache struct {
		ProfileTTL string `toml:"profile_ttl" env:"NETCORE_CACHE_PROFILE_TTL"`
		SkinTTL    string `toml:"skin_ttl" env:"NETCORE_CACHE_SKIN_TTL"`
	} `toml:"cache"`
	Plugins   plugin.Config `toml:"plugins"`
	Whitelist struct {
		// Enabled puts the server in maintenance: only listed players and
		// staff may join.
		Enabled bool   `toml:"enabled" env:"NETCORE_WHITELIST_ENABLED"`
		File    string `toml:"file" env:"NETCORE_WHITELIST_FILE"`
	} `toml:"whitelist"`
	Resources struct {
		// Folder holds resource packs sent to joining players.
		Folder   string `toml:"folder" env:"NETCORE_RESOURCES_FOLDER"`
		Required bool   `toml:"required" env:"NETCORE_RESOURCES_REQUIRED"`
	} `toml:"resources"`
	Scoreboard struct {
		Title string `toml:"title" env:"NETCORE_SCOREBOARD_TITLE"`
		// Refresh is the interval between sidebar and tab list updates.
		Refresh string `toml:"refresh" env:"NETCORE_SCOREBOARD_REFRESH"`
		Header  string `toml:"header" env:"NETCORE_SCOREBOARD_HEADER"`
		Footer  string `toml:"footer" env:"NETCORE_SCOREBOARD_FOOTER"`
	} `toml:"scoreboard"`
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() Config {
	c := Config{}
	c.Server.Name = "lobby-1"
	c.Server.LogLevel = "info"
	c.Store.Backend = BackendLevelDB
	c.Store.Path = "netcore"
	c.Store.MongoDatabase = "netcore"
	c.Store.Timeout = "10s"
	c.Bus.Prefix = "netcore"
	c.Bus.PoolSize = 10
	c.Cache.ProfileTTL = "5m"
	c.Cache.SkinTTL = "30m"
	c.Plugins.Enabled = true
	c.Plugins.Directory = "plugins"
	c.Plugins.Autoload = true
	c.Whitelist.File = "whitelist.toml"
	c.Resources.Folder = "resources"
	c.Scoreboard.Title = "<bold><gold>NETWORK</gold></bold>"
	c.Scoreboard.Refresh = "5s"
	return c
}

// LoadConfig reads the configuration at path, creating the file with the
// defaults if it does not exist, and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeConfig(path, c); err != nil {
			return c, err
		}
	case err != nil:
		return c, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	c.fill()
	return c, c.Validate()
}

func writeConfig(path string, c Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// fill restores defaults for values left empty in the file.
func (c *Config) fill() {
	def := DefaultConfig()
	setDefault(&c.Server.Name, def.Server.Name)
	setDefault(&c.Server.LogLevel, def.Server.LogLevel)
	setDefault(&c.Store.Backend, def.Store.Backend)
	setDefault(&c.Store.Path, def.Store.Path)
	setDefault(&c.Store.MongoDatabase, def.Store.MongoDatabase)
	setDefault(&c.Store.Timeout, def.Store.Timeout)
	setDefault(&c.Bus.Prefix, def.Bus.Prefix)
	setDefault(&c.Cache.ProfileTTL, def.Cache.ProfileTTL)
	setDefault(&c.Cache.SkinTTL, def.Cache.SkinTTL)
	setDefault(&c.Whitelist.File, def.Whitelist.File)
	setDefault(&c.Scoreboard.Refresh, def.Scoreboard.Refresh)
	if c.Bus.PoolSize <= 0 {
		c.Bus.PoolSize = def.Bus.PoolSize
	}
}

func setDefault(v *string, def string) {
	if strings.TrimSpace(*v) == "" {
		*v = def
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendLevelDB:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New("store: mongo_uri must be set for the mongo backend")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}
	for name, v := range map[string]string{
		"store.timeout":      c.Store.Timeout,
		"cache.profile_ttl":  c.Cache.ProfileTTL,
		"cache.skin_ttl":     c.Cache.SkinTTL,
		"scoreboard.refresh": c.Scoreboard.Refresh,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	return nil
}

// duration parses a setting checked by Validate.
func duration(v string) time.Duration {
	d, _ := time.ParseDuration(v)
	return d
}
