package plugin

// Config controls the plugin loader.
type Config struct {
	// Enabled turns the loader on. When false no plugins are discovered.
	Enabled bool `toml:"enabled" env:"NETCORE_PLUGINS_ENABLED"`
	// Directory holds plugin binaries and is the base for relative Files.
	Directory string `toml:"directory" env:"NETCORE_PLUGINS_DIRECTORY"`
	// DataDirectory is where per-plugin data folders are created. Relative
	// paths are resolved against Directory; empty means Directory/data.
	DataDirectory string `toml:"data_directory" env:"NETCORE_PLUGINS_DATA_DIRECTORY"`
	// Autoload loads every .so file found in Directory.
	Autoload bool `toml:"autoload" env:"NETCORE_PLUGINS_AUTOLOAD"`
	// Files lists extra plugin binaries to load.
	Files []string `toml:"files" env:"NETCORE_PLUGINS_FILES" envSeparator:","`
}
