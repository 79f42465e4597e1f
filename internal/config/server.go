package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MDB_LSP_LOG_LEVEL.
const EnvPrefix = "MDB_LSP"

type ServerConfig struct {
	AddonPaths  []string           `mapstructure:"addon_paths"`
	LogLevel    string             `mapstructure:"log_level"`
	Completion  CompletionConfig   `mapstructure:"completion"`
	Connection  ConnectionConfig   `mapstructure:"connection"`
	Connections []ConnectionTarget `mapstructure:"connections"`
	Wasm        WasmConfig         `mapstructure:"wasm"`
}

// CompletionConfig controls the completion and document handling.
type CompletionConfig struct {
	// Characters that make the editor request completion.
	TriggerCharacters []string `mapstructure:"trigger_characters"`
	// Open documents kept in memory before the least recently used is evicted.
	MaxDocuments int `mapstructure:"max_documents"`
	// Documents sampled per collection when suggesting field names.
	FieldSampleSize int `mapstructure:"field_sample_size"`
}

// ConnectionConfig holds driver settings shared by all connections.
type ConnectionConfig struct {
	// Connect and ping timeout (seconds).
	Timeout int `mapstructure:"timeout"`
}

// ConnectionTarget is a connection opened when the client initializes.
type ConnectionTarget struct {
	Name string `mapstructure:"name"`
	URI  string `mapstructure:"uri"`
}

// WasmConfig holds Wasm runtime configuration.
type WasmConfig struct {
	// Memory limit per module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Enable debug logging.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir"`
	// Maximum concurrent instances.
	MaxInstances int `mapstructure:"max_instances"`
	// Module execution timeout (seconds).
	ExecutionTimeout int `mapstructure:"execution_timeout"`
}

func LoadServerConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("addon_paths", []string{"./addons"})
	v.SetDefault("log_level", "info")

	// Completion defaults
	v.SetDefault("completion.trigger_characters", []string{".", "'", "\"", "`"})
	v.SetDefault("completion.max_documents", 100)
	v.SetDefault("completion.field_sample_size", 20)

	v.SetDefault("connection.timeout", 10)

	// Wasm defaults
	v.SetDefault("wasm.memory_pages", 256) // 16MB
	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "")
	v.SetDefault("wasm.max_instances", 100)
	v.SetDefault("wasm.execution_timeout", 5)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot check by type alone.
func (c *ServerConfig) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "log_level", Message: "must be one of debug, info, warn, error"}
	}

	if c.Completion.MaxDocuments <= 0 {
		return &ValidationError{Field: "completion.max_documents", Message: "must be positive"}
	}
	if c.Completion.FieldSampleSize < 0 {
		return &ValidationError{Field: "completion.field_sample_size", Message: "must not be negative"}
	}
	if c.Connection.Timeout <= 0 {
		return &ValidationError{Field: "connection.timeout", Message: "must be positive"}
	}

	seen := make(map[string]bool, len(c.Connections))
	for _, target := range c.Connections {
		if target.Name == "" || target.URI == "" {
			return &ValidationError{Field: "connections", Message: "name and uri are required"}
		}
		if seen[target.Name] {
			return &ValidationError{Field: "connections", Message: "duplicate connection name " + target.Name}
		}
		seen[target.Name] = true
	}

	return nil
}
