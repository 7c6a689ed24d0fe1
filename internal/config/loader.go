package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for channelgate.yaml/.yml in standard locations.
// The search requires an explicit YAML extension to avoid matching the binary itself,
// which Viper's built-in SetConfigName would match (same base name, no extension).
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location.
		// Set name/type without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("channelgate")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: CHANNELGATE_SERVER_HTTP_ADDR
	viper.SetEnvPrefix("CHANNELGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a channelgate config file
// with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".channelgate"),
		"/etc/channelgate",
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for channelgate.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "channelgate"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds all config keys for environment variable support.
// Example: CHANNELGATE_CHANNELS_WAHA_API_KEY overrides channels.waha.api_key
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")

	_ = viper.BindEnv("client_id")

	_ = viper.BindEnv("channels.waha.enabled")
	_ = viper.BindEnv("channels.waha.api_key")
	_ = viper.BindEnv("channels.whatsapp_cloud.enabled")
	_ = viper.BindEnv("channels.whatsapp_cloud.verify_token")
	_ = viper.BindEnv("channels.meta.enabled")
	_ = viper.BindEnv("channels.meta.verify_token")
	_ = viper.BindEnv("channels.meta.page_id")

	_ = viper.BindEnv("storage.path")

	_ = viper.BindEnv("bot.url")
	_ = viper.BindEnv("bot.timeout")

	_ = viper.BindEnv("events.url")
	_ = viper.BindEnv("events.exchange")

	// Note: admin.api_keys is an array, complex to override via env.
	// Users should use the config file for admin keys.
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, validates, and returns the Config.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
