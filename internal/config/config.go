package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the Google Books volumes endpoint
const DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// Config holds all application configuration
type Config struct {
	GoogleBooks GoogleBooksConfig `mapstructure:"google_books"`
	Network     NetworkConfig     `mapstructure:"network"`
	Log         LogConfig         `mapstructure:"log"`
	History     HistoryConfig     `mapstructure:"history"`
}

// GoogleBooksConfig holds the search endpoint settings
type GoogleBooksConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// NetworkConfig holds network settings
type NetworkConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
	File   string `mapstructure:"file"`   // used while the interactive UI owns the terminal
}

// HistoryConfig holds search history settings
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Limit   int  `mapstructure:"limit"`
}

var cfg *Config

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "booksearch")
}

// GetDBPath returns the database file path
func GetDBPath() string {
	return filepath.Join(GetConfigDir(), "booksearch.db")
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetLogPath returns the default log file path
func GetLogPath() string {
	return filepath.Join(GetConfigDir(), "booksearch.log")
}

// Init initializes the configuration
func Init(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(GetConfigDir())
	}

	// Environment variable overrides
	viper.SetEnvPrefix("BOOKSEARCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	cfg = nil
	return nil
}

func setDefaults() {
	viper.SetDefault("google_books.base_url", DefaultBaseURL)
	viper.SetDefault("network.connect_timeout", 15*time.Second)
	viper.SetDefault("network.read_timeout", 10*time.Second)
	viper.SetDefault("network.user_agent", "booksearch/"+userAgentVersion)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", GetLogPath())
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.limit", 20)
}

// userAgentVersion is reported in the default User-Agent header
const userAgentVersion = "0.1"

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		setDefaults()
		cfg = &Config{}
		_ = viper.Unmarshal(cfg)
		cfg.Log.File = expandPath(cfg.Log.File)
	}
	return cfg
}

// Set sets a configuration value and persists it
func Set(key, value string) error {
	viper.Set(key, value)

	// Ensure config directory exists
	configDir := GetConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// Reset cached config
	cfg = nil

	return viper.WriteConfigAs(GetConfigPath())
}

// GetValue retrieves a configuration value
func GetValue(key string) interface{} {
	return viper.Get(key)
}

// Reset drops all settings. Used by tests.
func Reset() {
	viper.Reset()
	cfg = nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
