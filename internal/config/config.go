package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoints are the fallback documentation hosts queried for coding
// tables, in resolution order.
var DefaultEndpoints = []string{
	"https://biobank.ndph.ox.ac.uk/ukb/",
	"https://biobank.ctsu.ox.ac.uk/crystal/",
}

// Global configuration structure.
type Global struct {
	// Ordered fallback base URLs for coding-table resolution.
	Endpoints []string `mapstructure:"endpoints" yaml:"endpoints"`
	// Endpoint-relative path of the coding resource.
	CodingPath string `mapstructure:"coding_path" yaml:"coding_path"`
	// Query flag requesting the structured/plain table rendering.
	PlainFlag string `mapstructure:"plain_flag" yaml:"plain_flag"`

	// HTTP / politeness configuration
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	FetchDelayMs   int `mapstructure:"fetch_delay_ms" yaml:"fetch_delay_ms"`

	// Default coding-map cache location.
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file"`

	// Default naming style for planned headers.
	Style string `mapstructure:"style" yaml:"style"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.codeloom/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".codeloom")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CODELOOM")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("endpoints", DefaultEndpoints)
	v.SetDefault("coding_path", "coding.cgi")
	v.SetDefault("plain_flag", "nl=1")
	v.SetDefault("http_timeout_sec", 20)
	v.SetDefault("fetch_delay_ms", 300)
	v.SetDefault("style", "snake")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".codeloom")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve cache_file default: ~/.codeloom/codings.json
	if c.CacheFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.CacheFile = filepath.Join(home, ".codeloom", "codings.json")
	}
	if len(c.Endpoints) == 0 {
		c.Endpoints = DefaultEndpoints
	}
	return &c, nil
}
