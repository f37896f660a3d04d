// Package config loads psxscraper settings from a YAML file and PSX_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Renderer names accepted by the renderer setting
const (
	RendererBrowser = "browser"
	RendererHTTP    = "http"
)

var renderers = []string{RendererBrowser, RendererHTTP}

// Config is the complete application configuration
type Config struct {
	URL              string        `mapstructure:"url"`
	OutputDir        string        `mapstructure:"output_dir"`
	IndexFile        string        `mapstructure:"index_file"`
	ConstituentsFile string        `mapstructure:"constituents_file"`
	Renderer         string        `mapstructure:"renderer"` // "browser" or "http"
	Progress         bool          `mapstructure:"progress"`
	LayoutName       string        `mapstructure:"layout"`
	Browser          BrowserConfig `mapstructure:"browser"`
	HTTP             HTTPConfig    `mapstructure:"http"`
	Cache            CacheConfig   `mapstructure:"cache"`
	Server           ServerConfig  `mapstructure:"server"`
	Log              LogConfig     `mapstructure:"log"`

	// Layout is resolved from LayoutName after loading
	Layout Layout `mapstructure:"-"`
}

// BrowserConfig holds headless Chrome settings
type BrowserConfig struct {
	Headless     bool          `mapstructure:"headless"`
	ExecPath     string        `mapstructure:"exec_path"`
	UserAgent    string        `mapstructure:"user_agent"`
	WindowWidth  int           `mapstructure:"window_width"`
	WindowHeight int           `mapstructure:"window_height"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"` // unconditional wait after navigation
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"` // bound on waiting for a table
}

// HTTPConfig holds settings for the plain HTTP renderer
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig holds the optional Redis render cache settings
type CacheConfig struct {
	Addr     string        `mapstructure:"addr"` // empty disables the cache
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"` // "debug", "info", "warn", "error"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/psxscraper.yaml
//  2. ~/.psxscraper/psxscraper.yaml
//
// Environment variables override file values, e.g. PSX_BROWSER_WAIT_TIMEOUT=30s.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("psxscraper")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".psxscraper"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PSX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// PORT is honored for hosted deployments
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings and resolves the named layout
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url must not be empty")
	}
	if !slices.Contains(renderers, c.Renderer) {
		return fmt.Errorf("unknown renderer %q (want one of %s)", c.Renderer, strings.Join(renderers, ", "))
	}
	if c.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("browser.wait_timeout must be positive")
	}
	if c.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must not be negative")
	}

	layout, err := ResolveLayout(c.LayoutName)
	if err != nil {
		return err
	}
	c.Layout = layout
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("url", "https://dps.psx.com.pk/indices")
	v.SetDefault("output_dir", ".")
	v.SetDefault("index_file", "kse100_index.csv")
	v.SetDefault("constituents_file", "kse100_constituents.csv")
	v.SetDefault("renderer", RendererBrowser)
	v.SetDefault("progress", true)
	v.SetDefault("layout", DefaultLayoutName)

	// Browser
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.settle_delay", "10s")
	v.SetDefault("browser.wait_timeout", "20s")

	// Plain HTTP
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0")

	// Cache (disabled)
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "0s")

	// Server
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
}
