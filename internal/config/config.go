package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Retry is a per-provider 429 retry policy. MaxRetries 0 disables retrying.
// An absent block takes the provider default.
type Retry struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// Config holds all application configuration.
type Config struct {
	WindowDays int `yaml:"window_days"`
	Crypto     struct {
		BaseURL         string        `yaml:"base_url"`
		APIKey          string        `yaml:"api_key"`
		VsCurrency      string        `yaml:"vs_currency"`
		Assets          []string      `yaml:"assets"`
		Pause           time.Duration `yaml:"pause"`
		SkipRateLimited bool          `yaml:"skip_rate_limited"`
		Retry           *Retry        `yaml:"retry"`
	} `yaml:"crypto"`
	Equity struct {
		BaseURL  string        `yaml:"base_url"`
		Symbols  []string      `yaml:"symbols"`
		Adjusted *bool         `yaml:"adjusted"`
		Pause    time.Duration `yaml:"pause"`
		Retry    *Retry        `yaml:"retry"`
	} `yaml:"equity"`
	Output struct {
		DataDir         string `yaml:"data_dir"`
		Manifest        string `yaml:"manifest"`
		MetricsTextfile string `yaml:"metrics_textfile"`
	} `yaml:"output"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Proxy       string        `yaml:"proxy"`
}

// Default asset lists.
var (
	DefaultCryptoAssets = []string{"bitcoin", "ethereum", "tether", "binancecoin", "solana"}
	DefaultEquities     = []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "BRK-B", "TSLA", "LVMUY", "JPM"}
)

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Crypto.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.Crypto.BaseURL = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		c.Equity.BaseURL = v
	}
	if v := os.Getenv("CRYPTO_ASSETS"); v != "" {
		c.Crypto.Assets = splitList(v)
	}
	if v := os.Getenv("EQUITY_SYMBOLS"); v != "" {
		c.Equity.Symbols = splitList(v)
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Output.DataDir = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

func (c *Config) applyDefaults() {
	if c.WindowDays == 0 {
		c.WindowDays = 365
	}
	if c.Crypto.VsCurrency == "" {
		c.Crypto.VsCurrency = "usd"
	}
	if len(c.Crypto.Assets) == 0 {
		c.Crypto.Assets = append([]string(nil), DefaultCryptoAssets...)
	}
	if c.Crypto.Pause == 0 {
		c.Crypto.Pause = 1200 * time.Millisecond
	}
	// The equity provider is not retried unless configured.
	if c.Crypto.Retry == nil {
		c.Crypto.Retry = &Retry{MaxRetries: 3, InitialDelay: 2 * time.Second}
	}
	if c.Equity.Retry == nil {
		c.Equity.Retry = &Retry{}
	}
	if len(c.Equity.Symbols) == 0 {
		c.Equity.Symbols = append([]string(nil), DefaultEquities...)
	}
	if c.Equity.Adjusted == nil {
		adjusted := true
		c.Equity.Adjusted = &adjusted
	}
	if c.Output.DataDir == "" {
		c.Output.DataDir = "data"
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = filepath.Join(c.ProcessedDir(), "run_manifest.json")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 30 * time.Second
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	if err := validateIDs("crypto.assets", c.Crypto.Assets); err != nil {
		return err
	}
	if err := validateIDs("equity.symbols", c.Equity.Symbols); err != nil {
		return err
	}
	for name, r := range map[string]*Retry{"crypto.retry": c.Crypto.Retry, "equity.retry": c.Equity.Retry} {
		if r == nil {
			continue
		}
		if r.MaxRetries < 0 {
			return fmt.Errorf("%s.max_retries must not be negative", name)
		}
		if r.MaxRetries > 0 && r.InitialDelay <= 0 {
			return fmt.Errorf("%s.initial_delay must be positive when retries are enabled", name)
		}
	}
	if c.Crypto.Pause < 0 || c.Equity.Pause < 0 {
		return fmt.Errorf("pause must not be negative")
	}
	return nil
}

// RawDir is where the per-class tables are written.
func (c *Config) RawDir() string { return filepath.Join(c.Output.DataDir, "raw") }

// ProcessedDir is where the merged table is written.
func (c *Config) ProcessedDir() string { return filepath.Join(c.Output.DataDir, "processed") }

func validateIDs(field string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%s contains an empty identifier", field)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%s contains %q twice", field, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
