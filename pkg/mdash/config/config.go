// Package config loads mdash settings from flags, MDASH_* environment
// variables, an optional .env file and a YAML config file, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/komsit37/mdash/pkg/mdash/columns"
	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/pipeline"
	"github.com/komsit37/mdash/pkg/mdash/render"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

const EnvPrefix = "MDASH"

type Config struct {
	Log        LogConfig            `mapstructure:"log"`
	Market     MarketConfig         `mapstructure:"market"`
	Lookbacks  metrics.LookbackSpec `mapstructure:"lookbacks"`
	Oscillator OscillatorConfig     `mapstructure:"oscillator"`
	Scan       ScanConfig           `mapstructure:"scan"`
	Universes  UniversesConfig      `mapstructure:"universes"`
	Watch      WatchConfig          `mapstructure:"watch"`
	Output     OutputConfig         `mapstructure:"output"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // pretty, json or text
}

type MarketConfig struct {
	Suffix        string         `mapstructure:"suffix"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	HistoryPeriod string         `mapstructure:"history_period"`
	YahooBaseURL  string         `mapstructure:"yahoo_base_url"`
	Screener      ScreenerConfig `mapstructure:"screener"`
}

type ScreenerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

type OscillatorConfig struct {
	Window     int     `mapstructure:"window"`
	Smoothing  string  `mapstructure:"smoothing"`
	Overbought float64 `mapstructure:"overbought"`
	Oversold   float64 `mapstructure:"oversold"`
}

type ScanConfig struct {
	Workers       int           `mapstructure:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Period        string        `mapstructure:"period"`
	MinGain1M     float64       `mapstructure:"min_gain_1m"`
	MaxOscillator float64       `mapstructure:"max_oscillator"`
	Columns       []string      `mapstructure:"columns"`
}

type UniversesConfig struct {
	Path string `mapstructure:"path"` // YAML file or directory, or CSV; empty means built-in
}

type WatchConfig struct {
	Indices []string `mapstructure:"indices"`
	Every   string   `mapstructure:"every"` // cron spec; empty renders once
}

type OutputConfig struct {
	Format      string `mapstructure:"format"`
	Color       bool   `mapstructure:"color"`
	MaxColWidth int    `mapstructure:"max_col_width"`
	PrettyJSON  bool   `mapstructure:"pretty_json"`
}

// SetDefaults registers every key with its default so environment
// overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")

	v.SetDefault("market.suffix", ".NS")
	v.SetDefault("market.timeout", 10*time.Second)
	v.SetDefault("market.history_period", "max")
	v.SetDefault("market.yahoo_base_url", market.DefaultYahooBaseURL)
	v.SetDefault("market.screener.enabled", false)
	v.SetDefault("market.screener.base_url", market.DefaultScreenerBaseURL)

	lbs := make([]map[string]any, 0, len(metrics.DefaultLookbacks))
	for _, lb := range metrics.DefaultLookbacks {
		lbs = append(lbs, map[string]any{"label": lb.Label, "n": lb.N})
	}
	v.SetDefault("lookbacks", lbs)

	v.SetDefault("oscillator.window", metrics.DefaultWindow)
	v.SetDefault("oscillator.smoothing", "wilder")
	v.SetDefault("oscillator.overbought", metrics.DefaultZones.Overbought)
	v.SetDefault("oscillator.oversold", metrics.DefaultZones.Oversold)

	v.SetDefault("scan.workers", 8)
	v.SetDefault("scan.timeout", 10*time.Second)
	v.SetDefault("scan.period", "3mo")
	v.SetDefault("scan.min_gain_1m", 0.0)
	v.SetDefault("scan.max_oscillator", 30.0)
	v.SetDefault("scan.columns", []string{"default"})

	v.SetDefault("universes.path", "")

	v.SetDefault("watch.indices", pipeline.DefaultIndices)
	v.SetDefault("watch.every", "")

	v.SetDefault("output.format", "table")
	v.SetDefault("output.color", true)
	v.SetDefault("output.max_col_width", 40)
	v.SetDefault("output.pretty_json", true)
}

// Load reads configuration into a validated Config. file may be empty, in
// which case mdash.yaml is looked up in the working directory and in
// $HOME/.config/mdash; a missing file is not an error. A .env file in the
// working directory is loaded first without overriding set variables.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("mdash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mdash"))
		}
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", types.ErrInvalidArgument, fmt.Sprintf(format, args...)))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "pretty", "json", "text":
	default:
		bad("log.format %q (want pretty, json or text)", c.Log.Format)
	}

	if c.Market.Timeout <= 0 {
		bad("market.timeout must be positive")
	}
	if c.Scan.Timeout <= 0 {
		bad("scan.timeout must be positive")
	}
	if c.Scan.Workers <= 0 {
		bad("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if err := c.Lookbacks.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("lookbacks: %w", err))
	}
	if c.Oscillator.Window < 1 {
		bad("oscillator.window must be >= 1, got %d", c.Oscillator.Window)
	}
	if _, err := metrics.ParseSmoothing(c.Oscillator.Smoothing); err != nil {
		errs = append(errs, err)
	}
	if o := c.Oscillator; o.Oversold < 0 || o.Oversold > o.Overbought || o.Overbought > 100 {
		bad("oscillator bands need 0 <= oversold <= overbought <= 100, got %v/%v", o.Oversold, o.Overbought)
	}
	if _, err := columns.Compute(c.Scan.Columns); err != nil {
		errs = append(errs, fmt.Errorf("scan.columns: %w", err))
	}
	if _, err := render.New(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if c.Watch.Every != "" {
		if err := pipeline.ParseSchedule(c.Watch.Every); err != nil {
			errs = append(errs, fmt.Errorf("watch.every: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Symbols returns the exchange-suffix convention.
func (c *Config) Symbols() market.Symbols {
	return market.Symbols{Suffix: c.Market.Suffix}
}

// Settings converts the config into pipeline settings.
func (c *Config) Settings() pipeline.Settings {
	sm, _ := metrics.ParseSmoothing(c.Oscillator.Smoothing)
	return pipeline.Settings{
		Symbols:    c.Symbols(),
		Lookbacks:  c.Lookbacks,
		Oscillator: metrics.Oscillator{Window: c.Oscillator.Window, Smoothing: sm},
		Zones:      metrics.Zones{Overbought: c.Oscillator.Overbought, Oversold: c.Oscillator.Oversold},
		Period:     c.Market.HistoryPeriod,
		Timeout:    c.Market.Timeout,
		Workers:    c.Scan.Workers,
	}
}

// Criterion is the configured screening threshold.
func (c *Config) Criterion() types.ScanCriterion {
	return types.ScanCriterion{MinGain1M: c.Scan.MinGain1M, MaxOscillator: c.Scan.MaxOscillator}
}

// Provider builds the live data collaborators.
func (c *Config) Provider() market.Provider {
	sy := c.Symbols()
	p := market.Provider{
		History:      market.NewYahooChart(c.Market.YahooBaseURL, c.Market.Timeout),
		Quote:        market.NewYFQuote(c.Market.Timeout, sy),
		Fundamentals: market.NewYahooSummary(c.Market.YahooBaseURL, c.Market.Timeout, sy),
	}
	if c.Market.Screener.Enabled {
		p.Shareholding = market.NewScreener(c.Market.Screener.BaseURL, c.Market.Timeout, sy)
	}
	return p
}
