// Package config holds the run configuration and loads it from file and environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vertti/visualcheck/pkg/layoutcheck"
	"github.com/vertti/visualcheck/pkg/matrix"
	"github.com/vertti/visualcheck/pkg/theme"
)

// EnvPrefix prefixes environment overrides, e.g. VISUALCHECK_BASE_URL.
const EnvPrefix = "VISUALCHECK"

// DefaultFiles are searched in the working directory when no config path is given.
var DefaultFiles = []string{
	"visualcheck.yaml",
	"visualcheck.yml",
	"visualcheck.json",
	"visualcheck.toml",
	".visualcheck.yaml",
}

// Config is the full run configuration.
type Config struct {
	BaseURL     string            `mapstructure:"base_url" yaml:"base_url"`
	Pages       []matrix.Page     `mapstructure:"pages" yaml:"pages"`
	Viewports   []matrix.Viewport `mapstructure:"viewports" yaml:"viewports"`
	Themes      []string          `mapstructure:"themes" yaml:"themes"`
	OutputDir   string            `mapstructure:"output_dir" yaml:"output_dir"`
	ReportName  string            `mapstructure:"report_name" yaml:"report_name"`
	BrowserPath string            `mapstructure:"browser_path" yaml:"browser_path"` // empty: auto-detect
	Headless    bool              `mapstructure:"headless" yaml:"headless"`

	// CheckReachable requests base_url once before the browser starts and
	// aborts the run if it does not answer. Off by default: an unreachable
	// site otherwise surfaces as per-combination navigation errors.
	CheckReachable bool `mapstructure:"check_reachable" yaml:"check_reachable"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	NetworkIdle       time.Duration `mapstructure:"network_idle" yaml:"network_idle"`

	Theme  ThemeConfig  `mapstructure:"theme" yaml:"theme"`
	Checks ChecksConfig `mapstructure:"checks" yaml:"checks"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ThemeConfig controls theme switching and the settle wait.
type ThemeConfig struct {
	Attribute     string        `mapstructure:"attribute" yaml:"attribute"`
	Settle        string        `mapstructure:"settle" yaml:"settle"` // poll or fixed
	Delay         time.Duration `mapstructure:"delay" yaml:"delay"`
	Interval      time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	StableSamples int           `mapstructure:"stable_samples" yaml:"stable_samples"`
}

// ChecksConfig tunes the layout battery.
type ChecksConfig struct {
	MeasureSelectors  string  `mapstructure:"measure_selectors" yaml:"measure_selectors"`
	CardSelectors     string  `mapstructure:"card_selectors" yaml:"card_selectors"`
	LinkSelectors     string  `mapstructure:"link_selectors" yaml:"link_selectors"`
	FooterSelector    string  `mapstructure:"footer_selector" yaml:"footer_selector"`
	MaxMeasure        float64 `mapstructure:"max_measure" yaml:"max_measure"`
	MobileBreakpoint  int     `mapstructure:"mobile_breakpoint" yaml:"mobile_breakpoint"`
	OverflowTolerance float64 `mapstructure:"overflow_tolerance" yaml:"overflow_tolerance"`
	MaxOffenders      int     `mapstructure:"max_offenders" yaml:"max_offenders"`
}

// LogConfig controls the structured log.
type LogConfig struct {
	Dir   string `mapstructure:"dir" yaml:"dir"` // empty: no log file
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the configuration of the stock site run.
func Default() *Config {
	return &Config{
		BaseURL: "http://127.0.0.1:1111",
		Pages: []matrix.Page{
			{Name: "home", Path: "/"},
			{Name: "blog", Path: "/blog/"},
			{Name: "projects", Path: "/projects/"},
			{Name: "article", Path: "/blog/10-walls-to-1m-context/"},
		},
		Viewports: []matrix.Viewport{
			{Name: "mobile", Width: 375, Height: 812},
			{Name: "tablet", Width: 768, Height: 1024},
			{Name: "desktop", Width: 1440, Height: 900},
		},
		Themes:            []string{"dark", "light"},
		OutputDir:         "screenshots",
		ReportName:        "report.json",
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		NetworkIdle:       500 * time.Millisecond,
		Theme: ThemeConfig{
			Attribute:     theme.DefaultAttribute,
			Settle:        string(theme.ModePoll),
			Delay:         theme.DefaultDelay,
			Interval:      theme.DefaultInterval,
			Timeout:       theme.DefaultTimeout,
			StableSamples: theme.DefaultStableSamples,
		},
		Checks: ChecksConfig{
			MeasureSelectors:  layoutcheck.DefaultMeasureSelectors,
			CardSelectors:     layoutcheck.DefaultCardSelectors,
			LinkSelectors:     layoutcheck.DefaultLinkSelectors,
			FooterSelector:    layoutcheck.DefaultFooterSelector,
			MaxMeasure:        layoutcheck.DefaultMaxMeasure,
			MobileBreakpoint:  layoutcheck.DefaultMobileBreakpoint,
			OverflowTolerance: layoutcheck.DefaultOverflowTolerance,
			MaxOffenders:      layoutcheck.DefaultMaxOffenders,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from path, or from the first DefaultFiles entry
// found in the working directory when path is empty. Without a file the
// defaults apply. Environment variables override both.
func Load(path string) (*Config, error) {
	if path == "" {
		path = discover(".")
	}

	// A fresh viper instance per load keeps tests independent.
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("pages", d.Pages)
	v.SetDefault("viewports", d.Viewports)
	v.SetDefault("themes", d.Themes)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("report_name", d.ReportName)
	v.SetDefault("browser_path", d.BrowserPath)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("check_reachable", d.CheckReachable)
	v.SetDefault("navigation_timeout", d.NavigationTimeout)
	v.SetDefault("network_idle", d.NetworkIdle)

	v.SetDefault("theme.attribute", d.Theme.Attribute)
	v.SetDefault("theme.settle", d.Theme.Settle)
	v.SetDefault("theme.delay", d.Theme.Delay)
	v.SetDefault("theme.interval", d.Theme.Interval)
	v.SetDefault("theme.timeout", d.Theme.Timeout)
	v.SetDefault("theme.stable_samples", d.Theme.StableSamples)

	v.SetDefault("checks.measure_selectors", d.Checks.MeasureSelectors)
	v.SetDefault("checks.card_selectors", d.Checks.CardSelectors)
	v.SetDefault("checks.link_selectors", d.Checks.LinkSelectors)
	v.SetDefault("checks.footer_selector", d.Checks.FooterSelector)
	v.SetDefault("checks.max_measure", d.Checks.MaxMeasure)
	v.SetDefault("checks.mobile_breakpoint", d.Checks.MobileBreakpoint)
	v.SetDefault("checks.overflow_tolerance", d.Checks.OverflowTolerance)
	v.SetDefault("checks.max_offenders", d.Checks.MaxOffenders)

	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.level", d.Log.Level)
}

func discover(dir string) string {
	for _, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Validate checks the configuration for values the run cannot work with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base_url: %q", c.BaseURL))
	}
	if err := c.Matrix().Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, vp := range c.Viewports {
		if vp.Width <= 0 || vp.Height <= 0 {
			errs = append(errs, fmt.Errorf("viewport %q: width and height must be positive", vp.Name))
		}
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.ReportName == "" {
		errs = append(errs, errors.New("report_name is required"))
	}
	switch theme.Mode(c.Theme.Settle) {
	case theme.ModePoll, theme.ModeFixed:
	default:
		errs = append(errs, fmt.Errorf("theme.settle must be %q or %q, got %q", theme.ModePoll, theme.ModeFixed, c.Theme.Settle))
	}
	if c.NavigationTimeout < 0 || c.NetworkIdle < 0 {
		errs = append(errs, errors.New("navigation_timeout and network_idle must not be negative"))
	}

	return errors.Join(errs...)
}

// Matrix returns the enumeration inputs.
func (c *Config) Matrix() matrix.Matrix {
	themes := make([]matrix.Theme, len(c.Themes))
	for i, t := range c.Themes {
		themes[i] = matrix.Theme(t)
	}
	return matrix.Matrix{Pages: c.Pages, Viewports: c.Viewports, Themes: themes}
}

// ReportPath returns the location of the JSON report.
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.ReportName)
}

// Checker builds the layout battery from the checks section.
func (c *Config) Checker() *layoutcheck.Checker {
	return &layoutcheck.Checker{
		MeasureSelectors:  c.Checks.MeasureSelectors,
		CardSelectors:     c.Checks.CardSelectors,
		LinkSelectors:     c.Checks.LinkSelectors,
		FooterSelector:    c.Checks.FooterSelector,
		MaxMeasure:        c.Checks.MaxMeasure,
		MobileBreakpoint:  c.Checks.MobileBreakpoint,
		OverflowTolerance: c.Checks.OverflowTolerance,
		MaxOffenders:      c.Checks.MaxOffenders,
	}
}

// ThemeApplier builds the theme applier from the theme section.
func (c *Config) ThemeApplier() *theme.Applier {
	return &theme.Applier{
		Attribute:     c.Theme.Attribute,
		Mode:          theme.Mode(c.Theme.Settle),
		Delay:         c.Theme.Delay,
		Interval:      c.Theme.Interval,
		Timeout:       c.Theme.Timeout,
		StableSamples: c.Theme.StableSamples,
	}
}

// YAML renders the configuration in the same shape Load reads.
// Durations encode as strings such as "30s".
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
