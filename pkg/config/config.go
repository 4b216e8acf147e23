// Package config loads formrunner configuration. Values come from three
// layers, later layers winning: built-in defaults, an optional YAML file,
// and FORMRUNNER_* environment variables (with .env autoloading for local
// development).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Browser engine names accepted by BrowserType.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// Config holds every runtime knob of the execution engine. It is a flat
// read-only document: load it once at startup and pass it down.
type Config struct {
	// Browser settings. WebKit is the production choice: the target
	// sites block headless Chromium.
	BrowserType string  `yaml:"browser_type"`
	Headless    bool    `yaml:"headless"`
	SlowMoMs    float64 `yaml:"slow_mo_ms"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// Navigation retry budget: NavigationAttempts total tries, each
	// bounded by NavigationTimeoutMs, spaced by NavigationRetryDelayMs.
	NavigationAttempts     int     `yaml:"navigation_attempts"`
	NavigationTimeoutMs    float64 `yaml:"navigation_timeout_ms"`
	NavigationRetryDelayMs float64 `yaml:"navigation_retry_delay_ms"`

	// Element interaction timeouts.
	ElementTimeoutMs  float64 `yaml:"element_timeout_ms"`
	StrategyTimeoutMs float64 `yaml:"strategy_timeout_ms"`

	// Settle pauses between interactions, in milliseconds.
	InitialSettleMs   float64 `yaml:"initial_settle_ms"`
	FieldPauseMs      float64 `yaml:"field_pause_ms"`
	PageSettleMs      float64 `yaml:"page_settle_ms"`
	GroupItemSettleMs float64 `yaml:"group_item_settle_ms"`

	// Screenshot audit trail.
	ScreenshotQuality int    `yaml:"screenshot_quality"`
	SaveScreenshots   bool   `yaml:"save_screenshots"`
	ScreenshotDir     string `yaml:"screenshot_dir"`

	// WizardsDir is the root of the discovery output layout.
	WizardsDir string `yaml:"wizards_dir"`

	// ExecutionTimeoutSec bounds a whole run. The engine itself does not
	// self-cancel; callers wrap Execute with a context deadline built
	// from this value.
	ExecutionTimeoutSec int `yaml:"execution_timeout_sec"`
}

// Default returns the built-in defaults, matching local development:
// visible Chromium, screenshots persisted to disk.
func Default() *Config {
	return &Config{
		BrowserType:            BrowserChromium,
		Headless:               false,
		SlowMoMs:               0,
		ViewportWidth:          1280,
		ViewportHeight:         1024,
		NavigationAttempts:     5,
		NavigationTimeoutMs:    20000,
		NavigationRetryDelayMs: 2000,
		ElementTimeoutMs:       10000,
		StrategyTimeoutMs:      5000,
		InitialSettleMs:        1000,
		FieldPauseMs:           300,
		PageSettleMs:           1500,
		GroupItemSettleMs:      500,
		ScreenshotQuality:      80,
		SaveScreenshots:        true,
		ScreenshotDir:          "screenshots",
		WizardsDir:             "wizards",
		ExecutionTimeoutSec:    60,
	}
}

// Production returns the Cloud Run profile: headless WebKit, no disk
// screenshots.
func Production() *Config {
	cfg := Default()
	cfg.BrowserType = BrowserWebKit
	cfg.Headless = true
	cfg.SaveScreenshots = false
	return cfg
}

// Load builds a Config from defaults, an optional YAML file, and the
// environment. An empty path skips the file layer. A missing file at an
// explicit path is an error; everything else about the file is optional.
func Load(path string) (*Config, error) {
	// Best effort: absence of a .env file is the normal case
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays FORMRUNNER_* environment variables.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("FORMRUNNER_BROWSER_TYPE"); ok {
		c.BrowserType = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookupBool("FORMRUNNER_HEADLESS"); ok {
		c.Headless = v
	}
	if v, ok := lookupFloat("FORMRUNNER_SLOW_MO_MS"); ok {
		c.SlowMoMs = v
	}
	if v, ok := lookupInt("FORMRUNNER_VIEWPORT_WIDTH"); ok {
		c.ViewportWidth = v
	}
	if v, ok := lookupInt("FORMRUNNER_VIEWPORT_HEIGHT"); ok {
		c.ViewportHeight = v
	}
	if v, ok := lookupInt("FORMRUNNER_NAVIGATION_ATTEMPTS"); ok {
		c.NavigationAttempts = v
	}
	if v, ok := lookupFloat("FORMRUNNER_NAVIGATION_TIMEOUT_MS"); ok {
		c.NavigationTimeoutMs = v
	}
	if v, ok := lookupFloat("FORMRUNNER_NAVIGATION_RETRY_DELAY_MS"); ok {
		c.NavigationRetryDelayMs = v
	}
	if v, ok := lookupFloat("FORMRUNNER_ELEMENT_TIMEOUT_MS"); ok {
		c.ElementTimeoutMs = v
	}
	if v, ok := lookupFloat("FORMRUNNER_STRATEGY_TIMEOUT_MS"); ok {
		c.StrategyTimeoutMs = v
	}
	if v, ok := lookupInt("FORMRUNNER_SCREENSHOT_QUALITY"); ok {
		c.ScreenshotQuality = v
	}
	if v, ok := lookupBool("FORMRUNNER_SAVE_SCREENSHOTS"); ok {
		c.SaveScreenshots = v
	}
	if v, ok := os.LookupEnv("FORMRUNNER_SCREENSHOT_DIR"); ok {
		c.ScreenshotDir = v
	}
	if v, ok := os.LookupEnv("FORMRUNNER_WIZARDS_DIR"); ok {
		c.WizardsDir = v
	}
	if v, ok := lookupInt("FORMRUNNER_EXECUTION_TIMEOUT_SEC"); ok {
		c.ExecutionTimeoutSec = v
	}
}

// Validate checks that the configuration is internally usable.
func (c *Config) Validate() error {
	switch c.BrowserType {
	case BrowserChromium, BrowserFirefox, BrowserWebKit:
	default:
		return fmt.Errorf("invalid browser_type %q: must be chromium, firefox, or webkit", c.BrowserType)
	}
	if c.NavigationAttempts < 1 {
		return fmt.Errorf("navigation_attempts must be at least 1, got %d", c.NavigationAttempts)
	}
	if c.ScreenshotQuality < 1 || c.ScreenshotQuality > 100 {
		return fmt.Errorf("screenshot_quality must be between 1 and 100, got %d", c.ScreenshotQuality)
	}
	if c.ViewportWidth < 1 || c.ViewportHeight < 1 {
		return fmt.Errorf("viewport dimensions must be positive, got %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.ExecutionTimeoutSec < 1 {
		return fmt.Errorf("execution_timeout_sec must be at least 1, got %d", c.ExecutionTimeoutSec)
	}
	return nil
}

// EnsureDirectories creates the directories the runner writes to.
func (c *Config) EnsureDirectories() error {
	if c.SaveScreenshots {
		if err := os.MkdirAll(c.ScreenshotDir, 0750); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	return nil
}

func lookupBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return parsed, true
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func lookupFloat(key string) (float64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
