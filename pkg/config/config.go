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

// Config holds all configuration options for the harvester
type Config struct {
	// Target platform settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Link collection settings
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// Per-item extraction settings
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`

	// Social action pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds target-platform-specific configuration
type InstagramConfig struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	SessionFile string `yaml:"session_file" json:"session_file"`
}

// BrowserConfig holds browser process configuration
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	ChromePath     string        `yaml:"chrome_path" json:"chrome_path"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	NavTimeout     time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	NavRetries     int           `yaml:"nav_retries" json:"nav_retries"`
	NavRetryDelay  time.Duration `yaml:"nav_retry_delay" json:"nav_retry_delay"`
	PageLoadDelay  time.Duration `yaml:"page_load_delay" json:"page_load_delay"`
}

// CollectionConfig holds scroll-and-collect tuning.
// Every value here is empirically tuned against one external UI's rendering
// behavior and has no principled derivation, so all of it is configurable.
type CollectionConfig struct {
	// Consecutive zero-progress cycles before a grid collection stops
	NoProgressThreshold int `yaml:"no_progress_threshold" json:"no_progress_threshold"`
	// Consecutive zero-progress cycles before a popup collection stops
	PopupNoProgressThreshold int `yaml:"popup_no_progress_threshold" json:"popup_no_progress_threshold"`
	// Hard ceiling on scroll cycles regardless of convergence
	MaxCycles int `yaml:"max_cycles" json:"max_cycles"`
	// Poll interval while waiting for new grid containers after a scroll
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	// Ceiling on the post-scroll container wait before falling back
	PollCeiling time.Duration `yaml:"poll_ceiling" json:"poll_ceiling"`
	// Fixed-pixel fallback scroll when no new containers appear in time
	FallbackScrollPixels int `yaml:"fallback_scroll_pixels" json:"fallback_scroll_pixels"`
	// Fixed wait after the fallback scroll
	FallbackWait time.Duration `yaml:"fallback_wait" json:"fallback_wait"`
	// Random delay bounds between popup scroll cycles
	PopupScrollDelay time.Duration `yaml:"popup_scroll_delay" json:"popup_scroll_delay"`
}

// ExtractionConfig holds per-item extraction configuration
type ExtractionConfig struct {
	// Number of isolated browser contexts for parallel extraction
	Parallel int `yaml:"parallel" json:"parallel"`
	// Wait after opening a content item before extracting
	ItemSettleDelay time.Duration `yaml:"item_settle_delay" json:"item_settle_delay"`
	// Random inter-item delay bounds in sequential mode
	ItemDelayMin time.Duration `yaml:"item_delay_min" json:"item_delay_min"`
	ItemDelayMax time.Duration `yaml:"item_delay_max" json:"item_delay_max"`
	// Wait for the tag popup to animate in
	PopupAnimationDelay time.Duration `yaml:"popup_animation_delay" json:"popup_animation_delay"`
	// Extra wait for popup content to render
	PopupContentDelay time.Duration `yaml:"popup_content_delay" json:"popup_content_delay"`
}

// RateLimitConfig holds social action pacing configuration
type RateLimitConfig struct {
	ActionsPerMinute int           `yaml:"actions_per_minute" json:"actions_per_minute"`
	ActionDelayMin   time.Duration `yaml:"action_delay_min" json:"action_delay_min"`
	ActionDelayMax   time.Duration `yaml:"action_delay_max" json:"action_delay_max"`
}

// OutputConfig holds export file configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	LinksFile     string `yaml:"links_file" json:"links_file"`
	RecordsFile   string `yaml:"records_file" json:"records_file"`
	ResultsFile   string `yaml:"results_file" json:"results_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:     "https://www.instagram.com",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			SessionFile: "instagram_session.json",
		},
		Browser: BrowserConfig{
			Headless:       true,
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			NavTimeout:     60 * time.Second,
			NavRetries:     3,
			NavRetryDelay:  2 * time.Second,
			PageLoadDelay:  2 * time.Second,
		},
		Collection: CollectionConfig{
			NoProgressThreshold:      5,
			PopupNoProgressThreshold: 3,
			MaxCycles:                150,
			PollInterval:             500 * time.Millisecond,
			PollCeiling:              5 * time.Second,
			FallbackScrollPixels:     600,
			FallbackWait:             1500 * time.Millisecond,
			PopupScrollDelay:         time.Second,
		},
		Extraction: ExtractionConfig{
			Parallel:            1,
			ItemSettleDelay:     3 * time.Second,
			ItemDelayMin:        2 * time.Second,
			ItemDelayMax:        4 * time.Second,
			PopupAnimationDelay: 1500 * time.Millisecond,
			PopupContentDelay:   500 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			ActionsPerMinute: 20,
			ActionDelayMin:   2 * time.Second,
			ActionDelayMax:   4 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./harvest",
			LinksFile:     "content_links.tsv",
			RecordsFile:   "content_records.csv",
			ResultsFile:   "results.json",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if sessionFile := os.Getenv("IGHARVEST_SESSION_FILE"); sessionFile != "" {
		c.Instagram.SessionFile = sessionFile
	}
	if userAgent := os.Getenv("IGHARVEST_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}
	if chromePath := os.Getenv("IGHARVEST_CHROME_PATH"); chromePath != "" {
		c.Browser.ChromePath = chromePath
	}
	if headless := os.Getenv("IGHARVEST_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if parallel := os.Getenv("IGHARVEST_PARALLEL"); parallel != "" {
		var val int
		fmt.Sscanf(parallel, "%d", &val)
		if val > 0 {
			c.Extraction.Parallel = val
		}
	}
	if apm := os.Getenv("IGHARVEST_ACTIONS_PER_MINUTE"); apm != "" {
		var val int
		fmt.Sscanf(apm, "%d", &val)
		if val > 0 {
			c.RateLimit.ActionsPerMinute = val
		}
	}
	if outputDir := os.Getenv("IGHARVEST_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logLevel := os.Getenv("IGHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".igharvest.yaml",
		".igharvest.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igharvest", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igharvest", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igharvest.yaml"),
		filepath.Join(os.Getenv("HOME"), ".igharvest.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.Instagram.SessionFile == "" {
		errs = append(errs, errors.New("session file path is required"))
	}

	if c.Collection.NoProgressThreshold <= 0 {
		errs = append(errs, errors.New("no-progress threshold must be positive"))
	}
	if c.Collection.PopupNoProgressThreshold <= 0 {
		errs = append(errs, errors.New("popup no-progress threshold must be positive"))
	}
	if c.Collection.MaxCycles <= 0 {
		errs = append(errs, errors.New("max cycles must be positive"))
	}
	if c.Collection.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Collection.PollCeiling < c.Collection.PollInterval {
		errs = append(errs, errors.New("poll ceiling must be at least the poll interval"))
	}

	if c.Extraction.Parallel <= 0 {
		errs = append(errs, errors.New("parallel contexts must be positive"))
	}
	if c.Extraction.Parallel > 8 {
		errs = append(errs, errors.New("parallel contexts should not exceed 8"))
	}
	if c.Extraction.ItemDelayMax < c.Extraction.ItemDelayMin {
		errs = append(errs, errors.New("item delay max must be at least item delay min"))
	}

	if c.RateLimit.ActionsPerMinute <= 0 {
		errs = append(errs, errors.New("actions per minute must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if sessionFile, ok := flags["session-file"].(string); ok && sessionFile != "" {
		c.Instagram.SessionFile = sessionFile
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if parallel, ok := flags["parallel"].(int); ok && parallel > 0 {
		c.Extraction.Parallel = parallel
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igharvest.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
