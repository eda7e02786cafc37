package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the view-count sync
type Config struct {
	// Metrics API settings
	API APIConfig `yaml:"api" json:"api"`

	// Sheet (tabular source) settings
	Sheet SheetConfig `yaml:"sheet" json:"sheet"`

	// Batch scheduling configuration
	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Retry and rate-limit configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds metrics API settings
type APIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Token   string        `yaml:"token" json:"token"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SheetConfig holds the tabular source settings
type SheetConfig struct {
	Path         string `yaml:"path" json:"path"`
	URLColumn    string `yaml:"url_column" json:"url_column"`
	OutputColumn string `yaml:"output_column" json:"output_column"`
	StartRow     int    `yaml:"start_row" json:"start_row"`
	CursorDir    string `yaml:"cursor_dir" json:"cursor_dir"`
}

// BatchConfig holds batch scheduling configuration
type BatchConfig struct {
	Size           int           `yaml:"size" json:"size"`
	APICallDelay   time.Duration `yaml:"api_call_delay" json:"api_call_delay"`
	BatchDelay     time.Duration `yaml:"batch_delay" json:"batch_delay"`
	MaxItemsPerRun int           `yaml:"max_items_per_run" json:"max_items_per_run"`
}

// RateLimitConfig holds retry and rate-limit configuration
type RateLimitConfig struct {
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	InitialRetryDelay time.Duration `yaml:"initial_retry_delay" json:"initial_retry_delay"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	AbortThreshold    int           `yaml:"abort_threshold" json:"abort_threshold"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.postpulse.io",
			Timeout: 30 * time.Second,
		},
		Sheet: SheetConfig{
			URLColumn:    "A",
			OutputColumn: "B",
			StartRow:     2, // row 1 is the header
		},
		Batch: BatchConfig{
			Size:           10,
			APICallDelay:   500 * time.Millisecond,
			BatchDelay:     2 * time.Second,
			MaxItemsPerRun: 200,
		},
		RateLimit: RateLimitConfig{
			MaxRetries:        3,
			InitialRetryDelay: 1 * time.Second,
			MaxRetryDelay:     60 * time.Second,
			AbortThreshold:    3,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("VIEWLEDGER_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if token := os.Getenv("VIEWLEDGER_API_TOKEN"); token != "" {
		c.API.Token = token
	}

	if path := os.Getenv("VIEWLEDGER_SHEET_PATH"); path != "" {
		c.Sheet.Path = path
	}

	if batchSize := os.Getenv("VIEWLEDGER_BATCH_SIZE"); batchSize != "" {
		if val, err := strconv.Atoi(batchSize); err == nil && val > 0 {
			c.Batch.Size = val
		}
	}
	if maxItems := os.Getenv("VIEWLEDGER_MAX_ITEMS_PER_RUN"); maxItems != "" {
		if val, err := strconv.Atoi(maxItems); err == nil && val > 0 {
			c.Batch.MaxItemsPerRun = val
		}
	}
	if delay := os.Getenv("VIEWLEDGER_API_CALL_DELAY"); delay != "" {
		if val, err := time.ParseDuration(delay); err == nil && val >= 0 {
			c.Batch.APICallDelay = val
		}
	}

	if maxRetries := os.Getenv("VIEWLEDGER_MAX_RETRIES"); maxRetries != "" {
		if val, err := strconv.Atoi(maxRetries); err == nil && val > 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if threshold := os.Getenv("VIEWLEDGER_RATE_LIMIT_ABORT_THRESHOLD"); threshold != "" {
		if val, err := strconv.Atoi(threshold); err == nil && val > 0 {
			c.RateLimit.AbortThreshold = val
		}
	}

	if logLevel := os.Getenv("VIEWLEDGER_LOG_LEVEL"); logLevel != "" {
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
	locations := []string{
		".viewledger.yaml",
		".viewledger.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "viewledger", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "viewledger", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".viewledger.yaml"),
		filepath.Join(os.Getenv("HOME"), ".viewledger.yml"),
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

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	if c.Sheet.Path == "" {
		errs = append(errs, errors.New("sheet path is required"))
	}
	if c.Sheet.URLColumn == "" {
		errs = append(errs, errors.New("URL column is required"))
	}
	if c.Sheet.OutputColumn == "" {
		errs = append(errs, errors.New("output column is required"))
	}
	if strings.EqualFold(c.Sheet.URLColumn, c.Sheet.OutputColumn) {
		errs = append(errs, errors.New("URL column and output column must differ"))
	}
	if c.Sheet.StartRow < 1 {
		errs = append(errs, errors.New("start row must be at least 1"))
	}

	if c.Batch.Size <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Batch.APICallDelay < 0 {
		errs = append(errs, errors.New("API call delay cannot be negative"))
	}
	if c.Batch.BatchDelay < 0 {
		errs = append(errs, errors.New("batch delay cannot be negative"))
	}
	if c.Batch.MaxItemsPerRun <= 0 {
		errs = append(errs, errors.New("max items per run must be positive"))
	}

	if c.RateLimit.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.RateLimit.InitialRetryDelay <= 0 {
		errs = append(errs, errors.New("initial retry delay must be positive"))
	}
	if c.RateLimit.MaxRetryDelay < c.RateLimit.InitialRetryDelay {
		errs = append(errs, errors.New("max retry delay must be at least the initial retry delay"))
	}
	if c.RateLimit.AbortThreshold <= 0 {
		errs = append(errs, errors.New("rate limit abort threshold must be positive"))
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
	if sheetPath, ok := flags["sheet"].(string); ok && sheetPath != "" {
		c.Sheet.Path = sheetPath
	}
	if urlColumn, ok := flags["url-column"].(string); ok && urlColumn != "" {
		c.Sheet.URLColumn = urlColumn
	}
	if outputColumn, ok := flags["output-column"].(string); ok && outputColumn != "" {
		c.Sheet.OutputColumn = outputColumn
	}
	if startRow, ok := flags["start-row"].(int); ok && startRow > 0 {
		c.Sheet.StartRow = startRow
	}
	if batchSize, ok := flags["batch-size"].(int); ok && batchSize > 0 {
		c.Batch.Size = batchSize
	}
	if maxItems, ok := flags["max-items"].(int); ok && maxItems > 0 {
		c.Batch.MaxItemsPerRun = maxItems
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries > 0 {
		c.RateLimit.MaxRetries = maxRetries
	}
	if threshold, ok := flags["abort-threshold"].(int); ok && threshold > 0 {
		c.RateLimit.AbortThreshold = threshold
	}
	if baseURL, ok := flags["api-base-url"].(string); ok && baseURL != "" {
		c.API.BaseURL = baseURL
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".viewledger.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
