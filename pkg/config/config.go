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

// Config holds all configuration options for the image acquisition service
type Config struct {
	// Search provider settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// HTTP server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds settings for the image search request
type SearchConfig struct {
	// URLTemplate receives the URL-encoded query via fmt.Sprintf
	URLTemplate    string        `yaml:"url_template" json:"url_template"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language" json:"accept_language"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
}

// DownloadConfig holds per-candidate fetch settings
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// DownloadsPerMinute paces successive candidate fetches
	DownloadsPerMinute int `yaml:"downloads_per_minute" json:"downloads_per_minute"`
}

// OutputConfig holds storage placement configuration
type OutputConfig struct {
	// BaseDirectory overrides the resolved storage root when non-empty
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	// Serverless switches to the temp-dir root and URL-only mode
	Serverless bool `yaml:"serverless" json:"serverless"`
}

// ServerConfig holds the HTTP front-end settings
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			URLTemplate:    "https://www.bing.com/images/search?q=%s&qft=+filterui:photo-photo&FORM=IRFLTR",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
			Timeout:        15 * time.Second,
			MaxRetries:     3,
		},
		Download: DownloadConfig{
			Timeout:            10 * time.Second,
			DownloadsPerMinute: 60,
		},
		Output: OutputConfig{
			BaseDirectory: "",
			// Serverless runtimes expose their own marker variable
			Serverless: os.Getenv("VERCEL") != "",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if tmpl := os.Getenv("DOWLOADIMG_SEARCH_URL"); tmpl != "" {
		c.Search.URLTemplate = tmpl
	}
	if ua := os.Getenv("DOWLOADIMG_USER_AGENT"); ua != "" {
		c.Search.UserAgent = ua
	}
	if addr := os.Getenv("DOWLOADIMG_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("DOWLOADIMG_OUTPUT_DIR"); dir != "" {
		c.Output.BaseDirectory = dir
	}
	if sls := os.Getenv("DOWLOADIMG_SERVERLESS"); sls != "" {
		c.Output.Serverless = strings.ToLower(sls) == "true" || sls == "1"
	}
	if timeout := os.Getenv("DOWLOADIMG_DOWNLOAD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.Download.Timeout = d
		}
	}
	if dpm := os.Getenv("DOWLOADIMG_DOWNLOADS_PER_MINUTE"); dpm != "" {
		var val int
		fmt.Sscanf(dpm, "%d", &val)
		if val > 0 {
			c.Download.DownloadsPerMinute = val
		}
	}
	if logLevel := os.Getenv("DOWLOADIMG_LOG_LEVEL"); logLevel != "" {
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
		".dowloadimg.yaml",
		".dowloadimg.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "dowloadimg", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".dowloadimg.yaml"),
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

	if c.Search.URLTemplate == "" {
		errs = append(errs, errors.New("search URL template is required"))
	}
	if !strings.Contains(c.Search.URLTemplate, "%s") {
		errs = append(errs, errors.New("search URL template must contain a %s query placeholder"))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, errors.New("search timeout must be positive"))
	}
	if c.Search.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.Timeout > 15*time.Second {
		errs = append(errs, errors.New("download timeout must not exceed 15s"))
	}
	if c.Download.DownloadsPerMinute <= 0 {
		errs = append(errs, errors.New("downloads per minute must be positive"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
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

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".dowloadimg.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
