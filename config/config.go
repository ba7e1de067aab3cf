package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreDynamoDB = "dynamodb"
	StoreBolt     = "bolt"
)

// Config represents the main configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AWS     AWSConfig     `yaml:"aws"`
	Scan    ScanConfig    `yaml:"scan"`
	Store   StoreConfig   `yaml:"store"`
	Bedrock BedrockConfig `yaml:"bedrock"`
	OTEL    OTELConfig    `yaml:"otel,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AWSConfig holds settings for the service's own AWS access
// (record store and Bedrock), not the scanned account.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// ScanConfig holds scan execution bounds
type ScanConfig struct {
	// RegionConcurrency caps how many regions are scanned at once,
	// bounding simultaneous outbound calls against the target account.
	RegionConcurrency int           `yaml:"region_concurrency"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout"`
	ProbeRetries      int           `yaml:"probe_retries"`
	RecommendTimeout  time.Duration `yaml:"recommend_timeout"`
}

// StoreConfig holds scan record store settings
type StoreConfig struct {
	Backend  string `yaml:"backend"`
	Table    string `yaml:"table"`
	BoltPath string `yaml:"bolt_path"`
}

// BedrockConfig holds recommendation model settings
type BedrockConfig struct {
	ModelID   string `yaml:"model_id"`
	MaxTokens int    `yaml:"max_tokens"`
}

// OTELConfig holds OpenTelemetry export settings
type OTELConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Scan: ScanConfig{
			RegionConcurrency: 4,
			ProbeTimeout:      30 * time.Second,
			ProbeRetries:      3,
			RecommendTimeout:  2 * time.Minute,
		},
		Store: StoreConfig{
			Backend: StoreDynamoDB,
			Table:   "CloudPillar",
		},
		Bedrock: BedrockConfig{
			ModelID:   "anthropic.claude-sonnet-4-20250514-v1:0",
			MaxTokens: 8000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from file, with defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv lets deploy-time environment override file settings.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLOUDPILLAR_DYNAMODB_TABLE"); v != "" {
		c.Store.Table = v
	}
	if v := os.Getenv("CLOUDPILLAR_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.AWS.Region = v
	}
	if v := os.Getenv("CLOUDPILLAR_BEDROCK_MODEL_ID"); v != "" {
		c.Bedrock.ModelID = v
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("aws region is required")
	}
	if c.Scan.RegionConcurrency < 1 {
		return fmt.Errorf("scan region_concurrency must be at least 1")
	}
	if c.Scan.ProbeTimeout <= 0 {
		return fmt.Errorf("scan probe_timeout must be positive")
	}
	if c.Scan.ProbeRetries < 1 {
		return fmt.Errorf("scan probe_retries must be at least 1")
	}

	switch c.Store.Backend {
	case StoreDynamoDB:
		if c.Store.Table == "" {
			return fmt.Errorf("store table is required for dynamodb backend")
		}
	case StoreBolt:
		if c.Store.BoltPath == "" {
			return fmt.Errorf("store bolt_path is required for bolt backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	return nil
}
