package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Discovery DiscoveryConfig
	Breaker   BreakerConfig
	Client    ClientConfig
	Logging   LogConfig
	Services  ServicesConfig
}

// ServerConfig holds the status API server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// DiscoveryConfig holds the health-check loop configuration.
type DiscoveryConfig struct {
	IntervalSeconds     int     `envconfig:"DISCOVERY_INTERVAL_SECONDS" default:"30"`
	ProbeTimeoutSeconds float64 `envconfig:"PROBE_TIMEOUT_SECONDS" default:"5"`
}

// BreakerConfig holds criticality-class threshold defaults.
type BreakerConfig struct {
	CriticalFailureThreshold uint32  `envconfig:"BREAKER_CRITICAL_FAILURE_THRESHOLD" default:"3"`
	CriticalRecoverySeconds  float64 `envconfig:"BREAKER_CRITICAL_RECOVERY_SECONDS" default:"60"`
	StandardFailureThreshold uint32  `envconfig:"BREAKER_STANDARD_FAILURE_THRESHOLD" default:"5"`
	StandardRecoverySeconds  float64 `envconfig:"BREAKER_STANDARD_RECOVERY_SECONDS" default:"30"`
	SuccessThreshold         uint32  `envconfig:"BREAKER_SUCCESS_THRESHOLD" default:"2"`
}

// ClientConfig holds resilient client defaults.
type ClientConfig struct {
	RequestTimeoutSeconds float64 `envconfig:"CLIENT_TIMEOUT_SECONDS" default:"30"`
	MaxRetries            int     `envconfig:"CLIENT_MAX_RETRIES" default:"3"`
	RetryMinWaitMs        int     `envconfig:"CLIENT_RETRY_MIN_WAIT_MS" default:"500"`
	RetryMaxWaitMs        int     `envconfig:"CLIENT_RETRY_MAX_WAIT_MS" default:"10000"`
	RateLimitRPS          float64 `envconfig:"CLIENT_RATE_LIMIT_RPS" default:"0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// ServiceEntry declares one logical service the layer mediates calls to.
type ServiceEntry struct {
	URL         string
	FallbackURL string
	Critical    bool
}

// ServicesConfig declares the known logical services.
type ServicesConfig struct {
	DocStoreURL         string `envconfig:"DOC_STORE_URL" default:"http://doc-store:5140"`
	DocStoreFallback    string `envconfig:"DOC_STORE_FALLBACK_URL" default:""`
	PromptStoreURL      string `envconfig:"PROMPT_STORE_URL" default:"http://prompt-store:5110"`
	PromptStoreFallback string `envconfig:"PROMPT_STORE_FALLBACK_URL" default:""`
	AnalyzerURL         string `envconfig:"ANALYZER_URL" default:"http://analyzer:5120"`
	AnalyzerFallback    string `envconfig:"ANALYZER_FALLBACK_URL" default:""`
	SecureScanURL       string `envconfig:"SECURE_SCAN_URL" default:"http://secure-scan:5130"`
	SecureScanFallback  string `envconfig:"SECURE_SCAN_FALLBACK_URL" default:""`
	OrchestratorURL     string `envconfig:"ORCHESTRATOR_URL" default:"http://orchestrator:5099"`
	OrchestratorFallbk  string `envconfig:"ORCHESTRATOR_FALLBACK_URL" default:""`
}

// Entries returns the declared services keyed by logical name.
// Storage and orchestration are critical: many services depend on them,
// so their breakers trip later and recover more cautiously.
func (s ServicesConfig) Entries() map[string]ServiceEntry {
	return map[string]ServiceEntry{
		"doc-store":    {URL: s.DocStoreURL, FallbackURL: s.DocStoreFallback, Critical: true},
		"prompt-store": {URL: s.PromptStoreURL, FallbackURL: s.PromptStoreFallback},
		"analyzer":     {URL: s.AnalyzerURL, FallbackURL: s.AnalyzerFallback},
		"secure-scan":  {URL: s.SecureScanURL, FallbackURL: s.SecureScanFallback},
		"orchestrator": {URL: s.OrchestratorURL, FallbackURL: s.OrchestratorFallbk, Critical: true},
	}
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks the numeric bounds of the configuration surface.
func (c *Config) Validate() error {
	if c.Discovery.IntervalSeconds < 1 {
		return fmt.Errorf("discovery interval must be at least 1 second, got %d", c.Discovery.IntervalSeconds)
	}
	if c.Discovery.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %v", c.Discovery.ProbeTimeoutSeconds)
	}
	if c.Breaker.CriticalFailureThreshold < 1 || c.Breaker.StandardFailureThreshold < 1 {
		return fmt.Errorf("failure thresholds must be at least 1")
	}
	if c.Breaker.SuccessThreshold < 1 {
		return fmt.Errorf("success threshold must be at least 1, got %d", c.Breaker.SuccessThreshold)
	}
	if c.Breaker.CriticalRecoverySeconds < 0 || c.Breaker.StandardRecoverySeconds < 0 {
		return fmt.Errorf("recovery timeouts cannot be negative")
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", c.Client.MaxRetries)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Discovery: DiscoveryConfig{
			IntervalSeconds:     30,
			ProbeTimeoutSeconds: 5,
		},
		Breaker: BreakerConfig{
			CriticalFailureThreshold: 3,
			CriticalRecoverySeconds:  60,
			StandardFailureThreshold: 5,
			StandardRecoverySeconds:  30,
			SuccessThreshold:         2,
		},
		Client: ClientConfig{
			RequestTimeoutSeconds: 30,
			MaxRetries:            3,
			RetryMinWaitMs:        500,
			RetryMaxWaitMs:        10000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Services: ServicesConfig{
			DocStoreURL:     "http://doc-store:5140",
			PromptStoreURL:  "http://prompt-store:5110",
			AnalyzerURL:     "http://analyzer:5120",
			SecureScanURL:   "http://secure-scan:5130",
			OrchestratorURL: "http://orchestrator:5099",
		},
	}
}
