// Package config provides configuration management for the bridge
// monitoring service.
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service" json:"service"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka" json:"kafka"`
	Node       NodeConfig       `yaml:"node" json:"node"`
	Monitoring MonitoringConfig `yaml:"monitoring" json:"monitoring"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// ServiceConfig holds service identity settings.
type ServiceConfig struct {
	Name string `yaml:"name" json:"name"`
	Env  string `yaml:"env" json:"env"`
}

// DatabaseConfig holds database settings. Driver is sqlite for local
// development and postgres in production, matching the deployment split.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" json:"driver"` // sqlite, postgres
	Path                   string `yaml:"path" json:"path"`     // sqlite file path
	Host                   string `yaml:"host" json:"host"`
	Port                   int    `yaml:"port" json:"port"`
	Database               string `yaml:"database" json:"database"`
	User                   string `yaml:"user" json:"user"`
	Password               string `yaml:"password" json:"password"`
	MaxConnections         int    `yaml:"max_connections" json:"max_connections"`
	MaxIdleConns           int    `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" json:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis settings for the alert dedupe cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	PoolSize int    `yaml:"pool_size" json:"pool_size"`
}

// KafkaConfig holds the optional alert broker settings.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Brokers  []string `yaml:"brokers" json:"brokers"`
	Topic    string   `yaml:"topic" json:"topic"`
	ClientID string   `yaml:"client_id" json:"client_id"`
}

// NodeConfig holds QIE node RPC settings.
type NodeConfig struct {
	RPCURL          string `yaml:"rpc_url" json:"rpc_url"`
	ChainID         string `yaml:"chain_id" json:"chain_id"`
	Moniker         string `yaml:"moniker" json:"moniker"`
	RequestTimeout  int    `yaml:"request_timeout_sec" json:"request_timeout_sec"`
	PollIntervalSec int    `yaml:"poll_interval_sec" json:"poll_interval_sec"`
}

// MonitoringConfig holds the validation and alerting thresholds. The
// defaults come from the initial deployment and are tunable, not fixed
// truths.
type MonitoringConfig struct {
	ValidityThreshold float64 `yaml:"validity_threshold" json:"validity_threshold"` // verdict cutoff on [0,1]
	AlertThreshold    float64 `yaml:"alert_threshold" json:"alert_threshold"`       // alert cutoff on [0,1], exclusive
	CriticalThreshold float64 `yaml:"critical_threshold" json:"critical_threshold"`
	HighThreshold     float64 `yaml:"high_threshold" json:"high_threshold"`
	MediumThreshold   float64 `yaml:"medium_threshold" json:"medium_threshold"`
	ModelVersion      string  `yaml:"model_version" json:"model_version"`
	ModelConfidence   float64 `yaml:"model_confidence" json:"model_confidence"` // reported scorer confidence, 0-100

	RateLimit          int `yaml:"rate_limit" json:"rate_limit"` // requests per window per client
	RateLimitWindowSec int `yaml:"rate_limit_window_sec" json:"rate_limit_window_sec"`

	WebhookURL        string `yaml:"webhook_url" json:"webhook_url"`
	WebhookTimeoutSec int    `yaml:"webhook_timeout_sec" json:"webhook_timeout_sec"`
	DedupeWindowSec   int    `yaml:"dedupe_window_sec" json:"dedupe_window_sec"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Load reads and env-expands a YAML config file, overlaying it on the
// defaults. Keys absent from the file keep their default; a key set to
// an explicit zero keeps the zero.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	content := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// RequestTimeoutDuration returns the per-call RPC timeout.
func (c *NodeConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// PollInterval returns the health poll cadence.
func (c *NodeConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// RateLimitWindow returns the sliding window duration.
func (c *MonitoringConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// WebhookTimeout returns the webhook dispatch timeout.
func (c *MonitoringConfig) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSec) * time.Second
}

// DedupeWindow returns the alert dedupe window.
func (c *MonitoringConfig) DedupeWindow() time.Duration {
	return time.Duration(c.DedupeWindowSec) * time.Second
}

// expandEnvVars expands ${VAR:default} references.
func expandEnvVars(s string) string {
	result := s
	for {
		start := strings.Index(result, "${")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start

		expr := result[start+2 : end]
		parts := strings.SplitN(expr, ":", 2)
		varName := parts[0]
		defaultVal := ""
		if len(parts) > 1 {
			defaultVal = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			value = defaultVal
		}

		result = result[:start] + value + result[end+1:]
	}
	return result
}

// setDefaults fills a fresh config with the deployment defaults.
func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "bridgeguard"
	}
	if cfg.Service.Env == "" {
		cfg.Service.Env = "dev"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/bridgeguard.db"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConnections == 0 {
		cfg.Database.MaxConnections = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetimeMinutes == 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 60
	}

	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 20
	}

	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "bridge-alerts"
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = "bridgeguard"
	}

	if cfg.Node.RPCURL == "" {
		cfg.Node.RPCURL = "http://localhost:26657"
	}
	if cfg.Node.ChainID == "" {
		cfg.Node.ChainID = "qie_1990-1"
	}
	if cfg.Node.Moniker == "" {
		cfg.Node.Moniker = "bridgeguard-ai-validator"
	}
	if cfg.Node.RequestTimeout == 0 {
		cfg.Node.RequestTimeout = 10
	}
	if cfg.Node.PollIntervalSec == 0 {
		cfg.Node.PollIntervalSec = 30
	}

	if cfg.Monitoring.ValidityThreshold == 0 {
		cfg.Monitoring.ValidityThreshold = 0.75
	}
	if cfg.Monitoring.AlertThreshold == 0 {
		cfg.Monitoring.AlertThreshold = 0.70
	}
	if cfg.Monitoring.CriticalThreshold == 0 {
		cfg.Monitoring.CriticalThreshold = 0.8
	}
	if cfg.Monitoring.HighThreshold == 0 {
		cfg.Monitoring.HighThreshold = 0.6
	}
	if cfg.Monitoring.MediumThreshold == 0 {
		cfg.Monitoring.MediumThreshold = 0.4
	}
	if cfg.Monitoring.ModelVersion == "" {
		cfg.Monitoring.ModelVersion = "v1.0.0"
	}
	if cfg.Monitoring.ModelConfidence == 0 {
		cfg.Monitoring.ModelConfidence = 92.5
	}
	if cfg.Monitoring.RateLimit == 0 {
		cfg.Monitoring.RateLimit = 100
	}
	if cfg.Monitoring.RateLimitWindowSec == 0 {
		cfg.Monitoring.RateLimitWindowSec = 60
	}
	if cfg.Monitoring.WebhookTimeoutSec == 0 {
		cfg.Monitoring.WebhookTimeoutSec = 5
	}
	if cfg.Monitoring.DedupeWindowSec == 0 {
		cfg.Monitoring.DedupeWindowSec = 300
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
