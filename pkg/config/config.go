package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Forecaster struct {
		APIKey        string        `yaml:"api_key"`
		BaseURL       string        `yaml:"base_url"`
		Model         string        `yaml:"model"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxConcurrent int           `yaml:"max_concurrent"`
	} `yaml:"forecaster"`
	MarketData struct {
		PricesURL string        `yaml:"prices_url"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"market_data"`
	History struct {
		Days int `yaml:"days"`
	} `yaml:"history"`
	Synthetic struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"synthetic"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TicksTopic   string   `yaml:"ticks_topic"`
		AlertsTopic  string   `yaml:"alerts_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Stream struct {
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		Backend        string        `yaml:"backend"` // "kafka" or "clickhouse"
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FORECASTER_API_KEY"); v != "" {
		c.Forecaster.APIKey = v
	}
	if v := os.Getenv("FORECASTER_BASE_URL"); v != "" {
		c.Forecaster.BaseURL = v
	}
	if v := os.Getenv("MARKET_DATA_URL"); v != "" {
		c.MarketData.PricesURL = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.History.Days <= 0 {
		c.History.Days = 7
	}
	if c.Forecaster.Model == "" {
		c.Forecaster.Model = "timegpt-1"
	}
	if c.Forecaster.MaxConcurrent <= 0 {
		c.Forecaster.MaxConcurrent = 3
	}
	if c.Stream.URL != "" && c.Stream.Backend != "kafka" && c.Stream.Backend != "clickhouse" {
		return fmt.Errorf("stream.backend must be 'kafka' or 'clickhouse', got '%s'", c.Stream.Backend)
	}
	if c.Stream.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required for kafka stream backend")
	}
	if c.Stream.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required for clickhouse stream backend")
	}
	return nil
}
