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
	} `yaml:"server"`
	Location struct {
		Name      string  `yaml:"name"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		AltitudeM float64 `yaml:"altitude_m"`
	} `yaml:"location"`
	Meteostat struct {
		APIKey          string        `yaml:"api_key"`
		BaseURL         string        `yaml:"base_url"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxLookbackDays int           `yaml:"max_lookback_days"`
		LookbackDays    int           `yaml:"lookback_days"`
	} `yaml:"meteostat"`
	OpenWeather struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openweather"`
	Forecast struct {
		MinHistory        int           `yaml:"min_history"`
		IntervalWidth     float64       `yaml:"interval_width"`
		WeeklySeasonality bool          `yaml:"weekly_seasonality"`
		CacheTTL          time.Duration `yaml:"cache_ttl"`
	} `yaml:"forecast"`
	Live struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"live"`
	Cache struct {
		MemoryMaxSize int `yaml:"memory_max_size"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Collector struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"collector"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
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
	Risk struct {
		NearbyRadiusKM float64 `yaml:"nearby_radius_km"`
		ModerateMM     float64 `yaml:"moderate_mm"`
		HighMM         float64 `yaml:"high_mm"`
		Sites          []struct {
			Name     string  `yaml:"name"`
			Latitude float64 `yaml:"latitude"`
			Longitude float64 `yaml:"longitude"`
			BaseRisk string  `yaml:"base_risk"`
		} `yaml:"sites"`
	} `yaml:"risk"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads, parses, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads config from YAML, overrides with environment variables,
// then validates. Secrets are expected from the environment, not the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		c.OpenWeather.APIKey = v
	}
	if v := os.Getenv("METEOSTAT_API_KEY"); v != "" {
		c.Meteostat.APIKey = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Meteostat.BaseURL == "" {
		c.Meteostat.BaseURL = "https://meteostat.p.rapidapi.com"
	}
	if c.Meteostat.Timeout <= 0 {
		c.Meteostat.Timeout = 15 * time.Second
	}
	if c.Meteostat.MaxLookbackDays <= 0 {
		c.Meteostat.MaxLookbackDays = 3650
	}
	if c.Meteostat.LookbackDays <= 0 {
		c.Meteostat.LookbackDays = 1825
	}
	if c.OpenWeather.BaseURL == "" {
		c.OpenWeather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.OpenWeather.Timeout <= 0 {
		c.OpenWeather.Timeout = 10 * time.Second
	}
	if c.Forecast.MinHistory <= 0 {
		c.Forecast.MinHistory = 30
	}
	if c.Forecast.IntervalWidth <= 0 || c.Forecast.IntervalWidth >= 1 {
		c.Forecast.IntervalWidth = 0.8
	}
	if c.Forecast.CacheTTL <= 0 {
		c.Forecast.CacheTTL = 30 * time.Minute
	}
	if c.Live.TTL <= 0 {
		c.Live.TTL = 60 * time.Second
	}
	if c.Collector.Interval <= 0 {
		c.Collector.Interval = 15 * time.Minute
	}
	if c.Risk.NearbyRadiusKM <= 0 {
		c.Risk.NearbyRadiusKM = 50
	}
	if c.Risk.ModerateMM <= 0 {
		c.Risk.ModerateMM = 40
	}
	if c.Risk.HighMM <= 0 {
		c.Risk.HighMM = 90
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Location.Latitude == 0 && c.Location.Longitude == 0 {
		return fmt.Errorf("location coordinates are required")
	}
	if c.OpenWeather.APIKey == "" {
		return fmt.Errorf("openweather.api_key is required")
	}
	if c.Risk.HighMM <= c.Risk.ModerateMM {
		return fmt.Errorf("risk.high_mm must exceed risk.moderate_mm")
	}
	if c.Collector.Enabled {
		if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
			return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse' when the collector is enabled, got '%s'", c.Backend.Type)
		}
		if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty for the kafka backend")
		}
	}
	return nil
}
