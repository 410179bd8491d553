package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RateLimit       struct {
			Enabled bool    `yaml:"enabled"`
			RPS     float64 `yaml:"rps" default:"5"`
			Burst   int     `yaml:"burst" default:"10"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	History struct {
		Backend   string        `yaml:"backend" default:"csv" validate:"oneof=csv clickhouse"`
		Path      string        `yaml:"path" default:"data/mandi_prices.csv"`
		ReloadTTL time.Duration `yaml:"reload_ttl" default:"1h"`
		Table     string        `yaml:"table" default:"mandi_prices"`
		Columns   struct {
			Commodity string `yaml:"commodity" default:"Commodity"`
			Market    string `yaml:"market" default:"Market Name"`
			Date      string `yaml:"date" default:"Price Date"`
			Price     string `yaml:"price" default:"Modal_Price"`
			MinPrice  string `yaml:"min_price" default:"Min_Price"`
			MaxPrice  string `yaml:"max_price" default:"Max_Price"`
		} `yaml:"columns"`
	} `yaml:"history"`
	Model struct {
		Trees          int           `yaml:"trees" default:"100" validate:"gte=1"`
		MaxDepth       int           `yaml:"max_depth" default:"12" validate:"gte=1"`
		MinSamplesLeaf int           `yaml:"min_samples_leaf" default:"3" validate:"gte=1"`
		Seed           int64         `yaml:"seed" default:"42"`
		TailSize       int           `yaml:"tail_size" default:"60" validate:"gte=1"`
		CacheTTL       time.Duration `yaml:"cache_ttl" default:"1h"`
	} `yaml:"model"`
	Forecast struct {
		DefaultDays int    `yaml:"default_days" default:"30" validate:"gte=1"`
		MaxDays     int    `yaml:"max_days" default:"90" validate:"gtefield=DefaultDays"`
		Warm        []Pair `yaml:"warm" validate:"dive"`
	} `yaml:"forecast"`
	Cache struct {
		Type  string        `yaml:"type" default:"memory" validate:"oneof=memory redis layered none"`
		TTL   time.Duration `yaml:"ttl" default:"10m"`
		L1TTL time.Duration `yaml:"l1_ttl" default:"30s"`
	} `yaml:"cache"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"agri.forecasts"`
		LogTopic     string   `yaml:"log_topic" default:"agri.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"agri"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Pair names a commodity traded at a market.
type Pair struct {
	Commodity string `yaml:"commodity" validate:"required"`
	Market    string `yaml:"market" validate:"required"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. An empty path starts from the defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("AGRI_DATA_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("AGRI_HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.History.Backend == "csv" && c.History.Path == "" {
		return fmt.Errorf("history.path is required for the csv backend")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
