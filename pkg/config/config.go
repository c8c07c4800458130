package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"SpillNet/pkg/logger"
	xutil "SpillNet/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Capacity     float64 `yaml:"capacity" default:"60"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"10"`
	} `yaml:"rate_limit"`
	Markets []string `yaml:"markets" default:"[\"^GSPC\",\"^GDAXI\",\"^FCHI\",\"^FTSE\",\"^NSEI\",\"^N225\",\"^KS11\",\"^HSI\"]"`
	Data    struct {
		Source            string        `yaml:"source" default:"synthetic"` // synthetic or yahoo
		Start             string        `yaml:"start" default:"2007-11-06"`
		End               string        `yaml:"end" default:"2022-06-03"`
		Seed              int64         `yaml:"seed" default:"42"`
		SyntheticPoints   int           `yaml:"synthetic_points" default:"3700"`
		YahooBaseURL      string        `yaml:"yahoo_base_url" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
		RequestTimeout    time.Duration `yaml:"request_timeout" default:"30s"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"2"`
	} `yaml:"data"`
	Storage struct {
		Backend string `yaml:"backend" default:"csv"` // csv, sqlite, clickhouse or none
		Dir     string `yaml:"dir" default:"data"`
	} `yaml:"storage"`
	Volatility struct {
		Window int `yaml:"window" default:"21"`
	} `yaml:"volatility"`
	Split struct {
		Train      float64 `yaml:"train" default:"0.5"`
		Validation float64 `yaml:"validation" default:"0.4"`
	} `yaml:"split"`
	Spillover struct {
		Lags    int `yaml:"lags" default:"2"`
		Horizon int `yaml:"horizon" default:"10"`
	} `yaml:"spillover"`
	Forecast struct {
		Enabled     bool  `yaml:"enabled" default:"true"`
		Epochs      int   `yaml:"epochs" default:"50"`
		Seed        int64 `yaml:"seed" default:"42"`
		Parallelism int   `yaml:"parallelism" default:"1"`
		Horizons    []int `yaml:"horizons" default:"[1,5,10,22]"`
		Graph       struct {
			Hidden        []int     `yaml:"hidden" default:"[32,64]"`
			Heads         []int     `yaml:"heads" default:"[2,4]"`
			Layers        []int     `yaml:"layers" default:"[2,3]"`
			LearningRates []float64 `yaml:"learning_rates" default:"[0.001,0.0005]"`
			Dropouts      []float64 `yaml:"dropouts" default:"[0.1,0.3]"`
		} `yaml:"graph"`
		Baseline struct {
			Hidden        []int     `yaml:"hidden" default:"[32,64,128]"`
			LearningRates []float64 `yaml:"learning_rates" default:"[0.0001,0.001,0.01]"`
			Dropouts      []float64 `yaml:"dropouts" default:"[0.3,0.5,0.7]"`
		} `yaml:"baseline"`
	} `yaml:"forecast"`
	Cache struct {
		Backend       string `yaml:"backend" default:"memory"` // memory, redis or layered
		MemoryMaxSize int    `yaml:"memory_max_size" default:"256"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"spillnet"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"spillnet"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	SQLite struct {
		Path string `yaml:"path" default:"data/spillnet.db"`
	} `yaml:"sqlite"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"spillnet.reports"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled  bool   `yaml:"enabled" default:"true"` // serve exposes the latest published run report
			GroupID  string `yaml:"group_id" default:"spillnet-dashboard"`
			RetryMax int    `yaml:"retry_max" default:"3"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
}

// Default returns a config populated only from struct tag defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path skips the file and starts from defaults.
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

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SPILLNET_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("SPILLNET_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SPILLNET_MARKETS"); v != "" {
		c.Markets = splitList(v)
	}
	if v := os.Getenv("SPILLNET_DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("SPILLNET_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("SPILLNET_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("SPILLNET_PORT"); v != "" {
		c.Server.Port = xutil.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DateRange parses data.start and data.end.
func (c *Config) DateRange() (time.Time, time.Time, error) {
	from, err := xutil.ParseDate(c.Data.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data.start: %w", err)
	}
	to, err := xutil.ParseDate(c.Data.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data.end: %w", err)
	}
	return from, to, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Markets) == 0 {
		return fmt.Errorf("markets cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Markets))
	for _, m := range c.Markets {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("markets: duplicate ticker '%s'", m)
		}
		seen[m] = struct{}{}
	}
	if c.Data.Source != "synthetic" && c.Data.Source != "yahoo" {
		return fmt.Errorf("data.source must be 'synthetic' or 'yahoo', got '%s'", c.Data.Source)
	}
	from, to, err := c.DateRange()
	if err != nil {
		return err
	}
	if !to.After(from) {
		return fmt.Errorf("data.end must be after data.start")
	}
	if c.Data.Source == "synthetic" && c.Data.SyntheticPoints < 2 {
		return fmt.Errorf("data.synthetic_points must be at least 2")
	}
	switch c.Storage.Backend {
	case "csv", "sqlite", "clickhouse", "none":
	default:
		return fmt.Errorf("storage.backend must be one of csv, sqlite, clickhouse, none, got '%s'", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, layered, got '%s'", c.Cache.Backend)
	}
	if c.Volatility.Window < 1 {
		return fmt.Errorf("volatility.window must be positive")
	}
	if c.Split.Train <= 0 || c.Split.Train >= 1 || c.Split.Validation <= 0 || c.Split.Validation >= 1 {
		return fmt.Errorf("split fractions must lie in (0, 1)")
	}
	if c.Spillover.Lags < 1 || c.Spillover.Horizon < 1 {
		return fmt.Errorf("spillover.lags and spillover.horizon must be positive")
	}
	if c.Forecast.Enabled {
		if err := c.validateForecast(); err != nil {
			return err
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	return nil
}

func (c *Config) validateForecast() error {
	f := c.Forecast
	if f.Epochs < 1 {
		return fmt.Errorf("forecast.epochs must be positive")
	}
	if len(f.Horizons) == 0 {
		return fmt.Errorf("forecast.horizons cannot be empty")
	}
	for _, h := range f.Horizons {
		if h < 1 {
			return fmt.Errorf("forecast.horizons must be positive, got %d", h)
		}
	}
	g := f.Graph
	if len(g.Hidden) == 0 || len(g.Heads) == 0 || len(g.Layers) == 0 || len(g.LearningRates) == 0 || len(g.Dropouts) == 0 {
		return fmt.Errorf("forecast.graph grid has an empty dimension")
	}
	b := f.Baseline
	if len(b.Hidden) == 0 || len(b.LearningRates) == 0 || len(b.Dropouts) == 0 {
		return fmt.Errorf("forecast.baseline grid has an empty dimension")
	}
	for _, d := range append(append([]float64{}, g.Dropouts...), b.Dropouts...) {
		if d < 0 || d >= 1 {
			return fmt.Errorf("forecast dropout must lie in [0, 1), got %v", d)
		}
	}
	return nil
}
