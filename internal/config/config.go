package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
	OrderService OrderServiceConfig `yaml:"order_service"`
	Board        BoardConfig        `yaml:"board"`
	Kitchen      KitchenConfig      `yaml:"kitchen"`
	Log          LogConfig          `yaml:"log"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxConns        int32         `yaml:"max_conns"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

type RabbitMQConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

type OrderServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type BoardConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	RenderInterval    time.Duration `yaml:"render_interval"`
	SwipeThreshold    float64       `yaml:"swipe_threshold"`
	MaxSwipe          float64       `yaml:"max_swipe"`
	WarningAfter      time.Duration `yaml:"warning_after"`
	UrgentAfter       time.Duration `yaml:"urgent_after"`
	MobileBreakpoint  int           `yaml:"mobile_breakpoint"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// KitchenConfig is supplied by the menu configuration: which menu categories
// hold dishes that are marked ready one by one.
type KitchenConfig struct {
	ProteinCategoryIDs []string `yaml:"protein_category_ids"`
	ExtraCategoryIDs   []string `yaml:"extra_category_ids"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the yaml file at path, then applies .env and PLAET_* overrides.
// A missing .env is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes yaml and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Board.PollInterval <= 0 {
		c.Board.PollInterval = 30 * time.Second
	}
	if c.Board.RenderInterval <= 0 {
		c.Board.RenderInterval = time.Minute
	}
	if c.Board.SwipeThreshold <= 0 {
		c.Board.SwipeThreshold = 80
	}
	if c.Board.MaxSwipe <= 0 {
		c.Board.MaxSwipe = 150
	}
	if c.Board.WarningAfter <= 0 {
		c.Board.WarningAfter = 15 * time.Minute
	}
	if c.Board.UrgentAfter <= 0 {
		c.Board.UrgentAfter = 25 * time.Minute
	}
	if c.Board.MobileBreakpoint <= 0 {
		c.Board.MobileBreakpoint = 768
	}
	if c.Board.HeartbeatInterval <= 0 {
		c.Board.HeartbeatInterval = 30 * time.Second
	}
	if c.OrderService.Timeout <= 0 {
		c.OrderService.Timeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Host, "PLAET_DB_HOST")
	setString(&c.Database.User, "PLAET_DB_USER")
	setString(&c.Database.Password, "PLAET_DB_PASSWORD")
	setString(&c.Database.Database, "PLAET_DB_NAME")
	setString(&c.RabbitMQ.Host, "PLAET_RABBITMQ_HOST")
	setString(&c.RabbitMQ.User, "PLAET_RABBITMQ_USER")
	setString(&c.RabbitMQ.Password, "PLAET_RABBITMQ_PASSWORD")
	setString(&c.OrderService.BaseURL, "PLAET_ORDER_SERVICE_URL")
	setString(&c.Log.Level, "PLAET_LOG_LEVEL")

	if err := setInt(&c.Database.Port, "PLAET_DB_PORT"); err != nil {
		return err
	}
	return setInt(&c.RabbitMQ.Port, "PLAET_RABBITMQ_PORT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}
