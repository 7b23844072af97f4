package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Rabbit struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
		Prefetch int    `koanf:"prefetch"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers       []string `koanf:"brokers"`
		GroupID       string   `koanf:"group_id"`
		DeliveryTopic string   `koanf:"delivery_topic"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
		Clients   []Client      `koanf:"clients"`
	} `koanf:"security"`

	PawaPay struct {
		BaseURL string        `koanf:"base_url"`
		Token   string        `koanf:"token"`
		Timeout time.Duration `koanf:"timeout"`
		// WebhookTimeout bounds the processing of one callback delivery.
		WebhookTimeout time.Duration `koanf:"webhook_timeout"`
		// Currency is sent when an initiation request carries none.
		Currency string `koanf:"currency"`
		// WebhookSecret is base64url; empty disables signature checks.
		WebhookSecret string `koanf:"webhook_secret"`
	} `koanf:"pawapay"`
}

// Client is an admin API client allowed to exchange credentials for a JWT.
type Client struct {
	ID       string   `koanf:"id"`
	Secret   string   `koanf:"secret"`
	Perms    []string `koanf:"perms"`
	Disabled bool     `koanf:"disabled"`
}

const envPrefix = "FLORIST_"

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix FLORIST_, nested with __)
	// e.g. FLORIST_MYSQL__DSN, FLORIST_PAWAPAY__TOKEN
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "florist-api"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "florist-api"
	}
	if c.Kafka.DeliveryTopic == "" {
		c.Kafka.DeliveryTopic = "courier.delivery.v1"
	}
	if c.PawaPay.BaseURL == "" {
		c.PawaPay.BaseURL = "https://api.sandbox.pawapay.io"
	}
	if c.PawaPay.Timeout <= 0 {
		c.PawaPay.Timeout = 30 * time.Second
	}
	if c.PawaPay.WebhookTimeout <= 0 {
		c.PawaPay.WebhookTimeout = 10 * time.Second
	}
	if c.PawaPay.Currency == "" {
		c.PawaPay.Currency = "CDF"
	}
	if c.Rabbit.Exchange == "" {
		c.Rabbit.Exchange = "order.events"
	}
	if c.Rabbit.Prefetch <= 0 {
		c.Rabbit.Prefetch = 50
	}
	if c.Security.TTL <= 0 {
		c.Security.TTL = 60 * time.Minute
	}
}

// Validate checks the keys the service cannot start without. pawapay.token is
// deliberately not required: payment initiation reports a configuration error
// instead, and the rest of the storefront keeps working.
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	return nil
}
