package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppCfg struct {
	Env                 string `yaml:"env"`
	Port                int    `yaml:"port"`
	BaseURL             string `yaml:"base_url"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
}

type JWTCfg struct {
	Secret           string `yaml:"secret"`
	AccessTTLMinutes int    `yaml:"accessTTLMinutes"`
	RefreshTTLDays   int    `yaml:"refreshTTLDays"`
	EmailTTLHours    int    `yaml:"emailTTLHours"`
}

type MongoCfg struct {
	URI                string `yaml:"uri"`
	Database           string `yaml:"database"`
	UsersCollection    string `yaml:"usersCollection"`
	ContactsCollection string `yaml:"contactsCollection"`
	DialTimeoutSeconds int    `yaml:"dialTimeoutSeconds"`
}

type RedisCfg struct {
	Addr               string `yaml:"addr"`
	Password           string `yaml:"password"`
	DB                 int    `yaml:"db"`
	DialTimeoutSeconds int    `yaml:"dialTimeoutSeconds"`
}

type AWSCfg struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
}

type BrevoCfg struct {
	APIKey    string `yaml:"apiKey"`
	FromEmail string `yaml:"fromEmail"`
	FromName  string `yaml:"fromName"`
}

type KafkaCfg struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SecurityCfg struct {
	PasswordHashCost        int `yaml:"passwordHashCost"`
	UserCacheTTLSeconds     int `yaml:"userCacheTTLSeconds"`
	MeRateLimitSeconds      int `yaml:"meRateLimitSeconds"`
	AvatarRateLimitSeconds  int `yaml:"avatarRateLimitSeconds"`
	RateLimitRequestsPerWin int `yaml:"rateLimitRequestsPerWindow"`
}

type Config struct {
	App      AppCfg      `yaml:"app"`
	JWT      JWTCfg      `yaml:"jwt"`
	Mongo    MongoCfg    `yaml:"mongo"`
	Redis    RedisCfg    `yaml:"redis"`
	AWS      AWSCfg      `yaml:"aws"`
	Brevo    BrevoCfg    `yaml:"brevo"`
	Kafka    KafkaCfg    `yaml:"kafka"`
	Security SecurityCfg `yaml:"security"`
}

// Load reads the yaml config file, then applies environment overrides.
// Secrets are expected to come from the environment (or a .env file in
// development), not from the checked-in yaml.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	override := func(env string, apply func(string)) {
		if v := os.Getenv(env); v != "" {
			apply(v)
		}
	}

	override("APP_ENV", func(v string) { cfg.App.Env = v })
	override("APP_PORT", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = n
		}
	})
	override("APP_BASE_URL", func(v string) { cfg.App.BaseURL = v })
	override("JWT_SECRET", func(v string) { cfg.JWT.Secret = v })
	override("MONGO_URI", func(v string) { cfg.Mongo.URI = v })
	override("MONGO_DB", func(v string) { cfg.Mongo.Database = v })
	override("REDIS_ADDR", func(v string) { cfg.Redis.Addr = v })
	override("REDIS_PASSWORD", func(v string) { cfg.Redis.Password = v })
	override("AWS_REGION", func(v string) { cfg.AWS.Region = v })
	override("S3_BUCKET", func(v string) { cfg.AWS.Bucket = v })
	override("BREVO_API_KEY", func(v string) { cfg.Brevo.APIKey = v })
	override("BREVO_FROM_EMAIL", func(v string) { cfg.Brevo.FromEmail = v })
	override("BREVO_FROM_NAME", func(v string) { cfg.Brevo.FromName = v })
	override("KAFKA_BROKERS", func(v string) { cfg.Kafka.Brokers = strings.Split(v, ",") })
	override("KAFKA_TOPIC", func(v string) { cfg.Kafka.Topic = v })

	applyDefaults(cfg)

	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required (set in .env or config.yaml)")
	}
	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGO_URI is required")
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 8080
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.App.Port)
	}
	if cfg.App.ReadTimeoutSeconds == 0 {
		cfg.App.ReadTimeoutSeconds = 10
	}
	if cfg.App.WriteTimeoutSeconds == 0 {
		cfg.App.WriteTimeoutSeconds = 10
	}
	if cfg.App.IdleTimeoutSeconds == 0 {
		cfg.App.IdleTimeoutSeconds = 60
	}
	if cfg.JWT.AccessTTLMinutes == 0 {
		cfg.JWT.AccessTTLMinutes = 15
	}
	if cfg.JWT.RefreshTTLDays == 0 {
		cfg.JWT.RefreshTTLDays = 7
	}
	if cfg.JWT.EmailTTLHours == 0 {
		cfg.JWT.EmailTTLHours = 24
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "contacts"
	}
	if cfg.Mongo.UsersCollection == "" {
		cfg.Mongo.UsersCollection = "users"
	}
	if cfg.Mongo.ContactsCollection == "" {
		cfg.Mongo.ContactsCollection = "contacts"
	}
	if cfg.Mongo.DialTimeoutSeconds == 0 {
		cfg.Mongo.DialTimeoutSeconds = 15
	}
	if cfg.Redis.DialTimeoutSeconds == 0 {
		cfg.Redis.DialTimeoutSeconds = 5
	}
	if cfg.Security.PasswordHashCost == 0 {
		cfg.Security.PasswordHashCost = 10
	}
	if cfg.Security.UserCacheTTLSeconds == 0 {
		cfg.Security.UserCacheTTLSeconds = 300
	}
	if cfg.Security.MeRateLimitSeconds == 0 {
		cfg.Security.MeRateLimitSeconds = 10
	}
	if cfg.Security.AvatarRateLimitSeconds == 0 {
		cfg.Security.AvatarRateLimitSeconds = 30
	}
	if cfg.Security.RateLimitRequestsPerWin == 0 {
		cfg.Security.RateLimitRequestsPerWin = 1
	}
}

// ReadTimeout returns the HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.App.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.App.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the HTTP idle timeout.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.App.IdleTimeoutSeconds) * time.Second
}

// MongoDialTimeout returns how long the mongo connect and ping may take.
func (c *Config) MongoDialTimeout() time.Duration {
	return time.Duration(c.Mongo.DialTimeoutSeconds) * time.Second
}

// RedisDialTimeout returns how long the redis ping may take.
func (c *Config) RedisDialTimeout() time.Duration {
	return time.Duration(c.Redis.DialTimeoutSeconds) * time.Second
}

// AccessTTL returns the access-token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh-token lifetime.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTLDays) * 24 * time.Hour
}

// EmailTTL returns the confirmation-token lifetime.
func (c *Config) EmailTTL() time.Duration {
	return time.Duration(c.JWT.EmailTTLHours) * time.Hour
}

// UserCacheTTL returns the session-cache entry lifetime.
func (c *Config) UserCacheTTL() time.Duration {
	return time.Duration(c.Security.UserCacheTTLSeconds) * time.Second
}
