package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort        = 2333
	defaultEnv         = "development"
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultDBUser      = "root"
	defaultDBPassword  = "password"
	defaultDBName      = "councildigest"
	defaultDBCharset   = "utf8mb4"
	defaultDBLoc       = "Local"
	defaultRedisURL    = "redis://localhost:6379/0"
	defaultVolatileTTL = 24 * time.Hour
	defaultClaimTTL    = 10 * time.Minute
	defaultGenTimeout  = 120 * time.Second
	defaultWaitPoll    = 2 * time.Second
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	DSN            string         `yaml:"dsn"` // MySQL DSN; assembled from Database when empty
	RedisURL       string         `yaml:"redis_url"`
	Database       DatabaseConfig `yaml:"database"`
	Env            string         `yaml:"env"` // "development" | "production"
	AllowedOrigins []string       `yaml:"allowed_origins"`
	AI             AIConfig       `yaml:"ai"`
	Summary        SummaryConfig  `yaml:"summary"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

// AIConfig declares the generation providers available to the engine.
type AIConfig struct {
	Providers    []AIProvider       `yaml:"providers"`
	SummaryModel *AIModelAssignment `yaml:"summary_model,omitempty"`
}

type AIModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// SummaryConfig tunes the cache and generation discipline.
type SummaryConfig struct {
	VolatileTTL       time.Duration `yaml:"volatile_ttl"`
	ClaimTTL          time.Duration `yaml:"claim_ttl"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	WaitPollInterval  time.Duration `yaml:"wait_poll_interval"`
}

// Load reads the YAML config file and applies defaults.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultConfigPath:
		// Default path missing is fine; run on defaults + env.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = strings.TrimSpace(os.Getenv("GO_ENV"))
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.RedisURL == "" {
		c.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}

	db := &c.Database
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Password == "" {
		db.Password = defaultDBPassword
	}
	if db.Name == "" {
		db.Name = defaultDBName
	}
	if db.Charset == "" {
		db.Charset = defaultDBCharset
	}
	if db.Loc == "" {
		db.Loc = defaultDBLoc
	}
	if c.DSN == "" {
		c.DSN = strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	}
	if c.DSN == "" {
		c.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s",
			db.User, db.Password, db.Host, db.Port, db.Name, db.Charset, db.Loc)
	}

	s := &c.Summary
	if s.VolatileTTL <= 0 {
		s.VolatileTTL = defaultVolatileTTL
	}
	if s.ClaimTTL <= 0 {
		s.ClaimTTL = defaultClaimTTL
	}
	if s.GenerationTimeout <= 0 {
		s.GenerationTimeout = defaultGenTimeout
	}
	if s.WaitPollInterval <= 0 {
		s.WaitPollInterval = defaultWaitPoll
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}
