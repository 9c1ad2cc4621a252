package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	SourceSeed     = "seed"
	SourcePostgres = "postgres"
	SourceXLSX     = "xlsx"
)

// Action backends.
const (
	ActionsMock     = "mock"
	ActionsRabbitMQ = "rabbitmq"
)

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Ticket struct {
		SecretKey string        `yaml:"secret_key"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"ticket"`
	Catalog struct {
		Source  string `yaml:"source"`
		File    string `yaml:"file"`
		Sheet   string `yaml:"sheet"`
		Refresh string `yaml:"refresh"` // cron spec with seconds
	} `yaml:"catalog"`
	Session struct {
		StaleAfter     time.Duration `yaml:"stale_after"`
		LocateWait     time.Duration `yaml:"locate_wait"`
		NearbyRadiusKM float64       `yaml:"nearby_radius_km"`
		IdleTimeout    time.Duration `yaml:"idle_timeout"`
	} `yaml:"session"`
	Actions struct {
		Backend string `yaml:"backend"`
	} `yaml:"actions"`
	Log struct {
		Debug bool `yaml:"debug"`
	} `yaml:"log"`
}

// LoadFromFile reads .env (if present), expands ${VARS} in the YAML file, decodes it,
// applies defaults, and validates.
func LoadFromFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes with environment expansion, then applies defaults and validates.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}

	if cfg.Ticket.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.Ticket.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
	if cfg.Ticket.TTL == 0 {
		cfg.Ticket.TTL = 15 * time.Minute
	}

	cfg.Catalog.Source = strings.ToLower(strings.TrimSpace(cfg.Catalog.Source))
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = SourceSeed
	}
	if cfg.Catalog.Sheet == "" {
		cfg.Catalog.Sheet = "Cargos"
	}
	if cfg.Catalog.Refresh == "" {
		cfg.Catalog.Refresh = "0 */5 * * * *"
	}

	if cfg.Session.StaleAfter == 0 {
		cfg.Session.StaleAfter = 5 * time.Minute
	}
	if cfg.Session.LocateWait == 0 {
		cfg.Session.LocateWait = 15 * time.Second
	}
	if cfg.Session.NearbyRadiusKM == 0 {
		cfg.Session.NearbyRadiusKM = 500
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = 30 * time.Minute
	}

	cfg.Actions.Backend = strings.ToLower(strings.TrimSpace(cfg.Actions.Backend))
	if cfg.Actions.Backend == "" {
		cfg.Actions.Backend = ActionsMock
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}
	if c.Ticket.TTL < 0 {
		problems = append(problems, "ticket.ttl must be positive")
	}

	switch c.Catalog.Source {
	case SourceSeed:
	case SourcePostgres:
		problems = append(problems, c.databaseProblems()...)
	case SourceXLSX:
		if c.Catalog.File == "" {
			problems = append(problems, "catalog.file is required for the xlsx source")
		}
	default:
		problems = append(problems, "catalog.source must be one of seed, postgres, xlsx")
	}

	switch c.Actions.Backend {
	case ActionsMock:
	case ActionsRabbitMQ:
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required")
		}
	default:
		problems = append(problems, "actions.backend must be one of mock, rabbitmq")
	}

	if c.Session.StaleAfter < 0 || c.Session.LocateWait < 0 || c.Session.IdleTimeout < 0 {
		problems = append(problems, "session durations must be positive")
	}
	if c.Session.NearbyRadiusKM < 0 {
		problems = append(problems, "session.nearby_radius_km must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// RequireDatabase reports missing database settings for modes that always need Postgres.
func (c *Config) RequireDatabase() error {
	if problems := c.databaseProblems(); len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) databaseProblems() []string {
	var problems []string
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database is required")
	}
	return problems
}
