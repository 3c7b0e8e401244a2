package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"decksync/pkg/deck"
	"decksync/pkg/scrape"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Browser modes.
const (
	BrowserHTTP   = "http"
	BrowserChrome = "chrome"
)

// AppConfig holds the complete configuration for the application
type AppConfig struct {
	Environment     string         `mapstructure:"environment"`
	LogLevel        string         `mapstructure:"log_level"`
	ServiceName     string         `mapstructure:"service_name" validate:"required"`
	CredentialsFile string         `mapstructure:"credentials_file"`
	Store           StoreConfig    `mapstructure:"store"`
	Browser         BrowserConfig  `mapstructure:"browser"`
	Redis           RedisConfig    `mapstructure:"redis"`
	Kafka           KafkaConfig    `mapstructure:"kafka"`
	Server          ServerConfig   `mapstructure:"server"`
	Schedule        ScheduleConfig `mapstructure:"schedule"`
	Jobs            []JobConfig    `mapstructure:"jobs" validate:"dive"`
}

type StoreConfig struct {
	Backend     string `mapstructure:"backend" validate:"oneof=sheets postgres sqlite memory"`
	PostgresURI string `mapstructure:"postgres_uri" validate:"required_if=Backend postgres"`
	PostgresMin int    `mapstructure:"postgres_min_conns" validate:"gte=0"`
	PostgresMax int    `mapstructure:"postgres_max_conns" validate:"gte=0"`
	SQLitePath  string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	Layout      string `mapstructure:"layout" validate:"omitempty,oneof=standard author_first"`
	Rescan      bool   `mapstructure:"rescan"`
}

type BrowserConfig struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=http chrome"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ScrollWait time.Duration `mapstructure:"scroll_wait"`
	ChromePath string        `mapstructure:"chrome_path"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	ClaimTTL  time.Duration `mapstructure:"claim_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required_with=Brokers"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ScheduleConfig struct {
	// Interval between passes. Zero runs a single pass and exits.
	Interval time.Duration `mapstructure:"interval"`
}

// JobConfig is one source page feeding one destination tab.
type JobConfig struct {
	Name          string          `mapstructure:"name" validate:"required"`
	Spreadsheet   string          `mapstructure:"spreadsheet" validate:"required_without=SpreadsheetID"`
	SpreadsheetID string          `mapstructure:"spreadsheet_id"`
	Tab           string          `mapstructure:"tab" validate:"required"`
	URL           string          `mapstructure:"url" validate:"required,url"`
	Mode          string          `mapstructure:"mode" validate:"oneof=table links"`
	Status        string          `mapstructure:"status"`
	Selectors     SelectorsConfig `mapstructure:"selectors"`
}

type SelectorsConfig struct {
	Rows          string `mapstructure:"rows"`
	Links         string `mapstructure:"links"`
	DeckName      string `mapstructure:"deck_name"`
	Date          string `mapstructure:"date"`
	Author        string `mapstructure:"author"`
	Tournament    string `mapstructure:"tournament"`
	SourceLink    string `mapstructure:"source_link"`
	DecklistBlock string `mapstructure:"decklist_block"`
	DecklistLabel string `mapstructure:"decklist_label"`
}

// Scrape converts the configured selectors for the extractor.
func (s SelectorsConfig) Scrape() scrape.Selectors {
	return scrape.Selectors{
		Rows:          s.Rows,
		Links:         s.Links,
		DeckName:      s.DeckName,
		Date:          s.Date,
		Author:        s.Author,
		Tournament:    s.Tournament,
		SourceLink:    s.SourceLink,
		DecklistBlock: s.DecklistBlock,
		DecklistLabel: s.DecklistLabel,
	}
}

// Load loads configuration from an optional .env file, the config file and
// environment variables
func Load(path string) (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "decksync")
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("store.backend", BackendSheets)
	v.SetDefault("store.sqlite_path", "decks.db")
	v.SetDefault("store.postgres_min_conns", 1)
	v.SetDefault("store.postgres_max_conns", 4)
	v.SetDefault("store.layout", deck.StandardLayout.Name)
	v.SetDefault("store.rescan", false)
	v.SetDefault("browser.mode", BrowserHTTP)
	v.SetDefault("browser.timeout", 30*time.Second)
	v.SetDefault("browser.scroll_wait", 0)
	v.SetDefault("redis.key_prefix", "decksync:claim:")
	v.SetDefault("redis.claim_ttl", time.Hour)
	v.SetDefault("kafka.topic", "decks.appended")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("schedule.interval", 0)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly so Unmarshal sees keys absent from the file
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("credentials_file", "CREDENTIALS_FILE")
	v.BindEnv("store.backend", "STORE_BACKEND")
	v.BindEnv("store.postgres_uri", "STORE_POSTGRES_URI")
	v.BindEnv("store.sqlite_path", "STORE_SQLITE_PATH")
	v.BindEnv("store.layout", "STORE_LAYOUT")
	v.BindEnv("store.rescan", "STORE_RESCAN")
	v.BindEnv("browser.mode", "BROWSER_MODE")
	v.BindEnv("browser.chrome_path", "BROWSER_CHROME_PATH")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("schedule.interval", "SCHEDULE_INTERVAL")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Brokers from the environment arrive as one comma-separated string
	brokers := v.GetString("kafka.brokers")
	if brokers != "" && len(config.Kafka.Brokers) <= 1 {
		config.Kafka.Brokers = strings.Split(brokers, ",")
	}

	for i := range config.Jobs {
		if config.Jobs[i].Mode == "" {
			config.Jobs[i].Mode = string(scrape.ModeTable)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

var validate = newValidator()

// newValidator reports fields by their config key rather than the Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if len(c.Jobs) == 0 {
		return errors.New("at least one job is required")
	}
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}

	if c.Store.Backend == BackendSheets && c.CredentialsFile == "" {
		return errors.New("credentials_file is required for the sheets backend")
	}
	if c.Schedule.Interval < 0 {
		return errors.New("schedule.interval must not be negative")
	}

	seen := make(map[string]bool, len(c.Jobs))
	for i, job := range c.Jobs {
		if err := job.Selectors.Scrape().Validate(scrape.Mode(job.Mode)); err != nil {
			return fmt.Errorf("jobs[%d]: selectors: %w", i, err)
		}
		if seen[job.Name] {
			return fmt.Errorf("jobs[%d]: duplicate job name %q", i, job.Name)
		}
		seen[job.Name] = true
	}
	return nil
}

// describe turns the first validator failure into a config-key message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch {
	case strings.HasPrefix(fe.Tag(), "required"):
		return fmt.Errorf("%s is required", key)
	case fe.Tag() == "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation", key, fe.Tag())
	}
}
