// Package config provides Viper-based configuration loading for the termo
// server and historian.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TERMO_SERVER_PORT.
const EnvPrefix = "TERMO"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AllowedOrigins feeds CORS on the HTTP API.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WebSocketConfig holds per-connection transport settings.
type WebSocketConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// OutboxSize bounds the queued outbound messages per connection.
	OutboxSize     int      `mapstructure:"outbox_size"`
	OriginPatterns []string `mapstructure:"origin_patterns"`
}

// GameConfig holds word list and room settings.
type GameConfig struct {
	// WordsFile is a newline separated word list; empty uses the built-in list.
	WordsFile   string `mapstructure:"words_file"`
	CodeRetries int    `mapstructure:"code_retries"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "text" or "json".
	Format string `mapstructure:"format"`
}

// RedisConfig holds the win queue settings.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	DB      int    `mapstructure:"db"`
	Queue   string `mapstructure:"queue"`
}

// DatabaseConfig holds PostgreSQL connection settings for the win archive.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection URL with credentials escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// HistorianConfig tunes the queue drain.
type HistorianConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	PopTimeout    time.Duration `mapstructure:"pop_timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Historian HistorianConfig `mapstructure:"historian"`
}

// Validate checks all configuration invariants and reports every violation at once.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateServer(c.Server),
		validateWebSocket(c.WebSocket),
		validateGame(c.Game),
		validateLogging(c.Logging),
		validateRedis(c.Redis),
		validateDatabase(c.Database),
		validateHistorian(c.Historian),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if err := validatePort("server.port", s.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	return joinErrs(errs)
}

func validateWebSocket(w WebSocketConfig) error {
	var errs []string
	if w.PingInterval <= 0 {
		errs = append(errs, "websocket.ping_interval must be positive")
	}
	if w.WriteTimeout <= 0 {
		errs = append(errs, "websocket.write_timeout must be positive")
	}
	if w.OutboxSize < 1 {
		errs = append(errs, fmt.Sprintf("websocket.outbox_size must be >= 1, got %d", w.OutboxSize))
	}
	return joinErrs(errs)
}

func validateGame(g GameConfig) error {
	if g.CodeRetries < 1 {
		return fmt.Errorf("game.code_retries must be >= 1, got %d", g.CodeRetries)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [text, json], got %q", l.Format)
	}
	return nil
}

func validateRedis(r RedisConfig) error {
	var errs []string
	if r.Addr == "" {
		errs = append(errs, "redis.addr must not be empty")
	}
	if r.DB < 0 {
		errs = append(errs, fmt.Sprintf("redis.db must be >= 0, got %d", r.DB))
	}
	if r.Queue == "" {
		errs = append(errs, "redis.queue must not be empty")
	}
	return joinErrs(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if err := validatePort("database.port", d.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	return joinErrs(errs)
}

func validateHistorian(h HistorianConfig) error {
	var errs []string
	if h.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("historian.batch_size must be >= 1, got %d", h.BatchSize))
	}
	if h.FlushInterval <= 0 {
		errs = append(errs, "historian.flush_interval must be positive")
	}
	if h.PopTimeout <= 0 {
		errs = append(errs, "historian.pop_timeout must be positive")
	}
	return joinErrs(errs)
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

// Load reads configuration from the optional YAML file at path, applies
// TERMO_ environment overrides on top of the defaults, and validates the
// result. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "5s")
	v.SetDefault("websocket.outbox_size", 32)
	v.SetDefault("websocket.origin_patterns", []string{"*"})

	v.SetDefault("game.words_file", "")
	v.SetDefault("game.code_retries", 16)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue", "termo_wins")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "termo")
	v.SetDefault("database.password", "termo")
	v.SetDefault("database.name", "termo")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("historian.batch_size", 100)
	v.SetDefault("historian.flush_interval", "5s")
	v.SetDefault("historian.pop_timeout", "1s")
}
