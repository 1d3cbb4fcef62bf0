package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meltforce/posereps/internal/exercise"
	"github.com/meltforce/posereps/internal/models"
)

type Config struct {
	Server     ServerConfig                             `yaml:"server"`
	Database   DatabaseConfig                           `yaml:"database"`
	Auth       AuthConfig                               `yaml:"auth"`
	Tailscale  TailscaleConfig                          `yaml:"tailscale"`
	Log        LogConfig                                `yaml:"log"`
	Feedback   FeedbackConfig                           `yaml:"feedback"`
	Pose       PoseConfig                               `yaml:"pose"`
	Thresholds map[models.ExerciseKind]exercise.Profile `yaml:"thresholds"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MigrationsPath string `yaml:"migrations_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
	AuthKey  string `yaml:"auth_key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// FeedbackConfig controls spoken narration. An empty Command logs messages
// instead of speaking them.
type FeedbackConfig struct {
	Cooldown  time.Duration `yaml:"cooldown"`
	QueueSize int           `yaml:"queue_size"`
	Command   string        `yaml:"command"`
	RepLog    string        `yaml:"rep_log"`
}

type PoseConfig struct {
	ConfidenceCutoff float64 `yaml:"confidence_cutoff"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// SlogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Profiles returns the stock thresholds with the configured overrides applied.
func (c *Config) Profiles() (exercise.Profiles, error) {
	ps := exercise.DefaultProfiles().WithOverrides(c.Thresholds)
	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	return ps, nil
}

// Load reads config from a YAML file, applies environment variable overrides
// and validates the result for running the server.
// Env vars use the prefix POSEREPS_ and underscore-separated paths:
//
//	POSEREPS_SERVER_HOST, POSEREPS_SERVER_PORT,
//	POSEREPS_DB_HOST, POSEREPS_DB_PORT, POSEREPS_DB_NAME,
//	POSEREPS_DB_USER, POSEREPS_DB_PASSWORD, POSEREPS_DB_SSLMODE,
//	POSEREPS_AUTH_API_KEY, POSEREPS_TS_ENABLED, POSEREPS_TS_HOSTNAME,
//	POSEREPS_TS_AUTHKEY, POSEREPS_LOG_LEVEL,
//	POSEREPS_FEEDBACK_COMMAND, POSEREPS_FEEDBACK_COOLDOWN
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Parse reads and defaults the config without the server checks, for tools
// that only need thresholds and feedback settings.
func Parse(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validateThresholds(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.MigrationsPath == "" {
		c.Server.MigrationsPath = "migrations"
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "posereps"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Pose.ConfidenceCutoff == 0 {
		c.Pose.ConfidenceCutoff = 0.5
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSEREPS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("POSEREPS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("POSEREPS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSEREPS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("POSEREPS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("POSEREPS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSEREPS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSEREPS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("POSEREPS_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("POSEREPS_TS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("POSEREPS_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("POSEREPS_TS_AUTHKEY"); v != "" {
		cfg.Tailscale.AuthKey = v
	}
	if v := os.Getenv("POSEREPS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("POSEREPS_FEEDBACK_COMMAND"); v != "" {
		cfg.Feedback.Command = v
	}
	if v := os.Getenv("POSEREPS_FEEDBACK_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Feedback.Cooldown = d
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Pose.ConfidenceCutoff < 0 || c.Pose.ConfidenceCutoff > 1 {
		return fmt.Errorf("pose.confidence_cutoff must be within [0,1]")
	}
	if c.Feedback.Cooldown < 0 || c.Feedback.QueueSize < 0 {
		return fmt.Errorf("feedback.cooldown and feedback.queue_size must not be negative")
	}
	return nil
}

func (c *Config) validateThresholds() error {
	for k := range c.Thresholds {
		if !k.Valid() {
			return fmt.Errorf("thresholds: %w: %q (known: %s)", models.ErrUnknownExercise, k, catalogNames())
		}
	}
	_, err := c.Profiles()
	return err
}

func catalogNames() string {
	names := make([]string, len(models.Catalog))
	for i, k := range models.Catalog {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
