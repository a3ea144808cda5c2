package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed fraglog.example.yml
var exampleConfig []byte

// ConfigName is the config file name without extension
const ConfigName = "fraglog"

type ReplayConfig struct {
	DefaultDelayMs      int `mapstructure:"defaultDelayMs"`      // pacing used when a client sends none
	MaxDelayMs          int `mapstructure:"maxDelayMs"`          // requested delays are clamped to this
	WriteTimeoutSeconds int `mapstructure:"writeTimeoutSeconds"` // websocket write deadline
}

type WatchConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	InboxPath string `mapstructure:"inboxPath"`
	SettleMs  int    `mapstructure:"settleMs"` // quiet period before a written file is replayed
}

type RetentionConfig struct {
	Days     int    `mapstructure:"days"` // 0 keeps matches forever
	Schedule string `mapstructure:"schedule"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"filePath"`
	MaxSize    int    `mapstructure:"maxSize"`    // megabytes before rotation
	MaxBackups int    `mapstructure:"maxBackups"` // Number of rotated log files to keep (default: 5)
}

type Config struct {
	Replay    ReplayConfig    `mapstructure:"replay"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Retention RetentionConfig `mapstructure:"retention"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

func setDefaults() {
	viper.SetDefault("replay.defaultDelayMs", 500)
	viper.SetDefault("replay.maxDelayMs", 10000)
	viper.SetDefault("replay.writeTimeoutSeconds", 10)

	viper.SetDefault("watch.enabled", false)
	viper.SetDefault("watch.inboxPath", "")
	viper.SetDefault("watch.settleMs", 500)

	viper.SetDefault("retention.days", 30)
	viper.SetDefault("retention.schedule", "0 2 * * *")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.filePath", "")
	viper.SetDefault("logging.maxSize", 10)
	viper.SetDefault("logging.maxBackups", 5)
}

// Load reads fraglog.yml (or fraglog.toml) from the working directory.
// A missing file is not an error; defaults and environment apply.
func Load() (*Config, error) {
	godotenv.Load() // Load .env file if present

	viper.SetConfigName(ConfigName) // name of config file (without extension)
	viper.AddConfigPath(".")        // look for config in the working directory

	// Enable automatic environment variable reading
	viper.SetEnvPrefix("FRAGLOG") // all env vars must start with FRAGLOG_, e.g. FRAGLOG_REPLAY_MAXDELAYMS
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Try YAML first, then TOML
	viper.SetConfigType("yml")
	if err := viper.ReadInConfig(); err != nil {
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks ranges and required fields
func (c *Config) Validate() error {
	if c.Replay.DefaultDelayMs < 0 {
		return fmt.Errorf("replay.defaultDelayMs must not be negative, got %d", c.Replay.DefaultDelayMs)
	}
	if c.Replay.MaxDelayMs < 0 {
		return fmt.Errorf("replay.maxDelayMs must not be negative, got %d", c.Replay.MaxDelayMs)
	}
	if c.Replay.DefaultDelayMs > c.Replay.MaxDelayMs {
		return fmt.Errorf("replay.defaultDelayMs (%d) exceeds replay.maxDelayMs (%d)", c.Replay.DefaultDelayMs, c.Replay.MaxDelayMs)
	}
	if c.Replay.WriteTimeoutSeconds <= 0 {
		return fmt.Errorf("replay.writeTimeoutSeconds must be positive, got %d", c.Replay.WriteTimeoutSeconds)
	}

	if c.Watch.Enabled && c.Watch.InboxPath == "" {
		return fmt.Errorf("watch is enabled but 'watch.inboxPath' is missing")
	}
	if c.Watch.SettleMs < 0 {
		return fmt.Errorf("watch.settleMs must not be negative, got %d", c.Watch.SettleMs)
	}

	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days must not be negative, got %d", c.Retention.Days)
	}
	if c.Retention.Days > 0 && c.Retention.Schedule == "" {
		return fmt.Errorf("retention is enabled but 'retention.schedule' is missing")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}

	return nil
}

// DefaultDelay is the pacing used when a caller does not pick one
func (r ReplayConfig) DefaultDelay() time.Duration {
	return time.Duration(r.DefaultDelayMs) * time.Millisecond
}

// ClampDelay turns a requested delay in milliseconds into a pacing delay.
// Negative requests use the default; large ones are capped.
func (r ReplayConfig) ClampDelay(ms int) time.Duration {
	if ms < 0 {
		return r.DefaultDelay()
	}
	if ms > r.MaxDelayMs {
		ms = r.MaxDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}

// WriteTimeout is the deadline for a single websocket write
func (r ReplayConfig) WriteTimeout() time.Duration {
	return time.Duration(r.WriteTimeoutSeconds) * time.Second
}

// Settle is how long a file must stay unchanged before it is replayed
func (w WatchConfig) Settle() time.Duration {
	return time.Duration(w.SettleMs) * time.Millisecond
}

// MaxAge is the age after which stored matches are deleted, or 0 to keep them
func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// GenerateExample writes an example config file to the specified path
func GenerateExample(path string) error {
	return os.WriteFile(path, exampleConfig, 0644)
}

// Exists checks if a config file exists in the current directory
func Exists() bool {
	for _, ext := range []string{".yml", ".yaml", ".toml"} {
		if _, err := os.Stat(ConfigName + ext); err == nil {
			return true
		}
	}
	return false
}
