package configs

import (
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Default session values applied when the configured value is zero or negative
const (
	DefaultSessionTimeoutMinutes = 60
	DefaultContextWindow         = 10
)

// Config struct
type Config struct {
	App      `mapstructure:"app"`
	N8n      `mapstructure:"n8n"`
	Session  `mapstructure:"session"`
	Postgres `mapstructure:"postgres"`
	Cors     `mapstructure:"cors"`
}

// App struct
type App struct {
	Debug    bool   `mapstructure:"debug"`
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// N8n struct
type N8n struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	ChatWebhookURL string `mapstructure:"chat_webhook_url"`
	APIKey         string `mapstructure:"api_key"`
	Timeout        int    `mapstructure:"timeout"`     // seconds
	MaxRetries     int    `mapstructure:"max_retries"` // attempts per relay call
}

// Session struct
type Session struct {
	Timeout       int  `mapstructure:"timeout"`        // minutes of inactivity before a conversation expires
	ContextWindow *int `mapstructure:"context_window"` // turns sent to the webhook as context, 0 sends none
	SweepInterval int  `mapstructure:"sweep_interval"` // seconds between background sweeps, 0 disables the ticker
	Shards        int  `mapstructure:"shards"`
}

// Postgres struct
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// Cors struct
type Cors struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// TimeoutDuration returns the session timeout, falling back to the default when unset
func (s Session) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return DefaultSessionTimeoutMinutes * time.Minute
	}
	return time.Duration(s.Timeout) * time.Minute
}

// WindowSize returns the context window size, falling back to the default when unset or negative.
// An explicit 0 relays messages without context.
func (s Session) WindowSize() int {
	if s.ContextWindow == nil || *s.ContextWindow < 0 {
		return DefaultContextWindow
	}
	return *s.ContextWindow
}

// SweepIntervalDuration returns the background sweep period; zero means creation-driven sweeps only
func (s Session) SweepIntervalDuration() time.Duration {
	if s.SweepInterval <= 0 {
		return 0
	}
	return time.Duration(s.SweepInterval) * time.Second
}

// Enabled reports whether an audit database is configured
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.env", "local")
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("n8n.webhook_url", "")
	viper.SetDefault("n8n.chat_webhook_url", "")
	viper.SetDefault("n8n.api_key", "")
	viper.SetDefault("n8n.timeout", 30)
	viper.SetDefault("n8n.max_retries", 3)

	viper.SetDefault("session.timeout", DefaultSessionTimeoutMinutes)
	viper.SetDefault("session.context_window", DefaultContextWindow)
	viper.SetDefault("session.sweep_interval", 0)
	viper.SetDefault("session.shards", 32)

	viper.SetDefault("postgres.host", "")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.username", "")
	viper.SetDefault("postgres.password", "")
	viper.SetDefault("postgres.database", "")
	viper.SetDefault("postgres.sslmode", false)

	viper.SetDefault("cors.allowed_origins", "*")
}

func getConfig(path, env string) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err == nil {
		logrus.Info("Loaded environment from .env")
	}

	name := "config"
	if env != "" {
		name = "config." + env
	}

	setDefaults()
	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(err)
		}
		logrus.Warnf("Config file %s not found in %s, using defaults and environment", name, path)
	} else {
		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			logrus.Infof("Config file has changed: %s", e.Name)
		})
	}

	config = Config{}
	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Fatalln(err)
	}
}
