package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the wikichat service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Wikipedia WikipediaConfig `mapstructure:"wikipedia"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// WikipediaConfig contains the Wikipedia API endpoints and lookup settings
type WikipediaConfig struct {
	SearchURL        string        `mapstructure:"search_url"`
	SummaryURL       string        `mapstructure:"summary_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SearchLimit      int           `mapstructure:"search_limit"`
	DebugSearchLimit int           `mapstructure:"debug_search_limit"`
}

// ProviderConfig selects and configures the text-generation backend
type ProviderConfig struct {
	Type    string        `mapstructure:"type"` // cohere, openai
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig describes the Postgres connection, either as a full URL or
// as discrete fields
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a Postgres connection string from either the URL field or the
// discrete host/port fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// ChatConfig contains defaults and limits for the chat pipeline
type ChatConfig struct {
	DefaultMaxTokens   int     `mapstructure:"default_max_tokens"`
	DefaultTemperature float64 `mapstructure:"default_temperature"`
	ContextCharLimit   int     `mapstructure:"context_char_limit"`
}

// LoadConfig reads configuration from file and environment variables.
// An absent config file is not an error; defaults plus WIKICHAT_* env
// variables are enough to run.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("wikipedia.search_url", "https://en.wikipedia.org/w/api.php")
	viper.SetDefault("wikipedia.summary_url", "https://en.wikipedia.org/api/rest_v1/page/summary/")
	viper.SetDefault("wikipedia.user_agent", "wikichat/1.0 (https://github.com/mohammad-safakhou/wikichat)")
	viper.SetDefault("wikipedia.timeout", 10*time.Second)
	viper.SetDefault("wikipedia.search_limit", 2)
	viper.SetDefault("wikipedia.debug_search_limit", 3)
	viper.SetDefault("provider.type", "cohere")
	viper.SetDefault("provider.model", "command-r")
	viper.SetDefault("provider.timeout", 30*time.Second)
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("chat.default_max_tokens", 300)
	viper.SetDefault("chat.default_temperature", 0.7)
	viper.SetDefault("chat.context_char_limit", 800)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("WIKICHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("fatal error unmarshalling config: %w", err))
	}
	return &cfg
}
