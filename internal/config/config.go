package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort             int    `mapstructure:"APP_PORT"`
	DatabasePath        string `mapstructure:"DATABASE_PATH"`
	CompletionsURL      string `mapstructure:"COMPLETIONS_URL"`
	CompletionsAPIKey   string `mapstructure:"COMPLETIONS_API_KEY"`
	RateAPIURL          string `mapstructure:"RATE_API_URL"`
	RateAPIKey          string `mapstructure:"RATE_API_KEY"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	MainModel           string `mapstructure:"MAIN_MODEL"`
	SupportModel        string `mapstructure:"SUPPORT_MODEL"`
	NonStreamModel      string `mapstructure:"NONSTREAM_MODEL"`
	InitialSystemPrompt string `mapstructure:"INITIAL_SYSTEM_PROMPT"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/searchhub.db")
	viper.SetDefault("COMPLETIONS_URL", "http://localhost:11434/v1/chat/completions")
	viper.SetDefault("COMPLETIONS_API_KEY", "")
	viper.SetDefault("RATE_API_URL", "https://api.freecurrencyapi.com/v1")
	viper.SetDefault("RATE_API_KEY", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("MAIN_MODEL", "llama3")
	viper.SetDefault("SUPPORT_MODEL", "llama3")
	viper.SetDefault("NONSTREAM_MODEL", "")
	viper.SetDefault("INITIAL_SYSTEM_PROMPT", "You are a helpful assistant.")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
