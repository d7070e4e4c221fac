package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type ContractsConfig struct {
	NumberPrefix       string
	MaxTermYears       int
	DangerWindowDays   int
	WarningWindowDays  int
	ExpiringWindowDays int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Contracts   ContractsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Contracts: ContractsConfig{
			NumberPrefix:       v.GetString("CONTRACT_NUMBER_PREFIX"),
			MaxTermYears:       v.GetInt("CONTRACT_MAX_TERM_YEARS"),
			DangerWindowDays:   v.GetInt("CONFLICT_DANGER_WINDOW_DAYS"),
			WarningWindowDays:  v.GetInt("CONFLICT_WARNING_WINDOW_DAYS"),
			ExpiringWindowDays: v.GetInt("CONTRACT_EXPIRING_WINDOW_DAYS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Contracts.NumberPrefix == "" {
		cfg.Contracts.NumberPrefix = "KOB"
	}
	if cfg.Contracts.MaxTermYears == 0 {
		cfg.Contracts.MaxTermYears = 3
	}
	if cfg.Contracts.DangerWindowDays == 0 {
		cfg.Contracts.DangerWindowDays = 30
	}
	if cfg.Contracts.WarningWindowDays == 0 {
		cfg.Contracts.WarningWindowDays = 90
	}
	if cfg.Contracts.ExpiringWindowDays == 0 {
		cfg.Contracts.ExpiringWindowDays = 30
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Contracts.DangerWindowDays > cfg.Contracts.WarningWindowDays {
		return fmt.Errorf("CONFLICT_DANGER_WINDOW_DAYS must not exceed CONFLICT_WARNING_WINDOW_DAYS")
	}
	return nil
}
