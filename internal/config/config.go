package config

import (
	"time"

	"github.com/swiftbus/service-reservation/pkg/config"
)

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	HoldTTL     time.Duration
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RESERVATION")
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		HoldTTL:     v.GetDuration("HOLD_TTL"),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
	}, nil
}
