package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig
	Status  StatusConfig
	Gateway GatewayConfig
	Metrics MetricsConfig
}

type APIConfig struct {
	BaseURL string
	Token   string
	Timeout int // seconds
}

type StatusConfig struct {
	Mode         string // "sse" or "poll"
	PollInterval int    // seconds
}

type GatewayConfig struct {
	Port string
}

type MetricsConfig struct {
	Port string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.token", "")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("status.mode", "sse")
	viper.SetDefault("status.poll_interval", 2)
	viper.SetDefault("gateway.port", "8090")
	viper.SetDefault("metrics.port", "9099")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		API: APIConfig{
			BaseURL: viper.GetString("api.base_url"),
			Token:   viper.GetString("api.token"),
			Timeout: viper.GetInt("api.timeout"),
		},
		Status: StatusConfig{
			Mode:         viper.GetString("status.mode"),
			PollInterval: viper.GetInt("status.poll_interval"),
		},
		Gateway: GatewayConfig{
			Port: viper.GetString("gateway.port"),
		},
		Metrics: MetricsConfig{
			Port: viper.GetString("metrics.port"),
		},
	}

	return cfg, nil
}
