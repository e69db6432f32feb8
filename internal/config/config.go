/**
 * @description
 * This file handles the configuration management for the payments-service.
 * It uses the Viper library to read settings from environment variables or a .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	ServerPort            string `mapstructure:"SERVER_PORT"`
	StripeSecretKey       string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeAccountCountry  string `mapstructure:"STRIPE_ACCOUNT_COUNTRY"`
	ResendAPIBaseURL      string `mapstructure:"RESEND_API_BASE_URL"`
	ResendAPIKey          string `mapstructure:"RESEND_API_KEY"`
	EmailFromAddress      string `mapstructure:"EMAIL_FROM_ADDRESS"`
	AdminEmail            string `mapstructure:"ADMIN_EMAIL"`
	AuthBaseURL           string `mapstructure:"AUTH_BASE_URL"`
	AuthServiceKey        string `mapstructure:"AUTH_SERVICE_KEY"`
	AuthJWTSecret         string `mapstructure:"AUTH_JWT_SECRET"`
	PublicBaseURL         string `mapstructure:"PUBLIC_BASE_URL"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	StatusRefreshSchedule string `mapstructure:"STATUS_REFRESH_SCHEDULE"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("STRIPE_ACCOUNT_COUNTRY", "US")
	viper.SetDefault("RESEND_API_BASE_URL", "https://api.resend.com")
	viper.SetDefault("PUBLIC_BASE_URL", "https://cabinly.app")
	viper.SetDefault("STATUS_REFRESH_SCHEDULE", "0 * * * *")

	// Bind envs explicitly so containers pick them up reliably
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("STRIPE_SECRET_KEY")
	_ = viper.BindEnv("STRIPE_ACCOUNT_COUNTRY")
	_ = viper.BindEnv("RESEND_API_BASE_URL")
	_ = viper.BindEnv("RESEND_API_KEY")
	_ = viper.BindEnv("EMAIL_FROM_ADDRESS")
	_ = viper.BindEnv("ADMIN_EMAIL")
	_ = viper.BindEnv("AUTH_BASE_URL")
	_ = viper.BindEnv("AUTH_SERVICE_KEY")
	_ = viper.BindEnv("AUTH_JWT_SECRET")
	_ = viper.BindEnv("PUBLIC_BASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("STATUS_REFRESH_SCHEDULE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if config.EmailFromAddress == "" {
		config.EmailFromAddress = "Cabinly <notifications@cabinly.app>"
	}

	return &config, nil
}
