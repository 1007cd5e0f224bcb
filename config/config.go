package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort   string `mapstructure:"APP_PORT"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisSnapshotDB int    `mapstructure:"REDIS_SNAPSHOT_DB"`
	RedisHandleDB   int    `mapstructure:"REDIS_HANDLE_DB"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`

	StripeKey string `mapstructure:"STRIPE_KEY"`

	// Wizard timing knobs, in milliseconds.
	AvailabilityDebounceMs int `mapstructure:"AVAILABILITY_DEBOUNCE_MS"`
	SnapshotDebounceMs     int `mapstructure:"SNAPSHOT_DEBOUNCE_MS"`
	SessionIdleMinutes     int `mapstructure:"SESSION_IDLE_MINUTES"`

	// Abandoned-session reminder delay, in minutes.
	ReminderDelayMinutes int `mapstructure:"REMINDER_DELAY_MINUTES"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

// FirebaseServiceAccountKeyPath points at the FCM credentials file.
const FirebaseServiceAccountKeyPath = "config/serviceAccountKey.json"

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SNAPSHOT_DB", 0)
	viper.SetDefault("REDIS_HANDLE_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("AVAILABILITY_DEBOUNCE_MS", 300)
	viper.SetDefault("SNAPSHOT_DEBOUNCE_MS", 1500)
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("REMINDER_DELAY_MINUTES", 60)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
