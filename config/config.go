package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Storage StorageConfig
	Kafka   KafkaConfig
}

type AppConfig struct {
	Port           string
	Env            string
	InstanceID     string
	Timezone       string
	StoreDriver    string // "postgres" or "memory"
	RequestTimeout time.Duration
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type StorageConfig struct {
	Type         string // "local" or "s3"
	LocalPath    string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	AWSAccessKey string
	AWSSecretKey string
}

type KafkaConfig struct {
	Brokers       []string
	ScheduleTopic string
}

// Location resolves the business time zone used for "today" and "tomorrow".
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func LoadConfig() (*Config, error) {
	return LoadConfigFromFile(".env")
}

// LoadConfigFromFile reads the given env file and lets process environment override it.
func LoadConfigFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_STORE", "postgres")
	v.SetDefault("APP_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("REDIS_CHANNEL", "schedule:updated")
	v.SetDefault("STORAGE_TYPE", "local")
	v.SetDefault("STORAGE_LOCAL_PATH", "./storage/files")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("KAFKA_SCHEDULE_TOPIC", "onboarding.schedule.events")

	// A missing file is fine: the process environment alone can configure the portal.
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(v.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	requestTimeout, err := time.ParseDuration(v.GetString("APP_REQUEST_TIMEOUT"))
	if err != nil {
		requestTimeout = 5 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port:           v.GetString("APP_PORT"),
			Env:            v.GetString("APP_ENV"),
			InstanceID:     v.GetString("APP_INSTANCE_ID"),
			Timezone:       v.GetString("APP_TIMEZONE"),
			StoreDriver:    v.GetString("APP_STORE"),
			RequestTimeout: requestTimeout,
		},
		DB: DBConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Storage: StorageConfig{
			Type:         v.GetString("STORAGE_TYPE"),
			LocalPath:    v.GetString("STORAGE_LOCAL_PATH"),
			S3Bucket:     v.GetString("AWS_S3_BUCKET"),
			S3Region:     v.GetString("AWS_REGION"),
			S3Endpoint:   v.GetString("AWS_S3_ENDPOINT"),
			AWSAccessKey: v.GetString("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitBrokers(v.GetString("KAFKA_BROKERS")),
			ScheduleTopic: v.GetString("KAFKA_SCHEDULE_TOPIC"),
		},
	}

	return config, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
