// Package config loads process configuration from the environment. One
// Config serves both the CLI and the worker; queue and S3 settings are
// optional at load time and enforced by RequireQueue/RequireS3 right
// before the subsystem that needs them is wired up.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"

	"github.com/civicsignal/legisnet/pkg/logger"
)

var validate = validator.New()

// Config is the full runtime configuration.
type Config struct {
	DatabaseURL string `validate:"required,url"`

	RabbitMQUser     string
	RabbitMQPassword string
	RabbitMQHost     string
	RabbitMQPort     string

	AWSRegion         string
	AWSEndpoint       string
	AWSAccessKey      string
	AWSSecretKey      string
	AWSBucket         string
	AWSPublicEndpoint string

	Debug bool

	// Analysis defaults, overridable per job or flag.
	AnalysisSeed       int64
	AnalysisResolution float64
	SubjectTopN        int
}

// Load reads .env when present, populates Config from the environment,
// and validates the always-required settings.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RabbitMQUser:     os.Getenv("RABBITMQ_USER"),
		RabbitMQPassword: os.Getenv("RABBITMQ_PASSWORD"),
		RabbitMQHost:     os.Getenv("RABBITMQ_HOST"),
		RabbitMQPort:     os.Getenv("RABBITMQ_PORT"),

		AWSRegion:         os.Getenv("AWS_REGION"),
		AWSEndpoint:       os.Getenv("AWS_ENDPOINT"),
		AWSAccessKey:      os.Getenv("AWS_ACCESS_KEY"),
		AWSSecretKey:      os.Getenv("AWS_SECRET_KEY"),
		AWSBucket:         os.Getenv("AWS_BUCKET"),
		AWSPublicEndpoint: os.Getenv("AWS_PUBLIC_ENDPOINT"),

		Debug: envBool("DEBUG", false),

		AnalysisSeed:       envInt64("ANALYSIS_SEED", 42),
		AnalysisResolution: envFloat("ANALYSIS_RESOLUTION", 1.0),
		SubjectTopN:        envInt("SUBJECT_TOP_N", 5),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// RequireQueue errors unless every RabbitMQ setting is present. The
// error names the missing environment variables.
func (c *Config) RequireQueue() error {
	return requireAll("RabbitMQ", map[string]string{
		"RABBITMQ_USER":     c.RabbitMQUser,
		"RABBITMQ_PASSWORD": c.RabbitMQPassword,
		"RABBITMQ_HOST":     c.RabbitMQHost,
		"RABBITMQ_PORT":     c.RabbitMQPort,
	})
}

// RequireS3 errors unless every S3 export setting is present.
func (c *Config) RequireS3() error {
	return requireAll("S3", map[string]string{
		"AWS_REGION":     c.AWSRegion,
		"AWS_ENDPOINT":   c.AWSEndpoint,
		"AWS_ACCESS_KEY": c.AWSAccessKey,
		"AWS_SECRET_KEY": c.AWSSecretKey,
		"AWS_BUCKET":     c.AWSBucket,
	})
}

// AmqpURL assembles the broker URL from the queue settings.
func (c *Config) AmqpURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQHost, c.RabbitMQPort)
}

func requireAll(subsystem string, values map[string]string) error {
	missing := make([]string, 0)
	for name, value := range values {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing %s configuration: %s", subsystem, strings.Join(missing, ", "))
	}
	return nil
}

func envBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if value == "true" || value == "false" {
		return value == "true"
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
