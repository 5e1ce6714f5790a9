package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voiceops-server/pkg/errors"
	"voiceops-server/pkg/risk"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the complete application configuration
type Config struct {
	HTTP      HTTPConfig      `json:"http"`
	STT       STTConfig       `json:"stt"`
	Risk      RiskConfig      `json:"risk"`
	Logging   LoggingConfig   `json:"logging"`
	Messaging MessagingConfig `json:"messaging"`
	Pipeline  PipelineConfig  `json:"pipeline"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	// Port to listen on
	Port int `json:"port" env:"HTTP_PORT" default:"8080"`

	// Read/write timeouts for the server
	ReadTimeout  time.Duration `json:"read_timeout" env:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `json:"write_timeout" env:"HTTP_WRITE_TIMEOUT" default:"120s"`

	// Whether the metrics endpoint is exposed
	EnableMetrics bool `json:"enable_metrics" env:"HTTP_ENABLE_METRICS" default:"true"`

	// Whether pipeline progress events are streamed over WebSocket
	EnableWebSocket bool `json:"enable_websocket" env:"HTTP_ENABLE_WEBSOCKET" default:"true"`
}

// STTConfig holds speech-to-text provider configuration
type STTConfig struct {
	// Providers to register (comma-separated: mock, google, aws)
	Providers []string `json:"providers" env:"STT_PROVIDERS" default:"mock"`

	// Default provider when a request names none or an unknown one
	DefaultProvider string `json:"default_provider" env:"STT_DEFAULT_PROVIDER" default:"mock"`

	// Language code passed to cloud providers
	LanguageCode string `json:"language_code" env:"STT_LANGUAGE_CODE" default:"en-US"`

	// Sample rate the normalized audio is assumed to have
	SampleRate int `json:"sample_rate" env:"STT_SAMPLE_RATE" default:"16000"`

	// AWS region for Amazon Transcribe
	AWSRegion string `json:"aws_region" env:"AWS_REGION" default:"us-east-1"`
}

// RiskConfig holds risk scoring policy overrides. Weights must cover
// exactly the six scoring dimensions and sum to 1.0.
type RiskConfig struct {
	WeightSentiment      float64 `json:"weight_sentiment" env:"RISK_WEIGHT_SENTIMENT" default:"0.20"`
	WeightIntent         float64 `json:"weight_intent" env:"RISK_WEIGHT_INTENT" default:"0.20"`
	WeightConditionality float64 `json:"weight_conditionality" env:"RISK_WEIGHT_CONDITIONALITY" default:"0.15"`
	WeightObligation     float64 `json:"weight_obligation" env:"RISK_WEIGHT_OBLIGATION" default:"0.15"`
	WeightContradictions float64 `json:"weight_contradictions" env:"RISK_WEIGHT_CONTRADICTIONS" default:"0.15"`
	WeightAudioTrust     float64 `json:"weight_audio_trust" env:"RISK_WEIGHT_AUDIO_TRUST" default:"0.15"`

	HighThreshold   float64 `json:"high_threshold" env:"RISK_THRESHOLD_HIGH" default:"65"`
	MediumThreshold float64 `json:"medium_threshold" env:"RISK_THRESHOLD_MEDIUM" default:"35"`
	FactorThreshold float64 `json:"factor_threshold" env:"RISK_THRESHOLD_FACTOR" default:"50"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `json:"level" env:"LOG_LEVEL" default:"info"`

	// Log format (json or text)
	Format string `json:"format" env:"LOG_FORMAT" default:"json"`

	// Log output file (empty = stdout)
	OutputFile string `json:"output_file" env:"LOG_OUTPUT_FILE"`
}

// MessagingConfig holds AMQP configuration
type MessagingConfig struct {
	AMQPUrl       string `json:"-" env:"AMQP_URL"`
	AMQPQueueName string `json:"amqp_queue_name" env:"AMQP_QUEUE_NAME" default:"voiceops.assessments"`
	AMQPExchange  string `json:"amqp_exchange" env:"AMQP_EXCHANGE"`
}

// PipelineConfig holds pipeline-level settings
type PipelineConfig struct {
	// Reported call language in the output record
	CallLanguage string `json:"call_language" env:"PIPELINE_CALL_LANGUAGE" default:"english"`

	// Per-request processing deadline
	RequestTimeout time.Duration `json:"request_timeout" env:"PIPELINE_REQUEST_TIMEOUT" default:"120s"`
}

// Load reads configuration from .env files and the environment.
func Load(logger *logrus.Logger) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		logger.WithError(err).Warn("Failed to get current working directory")
		wd = "unknown"
	}

	possibleEnvFiles := []string{
		".env",
		"../.env",
		filepath.Join(wd, ".env"),
	}

	var loadedFrom string
	for _, envFile := range possibleEnvFiles {
		if _, statErr := os.Stat(envFile); statErr == nil {
			absPath, _ := filepath.Abs(envFile)
			logger.WithField("path", absPath).Debug("Attempting to load .env file")
			if loadErr := godotenv.Load(envFile); loadErr == nil {
				loadedFrom = absPath
				break
			}
		}
	}

	if loadedFrom != "" {
		logger.WithFields(logrus.Fields{
			"working_dir": wd,
			"path":        loadedFrom,
		}).Info("Successfully loaded .env file")
	} else {
		logger.WithField("working_dir", wd).Warn("No .env file found, using environment variables only")
	}

	config := &Config{}
	loadHTTPConfig(&config.HTTP)
	loadSTTConfig(&config.STT)
	loadRiskConfig(&config.Risk)
	loadLoggingConfig(&config.Logging)
	loadMessagingConfig(&config.Messaging)
	loadPipelineConfig(&config.Pipeline)

	if err := validateConfig(logger, config); err != nil {
		return nil, err
	}

	return config, nil
}

func loadHTTPConfig(config *HTTPConfig) {
	config.Port = getEnvInt("HTTP_PORT", 8080)
	config.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second)
	config.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", 120*time.Second)
	config.EnableMetrics = getEnvBool("HTTP_ENABLE_METRICS", true)
	config.EnableWebSocket = getEnvBool("HTTP_ENABLE_WEBSOCKET", true)
}

func loadSTTConfig(config *STTConfig) {
	config.Providers = parseList(getEnv("STT_PROVIDERS", "mock"))
	config.DefaultProvider = getEnv("STT_DEFAULT_PROVIDER", "mock")
	config.LanguageCode = getEnv("STT_LANGUAGE_CODE", "en-US")
	config.SampleRate = getEnvInt("STT_SAMPLE_RATE", 16000)
	config.AWSRegion = getEnv("AWS_REGION", "us-east-1")
}

func loadRiskConfig(config *RiskConfig) {
	config.WeightSentiment = getEnvFloat("RISK_WEIGHT_SENTIMENT", 0.20)
	config.WeightIntent = getEnvFloat("RISK_WEIGHT_INTENT", 0.20)
	config.WeightConditionality = getEnvFloat("RISK_WEIGHT_CONDITIONALITY", 0.15)
	config.WeightObligation = getEnvFloat("RISK_WEIGHT_OBLIGATION", 0.15)
	config.WeightContradictions = getEnvFloat("RISK_WEIGHT_CONTRADICTIONS", 0.15)
	config.WeightAudioTrust = getEnvFloat("RISK_WEIGHT_AUDIO_TRUST", 0.15)
	config.HighThreshold = getEnvFloat("RISK_THRESHOLD_HIGH", 65)
	config.MediumThreshold = getEnvFloat("RISK_THRESHOLD_MEDIUM", 35)
	config.FactorThreshold = getEnvFloat("RISK_THRESHOLD_FACTOR", 50)
}

func loadLoggingConfig(config *LoggingConfig) {
	config.Level = getEnv("LOG_LEVEL", "info")
	config.Format = getEnv("LOG_FORMAT", "json")
	config.OutputFile = getEnv("LOG_OUTPUT_FILE", "")
}

func loadMessagingConfig(config *MessagingConfig) {
	config.AMQPUrl = getEnv("AMQP_URL", "")
	config.AMQPQueueName = getEnv("AMQP_QUEUE_NAME", "voiceops.assessments")
	config.AMQPExchange = getEnv("AMQP_EXCHANGE", "")
}

func loadPipelineConfig(config *PipelineConfig) {
	config.CallLanguage = strings.ToLower(getEnv("PIPELINE_CALL_LANGUAGE", "english"))
	config.RequestTimeout = getEnvDuration("PIPELINE_REQUEST_TIMEOUT", 120*time.Second)
}

// RiskOptions converts the configured policy into scorer options. The
// weight mapping is validated here so a bad override fails startup, not a
// request.
func (c *Config) RiskOptions() (risk.Options, error) {
	weights := map[risk.Dimension]float64{
		risk.DimSentiment:      c.Risk.WeightSentiment,
		risk.DimIntent:         c.Risk.WeightIntent,
		risk.DimConditionality: c.Risk.WeightConditionality,
		risk.DimObligation:     c.Risk.WeightObligation,
		risk.DimContradictions: c.Risk.WeightContradictions,
		risk.DimAudioTrust:     c.Risk.WeightAudioTrust,
	}
	if err := risk.ValidateWeights(weights); err != nil {
		return risk.Options{}, errors.NewInvalidConfiguration(err.Error())
	}
	if c.Risk.HighThreshold <= c.Risk.MediumThreshold {
		return risk.Options{}, errors.NewInvalidConfiguration(
			fmt.Sprintf("high threshold (%.1f) must exceed medium threshold (%.1f)",
				c.Risk.HighThreshold, c.Risk.MediumThreshold))
	}
	return risk.Options{
		Weights:         weights,
		HighThreshold:   c.Risk.HighThreshold,
		MediumThreshold: c.Risk.MediumThreshold,
		FactorThreshold: c.Risk.FactorThreshold,
	}, nil
}

func validateConfig(logger *logrus.Logger, config *Config) error {
	if config.HTTP.Port < 1 || config.HTTP.Port > 65535 {
		return errors.NewInvalidConfiguration(fmt.Sprintf("HTTP port out of range: %d", config.HTTP.Port))
	}

	if len(config.STT.Providers) == 0 {
		return errors.NewInvalidConfiguration("no STT providers configured")
	}
	for _, provider := range config.STT.Providers {
		switch provider {
		case "mock", "google", "aws":
		default:
			return errors.NewInvalidConfiguration(fmt.Sprintf("unknown STT provider: %s", provider))
		}
	}
	if !containsString(config.STT.Providers, config.STT.DefaultProvider) {
		logger.WithFields(logrus.Fields{
			"default_provider": config.STT.DefaultProvider,
			"providers":        config.STT.Providers,
		}).Warn("Default STT provider is not in the provider list")
	}

	if _, err := config.RiskOptions(); err != nil {
		return err
	}

	return nil
}

// ApplyLogging configures the logger from the loaded configuration.
func (c *Config) ApplyLogging(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("invalid log level: %s", c.Logging.Level))
	}
	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	}

	if c.Logging.OutputFile != "" {
		f, err := os.OpenFile(c.Logging.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to open log file: %s", c.Logging.OutputFile))
		}
		logger.SetOutput(f)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return nil
}

func parseList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// Helper function to get an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return defaultValue
	}
}

// Helper function to get an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// Helper function to get a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvFloat retrieves an environment variable and converts it to float64
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}
