package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Model artifact formats.
const (
	ModelFormatJSON = "json"
	ModelFormatONNX = "onnx"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifacts.
	ModelFormat     string
	ModelPath       string
	ScalerPath      string
	ONNXLibraryPath string
	ONNXInputName   string
	ONNXScalerOut   string
	ONNXLabelOut    string

	// Historical dataset and map filter.
	DatasetPath          string
	MapRainfallThreshold float64
	MapFloodFlag         int

	// SMTP alert delivery. Credentials are never defaulted.
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPTimeout    time.Duration
	AlertRecipient string

	// Mapbox reverse geocoding for alert place names.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka alert events. Disabled when no brokers are configured.
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// KafkaEnabled reports whether alert events are published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables (optionally .env),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	smtpTimeout, err := parsePositiveDuration("SMTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	threshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAP_RAINFALL_THRESHOLD", "200"), 64)
	if err != nil || threshold < 0 {
		return nil, errors.New("invalid MAP_RAINFALL_THRESHOLD")
	}
	floodFlag, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_FLOOD_FLAG", "0"))
	if err != nil || (floodFlag != 0 && floodFlag != 1) {
		return nil, errors.New("invalid MAP_FLOOD_FLAG: must be 0 or 1")
	}
	smtpPort, err := strconv.Atoi(sharedcfg.EnvOrDefault("SMTP_PORT", "587"))
	if err != nil || smtpPort <= 0 || smtpPort > 65535 {
		return nil, errors.New("invalid SMTP_PORT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	smtpUser := os.Getenv("SMTP_USERNAME")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelFormat:     strings.ToLower(sharedcfg.EnvOrDefault("MODEL_FORMAT", ModelFormatJSON)),
		ModelPath:       sharedcfg.EnvOrDefault("MODEL_PATH", "flood_model.json"),
		ScalerPath:      sharedcfg.EnvOrDefault("SCALER_PATH", "scaler.json"),
		ONNXLibraryPath: os.Getenv("ONNX_LIBRARY_PATH"),
		ONNXInputName:   sharedcfg.EnvOrDefault("ONNX_INPUT_NAME", "float_input"),
		ONNXScalerOut:   sharedcfg.EnvOrDefault("ONNX_SCALER_OUTPUT", "variable"),
		ONNXLabelOut:    sharedcfg.EnvOrDefault("ONNX_LABEL_OUTPUT", "output_label"),

		DatasetPath:          sharedcfg.EnvOrDefault("DATASET_PATH", "flood_risk_dataset_india.csv"),
		MapRainfallThreshold: threshold,
		MapFloodFlag:         floodFlag,

		SMTPHost:       sharedcfg.EnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       smtpPort,
		SMTPUsername:   smtpUser,
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       sharedcfg.EnvOrDefault("SMTP_FROM", smtpUser),
		SMTPTimeout:    smtpTimeout,
		AlertRecipient: os.Getenv("ALERT_RECIPIENT"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers:    brokers,
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "flood-alerts"),
	}

	if cfg.ModelFormat != ModelFormatJSON && cfg.ModelFormat != ModelFormatONNX {
		return nil, fmt.Errorf("invalid MODEL_FORMAT %q: must be json or onnx", cfg.ModelFormat)
	}
	if cfg.ModelPath == "" || cfg.ScalerPath == "" {
		return nil, errors.New("MODEL_PATH and SCALER_PATH are required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled() && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
