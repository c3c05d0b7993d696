package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Asset files, resolved against DataDir.
	DataDir           string
	DatasetFile       string
	ModelMetricsFile  string
	ResultsFile       string
	EntityMetricsFile string
	TrainTestFile     string // empty disables the fit view
	GeoFile           string

	ViewCacheSize int

	// Remote prediction endpoint.
	PredictionURL     string
	PredictionEnabled bool
	PredictionTimeout time.Duration

	// Prediction event publishing.
	EventsEnabled        bool
	KafkaBrokers         []string
	KafkaPredictionTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	predictionTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("PREDICTION_TIMEOUT", "10s"))
	if err != nil || predictionTimeout <= 0 {
		return nil, errors.New("invalid PREDICTION_TIMEOUT")
	}

	cacheSize, err := parsePositiveInt("VIEW_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	predictionURL := sharedcfg.EnvOrDefault("PREDICTION_URL", "http://127.0.0.1:5001/predict")
	predictionEnabled := true
	if v := os.Getenv("PREDICTION_ENABLED"); v != "" {
		predictionEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:           sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		DatasetFile:       sharedcfg.EnvOrDefault("DATASET_FILE", "df_dataset_unidos5.csv"),
		ModelMetricsFile:  sharedcfg.EnvOrDefault("MODEL_METRICS_FILE", "metricas_modelo.json"),
		ResultsFile:       sharedcfg.EnvOrDefault("RESULTS_FILE", "resultado_modelo.csv"),
		EntityMetricsFile: sharedcfg.EnvOrDefault("ENTITY_METRICS_FILE", "metrics_by_company.csv"),
		TrainTestFile:     os.Getenv("TRAIN_TEST_FILE"),
		GeoFile:           sharedcfg.EnvOrDefault("GEO_FILE", "mapa.json"),

		ViewCacheSize: cacheSize,

		PredictionURL:     predictionURL,
		PredictionEnabled: predictionEnabled,
		PredictionTimeout: predictionTimeout,

		EventsEnabled:        os.Getenv("PREDICTION_EVENTS_ENABLED") == "true",
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPredictionTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "energy-predictions"),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when PREDICTION_EVENTS_ENABLED is true")
	}
	if cfg.EventsEnabled && cfg.KafkaPredictionTopic == "" {
		return nil, errors.New("KAFKA_PREDICTION_TOPIC is required when PREDICTION_EVENTS_ENABLED is true")
	}

	return cfg, nil
}

// AssetPath resolves an asset file name against DataDir. Empty names stay empty.
func (c *Config) AssetPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
