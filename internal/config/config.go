package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string
	// APIWriteTimeout bounds quick endpoints; the blocking extraction
	// handlers clear it per request.
	APIWriteTimeout time.Duration

	StorageBackend     string
	StoragePath        string
	AWSRegion          string
	S3Endpoint         string
	S3UsePathStyle     bool
	GCPCredentialsFile string

	OCREngine            string
	OCRLanguage          string
	OCREngineMode        int
	OCRPageSegMode       int
	TessdataPrefix       string
	RasterWidth          int
	ReclaimMemoryPerPage bool
	WorkDir              string

	MaxWorkers          int
	WorkerQueueSize     int
	TaskResultTTL       time.Duration
	TaskJanitorInterval time.Duration

	PostgresDSN string

	NATSURL           string
	NATSSubject       string
	NATSEventsSubject string

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration

	StorageBreakerEnabled bool

	WorkerMetricsPort string
}

const (
	StorageBackendLocalFS = "localfs"
	StorageBackendGCS     = "gcs"
	StorageBackendS3      = "s3"

	OCREngineTesseract = "tesseract"
	OCREngineVision    = "vision"
)

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8000"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		APIWriteTimeout: mustEnvDuration("API_WRITE_TIMEOUT", 60*time.Second),

		StorageBackend:     mustEnv("STORAGE_BACKEND", StorageBackendLocalFS),
		StoragePath:        mustEnv("STORAGE_PATH", "./data/storage"),
		AWSRegion:          mustEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         mustEnv("S3_ENDPOINT", ""),
		S3UsePathStyle:     mustEnvBool("S3_USE_PATH_STYLE", false),
		GCPCredentialsFile: mustEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		OCREngine:            mustEnv("OCR_ENGINE", OCREngineTesseract),
		OCRLanguage:          mustEnv("OCR_LANGUAGE", "spa"),
		OCREngineMode:        mustEnvInt("OCR_ENGINE_MODE", 3),
		OCRPageSegMode:       mustEnvInt("OCR_PAGE_SEG_MODE", 6),
		TessdataPrefix:       mustEnv("TESSDATA_PREFIX", "/etc/tessdata"),
		RasterWidth:          mustEnvInt("RASTER_WIDTH", 2000),
		ReclaimMemoryPerPage: mustEnvBool("RECLAIM_MEMORY_PER_PAGE", true),
		WorkDir:              mustEnv("WORK_DIR", os.TempDir()),

		MaxWorkers:          mustEnvInt("MAX_WORKERS", 4),
		WorkerQueueSize:     mustEnvInt("WORKER_QUEUE_SIZE", 64),
		TaskResultTTL:       mustEnvDuration("TASK_RESULT_TTL", 24*time.Hour),
		TaskJanitorInterval: mustEnvDuration("TASK_JANITOR_INTERVAL", time.Minute),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:           mustEnv("NATS_URL", ""),
		NATSSubject:       mustEnv("NATS_SUBJECT", "ocr.extract.requests"),
		NATSEventsSubject: mustEnv("NATS_EVENTS_SUBJECT", "ocr.document.extracted"),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT", 250*time.Millisecond),

		StorageBreakerEnabled: mustEnvBool("STORAGE_BREAKER_ENABLED", true),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
