package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/platform/resilience"
)

// Config stores runtime configuration for the api and ingest binaries.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	DBURL                   string
	DBMaxOpenConns          int
	DBDisablePreparedBinary bool

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	GeoGuessrBaseURL        string
	GeoGuessrGameServerURL  string
	GeoGuessrTimeout        time.Duration
	GeoGuessrMaxRetries     int
	GeoGuessrRateLimitRPS   float64
	GeoGuessrRateLimitBurst int
	GeoGuessrGuestNick      string
	GeoGuessrCircuit        resilience.CircuitBreakerConfig

	EnrichmentCacheTTL    time.Duration
	EnrichmentConcurrency int
	IngestWorkerCount     int
	IngestChunkSize       int

	GeoWorldPath       string
	GeoSubdivisionPath string
	GeoIDProperty      string

	InternalJobToken string
}

// Load reads the process environment. A .env file in the working directory
// seeds variables that are not already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    strings.TrimSpace(getEnv("SERVICE_NAME", "geo-stats")),
		ServiceVersion: strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		LogLevel:       logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		HTTPAddr:       strings.TrimSpace(getEnv("HTTP_ADDR", ":8080")),
		DBURL:          strings.TrimSpace(getEnv("DB_URL", "")),

		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAppName:           strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", "geo-stats")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),

		GeoGuessrBaseURL:       strings.TrimSpace(getEnv("GEOGUESSR_BASE_URL", "https://www.geoguessr.com")),
		GeoGuessrGameServerURL: strings.TrimSpace(getEnv("GEOGUESSR_GAME_SERVER_URL", "https://game-server.geoguessr.com")),
		GeoGuessrGuestNick:     strings.TrimSpace(getEnv("GEOGUESSR_GUEST_NICK", "geo_stats")),

		GeoWorldPath:       strings.TrimSpace(getEnv("GEO_WORLD_PATH", "")),
		GeoSubdivisionPath: strings.TrimSpace(getEnv("GEO_SUBDIVISION_PATH", "")),
		GeoIDProperty:      strings.TrimSpace(getEnv("GEO_ID_PROPERTY", "id")),

		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("HTTP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("HTTP_WRITE_TIMEOUT", "5m"); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = getEnvAsPositiveInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", "true"); err != nil {
		return Config{}, err
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceLogsEnabled, err = getEnvAsBool("UPTRACE_LOGS_ENABLED", "false"); err != nil {
		return Config{}, err
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	if cfg.GeoGuessrTimeout, err = getEnvAsDuration("GEOGUESSR_TIMEOUT", "20s"); err != nil {
		return Config{}, err
	}
	if cfg.GeoGuessrMaxRetries, err = getEnvAsInt("GEOGUESSR_MAX_RETRIES", 0); err != nil {
		return Config{}, fmt.Errorf("parse GEOGUESSR_MAX_RETRIES: %w", err)
	}
	if cfg.GeoGuessrMaxRetries < 0 {
		return Config{}, fmt.Errorf("GEOGUESSR_MAX_RETRIES must be >= 0")
	}
	if cfg.GeoGuessrRateLimitRPS, err = strconv.ParseFloat(getEnv("GEOGUESSR_RATE_LIMIT_RPS", "5"), 64); err != nil {
		return Config{}, fmt.Errorf("parse GEOGUESSR_RATE_LIMIT_RPS: %w", err)
	}
	if cfg.GeoGuessrRateLimitRPS <= 0 {
		return Config{}, fmt.Errorf("GEOGUESSR_RATE_LIMIT_RPS must be > 0")
	}
	if cfg.GeoGuessrRateLimitBurst, err = getEnvAsPositiveInt("GEOGUESSR_RATE_LIMIT_BURST", 5); err != nil {
		return Config{}, err
	}
	if cfg.GeoGuessrCircuit, err = loadCircuitBreaker("GEOGUESSR_CIRCUIT"); err != nil {
		return Config{}, err
	}

	if cfg.EnrichmentCacheTTL, err = getEnvAsDuration("ENRICHMENT_CACHE_TTL", "90s"); err != nil {
		return Config{}, err
	}
	if cfg.EnrichmentConcurrency, err = getEnvAsPositiveInt("ENRICHMENT_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.IngestWorkerCount, err = getEnvAsPositiveInt("INGEST_WORKER_COUNT", 8); err != nil {
		return Config{}, err
	}
	if cfg.IngestChunkSize, err = getEnvAsPositiveInt("INGEST_CHUNK_SIZE", 60); err != nil {
		return Config{}, err
	}

	if cfg.AppEnv == EnvProd && cfg.InternalJobToken == "" {
		return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when APP_ENV=%s", EnvProd)
	}

	return cfg, nil
}

func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := getEnvAsBool(prefix+"_ENABLED", "true")
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	failureCount, err := getEnvAsPositiveInt(prefix+"_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	openTimeout, err := getEnvAsDuration(prefix+"_OPEN_TIMEOUT", "30s")
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpenMaxReq, err := getEnvAsPositiveInt(prefix+"_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveInt(key string, fallback int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
