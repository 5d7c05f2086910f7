package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	Storage   string // mysql | memory
	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	TenantsFile string
	ParserURL   string

	SednaRPS     int
	SednaTimeout time.Duration

	ItemDelay         time.Duration
	Heartbeat         time.Duration
	QueueWait         time.Duration
	MaxConcurrentRuns int
	ShutdownGrace     time.Duration
	RefDataTTL        time.Duration
	ResultCacheTTL    time.Duration
	WarmerConcurrency int
}

// Load reads the environment, after an optional .env file in the working
// directory.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	dur := func(k string, def time.Duration) time.Duration {
		if v := os.Getenv(k); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
			log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		Storage:   env("STORAGE", "mysql"),
		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel_sync?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),

		TenantsFile: env("TENANTS_FILE", "tenants.yaml"),
		ParserURL:   env("PARSER_URL", ""),

		SednaRPS:     atoi("SEDNA_RPS", 5),
		SednaTimeout: dur("SEDNA_TIMEOUT", 30*time.Second),

		ItemDelay:         dur("SYNC_ITEM_DELAY", 200*time.Millisecond),
		Heartbeat:         dur("SYNC_HEARTBEAT", 30*time.Second),
		QueueWait:         dur("SYNC_QUEUE_WAIT", 5*time.Second),
		MaxConcurrentRuns: atoi("SYNC_MAX_CONCURRENT_RUNS", 0),
		ShutdownGrace:     dur("SHUTDOWN_GRACE", 30*time.Second),
		RefDataTTL:        dur("REFDATA_TTL", 24*time.Hour),
		ResultCacheTTL:    time.Duration(atoi("RESULT_CACHE_TTL_SECONDS", 900)) * time.Second,
		WarmerConcurrency: atoi("WARMER_CONCURRENCY", 4),
	}
	if c.Storage == "mysql" && c.ParserURL == "" {
		log.Warn().Msg("PARSER_URL is empty; unparsed items will fail")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
