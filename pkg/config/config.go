package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Reservation  ReservationConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEDRENTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"LEDRENTAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEDRENTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEDRENTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEDRENTAL_DB_DSN"`
	Driver string `envconfig:"LEDRENTAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEDRENTAL_DB_HOST"`
	LegacyPort     int    `envconfig:"LEDRENTAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEDRENTAL_DB_USER"`
	LegacyPassword string `envconfig:"LEDRENTAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEDRENTAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEDRENTAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEDRENTAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEDRENTAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEDRENTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEDRENTAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEDRENTAL_REDIS_URL"`
	Address      string        `envconfig:"LEDRENTAL_REDIS_ADDR"`
	Password     string        `envconfig:"LEDRENTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEDRENTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEDRENTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEDRENTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEDRENTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEDRENTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEDRENTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ReservationConfig tunes the orchestrator's conflict-retry behavior.
type ReservationConfig struct {
	MaxRetries     int           `envconfig:"LEDRENTAL_RESERVATION_MAX_RETRIES" default:"3"`
	RetryBackoff   time.Duration `envconfig:"LEDRENTAL_RESERVATION_RETRY_BACKOFF" default:"25ms"`
	IdempotencyTTL time.Duration `envconfig:"LEDRENTAL_RESERVATION_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEDRENTAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEDRENTAL_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	Stream         string `envconfig:"LEDRENTAL_OUTBOX_STREAM" default:"ledrental-order-events"`
	BatchSize      int    `envconfig:"LEDRENTAL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"LEDRENTAL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"LEDRENTAL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
