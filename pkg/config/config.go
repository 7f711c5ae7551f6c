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
	JWT          JWTConfig
	Stripe       StripeConfig
	Cron         CronConfig
	Webhook      WebhookConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"STITCHLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"STITCHLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STITCHLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STITCHLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STITCHLANE_DB_DSN"`
	Driver string `envconfig:"STITCHLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STITCHLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"STITCHLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STITCHLANE_DB_USER"`
	LegacyPassword string `envconfig:"STITCHLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STITCHLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STITCHLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STITCHLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STITCHLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STITCHLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STITCHLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STITCHLANE_REDIS_URL"`
	Address      string        `envconfig:"STITCHLANE_REDIS_ADDR"`
	Password     string        `envconfig:"STITCHLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STITCHLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STITCHLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STITCHLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STITCHLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STITCHLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STITCHLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STITCHLANE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STITCHLANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STITCHLANE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"STITCHLANE_STRIPE_API_KEY"`
	Secret         string        `envconfig:"STITCHLANE_STRIPE_SECRET"`
	Env            string        `envconfig:"STITCHLANE_STRIPE_ENV" default:"test"`
	RequestTimeout time.Duration `envconfig:"STITCHLANE_STRIPE_REQUEST_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"STITCHLANE_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"STITCHLANE_CRON_LOCK_TTL" default:"2h"`
	PendingOrderTTL time.Duration `envconfig:"STITCHLANE_CRON_PENDING_ORDER_TTL" default:"240h"`
	MetricsPort     string        `envconfig:"STITCHLANE_CRON_METRICS_PORT" default:"9091"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"STITCHLANE_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STITCHLANE_AUTO_MIGRATE" default:"false"`
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
