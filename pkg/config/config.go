package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PLATEFLEET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PLATEFLEET_DB_DSN"
	EnvDBHost = "PLATEFLEET_DB_HOST"
	EnvDBUser = "PLATEFLEET_DB_USER"
	EnvDBName = "PLATEFLEET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Broadcast    BroadcastConfig
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
	Env          string `envconfig:"PLATEFLEET_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATEFLEET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLATEFLEET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLATEFLEET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PLATEFLEET_DB_DSN"`
	Driver string `envconfig:"PLATEFLEET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLATEFLEET_DB_HOST"`
	LegacyPort     int    `envconfig:"PLATEFLEET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLATEFLEET_DB_USER"`
	LegacyPassword string `envconfig:"PLATEFLEET_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLATEFLEET_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLATEFLEET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLATEFLEET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATEFLEET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATEFLEET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATEFLEET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATEFLEET_REDIS_URL" required:"true"`
	Password     string        `envconfig:"PLATEFLEET_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATEFLEET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATEFLEET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATEFLEET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATEFLEET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATEFLEET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATEFLEET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLATEFLEET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLATEFLEET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLATEFLEET_JWT_EXPIRATION_MINUTES" default:"60"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PLATEFLEET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PLATEFLEET_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"PLATEFLEET_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PLATEFLEET_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PLATEFLEET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PLATEFLEET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PLATEFLEET_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"PLATEFLEET_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLATEFLEET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLATEFLEET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLATEFLEET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	TickInterval  time.Duration `envconfig:"PLATEFLEET_CRON_TICK_INTERVAL" default:"1m"`
	PendingTTL    time.Duration `envconfig:"PLATEFLEET_CRON_PENDING_TTL" default:"30m"`
	LockTTL       time.Duration `envconfig:"PLATEFLEET_CRON_LOCK_TTL" default:"5m"`
	ExpiryBatch   int           `envconfig:"PLATEFLEET_CRON_EXPIRY_BATCH_SIZE" default:"100"`
	MetricsAddr   string        `envconfig:"PLATEFLEET_CRON_METRICS_ADDR" default:":9102"`
	MetricsEnable bool          `envconfig:"PLATEFLEET_CRON_METRICS_ENABLE" default:"true"`
}

type BroadcastConfig struct {
	SubscriberBuffer  int           `envconfig:"PLATEFLEET_BROADCAST_SUBSCRIBER_BUFFER" default:"16"`
	HeartbeatInterval time.Duration `envconfig:"PLATEFLEET_BROADCAST_HEARTBEAT_INTERVAL" default:"25s"`
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
