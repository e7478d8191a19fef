package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/accord-backend/internal/data/db"
)

// Config holds the environment driven configuration for the Accord API.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"accord-backend"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Version         string        `env:"SERVICE_VERSION" envDefault:"dev"`
	Port            int           `env:"PORT" envDefault:"8080"`
	LogMode         string        `env:"LOG_MODE" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL"`
	LogRedaction    bool          `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
	LogHashSalt     string        `env:"LOG_HASH_SALT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`

	DBDriver         string        `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string        `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string        `env:"POSTGRES_PASSWORD"`
	PostgresName     string        `env:"POSTGRES_NAME" envDefault:"accord"`
	PostgresSSLMode  string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath       string        `env:"SQLITE_PATH"`
	DBMaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBMaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBSlowThreshold  time.Duration `env:"DB_SLOW_THRESHOLD" envDefault:"500ms"`
	AutoMigrate      bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	ListMaxLimit     int           `env:"LIST_MAX_LIMIT" envDefault:"200"`

	JWTSecretKey string        `env:"JWT_SECRET_KEY" envDefault:"defaultsecret"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	TokenIssuer  string        `env:"TOKEN_ISSUER" envDefault:"accord"`

	RedisAddr         string `env:"REDIS_ADDR"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	RedisAuditChannel string `env:"REDIS_AUDIT_CHANNEL" envDefault:"accord.audit"`
	AuditTail         bool   `env:"AUDIT_TAIL" envDefault:"false"`

	OtelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelExporter    string  `env:"OTEL_TRACES_EXPORTER"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	OtelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	MetricsEnabled   bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"accord"`
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// LoadConfig parses the process environment. When ACCORD_CONFIG_FILE names a
// YAML file of KEY: value pairs, those values act as defaults beneath it.
func LoadConfig() (Config, error) {
	return loadConfig(environ(os.Environ()))
}

func loadConfig(vars map[string]string) (Config, error) {
	merged := map[string]string{}
	if path := strings.TrimSpace(vars["ACCORD_CONFIG_FILE"]); path != "" {
		fileVars, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		for k, v := range fileVars {
			merged[k] = v
		}
	}
	for k, v := range vars {
		merged[k] = v
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		key := strings.ToUpper(strings.TrimSpace(k))
		switch t := v.(type) {
		case nil:
			continue
		case []interface{}:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func environ(kv []string) map[string]string {
	out := make(map[string]string, len(kv))
	for _, e := range kv {
		k, v, ok := strings.Cut(e, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}

func (c Config) validate() error {
	switch strings.ToLower(c.DBDriver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.isProduction() && (c.JWTSecretKey == "" || c.JWTSecretKey == "defaultsecret") {
		return fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func (c Config) isProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	}
	return false
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) DBConfig() db.Config {
	dsn := strings.TrimSpace(c.DatabaseURL)
	if dsn == "" && strings.ToLower(c.DBDriver) == db.DriverPostgres {
		dsn = db.PostgresDSN(c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresName, c.PostgresSSLMode)
	}
	return db.Config{
		Driver:          strings.ToLower(c.DBDriver),
		DSN:             dsn,
		SQLitePath:      c.SQLitePath,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnLifetime,
		SlowThreshold:   c.DBSlowThreshold,
	}
}
