package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	DBDriver    string
	MySQLHost   string
	MySQLPort   string
	MySQLDB     string
	MySQLUser   string
	MySQLPass   string
	PostgresDSN string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs      int
	SuggestionTTLSecs int

	NATSURL   string
	JWTSecret string

	PortalBaseURL            string
	DefaultCommissionRate    decimal.Decimal
	RequireOwnerVerification bool
	ExpirySweepCron          string
	AllowedOrigins           []string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return d
}

// Load reads .env files when present, then the process environment.
// Real environment variables win over .env values.
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", DriverMySQL)),
		MySQLHost:   getenv("MYSQL_HOST", "mysql"),
		MySQLPort:   getenv("MYSQL_PORT", "3306"),
		MySQLDB:     getenv("MYSQL_DB", "rentadvance"),
		MySQLUser:   getenv("MYSQL_USER", "rentadvance"),
		MySQLPass:   getenv("MYSQL_PASS", "rentadvance"),
		PostgresDSN: getenv("POSTGRES_DSN", ""),
		SQLitePath:  getenv("SQLITE_PATH", "rentadvance.db"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getenvInt("REDIS_DB", 0),

		IdempTTLSecs:      getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		SuggestionTTLSecs: getenvInt("SUGGESTION_TTL_SECONDS", 86400),

		NATSURL:   getenv("NATS_URL", ""),
		JWTSecret: getenv("JWT_SECRET", ""),

		PortalBaseURL:            getenv("PORTAL_BASE_URL", "http://localhost:3000"),
		DefaultCommissionRate:    decimal.RequireFromString("0.02"),
		RequireOwnerVerification: getenvBool("REQUIRE_OWNER_VERIFICATION", false),
		ExpirySweepCron:          getenv("EXPIRY_SWEEP_CRON", "*/5 * * * *"),
	}
	if v := os.Getenv("DEFAULT_COMMISSION_RATE"); v != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			c.DefaultCommissionRate = d
		}
	}
	for _, o := range strings.Split(getenv("WS_ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (mysql|postgres|sqlite)", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.DefaultCommissionRate.IsNegative() || c.DefaultCommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("DEFAULT_COMMISSION_RATE %s must be in [0, 1)", c.DefaultCommissionRate)
	}
	if c.IdempTTLSecs <= 0 || c.SuggestionTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS and SUGGESTION_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return c.PostgresDSN
	case DriverSQLite:
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) SuggestionTTL() time.Duration {
	return time.Duration(c.SuggestionTTLSecs) * time.Second
}
