package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STAY"

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the key/value connection string understood by the pgx driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DatabaseURL returns the URL form used by the migration runner.
func (c DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker settings. An empty broker list disables events.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// Enabled reports whether any broker is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// PolicyConfig toggles the behaviors left open by the booking model.
type PolicyConfig struct {
	// IgnoreCancelledInOverlap excludes cancelled bookings from the date conflict check.
	IgnoreCancelledInOverlap bool
	// BlockDeleteWithBookings rejects property deletion while pending or confirmed bookings exist.
	BlockDeleteWithBookings bool
}

// ServiceConfig holds all configuration for the stay service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	StoreDriver string
	LogFile     string
	DBConfig    DatabaseConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	Policy      PolicyConfig
}

// Load reads configuration from the environment (STAY_ prefix), after
// merging an optional .env file from the working directory.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stay")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_GROUP_PREFIX", "kilat-")
	v.SetDefault("OVERLAP_IGNORE_CANCELLED", false)
	v.SetDefault("BLOCK_DELETE_WITH_BOOKINGS", false)

	cfg := &ServiceConfig{
		Port:        normalizePort(v.GetString("SERVICE_PORT")),
		AppEnv:      v.GetString("APP_ENV"),
		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		LogFile:     v.GetString("LOG_FILE"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		Policy: PolicyConfig{
			IgnoreCancelledInOverlap: v.GetBool("OVERLAP_IGNORE_CANCELLED"),
			BlockDeleteWithBookings:  v.GetBool("BLOCK_DELETE_WITH_BOOKINGS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unsupported store driver %q", c.StoreDriver)
	}
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("%s_JWT_SECRET is required", envPrefix)
	}
	return nil
}

func normalizePort(p string) string {
	if strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
