package config

import (
	"fmt"
	"strings"
	"time"

	"bar-order-api/models"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide database handle, set by InitDB
var DB *gorm.DB

type Config struct {
	Port            string        `mapstructure:"PORT"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	DBDriver        string        `mapstructure:"DB_DRIVER"`
	DBDSN           string        `mapstructure:"DB_DSN"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	MediaRoot       string        `mapstructure:"MEDIA_ROOT"`
	MediaURL        string        `mapstructure:"MEDIA_URL"`
	AdminUsername   string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword   string        `mapstructure:"ADMIN_PASSWORD"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	ProductCacheTTL time.Duration `mapstructure:"PRODUCT_CACHE_TTL"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	QRBaseURL       string        `mapstructure:"QR_BASE_URL"`
}

var defaults = map[string]any{
	"PORT":              "8080",
	"GIN_MODE":          "debug",
	"DB_DRIVER":         "sqlite",
	"DB_DSN":            "bar_order.db",
	"JWT_SECRET":        "bar_order_super_secret_2024",
	"ACCESS_TOKEN_TTL":  "5m",
	"REFRESH_TOKEN_TTL": "24h",
	"MEDIA_ROOT":        "media",
	"MEDIA_URL":         "/media/",
	"ADMIN_USERNAME":    "admin",
	"ADMIN_PASSWORD":    "",
	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"PRODUCT_CACHE_TTL": "10m",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"QR_BASE_URL":       "http://localhost:5173",
}

// Load reads configuration from the environment, optionally overlaid by the
// file named in CONFIG_FILE. Environment variables always win.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}
	return cfg, nil
}

// OpenDB connects to the configured database and migrates every model
func OpenDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "sqlite", "":
		dialector = sqlite.Open(SQLiteDSN(cfg.DBDSN))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// InitDB opens the database and stores the handle in DB
func InitDB(cfg *Config) error {
	db, err := OpenDB(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate auto-migrates all models; safe to call repeatedly
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderDetail{},
		&models.OrderStatusChange{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SQLiteDSN turns on foreign key enforcement unless the DSN sets pragmas itself
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
