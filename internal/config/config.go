package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends for the consent snapshot
const (
	StorageCookie = "cookie"
	StorageRedis  = "redis"
	StorageMySQL  = "mysql"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Consent  ConsentConfig  `mapstructure:"consent"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Site     SiteConfig     `mapstructure:"site"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConsentConfig holds cookie consent configuration
type ConsentConfig struct {
	Storage           string        `mapstructure:"storage"`
	CookieName        string        `mapstructure:"cookie_name"`
	VisitorCookieName string        `mapstructure:"visitor_cookie_name"`
	CookieMaxAge      time.Duration `mapstructure:"cookie_max_age"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
	BannerDelay       time.Duration `mapstructure:"banner_delay"`
	AuditEnabled      bool          `mapstructure:"audit_enabled"`
}

// DatabaseConfig holds MySQL configuration, used by the mysql storage backend
type DatabaseConfig struct {
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration, used by the redis storage backend
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyTTL       time.Duration `mapstructure:"key_ttl"`
}

// AuthConfig holds the access-token settings used by the route guards
type AuthConfig struct {
	JWTSigningKey   string `mapstructure:"jwt_signing_key"`
	Issuer          string `mapstructure:"issuer"`
	Audience        string `mapstructure:"audience"`
	TokenCookieName string `mapstructure:"token_cookie_name"`
	DashboardPath   string `mapstructure:"dashboard_path"`
	LoginPath       string `mapstructure:"login_path"`
}

// SiteConfig holds the static details rendered into the pages
type SiteConfig struct {
	Name         string `mapstructure:"name"`
	BaseURL      string `mapstructure:"base_url"`
	LegalEmail   string `mapstructure:"legal_email"`
	PrivacyEmail string `mapstructure:"privacy_email"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LC_SITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("consent.storage", StorageCookie)
	v.SetDefault("consent.cookie_name", "cookie-consent-storage")
	v.SetDefault("consent.visitor_cookie_name", "lc_visitor")
	v.SetDefault("consent.cookie_max_age", 365*24*time.Hour)
	v.SetDefault("consent.banner_delay", time.Second)
	v.SetDefault("consent.audit_enabled", true)

	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("auth.issuer", "learningcenter")
	v.SetDefault("auth.audience", "learningcenter-web")
	v.SetDefault("auth.token_cookie_name", "access_token")
	v.SetDefault("auth.dashboard_path", "/dashboard")
	v.SetDefault("auth.login_path", "/")

	v.SetDefault("site.name", "LearningCenter")
	v.SetDefault("site.legal_email", "legal@learningcenter.id")
	v.SetDefault("site.privacy_email", "privacy@learningcenter.id")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Consent.CookieName == "" {
		return fmt.Errorf("consent cookie name is required")
	}

	if config.Consent.VisitorCookieName == "" {
		return fmt.Errorf("visitor cookie name is required")
	}

	if config.Consent.BannerDelay < 0 {
		return fmt.Errorf("banner delay must not be negative: %s", config.Consent.BannerDelay)
	}

	switch config.Consent.Storage {
	case StorageCookie:
	case StorageRedis:
		if config.Redis.URL == "" {
			return fmt.Errorf("redis url is required when consent storage is %q", StorageRedis)
		}
	case StorageMySQL:
		if config.Database.Hostname == "" {
			return fmt.Errorf("database hostname is required when consent storage is %q", StorageMySQL)
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required when consent storage is %q", StorageMySQL)
		}
	default:
		return fmt.Errorf("unsupported consent storage: %q", config.Consent.Storage)
	}

	if config.Auth.JWTSigningKey == "" {
		return fmt.Errorf("jwt signing key is required")
	}

	return nil
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
