package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config application configuration (configs/config.<env>.yaml)
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Elements ElementsConfig `yaml:"elements"`
	I18n     I18nConfig     `yaml:"i18n"`
	Storage  StorageConfig  `yaml:"storage"`

	// Extensions built-in plugin name → settings. Listed plugins are enabled at startup.
	Extensions map[string]map[string]interface{} `yaml:"extensions"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         int      `yaml:"port"`
	Env          string   `yaml:"env"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig MySQL connection settings
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig Redis settings. An empty host disables the cache.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig token verification settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
	// Expiry access token lifetime in seconds
	Expiry int `yaml:"expiry"`
}

// ElementsConfig element object settings
type ElementsConfig struct {
	UploadFolder string `yaml:"upload_folder"`
	AssetsDir    string `yaml:"assets_dir"`
	PerPage      int    `yaml:"per_page"`

	// BlockedLinkDomains domains that links and content may not point at
	BlockedLinkDomains []string `yaml:"blocked_link_domains"`
}

// StorageConfig image file backend. Driver "local" writes under elements.assets_dir,
// "s3" uploads to an S3/R2/MinIO bucket.
type StorageConfig struct {
	Driver          string `yaml:"driver"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// I18nConfig label translation settings
type I18nConfig struct {
	Dir           string `yaml:"dir"`
	DefaultLocale string `yaml:"default_locale"`
}

// LoadDotEnv loads .env files with priority: .env.local > .env
// godotenv.Load does NOT overwrite already-set env vars,
// so OS env vars always win, .env.local wins over .env.
// Returns list of files actually loaded.
func LoadDotEnv() []string {
	candidates := []string{".env.local", ".env"}
	var loaded []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// Default returns a config usable without a file
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8083, Env: "local"},
		Database: DatabaseConfig{
			Host:            "127.0.0.1",
			Port:            3306,
			User:            "angple",
			DBName:          "angple",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: time.Hour,
		},
		Redis:    RedisConfig{Port: 6379, PoolSize: 10},
		JWT:      JWTConfig{Expiry: 3600},
		Elements: ElementsConfig{UploadFolder: "Uploads/Elements/Objects", AssetsDir: "assets", PerPage: 20},
		I18n:     I18nConfig{DefaultLocale: "en"},
		Storage:  StorageConfig{Driver: "local", Region: "auto"},
	}
}

// Load reads the YAML file at path on top of Default and applies env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("config: server.port must be positive")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	if c.Elements.PerPage <= 0 {
		return fmt.Errorf("config: elements.per_page must be positive")
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("config: storage.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// applyEnv overrides file values with environment variables
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.Bucket, "S3_BUCKET")
	setString(&cfg.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// GetDSN builds the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	c := mysqldriver.NewConfig()
	c.User = d.User
	c.Passwd = d.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
	c.DBName = d.DBName
	c.ParseTime = true
	c.Loc = time.Local
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// LogResolved returns the non-secret resolved values for startup logging
func LogResolved(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"env":           cfg.Server.Env,
		"port":          cfg.Server.Port,
		"db_host":       cfg.Database.Host,
		"db_name":       cfg.Database.DBName,
		"redis_enabled": cfg.Redis.Host != "",
		"upload_folder": cfg.Elements.UploadFolder,
		"extensions":    len(cfg.Extensions),
		"storage":       cfg.Storage.Driver,
	}
}
