package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edumart/edumart/pkg/storage"
)

// Config captures service level configuration loaded from config.yaml.
// Storage settings can additionally be overridden through environment
// variables, which is how production deployments inject credentials.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	CORS     CORSConfig     `yaml:"cors"`
	Storage  storage.Config `yaml:"storage"`
}

// CORSConfig defines CORS middleware settings.
type CORSConfig struct {
	AllowOrigin      string `yaml:"allow_origin"`
	AllowMethods     string `yaml:"allow_methods"`
	AllowHeaders     string `yaml:"allow_headers"`
	AllowCredentials bool   `yaml:"allow_credentials"`
}

// ServerConfig defines HTTP server options.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DatabaseConfig defines the database backend configuration.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig contains MySQL specific connection details.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// PostgresConfig contains PostgreSQL specific connection details.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads a YAML configuration file from the provided path and applies
// environment overrides on top. It searches the current working directory
// first, then next to the binary executable.
func Load(name string) (*Config, error) {
	cfg := defaultConfig()

	configPath := findConfigFile(name)
	if configPath == "" {
		log.Printf("Warning: config file %q not found, using defaults", name)
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	log.Printf("Loading config from: %s", configPath)
	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	var parsed Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&parsed)
	applyEnvOverrides(&parsed)
	return &parsed, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path: "data/edumart.db",
			},
		},
		CORS: CORSConfig{
			AllowOrigin:      "*",
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "*",
			AllowCredentials: false,
		},
		Storage: storage.Config{
			Provider: "local",
			Local: storage.LocalConfig{
				BasePath: storage.DefaultLocalBasePath,
			},
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/edumart.db"
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "local"
	}
}

// applyEnvOverrides lets the storage backend be selected and credentialed
// entirely through the environment. An empty variable leaves the file
// value untouched.
func applyEnvOverrides(cfg *Config) {
	setIfEnv := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setIfEnv(&cfg.Storage.Provider, "STORAGE_PROVIDER")
	setIfEnv(&cfg.Storage.Local.BasePath, "STORAGE_LOCAL_PATH")
	setIfEnv(&cfg.Storage.S3.Endpoint, "S3_ENDPOINT")
	setIfEnv(&cfg.Storage.S3.Region, "S3_REGION")
	setIfEnv(&cfg.Storage.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setIfEnv(&cfg.Storage.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setIfEnv(&cfg.Storage.S3.PublicBucket, "S3_PUBLIC_BUCKET")
	setIfEnv(&cfg.Storage.S3.PrivateBucket, "S3_PRIVATE_BUCKET")
	setIfEnv(&cfg.Storage.S3.PublicBucketURL, "S3_PUBLIC_BUCKET_URL")
}

// findConfigFile searches for a config file in the current directory first,
// then next to the binary executable. Returns the full path or empty string.
func findConfigFile(name string) string {
	if _, err := os.Stat(name); err == nil {
		abs, _ := filepath.Abs(name)
		return abs
	}

	exe, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exe)
		candidate := filepath.Join(exeDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
