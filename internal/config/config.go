package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"topics_go/pkg/storage"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config собирает все настройки приложения.
// Порядок применения: значения по умолчанию, YAML-файл, .env, переменные окружения, флаги CLI.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Manifest ManifestConfig `yaml:"manifest"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	AuthToken       string        `yaml:"auth_token"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
	DSN     string `yaml:"dsn"`
	// Watch включает перечитывание JSON-файлов при их ручном изменении
	Watch bool `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ManifestConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config - параметры бакета для передачи манифестов
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default возвращает настройки локальной dev-заглушки
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			GinMode:         "release",
			CORSOrigins:     []string{"http://localhost:5173"},
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Driver:  storage.DriverJSON,
			DataDir: "data",
		},
		Log: LogConfig{Level: "info"},
		Manifest: ManifestConfig{
			S3: S3Config{Region: "us-east-1", Bucket: "manifests"},
		},
	}
}

// Load читает конфигурацию. path может быть пустым - тогда YAML не используется.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env не обязателен, поэтому ошибку отсутствия файла игнорируем
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.GinMode, "GIN_MODE")
	setString(&c.Server.AuthToken, "AUTH_TOKEN")
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.Server.ShutdownTimeout = d
	}

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.DataDir, "DATA_DIR")
	setString(&c.Storage.DSN, "STORAGE_DSN")
	if err := setBool(&c.Storage.Watch, "STORAGE_WATCH"); err != nil {
		return err
	}

	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.Manifest.S3.Endpoint, "MANIFEST_S3_ENDPOINT")
	setString(&c.Manifest.S3.Region, "MANIFEST_S3_REGION")
	setString(&c.Manifest.S3.AccessKey, "MANIFEST_S3_ACCESS_KEY")
	setString(&c.Manifest.S3.SecretKey, "MANIFEST_S3_SECRET_KEY")
	setString(&c.Manifest.S3.Bucket, "MANIFEST_S3_BUCKET")
	return setBool(&c.Manifest.S3.UseSSL, "MANIFEST_S3_USE_SSL")
}

// Validate проверяет согласованность настроек и дополняет производные значения
func (c *Config) Validate() error {
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}

	switch c.Server.GinMode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode %q", c.Server.GinMode)
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "", storage.DriverJSON:
		c.Storage.Driver = storage.DriverJSON
	case storage.DriverSQLite:
		if c.Storage.DSN == "" {
			c.Storage.DSN = filepath.Join(c.Storage.DataDir, "topics.db")
		}
	case storage.DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Watch && c.Storage.Driver != storage.DriverJSON {
		return fmt.Errorf("storage watch is only supported by the json driver")
	}
	return nil
}

// StorageOptions возвращает параметры для storage.Open
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{Driver: c.Storage.Driver, DataDir: c.Storage.DataDir, DSN: c.Storage.DSN}
}

// Addr возвращает адрес для http.Server
func (c *Config) Addr() string { return ":" + c.Server.Port }

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
