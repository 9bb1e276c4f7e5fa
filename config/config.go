package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Task     TaskConfig     `yaml:"task"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `yaml:"debug"`
}

type ServerConfig struct {
	Port         string          `yaml:"port"`
	CORSOrigins  []string        `yaml:"cors_origins"`
	ReadTimeout  time.Duration   `yaml:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig 按客户端 IP 限流，RPS <= 0 表示关闭
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Type    string `yaml:"type"` // sqlite, mysql
	Path    string `yaml:"path"` // sqlite 文件路径
	DSN     string `yaml:"dsn"`  // mysql DSN
	MaxOpen int    `yaml:"max_open"`
	MaxIdle int    `yaml:"max_idle"`
}

type StorageConfig struct {
	Type      string      `yaml:"type"` // local, minio
	LocalPath string      `yaml:"local_path"`
	BaseURL   string      `yaml:"base_url"`
	MinIO     MinIOConfig `yaml:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Domain    string `yaml:"domain"`
}

type TaskConfig struct {
	// websocket 推送任务状态时轮询数据库的间隔
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default 返回一份可直接运行的本地配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "Huobao Drama API",
			Version: "1.0.0",
		},
		Server: ServerConfig{
			Port:         ":5678",
			CORSOrigins:  []string{"*"},
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 20 * time.Second,
			RateLimit:    RateLimitConfig{RPS: 2000.0 / 60.0, Burst: 200},
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			Path:    "data/drama_generator.db",
			MaxOpen: 1,
			MaxIdle: 1,
		},
		Storage: StorageConfig{
			Type:      "local",
			LocalPath: "data/storage",
			BaseURL:   "/static",
		},
		Task: TaskConfig{PollInterval: time.Second},
	}
}

// Load 读取 yaml 配置；文件不存在时使用默认值。
// DRAMA_CONFIG 可替换配置文件路径，PORT / DRAMA_DB_PATH 覆盖对应字段。
func Load(path string) (*Config, error) {
	if p := os.Getenv("DRAMA_CONFIG"); p != "" {
		path = p
	}
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("配置文件读取失败: %w", err)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("配置文件解析失败: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			port = ":" + port
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("DRAMA_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "mysql":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for mysql")
		}
	default:
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}
	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalPath == "" {
			return errors.New("storage.local_path is required for local storage")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return errors.New("storage.minio.endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("unsupported storage.type %q", c.Storage.Type)
	}
	if c.Task.PollInterval <= 0 {
		c.Task.PollInterval = time.Second
	}
	return nil
}
