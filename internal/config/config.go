package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort      = 3001
	DefaultUploadDir = "public/uploads"
	DefaultURLPrefix = "/uploads"
	DefaultMetaDSN   = "memory://"

	BackendDisk = "disk"
	BackendS3   = "s3"
)

// S3Config: настройки S3-совместимого бэкенда (MinIO, AWS).
type S3Config struct {
	Bucket    string `yaml:"bucket" json:"bucket"`
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"-"`
	SecretKey string `yaml:"secret_key" json:"-"`
	Prefix    string `yaml:"prefix" json:"prefix"`
}

type Config struct {
	ListenAddr        string   `yaml:"listen_addr" json:"listen_addr"`
	UploadDir         string   `yaml:"upload_dir" json:"upload_dir"`
	URLPrefix         string   `yaml:"url_prefix" json:"url_prefix"`
	MaxMemoryMB       int64    `yaml:"max_memory_mb" json:"max_memory_mb"`
	RejectMissingFile bool     `yaml:"reject_missing_file" json:"reject_missing_file"`
	StorageBackend    string   `yaml:"storage_backend" json:"storage_backend"`
	S3                S3Config `yaml:"s3" json:"s3"`
	MetaDSN           string   `yaml:"meta_dsn" json:"-"`
	LogLevel          string   `yaml:"log_level" json:"log_level"`
	CORSOrigins       []string `yaml:"cors_origins" json:"cors_origins"`
}

// Default возвращает конфигурацию, с которой сервис поднимается без YAML-файла.
func Default() *Config {
	return &Config{
		ListenAddr:     ":" + strconv.Itoa(DefaultPort),
		UploadDir:      DefaultUploadDir,
		URLPrefix:      DefaultURLPrefix,
		MaxMemoryMB:    32,
		StorageBackend: BackendDisk,
		MetaDSN:        DefaultMetaDSN,
		LogLevel:       "info",
		CORSOrigins:    []string{"*"},
	}
}

// Load читает YAML-конфигурацию (если файл есть), применяет ENV-переопределения и возвращает актуальную структуру.
func Load() (*Config, error) {
	c := Default()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// ENV override
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return nil, errors.New("invalid PORT: " + v)
		}
		c.ListenAddr = ":" + strconv.Itoa(port)
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.StorageBackend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		c.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		c.S3.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REJECT_MISSING_FILE"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid REJECT_MISSING_FILE: " + v)
		}
		c.RejectMissingFile = strict
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitComma(v)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate проверяет взаимозависимые поля и нормализует префикс URL.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UploadDir) == "" && c.StorageBackend == BackendDisk {
		return errors.New("upload_dir is not configured")
	}

	c.URLPrefix = "/" + strings.Trim(strings.TrimSpace(c.URLPrefix), "/")
	if c.URLPrefix == "/" {
		return errors.New("url_prefix must not be the root path")
	}

	switch c.StorageBackend {
	case "", BackendDisk:
		c.StorageBackend = BackendDisk
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 backend")
		}
	default:
		return errors.New("unknown storage_backend: " + c.StorageBackend)
	}

	if c.MaxMemoryMB <= 0 {
		c.MaxMemoryMB = 32
	}

	return nil
}

// MaxMemoryBytes возвращает лимит памяти для ParseMultipartForm, остальное уходит во временные файлы.
func (c *Config) MaxMemoryBytes() int64 {
	return c.MaxMemoryMB << 20
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
