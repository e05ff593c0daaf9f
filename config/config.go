package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Minio     MinioConfig     `yaml:"minio"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port                int `yaml:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"` // pgsql or sqlite
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Folder    string `yaml:"folder"`
}

type ExtractorConfig struct {
	APIURL            string `yaml:"api_url"`
	APIToken          string `yaml:"api_token"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

type IngestConfig struct {
	MaxImageDimension  int `yaml:"max_image_dimension"`
	JPEGQuality        int `yaml:"jpeg_quality"`
	SuffixLength       int `yaml:"suffix_length"`
	FileTimeoutSeconds int `yaml:"file_timeout_seconds"`
	MaxBatchFiles      int `yaml:"max_batch_files"`
	MaxSessions        int `yaml:"max_sessions"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Name == "" {
		cfg.Database.Name = "fleetdocs.db"
	}
	if cfg.Minio.Folder == "" {
		cfg.Minio.Folder = "documents"
	}
	if cfg.Extractor.RequestsPerMinute == 0 {
		cfg.Extractor.RequestsPerMinute = 30
	}
	if cfg.Extractor.TimeoutSeconds == 0 {
		cfg.Extractor.TimeoutSeconds = 60
	}
	if cfg.Ingest.MaxImageDimension == 0 {
		cfg.Ingest.MaxImageDimension = 1280
	}
	if cfg.Ingest.JPEGQuality == 0 {
		cfg.Ingest.JPEGQuality = 75
	}
	if cfg.Ingest.SuffixLength == 0 {
		cfg.Ingest.SuffixLength = 6
	}
	if cfg.Ingest.FileTimeoutSeconds == 0 {
		cfg.Ingest.FileTimeoutSeconds = 120
	}
	if cfg.Ingest.MaxBatchFiles == 0 {
		cfg.Ingest.MaxBatchFiles = 50
	}
	if cfg.Ingest.MaxSessions == 0 {
		cfg.Ingest.MaxSessions = 100
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 60
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		// Ingestion responds only after the whole batch ran, so the write
		// deadline must outlive the worst-case batch.
		cfg.Server.WriteTimeoutSeconds = cfg.Ingest.MaxBatchFiles*cfg.Ingest.FileTimeoutSeconds + 30
	}
	if cfg.Server.IdleTimeoutSeconds == 0 {
		cfg.Server.IdleTimeoutSeconds = 120
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
