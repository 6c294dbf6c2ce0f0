package config

import "github.com/aws/aws-sdk-go-v2/service/s3"

type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Client   *s3.Client
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
}

type JWTConfig struct {
	SecretKey      string `yaml:"secret_key"`
	AccessTokenTTL string `yaml:"access_token_ttl"`
	Issuer         string `yaml:"issuer"`
}

// SigningConfig : limits and knobs of the signing workflow
type SigningConfig struct {
	LockTTL        int     `yaml:"lock_ttl"` // seconds
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
	MaxImageBytes  int     `yaml:"max_image_bytes"`
	StampOpacity   float64 `yaml:"stamp_opacity"`
}

// TTL : lifetimes in seconds
type TTL struct {
	StatusCache int `yaml:"status_cache"`
	Presign     int `yaml:"presign"`
}

type LogConfig struct {
	Environment string `yaml:"environment"`
}
