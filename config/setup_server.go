package config

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"io/fs"
	"net/http"
	"os"
	"time"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	S3Config       S3Config       `yaml:"s3Config"`
	JWT            JWTConfig      `yaml:"jwt"`
	Signing        SigningConfig  `yaml:"signing"`
	TTL            TTL            `yaml:"TTL"`
	Log            LogConfig      `yaml:"log"`
}

// LoadConfig : reads the yaml file, then applies .env and SIPRIMA_* environment overrides
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	applyEnv(cfg)

	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		ServerAddr: ":8080",
		JWT: JWTConfig{
			AccessTokenTTL: "15m",
			Issuer:         "kpp-siprima",
		},
		Signing: SigningConfig{
			LockTTL:        30,
			MaxUploadBytes: 20 << 20,
			MaxImageBytes:  1 << 20,
			StampOpacity:   1.0,
		},
		TTL: TTL{
			StatusCache: 300,
			Presign:     900,
		},
		Log: LogConfig{Environment: "development"},
	}
}

func applyEnv(cfg *AppConfig) {
	overrides := map[string]*string{
		"SIPRIMA_DB_DSN":      &cfg.DatabaseConfig.DSN,
		"SIPRIMA_REDIS_ADDR":  &cfg.RedisConfig.Addr,
		"SIPRIMA_JWT_SECRET":  &cfg.JWT.SecretKey,
		"SIPRIMA_S3_BUCKET":   &cfg.S3Config.Bucket,
		"SIPRIMA_SERVER_ADDR": &cfg.ServerAddr,
		"SIPRIMA_ENV":         &cfg.Log.Environment,
	}
	for key, target := range overrides {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*target = value
		}
	}
}

// LockDuration : sign lock lifetime as a duration
func (c *SigningConfig) LockDuration() time.Duration {
	return time.Duration(c.LockTTL) * time.Second
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
