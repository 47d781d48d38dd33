package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	OAuth  OAuthConfig
	Server ServerConfig
	Retry  RetryConfig
	Socket SocketConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// LockTimeout bounds how long a transaction waits on a row lock before
	// the store surfaces a retryable error instead of hanging.
	LockTimeout time.Duration
}

type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type OAuthConfig struct {
	Kakao OAuthProviderConfig
}

type OAuthProviderConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       string
}

type ServerConfig struct {
	Port string
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type SocketConfig struct {
	// SendBufferSize is the per-session outbound event queue. A session whose
	// queue is full is detached rather than blocking the broadcaster.
	SendBufferSize int
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "gatherup"),
			Password:    getEnv("DB_PASSWORD", "gatherup_secret"),
			Name:        getEnv("DB_NAME", "gatherup"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			LockTimeout: getEnvAsDuration("DB_LOCK_TIMEOUT", 5*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", "gatherup"),
			SecretKey:      getEnv("MINIO_SECRET_KEY", "gatherup_secret"),
			Bucket:         getEnv("MINIO_BUCKET", "gatherup"),
			UseSSL:         getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		OAuth: OAuthConfig{
			Kakao: OAuthProviderConfig{
				Enabled:      getEnvAsBool("KAKAO_OAUTH_ENABLED", false),
				ClientID:     getEnv("KAKAO_CLIENT_ID", ""),
				ClientSecret: getEnv("KAKAO_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("KAKAO_REDIRECT_URL", ""),
				Scopes:       getEnv("KAKAO_SCOPES", "profile_nickname,profile_image,account_email"),
			},
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
		},
		Retry: RetryConfig{
			MaxRetries: getEnvAsInt("TX_MAX_RETRIES", 3),
			BaseDelay:  getEnvAsDuration("TX_RETRY_BASE_DELAY", 50*time.Millisecond),
			MaxDelay:   getEnvAsDuration("TX_RETRY_MAX_DELAY", 500*time.Millisecond),
		},
		Socket: SocketConfig{
			SendBufferSize: getEnvAsInt("SOCKET_SEND_BUFFER", 32),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
