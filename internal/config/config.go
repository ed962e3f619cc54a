package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// ErrMissingJWTSecret is returned when JWT_SECRET is unset. The server refuses
// to start rather than sign tokens with a placeholder.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	StoreDriver   string
	MongoURL      string
	MongoDatabase string

	RedisURL         string
	MetadataCacheTTL time.Duration

	ServerPort         string
	APIPrefix          string
	CORSAllowedOrigins []string
	LogLevel           string
	WorkerCount        int

	JWTSecret   string
	TokenMaxAge time.Duration

	OMDbAPIKey  string
	OMDbBaseURL string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

// R2Enabled reports whether avatar storage is fully configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	tokenMaxAge, err := strconv.Atoi(os.Getenv("TOKEN_MAX_AGE"))
	if err != nil || tokenMaxAge <= 0 {
		tokenMaxAge = 7 * 24 * 60 * 60
	}

	cacheTTL, err := strconv.Atoi(os.Getenv("METADATA_CACHE_TTL"))
	if err != nil || cacheTTL <= 0 {
		cacheTTL = 24 * 60 * 60
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	storeDriver := strings.ToLower(os.Getenv("STORE_DRIVER"))
	if storeDriver == "" {
		storeDriver = StoreDriverPostgres
	}
	if storeDriver != StoreDriverPostgres && storeDriver != StoreDriverMongo {
		return nil, errors.New("STORE_DRIVER must be postgres or mongo")
	}

	apiPrefix, ok := os.LookupEnv("API_PREFIX")
	if !ok {
		apiPrefix = "/api"
	}
	apiPrefix = strings.TrimSuffix(apiPrefix, "/")

	origins := []string{"*"}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  envOr("DB_SSLMODE", "require"),

		StoreDriver:   storeDriver,
		MongoURL:      os.Getenv("MONGO_URL"),
		MongoDatabase: envOr("MONGO_DATABASE", "movietrack"),

		RedisURL:         os.Getenv("REDIS_URL"),
		MetadataCacheTTL: time.Duration(cacheTTL) * time.Second,

		ServerPort:         envOr("SERVER_PORT", "8080"),
		APIPrefix:          apiPrefix,
		CORSAllowedOrigins: origins,
		LogLevel:           envOr("LOG_LEVEL", "info"),
		WorkerCount:        workerCount,

		JWTSecret:   jwtSecret,
		TokenMaxAge: time.Duration(tokenMaxAge) * time.Second,

		OMDbAPIKey:  os.Getenv("OMDB_API_KEY"),
		OMDbBaseURL: envOr("OMDB_BASE_URL", "https://www.omdbapi.com/"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
