package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the wardrobe service
type Config struct {
	Env  string
	Port string

	MongoURI string
	DBName   string

	JWTSecret string
	TokenTTL  time.Duration

	AWSRegion     string
	AWSBucketName string
	S3Endpoint    string
	AWSAccessKey  string
	AWSSecretKey  string
	LocalImageDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	GeminiAPIKey string
	GeminiModel  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	CatalogAPIURL       string
	CatalogAPIKey       string
	CatalogAPIHost      string
	MyntraEnabled       bool
	FlipkartEnabled     bool
	MarketplaceHeadless bool
	MarketplaceTimeout  time.Duration

	RulesFile                string
	FreeRecommendationsLimit int
	MaxUploadBytes           int64
}

// MemoryStoreURI selects the in-memory repositories instead of MongoDB
const MemoryStoreURI = "memory://"

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// LoadConfig loads environment variables from .env file (if any) and the process environment
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment
func FromEnv() *Config {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/"),
		DBName:   getEnv("DB_NAME", "fitly"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  time.Duration(getInt("TOKEN_TTL_HOURS", 24)) * time.Hour,

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		AWSBucketName: os.Getenv("AWS_BUCKET_NAME"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		AWSAccessKey:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		LocalImageDir: getEnv("LOCAL_IMAGE_DIR", "wardrobe_images"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@fitly.app"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Fitly Wardrobe"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),

		CatalogAPIURL:       os.Getenv("CATALOG_API_URL"),
		CatalogAPIKey:       os.Getenv("CATALOG_API_KEY"),
		CatalogAPIHost:      os.Getenv("CATALOG_API_HOST"),
		MyntraEnabled:       getBool("MYNTRA_ENABLED", false),
		FlipkartEnabled:     getBool("FLIPKART_ENABLED", false),
		MarketplaceHeadless: getBool("MARKETPLACE_HEADLESS", false),
		MarketplaceTimeout:  time.Duration(getInt("MARKETPLACE_TIMEOUT_SECONDS", 8)) * time.Second,

		RulesFile:                os.Getenv("RULES_FILE"),
		FreeRecommendationsLimit: getInt("FREE_RECOMMENDATIONS_LIMIT", 3),
		MaxUploadBytes:           int64(getInt("MAX_UPLOAD_MB", 5)) << 20,
	}

	// Development keeps working without a secret; production must set one
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		log.Println("JWT_SECRET is not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
