package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	ElasticsearchURL      string
	ElasticsearchUser     string
	ElasticsearchPassword string
	IndexName             string

	ParserURL    string
	ParserAPIKey string

	AIAPIKey string
	GenModel string

	JWTSecret string
	Port      string

	MaxFileSizeMB int
	MaxPDFPages   int
	IngestWorkers int
	PDFTmpDir     string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		AwsAccessKey:          getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:          getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:             getEnv("AWS_REGION", "us-east-2"),
		BucketName:            getEnv("BUCKET_NAME", "manualsearch-docs"),
		ElasticsearchURL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		ElasticsearchUser:     getEnv("ELASTICSEARCH_USER", "elastic"),
		ElasticsearchPassword: getEnv("ELASTICSEARCH_PASSWORD", ""),
		IndexName:             getEnv("INDEX_NAME", "documents"),
		ParserURL:             getEnv("PARSER_URL", ""),
		ParserAPIKey:          getEnv("PARSER_API_KEY", ""),
		AIAPIKey:              getEnv("GEMINI_API_KEY", ""),
		GenModel:              getEnv("GEN_MODEL", "gemini-1.5-flash"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		Port:                  getEnv("PORT", "8080"),
		MaxFileSizeMB:         getEnvInt("MAX_FILE_SIZE_MB", 100),
		MaxPDFPages:           getEnvInt("MAX_PDF_PAGES", 50),
		IngestWorkers:         getEnvInt("INGEST_WORKERS", 2),
		PDFTmpDir:             getEnv("PDF_TMP_DIR", os.TempDir()),
	}

	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}

// validate rejects configurations the service cannot run with. An empty JWT
// secret would silently sign every token with an empty key.
func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
