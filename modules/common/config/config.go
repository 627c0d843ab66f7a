package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the process.
type Config struct {
	// Project
	ProjectName string
	Version     string

	// Google Cloud
	GoogleCloudProject string
	GoogleCloudLocation string
	CredentialsFile    string
	GoogleCloudAPIKey  string

	// Pub/Sub
	PubSubTopicName        string
	PubSubSubscriptionName string

	// Storage
	GCSBucketName string

	// Supabase
	SupabaseURL string
	SupabaseKey string

	// Models
	ImageModelID string
	VideoModelID string

	// Server
	Port        string
	Environment string

	// Maintenance
	OrphanSweepMinutes int
}

// Load reads the environment (and .env when present) into a Config.
// There is no cached global: main loads once and injects the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	sweepMinutes := 0
	if raw := os.Getenv("ORPHAN_SWEEP_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			sweepMinutes = parsed
		}
	}

	cfg := &Config{
		// Project
		ProjectName: getEnv("PROJECT_NAME", "NIA Content Studio"),
		Version:     getEnv("VERSION", "1.0.0"),

		// Google Cloud
		GoogleCloudProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		CredentialsFile:     getEnv("GOOGLE_APPLICATION_CREDENTIALS", "service_account.json"),
		GoogleCloudAPIKey:   getEnv("GOOGLE_CLOUD_API_KEY", ""),

		// Pub/Sub
		PubSubTopicName:        getEnv("PUBSUB_TOPIC_NAME", "ImageGenerationRequests"),
		PubSubSubscriptionName: getEnv("PUBSUB_SUBSCRIPTION_NAME", ""),

		// Storage
		GCSBucketName: getEnv("GCS_BUCKET_NAME", ""),

		// Supabase
		SupabaseURL: getEnv("SUPABASE_URL", ""),
		SupabaseKey: getEnv("SUPABASE_KEY", ""),

		// Models
		ImageModelID: getEnv("IMAGE_MODEL_ID", "gemini-3-pro-image-preview"),
		VideoModelID: getEnv("VIDEO_MODEL_ID", "gemini-2.5-flash-image"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Maintenance
		OrphanSweepMinutes: sweepMinutes,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks required environment variables.
func (c *Config) validate() error {
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.GCSBucketName == "" {
		return fmt.Errorf("GCS_BUCKET_NAME is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_KEY is required")
	}
	return nil
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
