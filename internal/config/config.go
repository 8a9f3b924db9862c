package config

import (
	"os"
	"strconv"

	"pdf-extract-viewer/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort      string
	LogLevel        string
	MaxFileSize     int64
	MaxPageCount    int
	RasterScale     float64
	SupabaseURL     string
	SupabaseKey     string
	StorageBucket   string
	VertexProjectID string
	VertexLocation  string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:      getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize:     getEnvInt64OrDefault("MAX_FILE_SIZE", 250*1024*1024), // 250MB default
		MaxPageCount:    getEnvIntOrDefault("MAX_PAGE_COUNT", 50),
		RasterScale:     getEnvFloatOrDefault("RASTER_SCALE", 2.0),
		SupabaseURL:     getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:     getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		StorageBucket:   getEnvOrDefault("STORAGE_BUCKET", "documents"),
		VertexProjectID: getEnvOrDefault("VERTEX_PROJECT_ID", ""),
		VertexLocation:  getEnvOrDefault("VERTEX_LOCATION", "us-central1"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed file size in bytes
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetMaxPageCount returns the maximum PDF page count accepted for upload
func (c *AppConfig) GetMaxPageCount() int {
	return c.MaxPageCount
}

// GetRasterScale returns the page image rendering scale factor
func (c *AppConfig) GetRasterScale() float64 {
	return c.RasterScale
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetStorageBucket returns the storage bucket for raw files and page images
func (c *AppConfig) GetStorageBucket() string {
	return c.StorageBucket
}

// GetVertexProjectID returns the Google Cloud project for the extraction backend
func (c *AppConfig) GetVertexProjectID() string {
	return c.VertexProjectID
}

// GetVertexLocation returns the Vertex AI location
func (c *AppConfig) GetVertexLocation() string {
	return c.VertexLocation
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
