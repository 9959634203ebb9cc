package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnhancePrompt is the fixed instruction sent with every product photo.
const DefaultEnhancePrompt = "Take the provided product image as reference and enhance it for e-commerce. " +
	"Remove the background completely (make it transparent), center the product, " +
	"and show it from the front in a clean, clear, and attractive way. " +
	"Improve lighting, sharpness, and colors so the product looks professional " +
	"and appealing for online sales. Ensure the product remains realistic and " +
	"true to its original appearance."

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Logging       LoggingConfig
	GoUPC         GoUPCConfig         `mapstructure:"goupc"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	Gemini        GeminiConfig
	Images        ImagesConfig
	Background    BackgroundConfig
	Retry         RetryConfig
	Batch         BatchConfig
	Cache         CacheConfig
	Archive       ArchiveConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig selects the slog level and handler format
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GoUPCConfig holds the barcode lookup provider configuration
type GoUPCConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// OpenFoodFactsConfig holds the open-data lookup configuration
type OpenFoodFactsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// GeminiConfig holds the generative model configuration
type GeminiConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	ImageModel    string        `mapstructure:"image_model"`
	TextModel     string        `mapstructure:"text_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	EnhancePrompt string        `mapstructure:"enhance_prompt"`
}

// ImagesConfig holds the image source prober configuration
type ImagesConfig struct {
	ProductHosts []string      `mapstructure:"product_hosts"`
	EANLookupURL string        `mapstructure:"ean_lookup_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinBytes     int           `mapstructure:"min_bytes"`
	MinDimension int           `mapstructure:"min_dimension"`
}

// BackgroundConfig holds the background removal configuration
type BackgroundConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Command    string        `mapstructure:"command"`
	CanvasSize int           `mapstructure:"canvas_size"`
	Padding    float64       `mapstructure:"padding"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RetryConfig holds the bounded retry policy for lookups
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
}

// BatchConfig holds batch processing limits
type BatchConfig struct {
	MaxItems           int     `mapstructure:"max_items"`
	Enrichment         bool    `mapstructure:"enrichment"`
	EnrichmentMinMatch float64 `mapstructure:"enrichment_min_match"`
	InlineArchive      bool    `mapstructure:"inline_archive"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ArchiveConfig holds the temporary archive store configuration
type ArchiveConfig struct {
	Dir string        `mapstructure:"dir"`
	TTL time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/eanproc/")

	v.SetEnvPrefix("EANPROC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Credentials default to empty so AutomaticEnv can still bind them
	v.SetDefault("goupc.api_key", "")
	v.SetDefault("goupc.base_url", "https://go-upc.com/api/v1")
	v.SetDefault("goupc.timeout", "30s")
	v.SetDefault("goupc.requests_per_minute", 60)

	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.user_agent", "HiperaliaEANProcessing/1.0 (support@hiperalia.com)")
	v.SetDefault("openfoodfacts.timeout", "15s")
	v.SetDefault("openfoodfacts.requests_per_minute", 100)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.image_model", "gemini-2.5-flash-image-preview")
	v.SetDefault("gemini.text_model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", "60s")
	v.SetDefault("gemini.enhance_prompt", DefaultEnhancePrompt)

	v.SetDefault("images.product_hosts", []string{
		"https://images.openfoodfacts.org/images/products",
		"https://static.openfoodfacts.org/images/products",
	})
	v.SetDefault("images.ean_lookup_url", "https://go-upc.s3.amazonaws.com/images/%s.jpeg")
	v.SetDefault("images.timeout", "10s")
	v.SetDefault("images.min_bytes", 1000)
	v.SetDefault("images.min_dimension", 200)

	v.SetDefault("background.enabled", true)
	v.SetDefault("background.command", "rembg")
	v.SetDefault("background.canvas_size", 1000)
	v.SetDefault("background.padding", 0.08)
	v.SetDefault("background.timeout", "60s")

	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.delay", "60s")

	v.SetDefault("batch.max_items", 50)
	v.SetDefault("batch.enrichment", true)
	v.SetDefault("batch.enrichment_min_match", 30)
	v.SetDefault("batch.inline_archive", false)

	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("archive.dir", os.TempDir())
	v.SetDefault("archive.ttl", "1h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Retry.MaxAttempts < 1 || config.Retry.MaxAttempts > 5 {
		return fmt.Errorf("retry max_attempts must be between 1 and 5, got: %d", config.Retry.MaxAttempts)
	}

	if config.Retry.Delay < 0 {
		return fmt.Errorf("retry delay must not be negative, got: %s", config.Retry.Delay)
	}

	if config.Batch.MaxItems <= 0 {
		return fmt.Errorf("batch max_items must be positive, got: %d", config.Batch.MaxItems)
	}

	if config.Batch.EnrichmentMinMatch < 0 || config.Batch.EnrichmentMinMatch > 100 {
		return fmt.Errorf("batch enrichment_min_match must be in [0, 100], got: %v", config.Batch.EnrichmentMinMatch)
	}

	format := strings.ToLower(config.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("logging format must be 'text' or 'json', got: %s", config.Logging.Format)
	}

	if config.Background.Padding < 0 || config.Background.Padding >= 0.5 {
		return fmt.Errorf("background padding must be in [0, 0.5), got: %v", config.Background.Padding)
	}

	if config.Images.MinDimension < 1 {
		return fmt.Errorf("images min_dimension must be positive, got: %d", config.Images.MinDimension)
	}

	if url := config.Images.EANLookupURL; url != "" {
		if strings.Count(url, "%s") != 1 || strings.Count(url, "%") != 1 {
			return fmt.Errorf("images ean_lookup_url must contain exactly one %%s placeholder and no other %%, got: %s", url)
		}
	}

	return nil
}

// HasGoUPC reports whether the barcode lookup provider can be called
func (c *Config) HasGoUPC() bool {
	return c.GoUPC.APIKey != ""
}

// HasGemini reports whether the generative stages can be called
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}
