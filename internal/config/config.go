package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int      `envconfig:"PORT" default:"3000"`
	Environment string   `envconfig:"ENV" default:"development"`
	LogFile     string   `envconfig:"LOG_FILE"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Database (optional, enables generation history)
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"dermasim"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	// Synthesis backend
	SynthesisBackend string        `envconfig:"SYNTHESIS_BACKEND" default:"diffusion"`
	DiffusionURL     string        `envconfig:"DIFFUSION_URL" default:"http://localhost:7860"`
	DiffusionTimeout time.Duration `envconfig:"DIFFUSION_TIMEOUT" default:"3m"`
	GeminiAPIKey     string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel      string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-image"`
	DeviceAllocConf  string        `envconfig:"DEVICE_ALLOC_CONF" default:"max_split_size_mb:128"`

	// Landmark detector backend
	DetectorBackend string `envconfig:"DETECTOR_BACKEND" default:"facemesh"`
	FaceMeshURL     string `envconfig:"FACEMESH_URL" default:"http://localhost:5010"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Generation
	SynthesisConcurrency int           `envconfig:"SYNTHESIS_CONCURRENCY" default:"1"`
	SynthesisQueueSize   int           `envconfig:"SYNTHESIS_QUEUE_SIZE" default:"8"`
	GenerationTimeout    time.Duration `envconfig:"GENERATION_TIMEOUT" default:"3m"`
	MaxUploadBytes       int           `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	JPEGQuality          int           `envconfig:"JPEG_QUALITY" default:"75"`

	// Rate limiting on /generate/
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"10"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.SynthesisBackend {
	case "diffusion", "mock":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("invalid config: GEMINI_API_KEY is required when SYNTHESIS_BACKEND=gemini")
		}
	default:
		return fmt.Errorf("invalid config: unknown SYNTHESIS_BACKEND %q (supported: diffusion, gemini, mock)", c.SynthesisBackend)
	}

	switch c.DetectorBackend {
	case "facemesh", "rekognition", "mock":
	default:
		return fmt.Errorf("invalid config: unknown DETECTOR_BACKEND %q (supported: facemesh, rekognition, mock)", c.DetectorBackend)
	}

	if c.SynthesisConcurrency < 1 {
		return fmt.Errorf("invalid config: SYNTHESIS_CONCURRENCY must be at least 1")
	}
	if c.SynthesisQueueSize < 0 {
		return fmt.Errorf("invalid config: SYNTHESIS_QUEUE_SIZE must not be negative")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("invalid config: GENERATION_TIMEOUT must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("invalid config: JPEG_QUALITY must be between 1 and 100")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid config: MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HistoryEnabled reports whether generations are persisted
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}
