package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Pipeline PipelineConfig
	OCR      OCRConfig
	LLM      LLMConfig
}

// PipelineConfig holds intake-pipeline behavior flags and limits.
// Flags are read once here and passed into the pipeline constructor;
// nothing re-reads the environment mid-request.
type PipelineConfig struct {
	UseOCR bool
	UseZIP bool

	MaxFileBytes  int64 // per uploaded file
	MaxTotalBytes int64 // across all files in a request

	MaxCorpusBytes     int // aggregated corpus cap before truncation
	OCRMinCharsPerPage int // non-whitespace chars per page below which OCR runs

	ExtractWorkers  int
	RequestTimeout  time.Duration
	DefaultCurrency string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int // 0 = no limit
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration

	MaxAttempts uint
	RetryDelay  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			UseOCR:             getEnvAsBool("USE_OCR", true),
			UseZIP:             getEnvAsBool("USE_ZIP", true),
			MaxFileBytes:       int64(getEnvAsInt("MAX_FILE_MB", 16)) << 20,
			MaxTotalBytes:      int64(getEnvAsInt("MAX_TOTAL_MB", 32)) << 20,
			MaxCorpusBytes:     getEnvAsInt("MAX_CORPUS_BYTES", 120_000),
			OCRMinCharsPerPage: getEnvAsInt("OCR_MIN_CHARS_PER_PAGE", 24),
			ExtractWorkers:     getEnvAsInt("EXTRACT_WORKERS", 4),
			RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 3*time.Minute),
			DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "EUR"),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "spa+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 20),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxAttempts: uint(getEnvAsInt("LLM_MAX_ATTEMPTS", 3)),
			RetryDelay:  getEnvAsDuration("LLM_RETRY_DELAY", 500*time.Millisecond),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Pipeline.MaxFileBytes <= 0 || c.Pipeline.MaxTotalBytes < c.Pipeline.MaxFileBytes {
		return NewAppError("CONFIG_ERROR", "size caps must be positive and total >= per-file", ErrInvalidInput)
	}
	if c.Pipeline.ExtractWorkers < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_WORKERS must be >= 1", ErrInvalidInput)
	}
	if c.LLM.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_ATTEMPTS must be >= 1", ErrInvalidInput)
	}
	return nil
}
