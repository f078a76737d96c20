package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Extraction  ExtractionConfig `toml:"extraction"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Profiles    ProfilesConfig   `toml:"profiles"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FilesystemConfig configures local blob storage for uploaded PDFs.
type FilesystemConfig struct {
	Uploads string `toml:"uploads"` // Directory for uploaded PDF files
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// ExtractionConfig configures the PDF extraction service: download guard,
// external tool binaries and their wall-clock timeouts.
type ExtractionConfig struct {
	AllowHTTP       bool          `toml:"allow_http"`        // Permit plain http PDF URLs (default false)
	MaxPDFBytes     int64         `toml:"max_pdf_bytes"`     // Download byte cap, enforced on observed bytes
	FetchTimeout    time.Duration `toml:"fetch_timeout"`     // Remote fetch wall-clock bound
	FetchRate       float64       `toml:"fetch_rate"`        // Per-host fetch rate (requests/sec)
	OCRBinary       string        `toml:"ocr_binary"`        // OCR engine binary (default "tesseract")
	OCRTimeout      time.Duration `toml:"ocr_timeout"`       // OCR invocation wall-clock bound
	TableBinary     string        `toml:"table_binary"`      // Table extraction tool binary (default "tabula")
	TableTimeout    time.Duration `toml:"table_timeout"`     // Table tool wall-clock bound
	DefaultLanguage string        `toml:"default_language"`  // OCR language when no hint supplied
	MaxPages        int           `toml:"max_pages"`         // Default page cap per document
	SampleTokenMin  int           `toml:"sample_token_min"`  // Native-text token threshold on sampled pages
	PageTextLimit   int           `toml:"page_text_limit"`   // Per-page text cap in characters
	TempDir         string        `toml:"temp_dir"`          // Working directory for downloaded PDFs
}

// PipelineConfig configures pipeline fan-out.
type PipelineConfig struct {
	Concurrency   int     `toml:"concurrency"`     // Worker pool size for per-document extraction
	CostPerPage   float64 `toml:"cost_per_page"`   // Flat cost estimate per parsed page
	CostPerOCRTop float64 `toml:"cost_per_ocr"`    // Additional cost estimate per OCR page
}

// ProfilesConfig configures domain profile loading.
type ProfilesConfig struct {
	Dir string `toml:"dir"` // Directory containing domain profile files (TOML), optional
}

// NewDefaultConfig returns the default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/confero.db",
				ResetOnStartup: false,
			},
			Filesystem: FilesystemConfig{
				Uploads: "./data/uploads",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Extraction: ExtractionConfig{
			AllowHTTP:       false,
			MaxPDFBytes:     25 * 1024 * 1024,
			FetchTimeout:    120 * time.Second,
			FetchRate:       2,
			OCRBinary:       "tesseract",
			OCRTimeout:      60 * time.Second,
			TableBinary:     "tabula",
			TableTimeout:    60 * time.Second,
			DefaultLanguage: "eng",
			MaxPages:        20,
			SampleTokenMin:  5,
			PageTextLimit:   2000,
			TempDir:         "",
		},
		Pipeline: PipelineConfig{
			Concurrency:   4,
			CostPerPage:   0.001,
			CostPerOCRTop: 0.004,
		},
		Profiles: ProfilesConfig{
			Dir: "",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONFERO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CONFERO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CONFERO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if badgerPath := os.Getenv("CONFERO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if uploads := os.Getenv("CONFERO_UPLOADS_DIR"); uploads != "" {
		config.Storage.Filesystem.Uploads = uploads
	}
	if level := os.Getenv("CONFERO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if ocr := os.Getenv("CONFERO_OCR_BINARY"); ocr != "" {
		config.Extraction.OCRBinary = ocr
	}
	if table := os.Getenv("CONFERO_TABLE_BINARY"); table != "" {
		config.Extraction.TableBinary = table
	}
	if profiles := os.Getenv("CONFERO_PROFILES_DIR"); profiles != "" {
		config.Profiles.Dir = profiles
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
