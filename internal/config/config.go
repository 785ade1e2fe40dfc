package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExtractConfig tunes field extraction and reconciliation.
type ExtractConfig struct {
	IdentifierPass string   `yaml:"identifier_pass" mapstructure:"identifier_pass"`
	Nationalities  []string `yaml:"nationalities" mapstructure:"nationalities"`
	MaxOwners      int      `yaml:"max_owners" mapstructure:"max_owners"`
	NotAvailable   string   `yaml:"not_available" mapstructure:"not_available"`
	AliasFile      string   `yaml:"alias_file" mapstructure:"alias_file"`
}

// OCRConfig configures the recognition backends.
type OCRConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	TesseractPath     string  `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	TesseractLang     string  `yaml:"tesseract_lang" mapstructure:"tesseract_lang"`
	PdfToTextPath     string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey        string  `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel      string  `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
	MistralBaseURL    string  `yaml:"mistral_base_url" mapstructure:"mistral_base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RetryConfig configures retry behavior for recognition calls.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoff     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier     float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	// BreakerThreshold consecutive failures open a backend's breaker.
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	// AllowLocalSources lets API clients name server-local paths.
	AllowLocalSources bool `yaml:"allow_local_sources" mapstructure:"allow_local_sources"`
	// AllowedSourceHosts limits remote sources named by API clients.
	AllowedSourceHosts []string `yaml:"allowed_source_hosts" mapstructure:"allowed_source_hosts"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path looks
// for config.yaml in the working directory, which may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("DOCEXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "docextract.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.allow_local_sources", false)
	v.SetDefault("batch.max_concurrent_documents", 4)
	v.SetDefault("extract.identifier_pass", "blur")
	v.SetDefault("extract.nationalities", []string{"Iraq", "United Arab Emirates", "India", "USA", "Canada", "Germany"})
	v.SetDefault("extract.max_owners", 10)
	v.SetDefault("extract.not_available", "Not Available")
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.tesseract_lang", "ara+eng")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_ocr_model", "mistral-ocr-latest")
	v.SetDefault("ocr.mistral_base_url", "https://api.mistral.ai/v1")
	v.SetDefault("ocr.requests_per_second", 2.0)
	v.SetDefault("ocr.timeout_secs", 120)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("retry.breaker_threshold", 5)
	v.SetDefault("retry.breaker_cooldown_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks that the settings a command mode depends on are present
// and within range. Modes: "extract", "scan", "serve", "batch".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "extract":
	case "scan", "batch":
		errs = append(errs, c.validateOCR()...)
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateOCR()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.MaxConcurrentDocuments < 1 || c.Batch.MaxConcurrentDocuments > 64 {
		errs = append(errs, "batch.max_concurrent_documents must be between 1 and 64")
	}
	if c.Extract.MaxOwners < 1 {
		errs = append(errs, "extract.max_owners must be >= 1")
	}
	if c.Extract.IdentifierPass == "" {
		errs = append(errs, "extract.identifier_pass is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateOCR() []string {
	var errs []string
	switch c.OCR.Provider {
	case "tesseract", "local":
	case "mistral":
		if c.OCR.MistralKey == "" {
			errs = append(errs, "ocr.mistral_api_key is required for the mistral provider")
		}
	default:
		errs = append(errs, "ocr.provider must be one of tesseract, local, mistral")
	}
	if c.OCR.RequestsPerSecond < 0 {
		errs = append(errs, "ocr.requests_per_second must be >= 0")
	}
	return errs
}
