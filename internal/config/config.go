package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Host               string
	Port               string        `validate:"required"`
	RequestTimeout     time.Duration `validate:"gt=0"`
	ImageFetchTimeout  time.Duration `validate:"gt=0"`
	AnalysisTimeout    time.Duration `validate:"gt=0"`
	MaxRequestBodySize int64         `validate:"gt=0"`
	LogLevel           string        `validate:"omitempty,oneof=debug info warn warning error"`

	// GeminiAPIKey must be present before the provider client is built
	GeminiAPIKey string `validate:"required"`

	AzureStorageAccount string `validate:"required_with=AzureStorageKey"`
	AzureStorageKey     string `validate:"required_with=AzureStorageAccount"`
	AllowedImageHosts   []string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob URLs can be fetched with shared key credentials
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	return Load(viper.New())
}

// Load reads configuration from v. Environment variables take precedence over
// an optional config.yaml in the working directory.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "180s")
	v.SetDefault("IMAGE_FETCH_TIMEOUT", "15s")
	v.SetDefault("ANALYSIS_TIMEOUT", "150s")
	v.SetDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024) // 20MB, CT slices arrive base64 encoded
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	apiKey := v.GetString("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = v.GetString("API_KEY")
	}

	cfg := &Config{
		Host:                v.GetString("HOST"),
		Port:                v.GetString("PORT"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		ImageFetchTimeout:   v.GetDuration("IMAGE_FETCH_TIMEOUT"),
		AnalysisTimeout:     v.GetDuration("ANALYSIS_TIMEOUT"),
		MaxRequestBodySize:  v.GetInt64("MAX_REQUEST_BODY_SIZE"),
		LogLevel:            strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		GeminiAPIKey:        strings.TrimSpace(apiKey),
		AzureStorageAccount: strings.TrimSpace(v.GetString("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:     strings.TrimSpace(v.GetString("AZURE_STORAGE_KEY")),
		AllowedImageHosts:   splitList(v.GetString("ALLOWED_IMAGE_HOSTS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the port range
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return describeFieldError(fieldErrs[0])
		}
		return err
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.AnalysisTimeout > c.RequestTimeout {
		return fmt.Errorf("ANALYSIS_TIMEOUT (%s) must not exceed REQUEST_TIMEOUT (%s)",
			c.AnalysisTimeout, c.RequestTimeout)
	}
	return nil
}

var envNames = map[string]string{
	"Port":                "PORT",
	"RequestTimeout":      "REQUEST_TIMEOUT",
	"ImageFetchTimeout":   "IMAGE_FETCH_TIMEOUT",
	"AnalysisTimeout":     "ANALYSIS_TIMEOUT",
	"MaxRequestBodySize":  "MAX_REQUEST_BODY_SIZE",
	"LogLevel":            "LOG_LEVEL",
	"GeminiAPIKey":        "GEMINI_API_KEY",
	"AzureStorageAccount": "AZURE_STORAGE_ACCOUNT",
	"AzureStorageKey":     "AZURE_STORAGE_KEY",
}

func describeFieldError(fe validator.FieldError) error {
	name := envNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("missing required env %s", name)
	case "required_with":
		return fmt.Errorf("%s must be set together with %s", name, envNames[fe.Param()])
	case "gt":
		return fmt.Errorf("%s must be > 0 (got %v)", name, fe.Value())
	case "oneof":
		return fmt.Errorf("invalid %s: %v", name, fe.Value())
	default:
		return fmt.Errorf("invalid %s", name)
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
