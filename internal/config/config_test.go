package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Expected defaults to load, got: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected default address 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.RequestTimeout != 180*time.Second {
		t.Errorf("Expected request timeout 180s, got %s", cfg.RequestTimeout)
	}
	if cfg.AnalysisTimeout != 150*time.Second {
		t.Errorf("Expected analysis timeout 150s, got %s", cfg.AnalysisTimeout)
	}
	if cfg.MaxRequestBodySize != 20*1024*1024 {
		t.Errorf("Expected 20MB body limit, got %d", cfg.MaxRequestBodySize)
	}
	if cfg.AzureEnabled() {
		t.Error("Expected Azure to be disabled without credentials")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	_, err := Load(viper.New())
	if err == nil {
		t.Fatal("Expected missing API key to fail")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected error to name GEMINI_API_KEY, got: %v", err)
	}
}

func TestLoad_APIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "  legacy-key ")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Expected API_KEY fallback to load, got: %v", err)
	}
	if cfg.GeminiAPIKey != "legacy-key" {
		t.Errorf("Expected trimmed legacy key, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		errorContains string
	}{
		{"port not numeric", map[string]string{"PORT": "http"}, "invalid PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "invalid PORT"},
		{"zero body size", map[string]string{"MAX_REQUEST_BODY_SIZE": "0"}, "MAX_REQUEST_BODY_SIZE"},
		{"bad duration", map[string]string{"ANALYSIS_TIMEOUT": "soon"}, "ANALYSIS_TIMEOUT"},
		{"analysis exceeds request", map[string]string{"ANALYSIS_TIMEOUT": "5m", "REQUEST_TIMEOUT": "1m"}, "must not exceed"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "trace"}, "LOG_LEVEL"},
		{"azure key without account", map[string]string{"AZURE_STORAGE_KEY": "secret"}, "AZURE_STORAGE_ACCOUNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "test-key")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(viper.New())
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error to contain %q, got: %v", tt.errorContains, err)
			}
		})
	}
}

func TestLoad_AzureAndHosts(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "scans")
	t.Setenv("AZURE_STORAGE_KEY", "c2VjcmV0")
	t.Setenv("ALLOWED_IMAGE_HOSTS", "pacs.example.org, scans.blob.core.windows.net ,")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Expected config to load, got: %v", err)
	}
	if !cfg.AzureEnabled() {
		t.Error("Expected Azure to be enabled")
	}
	if len(cfg.AllowedImageHosts) != 2 || cfg.AllowedImageHosts[1] != "scans.blob.core.windows.net" {
		t.Errorf("Unexpected allowed hosts %v", cfg.AllowedImageHosts)
	}
}
