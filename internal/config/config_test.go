package config

import (
	"testing"
	"time"
)

// clearEnv blanks every config key so ambient environment cannot leak into
// assertions. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "CORS_ORIGINS", "MAX_FILE_SIZE_BYTES", "MAX_PAGES",
		"CONFIDENCE_THRESHOLD", "MIN_PARSE_SUCCESS_FRACTION", "TIMEOUT_MS",
		"MAX_CONCURRENT_CONVERSIONS", "QUEUE_TIMEOUT_MS", "PAGE_WORKERS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %q, want info", cfg.LogLevel)
	}
	if cfg.CORSOrigins != "*" {
		t.Errorf("CORSOrigins: got %q, want *", cfg.CORSOrigins)
	}
	if cfg.MaxFileSizeBytes != DefaultMaxFileSizeBytes {
		t.Errorf("MaxFileSizeBytes: got %d, want %d", cfg.MaxFileSizeBytes, int64(DefaultMaxFileSizeBytes))
	}
	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages: got %d, want %d", cfg.MaxPages, DefaultMaxPages)
	}
	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("ConfidenceThreshold: got %d, want %d", cfg.ConfidenceThreshold, DefaultConfidenceThreshold)
	}
	if cfg.MinParseSuccessFraction != DefaultMinParseSuccessFraction {
		t.Errorf("MinParseSuccessFraction: got %v, want %v", cfg.MinParseSuccessFraction, DefaultMinParseSuccessFraction)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout: got %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent: got %d, want %d", cfg.MaxConcurrent, DefaultMaxConcurrent)
	}
	if cfg.QueueTimeout != DefaultQueueTimeout {
		t.Errorf("QueueTimeout: got %v, want %v", cfg.QueueTimeout, DefaultQueueTimeout)
	}
	if cfg.PageWorkers != DefaultPageWorkers {
		t.Errorf("PageWorkers: got %d, want %d", cfg.PageWorkers, DefaultPageWorkers)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_FILE_SIZE_BYTES", "1048576")
	t.Setenv("MAX_PAGES", "25")
	t.Setenv("MIN_PARSE_SUCCESS_FRACTION", "0.5")
	t.Setenv("TIMEOUT_MS", "1500")
	t.Setenv("QUEUE_TIMEOUT_MS", "250")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port: got %q, want 9090", cfg.Port)
	}
	if cfg.MaxFileSizeBytes != 1048576 {
		t.Errorf("MaxFileSizeBytes: got %d, want 1048576", cfg.MaxFileSizeBytes)
	}
	if cfg.MaxPages != 25 {
		t.Errorf("MaxPages: got %d, want 25", cfg.MaxPages)
	}
	if cfg.MinParseSuccessFraction != 0.5 {
		t.Errorf("MinParseSuccessFraction: got %v, want 0.5", cfg.MinParseSuccessFraction)
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout: got %v, want 1.5s", cfg.Timeout)
	}
	if cfg.QueueTimeout != 250*time.Millisecond {
		t.Errorf("QueueTimeout: got %v, want 250ms", cfg.QueueTimeout)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_PAGES", "-3")
	t.Setenv("MAX_FILE_SIZE_BYTES", "0")
	t.Setenv("MIN_PARSE_SUCCESS_FRACTION", "1.5")
	t.Setenv("TIMEOUT_MS", "soon")

	cfg := Load()

	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages: got %d, want default %d", cfg.MaxPages, DefaultMaxPages)
	}
	if cfg.MaxFileSizeBytes != DefaultMaxFileSizeBytes {
		t.Errorf("MaxFileSizeBytes: got %d, want default", cfg.MaxFileSizeBytes)
	}
	if cfg.MinParseSuccessFraction != DefaultMinParseSuccessFraction {
		t.Errorf("MinParseSuccessFraction: got %v, want default", cfg.MinParseSuccessFraction)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout: got %v, want default", cfg.Timeout)
	}
}
