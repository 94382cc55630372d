package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"OCR_WORKERS", "OCR_TIMEOUT", "OCR_ENGINE", "OCR_ADMISSION", "REDIS_URL", "PORT", "AXIOM_DATASET"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	assert.Equal(t, 0, cfg.OCR.Workers)
	assert.Equal(t, 5*time.Minute, cfg.OCR.Timeout)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, "tesseract", cfg.OCR.Engine)
	assert.Equal(t, "wait", cfg.OCR.Admission)
	assert.Empty(t, cfg.Storage.RedisURL)
	assert.Equal(t, int64(200)<<20, cfg.Storage.MaxDocumentBytes)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev_ocrdispatcher", cfg.Axiom.Dataset)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OCR_WORKERS", "6")
	t.Setenv("OCR_TIMEOUT", "90s")
	t.Setenv("OCR_ENGINE", "Gosseract")
	t.Setenv("OCR_PREPROCESS", "off")
	t.Setenv("OCR_ADMISSION", "reject")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")

	cfg := FromEnv()
	assert.Equal(t, 6, cfg.OCR.Workers)
	assert.Equal(t, 90*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "gosseract", cfg.OCR.Engine)
	assert.False(t, cfg.OCR.Preprocess)
	assert.Equal(t, "reject", cfg.OCR.Admission)
	assert.Equal(t, "redis://cache:6379/2", cfg.Storage.RedisURL)
}

func TestBadValuesFallBack(t *testing.T) {
	t.Setenv("OCR_WORKERS", "-3")
	t.Setenv("OCR_TIMEOUT", "soon")

	cfg := FromEnv()
	assert.Equal(t, 0, cfg.OCR.Workers)
	assert.Equal(t, 5*time.Minute, cfg.OCR.Timeout)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, parseBool(v), v)
	}
	for _, v := range []string{"", "0", "false", "nope"} {
		assert.False(t, parseBool(v), v)
	}
}
