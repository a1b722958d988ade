package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_SERVICE", "invoicer")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("RATE_LIMIT_ENABLED", "yes")
	t.Setenv("RATE_LIMIT_GENERATE_RATE", "2.5")
	t.Setenv("RATE_LIMIT_GENERATE_BURST", "not-a-number")
	t.Setenv("RATE_LIMIT_REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, "invoicer", cfg.AppName)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 15, cfg.SessionTTLMinutes)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.GenerateRate)
	assert.Equal(t, 5, cfg.RateLimit.GenerateBurst, "unparseable values fall back to the default")
	assert.Empty(t, cfg.RateLimit.RedisAddr)
}

func TestInvoiceDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	holder, err := NewInvoiceDefaultsHolder(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, DefaultInvoiceDefaults(), holder.Get())
}

func TestInvoiceDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := []byte("invoice:\n  numberTemplate: \"INV-{YYYY}-{SEQ4}\"\n  currency: EUR\n  dueInDays: 14\n  notes: Thanks\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.yml"), content, 0o644))

	holder, err := NewInvoiceDefaultsHolder(zap.NewNop())
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, "INV-{YYYY}-{SEQ4}", got.NumberTemplate)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, 14, got.DueInDays)
	assert.Equal(t, "Thanks", got.Notes)
	assert.Equal(t, "#111827", got.AccentColor)
}

func TestInvoiceDefaultsRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := []byte("invoice:\n  dueInDays: -3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.yml"), content, 0o644))

	_, err := NewInvoiceDefaultsHolder(zap.NewNop())
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
