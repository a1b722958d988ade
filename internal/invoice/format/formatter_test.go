package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		template string
		seq      int64
		want     string
	}{
		{DefaultInvoiceNumberTemplate, 1, "AIX-000001"},
		{"INV-{YYYY}{MM}{DD}-{SEQ4}", 42, "INV-20261005-0042"},
		{"{YY}/{SEQ}", 7, "26/7"},
		{"X-{SEQ2}", 1234, "X-1234"},
	}
	for _, tt := range tests {
		got, err := FormatInvoiceNumber(tt.template, issued, tt.seq)
		require.NoError(t, err, tt.template)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	now := time.Now()

	_, err := FormatInvoiceNumber("", now, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("INV-{SEQ}", now, 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("INV-{UNKNOWN}", now, 1)
	assert.Error(t, err)
}

func TestSequenceNext(t *testing.T) {
	s := NewSequence()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "AIX-000001", s.Next(DefaultInvoiceNumberTemplate, now))
	assert.Equal(t, "AIX-000002", s.Next(DefaultInvoiceNumberTemplate, now))
	assert.Equal(t, "AIX-000003", s.Next("{BROKEN", now), "invalid template falls back to the default")
}
