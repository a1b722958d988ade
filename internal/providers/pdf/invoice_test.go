package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvoiceProducesPDF(t *testing.T) {
	snap := domain.Snapshot{
		Business: domain.BusinessDetails{Name: "AInvoicer", Address: "10 High Street\nEdinburgh\nEH1 1AA"},
		Customer: domain.CustomerDetails{Name: "John Brown"},
		Meta:     domain.InvoiceMeta{InvoiceNumber: "INV-000123", Currency: domain.CurrencyGBP, Notes: "Thanks"},
		Items:    []ledger.LineItem{{ID: "1", Description: "Call-out + repair", Quantity: 1, UnitPrice: "240"}},
		Totals:   domain.Totals{Subtotal: 240},
	}

	out, err := New().RenderInvoice(context.Background(), snap, Options{Accent: "#111827"})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderInvoiceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().RenderInvoice(ctx, domain.Snapshot{}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseHexColor(t *testing.T) {
	c := parseHexColor("#11AAff")
	require.NotNil(t, c)
	assert.Equal(t, 0x11, c.Red)
	assert.Equal(t, 0xaa, c.Green)
	assert.Equal(t, 0xff, c.Blue)

	assert.Nil(t, parseHexColor("red"))
	assert.Nil(t, parseHexColor("#12345"))
}
