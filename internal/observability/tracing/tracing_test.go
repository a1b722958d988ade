package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/wizards/:id"),
		attribute.String("customer.name", "Bob"),
		attribute.String("invoice.format", "pdf"),
	)

	assert.Len(t, attrs, 2)
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("customer.name"), attr.Key)
	}
}

func TestSafeErrorKeepsOnlyCode(t *testing.T) {
	err := fmt.Errorf("render_failed: %w", errors.New("customer Bob at 1 Road"))

	assert.EqualError(t, SafeError(err), "render_failed")
	assert.Nil(t, SafeError(nil))
}
