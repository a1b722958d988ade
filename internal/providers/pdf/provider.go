package pdf

import (
	"context"

	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// Options tune the look of a rendered document.
type Options struct {
	Accent string
}

// Provider renders a snapshot as a PDF document.
type Provider interface {
	RenderInvoice(ctx context.Context, snapshot domain.Snapshot, opts Options) ([]byte, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderInvoice(context.Context, domain.Snapshot, Options) ([]byte, error) {
	return nil, nil
}
