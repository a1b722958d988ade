package invoice

import (
	"github.com/smallbiznis/quickinvoice/internal/invoice/format"
	"github.com/smallbiznis/quickinvoice/internal/invoice/render"
	"github.com/smallbiznis/quickinvoice/internal/invoice/service"
	"github.com/smallbiznis/quickinvoice/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	pdf.Module,
	fx.Provide(render.NewRenderer),
	fx.Provide(format.NewSequence),
	fx.Provide(service.NewService),
)
