package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
)

// Page margins in millimetres.
const pageMargin = 14

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderInvoice(ctx context.Context, snap domain.Snapshot, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(pageMargin).
		WithTopMargin(pageMargin).
		WithRightMargin(pageMargin).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)
	accent := parseHexColor(opts.Accent)

	m.AddRow(14,
		text.NewCol(8, "Invoice", props.Text{
			Size:  22,
			Style: fontstyle.Bold,
			Color: accent,
		}),
		text.NewCol(4, snap.Business.Initials(), props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Right,
			Color: accent,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice number: "+snap.Meta.InvoiceNumber, props.Text{Top: 0, Size: 9}),
			text.New("Date of issue: "+dateOrDash(snap.Meta.IssueDate), props.Text{Top: 5, Size: 9}),
			text.New("Date due: "+dateOrDash(snap.Meta.DueDate), props.Text{Top: 10, Size: 9}),
			text.New("Currency: "+string(snap.Meta.Currency), props.Text{Top: 15, Size: 9}),
		),
		col.New(6),
	)

	m.AddRow(40,
		col.New(6).Add(partyBlock("From", snap.Business.Name, snap.Business.Address, snap.Business.Email, snap.Business.Phone, taxLine(snap.Business.TaxID))...),
		col.New(6).Add(partyBlock("Bill to", snap.Customer.Name, snap.Customer.Address, snap.Customer.Email, snap.Customer.Phone)...),
	)

	m.AddRow(14,
		text.NewCol(12, snap.Money(snap.Totals.Subtotal)+" due "+dateOrDash(snap.Meta.DueDate), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range snap.Items {
		m.AddRow(10,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, formatQuantity(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, snap.Money(ledger.Price(item.UnitPrice)), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, snap.Money(item.Amount()), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9, Top: 3}),
		text.NewCol(2, snap.Money(snap.Totals.Subtotal), props.Text{Size: 9, Top: 3, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, snap.Money(snap.Totals.Subtotal), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if notes := strings.TrimSpace(snap.Meta.Notes); notes != "" {
		m.AddRow(20,
			text.NewCol(12, notes, props.Text{Size: 8, Top: 6}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func partyBlock(title, name string, lines ...string) []core.Component {
	components := []core.Component{
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.New(name, props.Text{Top: 5, Size: 9}),
	}
	top := 10.0
	for _, line := range lines {
		for _, part := range strings.Split(line, "\n") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			components = append(components, text.New(part, props.Text{Top: top, Size: 8}))
			top += 4
		}
	}
	return components
}

func taxLine(taxID string) string {
	if strings.TrimSpace(taxID) == "" {
		return ""
	}
	return "VAT " + strings.TrimSpace(taxID)
}

func dateOrDash(d domain.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(ledger.Quantity(q), 'f', -1, 64)
}

// parseHexColor converts #rrggbb, returning nil for anything else.
func parseHexColor(hex string) *props.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return nil
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil
	}
	return &props.Color{
		Red:   int(v >> 16 & 0xff),
		Green: int(v >> 8 & 0xff),
		Blue:  int(v & 0xff),
	}
}
