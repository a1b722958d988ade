package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smallbiznis/quickinvoice/internal/clock"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/smallbiznis/quickinvoice/internal/invoice/render"
	"github.com/smallbiznis/quickinvoice/internal/invoice/service"
	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/providers/pdf"
	"github.com/smallbiznis/quickinvoice/internal/wizard"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func sample(c *cli.Context) error {
	formats, err := sampleFormats(c.String("format"))
	if err != nil {
		return err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	clk := clock.SystemClock{}
	ctl := sampleWizard(sampleGenerator(log, clk), clk.Now())
	dir := c.String("out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, f := range formats {
		doc, err := ctl.Generate(c.Context, f)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, doc.Filename)
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "Wrote:", path)
	}
	return nil
}

func sampleGenerator(log *zap.Logger, clk clock.Clock) domain.Generator {
	return service.NewService(service.ServiceParam{
		Log:      log,
		Renderer: render.NewRenderer(),
		PDF:      pdf.New(),
		Defaults: config.NewStaticInvoiceDefaults(config.DefaultInvoiceDefaults()),
		Clock:    clk,
	})
}

func sampleFormats(raw string) ([]domain.Format, error) {
	if raw == "both" {
		return []domain.Format{domain.FormatPDF, domain.FormatHTML}, nil
	}
	f, err := domain.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return []domain.Format{f}, nil
}

// sampleWizard fills a wizard with a one-line call-out invoice and parks it
// on the Generate step.
func sampleWizard(gen domain.Generator, now time.Time) *wizard.Controller {
	today := domain.DateOf(now)
	ctl := wizard.NewController(domain.InvoiceMeta{
		InvoiceNumber: "INV-000123",
		IssueDate:     today,
		DueDate:       today,
		Notes:         "Thanks for your business.",
		Currency:      domain.CurrencyGBP,
	}, gen, ledger.NewULID)

	ctl.UpdateBusiness(domain.BusinessPatch{
		Name:    ptr("AInvoicer"),
		Email:   ptr("hello@ainvoicer.com"),
		Phone:   ptr("07123 456 789"),
		Address: ptr("10 High Street\nEdinburgh\nEH1 1AA"),
	})
	ctl.UpdateCustomer(domain.CustomerPatch{
		Name:    ptr("John Brown"),
		Email:   ptr("john@example.com"),
		Address: ptr("22 Market Road\nGlasgow\nG1 2AB"),
	})

	qty := 1.0
	ctl.UpdateItem(ctl.Items()[0].ID, ledger.Patch{
		Description: ptr("Call-out + repair"),
		Quantity:    &qty,
		UnitPrice:   ptr("240.00"),
	})

	for ctl.Advance() {
	}
	return ctl
}

func ptr(v string) *string { return &v }

