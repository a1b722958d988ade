package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Meta.InvoiceNumber}}</title>
  <style>
    @page { size: A4; margin: 14mm; }
    :root {
      --accent: {{.Accent}};
      --font: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
    * { box-sizing: border-box; }
    body { margin: 0; font-family: var(--font); color: #1a1f36; -webkit-print-color-adjust: exact; }
    .header { display: flex; justify-content: space-between; align-items: flex-start; margin-bottom: 32px; }
    .badge {
      width: 48px; height: 48px; border-radius: 12px; background: var(--accent); color: #fff;
      display: flex; align-items: center; justify-content: center; font-weight: 700; font-size: 18px;
    }
    h1 { margin: 0; font-size: 28px; color: var(--accent); }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; margin-bottom: 4px; font-weight: 600; letter-spacing: 0.3px; }
    .value { font-size: 14px; line-height: 1.5; white-space: pre-line; }
    .grid { display: flex; gap: 32px; margin-bottom: 32px; }
    .col { flex: 1; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    th { text-align: left; text-transform: uppercase; font-size: 11px; color: #8792a2; border-bottom: 1px solid #e3e8ee; padding: 8px 0; }
    td { padding: 12px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; vertical-align: top; }
    .num { text-align: right; }
    .totals { display: flex; flex-direction: column; align-items: flex-end; }
    .total-row { display: flex; justify-content: space-between; width: 260px; padding: 6px 0; font-size: 14px; }
    .total-final { border-top: 1px solid #e3e8ee; margin-top: 8px; padding-top: 8px; font-weight: 700; font-size: 16px; }
    .notes { margin-top: 40px; font-size: 12px; color: #697386; border-top: 1px solid #e3e8ee; padding-top: 16px; white-space: pre-line; }
  </style>
</head>
<body>
  <div class="header">
    <div>
      <h1>Invoice</h1>
      <div class="label" style="margin-top: 12px;">Invoice number</div>
      <div class="value">{{.Meta.InvoiceNumber}}</div>
    </div>
    {{if .Initials}}<div class="badge">{{.Initials}}</div>{{end}}
  </div>

  <div class="grid">
    <div class="col">
      <div class="label">From</div>
      <div class="value"><strong>{{.Business.Name}}</strong>
{{- if .Business.Address}}
{{.Business.Address}}{{end}}
{{- if .Business.Email}}
{{.Business.Email}}{{end}}
{{- if .Business.Phone}}
{{.Business.Phone}}{{end}}
{{- if .Business.TaxID}}
VAT {{.Business.TaxID}}{{end}}</div>
    </div>
    <div class="col">
      <div class="label">Bill to</div>
      <div class="value"><strong>{{.Customer.Name}}</strong>
{{- if .Customer.Address}}
{{.Customer.Address}}{{end}}
{{- if .Customer.Email}}
{{.Customer.Email}}{{end}}
{{- if .Customer.Phone}}
{{.Customer.Phone}}{{end}}</div>
    </div>
    <div class="col" style="flex: 0 0 160px;">
      <div class="label">Date issued</div>
      <div class="value">{{formatDate .Meta.IssueDate}}</div>
      <div class="label" style="margin-top: 12px;">Date due</div>
      <div class="value">{{formatDate .Meta.DueDate}}</div>
      <div class="label" style="margin-top: 12px;">Currency</div>
      <div class="value">{{.Meta.Currency}}</div>
    </div>
  </div>

  <table>
    <thead>
      <tr>
        <th style="width: 55%;">Description</th>
        <th class="num">Qty</th>
        <th class="num">Rate</th>
        <th class="num">Amount</th>
      </tr>
    </thead>
    <tbody>
      {{range .Items}}
      <tr>
        <td>{{.Description}}</td>
        <td class="num">{{formatQuantity .Quantity}}</td>
        <td class="num">{{money $.Snapshot .UnitPrice}}</td>
        <td class="num">{{money $.Snapshot .Amount}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  <div class="totals">
    <div class="total-row"><span>Subtotal</span><span>{{money .Snapshot .Totals.Subtotal}}</span></div>
    <div class="total-row total-final"><span>Amount due</span><span>{{money .Snapshot .Totals.Subtotal}}</span></div>
  </div>

  {{if .Meta.Notes}}<div class="notes">{{.Meta.Notes}}</div>{{end}}
  <div class="notes">Generated {{formatTime .GeneratedAt}}</div>
</body>
</html>
`

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const defaultAccent = "#111827"

// Renderer turns a snapshot into a standalone HTML page.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

// RenderInput carries the snapshot plus presentation options.
type RenderInput struct {
	domain.Snapshot
	Accent      string
	GeneratedAt time.Time
}

type view struct {
	RenderInput
	Snapshot domain.Snapshot
	Items    []itemView
	Initials string
}

type itemView struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"money":          func(s domain.Snapshot, amount float64) string { return s.Money(amount) },
		"formatDate":     formatDate,
		"formatTime":     formatTime,
		"formatQuantity": formatQuantity,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	input.Accent = sanitizeColor(input.Accent)

	items := make([]itemView, 0, len(input.Snapshot.Items))
	for _, it := range input.Snapshot.Items {
		items = append(items, itemView{
			Description: it.Description,
			Quantity:    ledger.Quantity(it.Quantity),
			UnitPrice:   ledger.Price(it.UnitPrice),
			Amount:      it.Amount(),
		})
	}

	var buf bytes.Buffer
	err := r.tpl.Execute(&buf, view{
		RenderInput: input,
		Snapshot:    input.Snapshot,
		Items:       items,
		Initials:    input.Business.Initials(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatDate(d domain.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func formatQuantity(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", ledger.Quantity(value)), "0"), ".")
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return defaultAccent
}
