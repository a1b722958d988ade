// Package domain holds the data model of the invoice wizard.
package domain

import (
	"context"
	"strings"

	"github.com/smallbiznis/quickinvoice/internal/ledger"
)

// BusinessDetails describes the issuer. Only Name is required.
type BusinessDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
}

// Initials returns the first letters of the first two words of the business
// name. A one-word name gives its first two letters.
func (b BusinessDetails) Initials() string {
	words := strings.Fields(b.Name)
	switch len(words) {
	case 0:
		return ""
	case 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	first, second := []rune(words[0]), []rune(words[1])
	return strings.ToUpper(string([]rune{first[0], second[0]}))
}

type BusinessPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
}

func (p BusinessPatch) Apply(b *BusinessDetails) {
	setString(&b.Name, p.Name)
	setString(&b.Email, p.Email)
	setString(&b.Phone, p.Phone)
	setString(&b.Address, p.Address)
	setString(&b.TaxID, p.TaxID)
}

// CustomerDetails describes the bill-to party. Only Name is required.
type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (p CustomerPatch) Apply(c *CustomerDetails) {
	setString(&c.Name, p.Name)
	setString(&c.Email, p.Email)
	setString(&c.Phone, p.Phone)
	setString(&c.Address, p.Address)
}

// InvoiceMeta holds invoice-level descriptors. Dates are not ordered against
// each other and the number is not checked for uniqueness.
type InvoiceMeta struct {
	InvoiceNumber string   `json:"invoice_number"`
	IssueDate     Date     `json:"issue_date"`
	DueDate       Date     `json:"due_date"`
	Notes         string   `json:"notes"`
	Currency      Currency `json:"currency"`
}

type MetaPatch struct {
	InvoiceNumber *string   `json:"invoice_number"`
	IssueDate     *Date     `json:"issue_date"`
	DueDate       *Date     `json:"due_date"`
	Notes         *string   `json:"notes"`
	Currency      *Currency `json:"currency"`
}

// Apply merges the patch. An unsupported currency rejects the whole patch.
func (p MetaPatch) Apply(m *InvoiceMeta) error {
	if p.Currency != nil && !p.Currency.Valid() {
		return ErrUnsupportedCurrency
	}
	setString(&m.InvoiceNumber, p.InvoiceNumber)
	setString(&m.Notes, p.Notes)
	if p.IssueDate != nil {
		m.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		m.DueDate = *p.DueDate
	}
	if p.Currency != nil {
		m.Currency = *p.Currency
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validation is the live result of the per-step predicates.
type Validation struct {
	BusinessOK bool `json:"business_ok"`
	CustomerOK bool `json:"customer_ok"`
	ItemsOK    bool `json:"items_ok"`
	StepOK     bool `json:"step_ok"`
}

// CanGenerate reports whether every upstream predicate passes.
func (v Validation) CanGenerate() bool {
	return v.BusinessOK && v.CustomerOK && v.ItemsOK
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
}

// Snapshot is the value handed to a Generator. It shares no memory with the
// wizard that produced it.
type Snapshot struct {
	Business BusinessDetails   `json:"business"`
	Customer CustomerDetails   `json:"customer"`
	Meta     InvoiceMeta       `json:"meta"`
	Items    []ledger.LineItem `json:"items"`
	Totals   Totals            `json:"totals"`
}

// Money formats amount with the snapshot's currency symbol.
func (s Snapshot) Money(amount float64) string {
	return s.Meta.Currency.Symbol() + ledger.ToMoneyString(amount)
}

// Format selects the rendered document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// ParseFormat defaults a blank value to PDF.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", ErrInvalidFormat
	}
}

// Document is a rendered invoice.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Generator renders a snapshot into a document. It is the wizard's only
// external collaborator.
type Generator interface {
	Generate(ctx context.Context, snapshot Snapshot, format Format) (Document, error)
}
