package wizard

import (
	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
)

// State is a read-only view of a wizard for transport.
type State struct {
	ID                string                 `json:"id,omitempty"`
	Step              string                 `json:"step"`
	StepIndex         int                    `json:"step_index"`
	Steps             []string               `json:"steps"`
	Direction         string                 `json:"direction"`
	Progress          float64                `json:"progress"`
	CanGoBack         bool                   `json:"can_go_back"`
	CanGoNext         bool                   `json:"can_go_next"`
	CanGenerate       bool                   `json:"can_generate"`
	Validation        domain.Validation      `json:"validation"`
	Business          domain.BusinessDetails `json:"business"`
	Customer          domain.CustomerDetails `json:"customer"`
	Meta              domain.InvoiceMeta     `json:"meta"`
	CurrencySymbol    string                 `json:"currency_symbol"`
	Currencies        []domain.Currency      `json:"currencies"`
	Items             []ledger.LineItem      `json:"items"`
	Subtotal          float64                `json:"subtotal"`
	SubtotalFormatted string                 `json:"subtotal_formatted"`
}

// State captures the controller's current values.
func (c *Controller) State() State {
	v := c.Validation()
	subtotal := c.Subtotal()
	steps := make([]string, 0, domain.StepCount)
	for _, s := range domain.Steps() {
		steps = append(steps, s.String())
	}
	return State{
		Step:              c.step.String(),
		StepIndex:         c.step.Index(),
		Steps:             steps,
		Direction:         c.direction.String(),
		Progress:          c.Progress(),
		CanGoBack:         c.CanGoBack(),
		CanGoNext:         c.CanGoNext(),
		CanGenerate:       v.CanGenerate(),
		Validation:        v,
		Business:          c.business,
		Customer:          c.customer,
		Meta:              c.meta,
		CurrencySymbol:    c.meta.Currency.Symbol(),
		Currencies:        domain.Currencies(),
		Items:             c.items.Items(),
		Subtotal:          subtotal,
		SubtotalFormatted: ledger.ToMoneyString(subtotal),
	}
}
