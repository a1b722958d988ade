// Package wizard implements the four-step invoice wizard: step sequencing,
// per-step validation gates and the hand-off of an invoice snapshot to a
// document generator.
package wizard

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
)

// Controller owns one wizard's state. It is not safe for concurrent use;
// callers serialize access (see Store).
type Controller struct {
	step      domain.Step
	direction domain.Direction

	business domain.BusinessDetails
	customer domain.CustomerDetails
	meta     domain.InvoiceMeta
	items    *ledger.Ledger

	generator domain.Generator
}

// NewController starts a wizard on the Business step with one blank item.
func NewController(meta domain.InvoiceMeta, generator domain.Generator, genID ledger.IDGenerator) *Controller {
	if !meta.Currency.Valid() {
		meta.Currency = domain.DefaultCurrency
	}
	return &Controller{
		step:      domain.FirstStep,
		direction: domain.DirectionForward,
		meta:      meta,
		items:     ledger.New(genID),
		generator: generator,
	}
}

func (c *Controller) Step() domain.Step           { return c.step }
func (c *Controller) Direction() domain.Direction { return c.direction }

// Progress is the completed share of the wizard in percent, counting the current step.
func (c *Controller) Progress() float64 {
	return float64(c.step.Index()+1) / float64(domain.StepCount) * 100
}

func (c *Controller) CanGoBack() bool { return c.step > domain.FirstStep }
func (c *Controller) CanGoNext() bool { return c.step < domain.LastStep }

func (c *Controller) Business() domain.BusinessDetails { return c.business }
func (c *Controller) Customer() domain.CustomerDetails { return c.customer }
func (c *Controller) Meta() domain.InvoiceMeta         { return c.meta }

func (c *Controller) UpdateBusiness(p domain.BusinessPatch) domain.BusinessDetails {
	p.Apply(&c.business)
	return c.business
}

func (c *Controller) UpdateCustomer(p domain.CustomerPatch) domain.CustomerDetails {
	p.Apply(&c.customer)
	return c.customer
}

func (c *Controller) UpdateMeta(p domain.MetaPatch) (domain.InvoiceMeta, error) {
	if err := p.Apply(&c.meta); err != nil {
		return c.meta, err
	}
	return c.meta, nil
}

func (c *Controller) Items() []ledger.LineItem { return c.items.Items() }

func (c *Controller) AddItem() ledger.LineItem { return c.items.AddItem() }

func (c *Controller) RemoveItem(id string) bool { return c.items.RemoveItem(id) }

func (c *Controller) UpdateItem(id string, p ledger.Patch) (ledger.LineItem, bool) {
	return c.items.UpdateItem(id, p)
}

// Subtotal is recomputed from the current items on every call.
func (c *Controller) Subtotal() float64 { return c.items.Subtotal() }

// Validation evaluates every predicate against the current state.
func (c *Controller) Validation() domain.Validation {
	v := domain.Validation{
		BusinessOK: strings.TrimSpace(c.business.Name) != "",
		CustomerOK: strings.TrimSpace(c.customer.Name) != "",
		ItemsOK:    c.items.HasBillableItem(),
	}
	v.StepOK = stepOK(c.step, v)
	return v
}

func stepOK(step domain.Step, v domain.Validation) bool {
	switch step {
	case domain.StepBusiness:
		return v.BusinessOK
	case domain.StepCustomer:
		return v.CustomerOK
	case domain.StepItems:
		return v.ItemsOK
	default:
		return true
	}
}

// Advance moves one step forward if the current step's predicate passes.
// Earlier steps are not re-checked. It reports whether the step changed.
func (c *Controller) Advance() bool {
	c.direction = domain.DirectionForward
	if !c.CanGoNext() || !c.Validation().StepOK {
		return false
	}
	c.step++
	return true
}

// Retreat moves one step back without any validation.
func (c *Controller) Retreat() bool {
	c.direction = domain.DirectionBackward
	if !c.CanGoBack() {
		return false
	}
	c.step--
	return true
}

// JumpTo moves to the clamped index unconditionally. Unlike Advance it does
// not consult the predicates of skipped steps.
func (c *Controller) JumpTo(index int) domain.Step {
	target := domain.ClampStep(index)
	if target < c.step {
		c.direction = domain.DirectionBackward
	} else {
		c.direction = domain.DirectionForward
	}
	c.step = target
	return c.step
}

// Snapshot assembles the generator input. It fails with ErrGenerateBlocked
// unless the business, customer and items predicates all pass right now.
// Items with a blank description are left out.
func (c *Controller) Snapshot() (domain.Snapshot, error) {
	if !c.Validation().CanGenerate() {
		return domain.Snapshot{}, domain.ErrGenerateBlocked
	}
	return domain.Snapshot{
		Business: c.business,
		Customer: c.customer,
		Meta:     c.meta,
		Items:    c.items.Described(),
		Totals:   domain.Totals{Subtotal: c.items.Subtotal()},
	}, nil
}

// Generate hands a snapshot to the generator. Neither a blocked gate nor a
// generator failure changes the wizard state, so the call can be retried.
func (c *Controller) Generate(ctx context.Context, format domain.Format) (domain.Document, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return domain.Document{}, err
	}
	return Dispatch(ctx, c.generator, snapshot, format)
}

// Dispatch invokes the generator and normalizes its failure to a RenderError.
func Dispatch(ctx context.Context, generator domain.Generator, snapshot domain.Snapshot, format domain.Format) (domain.Document, error) {
	if generator == nil {
		return domain.Document{}, &domain.RenderError{Err: errGeneratorMissing}
	}
	doc, err := generator.Generate(ctx, snapshot, format)
	if err != nil {
		if errors.Is(err, domain.ErrRenderFailed) {
			return domain.Document{}, err
		}
		return domain.Document{}, &domain.RenderError{Err: err}
	}
	return doc, nil
}
