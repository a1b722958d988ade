package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, snapshot domain.Snapshot, format domain.Format) (domain.Document, error) {
	args := m.Called(ctx, snapshot, format)
	doc, _ := args.Get(0).(domain.Document)
	return doc, args.Error(1)
}

func sequentialIDs() ledger.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func strPtr(v string) *string      { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestController(gen domain.Generator) *Controller {
	return NewController(domain.InvoiceMeta{InvoiceNumber: "AIX-000001", Currency: domain.CurrencyGBP}, gen, sequentialIDs())
}

func TestNewControllerDefaults(t *testing.T) {
	c := NewController(domain.InvoiceMeta{Currency: "XYZ"}, nil, sequentialIDs())

	assert.Equal(t, domain.StepBusiness, c.Step())
	assert.Equal(t, domain.DirectionForward, c.Direction())
	assert.Equal(t, domain.DefaultCurrency, c.Meta().Currency)
	assert.InDelta(t, 25.0, c.Progress(), 0.001)
	assert.False(t, c.CanGoBack())
	assert.True(t, c.CanGoNext())

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, float64(ledger.DefaultQuantity), items[0].Quantity)
	assert.Equal(t, ledger.DefaultUnitPrice, items[0].UnitPrice)
}

func TestEndToEndGenerate(t *testing.T) {
	gen := &mockGenerator{}
	c := newTestController(gen)

	c.UpdateBusiness(domain.BusinessPatch{Name: strPtr("Acme")})
	require.True(t, c.Advance())
	c.UpdateCustomer(domain.CustomerPatch{Name: strPtr("Bob")})
	require.True(t, c.Advance())

	first := c.Items()[0]
	_, ok := c.UpdateItem(first.ID, ledger.Patch{
		Description: strPtr("Labour"),
		Quantity:    floatPtr(3),
		UnitPrice:   strPtr("15.00"),
	})
	require.True(t, ok)
	c.AddItem()
	require.True(t, c.Advance())
	assert.Equal(t, domain.StepGenerate, c.Step())
	assert.InDelta(t, 100.0, c.Progress(), 0.001)

	gen.On("Generate", mock.Anything, mock.MatchedBy(func(s domain.Snapshot) bool {
		return len(s.Items) == 1 &&
			s.Items[0].Description == "Labour" &&
			s.Totals.Subtotal == 45 &&
			s.Business.Name == "Acme" &&
			s.Customer.Name == "Bob"
	}), domain.FormatPDF).Return(domain.Document{Filename: "x.pdf", Body: []byte("%PDF")}, nil).Once()

	doc, err := c.Generate(context.Background(), domain.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "x.pdf", doc.Filename)
	assert.Equal(t, "45.00", ledger.ToMoneyString(c.Subtotal()))
	gen.AssertExpectations(t)
}

func TestAdvanceGatedByCurrentStep(t *testing.T) {
	c := newTestController(nil)

	assert.False(t, c.Advance())
	assert.Equal(t, domain.StepBusiness, c.Step())
	assert.Equal(t, domain.DirectionForward, c.Direction())

	c.UpdateBusiness(domain.BusinessPatch{Name: strPtr("   ")})
	assert.False(t, c.Advance(), "whitespace-only name does not pass")

	c.UpdateBusiness(domain.BusinessPatch{Name: strPtr("Acme")})
	assert.True(t, c.Advance())
	assert.Equal(t, domain.StepCustomer, c.Step())

	assert.False(t, c.Advance())
	assert.Equal(t, domain.StepCustomer, c.Step())
}

func TestItemsStepNeedsBillableItem(t *testing.T) {
	c := newTestController(nil)
	c.JumpTo(domain.StepItems.Index())

	assert.False(t, c.Advance(), "blank description")

	id := c.Items()[0].ID
	c.UpdateItem(id, ledger.Patch{Description: strPtr("Labour"), Quantity: floatPtr(0)})
	assert.False(t, c.Advance(), "zero quantity")

	c.UpdateItem(id, ledger.Patch{Quantity: floatPtr(1)})
	assert.True(t, c.Advance())
	assert.Equal(t, domain.StepGenerate, c.Step())
}

func TestAdvanceAtLastStepIsNoop(t *testing.T) {
	c := newTestController(nil)
	c.JumpTo(domain.StepGenerate.Index())

	assert.False(t, c.Advance())
	assert.Equal(t, domain.StepGenerate, c.Step())
	assert.False(t, c.CanGoNext())
}

func TestRetreat(t *testing.T) {
	c := newTestController(nil)

	assert.False(t, c.Retreat())
	assert.Equal(t, domain.StepBusiness, c.Step())
	assert.Equal(t, domain.DirectionBackward, c.Direction())

	c.JumpTo(domain.StepGenerate.Index())
	assert.True(t, c.Retreat())
	assert.Equal(t, domain.StepItems, c.Step())
	assert.Equal(t, domain.DirectionBackward, c.Direction())
}

func TestJumpToClampsAndSkipsValidation(t *testing.T) {
	c := newTestController(nil)

	assert.Equal(t, domain.StepGenerate, c.JumpTo(10))
	assert.Equal(t, domain.DirectionForward, c.Direction())
	assert.False(t, c.Validation().BusinessOK)

	assert.Equal(t, domain.StepBusiness, c.JumpTo(-3))
	assert.Equal(t, domain.DirectionBackward, c.Direction())

	assert.Equal(t, domain.StepCustomer, c.JumpTo(1))
	assert.Equal(t, domain.DirectionForward, c.Direction())
}

func TestGenerateBlocked(t *testing.T) {
	cases := []struct {
		name     string
		business string
		customer string
		item     string
	}{
		{name: "no business", customer: "Bob", item: "Labour"},
		{name: "no customer", business: "Acme", item: "Labour"},
		{name: "no billable item", business: "Acme", customer: "Bob"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &mockGenerator{}
			c := newTestController(gen)
			c.UpdateBusiness(domain.BusinessPatch{Name: strPtr(tc.business)})
			c.UpdateCustomer(domain.CustomerPatch{Name: strPtr(tc.customer)})
			c.UpdateItem(c.Items()[0].ID, ledger.Patch{Description: strPtr(tc.item)})
			c.JumpTo(domain.StepGenerate.Index())

			_, err := c.Generate(context.Background(), domain.FormatPDF)
			assert.ErrorIs(t, err, domain.ErrGenerateBlocked)
			gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRenderFailureLeavesStateUnchanged(t *testing.T) {
	cause := errors.New("printer on fire")
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, domain.FormatPDF).Return(nil, cause).Once()

	c := newTestController(gen)
	c.UpdateBusiness(domain.BusinessPatch{Name: strPtr("Acme")})
	c.UpdateCustomer(domain.CustomerPatch{Name: strPtr("Bob")})
	c.UpdateItem(c.Items()[0].ID, ledger.Patch{Description: strPtr("Labour"), UnitPrice: strPtr("9.99")})
	c.JumpTo(domain.StepGenerate.Index())

	before := c.State()
	_, err := c.Generate(context.Background(), domain.FormatPDF)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRenderFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before, c.State())
	gen.AssertExpectations(t)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newTestController(nil)
	c.UpdateBusiness(domain.BusinessPatch{Name: strPtr("Acme")})
	c.UpdateCustomer(domain.CustomerPatch{Name: strPtr("Bob")})
	id := c.Items()[0].ID
	c.UpdateItem(id, ledger.Patch{Description: strPtr("Labour")})

	snap, err := c.Snapshot()
	require.NoError(t, err)

	c.UpdateItem(id, ledger.Patch{Description: strPtr("Changed")})
	c.UpdateBusiness(domain.BusinessPatch{Name: strPtr("Other")})

	assert.Equal(t, "Labour", snap.Items[0].Description)
	assert.Equal(t, "Acme", snap.Business.Name)
}

func TestDispatch(t *testing.T) {
	t.Run("missing generator", func(t *testing.T) {
		_, err := Dispatch(context.Background(), nil, domain.Snapshot{}, domain.FormatPDF)
		assert.ErrorIs(t, err, domain.ErrRenderFailed)
		assert.ErrorIs(t, err, errGeneratorMissing)
	})

	t.Run("render error passes through", func(t *testing.T) {
		wrapped := &domain.RenderError{Err: errors.New("boom")}
		gen := &mockGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, wrapped).Once()

		_, err := Dispatch(context.Background(), gen, domain.Snapshot{}, domain.FormatHTML)
		assert.Same(t, wrapped, err)
	})
}

func TestUpdateMetaRejectsUnsupportedCurrency(t *testing.T) {
	c := newTestController(nil)
	bad := domain.Currency("JPY")
	notes := "thanks"

	_, err := c.UpdateMeta(domain.MetaPatch{Currency: &bad, Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
	assert.Equal(t, domain.CurrencyGBP, c.Meta().Currency)
	assert.Empty(t, c.Meta().Notes)

	usd := domain.CurrencyUSD
	meta, err := c.UpdateMeta(domain.MetaPatch{Currency: &usd})
	require.NoError(t, err)
	assert.Equal(t, domain.CurrencyUSD, meta.Currency)
	assert.Equal(t, "$", c.State().CurrencySymbol)
}

func TestState(t *testing.T) {
	c := newTestController(nil)
	c.UpdateItem(c.Items()[0].ID, ledger.Patch{Quantity: floatPtr(2), UnitPrice: strPtr("10.50")})

	state := c.State()
	assert.Equal(t, "Business", state.Step)
	assert.Equal(t, 0, state.StepIndex)
	assert.Equal(t, []string{"Business", "Customer", "Items", "Generate"}, state.Steps)
	assert.Equal(t, "21.00", state.SubtotalFormatted)
	assert.False(t, state.CanGenerate)
	assert.Equal(t, []domain.Currency{domain.CurrencyGBP, domain.CurrencyUSD, domain.CurrencyEUR}, state.Currencies)
}
