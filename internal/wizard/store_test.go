package wizard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quickinvoice/internal/clock"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/smallbiznis/quickinvoice/internal/ledger"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, gen domain.Generator, defaults config.InvoiceDefaults) (*Store, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := NewStore(StoreParams{
		Log:       zap.NewNop(),
		Config:    config.Config{SessionTTLMinutes: 30},
		Defaults:  config.NewStaticInvoiceDefaults(defaults),
		Generator: gen,
		GenID:     node,
		Clock:     clk,
	})
	return s, clk
}

func TestStoreCreateSeedsDefaults(t *testing.T) {
	defaults := config.DefaultInvoiceDefaults()
	defaults.DueInDays = 14
	defaults.Notes = "Payment within two weeks"
	s, _ := newTestStore(t, nil, defaults)

	id, state := s.Create(context.Background())
	require.NotEmpty(t, id)
	assert.Equal(t, id, state.ID)
	assert.Equal(t, "Business", state.Step)
	assert.Equal(t, "AIX-000001", state.Meta.InvoiceNumber)
	assert.Equal(t, "2024-03-01", state.Meta.IssueDate.String())
	assert.Equal(t, "2024-03-15", state.Meta.DueDate.String())
	assert.Equal(t, "Payment within two weeks", state.Meta.Notes)
	assert.Equal(t, domain.CurrencyGBP, state.Meta.Currency)
	assert.Len(t, state.Items, 1)

	_, second := s.Create(context.Background())
	assert.Equal(t, "AIX-000002", second.Meta.InvoiceNumber)
	assert.Equal(t, 2, s.Len())
}

func TestStoreCreateFallsBackOnBadCurrency(t *testing.T) {
	defaults := config.DefaultInvoiceDefaults()
	defaults.Currency = "JPY"
	s, _ := newTestStore(t, nil, defaults)

	_, state := s.Create(context.Background())
	assert.Equal(t, domain.DefaultCurrency, state.Meta.Currency)
}

func TestStoreWithUnknownSession(t *testing.T) {
	s, _ := newTestStore(t, nil, config.DefaultInvoiceDefaults())

	err := s.With("missing", func(*Controller) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.State("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.Generate(context.Background(), "missing", domain.FormatPDF)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreGenerate(t *testing.T) {
	gen := &mockGenerator{}
	s, _ := newTestStore(t, gen, config.DefaultInvoiceDefaults())
	id, _ := s.Create(context.Background())

	_, err := s.Generate(context.Background(), id, domain.FormatHTML)
	assert.ErrorIs(t, err, domain.ErrGenerateBlocked)

	require.NoError(t, s.With(id, func(c *Controller) error {
		name := "Acme"
		customer := "Bob"
		desc := "Labour"
		c.UpdateBusiness(domain.BusinessPatch{Name: &name})
		c.UpdateCustomer(domain.CustomerPatch{Name: &customer})
		c.UpdateItem(c.Items()[0].ID, ledger.Patch{Description: &desc})
		return nil
	}))

	gen.On("Generate", mock.Anything, mock.Anything, domain.FormatHTML).
		Return(domain.Document{Filename: "aix-000001-bob.html"}, nil).Once()

	doc, err := s.Generate(context.Background(), id, domain.FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "aix-000001-bob.html", doc.Filename)
	gen.AssertExpectations(t)
}

func TestStoreDelete(t *testing.T) {
	s, _ := newTestStore(t, nil, config.DefaultInvoiceDefaults())
	id, _ := s.Create(context.Background())

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	assert.Equal(t, 0, s.Len())
}

func TestStoreSweep(t *testing.T) {
	s, clk := newTestStore(t, nil, config.DefaultInvoiceDefaults())
	stale, _ := s.Create(context.Background())
	fresh, _ := s.Create(context.Background())

	clk.Advance(20 * time.Minute)
	require.NoError(t, s.With(fresh, func(*Controller) error { return nil }))

	removed := s.Sweep(clk.Now().Add(15 * time.Minute))
	assert.Equal(t, 1, removed)

	_, err := s.State(stale)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = s.State(fresh)
	assert.NoError(t, err)
}

func TestStoreRejectsWritesToRemovedSession(t *testing.T) {
	s, clk := newTestStore(t, nil, config.DefaultInvoiceDefaults())

	swept, _ := s.Create(context.Background())
	sweptSess, ok := s.get(swept)
	require.True(t, ok)
	clk.Advance(31 * time.Minute)
	require.Equal(t, 1, s.Sweep(clk.Now()))

	deleted, _ := s.Create(context.Background())
	deletedSess, ok := s.get(deleted)
	require.True(t, ok)
	require.True(t, s.Delete(deleted))

	for _, sess := range []*session{sweptSess, deletedSess} {
		called := false
		err := s.run(sess, func(*Controller) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.False(t, called)
	}
}

func TestStoreSerializesSessionAccess(t *testing.T) {
	s, _ := newTestStore(t, nil, config.DefaultInvoiceDefaults())
	id, _ := s.Create(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.With(id, func(c *Controller) error {
				c.AddItem()
				return nil
			})
		}()
	}
	wg.Wait()

	state, err := s.State(id)
	require.NoError(t, err)
	assert.Len(t, state.Items, 51)
}
