package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quickinvoice/internal/clock"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/smallbiznis/quickinvoice/internal/invoice/format"
	"github.com/smallbiznis/quickinvoice/internal/ledger"
	obslogger "github.com/smallbiznis/quickinvoice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/quickinvoice/internal/observability/metrics"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultSessionTTL = 2 * time.Hour
	sweepInterval     = time.Minute
)

type StoreParams struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Defaults  *config.InvoiceDefaultsHolder
	Sequence  *format.Sequence
	Generator domain.Generator
	GenID     *snowflake.Node
	Clock     clock.Clock         `optional:"true"`
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type session struct {
	mu       sync.Mutex
	ctl      *Controller
	lastSeen time.Time
	// removed is set under mu once the session leaves the store.
	removed  bool
}

// Store keeps wizard sessions in memory. Each session has its own mutex so
// controller calls on one wizard never overlap.
type Store struct {
	log       *zap.Logger
	ttl       time.Duration
	defaults  *config.InvoiceDefaultsHolder
	sequence  *format.Sequence
	generator domain.Generator
	genID     *snowflake.Node
	itemID    ledger.IDGenerator
	metrics   *obsmetrics.Metrics
	clock     clock.Clock

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewStore(p StoreParams) *Store {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	ttl := time.Duration(p.Config.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	defaults := p.Defaults
	if defaults == nil {
		defaults = config.NewStaticInvoiceDefaults(config.DefaultInvoiceDefaults())
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	seq := p.Sequence
	if seq == nil {
		seq = format.NewSequence()
	}
	return &Store{
		log:       log.Named("wizard.store"),
		ttl:       ttl,
		defaults:  defaults,
		sequence:  seq,
		generator: p.Generator,
		genID:     p.GenID,
		itemID:    ledger.NewULID,
		metrics:   p.Metrics,
		clock:     clk,
		sessions:  make(map[string]*session),
	}
}

// Create opens a wizard seeded from the current invoice defaults.
func (s *Store) Create(ctx context.Context) (string, State) {
	now := s.clock.Now()
	ctl := NewController(s.defaultMeta(now), s.generator, s.itemID)

	id := s.genID.Generate().String()
	s.mu.Lock()
	s.sessions[id] = &session{ctl: ctl, lastSeen: now}
	s.mu.Unlock()

	s.metrics.RecordSessionCreated(ctx)
	obslogger.WithSession(obslogger.WithContext(ctx, s.log), id).Info("wizard session created",
		zap.String("invoice_number", ctl.Meta().InvoiceNumber),
	)

	state := ctl.State()
	state.ID = id
	return id, state
}

func (s *Store) defaultMeta(now time.Time) domain.InvoiceMeta {
	d := s.defaults.Get()
	currency, err := domain.ParseCurrency(d.Currency)
	if err != nil {
		currency = domain.DefaultCurrency
	}
	issued := domain.DateOf(now)
	return domain.InvoiceMeta{
		InvoiceNumber: s.sequence.Next(d.NumberTemplate, now),
		IssueDate:     issued,
		DueDate:       issued.AddDays(d.DueInDays),
		Notes:         d.Notes,
		Currency:      currency,
	}
}

// With runs fn while holding the session's lock.
func (s *Store) With(id string, fn func(*Controller) error) error {
	sess, ok := s.get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return s.run(sess, fn)
}

// run locks sess and calls fn unless the session was swept or deleted after
// it was looked up.
func (s *Store) run(sess *session, fn func(*Controller) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removed {
		return domain.ErrSessionNotFound
	}
	sess.lastSeen = s.clock.Now()
	return fn(sess.ctl)
}

// State returns the session's view with its id filled in.
func (s *Store) State(id string) (State, error) {
	var state State
	err := s.With(id, func(c *Controller) error {
		state = c.State()
		return nil
	})
	state.ID = id
	return state, err
}

// Snapshot returns the session's generator input under its lock.
func (s *Store) Snapshot(id string) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := s.With(id, func(c *Controller) error {
		var err error
		snapshot, err = c.Snapshot()
		return err
	})
	return snapshot, err
}

// Generate snapshots the wizard under its lock and renders outside of it, so
// edits to the same session are not blocked by a slow render.
func (s *Store) Generate(ctx context.Context, id string, f domain.Format) (domain.Document, error) {
	snapshot, err := s.Snapshot(id)
	if err != nil {
		if errors.Is(err, domain.ErrGenerateBlocked) {
			s.metrics.RecordGenerate(ctx, string(f), obsmetrics.OutcomeBlocked)
		}
		return domain.Document{}, err
	}
	return Dispatch(ctx, s.generator, snapshot, f)
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.mu.Lock()
	sess.removed = true
	sess.mu.Unlock()
	delete(s.sessions, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and reports how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		expired := now.Sub(sess.lastSeen) > s.ttl
		if expired {
			sess.removed = true
		}
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// runJanitor sweeps expired sessions until ctx is done.
func (s *Store) runJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(s.clock.Now()); n > 0 {
				s.log.Info("expired wizard sessions removed", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
