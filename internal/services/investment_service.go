package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"investtracker/internal/cache"
	"investtracker/internal/core"
	"investtracker/internal/ledger"
	applog "investtracker/internal/log"
)

// Snapshot is everything the window shows for one period.
type Snapshot struct {
	Period     core.Period
	Records    []core.Record
	MonthlySum float64
}

// FilteredTotal sums the listed records. It always agrees with MonthlySum.
func (s Snapshot) FilteredTotal() decimal.Decimal {
	return core.Total(s.Records)
}

// InvestmentService validates requests coming from the window and turns them
// into ledger calls. Period snapshots are cached until the next mutation.
type InvestmentService struct {
	repo      ledger.Repository
	snapshots cache.Cache[Snapshot]
	clock     func() time.Time
	logger    *applog.Logger
}

type Option func(*InvestmentService)

// WithClock overrides the source of "today".
func WithClock(clock func() time.Time) Option {
	return func(s *InvestmentService) { s.clock = clock }
}

// WithSnapshotCache enables snapshot caching.
func WithSnapshotCache(c cache.Cache[Snapshot]) Option {
	return func(s *InvestmentService) { s.snapshots = c }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *InvestmentService) { s.logger = l.WithComponent(applog.ComponentService) }
}

func NewInvestmentService(repo ledger.Repository, opts ...Option) *InvestmentService {
	s := &InvestmentService{
		repo:   repo,
		clock:  time.Now,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *InvestmentService) Now() time.Time {
	return s.clock()
}

// Add records a new investment dated today.
func (s *InvestmentService) Add(ctx context.Context, typ core.Type, amountText string) (core.Record, error) {
	if !typ.Valid() {
		return core.Record{}, &core.ValidationError{Field: "type", Input: string(typ), Err: core.ErrInvalidType}
	}
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return core.Record{}, err
	}

	rec := core.Record{Date: core.DateOf(s.clock()), Type: typ, Amount: amount}
	id, err := s.repo.Insert(ctx, rec.Date, rec.Type, rec.Amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("save investment: %w", err)
	}
	rec.ID = id
	s.invalidate()

	s.logger.InfoContext(ctx, "Investment created",
		applog.NewFields().WithOperation(applog.OpCreate).WithRecord(id, string(typ), amount).ToSlice()...)
	return rec, nil
}

// Snapshot returns the records and the monthly sum of p.
func (s *InvestmentService) Snapshot(ctx context.Context, p core.Period) (Snapshot, error) {
	if err := p.Validate(s.clock()); err != nil {
		return Snapshot{}, &core.ValidationError{Field: "period", Input: p.String(), Err: err}
	}

	key := p.String()
	if s.snapshots != nil {
		if snap, ok := s.snapshots.Get(key); ok {
			s.logger.DebugContext(ctx, "Snapshot cache hit", applog.FieldYear, p.Year, applog.FieldMonth, p.Month)
			snap.Records = append([]core.Record(nil), snap.Records...)
			return snap, nil
		}
	}

	sum, err := s.repo.Sum(ctx, p)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read monthly sum: %w", err)
	}
	records, err := s.repo.List(ctx, p)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read investments: %w", err)
	}

	snap := Snapshot{Period: p, Records: records, MonthlySum: sum}
	if s.snapshots != nil {
		s.snapshots.Set(key, Snapshot{Period: p, Records: append([]core.Record(nil), records...), MonthlySum: sum})
	}
	return snap, nil
}

// UpdateAmount parses text and overwrites the amount of record id.
func (s *InvestmentService) UpdateAmount(ctx context.Context, id int64, amountText string) (float64, error) {
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return 0, err
	}
	if err := s.repo.UpdateAmount(ctx, id, amount); err != nil {
		s.invalidateIfMissing(err)
		return 0, fmt.Errorf("update investment: %w", err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Investment amount updated",
		applog.NewFields().WithOperation(applog.OpUpdate).WithRecord(id, "", amount).ToSlice()...)
	return amount, nil
}

// Delete removes record id.
func (s *InvestmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.invalidateIfMissing(err)
		return fmt.Errorf("delete investment: %w", err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Investment deleted", applog.FieldOperation, applog.OpDelete, applog.FieldRecordID, id)
	return nil
}

// Ping checks the underlying store.
func (s *InvestmentService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *InvestmentService) invalidate() {
	if s.snapshots != nil {
		s.snapshots.Purge()
	}
}

// A missing record means the cached view is stale.
func (s *InvestmentService) invalidateIfMissing(err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		s.invalidate()
	}
}
