package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"investtracker/internal/core"
	"investtracker/internal/ledger"
)

// Store keeps records in process memory. It satisfies ledger.Repository and
// loses everything on exit.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Record
}

func New() *Store {
	return &Store{nextID: 1}
}

// NewWithRecords seeds the store. Ids of seeded records are kept; new ids
// continue after the largest one.
func NewWithRecords(records ...core.Record) *Store {
	s := New()
	for _, r := range records {
		s.items = append(s.items, r)
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return s
}

// Insert stores the record and returns its synthetic id.
func (s *Store) Insert(_ context.Context, date core.Date, typ core.Type, amount float64) (int64, error) {
	r := core.Record{Date: date, Type: typ, Amount: amount}
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("insert investment: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.items = append(s.items, r)
	return r.ID, nil
}

func (s *Store) List(_ context.Context, p core.Period) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for _, r := range s.items {
		if p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) Sum(_ context.Context, p core.Period) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, r := range s.items {
		if p.Contains(r.Date) {
			total += r.Amount
		}
	}
	return total, nil
}

func (s *Store) UpdateAmount(_ context.Context, id int64, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("update investment %d: %w", id, ledger.ErrNotFound)
	}
	s.items[i].Amount = amount
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete investment %d: %w", id, ledger.ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id int64) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

var _ ledger.Repository = (*Store)(nil)
