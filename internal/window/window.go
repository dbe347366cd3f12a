// Package window holds the state of the single tracker window: the add form,
// the filter selectors, the investments table, the current selection and any
// open message or confirmation box. HTTP handlers drive it; it never touches
// storage directly.
package window

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"investtracker/internal/core"
	"investtracker/internal/ledger"
	applog "investtracker/internal/log"
	"investtracker/internal/services"
)

const (
	Title = "Investment Tracker"

	MsgAdded         = "Investment added."
	MsgDeleted       = "Investment deleted."
	MsgInvalidAmount = "Please enter a valid amount!"
	MsgInvalidType   = "Please choose an investment type."
	MsgGone          = "This investment no longer exists. The table has been reloaded."
	MsgConfirmDelete = "Do you really want to delete this investment?"
	MsgStoreFailed   = "The investment store could not be reached. The last action was not saved."
)

// ErrNotDeletable is returned when a delete is requested for a row that
// does not currently show the delete action.
var ErrNotDeletable = errors.New("row is not selected for deletion")

// Service is what the window needs from the business layer.
type Service interface {
	Now() time.Time
	Add(ctx context.Context, typ core.Type, amountText string) (core.Record, error)
	Snapshot(ctx context.Context, p core.Period) (services.Snapshot, error)
	UpdateAmount(ctx context.Context, id int64, amountText string) (float64, error)
	Delete(ctx context.Context, id int64) error
}

// Level is the severity of a message box.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is an open message box.
type Notice struct {
	Level Level
	Text  string
}

type confirmation struct {
	id     int64
	date   string
	typ    string
	amount string
}

// Window serializes every user action through one mutex, the way a UI
// toolkit dispatches events on a single thread.
type Window struct {
	mu     sync.Mutex
	svc    Service
	logger *applog.Logger

	period     core.Period
	formType   core.Type
	formAmount string

	table    Table
	ids      []int64 // row index -> record id
	selected int     // -1 when nothing is selected

	monthlySum    float64
	filteredTotal decimal.Decimal

	notice  *Notice
	pending *confirmation
}

// New opens the window on the current month.
func New(ctx context.Context, svc Service, logger *applog.Logger) (*Window, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	w := &Window{
		svc:      svc,
		logger:   logger.WithComponent(applog.ComponentWindow),
		period:   core.CurrentPeriod(svc.Now()),
		formType: core.ETF,
		selected: -1,
	}
	w.table.Subscribe(w.onCellChanged)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.refresh(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Add stores a new investment dated today. Invalid input opens a warning
// and keeps the typed text.
func (w *Window) Add(ctx context.Context, typeText, amountText string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.formAmount = amountText
	typ, err := core.ParseType(typeText)
	if err != nil {
		w.warn(ctx, MsgInvalidType, applog.OpCreate, err)
		return err
	}
	w.formType = typ

	if _, err := w.svc.Add(ctx, typ, amountText); err != nil {
		if core.IsValidation(err) {
			w.warn(ctx, MsgInvalidAmount, applog.OpCreate, err)
		}
		return err
	}

	w.formAmount = ""
	if err := w.refresh(ctx); err != nil {
		return err
	}
	w.notice = &Notice{Level: LevelInfo, Text: MsgAdded}
	return nil
}

// Filter switches to another period and reloads the table. Out of range
// values are clamped to the selector bounds.
func (w *Window) Filter(ctx context.Context, year, month int) (core.Period, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	requested := core.Period{Year: year, Month: month}
	p := requested.Clamp(w.svc.Now())
	if p != requested {
		fields := applog.NewFields().WithOperation(applog.OpFilter).WithPeriod(year, month)
		fields["corrected_to"] = p.String()
		w.logger.WarnContext(ctx, "Filter period out of range", fields.ToSlice()...)
	}
	w.period = p
	return p, w.refresh(ctx)
}

// Reload re-runs the current filter.
func (w *Window) Reload(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refresh(ctx)
}

// Select moves the delete action to row.
func (w *Window) Select(row int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if row < 0 || row >= w.table.Len() {
		return fmt.Errorf("%w: %d", ErrNoSuchRow, row)
	}
	w.selected = row
	return nil
}

// EditAmount is a user edit of the amount cell of row.
func (w *Window) EditAmount(ctx context.Context, row int, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.table.SetCell(ctx, row, ColumnAmount, text, OriginUser)
}

// RequestDelete opens the yes/no box for the selected row.
func (w *Window) RequestDelete(row int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if row < 0 || row >= w.table.Len() {
		return fmt.Errorf("%w: %d", ErrNoSuchRow, row)
	}
	if row != w.selected {
		return fmt.Errorf("%w: %d", ErrNotDeletable, row)
	}
	date, _ := w.table.Cell(row, ColumnDate)
	typ, _ := w.table.Cell(row, ColumnType)
	amount, _ := w.table.Cell(row, ColumnAmount)
	w.pending = &confirmation{id: w.ids[row], date: date, typ: typ, amount: amount}
	return nil
}

// Confirm answers the open yes/no box. Declining changes nothing.
func (w *Window) Confirm(ctx context.Context, yes bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.pending
	w.pending = nil
	if p == nil || !yes {
		return nil
	}

	if err := w.svc.Delete(ctx, p.id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return w.gone(ctx, applog.OpDelete, err)
		}
		return err
	}
	if err := w.refresh(ctx); err != nil {
		return err
	}
	w.notice = &Notice{Level: LevelInfo, Text: MsgDeleted}
	return nil
}

// Dismiss closes the message box.
func (w *Window) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notice = nil
}

// ReportFailure opens an error box after a store call failed. The table keeps
// whatever it showed before the failed action.
func (w *Window) ReportFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = nil
	w.notice = &Notice{Level: LevelError, Text: MsgStoreFailed}
}

// Period returns the period currently shown.
func (w *Window) Period() core.Period {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.period
}

func (w *Window) onCellChanged(ctx context.Context, ch CellChange) error {
	if ch.Column != ColumnAmount || ch.Origin != OriginUser {
		return nil
	}
	id := w.ids[ch.Row]

	if _, err := w.svc.UpdateAmount(ctx, id, ch.New); err != nil {
		switch {
		case core.IsValidation(err):
			// Reload discards the rejected text.
			if rerr := w.refresh(ctx); rerr != nil {
				return rerr
			}
			w.warn(ctx, MsgInvalidAmount, applog.OpUpdate, err)
			return err
		case errors.Is(err, ledger.ErrNotFound):
			return w.gone(ctx, applog.OpUpdate, err)
		default:
			return err
		}
	}
	return w.refresh(ctx)
}

// refresh reloads the table for the current period. Its own cell writes
// never reach the edit handler.
func (w *Window) refresh(ctx context.Context) error {
	snap, err := w.svc.Snapshot(ctx, w.period)
	if err != nil {
		return err
	}

	restore := w.table.Suppress()
	defer restore()

	w.table.Resize(len(snap.Records))
	ids := make([]int64, len(snap.Records))
	for i, rec := range snap.Records {
		ids[i] = rec.ID
		cells := [...]string{rec.Date.String(), rec.Type.String(), core.FormatAmount(rec.Amount)}
		for col, text := range cells {
			if err := w.table.SetCell(ctx, i, Column(col), text, OriginRefresh); err != nil {
				return err
			}
		}
	}
	w.ids = ids
	w.selected = -1
	w.monthlySum = snap.MonthlySum
	w.filteredTotal = snap.FilteredTotal()
	return nil
}

func (w *Window) warn(ctx context.Context, text, op string, err error) {
	w.notice = &Notice{Level: LevelWarning, Text: text}
	w.logger.WarnContext(ctx, "Rejected input",
		applog.NewFields().WithOperation(op).WithError(err).WithErrorType(applog.ErrorTypeValidation).ToSlice()...)
}

// gone handles a record removed behind the window's back.
func (w *Window) gone(ctx context.Context, op string, err error) error {
	w.logger.WarnContext(ctx, "Record vanished",
		applog.NewFields().WithOperation(op).WithError(err).WithErrorType(applog.ErrorTypeNotFound).ToSlice()...)
	if rerr := w.refresh(ctx); rerr != nil {
		return rerr
	}
	w.notice = &Notice{Level: LevelWarning, Text: MsgGone}
	return nil
}
