package window

import (
	"context"
	"errors"
	"fmt"
)

// Column identifies a table column.
type Column int

const (
	ColumnDate Column = iota
	ColumnType
	ColumnAmount
	ColumnAction
)

var columnTitles = [...]string{"Date", "Type", "Amount (€)", ""}

func (c Column) String() string {
	if c < 0 || int(c) >= len(columnTitles) {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnTitles[c]
}

// Origin tags who wrote a cell.
type Origin int

const (
	OriginUser Origin = iota
	OriginRefresh
)

func (o Origin) String() string {
	if o == OriginRefresh {
		return "refresh"
	}
	return "user"
}

// CellChange describes one cell write.
type CellChange struct {
	Row    int
	Column Column
	Old    string
	New    string
	Origin Origin
}

// ChangeListener reacts to cell writes. An error aborts the remaining
// listeners and is returned from SetCell.
type ChangeListener func(ctx context.Context, change CellChange) error

// ErrNoSuchRow is returned when a row index falls outside the table.
var ErrNoSuchRow = errors.New("no such row")

// Table is the view model behind the rendered investments table. It only
// holds display text; record identity lives in the window.
type Table struct {
	rows       [][ColumnAction]string
	listeners  []ChangeListener
	suppressed int
}

// Subscribe registers fn for every notified cell write.
func (t *Table) Subscribe(fn ChangeListener) {
	t.listeners = append(t.listeners, fn)
}

// Suppress stops change notifications until the returned function is
// called. Calls nest.
func (t *Table) Suppress() (restore func()) {
	t.suppressed++
	done := false
	return func() {
		if !done {
			done = true
			t.suppressed--
		}
	}
}

// Suppressed reports whether notifications are currently held back.
func (t *Table) Suppressed() bool {
	return t.suppressed > 0
}

// Resize sets the row count. New rows are blank.
func (t *Table) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(t.rows) {
		t.rows = t.rows[:n]
		return
	}
	t.rows = append(t.rows, make([][ColumnAction]string, n-len(t.rows))...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Cell returns the text of one cell.
func (t *Table) Cell(row int, col Column) (string, error) {
	if err := t.check(row, col); err != nil {
		return "", err
	}
	return t.rows[row][col], nil
}

// SetCell writes text into a cell and notifies listeners unless
// notifications are suppressed.
func (t *Table) SetCell(ctx context.Context, row int, col Column, text string, origin Origin) error {
	if err := t.check(row, col); err != nil {
		return err
	}
	change := CellChange{Row: row, Column: col, Old: t.rows[row][col], New: text, Origin: origin}
	t.rows[row][col] = text
	if t.Suppressed() {
		return nil
	}
	for _, fn := range t.listeners {
		if err := fn(ctx, change); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) check(row int, col Column) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrNoSuchRow, row)
	}
	if col < ColumnDate || col >= ColumnAction {
		return fmt.Errorf("column %s holds no text", col)
	}
	return nil
}
