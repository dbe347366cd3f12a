package window

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingTable(rows int) (*Table, *[]CellChange) {
	var seen []CellChange
	t := &Table{}
	t.Resize(rows)
	t.Subscribe(func(_ context.Context, ch CellChange) error {
		seen = append(seen, ch)
		return nil
	})
	return t, &seen
}

func TestTable_SuppressHoldsBackUserWrites(t *testing.T) {
	tbl, seen := recordingTable(1)
	ctx := context.Background()

	restore := tbl.Suppress()
	require.NoError(t, tbl.SetCell(ctx, 0, ColumnAmount, "5", OriginUser))
	assert.Empty(t, *seen, "no listener runs while suppressed, whatever the origin")
	text, err := tbl.Cell(0, ColumnAmount)
	require.NoError(t, err)
	assert.Equal(t, "5", text, "the write itself still lands")

	restore()
	require.NoError(t, tbl.SetCell(ctx, 0, ColumnAmount, "6", OriginUser))
	require.Len(t, *seen, 1)
	assert.Equal(t, CellChange{Row: 0, Column: ColumnAmount, Old: "5", New: "6", Origin: OriginUser}, (*seen)[0])
}

func TestTable_SuppressNests(t *testing.T) {
	tbl, seen := recordingTable(1)
	ctx := context.Background()

	outer := tbl.Suppress()
	inner := tbl.Suppress()
	inner()
	inner() // a second call must not release the outer hold
	assert.True(t, tbl.Suppressed())
	require.NoError(t, tbl.SetCell(ctx, 0, ColumnDate, "2024-03-01", OriginUser))
	assert.Empty(t, *seen)

	outer()
	assert.False(t, tbl.Suppressed())
	require.NoError(t, tbl.SetCell(ctx, 0, ColumnDate, "2024-03-02", OriginUser))
	assert.Len(t, *seen, 1)
}

func TestTable_ListenerErrorStopsNotification(t *testing.T) {
	tbl, seen := recordingTable(1)
	boom := errors.New("rejected")
	first := &Table{}
	first.Resize(1)
	first.Subscribe(func(context.Context, CellChange) error { return boom })
	first.listeners = append(first.listeners, tbl.listeners...)

	err := first.SetCell(context.Background(), 0, ColumnAmount, "1", OriginUser)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, *seen)
}

func TestTable_Bounds(t *testing.T) {
	tbl, _ := recordingTable(2)
	ctx := context.Background()

	assert.ErrorIs(t, tbl.SetCell(ctx, 2, ColumnAmount, "1", OriginUser), ErrNoSuchRow)
	_, err := tbl.Cell(-1, ColumnDate)
	assert.ErrorIs(t, err, ErrNoSuchRow)
	assert.Error(t, tbl.SetCell(ctx, 0, ColumnAction, "x", OriginUser))

	tbl.Resize(-3)
	assert.Zero(t, tbl.Len())
}
