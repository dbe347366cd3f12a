package window

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investtracker/internal/core"
	"investtracker/internal/ledger"
	"investtracker/internal/ledger/memory"
	applog "investtracker/internal/log"
	"investtracker/internal/services"
)

var today = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

// spyService counts store-facing calls made through the window.
type spyService struct {
	*services.InvestmentService
	updates int
	deletes int
	failing error
}

func (s *spyService) UpdateAmount(ctx context.Context, id int64, text string) (float64, error) {
	s.updates++
	return s.InvestmentService.UpdateAmount(ctx, id, text)
}

func (s *spyService) Delete(ctx context.Context, id int64) error {
	s.deletes++
	if s.failing != nil {
		return s.failing
	}
	return s.InvestmentService.Delete(ctx, id)
}

func quietLogger() *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Output = io.Discard
	return applog.New(cfg)
}

func setup(t *testing.T, records ...core.Record) (*Window, *spyService, *memory.Store) {
	t.Helper()
	store := memory.NewWithRecords(records...)
	svc := &spyService{InvestmentService: services.NewInvestmentService(store,
		services.WithClock(func() time.Time { return today }),
		services.WithLogger(quietLogger()),
	)}
	w, err := New(context.Background(), svc, quietLogger())
	require.NoError(t, err)
	return w, svc, store
}

func marchRecords() []core.Record {
	return []core.Record{
		{ID: 1, Date: core.NewDate(2024, 3, 1), Type: core.ETF, Amount: 100},
		{ID: 2, Date: core.NewDate(2024, 3, 15), Type: core.Bitcoin, Amount: 50.5},
	}
}

func deletableRows(v View) []int {
	var rows []int
	for _, r := range v.Rows {
		if r.Deletable {
			rows = append(rows, r.Index)
		}
	}
	return rows
}

func TestNew_ShowsCurrentMonth(t *testing.T) {
	w, svc, _ := setup(t, marchRecords()...)

	v := w.View()
	assert.Equal(t, Title, v.Title)
	assert.Equal(t, "2024-03", v.Period)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "2024-03-15", v.Rows[0].Date)
	assert.Equal(t, "Bitcoin", v.Rows[0].Type)
	assert.Equal(t, "50.50", v.Rows[0].Amount)
	assert.Equal(t, "150.50", v.MonthlySum)
	assert.Equal(t, "150.50", v.FilteredTotal)
	assert.Equal(t, []string{"Date", "Type", "Amount (€)", ""}, v.Columns)
	assert.Len(t, v.Years, 25)
	assert.Empty(t, deletableRows(v))
	assert.Zero(t, svc.updates, "opening the window must not write back")
}

func TestRefresh_NeverEchoesIntoEdits(t *testing.T) {
	w, svc, _ := setup(t, marchRecords()...)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Reload(ctx))
	}
	_, err := w.Filter(ctx, 2024, 2)
	require.NoError(t, err)
	_, err = w.Filter(ctx, 2024, 3)
	require.NoError(t, err)

	assert.Zero(t, svc.updates)
	assert.False(t, w.table.Suppressed(), "guard must be released after refresh")
}

func TestAdd(t *testing.T) {
	w, _, store := setup(t)
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, "ETF", "12,5"))
	v := w.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "2024-03-20", v.Rows[0].Date)
	assert.Equal(t, "12.50", v.Rows[0].Amount)
	assert.Empty(t, v.AmountText, "input is cleared after a successful add")
	require.NotNil(t, v.Notice)
	assert.Equal(t, MsgAdded, v.Notice.Text)
	assert.Equal(t, 1, store.Len())
}

func TestAdd_InvalidAmountKeepsInput(t *testing.T) {
	w, _, store := setup(t)
	ctx := context.Background()

	for _, text := range []string{"abc", ""} {
		err := w.Add(ctx, "Stock", text)
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))

		v := w.View()
		assert.Equal(t, text, v.AmountText)
		require.NotNil(t, v.Notice)
		assert.Equal(t, LevelWarning, v.Notice.Level)
		assert.Equal(t, MsgInvalidAmount, v.Notice.Text)
	}
	assert.Zero(t, store.Len())

	w.Dismiss()
	assert.Nil(t, w.View().Notice)
}

func TestAmounts_MoreThanTwoDecimalsRejected(t *testing.T) {
	w, svc, store := setup(t, marchRecords()...)
	ctx := context.Background()

	for _, text := range []string{"12.345", "0,001", "1.004"} {
		err := w.Add(ctx, "ETF", text)
		require.Error(t, err, text)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		assert.Equal(t, text, w.View().AmountText)

		err = w.EditAmount(ctx, 0, text)
		require.Error(t, err, text)
		assert.Equal(t, "50.50", w.View().Rows[0].Amount)
	}
	assert.Equal(t, 3, svc.updates)
	assert.Equal(t, 2, store.Len())

	v := w.View()
	assert.Equal(t, "150.50", v.MonthlySum)
	assert.Equal(t, v.MonthlySum, v.FilteredTotal)
}

func TestFilter_ClampsToSelectorBounds(t *testing.T) {
	w, _, _ := setup(t)
	ctx := context.Background()

	p, err := w.Filter(ctx, 1999, 0)
	require.NoError(t, err)
	assert.Equal(t, core.Period{Year: 2000, Month: 1}, p)

	p, err = w.Filter(ctx, 2030, 13)
	require.NoError(t, err)
	assert.Equal(t, core.Period{Year: 2024, Month: 12}, p)
	assert.Equal(t, p, w.Period())
}

func TestFilter_EmptyMonth(t *testing.T) {
	w, _, _ := setup(t, marchRecords()...)

	_, err := w.Filter(context.Background(), 2024, 4)
	require.NoError(t, err)
	v := w.View()
	assert.True(t, v.Empty())
	assert.Equal(t, "0.00", v.MonthlySum)
	assert.Equal(t, "0.00", v.FilteredTotal)
}

func TestSelect_SingleDeleteAffordance(t *testing.T) {
	w, _, _ := setup(t, marchRecords()...)

	require.NoError(t, w.Select(0))
	assert.Equal(t, []int{0}, deletableRows(w.View()))

	require.NoError(t, w.Select(1))
	assert.Equal(t, []int{1}, deletableRows(w.View()))

	assert.ErrorIs(t, w.Select(2), ErrNoSuchRow)
	assert.Equal(t, []int{1}, deletableRows(w.View()))

	require.NoError(t, w.Reload(context.Background()))
	assert.Empty(t, deletableRows(w.View()), "refresh clears the selection")
}

func TestEditAmount_UpdatesOnlyTarget(t *testing.T) {
	w, svc, store := setup(t, marchRecords()...)
	ctx := context.Background()

	require.NoError(t, w.EditAmount(ctx, 1, "80"))
	assert.Equal(t, 1, svc.updates)

	v := w.View()
	assert.Equal(t, "50.50", v.Rows[0].Amount)
	assert.Equal(t, "80.00", v.Rows[1].Amount)
	assert.Equal(t, "130.50", v.MonthlySum)

	recs, err := store.List(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 50.5, recs[0].Amount)
	assert.Equal(t, 80.0, recs[1].Amount)
}

func TestEditAmount_InvalidRevertsToStoredValue(t *testing.T) {
	w, _, store := setup(t, marchRecords()...)
	ctx := context.Background()

	err := w.EditAmount(ctx, 0, "fifty")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	v := w.View()
	assert.Equal(t, "50.50", v.Rows[0].Amount)
	require.NotNil(t, v.Notice)
	assert.Equal(t, MsgInvalidAmount, v.Notice.Text)

	sum, err := store.Sum(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 150.5, sum)
}

func TestEditAmount_MissingRecord(t *testing.T) {
	w, _, store := setup(t, marchRecords()...)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, 2))
	require.NoError(t, w.EditAmount(ctx, 0, "1"))

	v := w.View()
	require.Len(t, v.Rows, 1)
	require.NotNil(t, v.Notice)
	assert.Equal(t, MsgGone, v.Notice.Text)
}

func TestDelete_RequiresSelection(t *testing.T) {
	w, _, _ := setup(t, marchRecords()...)

	assert.ErrorIs(t, w.RequestDelete(0), ErrNotDeletable)
	assert.Nil(t, w.View().Confirm)
}

func TestDelete_Declined(t *testing.T) {
	w, svc, store := setup(t, marchRecords()...)
	ctx := context.Background()

	require.NoError(t, w.Select(0))
	require.NoError(t, w.RequestDelete(0))
	c := w.View().Confirm
	require.NotNil(t, c)
	assert.Equal(t, "2024-03-15", c.Date)
	assert.Equal(t, "50.50", c.Amount)

	require.NoError(t, w.Confirm(ctx, false))
	assert.Nil(t, w.View().Confirm)
	assert.Zero(t, svc.deletes)
	assert.Equal(t, 2, store.Len())
}

func TestDelete_Confirmed(t *testing.T) {
	w, _, store := setup(t, marchRecords()...)
	ctx := context.Background()

	require.NoError(t, w.Select(1))
	require.NoError(t, w.RequestDelete(1))
	require.NoError(t, w.Confirm(ctx, true))

	v := w.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "Bitcoin", v.Rows[0].Type)
	assert.Equal(t, "50.50", v.MonthlySum)
	require.NotNil(t, v.Notice)
	assert.Equal(t, MsgDeleted, v.Notice.Text)

	_, err := store.List(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.ErrorIs(t, store.Delete(ctx, 1), ledger.ErrNotFound)
}

func TestConfirm_TargetsRecordCapturedAtRequest(t *testing.T) {
	w, _, store := setup(t, marchRecords()...)
	ctx := context.Background()

	require.NoError(t, w.Select(1))
	require.NoError(t, w.RequestDelete(1))
	// A newer record shifts row indexes before the answer arrives.
	require.NoError(t, w.Add(ctx, "Other", "5"))
	require.NoError(t, w.Confirm(ctx, true))

	recs, err := store.List(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.NotEqual(t, int64(1), r.ID)
	}
}

func TestConfirm_WithoutPendingIsNoop(t *testing.T) {
	w, svc, _ := setup(t, marchRecords()...)
	require.NoError(t, w.Confirm(context.Background(), true))
	assert.Zero(t, svc.deletes)
}

func TestReportFailure_KeepsTableAndShowsError(t *testing.T) {
	w, svc, store := setup(t, marchRecords()...)
	ctx := context.Background()
	svc.failing = errors.New("disk I/O error")

	require.NoError(t, w.Select(0))
	require.NoError(t, w.RequestDelete(0))
	err := w.Confirm(ctx, true)
	require.ErrorIs(t, err, svc.failing)
	assert.False(t, core.IsValidation(err))

	w.ReportFailure()
	v := w.View()
	require.NotNil(t, v.Notice)
	assert.Equal(t, LevelError, v.Notice.Level)
	assert.Equal(t, MsgStoreFailed, v.Notice.Text)
	assert.Nil(t, v.Confirm)
	assert.Len(t, v.Rows, 2)
	assert.Equal(t, 2, store.Len())
}
