package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investtracker/internal/core"
	"investtracker/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "investments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema())
	require.NoError(t, repo.EnsureSchema())
	assert.Equal(t, uint(2), repo.SchemaVersion())

	change, err := RunMigrations(repo.dbPath)
	require.NoError(t, err)
	assert.False(t, change.Changed())

	n, err := repo.queries.CountInvestmentTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := repo.db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info('investments') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var name, typ string
		require.NoError(t, rows.Scan(&name, &typ))
		cols = append(cols, name+" "+typ)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id INTEGER", "date TEXT", "type TEXT", "amount REAL"}, cols)
}

func TestExistingTableIsAdopted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "investments.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE investments (id INTEGER PRIMARY KEY, date TEXT, type TEXT, amount REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO investments (date, type, amount) VALUES ('2024-03-01', 'Aktien', 10.0), ('2024-03-02', 'Sonstige', 5.0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	records, err := repo.List(context.Background(), core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, core.Other, records[0].Type)
	assert.Equal(t, core.Stock, records[1].Type)
}

func TestScenarioMarch2024(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, core.NewDate(2024, 3, 1), core.ETF, 100.00)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, core.NewDate(2024, 3, 15), core.Bitcoin, 50.50)
	require.NoError(t, err)

	march := core.Period{Year: 2024, Month: 3}
	records, err := repo.List(ctx, march)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-15", records[0].Date.String())
	assert.Equal(t, core.Bitcoin, records[0].Type)
	assert.Equal(t, "2024-03-01", records[1].Date.String())
	assert.Equal(t, core.ETF, records[1].Type)

	sum, err := repo.Sum(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, "150.50", core.FormatAmount(sum))

	april := core.Period{Year: 2024, Month: 4}
	records, err = repo.List(ctx, april)
	require.NoError(t, err)
	assert.Empty(t, records)
	sum, err = repo.Sum(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, "0.00", core.FormatAmount(sum))
}

func TestSumMatchesListedRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inserts := []struct {
		date   core.Date
		amount float64
	}{
		{core.NewDate(2023, 3, 10), 1.25},
		{core.NewDate(2024, 2, 29), 2.5},
		{core.NewDate(2024, 3, 1), 3.75},
		{core.NewDate(2024, 3, 31), 4},
		{core.NewDate(2024, 4, 1), 5},
	}
	for _, in := range inserts {
		_, err := repo.Insert(ctx, in.date, core.Other, in.amount)
		require.NoError(t, err)
	}

	for _, p := range []core.Period{
		{Year: 2023, Month: 3},
		{Year: 2024, Month: 2},
		{Year: 2024, Month: 3},
		{Year: 2024, Month: 4},
		{Year: 2024, Month: 5},
	} {
		records, err := repo.List(ctx, p)
		require.NoError(t, err)
		sum, err := repo.Sum(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, core.Total(records).StringFixed(2), core.FormatAmount(sum), "period %s", p)
		for _, r := range records {
			assert.True(t, p.Contains(r.Date), "record %d outside %s", r.ID, p)
		}
	}
}

func TestSameDateKeepsInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	day := core.NewDate(2024, 6, 1)

	var ids []int64
	for _, typ := range core.Types() {
		id, err := repo.Insert(ctx, day, typ, 1)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := repo.List(ctx, day.Period())
	require.NoError(t, err)
	var got []int64
	for _, r := range records {
		got = append(got, r.ID)
	}
	assert.Equal(t, ids, got)
}

func TestUpdateAmountTouchesOnlyTarget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Insert(ctx, core.NewDate(2024, 3, 1), core.ETF, 100)
	require.NoError(t, err)
	b, err := repo.Insert(ctx, core.NewDate(2024, 3, 2), core.Stock, 20)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateAmount(ctx, a, 75.25))

	records, err := repo.List(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	amounts := map[int64]float64{}
	for _, r := range records {
		amounts[r.ID] = r.Amount
	}
	assert.Equal(t, 75.25, amounts[a])
	assert.Equal(t, 20.0, amounts[b])

	sum, err := repo.Sum(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "95.25", core.FormatAmount(sum))
}

func TestDeleteRemovesFromEveryPeriod(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, core.NewDate(2024, 3, 1), core.ETF, 100)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id))

	records, err := repo.List(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Empty(t, records)
	sum, err := repo.Sum(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestMissingIDReportsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.UpdateAmount(ctx, 42, 1), ledger.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 42), ledger.ErrNotFound)
}

func TestInsertRejectsInvalidRecord(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Insert(context.Background(), core.NewDate(2024, 3, 1), core.ETF, -1)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}
