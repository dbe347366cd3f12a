package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"investtracker/internal/core"
	"investtracker/internal/ledger"
	applog "investtracker/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable ledger.Repository. It holds one connection
// for the lifetime of the process.
type SQLiteRepository struct {
	db            *sql.DB
	queries       *Queries
	dbPath        string
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		dbPath:  dbPath,
	}

	if err := repo.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// EnsureSchema creates the investments table when it is missing. Safe to call
// on every start.
func (r *SQLiteRepository) EnsureSchema() error {
	change, err := RunMigrations(r.dbPath)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if change.Changed() {
		slog.Info("Schema migrated", applog.FieldComponent, applog.ComponentStorage,
			"db_path", r.dbPath, "from_version", change.From, "to_version", change.To)
	}
	r.schemaVersion = change.To
	return nil
}

// SchemaVersion is the migration level found by the last EnsureSchema.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements ledger.RecordWriter
func (r *SQLiteRepository) Insert(ctx context.Context, date core.Date, typ core.Type, amount float64) (int64, error) {
	rec := core.Record{Date: date, Type: typ, Amount: amount}
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("insert investment: %w", err)
	}

	id, err := r.queries.CreateInvestment(ctx, CreateInvestmentParams{
		Date:   date.String(),
		Type:   string(typ),
		Amount: amount,
	})
	if err != nil {
		return 0, fmt.Errorf("create investment: %w", err)
	}

	slog.InfoContext(ctx, "Investment saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		"id", id,
		"date", date.String(),
		"type", typ,
		"amount", amount)

	return id, nil
}

// List implements ledger.RecordReader
func (r *SQLiteRepository) List(ctx context.Context, p core.Period) ([]core.Record, error) {
	rows, err := r.queries.ListInvestmentsByMonth(ctx, monthParams(p))
	if err != nil {
		return nil, fmt.Errorf("list investments for %s: %w", p, err)
	}

	records := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("investment %d: %w", row.ID, err)
		}
		records = append(records, core.Record{
			ID:     row.ID,
			Date:   date,
			Type:   core.Type(row.Type),
			Amount: row.Amount,
		})
	}

	return records, nil
}

// Sum implements ledger.RecordReader
func (r *SQLiteRepository) Sum(ctx context.Context, p core.Period) (float64, error) {
	total, err := r.queries.SumInvestmentsByMonth(ctx, monthParams(p))
	if err != nil {
		return 0, fmt.Errorf("sum investments for %s: %w", p, err)
	}
	return total, nil
}

// UpdateAmount implements ledger.RecordWriter
func (r *SQLiteRepository) UpdateAmount(ctx context.Context, id int64, amount float64) error {
	n, err := r.queries.UpdateInvestmentAmount(ctx, UpdateInvestmentAmountParams{Amount: amount, ID: id})
	if err != nil {
		return fmt.Errorf("update investment amount: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update investment %d: %w", id, ledger.ErrNotFound)
	}

	slog.InfoContext(ctx, "Investment amount updated", applog.FieldComponent, applog.ComponentStorage, "id", id, "amount", amount)
	return nil
}

// Delete implements ledger.RecordWriter
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteInvestment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete investment %d: %w", id, ledger.ErrNotFound)
	}

	slog.InfoContext(ctx, "Investment deleted", applog.FieldComponent, applog.ComponentStorage, "id", id)
	return nil
}

func monthParams(p core.Period) MonthParams {
	return MonthParams{Year: p.YearText(), Month: p.MonthText()}
}

var _ ledger.Repository = (*SQLiteRepository)(nil)
