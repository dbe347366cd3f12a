package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Investment mirrors one row of the investments table.
type Investment struct {
	ID     int64
	Date   string
	Type   string
	Amount float64
}

const createInvestment = `INSERT INTO investments (date, type, amount)
VALUES (?, ?, ?)`

type CreateInvestmentParams struct {
	Date   string
	Type   string
	Amount float64
}

func (q *Queries) CreateInvestment(ctx context.Context, arg CreateInvestmentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createInvestment, arg.Date, arg.Type, arg.Amount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listInvestmentsByMonth = `SELECT id, date, type, amount FROM investments
WHERE strftime('%Y', date) = ? AND strftime('%m', date) = ?
ORDER BY date DESC, id ASC`

type MonthParams struct {
	Year  string
	Month string
}

func (q *Queries) ListInvestmentsByMonth(ctx context.Context, arg MonthParams) ([]Investment, error) {
	rows, err := q.db.QueryContext(ctx, listInvestmentsByMonth, arg.Year, arg.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Investment
	for rows.Next() {
		var i Investment
		if err := rows.Scan(&i.ID, &i.Date, &i.Type, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumInvestmentsByMonth = `SELECT COALESCE(SUM(amount), 0.0) FROM investments
WHERE strftime('%Y', date) = ? AND strftime('%m', date) = ?`

func (q *Queries) SumInvestmentsByMonth(ctx context.Context, arg MonthParams) (float64, error) {
	row := q.db.QueryRowContext(ctx, sumInvestmentsByMonth, arg.Year, arg.Month)
	var total float64
	err := row.Scan(&total)
	return total, err
}

const updateInvestmentAmount = `UPDATE investments SET amount = ? WHERE id = ?`

type UpdateInvestmentAmountParams struct {
	Amount float64
	ID     int64
}

func (q *Queries) UpdateInvestmentAmount(ctx context.Context, arg UpdateInvestmentAmountParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateInvestmentAmount, arg.Amount, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteInvestment = `DELETE FROM investments WHERE id = ?`

func (q *Queries) DeleteInvestment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteInvestment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countInvestmentTables = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'investments'`

func (q *Queries) CountInvestmentTables(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countInvestmentTables)
	var n int64
	err := row.Scan(&n)
	return n, err
}
