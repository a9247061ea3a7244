package storage

import (
	"context"
	"database/sql"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// TransactionRepo provides operations for earnings entries.
type TransactionRepo struct {
	db *DB
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Create records an income or expense entry and queues it for sync.
// A zero Date means now.
func (r *TransactionRepo) Create(ctx context.Context, in model.TransactionInput) (int64, error) {
	if err := validate.Transaction(in); err != nil {
		return 0, err
	}
	if in.Date.IsZero() {
		in.Date = r.db.Now()
	}
	in.Date = in.Date.UTC()

	var id int64
	err := r.db.write(ctx, "transaction.create", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO earnings (type, amount, category, notes, date, synced) VALUES (?, ?, ?, ?, ?, 0)`,
			string(in.Kind), in.Amount, in.Category, nullString(in.Notes), formatTime(in.Date))
		if err != nil {
			return storageErr("transaction.create", "failed to insert transaction", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("transaction.create", "failed to read id", err)
		}

		_, err = r.db.appendOutbox(ctx, tx, model.EntityTransactions, nil, model.OpInsert, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every transaction, newest date first.
func (r *TransactionRepo) List(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, type, amount, category, notes, date, synced FROM earnings ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, storageErr("transaction.list", "failed to list transactions", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var (
			t     model.Transaction
			kind  string
			notes sql.NullString
			date  string
		)
		if err := rows.Scan(&t.ID, &kind, &t.Amount, &t.Category, &notes, &date, &t.Synced); err != nil {
			return nil, storageErr("transaction.list", "failed to scan transaction", err)
		}
		t.Kind = model.TransactionKind(kind)
		t.Notes = notes.String
		t.Date = parseTime(date)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("transaction.list", "row iteration failed", err)
	}
	return txns, nil
}
