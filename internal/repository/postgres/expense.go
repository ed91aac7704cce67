package postgres

import (
	"context"
	"database/sql"
	"errors"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

const expenseColumns = `id, expense_date, category, subtype, invoice_number, supplier, total_amount, vat_included, vat_amount, mileage, notes`

// ExpenseRepository is a PostgreSQL implementation of repository.ExpenseRepository.
type ExpenseRepository struct {
	q Querier
}

// NewExpenseRepository creates a new PostgreSQL expense repository.
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{q: db}
}

// NewExpenseRepositoryWithTx creates an expense repository using a transaction.
func NewExpenseRepositoryWithTx(tx *sql.Tx) *ExpenseRepository {
	return &ExpenseRepository{q: tx}
}

// Create persists a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		expense.ID,
		expense.Date.Format(domain.DateLayout),
		expense.Category,
		expense.Subtype,
		expense.InvoiceNumber,
		expense.Supplier,
		expense.TotalAmount,
		expense.VATIncluded,
		expense.VATAmount,
		nullMileage(expense.Mileage),
		expense.Notes,
	)

	return err
}

// GetByID retrieves an expense by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	expense, err := scanExpense(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return expense, nil
}

// ListByDateRange retrieves the expenses dated inside the range.
func (r *ExpenseRepository) ListByDateRange(ctx context.Context, dr domain.DateRange) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE expense_date BETWEEN $1 AND $2
		ORDER BY expense_date, id
	`

	rows, err := r.q.QueryContext(ctx, query, dr.From.Format(domain.DateLayout), dr.To.Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// Update updates an existing expense.
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	query := `
		UPDATE expenses
		SET expense_date = $1, category = $2, subtype = $3, invoice_number = $4, supplier = $5, total_amount = $6, vat_included = $7, vat_amount = $8, mileage = $9, notes = $10
		WHERE id = $11
	`

	result, err := r.q.ExecContext(ctx, query,
		expense.Date.Format(domain.DateLayout),
		expense.Category,
		expense.Subtype,
		expense.InvoiceNumber,
		expense.Supplier,
		expense.TotalAmount,
		expense.VATIncluded,
		expense.VATAmount,
		nullMileage(expense.Mileage),
		expense.Notes,
		expense.ID,
	)
	if err != nil {
		return err
	}

	return affectedOne(result)
}

// Delete removes an expense.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return affectedOne(result)
}

func nullMileage(mileage *int64) sql.NullInt64 {
	if mileage == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *mileage, Valid: true}
}

func scanExpense(row scanner) (*domain.Expense, error) {
	var expense domain.Expense
	var mileage sql.NullInt64

	if err := row.Scan(
		&expense.ID,
		&expense.Date,
		&expense.Category,
		&expense.Subtype,
		&expense.InvoiceNumber,
		&expense.Supplier,
		&expense.TotalAmount,
		&expense.VATIncluded,
		&expense.VATAmount,
		&mileage,
		&expense.Notes,
	); err != nil {
		return nil, err
	}

	expense.Date = domain.DateOf(expense.Date)
	if mileage.Valid {
		v := mileage.Int64
		expense.Mileage = &v
	}

	return &expense, nil
}

// Ensure ExpenseRepository implements repository.ExpenseRepository.
var _ repository.ExpenseRepository = (*ExpenseRepository)(nil)
