package repository

import (
	"context"

	"taxi/internal/domain"
)

// ExpenseRepository defines the persistence operations for expenses.
type ExpenseRepository interface {
	// Create persists a new expense.
	Create(ctx context.Context, expense *domain.Expense) error

	// GetByID retrieves an expense by ID.
	GetByID(ctx context.Context, id string) (*domain.Expense, error)

	// ListByDateRange retrieves the expenses dated inside the range, ordered
	// by date.
	ListByDateRange(ctx context.Context, r domain.DateRange) ([]*domain.Expense, error)

	// Update updates an existing expense.
	Update(ctx context.Context, expense *domain.Expense) error

	// Delete removes an expense.
	Delete(ctx context.Context, id string) error
}
