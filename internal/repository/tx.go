package repository

import "context"

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Shifts   ShiftRepository
	Rides    RideRepository
	Expenses ExpenseRepository
}

// Transactor runs fn inside a transaction. The repositories handed to fn are
// bound to that transaction; it commits when fn returns nil and rolls back
// otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
