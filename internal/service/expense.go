package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

var expenseLogger = loggo.GetLogger("taxi.service.expense")

// ExpenseService keeps the expense ledger.
type ExpenseService struct {
	expenseRepo repository.ExpenseRepository
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(expenseRepo repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{expenseRepo: expenseRepo}
}

// ExpenseRequest contains the fields of an expense.
type ExpenseRequest struct {
	Date          time.Time
	Category      domain.ExpenseCategory
	Subtype       domain.ExpenseSubtype
	InvoiceNumber string
	Supplier      string
	TotalAmount   domain.Money
	VATIncluded   bool
	Mileage       *int64
	Notes         string
}

func (req ExpenseRequest) validate() error {
	if req.Date.IsZero() {
		return ErrMissingDate
	}
	if !domain.ValidAmount(req.TotalAmount) {
		return ErrInvalidAmount
	}
	if req.Mileage != nil && *req.Mileage < 0 {
		return ErrNegativeMileage
	}
	if !req.Category.Valid() {
		return ErrInvalidCategory
	}
	if !req.Category.Allows(req.Subtype) {
		return ErrInvalidSubtype
	}
	return nil
}

func (req ExpenseRequest) apply(e *domain.Expense) {
	e.Date = domain.DateOf(req.Date)
	e.Category = req.Category
	e.Subtype = req.Subtype
	e.InvoiceNumber = req.InvoiceNumber
	e.Supplier = req.Supplier
	e.ApplyTotal(req.TotalAmount, req.VATIncluded)
	e.Mileage = nil
	if req.Mileage != nil {
		m := *req.Mileage
		e.Mileage = &m
	}
	e.Notes = req.Notes
}

// RecordExpense adds an expense to the ledger.
func (s *ExpenseService) RecordExpense(ctx context.Context, req ExpenseRequest) (*domain.Expense, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	expense := &domain.Expense{ID: uuid.New().String()}
	req.apply(expense)

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, errors.Annotate(storageError(err), "recording expense")
	}

	expenseLogger.Debugf("expense %s recorded: %s/%s %s", expense.ID, expense.Category, expense.Subtype, expense.TotalAmount.StringFixed(2))
	return expense, nil
}

// UpdateExpense replaces the fields of an expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, req ExpenseRequest) (*domain.Expense, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	expense, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, errors.Annotatef(err, "updating expense %s", id)
	}
	req.apply(expense)

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, errors.Annotatef(storageError(err), "updating expense %s", id)
	}
	return expense, nil
}

// GetExpense retrieves an expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	expense, err := s.getExpense(ctx, id)
	if err != nil {
		return nil, errors.Annotatef(err, "reading expense %s", id)
	}
	return expense, nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return errors.Annotatef(storageError(err), "deleting expense %s", id)
	}
	return nil
}

// ListExpenses lists the expenses dated inside r, ordered by date then id.
func (s *ExpenseService) ListExpenses(ctx context.Context, r domain.DateRange) ([]*domain.Expense, error) {
	if err := r.Validate(); err != nil {
		return nil, invalidRange(err)
	}
	expenses, err := s.expenseRepo.ListByDateRange(ctx, r)
	if err != nil {
		return nil, errors.Annotate(storageError(err), "listing expenses")
	}
	return expenses, nil
}

func (s *ExpenseService) getExpense(ctx context.Context, id string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, storageError(err)
	}
	return expense, nil
}
