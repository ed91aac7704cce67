package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"taxi/internal/domain"
	"taxi/internal/redis"
	"taxi/internal/repository"
	"taxi/internal/service"
)

// ──────────────────────────────────────────────
// MOCK SHIFT REPOSITORY
// ──────────────────────────────────────────────

// MockShiftRepository is a mock implementation of ShiftRepository. Like the
// partial unique index in PostgreSQL, it refuses a second active shift.
type MockShiftRepository struct {
	mu     sync.RWMutex
	shifts map[string]*domain.Shift

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError    error
	UpdateError    error
	DeleteError    error
	GetActiveError error
	ListError      error
}

// NewMockShiftRepository creates a new mock shift repository.
func NewMockShiftRepository() *MockShiftRepository {
	return &MockShiftRepository{
		shifts: make(map[string]*domain.Shift),
	}
}

// AddShift adds a shift to the mock repository.
func (m *MockShiftRepository) AddShift(shift *domain.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *shift
	m.shifts[shift.ID] = &copy
}

func (m *MockShiftRepository) activeOtherThan(id string) bool {
	for _, s := range m.shifts {
		if s.IsActive && s.ID != id {
			return true
		}
	}
	return false
}

func (m *MockShiftRepository) Create(ctx context.Context, shift *domain.Shift) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if shift.IsActive && m.activeOtherThan(shift.ID) {
		return repository.ErrActiveShiftExists
	}
	copy := *shift
	m.shifts[shift.ID] = &copy
	return nil
}

func (m *MockShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shift, ok := m.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *shift
	return &copy, nil
}

func (m *MockShiftRepository) GetActive(ctx context.Context) (*domain.Shift, error) {
	if m.GetActiveError != nil {
		return nil, m.GetActiveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shifts {
		if s.IsActive {
			copy := *s
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockShiftRepository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.shifts {
		if s.Date.Equal(domain.DateOf(date)) {
			n++
		}
	}
	return n, nil
}

func (m *MockShiftRepository) ListByDateRange(ctx context.Context, r domain.DateRange) ([]*domain.Shift, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Shift, 0)
	for _, s := range m.shifts {
		if r.Contains(s.Date) {
			copy := *s
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

func (m *MockShiftRepository) Update(ctx context.Context, shift *domain.Shift) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[shift.ID]; !ok {
		return repository.ErrNotFound
	}
	if shift.IsActive && m.activeOtherThan(shift.ID) {
		return repository.ErrActiveShiftExists
	}
	copy := *shift
	m.shifts[shift.ID] = &copy
	return nil
}

func (m *MockShiftRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.shifts, id)
	return nil
}

// GetShift returns shift for test assertions.
func (m *MockShiftRepository) GetShift(id string) *domain.Shift {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shifts[id]
}

// CountActive returns the number of active shifts.
func (m *MockShiftRepository) CountActive() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.shifts {
		if s.IsActive {
			n++
		}
	}
	return n
}

func (m *MockShiftRepository) snapshot() map[string]domain.Shift {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.Shift, len(m.shifts))
	for id, s := range m.shifts {
		snap[id] = *s
	}
	return snap
}

func (m *MockShiftRepository) restore(snap map[string]domain.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts = make(map[string]*domain.Shift, len(snap))
	for id, s := range snap {
		s := s
		m.shifts[id] = &s
	}
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. It needs the
// shift repository to resolve shift dates.
type MockRideRepository struct {
	mu     sync.RWMutex
	rides  map[string]*domain.Ride
	seq    int64
	shifts *MockShiftRepository

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	DeleteError error
	ListError   error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository(shifts *MockShiftRepository) *MockRideRepository {
	return &MockRideRepository{
		rides:  make(map[string]*domain.Ride),
		shifts: shifts,
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	copy := *ride
	copy.Sequence = m.seq
	m.rides[ride.ID] = &copy
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ride.Sequence = m.seq
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func sortRides(rides []*domain.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		if !rides[i].Time.Equal(rides[j].Time) {
			return rides[i].Time.Before(rides[j].Time)
		}
		return rides[i].Sequence < rides[j].Sequence
	})
}

func (m *MockRideRepository) ListByShift(ctx context.Context, shiftID string) ([]*domain.Ride, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.ShiftID == shiftID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortRides(result)
	return result, nil
}

func (m *MockRideRepository) ListByShiftDateRange(ctx context.Context, r domain.DateRange) ([]*domain.Ride, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	shifts, err := m.shifts.ListByDateRange(ctx, r)
	if err != nil {
		return nil, err
	}
	inRange := make(map[string]bool, len(shifts))
	for _, s := range shifts {
		inRange[s.ID] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, ride := range m.rides {
		if inRange[ride.ShiftID] {
			copy := *ride
			result = append(result, &copy)
		}
	}
	sortRides(result)
	return result, nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	copy := *ride
	copy.Sequence = existing.Sequence
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rides, id)
	return nil
}

func (m *MockRideRepository) DeleteByShift(ctx context.Context, shiftID string) (int, error) {
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.rides {
		if r.ShiftID == shiftID {
			delete(m.rides, id)
			n++
		}
	}
	return n, nil
}

// GetRide returns ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of stored rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

func (m *MockRideRepository) snapshot() map[string]domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.Ride, len(m.rides))
	for id, r := range m.rides {
		snap[id] = *r
	}
	return snap
}

func (m *MockRideRepository) restore(snap map[string]domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = make(map[string]*domain.Ride, len(snap))
	for id, r := range snap {
		r := r
		m.rides[id] = &r
	}
}

// ──────────────────────────────────────────────
// MOCK EXPENSE REPOSITORY
// ──────────────────────────────────────────────

// MockExpenseRepository is a mock implementation of ExpenseRepository.
type MockExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[string]*domain.Expense

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
	ListError   error
}

// NewMockExpenseRepository creates a new mock expense repository.
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		expenses: make(map[string]*domain.Expense),
	}
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *expense
	m.expenses[expense.ID] = &copy
	return nil
}

func (m *MockExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	expense, ok := m.expenses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *expense
	return &copy, nil
}

func (m *MockExpenseRepository) ListByDateRange(ctx context.Context, r domain.DateRange) ([]*domain.Expense, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Expense, 0)
	for _, e := range m.expenses {
		if r.Contains(e.Date) {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[expense.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *expense
	m.expenses[expense.ID] = &copy
	return nil
}

func (m *MockExpenseRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

// CountExpenses returns the number of stored expenses.
func (m *MockExpenseRepository) CountExpenses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.expenses)
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs units of work one at a time against the mock
// repositories and restores their contents when fn fails.
type MockTransactor struct {
	mu       sync.Mutex
	shifts   *MockShiftRepository
	rides    *MockRideRepository
	expenses *MockExpenseRepository

	// Counters
	TxCount       int32
	RollbackCount int32

	// Error injection
	BeginError error
}

// NewMockTransactor creates a new mock transactor over the given repositories.
func NewMockTransactor(shifts *MockShiftRepository, rides *MockRideRepository, expenses *MockExpenseRepository) *MockTransactor {
	return &MockTransactor{shifts: shifts, rides: rides, expenses: expenses}
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	atomic.AddInt32(&m.TxCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	shiftSnap := m.shifts.snapshot()
	rideSnap := m.rides.snapshot()

	err := fn(ctx, repository.Repositories{
		Shifts:   m.shifts,
		Rides:    m.rides,
		Expenses: m.expenses,
	})
	if err != nil {
		atomic.AddInt32(&m.RollbackCount, 1)
		m.shifts.restore(shiftSnap)
		m.rides.restore(rideSnap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu       sync.Mutex
	token    string
	lockedAt time.Time
	ttl      time.Duration
	seq      int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{}
}

func (m *MockLockStore) heldLocked() bool {
	return m.token != "" && time.Since(m.lockedAt) < m.ttl
}

func (m *MockLockStore) AcquireShiftStartLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.heldLocked() {
		return "", false, nil // Lock still held.
	}
	m.seq++
	m.token = fmt.Sprintf("token-%d", m.seq)
	m.lockedAt = time.Now()
	m.ttl = ttl
	return m.token, true, nil
}

func (m *MockLockStore) ReleaseShiftStartLock(ctx context.Context, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == token {
		m.token = ""
	}
	return nil
}

// IsLocked checks if the shift start lock is held (for test assertions).
func (m *MockLockStore) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heldLocked()
}

// ──────────────────────────────────────────────
// MOCK SETTINGS STORE
// ──────────────────────────────────────────────

// MockSettingsStore is a mock implementation of SettingsStore.
type MockSettingsStore struct {
	mu     sync.Mutex
	target *decimal.Decimal

	// Error injection
	GetError error
	SetError error
}

// NewMockSettingsStore creates a new mock settings store.
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{}
}

func (m *MockSettingsStore) GetTargetAmount(ctx context.Context) (decimal.Decimal, bool, error) {
	if m.GetError != nil {
		return decimal.Zero, false, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target == nil {
		return decimal.Zero, false, nil
	}
	return *m.target, true, nil
}

func (m *MockSettingsStore) SetTargetAmount(ctx context.Context, amount decimal.Decimal) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = &amount
	return nil
}

// ──────────────────────────────────────────────
// RECORDING NOTIFICATION SENDER
// ──────────────────────────────────────────────

// RecordingSender keeps every notification it is asked to deliver.
type RecordingSender struct {
	mu   sync.Mutex
	sent []string

	// Error injection
	SendError error
}

// NewRecordingSender creates a new recording sender.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

// Send records the notification type.
func (s *RecordingSender) Send(ctx context.Context, n service.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, string(n.Type))
	return s.SendError
}

// Sent returns the recorded notification types in order.
func (s *RecordingSender) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// ──────────────────────────────────────────────
// MOCK IDEMPOTENCY STORE
// ──────────────────────────────────────────────

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	// Error injection
	GetError error
}

// NewMockIdempotencyStore creates a new mock idempotency store.
func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{entries: make(map[string][]byte)}
}

func (m *MockIdempotencyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *MockIdempotencyStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), payload...)
	return nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConnection = errors.New("mock: database connection failed")
	ErrMockRedis        = errors.New("mock: redis unavailable")
)

// Ensure mocks implement interfaces.
var (
	_ repository.ShiftRepository      = (*MockShiftRepository)(nil)
	_ repository.RideRepository       = (*MockRideRepository)(nil)
	_ repository.ExpenseRepository    = (*MockExpenseRepository)(nil)
	_ repository.Transactor           = (*MockTransactor)(nil)
	_ redis.LockStoreInterface        = (*MockLockStore)(nil)
	_ redis.SettingsStoreInterface    = (*MockSettingsStore)(nil)
	_ redis.IdempotencyStoreInterface = (*MockIdempotencyStore)(nil)
	_ service.Sender                  = (*RecordingSender)(nil)
)
