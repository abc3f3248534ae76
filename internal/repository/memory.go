package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	busDomain "github.com/swiftbus/service-reservation/internal/domain/bus"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

// MemoryStore is an in-memory implementation of the seat ledger, the
// settlement store and all read repositories, backed by one mutex. It gives
// unit tests the same atomicity guarantees the Postgres implementations get
// from row locks, without a database.
type MemoryStore struct {
	mu           sync.Mutex
	bookings     map[uuid.UUID]*bookingDomain.Booking
	buses        map[uuid.UUID]*busDomain.Bus
	transactions map[uuid.UUID]*bookingDomain.Transaction // keyed by booking ID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:     make(map[uuid.UUID]*bookingDomain.Booking),
		buses:        make(map[uuid.UUID]*busDomain.Bus),
		transactions: make(map[uuid.UUID]*bookingDomain.Transaction),
	}
}

// --- SeatLedger ---

// Claim atomically claims the seats of all given bookings, or none of them.
func (s *MemoryStore) Claim(ctx context.Context, busID uuid.UUID, bookings []*bookingDomain.Booking) error {
	if len(bookings) == 0 {
		return domain.NewValidationError("at least one booking is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buses[busID]; !ok {
		return domain.NewNotFoundError("Bus", busID.String())
	}

	held := s.activeSeatsLocked(busID)
	var taken []int
	for _, bk := range bookings {
		if held[bk.SeatNumber()] {
			taken = append(taken, bk.SeatNumber())
		}
	}
	if len(taken) > 0 {
		sort.Ints(taken)
		return bookingDomain.NewSeatTakenError(taken)
	}

	for _, bk := range bookings {
		s.bookings[bk.ID()] = bk
	}
	return nil
}

// Release cancels whichever active booking holds the seat, if any.
func (s *MemoryStore) Release(ctx context.Context, busID uuid.UUID, seatNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bk := range s.bookings {
		if bk.BusID() == busID && bk.SeatNumber() == seatNumber && bk.Status().IsActive() {
			if err := bk.Cancel("seat released"); err != nil {
				return err
			}
			bk.IncrementVersion()
			return nil
		}
	}
	return nil
}

// Swap moves a pending booking to a new seat atomically.
func (s *MemoryStore) Swap(ctx context.Context, bookingID, busID uuid.UUID, oldSeat, newSeat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.bookings[bookingID]
	if !ok {
		return domain.NewNotFoundError("Booking", bookingID.String())
	}
	if bk.Status() != bookingDomain.StatusPending || bk.SeatNumber() != oldSeat {
		return domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusPending))
	}

	for _, other := range s.bookings {
		if other.ID() != bookingID && other.BusID() == busID &&
			other.SeatNumber() == newSeat && other.Status().IsActive() {
			return bookingDomain.NewSeatTakenError([]int{newSeat})
		}
	}

	if err := bk.ChangeSeat(newSeat); err != nil {
		return err
	}
	bk.IncrementVersion()
	return nil
}

// CancelBooking cancels exactly the given booking, freeing its seat. The
// status check and the cancel happen under one lock, matching the Postgres
// ledger's booking-row lock.
func (s *MemoryStore) CancelBooking(ctx context.Context, bookingID uuid.UUID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.bookings[bookingID]
	if !ok {
		return domain.NewNotFoundError("Booking", bookingID.String())
	}
	if err := bk.Cancel(note); err != nil {
		return err
	}
	bk.IncrementVersion()
	return nil
}

// ExpireHold cancels the booking only if it is still pending.
func (s *MemoryStore) ExpireHold(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.bookings[bookingID]
	if !ok || bk.Status() != bookingDomain.StatusPending {
		return false, nil
	}
	if err := bk.Cancel("hold expired"); err != nil {
		return false, err
	}
	bk.IncrementVersion()
	return true, nil
}

// TakenSeats returns the seat numbers currently held on the bus, ascending.
func (s *MemoryStore) TakenSeats(ctx context.Context, busID uuid.UUID) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.activeSeatsLocked(busID)
	seats := make([]int, 0, len(held))
	for seat := range held {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	return seats, nil
}

func (s *MemoryStore) activeSeatsLocked(busID uuid.UUID) map[int]bool {
	held := make(map[int]bool)
	for _, bk := range s.bookings {
		if bk.BusID() == busID && bk.Status().IsActive() {
			held[bk.SeatNumber()] = true
		}
	}
	return held
}

// --- SettlementStore ---

// Settle records the payment and confirms the booking as one atomic step.
func (s *MemoryStore) Settle(ctx context.Context, txn *bookingDomain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.bookings[txn.BookingID()]
	if !ok {
		return domain.NewNotFoundError("Booking", txn.BookingID().String())
	}
	if err := bk.Confirm(); err != nil {
		return err
	}
	bk.IncrementVersion()
	s.transactions[txn.BookingID()] = txn
	return nil
}

// --- BookingRepository ---

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bk, ok := s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (s *MemoryStore) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*bookingDomain.Booking
	for _, bk := range s.bookings {
		if bk.CustomerID() == customerID {
			matched = append(matched, bk)
		}
	}
	sortBookingsNewestFirst(matched)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (s *MemoryStore) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*bookingDomain.Booking, 0, len(s.bookings))
	for _, bk := range s.bookings {
		matched = append(matched, bk)
	}
	sortBookingsNewestFirst(matched)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, bk := range s.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (s *MemoryStore) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*bookingDomain.Booking
	for _, bk := range s.bookings {
		if bk.Status() == bookingDomain.StatusPending && bk.CreatedAt().Before(cutoff) {
			matched = append(matched, bk)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt().Before(matched[j].CreatedAt())
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// MemoryTransactionRepository is an in-memory implementation of
// TransactionRepository over the shared store.
type MemoryTransactionRepository struct {
	store *MemoryStore
}

// NewMemoryTransactionRepository creates a MemoryTransactionRepository over the store.
func NewMemoryTransactionRepository(store *MemoryStore) *MemoryTransactionRepository {
	return &MemoryTransactionRepository{store: store}
}

func (r *MemoryTransactionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.transactions[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("Transaction", bookingID.String())
	}
	return txn, nil
}

func (r *MemoryTransactionRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Transaction, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := make([]*bookingDomain.Transaction, 0, len(r.store.transactions))
	for _, txn := range r.store.transactions {
		matched = append(matched, txn)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PaidAt().After(matched[j].PaidAt())
	})
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func sortBookingsNewestFirst(bookings []*bookingDomain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt().After(bookings[j].CreatedAt())
	})
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// MemoryBusRepository is an in-memory implementation of BusRepository,
// sharing the store so the ledger can see registered buses.
type MemoryBusRepository struct {
	store *MemoryStore
}

// NewMemoryBusRepository creates a MemoryBusRepository over the store.
func NewMemoryBusRepository(store *MemoryStore) *MemoryBusRepository {
	return &MemoryBusRepository{store: store}
}

func (r *MemoryBusRepository) FindByID(ctx context.Context, id uuid.UUID) (*busDomain.Bus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.buses[id]
	if !ok {
		return nil, domain.NewNotFoundError("Bus", id.String())
	}
	return b, nil
}

func (r *MemoryBusRepository) ListAvailable(ctx context.Context, page, limit int) ([]*busDomain.Bus, int64, error) {
	return r.list(func(b *busDomain.Bus) bool { return b.Available() }, page, limit)
}

func (r *MemoryBusRepository) ListAll(ctx context.Context, page, limit int) ([]*busDomain.Bus, int64, error) {
	return r.list(func(b *busDomain.Bus) bool { return true }, page, limit)
}

func (r *MemoryBusRepository) list(match func(*busDomain.Bus) bool, page, limit int) ([]*busDomain.Bus, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*busDomain.Bus
	for _, b := range r.store.buses {
		if match(b) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DepartureAt().Before(matched[j].DepartureAt())
	})
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (r *MemoryBusRepository) Search(ctx context.Context, date time.Time, from, to string) ([]*busDomain.Bus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	day := date.UTC().Format("2006-01-02")
	fromLower := strings.ToLower(from)
	toLower := strings.ToLower(to)

	var matched []*busDomain.Bus
	for _, b := range r.store.buses {
		route := strings.ToLower(b.Route())
		if b.Available() &&
			b.DepartureAt().UTC().Format("2006-01-02") == day &&
			strings.Contains(route, fromLower) &&
			strings.Contains(route, toLower) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DepartureAt().Before(matched[j].DepartureAt())
	})
	return matched, nil
}

func (r *MemoryBusRepository) Save(ctx context.Context, b *busDomain.Bus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.buses[b.ID()] = b
	return nil
}

func (r *MemoryBusRepository) Update(ctx context.Context, b *busDomain.Bus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.buses[b.ID()]; !ok {
		return domain.NewNotFoundError("Bus", b.ID().String())
	}
	r.store.buses[b.ID()] = b
	return nil
}

func (r *MemoryBusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.buses[id]; !ok {
		return domain.NewNotFoundError("Bus", id.String())
	}
	delete(r.store.buses, id)
	return nil
}
