package tests

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is an in-memory stand-in for the Postgres store. It enforces
// the schema's uniqueness rules and cascades, and runs WithinTx one at a
// time with rollback on error.
type MockStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	seq           int
	order         map[string]int
	trips         map[string]*domain.Trip
	offers        map[string]*domain.Offer
	joins         map[string]*domain.JoinRequest
	notifications map[string]*domain.Notification

	calls map[string]int
	ops   []string
	errs  map[string]error

	// Counters for verification
	TxCount       int32
	RollbackCount int32
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		order:         make(map[string]int),
		trips:         make(map[string]*domain.Trip),
		offers:        make(map[string]*domain.Offer),
		joins:         make(map[string]*domain.JoinRequest),
		notifications: make(map[string]*domain.Notification),
		calls:         make(map[string]int),
		errs:          make(map[string]error),
	}
}

// FailOn makes every call to op return err, e.g. "Offers.ReserveSeats"
// or "Tx.Commit".
func (m *MockStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op] = err
}

// ClearFailures removes all injected errors.
func (m *MockStore) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = make(map[string]error)
}

// Calls returns how many times op was invoked.
func (m *MockStore) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Ops returns every repository call made so far, in order.
func (m *MockStore) Ops() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.ops)
}

// call records op and returns its injected error. Caller holds m.mu.
func (m *MockStore) call(op string) error {
	m.calls[op]++
	m.ops = append(m.ops, op)
	return m.errs[op]
}

func (m *MockStore) track(id string) {
	m.seq++
	m.order[id] = m.seq
}

// before orders by creation time, then by insertion.
func (m *MockStore) before(aID string, aAt time.Time, bID string, bAt time.Time) int {
	if c := aAt.Compare(bAt); c != 0 {
		return c
	}
	return m.order[aID] - m.order[bID]
}

// Repositories returns repositories bound to the store.
func (m *MockStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Trips:         &MockTripRepository{s: m},
		Offers:        &MockOfferRepository{s: m},
		Joins:         &MockJoinRepository{s: m},
		Notifications: &MockNotificationRepository{s: m},
	}
}

type snapshot struct {
	seq           int
	order         map[string]int
	trips         map[string]*domain.Trip
	offers        map[string]*domain.Offer
	joins         map[string]*domain.JoinRequest
	notifications map[string]*domain.Notification
}

func cloneMap[T any](src map[string]*T) map[string]*T {
	dst := make(map[string]*T, len(src))
	for k, v := range src {
		c := *v
		dst[k] = &c
	}
	return dst
}

func (m *MockStore) snapshot() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order := make(map[string]int, len(m.order))
	for k, v := range m.order {
		order[k] = v
	}
	return snapshot{
		seq:           m.seq,
		order:         order,
		trips:         cloneMap(m.trips),
		offers:        cloneMap(m.offers),
		joins:         cloneMap(m.joins),
		notifications: cloneMap(m.notifications),
	}
}

func (m *MockStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = s.seq
	m.order = s.order
	m.trips = s.trips
	m.offers = s.offers
	m.joins = s.joins
	m.notifications = s.notifications
}

// WithinTx runs fn and undoes all of its writes when it fails.
func (m *MockStore) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	atomic.AddInt32(&m.TxCount, 1)

	snap := m.snapshot()
	err := fn(m.Repositories())
	if err == nil {
		m.mu.Lock()
		err = m.call("Tx.Commit")
		m.mu.Unlock()
	}
	if err != nil {
		m.restore(snap)
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}
	return nil
}

// AddTrip stores a trip, filling in ID, role and creation time when empty.
func (m *MockStore) AddTrip(t *domain.Trip) *domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Role == "" {
		t.Role = domain.TripRoleRequest
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Date = domain.Day(t.Date)
	c := *t
	m.trips[t.ID] = &c
	m.track(t.ID)
	return t
}

// AddOffer stores an offer, filling in ID and creation time when empty.
func (m *MockStore) AddOffer(o *domain.Offer) *domain.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.Date = domain.Day(o.Date)
	c := *o
	m.offers[o.ID] = &c
	m.track(o.ID)
	return o
}

// AddJoin stores a join as-is, bypassing constraint checks.
func (m *MockStore) AddJoin(j *domain.JoinRequest) *domain.JoinRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = domain.JoinStatusPending
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	c := *j
	m.joins[j.ID] = &c
	m.track(j.ID)
	return j
}

// Trip returns a copy of the stored trip, or nil.
func (m *MockStore) Trip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

// Offer returns a copy of the stored offer, or nil.
func (m *MockStore) Offer(id string) *domain.Offer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return nil
	}
	c := *o
	return &c
}

// Join returns a copy of the stored join, or nil.
func (m *MockStore) Join(id string) *domain.JoinRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.joins[id]
	if !ok {
		return nil
	}
	c := *j
	return &c
}

// AllJoins returns copies of every join in creation order.
func (m *MockStore) AllJoins() []*domain.JoinRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedJoins(func(*domain.JoinRequest) bool { return true })
}

// NotificationsFor returns copies of a user's notifications in creation order.
func (m *MockStore) NotificationsFor(userID string) []*domain.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range m.notifications {
		if n.RecipientID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Notification) int {
		return m.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
	})
	return out
}

// NotificationCount returns how many notifications are stored.
func (m *MockStore) NotificationCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notifications)
}

// sortedJoins returns copies of matching joins in creation order. Caller holds m.mu.
func (m *MockStore) sortedJoins(keep func(*domain.JoinRequest) bool) []*domain.JoinRequest {
	var out []*domain.JoinRequest
	for _, j := range m.joins {
		if keep(j) {
			c := *j
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.JoinRequest) int {
		return m.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
	})
	return out
}

// acceptedOnTrip reports whether a join other than exceptID is accepted on tripID.
func (m *MockStore) acceptedOnTrip(tripID, exceptID string) bool {
	for _, j := range m.joins {
		if j.ID != exceptID && j.TripID == tripID && j.Status == domain.JoinStatusAccepted {
			return true
		}
	}
	return false
}

// keyTaken reports whether another join already has this natural key.
func (m *MockStore) keyTaken(userID string, target domain.ParentType, tripID, offerID, exceptID string) bool {
	for _, j := range m.joins {
		if j.ID != exceptID && j.UserID == userID && j.Target == target && j.TripID == tripID && j.OfferID == offerID {
			return true
		}
	}
	return false
}

// deleteJoins removes joins and clears notification references to them.
func (m *MockStore) deleteJoins(keep func(*domain.JoinRequest) bool) {
	for id, j := range m.joins {
		if keep(j) {
			continue
		}
		delete(m.joins, id)
		for _, n := range m.notifications {
			if n.JoinID == id {
				n.JoinID = ""
			}
		}
	}
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository implements repository.TripRepository over a MockStore.
type MockTripRepository struct {
	s *MockStore
}

func (r *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.Create"); err != nil {
		return err
	}
	if _, ok := m.trips[trip.ID]; ok {
		return repository.ErrDuplicate
	}
	c := *trip
	m.trips[trip.ID] = &c
	m.track(trip.ID)
	return nil
}

func (r *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.GetByID"); err != nil {
		return nil, err
	}
	t, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *MockTripRepository) list(keep func(*domain.Trip) bool, cmp func(a, b *domain.Trip) int) []*domain.Trip {
	m := r.s
	out := []*domain.Trip{}
	for _, t := range m.trips {
		if keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, cmp)
	return out
}

func (r *MockTripRepository) byCreation(a, b *domain.Trip) int {
	return r.s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
}

func (r *MockTripRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Trip, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.ListByUser"); err != nil {
		return nil, err
	}
	return r.list(
		func(t *domain.Trip) bool { return t.UserID == userID },
		func(a, b *domain.Trip) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return r.byCreation(a, b)
		},
	), nil
}

func (r *MockTripRepository) ListByUserOnDate(ctx context.Context, userID string, date time.Time) ([]*domain.Trip, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.ListByUserOnDate"); err != nil {
		return nil, err
	}
	return r.list(
		func(t *domain.Trip) bool { return t.UserID == userID && domain.SameDay(t.Date, date) },
		r.byCreation,
	), nil
}

func (r *MockTripRepository) ListForSearch(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.ListForSearch"); err != nil {
		return nil, err
	}
	return r.list(func(t *domain.Trip) bool {
		return domain.SameDay(t.Date, filter.Date) &&
			t.People <= filter.MaxPeople &&
			(!filter.PetsRequired || t.Pets) &&
			t.UserID != filter.ExcludeUserID &&
			!m.acceptedOnTrip(t.ID, "")
	}, r.byCreation), nil
}

func (r *MockTripRepository) ListJoinedBy(ctx context.Context, userID string) ([]*domain.JoinedTrip, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.ListJoinedBy"); err != nil {
		return nil, err
	}
	out := []*domain.JoinedTrip{}
	for _, j := range m.sortedJoins(func(j *domain.JoinRequest) bool {
		return j.UserID == userID && j.Target == domain.ParentTrip
	}) {
		t, ok := m.trips[j.TripID]
		if !ok {
			continue
		}
		out = append(out, &domain.JoinedTrip{Trip: *t, JoinID: j.ID, JoinStatus: j.Status})
	}
	slices.SortStableFunc(out, func(a, b *domain.JoinedTrip) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (r *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.Update"); err != nil {
		return err
	}
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *trip
	m.trips[trip.ID] = &c
	return nil
}

// deleteTrip removes a trip with ON DELETE CASCADE / SET NULL semantics. Caller holds m.mu.
func (m *MockStore) deleteTrip(id string) {
	delete(m.trips, id)
	m.deleteJoins(func(j *domain.JoinRequest) bool { return j.TripID != id })
	for _, n := range m.notifications {
		if n.TripID == id {
			n.TripID = ""
		}
	}
}

func (r *MockTripRepository) Delete(ctx context.Context, id string) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.Delete"); err != nil {
		return err
	}
	if _, ok := m.trips[id]; !ok {
		return repository.ErrNotFound
	}
	m.deleteTrip(id)
	return nil
}

func (r *MockTripRepository) DeleteBefore(ctx context.Context, day time.Time) (int64, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Trips.DeleteBefore"); err != nil {
		return 0, err
	}
	cutoff := domain.Day(day)
	var n int64
	for id, t := range m.trips {
		if t.Date.Before(cutoff) {
			m.deleteTrip(id)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────
// MOCK OFFER REPOSITORY
// ──────────────────────────────────────────────

// MockOfferRepository implements repository.OfferRepository over a MockStore.
type MockOfferRepository struct {
	s *MockStore
}

func (r *MockOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.Create"); err != nil {
		return err
	}
	if _, ok := m.offers[offer.ID]; ok {
		return repository.ErrDuplicate
	}
	c := *offer
	m.offers[offer.ID] = &c
	m.track(offer.ID)
	return nil
}

func (r *MockOfferRepository) get(op, id string) (*domain.Offer, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(op); err != nil {
		return nil, err
	}
	o, ok := m.offers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (r *MockOfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	return r.get("Offers.GetByID", id)
}

func (r *MockOfferRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Offer, error) {
	return r.get("Offers.GetByIDForUpdate", id)
}

func (r *MockOfferRepository) list(keep func(*domain.Offer) bool, cmp func(a, b *domain.Offer) int) []*domain.Offer {
	m := r.s
	out := []*domain.Offer{}
	for _, o := range m.offers {
		if keep(o) {
			c := *o
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, cmp)
	return out
}

func (r *MockOfferRepository) byCreation(a, b *domain.Offer) int {
	return r.s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
}

func (r *MockOfferRepository) ListByUser(ctx context.Context, userID string) ([]*domain.OwnedOffer, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.ListByUser"); err != nil {
		return nil, err
	}
	offers := r.list(
		func(o *domain.Offer) bool { return o.UserID == userID },
		func(a, b *domain.Offer) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return r.byCreation(a, b)
		},
	)
	out := make([]*domain.OwnedOffer, 0, len(offers))
	for _, o := range offers {
		count := 0
		for _, j := range m.joins {
			if j.OfferID == o.ID && j.Status == domain.JoinStatusAccepted {
				count++
			}
		}
		out = append(out, &domain.OwnedOffer{Offer: *o, PassengersCount: count})
	}
	return out, nil
}

func (r *MockOfferRepository) ListOnDate(ctx context.Context, date time.Time) ([]*domain.Offer, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.ListOnDate"); err != nil {
		return nil, err
	}
	return r.list(func(o *domain.Offer) bool { return domain.SameDay(o.Date, date) }, r.byCreation), nil
}

func (r *MockOfferRepository) ListForSearch(ctx context.Context, filter repository.OfferFilter) ([]*domain.Offer, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.ListForSearch"); err != nil {
		return nil, err
	}
	return r.list(func(o *domain.Offer) bool {
		return domain.SameDay(o.Date, filter.Date) &&
			o.SeatsAvailable >= filter.MinSeats &&
			(!filter.PetsRequired || o.Pets)
	}, r.byCreation), nil
}

func (r *MockOfferRepository) ListJoinedBy(ctx context.Context, userID string) ([]*domain.JoinedOffer, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.ListJoinedBy"); err != nil {
		return nil, err
	}
	out := []*domain.JoinedOffer{}
	for _, j := range m.sortedJoins(func(j *domain.JoinRequest) bool {
		return j.UserID == userID && j.Target == domain.ParentOffer
	}) {
		o, ok := m.offers[j.OfferID]
		if !ok {
			continue
		}
		out = append(out, &domain.JoinedOffer{Offer: *o, JoinID: j.ID, JoinStatus: j.Status})
	}
	slices.SortStableFunc(out, func(a, b *domain.JoinedOffer) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (r *MockOfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.Update"); err != nil {
		return err
	}
	if _, ok := m.offers[offer.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *offer
	m.offers[offer.ID] = &c
	return nil
}

func (r *MockOfferRepository) ReserveSeats(ctx context.Context, id string, n int) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.ReserveSeats"); err != nil {
		return err
	}
	o, ok := m.offers[id]
	if !ok || o.SeatsAvailable < n {
		return repository.ErrConditionFailed
	}
	o.SeatsAvailable -= n
	return nil
}

func (r *MockOfferRepository) ReleaseSeats(ctx context.Context, id string, n int) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.ReleaseSeats"); err != nil {
		return err
	}
	o, ok := m.offers[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.SeatsAvailable += n
	return nil
}

// deleteOffer removes an offer with ON DELETE CASCADE / SET NULL semantics. Caller holds m.mu.
func (m *MockStore) deleteOffer(id string) {
	delete(m.offers, id)
	m.deleteJoins(func(j *domain.JoinRequest) bool { return j.OfferID != id })
	for _, n := range m.notifications {
		if n.OfferID == id {
			n.OfferID = ""
		}
	}
}

func (r *MockOfferRepository) Delete(ctx context.Context, id string) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.Delete"); err != nil {
		return err
	}
	if _, ok := m.offers[id]; !ok {
		return repository.ErrNotFound
	}
	m.deleteOffer(id)
	return nil
}

func (r *MockOfferRepository) DeleteExpired(ctx context.Context, day time.Time) (int64, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Offers.DeleteExpired"); err != nil {
		return 0, err
	}
	cutoff := domain.Day(day)
	var n int64
	for id, o := range m.offers {
		if !o.ValidUntil.IsZero() && o.ValidUntil.Before(cutoff) {
			m.deleteOffer(id)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────
// MOCK JOIN REPOSITORY
// ──────────────────────────────────────────────

// MockJoinRepository implements repository.JoinRepository over a MockStore.
type MockJoinRepository struct {
	s *MockStore
}

func (r *MockJoinRepository) Insert(ctx context.Context, join *domain.JoinRequest) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.Insert"); err != nil {
		return err
	}
	if m.keyTaken(join.UserID, join.Target, join.TripID, join.OfferID, "") {
		return repository.ErrDuplicate
	}
	if join.Status == domain.JoinStatusAccepted && join.TripID != "" && m.acceptedOnTrip(join.TripID, "") {
		return repository.ErrDuplicate
	}
	c := *join
	m.joins[join.ID] = &c
	m.track(join.ID)
	return nil
}

func (r *MockJoinRepository) FindExisting(ctx context.Context, key repository.JoinKey) (*domain.JoinRequest, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.FindExisting"); err != nil {
		return nil, err
	}
	found := m.sortedJoins(func(j *domain.JoinRequest) bool {
		return j.UserID == key.UserID &&
			j.Target == key.Target &&
			(key.TripID == "" || j.TripID == key.TripID) &&
			(key.OfferID == "" || j.OfferID == key.OfferID)
	})
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

func (r *MockJoinRepository) get(op, id string) (*domain.JoinRequest, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(op); err != nil {
		return nil, err
	}
	j, ok := m.joins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *j
	return &c, nil
}

func (r *MockJoinRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	return r.get("Joins.GetByID", id)
}

func (r *MockJoinRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.JoinRequest, error) {
	return r.get("Joins.GetByIDForUpdate", id)
}

func (r *MockJoinRepository) Transition(ctx context.Context, id string, from, to domain.JoinStatus, seatsReserved int) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.Transition"); err != nil {
		return err
	}
	j, ok := m.joins[id]
	if !ok || j.Status != from {
		return repository.ErrConditionFailed
	}
	if to == domain.JoinStatusAccepted && j.TripID != "" && m.acceptedOnTrip(j.TripID, j.ID) {
		return repository.ErrDuplicate
	}
	j.Status = to
	j.SeatsReserved = seatsReserved
	return nil
}

func (r *MockJoinRepository) AcceptedOfferForTrip(ctx context.Context, tripID string) (string, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.AcceptedOfferForTrip"); err != nil {
		return "", err
	}
	found := m.sortedJoins(func(j *domain.JoinRequest) bool {
		return j.TripID == tripID && j.Status == domain.JoinStatusAccepted && j.OfferID != ""
	})
	if len(found) == 0 {
		return "", nil
	}
	return found[0].OfferID, nil
}

func (r *MockJoinRepository) HasAcceptedForTrip(ctx context.Context, tripID string) (bool, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.HasAcceptedForTrip"); err != nil {
		return false, err
	}
	return m.acceptedOnTrip(tripID, ""), nil
}

func (r *MockJoinRepository) HasAcceptedForOffer(ctx context.Context, offerID string) (bool, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.HasAcceptedForOffer"); err != nil {
		return false, err
	}
	for _, j := range m.joins {
		if j.OfferID == offerID && j.Status == domain.JoinStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockJoinRepository) ListByUserAndParentForUpdate(ctx context.Context, userID string, parent domain.ParentType, parentID string) ([]*domain.JoinRequest, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.ListByUserAndParentForUpdate"); err != nil {
		return nil, err
	}
	return m.sortedJoins(func(j *domain.JoinRequest) bool {
		if j.UserID != userID || j.Target != parent {
			return false
		}
		if parent == domain.ParentOffer {
			return j.OfferID == parentID
		}
		return j.TripID == parentID
	}), nil
}

func (r *MockJoinRepository) ListUnlinked(ctx context.Context) ([]*domain.JoinRequest, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.ListUnlinked"); err != nil {
		return nil, err
	}
	return m.sortedJoins(func(j *domain.JoinRequest) bool {
		return (j.TripID == "") != (j.OfferID == "")
	}), nil
}

func (r *MockJoinRepository) LinkTrip(ctx context.Context, id, tripID string) (bool, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.LinkTrip"); err != nil {
		return false, err
	}
	j, ok := m.joins[id]
	if !ok || j.TripID != "" {
		return false, nil
	}
	if m.keyTaken(j.UserID, j.Target, tripID, j.OfferID, j.ID) {
		return false, repository.ErrDuplicate
	}
	if j.Status == domain.JoinStatusAccepted && m.acceptedOnTrip(tripID, j.ID) {
		return false, repository.ErrDuplicate
	}
	j.TripID = tripID
	return true, nil
}

func (r *MockJoinRepository) LinkOffer(ctx context.Context, id, offerID string) (bool, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.LinkOffer"); err != nil {
		return false, err
	}
	j, ok := m.joins[id]
	if !ok || j.OfferID != "" {
		return false, nil
	}
	if m.keyTaken(j.UserID, j.Target, j.TripID, offerID, j.ID) {
		return false, repository.ErrDuplicate
	}
	j.OfferID = offerID
	return true, nil
}

func (r *MockJoinRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Joins.DeleteByIDs"); err != nil {
		return err
	}
	m.deleteJoins(func(j *domain.JoinRequest) bool { return !slices.Contains(ids, j.ID) })
	return nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION REPOSITORY
// ──────────────────────────────────────────────

// MockNotificationRepository implements repository.NotificationRepository over a MockStore.
type MockNotificationRepository struct {
	s *MockStore
}

func (r *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Notifications.Create"); err != nil {
		return err
	}
	c := *n
	m.notifications[n.ID] = &c
	m.track(n.ID)
	return nil
}

func (r *MockNotificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*domain.NotificationView, error) {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Notifications.ListByRecipient"); err != nil {
		return nil, err
	}
	out := []*domain.NotificationView{}
	for _, n := range m.notifications {
		if n.RecipientID != userID {
			continue
		}
		v := &domain.NotificationView{Notification: *n}
		if j, ok := m.joins[n.JoinID]; ok {
			v.JoinStatus = j.Status
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *domain.NotificationView) int {
		return m.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt)
	})
	return out, nil
}

func (r *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Notifications.MarkRead"); err != nil {
		return err
	}
	n, ok := m.notifications[id]
	if !ok || n.RecipientID != userID {
		return repository.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r *MockNotificationRepository) DeleteByJoinIDs(ctx context.Context, joinIDs []string) error {
	m := r.s
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Notifications.DeleteByJoinIDs"); err != nil {
		return err
	}
	for id, n := range m.notifications {
		if n.JoinID != "" && slices.Contains(joinIDs, n.JoinID) {
			delete(m.notifications, id)
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// MockGeocoder resolves places from a fixed table keyed by canonical name.
type MockGeocoder struct {
	mu     sync.Mutex
	places map[string]geo.Point
	calls  map[string]int
}

// NewMockGeocoder creates a geocoder knowing the given places.
func NewMockGeocoder(places map[string]geo.Point) *MockGeocoder {
	g := &MockGeocoder{places: make(map[string]geo.Point), calls: make(map[string]int)}
	for name, p := range places {
		g.places[domain.PlaceKey(name)] = p
	}
	return g
}

func (g *MockGeocoder) Geocode(ctx context.Context, place string) *geo.Point {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := domain.PlaceKey(place)
	g.calls[key]++
	p, ok := g.places[key]
	if !ok {
		return nil
	}
	return &p
}

// Calls returns how often place was looked up.
func (g *MockGeocoder) Calls(place string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[domain.PlaceKey(place)]
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published notifications.
type MockPublisher struct {
	mu        sync.Mutex
	published []*domain.Notification

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishError != nil {
		return p.PublishError
	}
	c := *n
	p.published = append(p.published, &c)
	return nil
}

// Published returns the notifications delivered so far.
func (p *MockPublisher) Published() []*domain.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.published)
}

// ──────────────────────────────────────────────
// MOCK RECONCILER
// ──────────────────────────────────────────────

// FailingReconciler always fails, for checking that join creation survives it.
type FailingReconciler struct {
	calls int32
}

func (f *FailingReconciler) ReconcileJoin(ctx context.Context, joinID string) (bool, error) {
	atomic.AddInt32(&f.calls, 1)
	return false, errors.New("reconciler unavailable")
}

// Calls returns how many times ReconcileJoin ran.
func (f *FailingReconciler) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

// Ensure mocks implement interfaces.
var (
	_ repository.Transactor                = (*MockStore)(nil)
	_ repository.TripRepository            = (*MockTripRepository)(nil)
	_ repository.OfferRepository           = (*MockOfferRepository)(nil)
	_ repository.JoinRepository            = (*MockJoinRepository)(nil)
	_ repository.NotificationRepository    = (*MockNotificationRepository)(nil)
	_ redis.NotificationPublisherInterface = (*MockPublisher)(nil)
)
