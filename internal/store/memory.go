package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
)

// Memory is the single in-process store. One mutex guards every map so
// each exported operation observes and mutates a consistent snapshot;
// in particular the booking-create decrement and the directory-sync
// merge can never interleave mid-operation.
type Memory struct {
	mu sync.RWMutex

	users          map[uuid.UUID]User
	userIDByEmail  map[string]uuid.UUID
	userIDByName   map[string]uuid.UUID
	hospitals      map[uuid.UUID]Hospital
	hospIDByName   map[string]uuid.UUID
	hospIDByExtRef map[string]uuid.UUID
	bedTypes       map[uuid.UUID]BedType
	bedTypeIDByKey map[string]uuid.UUID
	beds           map[uuid.UUID]Bed
	bedIDByPair    map[bedPair]uuid.UUID
	bookings       map[uuid.UUID]Booking

	now func() time.Time
}

type bedPair struct {
	hospitalID uuid.UUID
	bedTypeID  uuid.UUID
}

// NewMemory constructs an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:          make(map[uuid.UUID]User),
		userIDByEmail:  make(map[string]uuid.UUID),
		userIDByName:   make(map[string]uuid.UUID),
		hospitals:      make(map[uuid.UUID]Hospital),
		hospIDByName:   make(map[string]uuid.UUID),
		hospIDByExtRef: make(map[string]uuid.UUID),
		bedTypes:       make(map[uuid.UUID]BedType),
		bedTypeIDByKey: make(map[string]uuid.UUID),
		beds:           make(map[uuid.UUID]Bed),
		bedIDByPair:    make(map[bedPair]uuid.UUID),
		bookings:       make(map[uuid.UUID]Booking),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// CreateUser inserts a user. Email and username are unique case-insensitively.
func (m *Memory) CreateUser(ctx context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	emailKey := normalizeKey(user.Email)
	nameKey := normalizeKey(user.Username)
	if _, exists := m.userIDByEmail[emailKey]; exists {
		return User{}, ErrDuplicate
	}
	if _, exists := m.userIDByName[nameKey]; exists {
		return User{}, ErrDuplicate
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now()
	}

	m.users[user.ID] = user
	m.userIDByEmail[emailKey] = user.ID
	m.userIDByName[nameKey] = user.ID
	return user, nil
}

// FindUserByEmail looks a user up by email, case-insensitively.
func (m *Memory) FindUserByEmail(ctx context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.userIDByEmail[normalizeKey(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

// FindUserByID looks a user up by identifier.
func (m *Memory) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// CreateHospital inserts a hospital. Username is unique; a non-empty
// external ref is unique too so repeated syncs map to the same record.
func (m *Memory) CreateHospital(ctx context.Context, hospital Hospital) (Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nameKey := normalizeKey(hospital.Username)
	if _, exists := m.hospIDByName[nameKey]; exists {
		return Hospital{}, ErrDuplicate
	}
	if hospital.ExternalRef != "" {
		if _, exists := m.hospIDByExtRef[hospital.ExternalRef]; exists {
			return Hospital{}, ErrDuplicate
		}
	}

	if hospital.ID == uuid.Nil {
		hospital.ID = uuid.New()
	}
	now := m.now()
	if hospital.CreatedAt.IsZero() {
		hospital.CreatedAt = now
	}
	hospital.UpdatedAt = now

	m.hospitals[hospital.ID] = hospital
	m.hospIDByName[nameKey] = hospital.ID
	if hospital.ExternalRef != "" {
		m.hospIDByExtRef[hospital.ExternalRef] = hospital.ID
	}
	return hospital, nil
}

// FindHospitalByID looks a hospital up by identifier.
func (m *Memory) FindHospitalByID(ctx context.Context, id uuid.UUID) (Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hospital, ok := m.hospitals[id]
	if !ok {
		return Hospital{}, ErrNotFound
	}
	return hospital, nil
}

// FindHospitalByUsername looks a hospital up by login name.
func (m *Memory) FindHospitalByUsername(ctx context.Context, username string) (Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.hospIDByName[normalizeKey(username)]
	if !ok {
		return Hospital{}, ErrNotFound
	}
	return m.hospitals[id], nil
}

// FindHospitalByExternalRef looks a hospital up by its feed identifier.
func (m *Memory) FindHospitalByExternalRef(ctx context.Context, externalRef string) (Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.hospIDByExtRef[externalRef]
	if !ok {
		return Hospital{}, ErrNotFound
	}
	return m.hospitals[id], nil
}

// ListHospitals returns every hospital, approved or not, ordered by creation time.
func (m *Memory) ListHospitals(ctx context.Context) ([]Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectHospitals(func(Hospital) bool { return true }), nil
}

// ListApprovedHospitals returns the publicly visible hospitals.
func (m *Memory) ListApprovedHospitals(ctx context.Context) ([]Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectHospitals(func(h Hospital) bool { return h.Approved }), nil
}

func (m *Memory) collectHospitals(keep func(Hospital) bool) []Hospital {
	out := make([]Hospital, 0, len(m.hospitals))
	for _, hospital := range m.hospitals {
		if keep(hospital) {
			out = append(out, hospital)
		}
	}
	sortByCreation(out, func(h Hospital) (time.Time, uuid.UUID) { return h.CreatedAt, h.ID })
	return out
}

// SetHospitalApproved toggles the approval gate.
func (m *Memory) SetHospitalApproved(ctx context.Context, id uuid.UUID, approved bool) (Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hospital, ok := m.hospitals[id]
	if !ok {
		return Hospital{}, ErrNotFound
	}
	hospital.Approved = approved
	hospital.UpdatedAt = m.now()
	m.hospitals[id] = hospital
	return hospital, nil
}

// CreateBedType inserts a catalog entry. Name is unique case-insensitively.
func (m *Memory) CreateBedType(ctx context.Context, bedType BedType) (BedType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalizeKey(bedType.Name)
	if _, exists := m.bedTypeIDByKey[key]; exists {
		return BedType{}, ErrDuplicate
	}

	if bedType.ID == uuid.Nil {
		bedType.ID = uuid.New()
	}
	if bedType.CreatedAt.IsZero() {
		bedType.CreatedAt = m.now()
	}

	m.bedTypes[bedType.ID] = bedType
	m.bedTypeIDByKey[key] = bedType.ID
	return bedType, nil
}

// FindBedTypeByName looks a catalog entry up case-insensitively.
func (m *Memory) FindBedTypeByName(ctx context.Context, name string) (BedType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bedTypeIDByKey[normalizeKey(name)]
	if !ok {
		return BedType{}, ErrNotFound
	}
	return m.bedTypes[id], nil
}

// FindBedTypeByID looks a catalog entry up by identifier.
func (m *Memory) FindBedTypeByID(ctx context.Context, id uuid.UUID) (BedType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bedType, ok := m.bedTypes[id]
	if !ok {
		return BedType{}, ErrNotFound
	}
	return bedType, nil
}

// ListBedTypes returns the catalog ordered by creation time.
func (m *Memory) ListBedTypes(ctx context.Context) ([]BedType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]BedType, 0, len(m.bedTypes))
	for _, bedType := range m.bedTypes {
		out = append(out, bedType)
	}
	sortByCreation(out, func(bt BedType) (time.Time, uuid.UUID) { return bt.CreatedAt, bt.ID })
	return out, nil
}

// UpdateBedType merges description/icon changes; the name stays fixed.
func (m *Memory) UpdateBedType(ctx context.Context, id uuid.UUID, update BedTypeUpdate) (BedType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bedType, ok := m.bedTypes[id]
	if !ok {
		return BedType{}, ErrNotFound
	}
	if update.Description != nil {
		bedType.Description = *update.Description
	}
	if update.Icon != nil {
		bedType.Icon = *update.Icon
	}
	m.bedTypes[id] = bedType
	return bedType, nil
}

// CreateBed inserts an inventory row; the (hospital, bed type) pair is unique.
func (m *Memory) CreateBed(ctx context.Context, bed Bed) (Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair := bedPair{hospitalID: bed.HospitalID, bedTypeID: bed.BedTypeID}
	if _, exists := m.bedIDByPair[pair]; exists {
		return Bed{}, ErrDuplicate
	}
	if bed.TotalBeds < 0 || bed.AvailableBeds < 0 || bed.AvailableBeds > bed.TotalBeds {
		return Bed{}, ErrCapacityBounds
	}

	if bed.ID == uuid.Nil {
		bed.ID = uuid.New()
	}
	now := m.now()
	if bed.CreatedAt.IsZero() {
		bed.CreatedAt = now
	}
	bed.UpdatedAt = now

	m.beds[bed.ID] = bed
	m.bedIDByPair[pair] = bed.ID
	return bed, nil
}

// UpdateBed merges the partial update, holding 0 <= available <= total.
func (m *Memory) UpdateBed(ctx context.Context, id uuid.UUID, update BedUpdate) (Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bed, ok := m.beds[id]
	if !ok {
		return Bed{}, ErrNotFound
	}

	if update.TotalBeds != nil {
		bed.TotalBeds = *update.TotalBeds
	}
	if update.AvailableBeds != nil {
		bed.AvailableBeds = *update.AvailableBeds
	}
	if update.PricePerNight != nil {
		bed.PricePerNight = *update.PricePerNight
	}
	if bed.TotalBeds < 0 || bed.AvailableBeds < 0 || bed.AvailableBeds > bed.TotalBeds {
		return Bed{}, ErrCapacityBounds
	}

	bed.UpdatedAt = m.now()
	m.beds[id] = bed
	return bed, nil
}

// GetBed looks an inventory row up by identifier.
func (m *Memory) GetBed(ctx context.Context, id uuid.UUID) (Bed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bed, ok := m.beds[id]
	if !ok {
		return Bed{}, ErrNotFound
	}
	return bed, nil
}

// GetBedByHospitalAndType returns the inventory row for the pair.
func (m *Memory) GetBedByHospitalAndType(ctx context.Context, hospitalID, bedTypeID uuid.UUID) (Bed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bedIDByPair[bedPair{hospitalID: hospitalID, bedTypeID: bedTypeID}]
	if !ok {
		return Bed{}, ErrNotFound
	}
	return m.beds[id], nil
}

// ListBedsByHospital returns the hospital's inventory ordered by creation time.
func (m *Memory) ListBedsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]Bed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Bed, 0)
	for _, bed := range m.beds {
		if bed.HospitalID == hospitalID {
			out = append(out, bed)
		}
	}
	sortByCreation(out, func(b Bed) (time.Time, uuid.UUID) { return b.CreatedAt, b.ID })
	return out, nil
}

// AdjustAvailable shifts availability by delta, rejecting results
// outside [0, total].
func (m *Memory) AdjustAvailable(ctx context.Context, id uuid.UUID, delta int) (Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustAvailableLocked(id, delta)
}

func (m *Memory) adjustAvailableLocked(id uuid.UUID, delta int) (Bed, error) {
	bed, ok := m.beds[id]
	if !ok {
		return Bed{}, ErrNotFound
	}
	next := bed.AvailableBeds + delta
	if next < 0 || next > bed.TotalBeds {
		return Bed{}, ErrCapacityBounds
	}
	bed.AvailableBeds = next
	bed.UpdatedAt = m.now()
	m.beds[id] = bed
	return bed, nil
}

// ApplyRemoteCounts merges a feed snapshot into local inventory. A new
// pair is created with the remote values. For an existing row the total
// is overwritten only when it differs, and availability shifts by the
// same delta, clamped to [0, total], so local booking-driven decrements
// survive a stale snapshot.
func (m *Memory) ApplyRemoteCounts(ctx context.Context, hospitalID, bedTypeID uuid.UUID, counts RemoteBedCounts) (Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair := bedPair{hospitalID: hospitalID, bedTypeID: bedTypeID}
	id, exists := m.bedIDByPair[pair]
	now := m.now()

	if !exists {
		total := counts.Total
		if total < 0 {
			total = 0
		}
		available := clamp(counts.Available, 0, total)
		bed := Bed{
			ID:            uuid.New(),
			HospitalID:    hospitalID,
			BedTypeID:     bedTypeID,
			TotalBeds:     total,
			AvailableBeds: available,
			PricePerNight: counts.PricePerNight,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		m.beds[bed.ID] = bed
		m.bedIDByPair[pair] = bed.ID
		return bed, nil
	}

	bed := m.beds[id]
	if counts.Total >= 0 && counts.Total != bed.TotalBeds {
		delta := counts.Total - bed.TotalBeds
		bed.TotalBeds = counts.Total
		bed.AvailableBeds = clamp(bed.AvailableBeds+delta, 0, bed.TotalBeds)
	}
	if !counts.PricePerNight.IsZero() {
		bed.PricePerNight = counts.PricePerNight
	}
	bed.UpdatedAt = now
	m.beds[id] = bed
	return bed, nil
}

// CreateBooking inserts a pending booking and decrements the target
// bed's availability in one step. Nothing mutates when the bed is
// absent or exhausted.
func (m *Memory) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.bedIDByPair[bedPair{hospitalID: booking.HospitalID, bedTypeID: booking.BedTypeID}]
	if !ok {
		return Booking{}, ErrNotFound
	}
	bed := m.beds[id]
	if bed.AvailableBeds <= 0 {
		return Booking{}, ErrNoCapacity
	}

	now := m.now()
	bed.AvailableBeds--
	bed.UpdatedAt = now
	m.beds[id] = bed

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = enums.BookingStatusPending
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	m.bookings[booking.ID] = booking
	return booking, nil
}

// GetBooking looks a booking up by identifier.
func (m *Memory) GetBooking(ctx context.Context, id uuid.UUID) (Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	booking, ok := m.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return booking, nil
}

// ListBookingsByUser returns the user's bookings, newest first.
func (m *Memory) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectBookings(func(b Booking) bool { return b.UserID == userID }), nil
}

// ListBookingsByHospital returns the hospital's incoming bookings, newest first.
func (m *Memory) ListBookingsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectBookings(func(b Booking) bool { return b.HospitalID == hospitalID }), nil
}

func (m *Memory) collectBookings(keep func(Booking) bool) []Booking {
	out := make([]Booking, 0)
	for _, booking := range m.bookings {
		if keep(booking) {
			out = append(out, booking)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

// UpdateBookingStatus sets the booking status and returns the updated
// record plus the prior status. Inventory is restored only for the
// pending to canceled transition, so a bed comes back exactly once.
func (m *Memory) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (Booking, enums.BookingStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[id]
	if !ok {
		return Booking{}, "", ErrNotFound
	}
	prior := booking.Status

	if prior == enums.BookingStatusPending && status == enums.BookingStatusCanceled {
		if bedID, found := m.bedIDByPair[bedPair{hospitalID: booking.HospitalID, bedTypeID: booking.BedTypeID}]; found {
			// Clamped restore: a shrunken total must not be exceeded.
			bed := m.beds[bedID]
			bed.AvailableBeds = clamp(bed.AvailableBeds+1, 0, bed.TotalBeds)
			bed.UpdatedAt = m.now()
			m.beds[bedID] = bed
		}
	}

	booking.Status = status
	booking.UpdatedAt = m.now()
	m.bookings[id] = booking
	return booking, prior, nil
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func sortByCreation[T any](items []T, key func(T) (time.Time, uuid.UUID)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi.String() < idj.String()
	})
}
