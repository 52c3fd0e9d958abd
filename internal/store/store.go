package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	"github.com/medgrid/bedfinder-backend/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound signals a lookup miss for any entity.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate signals a uniqueness violation (email, username, name, or bed pair).
	ErrDuplicate = errors.New("duplicate record")
	// ErrNoCapacity signals a booking attempt against a bed with no availability.
	ErrNoCapacity = errors.New("no beds available")
	// ErrCapacityBounds signals an availability adjustment outside [0, total].
	ErrCapacityBounds = errors.New("availability outside bounds")
)

// User is a patient or administrator account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         enums.Role
	CreatedAt    time.Time
}

// Hospital is a bookable facility. ExternalRef is non-empty only for
// records mapped from the external feed.
type Hospital struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Name         string
	Address      types.Address
	Approved     bool
	ExternalRef  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BedType is a shared catalog entry. Name is unique case-insensitively
// and immutable once created; description and icon may change.
type BedType struct {
	ID          uuid.UUID
	Name        string
	Description string
	Icon        string
	CreatedAt   time.Time
}

// Bed is the inventory row for one (hospital, bed type) pair.
type Bed struct {
	ID            uuid.UUID
	HospitalID    uuid.UUID
	BedTypeID     uuid.UUID
	TotalBeds     int
	AvailableBeds int
	PricePerNight decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booking tracks one patient request against a bed.
type Booking struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	HospitalID   uuid.UUID
	BedTypeID    uuid.UUID
	PatientName  string
	PatientPhone string
	Notes        string
	Status       enums.BookingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BedUpdate carries a partial bed mutation; nil fields are left alone.
type BedUpdate struct {
	TotalBeds     *int
	AvailableBeds *int
	PricePerNight *decimal.Decimal
}

// BedTypeUpdate carries a partial bed-type mutation; name is immutable.
type BedTypeUpdate struct {
	Description *string
	Icon        *string
}

// RemoteBedCounts is the per-bed-type snapshot ingested during directory sync.
type RemoteBedCounts struct {
	Total         int
	Available     int
	PricePerNight decimal.Decimal
}
