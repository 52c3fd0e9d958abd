package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/metrics"
)

type bookingRepository interface {
	CreateBooking(ctx context.Context, booking store.Booking) (store.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (store.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]store.Booking, error)
	ListBookingsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]store.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (store.Booking, enums.BookingStatus, error)
	FindHospitalByID(ctx context.Context, id uuid.UUID) (store.Hospital, error)
	FindBedTypeByName(ctx context.Context, name string) (store.BedType, error)
	FindBedTypeByID(ctx context.Context, id uuid.UUID) (store.BedType, error)
}

// Service drives the booking state machine: pending is the only initial
// state, and approved/rejected/canceled are terminal.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*BookingDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error)
	ListForHospital(ctx context.Context, hospitalID uuid.UUID) ([]BookingDTO, error)
	Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*BookingDTO, error)
	Decide(ctx context.Context, hospitalID, bookingID uuid.UUID, approve bool) (*BookingDTO, error)
}

type service struct {
	repo    bookingRepository
	metrics *metrics.BookingMetrics
}

// NewService builds the booking service. Metrics may be nil in tests.
func NewService(repo bookingRepository, bookingMetrics *metrics.BookingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	return &service{repo: repo, metrics: bookingMetrics}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*BookingDTO, error) {
	if strings.TrimSpace(input.PatientName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient name is required")
	}

	hospital, err := s.repo.FindHospitalByID(ctx, input.HospitalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load hospital")
	}
	if !hospital.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
	}

	bedType, err := s.repo.FindBedTypeByName(ctx, input.BedTypeName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bed type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bed type")
	}

	booking, err := s.repo.CreateBooking(ctx, store.Booking{
		UserID:       userID,
		HospitalID:   hospital.ID,
		BedTypeID:    bedType.ID,
		PatientName:  strings.TrimSpace(input.PatientName),
		PatientPhone: strings.TrimSpace(input.PatientPhone),
		Notes:        strings.TrimSpace(input.Notes),
	})
	if err != nil {
		if errors.Is(err, store.ErrNoCapacity) {
			s.metrics.IncNoCapacity()
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "no beds available")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no bed record for this bed type")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create booking")
	}

	s.metrics.IncCreated()
	dto := toBookingDTO(booking, bedType.Name)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	listed, err := s.repo.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bookings")
	}
	return s.toDTOs(ctx, listed), nil
}

func (s *service) ListForHospital(ctx context.Context, hospitalID uuid.UUID) ([]BookingDTO, error) {
	listed, err := s.repo.ListBookingsByHospital(ctx, hospitalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bookings")
	}
	return s.toDTOs(ctx, listed), nil
}

// Cancel moves the caller's own pending booking to canceled and
// restores one bed. A booking that already left pending is refused.
func (s *service) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*BookingDTO, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking belongs to another user")
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer pending").
			WithDetails(map[string]string{"status": booking.Status.String()})
	}

	return s.transition(ctx, bookingID, enums.BookingStatusCanceled)
}

// Decide lets the addressed hospital approve or reject a pending booking.
func (s *service) Decide(ctx context.Context, hospitalID, bookingID uuid.UUID, approve bool) (*BookingDTO, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.HospitalID != hospitalID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking addressed to another hospital")
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer pending").
			WithDetails(map[string]string{"status": booking.Status.String()})
	}

	next := enums.BookingStatusRejected
	if approve {
		next = enums.BookingStatusApproved
	}
	return s.transition(ctx, bookingID, next)
}

func (s *service) transition(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus) (*BookingDTO, error) {
	updated, prior, err := s.repo.UpdateBookingStatus(ctx, bookingID, next)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update booking status")
	}
	// The store already keyed the inventory restore on the prior status;
	// a racing transition cannot restore twice.
	if prior != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer pending").
			WithDetails(map[string]string{"status": prior.String()})
	}

	s.metrics.IncTransition(next.String())
	dto := toBookingDTO(updated, s.bedTypeName(ctx, updated.BedTypeID))
	return &dto, nil
}

func (s *service) loadBooking(ctx context.Context, bookingID uuid.UUID) (store.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Booking{}, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return store.Booking{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load booking")
	}
	return booking, nil
}

func (s *service) toDTOs(ctx context.Context, listed []store.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(listed))
	for _, booking := range listed {
		out = append(out, toBookingDTO(booking, s.bedTypeName(ctx, booking.BedTypeID)))
	}
	return out
}

func (s *service) bedTypeName(ctx context.Context, bedTypeID uuid.UUID) string {
	if bedType, err := s.repo.FindBedTypeByID(ctx, bedTypeID); err == nil {
		return bedType.Name
	}
	return ""
}
