package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
)

// CreateBookingInput captures a patient's booking request.
type CreateBookingInput struct {
	HospitalID   uuid.UUID
	BedTypeName  string
	PatientName  string
	PatientPhone string
	Notes        string
}

// BookingDTO is the booking view returned to users and hospitals.
type BookingDTO struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	HospitalID   uuid.UUID           `json:"hospital_id"`
	BedTypeID    uuid.UUID           `json:"bed_type_id"`
	BedTypeName  string              `json:"bed_type_name"`
	PatientName  string              `json:"patient_name"`
	PatientPhone string              `json:"patient_phone,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Status       enums.BookingStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toBookingDTO(booking store.Booking, bedTypeName string) BookingDTO {
	return BookingDTO{
		ID:           booking.ID,
		UserID:       booking.UserID,
		HospitalID:   booking.HospitalID,
		BedTypeID:    booking.BedTypeID,
		BedTypeName:  bedTypeName,
		PatientName:  booking.PatientName,
		PatientPhone: booking.PatientPhone,
		Notes:        booking.Notes,
		Status:       booking.Status,
		CreatedAt:    booking.CreatedAt,
		UpdatedAt:    booking.UpdatedAt,
	}
}
