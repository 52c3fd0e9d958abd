package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/shopspring/decimal"
)

// CreateBedInput captures a new inventory row for the calling hospital.
type CreateBedInput struct {
	BedTypeName   string
	TotalBeds     int
	AvailableBeds int
	PricePerNight decimal.Decimal
}

// UpdateBedInput carries the partial bed mutation; nil fields are untouched.
type UpdateBedInput struct {
	TotalBeds     *int
	AvailableBeds *int
	PricePerNight *decimal.Decimal
}

// BedDTO is the inventory row returned to hospital dashboards.
type BedDTO struct {
	ID            uuid.UUID       `json:"id"`
	HospitalID    uuid.UUID       `json:"hospital_id"`
	BedTypeID     uuid.UUID       `json:"bed_type_id"`
	BedTypeName   string          `json:"bed_type_name"`
	TotalBeds     int             `json:"total_beds"`
	AvailableBeds int             `json:"available_beds"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BedTypeDTO is a catalog entry returned to clients.
type BedTypeDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
}

func toBedDTO(bed store.Bed, bedTypeName string) BedDTO {
	return BedDTO{
		ID:            bed.ID,
		HospitalID:    bed.HospitalID,
		BedTypeID:     bed.BedTypeID,
		BedTypeName:   bedTypeName,
		TotalBeds:     bed.TotalBeds,
		AvailableBeds: bed.AvailableBeds,
		PricePerNight: bed.PricePerNight,
		UpdatedAt:     bed.UpdatedAt,
	}
}

func toBedTypeDTO(bedType store.BedType) BedTypeDTO {
	return BedTypeDTO{
		ID:          bedType.ID,
		Name:        bedType.Name,
		Description: bedType.Description,
		Icon:        bedType.Icon,
	}
}
