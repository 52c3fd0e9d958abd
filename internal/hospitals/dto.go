package hospitals

import (
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// RegisterHospitalInput captures a hospital self-registration.
type RegisterHospitalInput struct {
	Username string
	Password string
	Name     string
	Address  types.Address
}

// HospitalDTO is the hospital view returned to clients.
type HospitalDTO struct {
	ID          uuid.UUID     `json:"id"`
	Username    string        `json:"username"`
	Name        string        `json:"name"`
	Address     types.Address `json:"address"`
	Approved    bool          `json:"approved"`
	ExternalRef string        `json:"external_ref,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HospitalBedDTO is one inventory row in the public detail view.
type HospitalBedDTO struct {
	BedTypeName   string          `json:"bed_type_name"`
	TotalBeds     int             `json:"total_beds"`
	AvailableBeds int             `json:"available_beds"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

// HospitalDetailDTO is the public detail view with inventory attached.
type HospitalDetailDTO struct {
	HospitalDTO
	Beds []HospitalBedDTO `json:"beds"`
}

func toHospitalDTO(hospital store.Hospital) HospitalDTO {
	return HospitalDTO{
		ID:          hospital.ID,
		Username:    hospital.Username,
		Name:        hospital.Name,
		Address:     hospital.Address,
		Approved:    hospital.Approved,
		ExternalRef: hospital.ExternalRef,
		CreatedAt:   hospital.CreatedAt,
	}
}
