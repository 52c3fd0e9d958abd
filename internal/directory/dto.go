package directory

import (
	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// SearchInput captures the public hospital search filters.
type SearchInput struct {
	City    string
	State   string
	BedType string
}

// HospitalBedSummaryDTO is one inventory row in a search result.
type HospitalBedSummaryDTO struct {
	BedTypeName   string          `json:"bed_type_name"`
	TotalBeds     int             `json:"total_beds"`
	AvailableBeds int             `json:"available_beds"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

// HospitalSummaryDTO is one hospital in the public search listing.
type HospitalSummaryDTO struct {
	ID      uuid.UUID               `json:"id"`
	Name    string                  `json:"name"`
	Address types.Address           `json:"address"`
	Beds    []HospitalBedSummaryDTO `json:"beds"`
}

// ProviderSettingsDTO reports the feed configuration to administrators
// without echoing the key back.
type ProviderSettingsDTO struct {
	BaseURL   string `json:"base_url"`
	APIKeySet bool   `json:"api_key_set"`
	Available bool   `json:"available"`
}

func toSummaryDTO(hospital store.Hospital, beds []HospitalBedSummaryDTO) HospitalSummaryDTO {
	return HospitalSummaryDTO{
		ID:      hospital.ID,
		Name:    hospital.Name,
		Address: hospital.Address,
		Beds:    beds,
	}
}
