package hospitals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/security"
)

const minPasswordLength = 8

type hospitalRepository interface {
	CreateHospital(ctx context.Context, hospital store.Hospital) (store.Hospital, error)
	FindHospitalByID(ctx context.Context, id uuid.UUID) (store.Hospital, error)
	ListHospitals(ctx context.Context) ([]store.Hospital, error)
	SetHospitalApproved(ctx context.Context, id uuid.UUID, approved bool) (store.Hospital, error)
	ListBedsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]store.Bed, error)
	FindBedTypeByID(ctx context.Context, id uuid.UUID) (store.BedType, error)
}

// Service covers hospital registration and the admin approval gate.
// Hospitals start unapproved, stay invisible to public reads until
// approved, and are never deleted.
type Service interface {
	Register(ctx context.Context, input RegisterHospitalInput) (*HospitalDTO, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*HospitalDetailDTO, error)
	ListAll(ctx context.Context) ([]HospitalDTO, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*HospitalDTO, error)
}

type service struct {
	repo        hospitalRepository
	passwordCfg config.PasswordConfig
}

// NewService builds the hospital service.
func NewService(repo hospitalRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("hospital repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Register(ctx context.Context, input RegisterHospitalInput) (*HospitalDTO, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital name is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	address := input.Address
	address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	hospital, err := s.repo.CreateHospital(ctx, store.Hospital{
		Username:     username,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Address:      address,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create hospital")
	}

	dto := toHospitalDTO(hospital)
	return &dto, nil
}

// GetPublic returns the approved hospital with its inventory; an
// unapproved hospital reads as absent.
func (s *service) GetPublic(ctx context.Context, id uuid.UUID) (*HospitalDetailDTO, error) {
	hospital, err := s.repo.FindHospitalByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load hospital")
	}
	if !hospital.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
	}

	beds, err := s.repo.ListBedsByHospital(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list beds")
	}

	detail := HospitalDetailDTO{
		HospitalDTO: toHospitalDTO(hospital),
		Beds:        make([]HospitalBedDTO, 0, len(beds)),
	}
	for _, bed := range beds {
		name := ""
		if bedType, err := s.repo.FindBedTypeByID(ctx, bed.BedTypeID); err == nil {
			name = bedType.Name
		}
		detail.Beds = append(detail.Beds, HospitalBedDTO{
			BedTypeName:   name,
			TotalBeds:     bed.TotalBeds,
			AvailableBeds: bed.AvailableBeds,
			PricePerNight: bed.PricePerNight,
		})
	}
	return &detail, nil
}

func (s *service) ListAll(ctx context.Context) ([]HospitalDTO, error) {
	listed, err := s.repo.ListHospitals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list hospitals")
	}
	out := make([]HospitalDTO, 0, len(listed))
	for _, hospital := range listed {
		out = append(out, toHospitalDTO(hospital))
	}
	return out, nil
}

// SetApproved flips the approval gate; revocation does not cascade to
// beds or bookings.
func (s *service) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*HospitalDTO, error) {
	hospital, err := s.repo.SetHospitalApproved(ctx, id, approved)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set approval")
	}
	dto := toHospitalDTO(hospital)
	return &dto, nil
}
