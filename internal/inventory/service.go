package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
)

type inventoryRepository interface {
	CreateBed(ctx context.Context, bed store.Bed) (store.Bed, error)
	UpdateBed(ctx context.Context, id uuid.UUID, update store.BedUpdate) (store.Bed, error)
	GetBed(ctx context.Context, id uuid.UUID) (store.Bed, error)
	GetBedByHospitalAndType(ctx context.Context, hospitalID, bedTypeID uuid.UUID) (store.Bed, error)
	ListBedsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]store.Bed, error)
	CreateBedType(ctx context.Context, bedType store.BedType) (store.BedType, error)
	FindBedTypeByName(ctx context.Context, name string) (store.BedType, error)
	FindBedTypeByID(ctx context.Context, id uuid.UUID) (store.BedType, error)
	ListBedTypes(ctx context.Context) ([]store.BedType, error)
}

// Service exposes bed inventory operations scoped to a hospital.
type Service interface {
	CreateBed(ctx context.Context, hospitalID uuid.UUID, input CreateBedInput) (*BedDTO, error)
	UpdateBed(ctx context.Context, hospitalID, bedID uuid.UUID, input UpdateBedInput) (*BedDTO, error)
	ListBeds(ctx context.Context, hospitalID uuid.UUID) ([]BedDTO, error)
	ListBedTypes(ctx context.Context) ([]BedTypeDTO, error)
	ResolveBedType(ctx context.Context, name string) (*store.BedType, error)
}

type service struct {
	repo inventoryRepository
}

// NewService builds the inventory service.
func NewService(repo inventoryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateBed(ctx context.Context, hospitalID uuid.UUID, input CreateBedInput) (*BedDTO, error) {
	if input.TotalBeds < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total beds must be non-negative")
	}
	if input.AvailableBeds < 0 || input.AvailableBeds > input.TotalBeds {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available beds must be within [0, total]")
	}

	bedType, err := s.ResolveBedType(ctx, input.BedTypeName)
	if err != nil {
		return nil, err
	}

	bed, err := s.repo.CreateBed(ctx, store.Bed{
		HospitalID:    hospitalID,
		BedTypeID:     bedType.ID,
		TotalBeds:     input.TotalBeds,
		AvailableBeds: input.AvailableBeds,
		PricePerNight: input.PricePerNight,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "bed already exists for this bed type")
		}
		if errors.Is(err, store.ErrCapacityBounds) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "available beds must be within [0, total]")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create bed")
	}

	dto := toBedDTO(bed, bedType.Name)
	return &dto, nil
}

func (s *service) UpdateBed(ctx context.Context, hospitalID, bedID uuid.UUID, input UpdateBedInput) (*BedDTO, error) {
	bed, err := s.repo.GetBed(ctx, bedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bed not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bed")
	}
	if bed.HospitalID != hospitalID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "bed belongs to another hospital")
	}

	updated, err := s.repo.UpdateBed(ctx, bedID, store.BedUpdate{
		TotalBeds:     input.TotalBeds,
		AvailableBeds: input.AvailableBeds,
		PricePerNight: input.PricePerNight,
	})
	if err != nil {
		if errors.Is(err, store.ErrCapacityBounds) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "available beds must be within [0, total]")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bed not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update bed")
	}

	bedType, err := s.repo.FindBedTypeByID(ctx, updated.BedTypeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bed type")
	}

	dto := toBedDTO(updated, bedType.Name)
	return &dto, nil
}

func (s *service) ListBeds(ctx context.Context, hospitalID uuid.UUID) ([]BedDTO, error) {
	beds, err := s.repo.ListBedsByHospital(ctx, hospitalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list beds")
	}

	out := make([]BedDTO, 0, len(beds))
	for _, bed := range beds {
		name := ""
		if bedType, err := s.repo.FindBedTypeByID(ctx, bed.BedTypeID); err == nil {
			name = bedType.Name
		}
		out = append(out, toBedDTO(bed, name))
	}
	return out, nil
}

func (s *service) ListBedTypes(ctx context.Context) ([]BedTypeDTO, error) {
	bedTypes, err := s.repo.ListBedTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bed types")
	}

	out := make([]BedTypeDTO, 0, len(bedTypes))
	for _, bedType := range bedTypes {
		out = append(out, toBedTypeDTO(bedType))
	}
	return out, nil
}

// ResolveBedType finds the catalog entry by case-insensitive name,
// creating it lazily when first seen.
func (s *service) ResolveBedType(ctx context.Context, name string) (*store.BedType, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bed type name is required")
	}

	bedType, err := s.repo.FindBedTypeByName(ctx, trimmed)
	if err == nil {
		return &bedType, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find bed type")
	}

	created, err := s.repo.CreateBedType(ctx, store.BedType{Name: trimmed})
	if err != nil {
		// Lost the creation race; the winner's record serves.
		if errors.Is(err, store.ErrDuplicate) {
			bedType, err = s.repo.FindBedTypeByName(ctx, trimmed)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find bed type")
			}
			return &bedType, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create bed type")
	}
	return &created, nil
}
