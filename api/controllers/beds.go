package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medgrid/bedfinder-backend/api/middleware"
	"github.com/medgrid/bedfinder-backend/api/responses"
	"github.com/medgrid/bedfinder-backend/api/validators"
	"github.com/medgrid/bedfinder-backend/internal/inventory"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/logger"
)

type bedCreateRequest struct {
	BedTypeName   string          `json:"bed_type_name" validate:"required"`
	TotalBeds     int             `json:"total_beds" validate:"min=0"`
	AvailableBeds int             `json:"available_beds" validate:"min=0"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

type bedUpdateRequest struct {
	TotalBeds     *int             `json:"total_beds,omitempty" validate:"omitempty,min=0"`
	AvailableBeds *int             `json:"available_beds,omitempty" validate:"omitempty,min=0"`
	PricePerNight *decimal.Decimal `json:"price_per_night,omitempty"`
}

func hospitalIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.HospitalIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "hospital context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hospital id")
	}
	return id, nil
}

// BedCreate registers a new inventory row for the calling hospital.
func BedCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		hospitalID, err := hospitalIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bedCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bed, err := svc.CreateBed(r.Context(), hospitalID, inventory.CreateBedInput{
			BedTypeName:   body.BedTypeName,
			TotalBeds:     body.TotalBeds,
			AvailableBeds: body.AvailableBeds,
			PricePerNight: body.PricePerNight,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bed)
	}
}

// BedUpdate mutates counts or pricing on an owned inventory row.
func BedUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		hospitalID, err := hospitalIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bedID, err := uuid.Parse(chi.URLParam(r, "bedId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bed id"))
			return
		}

		var body bedUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bed, err := svc.UpdateBed(r.Context(), hospitalID, bedID, inventory.UpdateBedInput{
			TotalBeds:     body.TotalBeds,
			AvailableBeds: body.AvailableBeds,
			PricePerNight: body.PricePerNight,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bed)
	}
}

// BedList returns the calling hospital's inventory.
func BedList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		hospitalID, err := hospitalIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		beds, err := svc.ListBeds(r.Context(), hospitalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, beds)
	}
}

// BedTypesList returns the shared bed-type catalog.
func BedTypesList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		bedTypes, err := svc.ListBedTypes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bedTypes)
	}
}
