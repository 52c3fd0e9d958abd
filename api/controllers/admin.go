package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medgrid/bedfinder-backend/api/responses"
	"github.com/medgrid/bedfinder-backend/api/validators"
	"github.com/medgrid/bedfinder-backend/internal/directory"
	"github.com/medgrid/bedfinder-backend/internal/hospitals"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/logger"
)

type providerSettingsRequest struct {
	BaseURL string `json:"base_url" validate:"required,url"`
	APIKey  string `json:"api_key" validate:"required"`
}

// AdminHospitalList returns every hospital, approved or not.
func AdminHospitalList(svc hospitals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hospital service unavailable"))
			return
		}

		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func adminSetApproval(svc hospitals.Service, logg *logger.Logger, approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hospital service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "hospitalId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hospital id"))
			return
		}

		hospital, err := svc.SetApproved(r.Context(), id, approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, hospital)
	}
}

// AdminHospitalApprove marks a hospital visible and bookable.
func AdminHospitalApprove(svc hospitals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminSetApproval(svc, logg, true)
}

// AdminHospitalRevoke hides a hospital from search. Existing bookings
// are untouched.
func AdminHospitalRevoke(svc hospitals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminSetApproval(svc, logg, false)
}

// AdminProviderSettings reports the current feed configuration.
func AdminProviderSettings(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		responses.WriteSuccess(w, svc.ProviderSettings(r.Context()))
	}
}

// AdminProviderSettingsUpdate repoints the external feed at runtime.
func AdminProviderSettingsUpdate(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		var body providerSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings := svc.UpdateProviderSettings(r.Context(), body.BaseURL, body.APIKey)
		responses.WriteSuccess(w, settings)
	}
}
