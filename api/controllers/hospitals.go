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
	"github.com/medgrid/bedfinder-backend/pkg/pagination"
)

// DirectorySearch serves the public hospital search. City is required,
// state and bed_type narrow the results.
func DirectorySearch(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		query := r.URL.Query()
		input := directory.SearchInput{
			City:    validators.SanitizeString(query.Get("city"), 120),
			State:   validators.SanitizeString(query.Get("state"), 120),
			BedType: validators.SanitizeString(query.Get("bed_type"), 120),
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Search(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.Window(results, pagination.Params{Limit: limit, Offset: offset})
		responses.WriteSuccess(w, page)
	}
}

// HospitalDetail serves the public detail view for one approved hospital.
func HospitalDetail(svc hospitals.Service, logg *logger.Logger) http.HandlerFunc {
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

		detail, err := svc.GetPublic(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}
