package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantageav/ledrental-backend/api/responses"
	"github.com/vantageav/ledrental-backend/api/validators"
	"github.com/vantageav/ledrental-backend/internal/availability"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	pkgerrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

// AvailabilitySnapshot reports every screen type and equipment pool for an
// interval, the endpoint quoting tools poll before proposing dates.
func AvailabilitySnapshot(svc *availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := validators.ParseRangeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.Snapshot(r.Context(), rng)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// AreaAvailability reports per-screen-type availability. Optional filters:
// pixel_pitch, required_sqm (sets is_available per screen), exclude_order_id
// (edit-time preview as if that order held nothing).
func AreaAvailability(svc *availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := validators.ParseRangeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query, err := parseAreaQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reports, err := svc.ForArea(r.Context(), rng, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reports)
	}
}

func ScreenAvailability(svc *availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screenID, err := validators.ParseUUIDParam(r, "screenId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rng, err := validators.ParseRangeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query, err := parseAreaQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.ForScreen(r.Context(), screenID, rng, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// EquipmentAvailability reports unit availability. With ?type it covers one
// equipment type; without it, every type plus the can_fulfill shortcut.
func EquipmentAvailability(svc *availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := validators.ParseRangeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		excludeOrder, err := parseOptionalUUID(r, "exclude_order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("type"))
		if raw == "" {
			report, err := svc.ForEquipment(r.Context(), rng, excludeOrder)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, report)
			return
		}

		unitType, err := enums.ParseEquipmentType(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment type"))
			return
		}
		report, err := svc.ForEquipmentType(r.Context(), unitType, rng, excludeOrder)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func parseAreaQuery(r *http.Request) (availability.AreaQuery, error) {
	query := availability.AreaQuery{}

	pitch, err := parseOptionalDecimal(r, "pixel_pitch")
	if err != nil {
		return query, err
	}
	query.PixelPitch = pitch

	required, err := parseOptionalDecimal(r, "required_sqm")
	if err != nil {
		return query, err
	}
	if required != nil && !required.IsPositive() {
		return query, pkgerrors.New(pkgerrors.CodeValidation, "required_sqm must be positive")
	}
	query.RequiredSqm = required

	excludeOrder, err := parseOptionalUUID(r, "exclude_order_id")
	if err != nil {
		return query, err
	}
	query.ExcludeOrder = excludeOrder

	return query, nil
}

func parseOptionalDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return &value, nil
}

func parseOptionalUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return &id, nil
}
