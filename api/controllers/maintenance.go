package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantageav/ledrental-backend/api/responses"
	"github.com/vantageav/ledrental-backend/api/validators"
	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/internal/maintenance"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

type createMaintenanceRequest struct {
	Sqm       decimal.Decimal `json:"sqm" validate:"required"`
	StartDate string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    *string         `json:"reason"`
}

type maintenanceWindowResponse struct {
	ID                uuid.UUID       `json:"id"`
	ScreenInventoryID uuid.UUID       `json:"screen_inventory_id"`
	Sqm               decimal.Decimal `json:"sqm"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	Reason            *string         `json:"reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newMaintenanceWindowResponse(w *models.ScreenMaintenanceWindow) maintenanceWindowResponse {
	return maintenanceWindowResponse{
		ID:                w.ID,
		ScreenInventoryID: w.ScreenInventoryID,
		Sqm:               w.Sqm,
		StartDate:         w.StartDate.Format(interval.DateLayout),
		EndDate:           w.EndDate.Format(interval.DateLayout),
		Reason:            w.Reason,
		CreatedAt:         w.CreatedAt,
	}
}

func CreateMaintenanceWindow(svc *maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screenID, err := validators.ParseUUIDParam(r, "screenId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createMaintenanceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rng, err := interval.Parse(req.StartDate, req.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		window, err := svc.Create(r.Context(), maintenance.CreateInput{
			ScreenInventoryID: screenID,
			Sqm:               req.Sqm,
			Range:             rng,
			Reason:            req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMaintenanceWindowResponse(window))
	}
}

func ListMaintenanceWindows(svc *maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screenID, err := validators.ParseUUIDParam(r, "screenId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		windows, err := svc.ListForScreen(r.Context(), screenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]maintenanceWindowResponse, 0, len(windows))
		for i := range windows {
			out = append(out, newMaintenanceWindowResponse(&windows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func DeleteMaintenanceWindow(svc *maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windowID, err := validators.ParseUUIDParam(r, "windowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), windowID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
