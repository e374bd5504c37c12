package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantageav/ledrental-backend/api/responses"
	"github.com/vantageav/ledrental-backend/api/validators"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

type createScreenRequest struct {
	ScreenType    string          `json:"screen_type" validate:"required,max=120"`
	PixelPitch    decimal.Decimal `json:"pixel_pitch" validate:"required"`
	TotalSqmOwned decimal.Decimal `json:"total_sqm_owned" validate:"required"`
	Description   *string         `json:"description"`
}

type updateScreenRequest struct {
	PixelPitch    *decimal.Decimal `json:"pixel_pitch"`
	TotalSqmOwned *decimal.Decimal `json:"total_sqm_owned"`
	Description   *string          `json:"description"`
	IsActive      *bool            `json:"is_active"`
}

type screenResponse struct {
	ID            uuid.UUID       `json:"id"`
	ScreenType    string          `json:"screen_type"`
	PixelPitch    decimal.Decimal `json:"pixel_pitch"`
	TotalSqmOwned decimal.Decimal `json:"total_sqm_owned"`
	Description   *string         `json:"description,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newScreenResponse(s *models.ScreenInventory) screenResponse {
	return screenResponse{
		ID:            s.ID,
		ScreenType:    s.ScreenType,
		PixelPitch:    s.PixelPitch,
		TotalSqmOwned: s.TotalSqmOwned,
		Description:   s.Description,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func newScreenListResponse(list []models.ScreenInventory) []screenResponse {
	out := make([]screenResponse, 0, len(list))
	for i := range list {
		out = append(out, newScreenResponse(&list[i]))
	}
	return out
}

func CreateScreen(svc *screens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createScreenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		screen := &models.ScreenInventory{
			ScreenType:    validators.SanitizeString(req.ScreenType, 120),
			PixelPitch:    req.PixelPitch,
			TotalSqmOwned: req.TotalSqmOwned,
			Description:   req.Description,
			IsActive:      true,
		}
		if err := svc.CreateScreen(r.Context(), screen); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newScreenResponse(screen))
	}
}

func ListScreens(svc *screens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		list, err := svc.ListScreens(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newScreenListResponse(list))
	}
}

func GetScreen(svc *screens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "screenId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		screen, err := svc.GetScreen(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newScreenResponse(screen))
	}
}

func UpdateScreen(svc *screens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "screenId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateScreenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		screen, err := svc.UpdateScreen(r.Context(), id, screens.UpdateScreenInput{
			TotalSqmOwned: req.TotalSqmOwned,
			PixelPitch:    req.PixelPitch,
			Description:   req.Description,
			IsActive:      req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newScreenResponse(screen))
	}
}

func DeleteScreen(svc *screens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "screenId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteScreen(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
