package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantageav/ledrental-backend/api/responses"
	"github.com/vantageav/ledrental-backend/api/validators"
	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/internal/orders"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	pkgerrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

type orderLineRequest struct {
	ScreenInventoryID string          `json:"screen_inventory_id" validate:"required,uuid"`
	SqmRequired       decimal.Decimal `json:"sqm_required" validate:"required"`
	PanelRows         *int            `json:"panel_rows" validate:"omitempty,gt=0"`
	PanelColumns      *int            `json:"panel_columns" validate:"omitempty,gt=0"`
}

type createOrderRequest struct {
	UserID                string             `json:"user_id" validate:"required,uuid"`
	StartDate             string             `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate               string             `json:"end_date" validate:"required,datetime=2006-01-02"`
	PricePerSqm           decimal.Decimal    `json:"price_per_sqm" validate:"required"`
	LaptopsNeeded         int                `json:"laptops_needed" validate:"min=0"`
	VideoProcessorsNeeded int                `json:"video_processors_needed" validate:"min=0"`
	LocationName          *string            `json:"location_name"`
	Notes                 *string            `json:"notes"`
	Screens               []orderLineRequest `json:"screens" validate:"required,min=1,dive"`
}

type updateOrderRequest struct {
	StartDate             string             `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate               string             `json:"end_date" validate:"required,datetime=2006-01-02"`
	PricePerSqm           decimal.Decimal    `json:"price_per_sqm" validate:"required"`
	LaptopsNeeded         int                `json:"laptops_needed" validate:"min=0"`
	VideoProcessorsNeeded int                `json:"video_processors_needed" validate:"min=0"`
	LocationName          *string            `json:"location_name"`
	Notes                 *string            `json:"notes"`
	Screens               []orderLineRequest `json:"screens" validate:"required,min=1,dive"`
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type orderLineResponse struct {
	ID                uuid.UUID       `json:"id"`
	ScreenInventoryID uuid.UUID       `json:"screen_inventory_id"`
	SqmRequired       decimal.Decimal `json:"sqm_required"`
	PanelRows         *int            `json:"panel_rows,omitempty"`
	PanelColumns      *int            `json:"panel_columns,omitempty"`
	ReservedAt        *time.Time      `json:"reserved_at,omitempty"`
	ReleasedAt        *time.Time      `json:"released_at,omitempty"`
}

type orderResponse struct {
	ID                    uuid.UUID            `json:"id"`
	OrderCode             string               `json:"order_code"`
	UserID                uuid.UUID            `json:"user_id"`
	StartDate             string               `json:"start_date"`
	EndDate               string               `json:"end_date"`
	DurationDays          int                  `json:"duration_days"`
	Status                string               `json:"status"`
	PaymentStatus         string               `json:"payment_status"`
	PricePerSqm           decimal.Decimal      `json:"price_per_sqm"`
	TotalAmount           decimal.Decimal      `json:"total_amount"`
	Paid                  decimal.Decimal      `json:"paid"`
	LaptopsNeeded         int                  `json:"laptops_needed"`
	VideoProcessorsNeeded int                  `json:"video_processors_needed"`
	LocationName          *string              `json:"location_name,omitempty"`
	Notes                 *string              `json:"notes,omitempty"`
	Screens               []orderLineResponse  `json:"screens"`
	Equipment             []assignmentResponse `json:"equipment"`
	CancelledAt           *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

func newOrderResponse(o *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Requirements))
	for i := range o.Requirements {
		req := &o.Requirements[i]
		lines = append(lines, orderLineResponse{
			ID:                req.ID,
			ScreenInventoryID: req.ScreenInventoryID,
			SqmRequired:       req.SqmRequired,
			PanelRows:         req.Rows,
			PanelColumns:      req.Columns,
			ReservedAt:        req.ReservedAt,
			ReleasedAt:        req.ReleasedAt,
		})
	}
	assignments := make([]assignmentResponse, 0, len(o.Assignments))
	for i := range o.Assignments {
		assignments = append(assignments, newAssignmentResponse(&o.Assignments[i]))
	}
	return orderResponse{
		ID:                    o.ID,
		OrderCode:             o.OrderCode,
		UserID:                o.UserID,
		StartDate:             o.StartDate.Format(interval.DateLayout),
		EndDate:               o.EndDate.Format(interval.DateLayout),
		DurationDays:          o.DurationDays,
		Status:                string(o.Status),
		PaymentStatus:         string(o.PaymentStatus),
		PricePerSqm:           o.PricePerSqm,
		TotalAmount:           o.TotalAmount,
		Paid:                  o.Paid,
		LaptopsNeeded:         o.LaptopsNeeded,
		VideoProcessorsNeeded: o.VideoProcessorsNeeded,
		LocationName:          o.LocationName,
		Notes:                 o.Notes,
		Screens:               lines,
		Equipment:             assignments,
		CancelledAt:           o.CancelledAt,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func parseOrderLines(lines []orderLineRequest) ([]orders.ScreenLineInput, error) {
	parsed := make([]orders.ScreenLineInput, 0, len(lines))
	for _, line := range lines {
		screenID, err := uuid.Parse(line.ScreenInventoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid screen_inventory_id")
		}
		parsed = append(parsed, orders.ScreenLineInput{
			ScreenInventoryID: screenID,
			SqmRequired:       line.SqmRequired,
			Rows:              line.PanelRows,
			Columns:           line.PanelColumns,
		})
	}
	return parsed, nil
}

func CreateOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
			return
		}
		rng, err := interval.Parse(req.StartDate, req.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := parseOrderLines(req.Screens)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateInput{
			UserID:                userID,
			StartDate:             rng.Start,
			EndDate:               rng.End,
			PricePerSqm:           req.PricePerSqm,
			LaptopsNeeded:         req.LaptopsNeeded,
			VideoProcessorsNeeded: req.VideoProcessorsNeeded,
			LocationName:          req.LocationName,
			Notes:                 req.Notes,
			Screens:               lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

func ListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := orders.ListFilter{}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
				return
			}
			filter.UserID = &userID
		}
		if start := strings.TrimSpace(r.URL.Query().Get("start_date")); start != "" {
			end := strings.TrimSpace(r.URL.Query().Get("end_date"))
			if end == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "end_date is required with start_date"))
				return
			}
			rng, err := interval.Parse(start, end)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.From = &rng.Start
			filter.To = &rng.End
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func GetOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func UpdateOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rng, err := interval.Parse(req.StartDate, req.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := parseOrderLines(req.Screens)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Update(r.Context(), id, orders.UpdateInput{
			StartDate:             rng.Start,
			EndDate:               rng.End,
			PricePerSqm:           req.PricePerSqm,
			LaptopsNeeded:         req.LaptopsNeeded,
			VideoProcessorsNeeded: req.VideoProcessorsNeeded,
			LocationName:          req.LocationName,
			Notes:                 req.Notes,
			Screens:               lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func CancelOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func DeleteOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func RecordPayment(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RecordPayment(r.Context(), id, req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
