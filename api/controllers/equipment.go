package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantageav/ledrental-backend/api/responses"
	"github.com/vantageav/ledrental-backend/api/validators"
	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	pkgerrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

type createEquipmentRequest struct {
	EquipmentType string  `json:"equipment_type" validate:"required"`
	Model         *string `json:"model"`
	SerialNumber  *string `json:"serial_number"`
	Notes         *string `json:"notes"`
}

type updateEquipmentRequest struct {
	Status       *string `json:"status"`
	Model        *string `json:"model"`
	SerialNumber *string `json:"serial_number"`
	Notes        *string `json:"notes"`
}

type returnEquipmentRequest struct {
	Outcome string  `json:"outcome" validate:"required"`
	Notes   *string `json:"notes"`
}

type equipmentResponse struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"equipment_type"`
	Status       string    `json:"status"`
	Model        *string   `json:"model,omitempty"`
	SerialNumber *string   `json:"serial_number,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newEquipmentResponse(e *models.Equipment) equipmentResponse {
	return equipmentResponse{
		ID:           e.ID,
		Type:         string(e.Type),
		Status:       string(e.Status),
		Model:        e.Model,
		SerialNumber: e.SerialNumber,
		Notes:        e.Notes,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type assignmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	EquipmentID uuid.UUID  `json:"equipment_id"`
	AssignedAt  time.Time  `json:"assigned_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	Status      string     `json:"status"`
	ReturnNotes *string    `json:"return_notes,omitempty"`
}

func newAssignmentResponse(a *models.OrderEquipmentAssignment) assignmentResponse {
	return assignmentResponse{
		ID:          a.ID,
		OrderID:     a.OrderID,
		EquipmentID: a.EquipmentID,
		AssignedAt:  a.AssignedAt,
		ReturnedAt:  a.ReturnedAt,
		Status:      string(a.Status),
		ReturnNotes: a.ReturnNotes,
	}
}

func CreateEquipment(svc *equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEquipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitType, err := enums.ParseEquipmentType(req.EquipmentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment type"))
			return
		}

		unit := &models.Equipment{
			Type:         unitType,
			Status:       enums.EquipmentStatusAvailable,
			Model:        req.Model,
			SerialNumber: req.SerialNumber,
			Notes:        req.Notes,
		}
		if err := svc.CreateUnit(r.Context(), unit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newEquipmentResponse(unit))
	}
}

func ListEquipment(svc *equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := equipment.ListFilter{}

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			unitType, err := enums.ParseEquipmentType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment type"))
				return
			}
			filter.Type = &unitType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEquipmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment status"))
				return
			}
			filter.Status = &status
		}

		units, err := svc.ListUnits(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]equipmentResponse, 0, len(units))
		for i := range units {
			out = append(out, newEquipmentResponse(&units[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func GetEquipment(svc *equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "equipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := svc.GetUnit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newEquipmentResponse(unit))
	}
}

func UpdateEquipment(svc *equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "equipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateEquipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := equipment.UpdateUnitInput{
			Model:        req.Model,
			SerialNumber: req.SerialNumber,
			Notes:        req.Notes,
		}
		if req.Status != nil {
			status, err := enums.ParseEquipmentStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment status"))
				return
			}
			input.Status = &status
		}

		unit, err := svc.UpdateUnit(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newEquipmentResponse(unit))
	}
}

func DeleteEquipment(svc *equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "equipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteUnit(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ReturnEquipment closes one assignment with an explicit outcome.
func ReturnEquipment(svc *equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		equipmentID, err := validators.ParseUUIDParam(r, "equipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req returnEquipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := enums.ParseAssignmentStatus(req.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return outcome"))
			return
		}

		assignment, err := svc.Return(r.Context(), equipment.ReturnInput{
			OrderID:     orderID,
			EquipmentID: equipmentID,
			Outcome:     outcome,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAssignmentResponse(assignment))
	}
}
