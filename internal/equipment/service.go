package equipment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

// Availability is the per-type unit count picture for an interval.
type Availability struct {
	Type      enums.EquipmentType `json:"equipment_type"`
	Total     int                 `json:"total_units"`
	Conflicts int                 `json:"conflicting_units"`
	Available int                 `json:"available_units"`
}

// Service owns the equipment fleet and the unit assignment primitives the
// order orchestrator composes inside its transaction.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("equipment repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// Assign reserves count units of the given type for the order's interval.
// Units are chosen deterministically, oldest first, skipping any unit already
// held by an overlapping confirmed order. Must run inside the caller's
// transaction; on insufficient stock nothing is inserted and the error names
// the shortfall.
func (s *Service) Assign(ctx context.Context, tx *gorm.DB, order *models.Order, t enums.EquipmentType, count int) ([]models.OrderEquipmentAssignment, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if count < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "equipment count cannot be negative")
	}
	if count == 0 {
		return nil, nil
	}
	if !t.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown equipment type %q", t))
	}

	rng, err := interval.New(order.StartDate, order.EndDate)
	if err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	candidates, err := repo.CandidateUnits(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("loading candidate units: %w", err)
	}
	conflicting, err := repo.ConflictingUnitIDs(ctx, t, rng, &order.ID)
	if err != nil {
		return nil, fmt.Errorf("loading conflicting units: %w", err)
	}
	taken := make(map[uuid.UUID]struct{}, len(conflicting))
	for _, id := range conflicting {
		taken[id] = struct{}{}
	}

	free := make([]models.Equipment, 0, len(candidates))
	for _, unit := range candidates {
		if _, held := taken[unit.ID]; held {
			continue
		}
		free = append(free, unit)
	}

	if len(free) < count {
		return nil, apperrors.New(apperrors.CodeInsufficientEquipment,
			fmt.Sprintf("%d %s unit(s) requested, %d available for the interval", count, t, len(free))).
			WithDetails(map[string]any{
				"equipment_type":  t,
				"requested_units": count,
				"available_units": len(free),
				"start_date":      rng.Start.Format(interval.DateLayout),
				"end_date":        rng.End.Format(interval.DateLayout),
			})
	}

	assignments := make([]models.OrderEquipmentAssignment, 0, count)
	for _, unit := range free[:count] {
		assignment := models.OrderEquipmentAssignment{
			OrderID:     order.ID,
			EquipmentID: unit.ID,
			AssignedAt:  order.StartDate,
			Status:      enums.AssignmentStatusAssigned,
		}
		if err := repo.InsertAssignment(ctx, &assignment); err != nil {
			return nil, fmt.Errorf("inserting assignment for unit %s: %w", unit.ID, err)
		}
		unit.Status = enums.EquipmentStatusAssigned
		if err := repo.Update(ctx, &unit); err != nil {
			return nil, fmt.Errorf("marking unit %s assigned: %w", unit.ID, err)
		}
		assignments = append(assignments, assignment)
	}

	s.logg.Info(ctx, fmt.Sprintf("assigned %d %s unit(s) to order %s", count, t, order.OrderCode))
	return assignments, nil
}

// ReleaseForOrder closes every active assignment the order holds with a clean
// return. Idempotent; individual failures are aggregated so one bad row does
// not strand the rest.
func (s *Service) ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	repo := s.repo.WithTx(tx)

	assignments, err := repo.ActiveAssignmentsForOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading active assignments: %w", err)
	}

	now := time.Now().UTC()
	var errs error
	for i := range assignments {
		assignment := assignments[i]
		assignment.ReturnedAt = &now
		assignment.Status = enums.AssignmentStatusReturned
		if err := repo.UpdateAssignment(ctx, &assignment); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("releasing unit %s: %w", assignment.EquipmentID, err))
			continue
		}

		unit, err := repo.FindByID(ctx, assignment.EquipmentID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("loading unit %s: %w", assignment.EquipmentID, err))
			continue
		}
		// Damaged and retired units keep their status; only the coarse
		// assigned flag is undone.
		if unit != nil && unit.Status == enums.EquipmentStatusAssigned {
			unit.Status = enums.EquipmentStatusAvailable
			if err := repo.Update(ctx, unit); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("restoring unit %s: %w", assignment.EquipmentID, err))
			}
		}
	}
	return errs
}

// ReturnInput describes how one unit came back from an order.
type ReturnInput struct {
	OrderID     uuid.UUID
	EquipmentID uuid.UUID
	Outcome     enums.AssignmentStatus
	Notes       *string
}

// Return closes a single assignment with an explicit outcome and moves the
// unit to the status that outcome implies. Damaged and lost units leave the
// rentable pool until an operator clears them.
func (s *Service) Return(ctx context.Context, input ReturnInput) (*models.OrderEquipmentAssignment, error) {
	if input.Outcome == enums.AssignmentStatusAssigned || !input.Outcome.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid return outcome %q", input.Outcome))
	}

	assignment, err := s.repo.FindAssignment(ctx, input.OrderID, input.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("loading assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "assignment not found")
	}
	if !assignment.Active() {
		return nil, apperrors.New(apperrors.CodeStateConflict, "assignment already returned")
	}

	now := time.Now().UTC()
	assignment.ReturnedAt = &now
	assignment.Status = input.Outcome
	assignment.ReturnNotes = input.Notes
	if err := s.repo.UpdateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("closing assignment: %w", err)
	}

	unit, err := s.repo.FindByID(ctx, input.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("loading unit: %w", err)
	}
	if unit != nil {
		unit.Status = input.Outcome.EquipmentStatusAfterReturn()
		if err := s.repo.Update(ctx, unit); err != nil {
			return nil, fmt.Errorf("updating unit status: %w", err)
		}
	}

	s.logg.Info(ctx, fmt.Sprintf("unit %s returned as %s", input.EquipmentID, input.Outcome))
	return assignment, nil
}

// AvailableUnits counts rentable units of a type free over an interval.
func (s *Service) AvailableUnits(ctx context.Context, t enums.EquipmentType, rng interval.Range, excludeOrder *uuid.UUID) (Availability, error) {
	if !t.IsValid() {
		return Availability{}, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown equipment type %q", t))
	}

	candidates, err := s.repo.CandidateUnits(ctx, t)
	if err != nil {
		return Availability{}, fmt.Errorf("loading candidate units: %w", err)
	}
	conflicting, err := s.repo.ConflictingUnitIDs(ctx, t, rng, excludeOrder)
	if err != nil {
		return Availability{}, fmt.Errorf("loading conflicting units: %w", err)
	}

	taken := make(map[uuid.UUID]struct{}, len(conflicting))
	for _, id := range conflicting {
		taken[id] = struct{}{}
	}
	free := 0
	for _, unit := range candidates {
		if _, held := taken[unit.ID]; !held {
			free++
		}
	}

	return Availability{
		Type:      t,
		Total:     len(candidates),
		Conflicts: len(candidates) - free,
		Available: free,
	}, nil
}

// CreateUnit registers a new physical unit.
func (s *Service) CreateUnit(ctx context.Context, unit *models.Equipment) error {
	if !unit.Type.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown equipment type %q", unit.Type))
	}
	if unit.Status == "" {
		unit.Status = enums.EquipmentStatusAvailable
	}
	if !unit.Status.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown equipment status %q", unit.Status))
	}
	return s.repo.Create(ctx, unit)
}

// GetUnit loads one unit by id.
func (s *Service) GetUnit(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "equipment not found")
	}
	return unit, nil
}

// ListUnits lists the fleet with optional type/status filters.
func (s *Service) ListUnits(ctx context.Context, filter ListFilter) ([]models.Equipment, error) {
	return s.repo.List(ctx, filter)
}

// UpdateUnitInput carries the mutable unit fields; nil means unchanged.
type UpdateUnitInput struct {
	Status       *enums.EquipmentStatus
	Model        *string
	SerialNumber *string
	Notes        *string
}

// UpdateUnit applies partial changes to a unit.
func (s *Service) UpdateUnit(ctx context.Context, id uuid.UUID, input UpdateUnitInput) (*models.Equipment, error) {
	unit, err := s.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown equipment status %q", *input.Status))
		}
		unit.Status = *input.Status
	}
	if input.Model != nil {
		unit.Model = input.Model
	}
	if input.SerialNumber != nil {
		unit.SerialNumber = input.SerialNumber
	}
	if input.Notes != nil {
		unit.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("updating unit: %w", err)
	}
	return unit, nil
}

// DeleteUnit removes a unit that has never been assigned. Units with
// assignment history are retired instead so old orders keep their references.
func (s *Service) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetUnit(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountAssignmentsForUnit(ctx, id)
	if err != nil {
		return fmt.Errorf("counting assignments: %w", err)
	}
	if count > 0 {
		return apperrors.New(apperrors.CodeStateConflict, "unit has assignment history, retire it instead")
	}
	return s.repo.Delete(ctx, id)
}
