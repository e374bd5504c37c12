// Package availability is the read side of the reservation engine: capacity
// questions answered from the same overlap primitives the booking path uses,
// so a quote and the booking it precedes never disagree on the rules.
package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// ScreenReport is one screen type's availability plus its utilization
// percentage. IsAvailable is set only when the query declared a required sqm.
type ScreenReport struct {
	screens.AreaAvailability
	Utilization decimal.Decimal `json:"utilization_percent"`
	IsAvailable *bool           `json:"is_available,omitempty"`
}

// AreaQuery narrows an area availability query. All fields optional.
type AreaQuery struct {
	PixelPitch   *decimal.Decimal
	RequiredSqm  *decimal.Decimal
	ExcludeOrder *uuid.UUID
}

// EquipmentReport is the per-type unit picture plus the can-fulfill shortcut
// booking tools use: at least one free laptop and one free video processor.
type EquipmentReport struct {
	Types      []equipment.Availability `json:"types"`
	CanFulfill bool                     `json:"can_fulfill"`
}

// Snapshot is the full capacity picture for an interval.
type Snapshot struct {
	StartDate string                   `json:"start_date"`
	EndDate   string                   `json:"end_date"`
	Screens   []ScreenReport           `json:"screens"`
	Equipment []equipment.Availability `json:"equipment"`
}

type Service struct {
	screens   *screens.Service
	equipment *equipment.Service
}

func NewService(screenSvc *screens.Service, equipmentSvc *equipment.Service) (*Service, error) {
	if screenSvc == nil {
		return nil, fmt.Errorf("screens service required")
	}
	if equipmentSvc == nil {
		return nil, fmt.Errorf("equipment service required")
	}
	return &Service{screens: screenSvc, equipment: equipmentSvc}, nil
}

// ForScreen reports one screen type's availability over an interval.
func (s *Service) ForScreen(ctx context.Context, screenID uuid.UUID, rng interval.Range, query AreaQuery) (ScreenReport, error) {
	avail, err := s.screens.AvailableSqmExcluding(ctx, screenID, rng, query.ExcludeOrder)
	if err != nil {
		return ScreenReport{}, err
	}
	return buildScreenReport(avail, query.RequiredSqm), nil
}

// ForArea reports every active screen type matching the query's pitch filter.
func (s *Service) ForArea(ctx context.Context, rng interval.Range, query AreaQuery) ([]ScreenReport, error) {
	active, err := s.screens.ListScreens(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing screens: %w", err)
	}

	reports := []ScreenReport{}
	for _, screen := range active {
		if query.PixelPitch != nil && !screen.PixelPitch.Equal(*query.PixelPitch) {
			continue
		}
		avail, err := s.screens.AvailableSqmExcluding(ctx, screen.ID, rng, query.ExcludeOrder)
		if err != nil {
			return nil, err
		}
		reports = append(reports, buildScreenReport(avail, query.RequiredSqm))
	}
	return reports, nil
}

// ForEquipmentType reports unit availability for one equipment type.
func (s *Service) ForEquipmentType(ctx context.Context, t enums.EquipmentType, rng interval.Range, excludeOrder *uuid.UUID) (equipment.Availability, error) {
	return s.equipment.AvailableUnits(ctx, t, rng, excludeOrder)
}

// ForEquipment reports every equipment type plus the can-fulfill shortcut.
func (s *Service) ForEquipment(ctx context.Context, rng interval.Range, excludeOrder *uuid.UUID) (EquipmentReport, error) {
	report := EquipmentReport{}
	free := map[enums.EquipmentType]int{}
	for _, t := range enums.EquipmentTypes() {
		avail, err := s.equipment.AvailableUnits(ctx, t, rng, excludeOrder)
		if err != nil {
			return EquipmentReport{}, err
		}
		report.Types = append(report.Types, avail)
		free[t] = avail.Available
	}
	report.CanFulfill = free[enums.EquipmentTypeLaptop] >= 1 && free[enums.EquipmentTypeVideoProcessor] >= 1
	return report, nil
}

// Snapshot reports availability for every active screen type and every
// equipment type over an interval.
func (s *Service) Snapshot(ctx context.Context, rng interval.Range) (Snapshot, error) {
	snapshot := Snapshot{
		StartDate: rng.Start.Format(interval.DateLayout),
		EndDate:   rng.End.Format(interval.DateLayout),
	}

	reports, err := s.ForArea(ctx, rng, AreaQuery{})
	if err != nil {
		return Snapshot{}, err
	}
	snapshot.Screens = reports

	for _, t := range enums.EquipmentTypes() {
		avail, err := s.equipment.AvailableUnits(ctx, t, rng, nil)
		if err != nil {
			return Snapshot{}, err
		}
		snapshot.Equipment = append(snapshot.Equipment, avail)
	}

	return snapshot, nil
}

var oneHundred = decimal.NewFromInt(100)

// buildScreenReport derives reserved/total as a percentage, clamped to
// [0, 100]. Zero total reports zero utilization.
func buildScreenReport(avail screens.AreaAvailability, requiredSqm *decimal.Decimal) ScreenReport {
	utilization := decimal.Zero
	if avail.TotalOwned.IsPositive() {
		utilization = avail.Reserved.Div(avail.TotalOwned).Mul(oneHundred).Round(2)
		if utilization.GreaterThan(oneHundred) {
			utilization = oneHundred
		}
	}

	report := ScreenReport{AreaAvailability: avail, Utilization: utilization}
	if requiredSqm != nil {
		ok := avail.Available.GreaterThanOrEqual(*requiredSqm)
		report.IsAvailable = &ok
	}
	return report
}
