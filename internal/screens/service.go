package screens

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

// DimensionTolerance is the relative slack allowed between a declared panel
// layout (rows x columns at 0.25 sqm per panel) and the declared sqm.
var DimensionTolerance = decimal.RequireFromString("0.05")

// AreaAvailability is the capacity picture for one screen type over an
// interval. Available is clamped at zero: over-subscription via maintenance
// never reports negative capacity.
type AreaAvailability struct {
	ScreenInventoryID uuid.UUID       `json:"screen_inventory_id"`
	ScreenType        string          `json:"screen_type"`
	TotalOwned        decimal.Decimal `json:"total_sqm_owned"`
	Reserved          decimal.Decimal `json:"reserved_sqm"`
	Maintenance       decimal.Decimal `json:"maintenance_sqm"`
	Available         decimal.Decimal `json:"available_sqm"`
}

// ReservationLine describes one area requirement to reserve for an order.
type ReservationLine struct {
	ScreenInventoryID uuid.UUID
	SqmRequired       decimal.Decimal
	Rows              *int
	Columns           *int
}

// Service owns screen inventory CRUD and the area reservation primitives the
// order orchestrator composes inside its transaction.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("screens repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// AvailableSqm computes availability outside any transaction, for read-only
// availability queries.
func (s *Service) AvailableSqm(ctx context.Context, screenID uuid.UUID, rng interval.Range) (AreaAvailability, error) {
	return s.availableWithRepo(ctx, s.repo, screenID, rng, nil)
}

// AvailableSqmExcluding is AvailableSqm with one order's own reservations
// removed from the reserved sum, for edit-time availability previews.
func (s *Service) AvailableSqmExcluding(ctx context.Context, screenID uuid.UUID, rng interval.Range, excludeOrder *uuid.UUID) (AreaAvailability, error) {
	return s.availableWithRepo(ctx, s.repo, screenID, rng, excludeOrder)
}

// availableWithRepo computes total - reserved - maintenance for an interval.
// Sums run in Go over the overlapping rows so decimals stay exact on every
// dialect. excludeOrder drops one order's own rows from the reserved sum,
// which lets an update re-check availability without double counting itself.
func (s *Service) availableWithRepo(ctx context.Context, repo Repository, screenID uuid.UUID, rng interval.Range, excludeOrder *uuid.UUID) (AreaAvailability, error) {
	screen, err := repo.FindByID(ctx, screenID)
	if err != nil {
		return AreaAvailability{}, fmt.Errorf("loading screen %s: %w", screenID, err)
	}
	if screen == nil {
		return AreaAvailability{}, apperrors.New(apperrors.CodeNotFound, "screen inventory not found")
	}

	reqs, err := repo.OverlappingRequirements(ctx, screenID, rng)
	if err != nil {
		return AreaAvailability{}, fmt.Errorf("loading overlapping requirements: %w", err)
	}
	reserved := decimal.Zero
	for _, req := range reqs {
		if excludeOrder != nil && req.OrderID == *excludeOrder {
			continue
		}
		reserved = reserved.Add(req.SqmRequired)
	}

	windows, err := repo.OverlappingMaintenance(ctx, screenID, rng)
	if err != nil {
		return AreaAvailability{}, fmt.Errorf("loading maintenance windows: %w", err)
	}
	maintenance := decimal.Zero
	for _, w := range windows {
		maintenance = maintenance.Add(w.Sqm)
	}

	available := screen.TotalSqmOwned.Sub(reserved).Sub(maintenance)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return AreaAvailability{
		ScreenInventoryID: screen.ID,
		ScreenType:        screen.ScreenType,
		TotalOwned:        screen.TotalSqmOwned,
		Reserved:          reserved,
		Maintenance:       maintenance,
		Available:         available,
	}, nil
}

// Reserve locks the inventory row, re-checks availability under the lock and
// inserts the requirement. Must run inside the caller's transaction.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, order *models.Order, line ReservationLine) (*models.OrderScreenRequirement, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := ValidateLine(line); err != nil {
		return nil, err
	}

	rng, err := interval.New(order.StartDate, order.EndDate)
	if err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	screen, err := repo.LockForReservation(ctx, line.ScreenInventoryID)
	if err != nil {
		return nil, fmt.Errorf("locking screen %s: %w", line.ScreenInventoryID, err)
	}
	if screen == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "screen inventory not found")
	}
	if !screen.IsActive {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("screen type %q is not rentable", screen.ScreenType))
	}

	avail, err := s.availableWithRepo(ctx, repo, screen.ID, rng, &order.ID)
	if err != nil {
		return nil, err
	}
	if line.SqmRequired.GreaterThan(avail.Available) {
		return nil, apperrors.New(apperrors.CodeInsufficientInventory,
			fmt.Sprintf("screen type %q has %s sqm available, %s requested", screen.ScreenType, avail.Available, line.SqmRequired)).
			WithDetails(map[string]any{
				"screen_type":   screen.ScreenType,
				"requested_sqm": line.SqmRequired,
				"available_sqm": avail.Available,
				"start_date":    rng.Start.Format(interval.DateLayout),
				"end_date":      rng.End.Format(interval.DateLayout),
			})
	}

	now := time.Now().UTC()
	req := &models.OrderScreenRequirement{
		OrderID:           order.ID,
		ScreenInventoryID: screen.ID,
		SqmRequired:       line.SqmRequired,
		Rows:              line.Rows,
		Columns:           line.Columns,
		ReservedAt:        &now,
	}
	if err := repo.InsertRequirement(ctx, req); err != nil {
		return nil, fmt.Errorf("inserting requirement: %w", err)
	}

	ctx = s.logg.WithScreenType(ctx, screen.ScreenType)
	s.logg.Info(ctx, fmt.Sprintf("reserved %s sqm for order %s", line.SqmRequired, order.OrderCode))
	return req, nil
}

// ReleaseForOrder releases every unreleased requirement the order holds.
// Idempotent: releasing an order with nothing held is a no-op.
func (s *Service) ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	return s.repo.WithTx(tx).ReleaseRequirementsForOrder(ctx, orderID, time.Now().UTC())
}

// ValidateLine checks a reservation line before any database work: positive
// area and, when a panel layout is declared, rows x columns consistent with
// the declared sqm within the relative tolerance.
func ValidateLine(line ReservationLine) error {
	if line.ScreenInventoryID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "screen inventory id required")
	}
	if !line.SqmRequired.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "sqm required must be positive")
	}
	if (line.Rows == nil) != (line.Columns == nil) {
		return apperrors.New(apperrors.CodeValidation, "panel rows and columns must be declared together")
	}
	if line.Rows == nil {
		return nil
	}
	if *line.Rows <= 0 || *line.Columns <= 0 {
		return apperrors.New(apperrors.CodeValidation, "panel rows and columns must be positive")
	}

	panels := decimal.NewFromInt(int64(*line.Rows) * int64(*line.Columns))
	calculated := panels.Mul(models.PanelUnitArea)
	diff := calculated.Sub(line.SqmRequired).Abs()
	if diff.GreaterThan(line.SqmRequired.Mul(DimensionTolerance)) {
		return apperrors.New(apperrors.CodeDimensionMismatch,
			fmt.Sprintf("%dx%d panels yield %s sqm, declared %s sqm", *line.Rows, *line.Columns, calculated, line.SqmRequired)).
			WithDetails(map[string]any{
				"panel_rows":     *line.Rows,
				"panel_columns":  *line.Columns,
				"calculated_sqm": calculated,
				"declared_sqm":   line.SqmRequired,
			})
	}
	return nil
}

// CreateScreen registers a new screen type in the inventory.
func (s *Service) CreateScreen(ctx context.Context, screen *models.ScreenInventory) error {
	if screen.ScreenType == "" {
		return apperrors.New(apperrors.CodeValidation, "screen type required")
	}
	if !screen.TotalSqmOwned.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "total sqm owned must be positive")
	}
	if !screen.PixelPitch.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "pixel pitch must be positive")
	}

	existing, err := s.repo.FindByType(ctx, screen.ScreenType)
	if err != nil {
		return fmt.Errorf("checking screen type: %w", err)
	}
	if existing != nil {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("screen type %q already exists", screen.ScreenType))
	}
	return s.repo.Create(ctx, screen)
}

// GetScreen loads a screen by id.
func (s *Service) GetScreen(ctx context.Context, id uuid.UUID) (*models.ScreenInventory, error) {
	screen, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "screen inventory not found")
	}
	return screen, nil
}

// ListScreens lists inventory, optionally including deactivated types.
func (s *Service) ListScreens(ctx context.Context, includeInactive bool) ([]models.ScreenInventory, error) {
	return s.repo.List(ctx, includeInactive)
}

// UpdateScreenInput carries the mutable inventory fields; nil means unchanged.
type UpdateScreenInput struct {
	TotalSqmOwned *decimal.Decimal
	PixelPitch    *decimal.Decimal
	Description   *string
	IsActive      *bool
}

// UpdateScreen applies partial changes to a screen type. Shrinking the owned
// total below what is currently reserved is allowed: existing orders keep
// their reservations and availability clamps at zero until they release.
func (s *Service) UpdateScreen(ctx context.Context, id uuid.UUID, input UpdateScreenInput) (*models.ScreenInventory, error) {
	screen, err := s.GetScreen(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.TotalSqmOwned != nil {
		if !input.TotalSqmOwned.IsPositive() {
			return nil, apperrors.New(apperrors.CodeValidation, "total sqm owned must be positive")
		}
		screen.TotalSqmOwned = *input.TotalSqmOwned
	}
	if input.PixelPitch != nil {
		if !input.PixelPitch.IsPositive() {
			return nil, apperrors.New(apperrors.CodeValidation, "pixel pitch must be positive")
		}
		screen.PixelPitch = *input.PixelPitch
	}
	if input.Description != nil {
		screen.Description = input.Description
	}
	if input.IsActive != nil {
		screen.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, screen); err != nil {
		return nil, fmt.Errorf("updating screen: %w", err)
	}
	return screen, nil
}

// DeleteScreen removes a screen type that has never been rented. Types with
// reservation history must be deactivated instead so old orders keep their
// references.
func (s *Service) DeleteScreen(ctx context.Context, id uuid.UUID) error {
	screen, err := s.GetScreen(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountRequirementsForScreen(ctx, id)
	if err != nil {
		return fmt.Errorf("counting requirements: %w", err)
	}
	if count > 0 {
		return apperrors.New(apperrors.CodeStateConflict,
			fmt.Sprintf("screen type %q has reservation history, deactivate it instead", screen.ScreenType))
	}
	return s.repo.Delete(ctx, id)
}
