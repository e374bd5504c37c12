// Package maintenance manages maintenance windows that pull screen area out
// of the rentable pool for a date range.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

// Repository is the persistence surface for maintenance windows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, window *models.ScreenMaintenanceWindow) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScreenMaintenanceWindow, error)
	ListForScreen(ctx context.Context, screenID uuid.UUID) ([]models.ScreenMaintenanceWindow, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{db: conn}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) Create(ctx context.Context, window *models.ScreenMaintenanceWindow) error {
	return r.db.WithContext(ctx).Create(window).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScreenMaintenanceWindow, error) {
	var window models.ScreenMaintenanceWindow
	err := r.db.WithContext(ctx).First(&window, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func (r *gormRepository) ListForScreen(ctx context.Context, screenID uuid.UUID) ([]models.ScreenMaintenanceWindow, error) {
	var windows []models.ScreenMaintenanceWindow
	err := r.db.WithContext(ctx).
		Where("screen_inventory_id = ?", screenID).
		Order("start_date ASC").
		Find(&windows).Error
	return windows, err
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ScreenMaintenanceWindow{}, "id = ?", id).Error
}

// CreateInput describes one new maintenance window.
type CreateInput struct {
	ScreenInventoryID uuid.UUID
	Sqm               decimal.Decimal
	Range             interval.Range
	Reason            *string
}

// Service validates and stores maintenance windows. A window that would push
// the screen's committed area (reservations plus maintenance) past its owned
// total is rejected at creation rather than silently oversubscribing.
type Service struct {
	repo    Repository
	screens *screens.Service
	logg    *logger.Logger
}

func NewService(repo Repository, screenSvc *screens.Service, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	if screenSvc == nil {
		return nil, fmt.Errorf("screens service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, screens: screenSvc, logg: logg}, nil
}

// Create validates the window against current commitments and stores it.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.ScreenMaintenanceWindow, error) {
	if !input.Sqm.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "maintenance sqm must be positive")
	}
	if err := input.Range.Validate(); err != nil {
		return nil, err
	}

	avail, err := s.screens.AvailableSqm(ctx, input.ScreenInventoryID, input.Range)
	if err != nil {
		return nil, err
	}
	if input.Sqm.GreaterThan(avail.Available) {
		return nil, apperrors.New(apperrors.CodeInsufficientInventory,
			fmt.Sprintf("maintenance window of %s sqm exceeds the %s sqm free on %q", input.Sqm, avail.Available, avail.ScreenType)).
			WithDetails(map[string]any{
				"screen_type":   avail.ScreenType,
				"requested_sqm": input.Sqm,
				"available_sqm": avail.Available,
			})
	}

	window := &models.ScreenMaintenanceWindow{
		ScreenInventoryID: input.ScreenInventoryID,
		Sqm:               input.Sqm,
		StartDate:         input.Range.Start,
		EndDate:           input.Range.End,
		Reason:            input.Reason,
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("creating maintenance window: %w", err)
	}

	ctx = s.logg.WithScreenType(ctx, avail.ScreenType)
	s.logg.Info(ctx, fmt.Sprintf("maintenance window of %s sqm scheduled %s", input.Sqm, input.Range))
	return window, nil
}

// Get loads one window by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ScreenMaintenanceWindow, error) {
	window, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "maintenance window not found")
	}
	return window, nil
}

// ListForScreen lists a screen's windows, earliest first.
func (s *Service) ListForScreen(ctx context.Context, screenID uuid.UUID) ([]models.ScreenMaintenanceWindow, error) {
	if _, err := s.screens.GetScreen(ctx, screenID); err != nil {
		return nil, err
	}
	return s.repo.ListForScreen(ctx, screenID)
}

// Delete removes a window, returning its area to the pool immediately.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
