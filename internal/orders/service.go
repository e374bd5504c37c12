package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/db"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/logger"
	"github.com/vantageav/ledrental-backend/pkg/outbox"
)

// codeDateLayout is the date part of an order code: 15/05/2026_A.
const codeDateLayout = "02/01/2006"

// ScreenLineInput is one requested area line on an order.
type ScreenLineInput struct {
	ScreenInventoryID uuid.UUID
	SqmRequired       decimal.Decimal
	Rows              *int
	Columns           *int
}

// CreateInput is everything needed to book an order.
type CreateInput struct {
	UserID                uuid.UUID
	StartDate             time.Time
	EndDate               time.Time
	PricePerSqm           decimal.Decimal
	LaptopsNeeded         int
	VideoProcessorsNeeded int
	LocationName          *string
	Notes                 *string
	Screens               []ScreenLineInput
}

// UpdateInput rebooks an order's resources. All fields are required: an
// update replaces the order's interval and resource mix wholesale.
type UpdateInput struct {
	StartDate             time.Time
	EndDate               time.Time
	PricePerSqm           decimal.Decimal
	LaptopsNeeded         int
	VideoProcessorsNeeded int
	LocationName          *string
	Notes                 *string
	Screens               []ScreenLineInput
}

// Service orchestrates the order lifecycle. Every booking mutation runs in a
// single transaction that locks inventory rows, re-checks availability and
// writes the outbox event, so an order either holds everything it asked for
// or nothing at all.
type Service struct {
	client    *db.Client
	repo      Repository
	screens   *screens.Service
	equipment *equipment.Service
	outbox    *outbox.Service
	cfg       config.ReservationConfig
	logg      *logger.Logger
}

func NewService(
	client *db.Client,
	repo Repository,
	screenSvc *screens.Service,
	equipmentSvc *equipment.Service,
	outboxSvc *outbox.Service,
	cfg config.ReservationConfig,
	logg *logger.Logger,
) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if screenSvc == nil {
		return nil, fmt.Errorf("screens service required")
	}
	if equipmentSvc == nil {
		return nil, fmt.Errorf("equipment service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Service{
		client:    client,
		repo:      repo,
		screens:   screenSvc,
		equipment: equipmentSvc,
		outbox:    outboxSvc,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

// Create books a new order: reserves every screen line, assigns the requested
// equipment and emits the confirmation event, all in one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id required")
	}
	rng, err := interval.New(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.validateResourceMix(ctx, input.PricePerSqm, input.LaptopsNeeded, input.VideoProcessorsNeeded, input.Screens); err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.runWithRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		code, err := s.nextOrderCode(ctx, repo, rng.Start)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderCode:             code,
			UserID:                input.UserID,
			StartDate:             rng.Start,
			EndDate:               rng.End,
			DurationDays:          rng.Days(),
			Status:                enums.OrderStatusConfirmed,
			PaymentStatus:         enums.PaymentStatusNotReceived,
			PricePerSqm:           input.PricePerSqm,
			TotalAmount:           totalAmount(input.PricePerSqm, input.Screens, rng.Days()),
			Paid:                  decimal.Zero,
			LaptopsNeeded:         input.LaptopsNeeded,
			VideoProcessorsNeeded: input.VideoProcessorsNeeded,
			LocationName:          input.LocationName,
			Notes:                 input.Notes,
		}
		if err := repo.Create(ctx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		if err := s.book(ctx, tx, order, input.Screens, input.LaptopsNeeded, input.VideoProcessorsNeeded); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     outbox.EventOrderConfirmed,
			AggregateType: outbox.AggregateOrder,
			AggregateID:   order.ID,
			Data:          eventPayload(order),
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order %s booked for %s", order.OrderCode, rng))
	return s.Get(ctx, order.ID)
}

// Update rebooks a confirmed order: releases everything it holds, then
// reserves the new mix under the same availability rules. The order's own
// released rows never count against it during the re-check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Order, error) {
	rng, err := interval.New(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.validateResourceMix(ctx, input.PricePerSqm, input.LaptopsNeeded, input.VideoProcessorsNeeded, input.Screens); err != nil {
		return nil, err
	}

	err = s.runWithRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading order: %w", err)
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusConfirmed {
			return apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("order %s is %s and cannot be updated", order.OrderCode, order.Status))
		}

		if err := s.screens.ReleaseForOrder(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("releasing screen requirements: %w", err)
		}
		if err := s.equipment.ReleaseForOrder(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("releasing equipment: %w", err)
		}

		order.StartDate = rng.Start
		order.EndDate = rng.End
		order.DurationDays = rng.Days()
		order.PricePerSqm = input.PricePerSqm
		order.TotalAmount = totalAmount(input.PricePerSqm, input.Screens, rng.Days())
		order.LaptopsNeeded = input.LaptopsNeeded
		order.VideoProcessorsNeeded = input.VideoProcessorsNeeded
		order.LocationName = input.LocationName
		order.Notes = input.Notes
		order.Requirements = nil
		order.Assignments = nil
		if err := repo.Save(ctx, order); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}

		return s.book(ctx, tx, order, input.Screens, input.LaptopsNeeded, input.VideoProcessorsNeeded)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Cancel moves a confirmed order to its terminal state and releases every
// resource it holds. Cancelling twice is a state conflict.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading order: %w", err)
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		if !order.CanCancel() {
			return apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("order %s is already %s", order.OrderCode, order.Status))
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.Requirements = nil
		order.Assignments = nil
		if err := repo.Save(ctx, order); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}

		if err := s.screens.ReleaseForOrder(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("releasing screen requirements: %w", err)
		}
		if err := s.equipment.ReleaseForOrder(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("releasing equipment: %w", err)
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     outbox.EventOrderCancelled,
			AggregateType: outbox.AggregateOrder,
			AggregateID:   order.ID,
			Data:          eventPayload(order),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an order and its reservation rows outright. Held equipment
// is returned first so unit statuses stay truthful.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading order: %w", err)
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		if err := s.equipment.ReleaseForOrder(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("releasing equipment: %w", err)
		}
		return repo.Delete(ctx, order.ID)
	})
}

// RecordPayment adds a received amount and re-derives the payment status.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*models.Order, error) {
	if !amount.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "payment amount must be positive")
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading order: %w", err)
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		if order.Status == enums.OrderStatusCancelled {
			return apperrors.New(apperrors.CodeStateConflict, "cannot record payment on a cancelled order")
		}

		paid := order.Paid.Add(amount)
		if paid.GreaterThan(order.TotalAmount) {
			return apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("payment of %s exceeds the %s outstanding", amount, order.Remaining()))
		}

		order.Paid = paid
		switch {
		case paid.IsZero():
			order.PaymentStatus = enums.PaymentStatusNotReceived
		case paid.GreaterThanOrEqual(order.TotalAmount):
			order.PaymentStatus = enums.PaymentStatusReceived
		default:
			order.PaymentStatus = enums.PaymentStatusPartial
		}
		order.Requirements = nil
		order.Assignments = nil
		return repo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get loads one order with its reservation rows.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// List lists orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	return s.repo.List(ctx, filter)
}

// book reserves every screen line and assigns the requested equipment for an
// order already persisted in the transaction.
func (s *Service) book(ctx context.Context, tx *gorm.DB, order *models.Order, lines []ScreenLineInput, laptops, processors int) error {
	for _, line := range lines {
		_, err := s.screens.Reserve(ctx, tx, order, screens.ReservationLine{
			ScreenInventoryID: line.ScreenInventoryID,
			SqmRequired:       line.SqmRequired,
			Rows:              line.Rows,
			Columns:           line.Columns,
		})
		if err != nil {
			return err
		}
	}

	if _, err := s.equipment.Assign(ctx, tx, order, enums.EquipmentTypeLaptop, laptops); err != nil {
		return err
	}
	if _, err := s.equipment.Assign(ctx, tx, order, enums.EquipmentTypeVideoProcessor, processors); err != nil {
		return err
	}
	return nil
}

// validateResourceMix runs every check that needs no locks: line shapes,
// duplicate screen types, and pixel pitch homogeneity across the order.
func (s *Service) validateResourceMix(ctx context.Context, pricePerSqm decimal.Decimal, laptops, processors int, lines []ScreenLineInput) error {
	if !pricePerSqm.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "price per sqm must be positive")
	}
	if laptops < 0 || processors < 0 {
		return apperrors.New(apperrors.CodeValidation, "equipment counts cannot be negative")
	}
	if len(lines) == 0 {
		return apperrors.New(apperrors.CodeValidation, "at least one screen requirement is required")
	}

	seen := make(map[uuid.UUID]struct{}, len(lines))
	var pitch *decimal.Decimal
	var pitchScreenType string
	for _, line := range lines {
		if err := screens.ValidateLine(screens.ReservationLine{
			ScreenInventoryID: line.ScreenInventoryID,
			SqmRequired:       line.SqmRequired,
			Rows:              line.Rows,
			Columns:           line.Columns,
		}); err != nil {
			return err
		}
		if _, dup := seen[line.ScreenInventoryID]; dup {
			return apperrors.New(apperrors.CodeValidation, "duplicate screen requirement")
		}
		seen[line.ScreenInventoryID] = struct{}{}

		screen, err := s.screens.GetScreen(ctx, line.ScreenInventoryID)
		if err != nil {
			return err
		}
		if pitch == nil {
			p := screen.PixelPitch
			pitch = &p
			pitchScreenType = screen.ScreenType
			continue
		}
		if !screen.PixelPitch.Equal(*pitch) {
			return apperrors.New(apperrors.CodeIncompatibleMix,
				fmt.Sprintf("screen %q (pitch %s) cannot be mixed with %q (pitch %s)",
					screen.ScreenType, screen.PixelPitch, pitchScreenType, *pitch)).
				WithDetails(map[string]any{
					"screen_types": []string{pitchScreenType, screen.ScreenType},
					"pixel_pitch":  []string{pitch.String(), screen.PixelPitch.String()},
				})
		}
	}
	return nil
}

// nextOrderCode issues the next code in the start date's daily sequence:
// 15/05/2026_A, then _B, rolling to _AA after _Z. The next letter comes from
// the highest suffix already issued, not the row count, so a hard-deleted
// order never causes its letter to be reissued.
func (s *Service) nextOrderCode(ctx context.Context, repo Repository, start time.Time) (string, error) {
	prefix := start.Format(codeDateLayout) + "_"
	codes, err := repo.CodesByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("loading daily codes: %w", err)
	}
	var high int64
	for _, code := range codes {
		if v := suffixValue(strings.TrimPrefix(code, prefix)); v > high {
			high = v
		}
	}
	return prefix + sequenceSuffix(high), nil
}

// sequenceSuffix maps 0 -> A, 25 -> Z, 26 -> AA, bijective base 26.
func sequenceSuffix(n int64) string {
	suffix := ""
	n++
	for n > 0 {
		n--
		suffix = string(rune('A'+n%26)) + suffix
		n /= 26
	}
	return suffix
}

// suffixValue is the inverse of sequenceSuffix, 1-based: A -> 1, Z -> 26,
// AA -> 27. Malformed suffixes count as zero.
func suffixValue(suffix string) int64 {
	var n int64
	for _, r := range suffix {
		if r < 'A' || r > 'Z' {
			return 0
		}
		n = n*26 + int64(r-'A'+1)
	}
	return n
}

func totalAmount(pricePerSqm decimal.Decimal, lines []ScreenLineInput, days int) decimal.Decimal {
	totalSqm := decimal.Zero
	for _, line := range lines {
		totalSqm = totalSqm.Add(line.SqmRequired)
	}
	return pricePerSqm.Mul(totalSqm).Mul(decimal.NewFromInt(int64(days)))
}

// runWithRetry re-runs the transaction a bounded number of times on
// serialization failures and order-code collisions, then surfaces a
// concurrency conflict the caller can retry.
func (s *Service) runWithRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		err = s.client.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !s.retryable(err) {
			return err
		}
		s.logg.Warn(ctx, fmt.Sprintf("booking attempt %d conflicted, retrying: %v", attempt+1, err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RetryBackoff):
		}
	}
	return apperrors.Wrap(apperrors.CodeConcurrencyConflict, err, "booking conflicted with concurrent reservations")
}

func (s *Service) retryable(err error) bool {
	return db.IsSerializationFailure(err) || db.IsUniqueViolation(err, "order_code")
}

func eventPayload(order *models.Order) map[string]any {
	return map[string]any{
		"order_id":     order.ID,
		"order_code":   order.OrderCode,
		"user_id":      order.UserID,
		"status":       order.Status,
		"start_date":   order.StartDate.Format(interval.DateLayout),
		"end_date":     order.EndDate.Format(interval.DateLayout),
		"total_amount": order.TotalAmount,
	}
}
