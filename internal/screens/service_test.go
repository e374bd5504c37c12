package screens

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/pkg/db/dbtest"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), dbtest.Logger(t))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func date(day int) time.Time {
	return time.Date(2026, time.May, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedScreen(t *testing.T, conn *gorm.DB, screenType string, totalSqm string) *models.ScreenInventory {
	t.Helper()
	screen := &models.ScreenInventory{
		ScreenType:    screenType,
		PixelPitch:    dec("3.9"),
		TotalSqmOwned: dec(totalSqm),
		IsActive:      true,
	}
	if err := conn.Create(screen).Error; err != nil {
		t.Fatalf("seeding screen: %v", err)
	}
	return screen
}

func seedOrder(t *testing.T, conn *gorm.DB, code string, startDay, endDay int, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderCode:     code,
		UserID:        uuid.New(),
		StartDate:     date(startDay),
		EndDate:       date(endDay),
		DurationDays:  endDay - startDay + 1,
		Status:        status,
		PaymentStatus: enums.PaymentStatusNotReceived,
		PricePerSqm:   dec("10"),
		TotalAmount:   dec("0"),
		Paid:          dec("0"),
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seeding order: %v", err)
	}
	return order
}

func reserve(t *testing.T, svc *Service, conn *gorm.DB, order *models.Order, screenID uuid.UUID, sqm string) {
	t.Helper()
	_, err := svc.Reserve(context.Background(), conn, order, ReservationLine{
		ScreenInventoryID: screenID,
		SqmRequired:       dec(sqm),
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
}

func TestAvailableSqmSubtractsOverlappingReservations(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	orderA := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, orderA, screen.ID, "60")

	rng, _ := interval.New(date(12), date(16))
	avail, err := svc.AvailableSqm(ctx, screen.ID, rng)
	if err != nil {
		t.Fatalf("AvailableSqm: %v", err)
	}
	if !avail.Reserved.Equal(dec("60")) {
		t.Fatalf("Reserved = %s, want 60", avail.Reserved)
	}
	if !avail.Available.Equal(dec("40")) {
		t.Fatalf("Available = %s, want 40", avail.Available)
	}
}

func TestAvailableSqmIgnoresDisjointAndCancelled(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	// Disjoint order: ends before the queried interval starts.
	disjoint := seedOrder(t, conn, "01/05/2026_A", 1, 5, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, disjoint, screen.ID, "80")

	// Overlapping but cancelled: must not count.
	cancelled := seedOrder(t, conn, "01/05/2026_B", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, cancelled, screen.ID, "80")
	if err := conn.Model(cancelled).Update("order_status", enums.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("cancelling order: %v", err)
	}

	rng, _ := interval.New(date(10), date(14))
	avail, err := svc.AvailableSqm(ctx, screen.ID, rng)
	if err != nil {
		t.Fatalf("AvailableSqm: %v", err)
	}
	if !avail.Available.Equal(dec("100")) {
		t.Fatalf("Available = %s, want 100", avail.Available)
	}
}

func TestAvailableSqmCountsTouchingEndpoints(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	order := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, order, screen.ID, "70")

	// Starts the day the existing order ends: still a conflict.
	rng, _ := interval.New(date(14), date(20))
	avail, err := svc.AvailableSqm(ctx, screen.ID, rng)
	if err != nil {
		t.Fatalf("AvailableSqm: %v", err)
	}
	if !avail.Available.Equal(dec("30")) {
		t.Fatalf("Available = %s, want 30", avail.Available)
	}
}

func TestAvailableSqmSubtractsMaintenanceAndClamps(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	order := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, order, screen.ID, "70")

	window := &models.ScreenMaintenanceWindow{
		ScreenInventoryID: screen.ID,
		Sqm:               dec("50"),
		StartDate:         date(12),
		EndDate:           date(13),
	}
	if err := conn.Create(window).Error; err != nil {
		t.Fatalf("seeding maintenance window: %v", err)
	}

	rng, _ := interval.New(date(10), date(14))
	avail, err := svc.AvailableSqm(ctx, screen.ID, rng)
	if err != nil {
		t.Fatalf("AvailableSqm: %v", err)
	}
	if !avail.Maintenance.Equal(dec("50")) {
		t.Fatalf("Maintenance = %s, want 50", avail.Maintenance)
	}
	// 100 - 70 - 50 would be negative; availability clamps at zero.
	if !avail.Available.Equal(decimal.Zero) {
		t.Fatalf("Available = %s, want 0", avail.Available)
	}
}

func TestReserveRejectsInsufficientInventory(t *testing.T) {
	svc, conn := newTestService(t)
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	orderA := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, orderA, screen.ID, "60")

	orderB := seedOrder(t, conn, "01/05/2026_B", 12, 16, enums.OrderStatusConfirmed)
	_, err := svc.Reserve(context.Background(), conn, orderB, ReservationLine{
		ScreenInventoryID: screen.ID,
		SqmRequired:       dec("50"),
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientInventory {
		t.Fatalf("expected INSUFFICIENT_AREA_INVENTORY, got %v", err)
	}
}

func TestReserveAllowsExactFit(t *testing.T) {
	svc, conn := newTestService(t)
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	orderA := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, orderA, screen.ID, "60")

	orderB := seedOrder(t, conn, "01/05/2026_B", 12, 16, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, orderB, screen.ID, "40")
}

func TestReserveRejectsInactiveScreen(t *testing.T) {
	svc, conn := newTestService(t)
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")
	if err := conn.Model(screen).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivating screen: %v", err)
	}

	order := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	_, err := svc.Reserve(context.Background(), conn, order, ReservationLine{
		ScreenInventoryID: screen.ID,
		SqmRequired:       dec("10"),
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestReleaseForOrderReturnsCapacity(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	order := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, order, screen.ID, "60")

	if err := svc.ReleaseForOrder(ctx, conn, order.ID); err != nil {
		t.Fatalf("ReleaseForOrder: %v", err)
	}

	rng, _ := interval.New(date(10), date(14))
	avail, err := svc.AvailableSqm(ctx, screen.ID, rng)
	if err != nil {
		t.Fatalf("AvailableSqm: %v", err)
	}
	if !avail.Available.Equal(dec("100")) {
		t.Fatalf("Available = %s, want 100", avail.Available)
	}

	// Releasing again is a no-op.
	if err := svc.ReleaseForOrder(ctx, conn, order.ID); err != nil {
		t.Fatalf("second ReleaseForOrder: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestValidateLineDimensionTolerance(t *testing.T) {
	screenID := uuid.New()
	tests := []struct {
		name     string
		line     ReservationLine
		wantCode apperrors.Code
	}{
		{
			name: "exact layout",
			line: ReservationLine{ScreenInventoryID: screenID, SqmRequired: dec("10"), Rows: intPtr(4), Columns: intPtr(10)},
		},
		{
			name: "within tolerance",
			line: ReservationLine{ScreenInventoryID: screenID, SqmRequired: dec("10.4"), Rows: intPtr(4), Columns: intPtr(10)},
		},
		{
			name:     "outside tolerance",
			line:     ReservationLine{ScreenInventoryID: screenID, SqmRequired: dec("12"), Rows: intPtr(4), Columns: intPtr(10)},
			wantCode: apperrors.CodeDimensionMismatch,
		},
		{
			name: "no layout declared",
			line: ReservationLine{ScreenInventoryID: screenID, SqmRequired: dec("12")},
		},
		{
			name:     "rows without columns",
			line:     ReservationLine{ScreenInventoryID: screenID, SqmRequired: dec("10"), Rows: intPtr(4)},
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "non-positive sqm",
			line:     ReservationLine{ScreenInventoryID: screenID, SqmRequired: dec("0")},
			wantCode: apperrors.CodeValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLine(tc.line)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateLine: %v", err)
				}
				return
			}
			typed := apperrors.As(err)
			if typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestDeleteScreenWithHistoryRejected(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")

	order := seedOrder(t, conn, "01/05/2026_A", 10, 14, enums.OrderStatusConfirmed)
	reserve(t, svc, conn, order, screen.ID, "10")

	err := svc.DeleteScreen(ctx, screen.ID)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}

	fresh := seedScreen(t, conn, "P2.6 Outdoor", "50")
	if err := svc.DeleteScreen(ctx, fresh.ID); err != nil {
		t.Fatalf("DeleteScreen on unused screen: %v", err)
	}
}

func TestCreateScreenPersistsDeactivated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	screen := &models.ScreenInventory{
		ScreenType:    "P3.9 Retired",
		PixelPitch:    dec("3.9"),
		TotalSqmOwned: dec("50"),
		IsActive:      false,
	}
	if err := svc.CreateScreen(ctx, screen); err != nil {
		t.Fatalf("CreateScreen: %v", err)
	}

	loaded, err := svc.GetScreen(ctx, screen.ID)
	if err != nil {
		t.Fatalf("GetScreen: %v", err)
	}
	if loaded.IsActive {
		t.Fatal("screen created deactivated came back active")
	}

	active, err := svc.ListScreens(ctx, false)
	if err != nil {
		t.Fatalf("ListScreens: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active listing has %d screens, want 0", len(active))
	}
	all, err := svc.ListScreens(ctx, true)
	if err != nil {
		t.Fatalf("ListScreens: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("full listing has %d screens, want 1", len(all))
	}
}

// Random reservation pressure up to and beyond capacity: whatever subset gets
// accepted, the per-day reserved sum never exceeds the owned total.
func TestCapacityInvariantUnderRandomLoad(t *testing.T) {
	svc, conn := newTestService(t)
	screen := seedScreen(t, conn, "P3.9 Indoor", "100")
	total := dec("100")

	rand := mathrand.New(mathrand.NewSource(42))

	type accepted struct {
		startDay, endDay int
		sqm              decimal.Decimal
	}
	var wins []accepted
	rejections := 0

	for i := 0; i < 40; i++ {
		startDay := 1 + rand.Intn(20)
		endDay := startDay + rand.Intn(8)
		sqm := decimal.NewFromInt(int64(5 + rand.Intn(50)))

		order := seedOrder(t, conn, fmt.Sprintf("01/05/2026_%c%c", 'A'+i/26, 'A'+i%26),
			startDay, endDay, enums.OrderStatusConfirmed)
		_, err := svc.Reserve(context.Background(), conn, order, ReservationLine{
			ScreenInventoryID: screen.ID,
			SqmRequired:       sqm,
		})
		if err != nil {
			typed := apperrors.As(err)
			if typed == nil || typed.Code() != apperrors.CodeInsufficientInventory {
				t.Fatalf("request %d: unexpected error %v", i, err)
			}
			rejections++
			continue
		}
		wins = append(wins, accepted{startDay: startDay, endDay: endDay, sqm: sqm})
	}

	if len(wins) == 0 || rejections == 0 {
		t.Fatalf("load did not exercise both outcomes: %d accepted, %d rejected", len(wins), rejections)
	}

	for day := 1; day <= 28; day++ {
		sum := decimal.Zero
		for _, w := range wins {
			if day >= w.startDay && day <= w.endDay {
				sum = sum.Add(w.sqm)
			}
		}
		if sum.GreaterThan(total) {
			t.Fatalf("day %d: reserved %s exceeds owned %s", day, sum, total)
		}
	}
}
