package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/db/dbtest"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
	"github.com/vantageav/ledrental-backend/pkg/outbox"
)

type fixture struct {
	svc     *Service
	screens *screens.Service
	conn    *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	conn := client.DB()
	logg := dbtest.Logger(t)

	screenSvc, err := screens.NewService(screens.NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("screens.NewService: %v", err)
	}
	equipmentSvc, err := equipment.NewService(equipment.NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("equipment.NewService: %v", err)
	}
	outboxSvc, err := outbox.NewService(outbox.NewRepository(conn))
	if err != nil {
		t.Fatalf("outbox.NewService: %v", err)
	}

	svc, err := NewService(client, NewRepository(conn), screenSvc, equipmentSvc, outboxSvc,
		config.ReservationConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, screens: screenSvc, conn: conn}
}

func date(day int) time.Time {
	return time.Date(2026, time.August, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) seedScreen(t *testing.T, screenType, pitch, totalSqm string) *models.ScreenInventory {
	t.Helper()
	screen := &models.ScreenInventory{
		ScreenType:    screenType,
		PixelPitch:    dec(pitch),
		TotalSqmOwned: dec(totalSqm),
		IsActive:      true,
	}
	if err := f.conn.Create(screen).Error; err != nil {
		t.Fatalf("seeding screen: %v", err)
	}
	return screen
}

func (f *fixture) seedUnits(t *testing.T, unitType enums.EquipmentType, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		unit := models.Equipment{Type: unitType, Status: enums.EquipmentStatusAvailable}
		if err := f.conn.Create(&unit).Error; err != nil {
			t.Fatalf("seeding unit: %v", err)
		}
	}
}

func (f *fixture) createInput(screen *models.ScreenInventory) CreateInput {
	return CreateInput{
		UserID:      uuid.New(),
		StartDate:   date(10),
		EndDate:     date(12),
		PricePerSqm: dec("10"),
		Screens: []ScreenLineInput{
			{ScreenInventoryID: screen.ID, SqmRequired: dec("40")},
		},
	}
}

func TestCreateBooksEverythingAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	f.seedUnits(t, enums.EquipmentTypeLaptop, 2)
	f.seedUnits(t, enums.EquipmentTypeVideoProcessor, 1)

	input := f.createInput(screen)
	input.LaptopsNeeded = 2
	input.VideoProcessorsNeeded = 1

	order, err := f.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.OrderCode != "10/08/2026_A" {
		t.Fatalf("OrderCode = %q, want 10/08/2026_A", order.OrderCode)
	}
	if order.DurationDays != 3 {
		t.Fatalf("DurationDays = %d, want 3", order.DurationDays)
	}
	// 10 per sqm * 40 sqm * 3 days.
	if !order.TotalAmount.Equal(dec("1200")) {
		t.Fatalf("TotalAmount = %s, want 1200", order.TotalAmount)
	}
	if len(order.Requirements) != 1 || len(order.Assignments) != 3 {
		t.Fatalf("got %d requirements and %d assignments, want 1 and 3",
			len(order.Requirements), len(order.Assignments))
	}

	var events []models.OutboxEvent
	if err := f.conn.Find(&events).Error; err != nil {
		t.Fatalf("loading outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != outbox.EventOrderConfirmed {
		t.Fatalf("expected one order.confirmed outbox event, got %+v", events)
	}
}

func TestCreateSecondOrderSameDayGetsNextLetter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	first, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.OrderCode != "10/08/2026_A" || second.OrderCode != "10/08/2026_B" {
		t.Fatalf("codes = %q, %q", first.OrderCode, second.OrderCode)
	}
}

func TestSequenceSuffix(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "A"}, {1, "B"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"},
	}
	for _, tc := range tests {
		if got := sequenceSuffix(tc.n); got != tc.want {
			t.Fatalf("sequenceSuffix(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestSuffixValueInvertsSequence(t *testing.T) {
	tests := []struct {
		suffix string
		want   int64
	}{
		{"A", 1}, {"Z", 26}, {"AA", 27}, {"AZ", 52}, {"BA", 53}, {"", 0}, {"a1", 0},
	}
	for _, tc := range tests {
		if got := suffixValue(tc.suffix); got != tc.want {
			t.Fatalf("suffixValue(%q) = %d, want %d", tc.suffix, got, tc.want)
		}
	}
}

func TestDeleteDoesNotRecycleOrderCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	first, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.createInput(screen)); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if err := f.svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	third, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("third Create: %v", err)
	}
	if third.OrderCode != "10/08/2026_C" {
		t.Fatalf("OrderCode = %q, want 10/08/2026_C after the A slot was deleted", third.OrderCode)
	}
}

func TestCreateInsufficientAreaLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "30")

	input := f.createInput(screen) // asks for 40 of 30
	_, err := f.svc.Create(ctx, input)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientInventory {
		t.Fatalf("expected INSUFFICIENT_AREA_INVENTORY, got %v", err)
	}

	assertEmptyTables(t, f.conn)
}

func TestCreateEquipmentShortageRollsBackReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	// No laptops seeded at all.

	input := f.createInput(screen)
	input.LaptopsNeeded = 1

	_, err := f.svc.Create(ctx, input)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientEquipment {
		t.Fatalf("expected INSUFFICIENT_EQUIPMENT, got %v", err)
	}

	// The area reservation made before the equipment failure must be gone too.
	assertEmptyTables(t, f.conn)
}

func assertEmptyTables(t *testing.T, conn *gorm.DB) {
	t.Helper()
	var orders, reqs, assignments, events int64
	conn.Model(&models.Order{}).Count(&orders)
	conn.Model(&models.OrderScreenRequirement{}).Count(&reqs)
	conn.Model(&models.OrderEquipmentAssignment{}).Count(&assignments)
	conn.Model(&models.OutboxEvent{}).Count(&events)
	if orders != 0 || reqs != 0 || assignments != 0 || events != 0 {
		t.Fatalf("expected clean tables, got orders=%d requirements=%d assignments=%d events=%d",
			orders, reqs, assignments, events)
	}
}

func TestCreateRejectsMixedPixelPitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	indoor := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	outdoor := f.seedScreen(t, "P4.8 Outdoor", "4.8", "100")

	input := f.createInput(indoor)
	input.Screens = append(input.Screens, ScreenLineInput{
		ScreenInventoryID: outdoor.ID,
		SqmRequired:       dec("20"),
	})

	_, err := f.svc.Create(ctx, input)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeIncompatibleMix {
		t.Fatalf("expected INCOMPATIBLE_RESOURCE_MIX, got %v", err)
	}
	assertEmptyTables(t, f.conn)
}

func TestCreateAllowsSamePitchAcrossTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	indoor := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	outdoor := f.seedScreen(t, "P3.9 Outdoor", "3.9", "100")

	input := f.createInput(indoor)
	input.Screens = append(input.Screens, ScreenLineInput{
		ScreenInventoryID: outdoor.ID,
		SqmRequired:       dec("20"),
	})

	order, err := f.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(order.Requirements) != 2 {
		t.Fatalf("got %d requirements, want 2", len(order.Requirements))
	}
}

func TestCancelReleasesCapacityAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	f.seedUnits(t, enums.EquipmentTypeLaptop, 1)

	input := f.createInput(screen)
	input.LaptopsNeeded = 1
	order, err := f.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := f.svc.Cancel(ctx, order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("order not cancelled: %+v", cancelled)
	}

	rng, _ := interval.New(date(10), date(12))
	avail, err := f.screens.AvailableSqm(ctx, screen.ID, rng)
	if err != nil {
		t.Fatalf("AvailableSqm: %v", err)
	}
	if !avail.Available.Equal(dec("100")) {
		t.Fatalf("Available = %s, want 100 after cancel", avail.Available)
	}

	_, err = f.svc.Cancel(ctx, order.ID)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT on second cancel, got %v", err)
	}

	var cancelledEvents int64
	if err := f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", outbox.EventOrderCancelled).
		Count(&cancelledEvents).Error; err != nil {
		t.Fatalf("loading outbox: %v", err)
	}
	if cancelledEvents != 1 {
		t.Fatalf("expected one order.cancelled event, got %d", cancelledEvents)
	}
}

func TestUpdateRebuildsReservationsWithoutDoubleCounting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	order, err := f.svc.Create(ctx, f.createInput(screen)) // holds 40
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 40 held + 80 requested would exceed 100 if the order's own reservation
	// counted against it. It must not.
	updated, err := f.svc.Update(ctx, order.ID, UpdateInput{
		StartDate:   date(10),
		EndDate:     date(14),
		PricePerSqm: dec("12"),
		Screens: []ScreenLineInput{
			{ScreenInventoryID: screen.ID, SqmRequired: dec("80")},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DurationDays != 5 {
		t.Fatalf("DurationDays = %d, want 5", updated.DurationDays)
	}
	// 12 * 80 * 5
	if !updated.TotalAmount.Equal(dec("4800")) {
		t.Fatalf("TotalAmount = %s, want 4800", updated.TotalAmount)
	}
	if updated.OrderCode != order.OrderCode {
		t.Fatal("order code must survive updates")
	}

	active := 0
	for _, req := range updated.Requirements {
		if !req.Released() {
			active++
			if !req.SqmRequired.Equal(dec("80")) {
				t.Fatalf("active requirement holds %s, want 80", req.SqmRequired)
			}
		}
	}
	if active != 1 {
		t.Fatalf("got %d active requirements, want 1", active)
	}
}

func TestUpdateReassignsHeldEquipmentAndUnitStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	f.seedUnits(t, enums.EquipmentTypeLaptop, 1)

	input := f.createInput(screen)
	input.LaptopsNeeded = 1
	order, err := f.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same screen type and the only laptop again: the released history rows
	// must not block the rebuild.
	updated, err := f.svc.Update(ctx, order.ID, UpdateInput{
		StartDate:     date(11),
		EndDate:       date(13),
		PricePerSqm:   dec("10"),
		LaptopsNeeded: 1,
		Screens: []ScreenLineInput{
			{ScreenInventoryID: screen.ID, SqmRequired: dec("40")},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	active := 0
	for _, a := range updated.Assignments {
		if a.Active() {
			active++
			if !a.AssignedAt.Equal(date(11)) {
				t.Fatalf("active assignment starts %v, want day 11", a.AssignedAt)
			}
		}
	}
	if active != 1 {
		t.Fatalf("got %d active assignments, want 1", active)
	}

	var unit models.Equipment
	if err := f.conn.First(&unit).Error; err != nil {
		t.Fatalf("loading unit: %v", err)
	}
	if unit.Status != enums.EquipmentStatusAssigned {
		t.Fatalf("unit status after update = %s, want assigned", unit.Status)
	}
}

func TestUpdateCancelledOrderRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	order, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err = f.svc.Update(ctx, order.ID, UpdateInput{
		StartDate:   date(10),
		EndDate:     date(12),
		PricePerSqm: dec("10"),
		Screens: []ScreenLineInput{
			{ScreenInventoryID: screen.ID, SqmRequired: dec("10")},
		},
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestDeleteRemovesOrderAndReleasesUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")
	f.seedUnits(t, enums.EquipmentTypeLaptop, 1)

	input := f.createInput(screen)
	input.LaptopsNeeded = 1
	order, err := f.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Delete(ctx, order.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var orders, reqs, assignments int64
	f.conn.Model(&models.Order{}).Count(&orders)
	f.conn.Model(&models.OrderScreenRequirement{}).Count(&reqs)
	f.conn.Model(&models.OrderEquipmentAssignment{}).Count(&assignments)
	if orders != 0 || reqs != 0 || assignments != 0 {
		t.Fatalf("rows left behind: orders=%d requirements=%d assignments=%d", orders, reqs, assignments)
	}

	_, err = f.svc.Get(ctx, order.ID)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRecordPaymentDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	order, err := f.svc.Create(ctx, f.createInput(screen)) // total 1200
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	partial, err := f.svc.RecordPayment(ctx, order.ID, dec("500"))
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if partial.PaymentStatus != enums.PaymentStatusPartial || !partial.Remaining().Equal(dec("700")) {
		t.Fatalf("after partial payment: status=%s remaining=%s", partial.PaymentStatus, partial.Remaining())
	}

	full, err := f.svc.RecordPayment(ctx, order.ID, dec("700"))
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if full.PaymentStatus != enums.PaymentStatusReceived || !full.Remaining().IsZero() {
		t.Fatalf("after full payment: status=%s remaining=%s", full.PaymentStatus, full.Remaining())
	}

	_, err = f.svc.RecordPayment(ctx, order.ID, dec("1"))
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR on overpayment, got %v", err)
	}
}

func TestRecordPaymentOnCancelledOrderRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	order, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err = f.svc.RecordPayment(ctx, order.ID, dec("100"))
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestListFiltersByStatusAndInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	screen := f.seedScreen(t, "P3.9 Indoor", "3.9", "100")

	order, err := f.svc.Create(ctx, f.createInput(screen)) // 10..12
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cancelled, err := f.svc.Create(ctx, f.createInput(screen))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, cancelled.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	confirmed := enums.OrderStatusConfirmed
	listed, err := f.svc.List(ctx, ListFilter{Status: &confirmed})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != order.ID {
		t.Fatalf("got %d confirmed orders", len(listed))
	}

	from := date(13)
	listed, err = f.svc.List(ctx, ListFilter{From: &from})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("got %d orders overlapping from day 13, want 0", len(listed))
	}
}
