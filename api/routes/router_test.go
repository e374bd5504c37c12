package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vantageav/ledrental-backend/internal/availability"
	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/internal/maintenance"
	"github.com/vantageav/ledrental-backend/internal/orders"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/db/dbtest"
	"github.com/vantageav/ledrental-backend/pkg/outbox"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	client := dbtest.OpenClient(t)
	logg := dbtest.Logger(t)
	conn := client.DB()

	screensSvc, err := screens.NewService(screens.NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("screens service: %v", err)
	}
	maintenanceSvc, err := maintenance.NewService(maintenance.NewRepository(conn), screensSvc, logg)
	if err != nil {
		t.Fatalf("maintenance service: %v", err)
	}
	equipmentSvc, err := equipment.NewService(equipment.NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("equipment service: %v", err)
	}
	outboxSvc, err := outbox.NewService(outbox.NewRepository(conn))
	if err != nil {
		t.Fatalf("outbox service: %v", err)
	}
	ordersSvc, err := orders.NewService(client, orders.NewRepository(conn), screensSvc, equipmentSvc, outboxSvc, config.ReservationConfig{MaxRetries: 3}, logg)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	availabilitySvc, err := availability.NewService(screensSvc, equipmentSvc)
	if err != nil {
		t.Fatalf("availability service: %v", err)
	}

	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	router := NewRouter(cfg, logg, client, nil, screensSvc, maintenanceSvc, equipmentSvc, ordersSvc, availabilitySvc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func decodeData(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatalf("GET /health/live: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env := resp.Header.Get("X-LEDRental-Env"); env != "test" {
		t.Fatalf("env header = %q, want test", env)
	}
	var body struct {
		Status string `json:"status"`
	}
	decodeData(t, resp, &body)
	if body.Status != "live" {
		t.Fatalf("status = %q, want live", body.Status)
	}
}

func TestScreenLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	payload := []byte(`{"screen_type":"P3.9 Indoor","pixel_pitch":"3.9","total_sqm_owned":"100"}`)
	resp, err := http.Post(srv.URL+"/api/v1/screens", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /screens: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		ID            string          `json:"id"`
		ScreenType    string          `json:"screen_type"`
		TotalSqmOwned decimal.Decimal `json:"total_sqm_owned"`
	}
	decodeData(t, resp, &created)
	if created.ID == "" || created.ScreenType != "P3.9 Indoor" {
		t.Fatalf("unexpected created screen: %+v", created)
	}

	resp, err = http.Get(srv.URL + "/api/v1/screens")
	if err != nil {
		t.Fatalf("GET /screens: %v", err)
	}
	var list []json.RawMessage
	decodeData(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("listed %d screens, want 1", len(list))
	}

	url := fmt.Sprintf("%s/api/v1/screens/%s/availability?start_date=2026-07-01&end_date=2026-07-05", srv.URL, created.ID)
	resp, err = http.Get(url)
	if err != nil {
		t.Fatalf("GET availability: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("availability status = %d, want 200", resp.StatusCode)
	}
	var report struct {
		Available   decimal.Decimal `json:"available_sqm"`
		Utilization decimal.Decimal `json:"utilization_percent"`
	}
	decodeData(t, resp, &report)
	if !report.Available.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("available = %s, want 100", report.Available)
	}
	if !report.Utilization.IsZero() {
		t.Fatalf("utilization = %s, want 0", report.Utilization)
	}
}

func TestUnknownScreenReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/screens/6f1c8f1e-0000-4000-8000-000000000000")
	if err != nil {
		t.Fatalf("GET /screens/{id}: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if envelope.Error.Code != "NOT_FOUND" {
		t.Fatalf("error code = %q, want NOT_FOUND", envelope.Error.Code)
	}
}

func TestEquipmentAvailabilityWithoutType(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/equipment/availability?start_date=2026-07-01&end_date=2026-07-05")
	if err != nil {
		t.Fatalf("GET equipment availability: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var report struct {
		CanFulfill bool `json:"can_fulfill"`
	}
	decodeData(t, resp, &report)
	if report.CanFulfill {
		t.Fatalf("can_fulfill = true with an empty fleet")
	}
}
