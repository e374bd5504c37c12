package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vantageav/ledrental-backend/api/controllers"
	"github.com/vantageav/ledrental-backend/api/middleware"
	"github.com/vantageav/ledrental-backend/internal/availability"
	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/internal/maintenance"
	"github.com/vantageav/ledrental-backend/internal/orders"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/db"
	"github.com/vantageav/ledrental-backend/pkg/logger"
	"github.com/vantageav/ledrental-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	screensSvc *screens.Service,
	maintenanceSvc *maintenance.Service,
	equipmentSvc *equipment.Service,
	ordersSvc *orders.Service,
	availabilitySvc *availability.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/screens", func(r chi.Router) {
			r.Get("/", controllers.ListScreens(screensSvc, logg))
			r.Post("/", controllers.CreateScreen(screensSvc, logg))
			r.Get("/availability", controllers.AreaAvailability(availabilitySvc, logg))
			r.Route("/{screenId}", func(r chi.Router) {
				r.Get("/", controllers.GetScreen(screensSvc, logg))
				r.Patch("/", controllers.UpdateScreen(screensSvc, logg))
				r.Delete("/", controllers.DeleteScreen(screensSvc, logg))
				r.Get("/availability", controllers.ScreenAvailability(availabilitySvc, logg))
				r.Route("/maintenance-windows", func(r chi.Router) {
					r.Get("/", controllers.ListMaintenanceWindows(maintenanceSvc, logg))
					r.Post("/", controllers.CreateMaintenanceWindow(maintenanceSvc, logg))
				})
			})
		})

		r.Delete("/maintenance-windows/{windowId}", controllers.DeleteMaintenanceWindow(maintenanceSvc, logg))

		r.Route("/equipment", func(r chi.Router) {
			r.Get("/", controllers.ListEquipment(equipmentSvc, logg))
			r.Post("/", controllers.CreateEquipment(equipmentSvc, logg))
			r.Get("/availability", controllers.EquipmentAvailability(availabilitySvc, logg))
			r.Route("/{equipmentId}", func(r chi.Router) {
				r.Get("/", controllers.GetEquipment(equipmentSvc, logg))
				r.Patch("/", controllers.UpdateEquipment(equipmentSvc, logg))
				r.Delete("/", controllers.DeleteEquipment(equipmentSvc, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersSvc, logg))
			r.Post("/", controllers.CreateOrder(ordersSvc, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(ordersSvc, logg))
				r.Put("/", controllers.UpdateOrder(ordersSvc, logg))
				r.Delete("/", controllers.DeleteOrder(ordersSvc, logg))
				r.Post("/cancel", controllers.CancelOrder(ordersSvc, logg))
				r.Post("/payments", controllers.RecordPayment(ordersSvc, logg))
				r.Post("/equipment/{equipmentId}/return", controllers.ReturnEquipment(equipmentSvc, logg))
			})
		})

		r.Get("/availability", controllers.AvailabilitySnapshot(availabilitySvc, logg))
	})

	return r
}
