package migrate

import (
	"context"
	"fmt"

	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/db"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

// Models lists every durable entity in dependency order.
func Models() []any {
	return []any{
		&models.ScreenInventory{},
		&models.ScreenMaintenanceWindow{},
		&models.Equipment{},
		&models.Order{},
		&models.OrderScreenRequirement{},
		&models.OrderEquipmentAssignment{},
		&models.OutboxEvent{},
	}
}

// MaybeRunDev migrates the schema automatically when the app runs in dev mode
// and the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running schema auto-migration (dev auto-run)")

	if err := client.DB().WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}

	logg.Info(ctx, "schema auto-migration completed")
	return nil
}
