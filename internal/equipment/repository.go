package equipment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vantageav/ledrental-backend/internal/interval"
	"github.com/vantageav/ledrental-backend/pkg/db"
	"github.com/vantageav/ledrental-backend/pkg/db/models"
	"github.com/vantageav/ledrental-backend/pkg/enums"
)

// ListFilter narrows equipment listings.
type ListFilter struct {
	Type   *enums.EquipmentType
	Status *enums.EquipmentStatus
}

// Repository is the persistence surface for equipment units and their
// assignment rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, unit *models.Equipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Equipment, error)
	Update(ctx context.Context, unit *models.Equipment) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CandidateUnits returns rentable units of a type under a row lock,
	// ordered by creation then id so selection is deterministic.
	CandidateUnits(ctx context.Context, t enums.EquipmentType) ([]models.Equipment, error)

	// ConflictingUnitIDs returns ids of units held by an active assignment
	// whose confirmed order overlaps the interval. excludeOrder drops one
	// order's own assignments from the conflict set.
	ConflictingUnitIDs(ctx context.Context, t enums.EquipmentType, r interval.Range, excludeOrder *uuid.UUID) ([]uuid.UUID, error)

	InsertAssignment(ctx context.Context, assignment *models.OrderEquipmentAssignment) error
	FindAssignment(ctx context.Context, orderID, equipmentID uuid.UUID) (*models.OrderEquipmentAssignment, error)
	ActiveAssignmentsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderEquipmentAssignment, error)
	UpdateAssignment(ctx context.Context, assignment *models.OrderEquipmentAssignment) error
	CountAssignmentsForUnit(ctx context.Context, equipmentID uuid.UUID) (int64, error)
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

func (r *gormRepository) Create(ctx context.Context, unit *models.Equipment) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var unit models.Equipment
	err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]models.Equipment, error) {
	query := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if filter.Type != nil {
		query = query.Where("equipment_type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var units []models.Equipment
	err := query.Find(&units).Error
	return units, err
}

func (r *gormRepository) Update(ctx context.Context, unit *models.Equipment) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Equipment{}, "id = ?", id).Error
}

func (r *gormRepository) CandidateUnits(ctx context.Context, t enums.EquipmentType) ([]models.Equipment, error) {
	var units []models.Equipment
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("equipment_type = ?", t).
		Where("status IN ?", []enums.EquipmentStatus{enums.EquipmentStatusAvailable, enums.EquipmentStatusAssigned}).
		Order("created_at ASC").
		Order("id ASC").
		Find(&units).Error
	return units, err
}

func (r *gormRepository) ConflictingUnitIDs(ctx context.Context, t enums.EquipmentType, rng interval.Range, excludeOrder *uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.OrderEquipmentAssignment{}).
		Joins("JOIN orders ON orders.id = order_equipment_assignments.order_id").
		Joins("JOIN equipment ON equipment.id = order_equipment_assignments.equipment_id").
		Where("equipment.equipment_type = ?", t).
		Where("order_equipment_assignments.returned_at IS NULL").
		Where("orders.order_status = ?", enums.OrderStatusConfirmed).
		Where("orders.start_date <= ? AND orders.end_date >= ?", rng.End, rng.Start)
	if excludeOrder != nil {
		query = query.Where("order_equipment_assignments.order_id <> ?", *excludeOrder)
	}
	err := query.Pluck("order_equipment_assignments.equipment_id", &ids).Error
	return ids, err
}

func (r *gormRepository) InsertAssignment(ctx context.Context, assignment *models.OrderEquipmentAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *gormRepository) FindAssignment(ctx context.Context, orderID, equipmentID uuid.UUID) (*models.OrderEquipmentAssignment, error) {
	var assignment models.OrderEquipmentAssignment
	err := r.db.WithContext(ctx).
		First(&assignment, "order_id = ? AND equipment_id = ?", orderID, equipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *gormRepository) ActiveAssignmentsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderEquipmentAssignment, error) {
	var rows []models.OrderEquipmentAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Where("returned_at IS NULL").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) UpdateAssignment(ctx context.Context, assignment *models.OrderEquipmentAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *gormRepository) CountAssignmentsForUnit(ctx context.Context, equipmentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderEquipmentAssignment{}).
		Where("equipment_id = ?", equipmentID).
		Count(&count).Error
	return count, err
}
