package persistence

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements order.DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

var _ order.DeliveryRepository = (*GormDeliveryRepository)(nil)

// Save records the delivery slot, replacing any earlier one for the order
func (r *GormDeliveryRepository) Save(ctx context.Context, d order.Delivery) error {
	model := models.OrderDeliveryModelFromDomain(d)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"delivery_date", "delivery_time", "delivery_location", "updated_at"}),
	}).Create(model).Error
}

// FindByOrderIDs returns the recorded deliveries keyed by order id; unknown ids are absent
func (r *GormDeliveryRepository) FindByOrderIDs(ctx context.Context, ids []string) (map[string]order.Delivery, error) {
	result := make(map[string]order.Delivery, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.OrderDeliveryModel
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].OrderID] = rows[i].ToDomain()
	}
	return result, nil
}
