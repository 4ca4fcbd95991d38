package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/model"
)

type EventRepository interface {
	// Записать событие аудита.
	Create(ctx context.Context, e *model.Event) error
	// События заказа в порядке возникновения.
	ListByOrder(ctx context.Context, orderID int64) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormEventRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
