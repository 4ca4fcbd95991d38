package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/model"
)

// OrderRepository работает с агрегатом заказа. Для атомарной записи
// создаётся поверх транзакции: NewGormOrderRepository(tx).
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateMenuOrder(ctx context.Context, mo *model.MenuOrder) error
	CreateProductOrder(ctx context.Context, po *model.ProductOrder) error
	CreateIngredientOrder(ctx context.Context, io *model.IngredientOrder) error

	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// Позиции заказа в порядке вставки.
	ListProductOrders(ctx context.Context, orderID int64) ([]model.ProductOrder, error)
	// Добавки конкретной позиции (не всего заказа).
	ListIngredientOrders(ctx context.Context, productOrderID int64) ([]model.IngredientOrder, error)
	GetMenuOrder(ctx context.Context, id int64) (*model.MenuOrder, error)

	// Заказы пользователя (userID == nil: все), новые первыми.
	List(ctx context.Context, userID *int64, limit, offset int) ([]model.Order, int64, error)
	// Перевести заказ в complete; false, если он уже был завершён или не найден.
	MarkComplete(ctx context.Context, id int64) (bool, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) CreateMenuOrder(ctx context.Context, mo *model.MenuOrder) error {
	return r.db.WithContext(ctx).Create(mo).Error
}

func (r *GormOrderRepository) CreateProductOrder(ctx context.Context, po *model.ProductOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *GormOrderRepository) CreateIngredientOrder(ctx context.Context, io *model.IngredientOrder) error {
	return r.db.WithContext(ctx).Create(io).Error
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) ListProductOrders(ctx context.Context, orderID int64) ([]model.ProductOrder, error) {
	var items []model.ProductOrder
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormOrderRepository) ListIngredientOrders(ctx context.Context, productOrderID int64) ([]model.IngredientOrder, error) {
	var items []model.IngredientOrder
	if err := r.db.WithContext(ctx).
		Where("product_order_id = ?", productOrderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormOrderRepository) GetMenuOrder(ctx context.Context, id int64) (*model.MenuOrder, error) {
	var mo model.MenuOrder
	if err := r.db.WithContext(ctx).First(&mo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mo, nil
}

func (r *GormOrderRepository) List(
	ctx context.Context,
	userID *int64,
	limit, offset int,
) ([]model.Order, int64, error) {
	var (
		orders []model.Order
		total  int64
	)

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) MarkComplete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND complete = ?", id, false).
		Update("complete", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
