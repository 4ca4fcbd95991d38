package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/model"
)

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	// Список пользователей без exclude, по имени, с пагинацией.
	List(ctx context.Context, exclude string, limit, offset int) ([]model.User, int64, error)
	// Delete возвращает ErrInUse, если у пользователя есть заказы.
	Delete(ctx context.Context, username string) (int64, error)
	ExistsWithRole(ctx context.Context, role string) (bool, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", username).
		Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUserRepository) List(ctx context.Context, exclude string, limit, offset int) ([]model.User, int64, error) {
	var (
		users []model.User
		total int64
	)

	q := r.db.WithContext(ctx).Model(&model.User{})
	if exclude != "" {
		q = q.Where("username <> ?", exclude)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("username ASC").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *GormUserRepository) Delete(ctx context.Context, username string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("username = ?", username).Take(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := ensureUnreferenced(tx, &model.Order{}, "user_id = ?", u.ID); err != nil {
			return err
		}
		res := tx.Delete(&u)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// ensureUnreferenced возвращает ErrInUse, если в таблице ref есть строки по условию.
func ensureUnreferenced(tx *gorm.DB, ref any, cond string, id int64) error {
	var n int64
	if err := tx.Model(ref).Where(cond, id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	return nil
}

func (r *GormUserRepository) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
