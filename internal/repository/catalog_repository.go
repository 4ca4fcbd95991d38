package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/model"
)

// CatalogRepository хранит продукты, варианты, добавки, меню и гранты ролей.
// Методы чтения по id совпадают с ordering.CatalogStore.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetVariant(ctx context.Context, id int64) (*model.Variant, error)
	CountVariants(ctx context.Context, productID int64) (int64, error)
	GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error)
	GetMenu(ctx context.Context, id int64) (*model.Menu, error)
	ListMenuProducts(ctx context.Context, menuID int64) ([]model.MenuProduct, error)
	HasRoleProduct(ctx context.Context, role string, productID int64) (bool, error)
	HasRoleMenu(ctx context.Context, role string, menuID int64) (bool, error)

	GetSubcategory(ctx context.Context, id int64) (*model.Subcategory, error)
	ListSubcategories(ctx context.Context) ([]model.Subcategory, error)
	CreateSubcategory(ctx context.Context, s *model.Subcategory) error
	// DeleteSubcategory возвращает ErrInUse, пока в подкатегории есть продукты.
	DeleteSubcategory(ctx context.Context, id int64) (int64, error)

	// Продукты по возрастанию ранга подкатегории. all=true отключает фильтр по грантам role.
	ListProducts(ctx context.Context, role string, all bool) ([]model.Product, error)
	FindProductByName(ctx context.Context, name string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) (int64, error)
	// DeleteProduct возвращает ErrInUse, если продукт уже есть в заказах.
	DeleteProduct(ctx context.Context, id int64) (int64, error)
	ListVariants(ctx context.Context, productID int64) ([]model.Variant, error)
	CreateVariant(ctx context.Context, v *model.Variant) error
	ListIngredients(ctx context.Context, productID int64) ([]model.Ingredient, error)
	CreateIngredient(ctx context.Context, i *model.Ingredient) error
	ListProductRoles(ctx context.Context, productID int64) ([]string, error)
	CreateRoleProduct(ctx context.Context, rp *model.RoleProduct) error

	// Меню по имени; all=true отключает фильтр по грантам.
	ListMenus(ctx context.Context, role string, all bool) ([]model.Menu, error)
	FindMenuByName(ctx context.Context, name string) (*model.Menu, error)
	CreateMenu(ctx context.Context, m *model.Menu) error
	CreateMenuProduct(ctx context.Context, mp *model.MenuProduct) error
	ListMenuRoles(ctx context.Context, menuID int64) ([]string, error)
	CreateRoleMenu(ctx context.Context, rm *model.RoleMenu) error
}

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormCatalogRepository) GetVariant(ctx context.Context, id int64) (*model.Variant, error) {
	var v model.Variant
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormCatalogRepository) CountVariants(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Variant{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func (r *GormCatalogRepository) GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error) {
	var i model.Ingredient
	if err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *GormCatalogRepository) GetMenu(ctx context.Context, id int64) (*model.Menu, error) {
	var m model.Menu
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormCatalogRepository) ListMenuProducts(ctx context.Context, menuID int64) ([]model.MenuProduct, error) {
	var items []model.MenuProduct
	if err := r.db.WithContext(ctx).Where("menu_id = ?", menuID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCatalogRepository) HasRoleProduct(ctx context.Context, role string, productID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RoleProduct{}).
		Where("role = ? AND product_id = ?", role, productID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormCatalogRepository) HasRoleMenu(ctx context.Context, role string, menuID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RoleMenu{}).
		Where("role = ? AND menu_id = ?", role, menuID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormCatalogRepository) GetSubcategory(ctx context.Context, id int64) (*model.Subcategory, error) {
	var s model.Subcategory
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormCatalogRepository) ListSubcategories(ctx context.Context) ([]model.Subcategory, error) {
	var items []model.Subcategory
	if err := r.db.WithContext(ctx).Order("sort_order ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCatalogRepository) CreateSubcategory(ctx context.Context, s *model.Subcategory) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormCatalogRepository) DeleteSubcategory(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnreferenced(tx, &model.Product{}, "subcategory_id = ?", id); err != nil {
			return err
		}
		res := tx.Delete(&model.Subcategory{}, "id = ?", id)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *GormCatalogRepository) ListProducts(ctx context.Context, role string, all bool) ([]model.Product, error) {
	var items []model.Product

	q := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("products.*").
		Joins("JOIN subcategories ON subcategories.id = products.subcategory_id")
	if !all {
		q = q.Joins("JOIN role_product ON role_product.product_id = products.id AND role_product.role = ?", role)
	}

	if err := q.Order("subcategories.sort_order ASC").Order("products.id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCatalogRepository) FindProductByName(ctx context.Context, name string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormCatalogRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GormCatalogRepository) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("price", price)
	return res.RowsAffected, res.Error
}

func (r *GormCatalogRepository) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// варианты и добавки уходят каскадом, но на них могут ссылаться только
		// строки заказа этого же продукта
		if err := ensureUnreferenced(tx, &model.ProductOrder{}, "product_id = ?", id); err != nil {
			return err
		}
		res := tx.Delete(&model.Product{}, "id = ?", id)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *GormCatalogRepository) ListVariants(ctx context.Context, productID int64) ([]model.Variant, error) {
	var items []model.Variant
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCatalogRepository) CreateVariant(ctx context.Context, v *model.Variant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *GormCatalogRepository) ListIngredients(ctx context.Context, productID int64) ([]model.Ingredient, error) {
	var items []model.Ingredient
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCatalogRepository) CreateIngredient(ctx context.Context, i *model.Ingredient) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *GormCatalogRepository) ListProductRoles(ctx context.Context, productID int64) ([]string, error) {
	var roles []string
	err := r.db.WithContext(ctx).Model(&model.RoleProduct{}).
		Where("product_id = ?", productID).
		Order("role ASC").
		Pluck("role", &roles).Error
	return roles, err
}

func (r *GormCatalogRepository) CreateRoleProduct(ctx context.Context, rp *model.RoleProduct) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *GormCatalogRepository) ListMenus(ctx context.Context, role string, all bool) ([]model.Menu, error) {
	var items []model.Menu

	q := r.db.WithContext(ctx).Model(&model.Menu{}).Select("menu.*")
	if !all {
		q = q.Joins("JOIN role_menu ON role_menu.menu_id = menu.id AND role_menu.role = ?", role)
	}

	if err := q.Order("menu.name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCatalogRepository) FindMenuByName(ctx context.Context, name string) (*model.Menu, error) {
	var m model.Menu
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormCatalogRepository) CreateMenu(ctx context.Context, m *model.Menu) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *GormCatalogRepository) CreateMenuProduct(ctx context.Context, mp *model.MenuProduct) error {
	return r.db.WithContext(ctx).Create(mp).Error
}

func (r *GormCatalogRepository) ListMenuRoles(ctx context.Context, menuID int64) ([]string, error) {
	var roles []string
	err := r.db.WithContext(ctx).Model(&model.RoleMenu{}).
		Where("menu_id = ?", menuID).
		Order("role ASC").
		Pluck("role", &roles).Error
	return roles, err
}

func (r *GormCatalogRepository) CreateRoleMenu(ctx context.Context, rm *model.RoleMenu) error {
	return r.db.WithContext(ctx).Create(rm).Error
}
