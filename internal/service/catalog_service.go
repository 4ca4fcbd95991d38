package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/config"
	"github.com/Leganyst/ordering-platform/internal/logging"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/ordering"
	"github.com/Leganyst/ordering-platform/internal/repository"
)

// NamedPrice: вариант или добавка во входных данных.
type NamedPrice struct {
	Name  string          `json:"name" validate:"required,max=20"`
	Price decimal.Decimal `json:"price"`
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=30"`
	Price       decimal.Decimal `json:"price"`
	Category    model.Category  `json:"category" validate:"required,oneof=foods drinks"`
	Subcategory int64           `json:"subcategory_id" validate:"required,gt=0"`
	Variants    []NamedPrice    `json:"variants" validate:"dive"`
	Ingredients []NamedPrice    `json:"ingredients" validate:"dive"`
	Roles       []string        `json:"roles" validate:"dive,required"`
}

type SubcategoryInput struct {
	Name  string `json:"name" validate:"required,max=20"`
	Order *int   `json:"order" validate:"required,gte=0"`
}

type MenuItemInput struct {
	Name     string `json:"name" validate:"required"`
	Optional bool   `json:"optional"`
}

type MenuInput struct {
	Name     string          `json:"name" validate:"required,max=30"`
	Products []MenuItemInput `json:"products" validate:"required,min=1,dive"`
	Roles    []string        `json:"roles" validate:"dive,required"`
}

// Roles заполняется только для admin.
type ProductView struct {
	model.Product
	Variants    []model.Variant    `json:"variants"`
	Ingredients []model.Ingredient `json:"ingredients"`
	Roles       []string           `json:"roles,omitempty"`
}

type ProductGroup struct {
	Subcategory string        `json:"subcategory"`
	Order       int           `json:"order"`
	Products    []ProductView `json:"products"`
}

type MenuItemView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Optional  bool   `json:"optional"`
}

type MenuView struct {
	model.Menu
	Products []MenuItemView `json:"products"`
	Roles    []string       `json:"roles,omitempty"`
}

// CatalogService: просмотр каталога с учётом ролей и админские изменения каталога.
type CatalogService struct {
	db      *gorm.DB
	catalog repository.CatalogRepository
	auth    config.AuthConfig
}

func NewCatalogService(db *gorm.DB, auth config.AuthConfig) *CatalogService {
	return &CatalogService{
		db:      db,
		catalog: repository.NewGormCatalogRepository(db),
		auth:    auth,
	}
}

// seesAll: admin видит каталог без фильтра по грантам.
func seesAll(role string) bool {
	return role == ordering.AdminRole
}

// ListVisibleProducts возвращает продукты, видимые роли, сгруппированные по
// подкатегориям в порядке возрастания ранга.
func (s *CatalogService) ListVisibleProducts(ctx context.Context, role string) ([]ProductGroup, error) {
	products, err := s.catalog.ListProducts(ctx, role, seesAll(role))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	subs, err := s.catalog.ListSubcategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	byID := make(map[int64]model.Subcategory, len(subs))
	for _, sub := range subs {
		byID[sub.ID] = sub
	}

	// products уже отсортированы по рангу, группы идут подряд
	groups := make([]ProductGroup, 0)
	var current int64
	for _, p := range products {
		view, err := s.productView(ctx, p, role == ordering.AdminRole)
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 || p.SubcategoryID != current {
			sub := byID[p.SubcategoryID]
			groups = append(groups, ProductGroup{Subcategory: sub.Name, Order: sub.Order})
			current = p.SubcategoryID
		}
		last := &groups[len(groups)-1]
		last.Products = append(last.Products, *view)
	}
	return groups, nil
}

func (s *CatalogService) productView(ctx context.Context, p model.Product, withRoles bool) (*ProductView, error) {
	variants, err := s.catalog.ListVariants(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	ingredients, err := s.catalog.ListIngredients(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	view := &ProductView{Product: p, Variants: variants, Ingredients: ingredients}
	if view.Variants == nil {
		view.Variants = []model.Variant{}
	}
	if view.Ingredients == nil {
		view.Ingredients = []model.Ingredient{}
	}
	if withRoles {
		if view.Roles, err = s.catalog.ListProductRoles(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("list product roles: %w", err)
		}
	}
	return view, nil
}

// GetProduct возвращает продукт, если он виден роли.
func (s *CatalogService) GetProduct(ctx context.Context, role string, id int64) (*ProductView, error) {
	p, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != ordering.AdminRole {
		ok, err := s.catalog.HasRoleProduct(ctx, role, id)
		if err != nil {
			return nil, fmt.Errorf("check role product: %w", err)
		}
		if !ok {
			return nil, ordering.Errorf(ordering.KindNotVisible, "product %q is not available for role %q", p.Name, role)
		}
	}
	return s.productView(ctx, *p, role == ordering.AdminRole)
}

func (s *CatalogService) findProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ordering.Errorf(ordering.KindNotFound, "product %d not found", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) checkRoles(roles []string) error {
	for _, r := range roles {
		if !s.auth.IsRole(r) {
			return ordering.Errorf(ordering.KindMalformedRequest, "role %q is not allowed", r)
		}
	}
	return nil
}

func checkPrice(name string, price decimal.Decimal) error {
	if price.IsNegative() {
		return ordering.Errorf(ordering.KindMalformedRequest, "price of %q must not be negative", name)
	}
	return nil
}

// CreateProduct создаёт продукт вместе с вариантами, добавками и грантами.
// Повторы вариантов и добавок по имени отбрасываются (первый выигрывает).
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := ordering.CheckStruct(&in); err != nil {
		return nil, err
	}
	in.Variants = dedupeBy(in.Variants, func(v NamedPrice) string { return v.Name })
	in.Ingredients = dedupeBy(in.Ingredients, func(v NamedPrice) string { return v.Name })
	in.Roles = dedupeBy(in.Roles, func(r string) string { return r })

	if err := checkPrice(in.Name, in.Price); err != nil {
		return nil, err
	}
	for _, v := range append(append([]NamedPrice{}, in.Variants...), in.Ingredients...) {
		if err := checkPrice(v.Name, v.Price); err != nil {
			return nil, err
		}
	}
	if err := s.checkRoles(in.Roles); err != nil {
		return nil, err
	}

	if _, err := s.catalog.GetSubcategory(ctx, in.Subcategory); err != nil {
		if isNotFound(err) {
			return nil, ordering.Errorf(ordering.KindUnknownEntity, "subcategory %d does not exist", in.Subcategory)
		}
		return nil, fmt.Errorf("get subcategory: %w", err)
	}
	if _, err := s.catalog.FindProductByName(ctx, in.Name); err == nil {
		return nil, ordering.Errorf(ordering.KindConflict, "product %q already exists", in.Name)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("find product: %w", err)
	}

	product := &model.Product{
		Name:          in.Name,
		Price:         in.Price,
		Category:      in.Category,
		SubcategoryID: in.Subcategory,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewGormCatalogRepository(tx)
		if err := repo.CreateProduct(ctx, product); err != nil {
			return conflictOr(err, fmt.Sprintf("product %q already exists", in.Name))
		}
		for _, v := range in.Variants {
			if err := repo.CreateVariant(ctx, &model.Variant{Name: v.Name, Price: v.Price, ProductID: product.ID}); err != nil {
				return fmt.Errorf("insert variant: %w", err)
			}
		}
		for _, i := range in.Ingredients {
			if err := repo.CreateIngredient(ctx, &model.Ingredient{Name: i.Name, Price: i.Price, ProductID: product.ID}); err != nil {
				return fmt.Errorf("insert ingredient: %w", err)
			}
		}
		for _, r := range in.Roles {
			if err := repo.CreateRoleProduct(ctx, &model.RoleProduct{Role: r, ProductID: product.ID}); err != nil {
				return fmt.Errorf("insert role product: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return product, nil
}

// AddProductRole выдаёт роли доступ к продукту.
func (s *CatalogService) AddProductRole(ctx context.Context, productID int64, role string) error {
	if err := s.checkRoles([]string{role}); err != nil {
		return err
	}
	p, err := s.findProduct(ctx, productID)
	if err != nil {
		return err
	}
	ok, err := s.catalog.HasRoleProduct(ctx, role, productID)
	if err != nil {
		return fmt.Errorf("check role product: %w", err)
	}
	if ok {
		return ordering.Errorf(ordering.KindConflict, "role %q already granted for %q", role, p.Name)
	}
	if err := s.catalog.CreateRoleProduct(ctx, &model.RoleProduct{Role: role, ProductID: productID}); err != nil {
		return conflictOr(err, fmt.Sprintf("role %q already granted for %q", role, p.Name))
	}
	return nil
}

// AddVariant добавляет вариант; имя должно быть уникальным в пределах продукта.
func (s *CatalogService) AddVariant(ctx context.Context, productID int64, in NamedPrice) (*model.Variant, error) {
	if err := ordering.CheckStruct(&in); err != nil {
		return nil, err
	}
	if err := checkPrice(in.Name, in.Price); err != nil {
		return nil, err
	}
	p, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	existing, err := s.catalog.ListVariants(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	for _, v := range existing {
		if v.Name == in.Name {
			return nil, ordering.Errorf(ordering.KindConflict, "variant %q already exists for %q", in.Name, p.Name)
		}
	}
	v := &model.Variant{Name: in.Name, Price: in.Price, ProductID: productID}
	if err := s.catalog.CreateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("insert variant: %w", err)
	}
	return v, nil
}

// AddIngredient добавляет добавку; имя должно быть уникальным в пределах продукта.
func (s *CatalogService) AddIngredient(ctx context.Context, productID int64, in NamedPrice) (*model.Ingredient, error) {
	if err := ordering.CheckStruct(&in); err != nil {
		return nil, err
	}
	if err := checkPrice(in.Name, in.Price); err != nil {
		return nil, err
	}
	p, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	existing, err := s.catalog.ListIngredients(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	for _, i := range existing {
		if i.Name == in.Name {
			return nil, ordering.Errorf(ordering.KindConflict, "ingredient %q already exists for %q", in.Name, p.Name)
		}
	}
	i := &model.Ingredient{Name: in.Name, Price: in.Price, ProductID: productID}
	if err := s.catalog.CreateIngredient(ctx, i); err != nil {
		return nil, fmt.Errorf("insert ingredient: %w", err)
	}
	return i, nil
}

func (s *CatalogService) UpdateProductPrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	if err := checkPrice("product", price); err != nil {
		return err
	}
	n, err := s.catalog.UpdateProductPrice(ctx, productID, price)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	if n == 0 {
		return ordering.Errorf(ordering.KindNotFound, "product %d not found", productID)
	}
	return nil
}

// DeleteProduct удаляет продукт; продукт, уже попавший в заказы, удалить нельзя.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID int64) error {
	n, err := s.catalog.DeleteProduct(ctx, productID)
	if err != nil {
		return conflictOr(err, fmt.Sprintf("product %d is referenced by orders", productID))
	}
	if n == 0 {
		return ordering.Errorf(ordering.KindNotFound, "product %d not found", productID)
	}
	logging.Ctx(ctx).Info().Int64("product_id", productID).Msg("product deleted")
	return nil
}

func (s *CatalogService) ListSubcategories(ctx context.Context) ([]model.Subcategory, error) {
	subs, err := s.catalog.ListSubcategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	return subs, nil
}

func (s *CatalogService) CreateSubcategory(ctx context.Context, in SubcategoryInput) (*model.Subcategory, error) {
	if err := ordering.CheckStruct(&in); err != nil {
		return nil, err
	}
	sub := &model.Subcategory{Name: in.Name, Order: *in.Order}
	if err := s.catalog.CreateSubcategory(ctx, sub); err != nil {
		return nil, conflictOr(err, fmt.Sprintf("subcategory %q or order %d already exists", in.Name, *in.Order))
	}
	return sub, nil
}

func (s *CatalogService) DeleteSubcategory(ctx context.Context, id int64) error {
	n, err := s.catalog.DeleteSubcategory(ctx, id)
	if err != nil {
		return conflictOr(err, fmt.Sprintf("subcategory %d still has products", id))
	}
	if n == 0 {
		return ordering.Errorf(ordering.KindNotFound, "subcategory %d not found", id)
	}
	return nil
}

// ListMenus возвращает меню, видимые роли, с их составом.
func (s *CatalogService) ListMenus(ctx context.Context, role string) ([]MenuView, error) {
	menus, err := s.catalog.ListMenus(ctx, role, seesAll(role))
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	out := make([]MenuView, 0, len(menus))
	for _, m := range menus {
		view, err := s.menuView(ctx, m, role == ordering.AdminRole)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

func (s *CatalogService) GetMenu(ctx context.Context, role string, id int64) (*MenuView, error) {
	m, err := s.findMenu(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != ordering.AdminRole {
		ok, err := s.catalog.HasRoleMenu(ctx, role, id)
		if err != nil {
			return nil, fmt.Errorf("check role menu: %w", err)
		}
		if !ok {
			return nil, ordering.Errorf(ordering.KindNotVisible, "menu %q is not available for role %q", m.Name, role)
		}
	}
	return s.menuView(ctx, *m, role == ordering.AdminRole)
}

func (s *CatalogService) findMenu(ctx context.Context, id int64) (*model.Menu, error) {
	m, err := s.catalog.GetMenu(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ordering.Errorf(ordering.KindNotFound, "menu %d not found", id)
		}
		return nil, fmt.Errorf("get menu: %w", err)
	}
	return m, nil
}

func (s *CatalogService) menuView(ctx context.Context, m model.Menu, withRoles bool) (*MenuView, error) {
	members, err := s.catalog.ListMenuProducts(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list menu products: %w", err)
	}
	view := &MenuView{Menu: m, Products: make([]MenuItemView, 0, len(members))}
	for _, mp := range members {
		p, err := s.catalog.GetProduct(ctx, mp.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", mp.ProductID, err)
		}
		view.Products = append(view.Products, MenuItemView{ProductID: p.ID, Name: p.Name, Optional: mp.Optional})
	}
	if withRoles {
		if view.Roles, err = s.catalog.ListMenuRoles(ctx, m.ID); err != nil {
			return nil, fmt.Errorf("list menu roles: %w", err)
		}
	}
	return view, nil
}

// CreateMenu создаёт меню. Позиции задаются именами продуктов, повторы отбрасываются.
func (s *CatalogService) CreateMenu(ctx context.Context, in MenuInput) (*model.Menu, error) {
	if err := ordering.CheckStruct(&in); err != nil {
		return nil, err
	}
	in.Products = dedupeBy(in.Products, func(p MenuItemInput) string { return p.Name })
	in.Roles = dedupeBy(in.Roles, func(r string) string { return r })
	if err := s.checkRoles(in.Roles); err != nil {
		return nil, err
	}

	if _, err := s.catalog.FindMenuByName(ctx, in.Name); err == nil {
		return nil, ordering.Errorf(ordering.KindConflict, "menu %q already exists", in.Name)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("find menu: %w", err)
	}

	members := make([]model.MenuProduct, 0, len(in.Products))
	for _, item := range in.Products {
		p, err := s.catalog.FindProductByName(ctx, item.Name)
		if err != nil {
			if isNotFound(err) {
				return nil, ordering.Errorf(ordering.KindUnknownEntity, "product %q does not exist", item.Name)
			}
			return nil, fmt.Errorf("find product: %w", err)
		}
		members = append(members, model.MenuProduct{ProductID: p.ID, Optional: item.Optional})
	}

	menu := &model.Menu{Name: in.Name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewGormCatalogRepository(tx)
		if err := repo.CreateMenu(ctx, menu); err != nil {
			return conflictOr(err, fmt.Sprintf("menu %q already exists", in.Name))
		}
		for i := range members {
			members[i].MenuID = menu.ID
			if err := repo.CreateMenuProduct(ctx, &members[i]); err != nil {
				return fmt.Errorf("insert menu product: %w", err)
			}
		}
		for _, r := range in.Roles {
			if err := repo.CreateRoleMenu(ctx, &model.RoleMenu{Role: r, MenuID: menu.ID}); err != nil {
				return fmt.Errorf("insert role menu: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Int64("menu_id", menu.ID).Str("name", menu.Name).Msg("menu created")
	return menu, nil
}

// AddMenuProduct добавляет продукт в меню.
func (s *CatalogService) AddMenuProduct(ctx context.Context, menuID int64, item MenuItemInput) error {
	if err := ordering.CheckStruct(&item); err != nil {
		return err
	}
	m, err := s.findMenu(ctx, menuID)
	if err != nil {
		return err
	}
	p, err := s.catalog.FindProductByName(ctx, item.Name)
	if err != nil {
		if isNotFound(err) {
			return ordering.Errorf(ordering.KindUnknownEntity, "product %q does not exist", item.Name)
		}
		return fmt.Errorf("find product: %w", err)
	}
	members, err := s.catalog.ListMenuProducts(ctx, menuID)
	if err != nil {
		return fmt.Errorf("list menu products: %w", err)
	}
	for _, mp := range members {
		if mp.ProductID == p.ID {
			return ordering.Errorf(ordering.KindConflict, "product %q is already in menu %q", p.Name, m.Name)
		}
	}
	mp := &model.MenuProduct{MenuID: menuID, ProductID: p.ID, Optional: item.Optional}
	if err := s.catalog.CreateMenuProduct(ctx, mp); err != nil {
		return conflictOr(err, fmt.Sprintf("product %q is already in menu %q", p.Name, m.Name))
	}
	return nil
}

// AddMenuRole выдаёт роли доступ к меню.
func (s *CatalogService) AddMenuRole(ctx context.Context, menuID int64, role string) error {
	if err := s.checkRoles([]string{role}); err != nil {
		return err
	}
	m, err := s.findMenu(ctx, menuID)
	if err != nil {
		return err
	}
	ok, err := s.catalog.HasRoleMenu(ctx, role, menuID)
	if err != nil {
		return fmt.Errorf("check role menu: %w", err)
	}
	if ok {
		return ordering.Errorf(ordering.KindConflict, "role %q already granted for menu %q", role, m.Name)
	}
	if err := s.catalog.CreateRoleMenu(ctx, &model.RoleMenu{Role: role, MenuID: menuID}); err != nil {
		return conflictOr(err, fmt.Sprintf("role %q already granted for menu %q", role, m.Name))
	}
	return nil
}
