package ordering

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/model"
)

// AdminRole обходит все проверки видимости.
const AdminRole = "admin"

// CatalogStore: чтение каталога по идентификаторам. Отсутствие записи
// сообщается как gorm.ErrRecordNotFound.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetVariant(ctx context.Context, id int64) (*model.Variant, error)
	CountVariants(ctx context.Context, productID int64) (int64, error)
	GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error)
	GetMenu(ctx context.Context, id int64) (*model.Menu, error)
	ListMenuProducts(ctx context.Context, menuID int64) ([]model.MenuProduct, error)
	HasRoleProduct(ctx context.Context, role string, productID int64) (bool, error)
	HasRoleMenu(ctx context.Context, role string, menuID int64) (bool, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Validate проверяет заказ целиком; первая найденная ошибка прерывает проверку.
// Порядок: пустой выбор, структура, продукты вне меню, затем меню.
// Ошибки хранилища возвращаются как есть (не *Error).
func Validate(ctx context.Context, store CatalogStore, req *OrderRequest, role string) error {
	if req == nil || req.Empty() {
		return Errorf(KindEmptySelection, "order must contain at least one product or menu")
	}
	if err := CheckStruct(req); err != nil {
		return err
	}

	for i := range req.Products {
		if err := checkProduct(ctx, store, &req.Products[i], role, true); err != nil {
			return err
		}
	}
	for i := range req.Menus {
		if err := checkMenu(ctx, store, &req.Menus[i], role); err != nil {
			return err
		}
	}
	return nil
}

func checkProduct(ctx context.Context, store CatalogStore, sel *ProductSelection, role string, needGrant bool) error {
	product, err := store.GetProduct(ctx, sel.ID)
	if err != nil {
		if isNotFound(err) {
			return Errorf(KindUnknownEntity, "product %d does not exist", sel.ID)
		}
		return fmt.Errorf("get product %d: %w", sel.ID, err)
	}

	if needGrant && role != AdminRole {
		ok, err := store.HasRoleProduct(ctx, role, product.ID)
		if err != nil {
			return fmt.Errorf("check role product: %w", err)
		}
		if !ok {
			return Errorf(KindNotVisible, "product %q is not available for role %q", product.Name, role)
		}
	}

	if err := checkVariant(ctx, store, sel, product); err != nil {
		return err
	}

	for _, ingID := range sel.Ingredients {
		ing, err := store.GetIngredient(ctx, ingID)
		if err != nil {
			if isNotFound(err) {
				return Errorf(KindUnknownEntity, "ingredient %d does not exist", ingID)
			}
			return fmt.Errorf("get ingredient %d: %w", ingID, err)
		}
		if ing.ProductID != product.ID {
			return Errorf(KindForeignSelection, "ingredient %d does not belong to product %q", ingID, product.Name)
		}
	}
	return nil
}

func checkVariant(ctx context.Context, store CatalogStore, sel *ProductSelection, product *model.Product) error {
	if sel.Variant == nil {
		n, err := store.CountVariants(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("count variants: %w", err)
		}
		if n > 0 {
			// отсутствие варианта не принадлежит ни одному варианту продукта
			return Errorf(KindForeignSelection, "product %q requires one of its variants", product.Name)
		}
		return nil
	}

	v, err := store.GetVariant(ctx, *sel.Variant)
	if err != nil {
		if isNotFound(err) {
			return Errorf(KindUnknownEntity, "variant %d does not exist", *sel.Variant)
		}
		return fmt.Errorf("get variant %d: %w", *sel.Variant, err)
	}
	// Продукт без вариантов тоже попадает сюда: любой вариант ему чужой.
	if v.ProductID != product.ID {
		return Errorf(KindForeignSelection, "variant %d does not belong to product %q", v.ID, product.Name)
	}
	return nil
}

func checkMenu(ctx context.Context, store CatalogStore, sel *MenuSelection, role string) error {
	if len(sel.Products) == 0 {
		return Errorf(KindEmptySelection, "menu %d has no products selected", sel.ID)
	}

	menu, err := store.GetMenu(ctx, sel.ID)
	if err != nil {
		if isNotFound(err) {
			return Errorf(KindUnknownEntity, "menu %d does not exist", sel.ID)
		}
		return fmt.Errorf("get menu %d: %w", sel.ID, err)
	}

	if role != AdminRole {
		ok, err := store.HasRoleMenu(ctx, role, menu.ID)
		if err != nil {
			return fmt.Errorf("check role menu: %w", err)
		}
		if !ok {
			return Errorf(KindNotVisible, "menu %q is not available for role %q", menu.Name, role)
		}
	}

	members, err := store.ListMenuProducts(ctx, menu.ID)
	if err != nil {
		return fmt.Errorf("list menu products: %w", err)
	}
	declared := make(map[int64]bool, len(members)) // product id -> optional
	for _, m := range members {
		declared[m.ProductID] = m.Optional
	}

	submitted := make(map[int64]struct{}, len(sel.Products))
	for _, p := range sel.Products {
		submitted[p.ID] = struct{}{}
	}
	for _, m := range members {
		if m.Optional {
			continue
		}
		if _, ok := submitted[m.ProductID]; !ok {
			return Errorf(KindIncompleteMenuSelection, "menu %q requires product %d", menu.Name, m.ProductID)
		}
	}

	for i := range sel.Products {
		if _, ok := declared[sel.Products[i].ID]; !ok {
			return Errorf(KindForeignSelection, "product %d is not part of menu %q", sel.Products[i].ID, menu.Name)
		}
	}

	// Доступ к позициям уже дан грантом на меню.
	for i := range sel.Products {
		if err := checkProduct(ctx, store, &sel.Products[i], role, false); err != nil {
			return err
		}
	}
	return nil
}
