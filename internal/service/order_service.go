package service

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/logging"
	"github.com/Leganyst/ordering-platform/internal/metrics"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/ordering"
	"github.com/Leganyst/ordering-platform/internal/page"
	"github.com/Leganyst/ordering-platform/internal/repository"
)

// OrderService: проверка и атомарная запись заказа, чтение, завершение.
type OrderService struct {
	db *gorm.DB

	catalog repository.CatalogRepository
	orders  repository.OrderRepository
	users   repository.UserRepository
	events  repository.EventRepository
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:      db,
		catalog: repository.NewGormCatalogRepository(db),
		orders:  repository.NewGormOrderRepository(db),
		users:   repository.NewGormUserRepository(db),
		events:  repository.NewGormEventRepository(db),
	}
}

// CreateOrder проверяет запрос от имени вызывающего и записывает заказ.
func (s *OrderService) CreateOrder(ctx context.Context, id ordering.Identity, req *ordering.OrderRequest) (int64, error) {
	caller, err := ordering.ResolveCaller(ctx, s.users, id)
	if err != nil {
		return 0, err
	}

	if err := ordering.Validate(ctx, s.catalog, req, caller.Role); err != nil {
		if kind := ordering.KindOf(err); kind != "" {
			metrics.RecordOrderRejected(string(kind))
			logging.Ctx(ctx).Info().
				Str("user", caller.Username).
				Str("kind", string(kind)).
				Str("reason", err.Error()).
				Msg("order rejected")
			return 0, err
		}
		return 0, fmt.Errorf("validate order: %w", err)
	}

	orderID, err := s.WriteOrder(ctx, caller, req)
	if err != nil {
		metrics.RecordOrderWriteFailure()
		logging.Ctx(ctx).Error().Err(err).Str("user", caller.Username).Msg("order write rolled back")
		return 0, err
	}

	metrics.RecordOrderCreated(caller.Role, countLines(req))
	logging.Ctx(ctx).Info().
		Int64("order_id", orderID).
		Str("user", caller.Username).
		Int("products", len(req.Products)).
		Int("menus", len(req.Menus)).
		Msg("order created")
	return orderID, nil
}

func countLines(req *ordering.OrderRequest) int {
	n := len(req.Products)
	for _, m := range req.Menus {
		n += len(m.Products)
	}
	return n
}

// WriteOrder записывает Order, MenuOrder, ProductOrder и IngredientOrder одной
// транзакцией. Запрос должен быть уже проверен Validate; любая ошибка вставки
// откатывает все строки этого вызова.
func (s *OrderService) WriteOrder(ctx context.Context, caller *ordering.Caller, req *ordering.OrderRequest) (int64, error) {
	var orderID int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewGormOrderRepository(tx)
		catalog := repository.NewGormCatalogRepository(tx)

		order := &model.Order{
			Client:   req.Info.Client,
			Person:   req.Info.Person,
			TakeAway: req.Info.TakeAway != nil && *req.Info.TakeAway,
			Table:    req.Info.Table,
			UserID:   caller.ID,
		}
		if err := orders.Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := writeProducts(ctx, orders, catalog, order.ID, nil, req.Products); err != nil {
			return err
		}

		menuIDs := make([]int64, 0, len(req.Menus))
		for _, m := range req.Menus {
			mo := &model.MenuOrder{MenuID: m.ID, OrderID: order.ID}
			if err := orders.CreateMenuOrder(ctx, mo); err != nil {
				return fmt.Errorf("insert menu order: %w", err)
			}
			if err := writeProducts(ctx, orders, catalog, order.ID, &mo.ID, m.Products); err != nil {
				return err
			}
			menuIDs = append(menuIDs, m.ID)
		}

		details, err := json.Marshal(map[string]any{
			"client":   order.Client,
			"products": len(req.Products),
			"menus":    menuIDs,
		})
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
		ev := &model.Event{
			EventType: model.EventTypeOrderCreated,
			UserID:    &caller.ID,
			OrderID:   &order.ID,
			RequestID: logging.RequestIDFromContext(ctx),
			Details:   datatypes.JSON(details),
		}
		if err := repository.NewGormEventRepository(tx).Create(ctx, ev); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func writeProducts(
	ctx context.Context,
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	orderID int64,
	menuOrderID *int64,
	items []ordering.ProductSelection,
) error {
	for _, item := range items {
		po := &model.ProductOrder{
			OrderID:     orderID,
			ProductID:   item.ID,
			MenuOrderID: menuOrderID,
			Quantity:    item.Quantity,
		}
		if item.Variant != nil {
			// вариант ищется в паре с продуктом
			v, err := catalog.GetVariant(ctx, *item.Variant)
			if err != nil {
				return fmt.Errorf("resolve variant %d: %w", *item.Variant, err)
			}
			if v.ProductID != item.ID {
				return fmt.Errorf("variant %d does not belong to product %d", v.ID, item.ID)
			}
			po.VariantID = &v.ID
		}
		if err := orders.CreateProductOrder(ctx, po); err != nil {
			return fmt.Errorf("insert product order: %w", err)
		}

		for _, ingID := range item.Ingredients {
			io := &model.IngredientOrder{OrderID: orderID, ProductOrderID: po.ID, IngredientID: ingID}
			if err := orders.CreateIngredientOrder(ctx, io); err != nil {
				return fmt.Errorf("insert ingredient order: %w", err)
			}
		}
	}
	return nil
}

// GetOrder собирает заказ по категориям. Доступен автору заказа и admin.
func (s *OrderService) GetOrder(ctx context.Context, id ordering.Identity, orderID int64) (ordering.OrderView, error) {
	caller, err := ordering.ResolveCaller(ctx, s.users, id)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && order.UserID != caller.ID {
		return nil, ordering.Errorf(ordering.KindForbidden, "order %d belongs to another user", orderID)
	}

	lines, err := s.resolveLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return ordering.BuildView(lines), nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ordering.Errorf(ordering.KindNotFound, "order %d not found", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// resolveLines подставляет имена продукта, варианта, добавок и меню, а также ранг подкатегории.
func (s *OrderService) resolveLines(ctx context.Context, orderID int64) ([]ordering.ResolvedLine, error) {
	items, err := s.orders.ListProductOrders(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list product orders: %w", err)
	}

	ranks := map[int64]int{}
	menus := map[int64]string{} // menu_order_id -> имя меню
	lines := make([]ordering.ResolvedLine, 0, len(items))

	for _, po := range items {
		product, err := s.catalog.GetProduct(ctx, po.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", po.ProductID, err)
		}

		rank, ok := ranks[product.SubcategoryID]
		if !ok {
			sub, err := s.catalog.GetSubcategory(ctx, product.SubcategoryID)
			if err != nil {
				return nil, fmt.Errorf("get subcategory %d: %w", product.SubcategoryID, err)
			}
			rank = sub.Order
			ranks[product.SubcategoryID] = rank
		}

		line := ordering.ResolvedLine{
			ProductOrderID: po.ID,
			Product:        product.Name,
			Category:       product.Category,
			Rank:           rank,
			Quantity:       po.Quantity,
		}

		if po.VariantID != nil {
			v, err := s.catalog.GetVariant(ctx, *po.VariantID)
			if err != nil {
				return nil, fmt.Errorf("get variant %d: %w", *po.VariantID, err)
			}
			line.Variant = v.Name
		}

		ings, err := s.orders.ListIngredientOrders(ctx, po.ID)
		if err != nil {
			return nil, fmt.Errorf("list ingredient orders: %w", err)
		}
		for _, io := range ings {
			ing, err := s.catalog.GetIngredient(ctx, io.IngredientID)
			if err != nil {
				return nil, fmt.Errorf("get ingredient %d: %w", io.IngredientID, err)
			}
			line.Ingredients = append(line.Ingredients, ing.Name)
		}

		if po.MenuOrderID != nil {
			name, ok := menus[*po.MenuOrderID]
			if !ok {
				mo, err := s.orders.GetMenuOrder(ctx, *po.MenuOrderID)
				if err != nil {
					return nil, fmt.Errorf("get menu order %d: %w", *po.MenuOrderID, err)
				}
				menu, err := s.catalog.GetMenu(ctx, mo.MenuID)
				if err != nil {
					return nil, fmt.Errorf("get menu %d: %w", mo.MenuID, err)
				}
				name = menu.Name
				menus[*po.MenuOrderID] = name
			}
			line.Menu = name
		}

		lines = append(lines, line)
	}
	return lines, nil
}

// ListOrders возвращает заказы вызывающего, новые первыми; admin видит все.
func (s *OrderService) ListOrders(ctx context.Context, id ordering.Identity, pageNum, size int) (page.Page[model.Order], error) {
	caller, err := ordering.ResolveCaller(ctx, s.users, id)
	if err != nil {
		return page.Page[model.Order]{}, err
	}

	var userID *int64
	if !caller.IsAdmin() {
		userID = &caller.ID
	}

	pageNum, size = page.Normalize(pageNum, size)
	orders, total, err := s.orders.List(ctx, userID, size, page.Offset(pageNum, size))
	if err != nil {
		return page.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return page.FromWindow(orders, pageNum, size, int(total)), nil
}

// ListOrderEvents отдаёт журнал аудита заказа постранично. Права как у GetOrder.
func (s *OrderService) ListOrderEvents(ctx context.Context, id ordering.Identity, orderID int64, pageNum, size int) (page.Page[model.Event], error) {
	caller, err := ordering.ResolveCaller(ctx, s.users, id)
	if err != nil {
		return page.Page[model.Event]{}, err
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return page.Page[model.Event]{}, err
	}
	if !caller.IsAdmin() && order.UserID != caller.ID {
		return page.Page[model.Event]{}, ordering.Errorf(ordering.KindForbidden, "order %d belongs to another user", orderID)
	}

	events, err := s.events.ListByOrder(ctx, orderID)
	if err != nil {
		return page.Page[model.Event]{}, fmt.Errorf("list events: %w", err)
	}
	return page.Paginate(events, pageNum, size), nil
}

// CompleteOrder переводит заказ в complete. Только автор заказа; повторное завершение даёт Conflict.
func (s *OrderService) CompleteOrder(ctx context.Context, id ordering.Identity, orderID int64) error {
	caller, err := ordering.ResolveCaller(ctx, s.users, id)
	if err != nil {
		return err
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != caller.ID {
		return ordering.Errorf(ordering.KindForbidden, "order %d belongs to another user", orderID)
	}
	if order.Complete {
		return ordering.Errorf(ordering.KindConflict, "order %d is already complete", orderID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done, err := repository.NewGormOrderRepository(tx).MarkComplete(ctx, orderID)
		if err != nil {
			return fmt.Errorf("mark complete: %w", err)
		}
		if !done {
			// параллельный запрос успел раньше
			return ordering.Errorf(ordering.KindConflict, "order %d is already complete", orderID)
		}
		return repository.NewGormEventRepository(tx).Create(ctx, &model.Event{
			EventType: model.EventTypeOrderCompleted,
			UserID:    &caller.ID,
			OrderID:   &orderID,
			RequestID: logging.RequestIDFromContext(ctx),
			Details:   datatypes.JSON(`{}`),
		})
	})
	if err != nil {
		return err
	}

	metrics.RecordOrderCompleted()
	logging.Ctx(ctx).Info().Int64("order_id", orderID).Str("user", caller.Username).Msg("order completed")
	return nil
}
