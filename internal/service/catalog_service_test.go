package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/ordering"
)

func TestCatalogService_ListVisibleProducts(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	groups, err := svc.ListVisibleProducts(ctx, "sagra")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "pizze", groups[0].Subcategory)
	assert.Equal(t, "dolci", groups[1].Subcategory)
	assert.Equal(t, "Pizza", groups[0].Products[0].Name)
	assert.Len(t, groups[0].Products[0].Variants, 1)
	assert.Empty(t, groups[0].Products[0].Roles, "roles are shown to admin only")

	groups, err = svc.ListVisibleProducts(ctx, "bar")
	require.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = svc.ListVisibleProducts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, groups, "an empty role has no grants")

	groups, err = svc.ListVisibleProducts(ctx, ordering.AdminRole)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"pizze", "birre", "dolci"}, []string{groups[0].Subcategory, groups[1].Subcategory, groups[2].Subcategory})
	assert.Equal(t, []string{"sagra"}, groups[0].Products[0].Roles)
}

func TestCatalogService_GetProduct(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, "sagra", 1)
	require.NoError(t, err)
	assert.Equal(t, "Extra cheese", p.Ingredients[0].Name)

	_, err = svc.GetProduct(ctx, "bar", 1)
	assert.Equal(t, ordering.KindNotVisible, ordering.KindOf(err))

	_, err = svc.GetProduct(ctx, ordering.AdminRole, 42)
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(err))
}

func TestCatalogService_CreateProduct_DedupesByName(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{
		Name:        "Spritz",
		Price:       decimal.RequireFromString("5"),
		Category:    model.CategoryDrinks,
		Subcategory: 2,
		Variants: []NamedPrice{
			{Name: "Aperol", Price: decimal.RequireFromString("5")},
			{Name: "Campari", Price: decimal.RequireFromString("5.5")},
			{Name: "Aperol", Price: decimal.RequireFromString("9")},
		},
		Roles: []string{"bar", "bar"},
	})
	require.NoError(t, err)

	view, err := svc.GetProduct(ctx, "bar", p.ID)
	require.NoError(t, err)
	require.Len(t, view.Variants, 2)
	assert.Equal(t, "Aperol", view.Variants[0].Name)
	assert.True(t, view.Variants[0].Price.Equal(decimal.RequireFromString("5")), "first occurrence wins")

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Spritz", Price: decimal.NewFromInt(1), Category: model.CategoryDrinks, Subcategory: 2})
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err))
}

func TestCatalogService_CreateProduct_Rejects(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	cases := map[string]struct {
		in   ProductInput
		kind ordering.Kind
	}{
		"bad category":     {ProductInput{Name: "X", Category: "snacks", Subcategory: 1}, ordering.KindMalformedRequest},
		"negative price":   {ProductInput{Name: "X", Price: decimal.NewFromInt(-1), Category: model.CategoryFoods, Subcategory: 1}, ordering.KindMalformedRequest},
		"unknown role":     {ProductInput{Name: "X", Category: model.CategoryFoods, Subcategory: 1, Roles: []string{"kitchen"}}, ordering.KindMalformedRequest},
		"admin role":       {ProductInput{Name: "X", Category: model.CategoryFoods, Subcategory: 1, Roles: []string{ordering.AdminRole}}, ordering.KindMalformedRequest},
		"no subcategory":   {ProductInput{Name: "X", Category: model.CategoryFoods, Subcategory: 77}, ordering.KindUnknownEntity},
		"duplicate name":   {ProductInput{Name: "Pizza", Category: model.CategoryFoods, Subcategory: 1}, ordering.KindConflict},
		"missing name":     {ProductInput{Category: model.CategoryFoods, Subcategory: 1}, ordering.KindMalformedRequest},
		"negative variant": {ProductInput{Name: "X", Category: model.CategoryFoods, Subcategory: 1, Variants: []NamedPrice{{Name: "S", Price: decimal.NewFromInt(-2)}}}, ordering.KindMalformedRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.in)
			assert.Equal(t, tc.kind, ordering.KindOf(err), "err: %v", err)
		})
	}
}

func TestCatalogService_ProductAdditions(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	require.NoError(t, svc.AddProductRole(ctx, 2, "bar"))
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(svc.AddProductRole(ctx, 2, "bar")))
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(svc.AddProductRole(ctx, 99, "bar")))

	_, err := svc.AddVariant(ctx, 1, NamedPrice{Name: "Small", Price: decimal.NewFromInt(6)})
	require.NoError(t, err)
	_, err = svc.AddVariant(ctx, 1, NamedPrice{Name: "Large", Price: decimal.NewFromInt(6)})
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err))

	_, err = svc.AddIngredient(ctx, 1, NamedPrice{Name: "Basil", Price: decimal.NewFromInt(0)})
	require.NoError(t, err)
	_, err = svc.AddIngredient(ctx, 1, NamedPrice{Name: "Extra cheese", Price: decimal.NewFromInt(1)})
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err))

	require.NoError(t, svc.UpdateProductPrice(ctx, 1, decimal.RequireFromString("8.25")))
	p, err := svc.GetProduct(ctx, ordering.AdminRole, 1)
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("8.25")))
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(svc.UpdateProductPrice(ctx, 99, decimal.NewFromInt(1))))
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	catalog := NewCatalogService(gdb, testAuth)
	orders := NewOrderService(gdb)
	ctx := context.Background()

	_, err := orders.CreateOrder(ctx, asCook, &ordering.OrderRequest{
		Info: orderInfo(), Products: []ordering.ProductSelection{{ID: 3, Quantity: 1}},
	})
	require.NoError(t, err)

	err = catalog.DeleteProduct(ctx, 3)
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err), "ordered product must stay")

	require.NoError(t, catalog.DeleteProduct(ctx, 2))
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(catalog.DeleteProduct(ctx, 2)))
	assert.Equal(t, int64(1), countRows(t, gdb, &model.MenuProduct{}), "menu membership is removed with the product")
}

func TestCatalogService_Subcategories(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	sub, err := svc.CreateSubcategory(ctx, SubcategoryInput{Name: "antipasti", Order: ptr(5)})
	require.NoError(t, err)

	_, err = svc.CreateSubcategory(ctx, SubcategoryInput{Name: "other", Order: ptr(5)})
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err))

	_, err = svc.CreateSubcategory(ctx, SubcategoryInput{Name: "other"})
	assert.Equal(t, ordering.KindMalformedRequest, ordering.KindOf(err))

	assert.Equal(t, ordering.KindConflict, ordering.KindOf(svc.DeleteSubcategory(ctx, 1)), "subcategory with products")
	require.NoError(t, svc.DeleteSubcategory(ctx, sub.ID))
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(svc.DeleteSubcategory(ctx, sub.ID)))

	subs, err := svc.ListSubcategories(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}

func TestCatalogService_Menus(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewCatalogService(gdb, testAuth)
	ctx := context.Background()

	menu, err := svc.CreateMenu(ctx, MenuInput{
		Name: "Dolce",
		Products: []MenuItemInput{
			{Name: "Tiramisu"},
			{Name: "Beer", Optional: true},
			{Name: "Tiramisu", Optional: true},
		},
		Roles: []string{"sagra"},
	})
	require.NoError(t, err)

	view, err := svc.GetMenu(ctx, "sagra", menu.ID)
	require.NoError(t, err)
	require.Len(t, view.Products, 2)
	assert.Equal(t, MenuItemView{ProductID: 3, Name: "Tiramisu", Optional: false}, view.Products[0])

	_, err = svc.GetMenu(ctx, "bar", menu.ID)
	assert.Equal(t, ordering.KindNotVisible, ordering.KindOf(err))

	_, err = svc.CreateMenu(ctx, MenuInput{Name: "Dolce", Products: []MenuItemInput{{Name: "Beer"}}})
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err))

	_, err = svc.CreateMenu(ctx, MenuInput{Name: "Ghost", Products: []MenuItemInput{{Name: "Nope"}}})
	assert.Equal(t, ordering.KindUnknownEntity, ordering.KindOf(err))

	require.NoError(t, svc.AddMenuProduct(ctx, menu.ID, MenuItemInput{Name: "Pizza", Optional: true}))
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(svc.AddMenuProduct(ctx, menu.ID, MenuItemInput{Name: "Pizza"})))

	require.NoError(t, svc.AddMenuRole(ctx, menu.ID, "bar"))
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(svc.AddMenuRole(ctx, menu.ID, "bar")))

	menus, err := svc.ListMenus(ctx, "bar")
	require.NoError(t, err)
	require.Len(t, menus, 2)
	assert.Equal(t, "Combo", menus[0].Name)
	assert.Equal(t, "Dolce", menus[1].Name)

	menus, err = svc.ListMenus(ctx, ordering.AdminRole)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "sagra"}, menus[1].Roles)

	menus, err = svc.ListMenus(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, menus)
}
