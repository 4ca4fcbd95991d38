package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/config"
	"github.com/Leganyst/ordering-platform/internal/db"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/ordering"
)

var testAuth = config.AuthConfig{
	JWTSecret:  "test-secret",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: time.Hour,
	Roles:      []string{"sagra", "bar", "punto giovani"},
}

var (
	asCook   = ordering.Identity{Username: "cook", Role: "sagra"}
	asBarman = ordering.Identity{Username: "barman", Role: "bar"}
	asAdmin  = ordering.Identity{Username: "admin", Role: config.AdminRole}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.NewSQLiteMemory()
	require.NoError(t, err, "open sqlite")
	require.NoError(t, model.AutoMigrate(gdb), "migrate")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// seedCatalog:
//
//	pizze(0): Pizza(1) [Large(1)] [Extra cheese(1)], Tiramisu(3) в dolci(2)
//	birre(1): Beer(2)
//	Combo(5) = Pizza обязательно + Beer опционально, доступно bar
//	sagra видит Pizza и Tiramisu
func seedCatalog(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)

	rows := []any{
		&model.User{ID: 1, Username: "admin", Password: string(hash), Role: config.AdminRole},
		&model.User{ID: 2, Username: "cook", Password: string(hash), Role: "sagra"},
		&model.User{ID: 3, Username: "barman", Password: string(hash), Role: "bar"},
		&model.Subcategory{ID: 1, Name: "pizze", Order: 0},
		&model.Subcategory{ID: 2, Name: "birre", Order: 1},
		&model.Subcategory{ID: 3, Name: "dolci", Order: 2},
		&model.Product{ID: 1, Name: "Pizza", Price: decimal.RequireFromString("7.5"), Category: model.CategoryFoods, SubcategoryID: 1},
		&model.Product{ID: 2, Name: "Beer", Price: decimal.RequireFromString("4"), Category: model.CategoryDrinks, SubcategoryID: 2},
		&model.Product{ID: 3, Name: "Tiramisu", Price: decimal.RequireFromString("3.5"), Category: model.CategoryFoods, SubcategoryID: 3},
		&model.Variant{ID: 1, Name: "Large", Price: decimal.RequireFromString("9"), ProductID: 1},
		&model.Ingredient{ID: 1, Name: "Extra cheese", Price: decimal.RequireFromString("1"), ProductID: 1},
		&model.Menu{ID: 5, Name: "Combo"},
		&model.MenuProduct{MenuID: 5, ProductID: 1, Optional: false},
		&model.MenuProduct{MenuID: 5, ProductID: 2, Optional: true},
		&model.RoleProduct{Role: "sagra", ProductID: 1},
		&model.RoleProduct{Role: "sagra", ProductID: 3},
		&model.RoleMenu{Role: "bar", MenuID: 5},
	}
	for _, r := range rows {
		require.NoError(t, gdb.Create(r).Error, "seed %T", r)
	}
}

func ptr[T any](v T) *T { return &v }

func orderInfo() *ordering.OrderInfo {
	return &ordering.OrderInfo{Client: "Mario", TakeAway: ptr(false), Table: ptr(4)}
}

func pizzaSelection() ordering.ProductSelection {
	return ordering.ProductSelection{ID: 1, Variant: ptr(int64(1)), Ingredients: []int64{1}, Quantity: 1}
}

func countRows(t *testing.T, gdb *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.WithContext(context.Background()).Model(m).Count(&n).Error)
	return n
}
