package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей каталога и заказов.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Subcategory{},
		&Product{},
		&Variant{},
		&Ingredient{},
		&Menu{},
		&MenuProduct{},
		&RoleProduct{},
		&RoleMenu{},
		&Order{},
		&MenuOrder{},
		&ProductOrder{},
		&IngredientOrder{},
		&Event{},
	)
}
