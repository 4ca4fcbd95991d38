package model

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryFoods  Category = "foods"
	CategoryDrinks Category = "drinks"
)

func (c Category) Valid() bool {
	return c == CategoryFoods || c == CategoryDrinks
}

// products
type Product struct {
	ID       int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string          `gorm:"type:varchar(30);not null;uniqueIndex" json:"name"`
	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Category Category        `gorm:"type:varchar(16);not null;index" json:"category"`

	SubcategoryID int64 `gorm:"not null;index" json:"subcategory_id"`

	Subcategory *Subcategory `gorm:"foreignKey:SubcategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// variant — вариант продукта (размер и т.п.), принадлежит ровно одному продукту
type Variant struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(20);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Variant) TableName() string { return "variant" }

// ingredients — добавка к продукту
type Ingredient struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(20);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
