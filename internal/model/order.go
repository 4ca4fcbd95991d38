package model

import "time"

// orders — корень агрегата заказа
type Order struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Client   string `gorm:"type:varchar(20);not null" json:"client"`
	Person   *int   `json:"person,omitempty"`
	TakeAway bool   `gorm:"not null" json:"take_away"`
	Table    *int   `gorm:"column:table_number" json:"table,omitempty"`
	UserID   int64  `gorm:"not null;index" json:"user_id"`
	// Переход false -> true ровно один раз.
	Complete bool `gorm:"not null;default:false;index" json:"complete"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// menu_order — выбранное в заказе меню; группирует свои ProductOrder
type MenuOrder struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	MenuID  int64 `gorm:"not null;index"`
	OrderID int64 `gorm:"not null;index"`

	Menu  *Menu  `gorm:"foreignKey:MenuID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Order *Order `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MenuOrder) TableName() string { return "menu_order" }

// product_order — одна позиция заказа. MenuOrderID == nil для позиций вне меню.
type ProductOrder struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderID     int64  `gorm:"not null;index"`
	ProductID   int64  `gorm:"not null;index"`
	VariantID   *int64 `gorm:"index"`
	MenuOrderID *int64 `gorm:"index"`
	Quantity    int    `gorm:"not null;default:1"`

	Order     *Order     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Product   *Product   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Variant   *Variant   `gorm:"foreignKey:VariantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	MenuOrder *MenuOrder `gorm:"foreignKey:MenuOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ProductOrder) TableName() string { return "product_order" }

// ingredient_order — добавка, привязанная к конкретной ProductOrder
type IngredientOrder struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	OrderID        int64 `gorm:"not null;index"`
	ProductOrderID int64 `gorm:"not null;index"`
	IngredientID   int64 `gorm:"not null;index"`

	Order        *Order        `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ProductOrder *ProductOrder `gorm:"foreignKey:ProductOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Ingredient   *Ingredient   `gorm:"foreignKey:IngredientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (IngredientOrder) TableName() string { return "ingredient_order" }
