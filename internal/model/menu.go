package model

// menu — именованный набор продуктов
type Menu struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(30);not null;uniqueIndex" json:"name"`
}

func (Menu) TableName() string { return "menu" }

// menu_product — состав меню. Optional=false означает обязательную позицию.
type MenuProduct struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MenuID    int64 `gorm:"not null;uniqueIndex:idx_menu_product" json:"menu_id"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_menu_product;index" json:"product_id"`
	Optional  bool  `gorm:"not null;default:false" json:"optional"`

	Menu    *Menu    `gorm:"foreignKey:MenuID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (MenuProduct) TableName() string { return "menu_product" }
