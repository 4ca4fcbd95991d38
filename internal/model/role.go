package model

// role_product — видимость продукта для роли персонала
type RoleProduct struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Role      string `gorm:"type:varchar(20);not null;uniqueIndex:idx_role_product" json:"role"`
	ProductID int64  `gorm:"not null;uniqueIndex:idx_role_product;index" json:"product_id"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (RoleProduct) TableName() string { return "role_product" }

// role_menu — видимость меню для роли персонала
type RoleMenu struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Role   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_role_menu" json:"role"`
	MenuID int64  `gorm:"not null;uniqueIndex:idx_role_menu;index" json:"menu_id"`

	Menu *Menu `gorm:"foreignKey:MenuID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (RoleMenu) TableName() string { return "role_menu" }
