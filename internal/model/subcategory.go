package model

// subcategories — задают порядок вывода внутри категории
type Subcategory struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(20);not null;uniqueIndex" json:"name"`
	// Ранг сортировки; колонка не называется "order", чтобы не экранировать ключевое слово.
	Order int `gorm:"column:sort_order;not null;uniqueIndex" json:"order"`
}
