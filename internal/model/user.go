package model

import "time"

// users — персонал и администраторы
type User struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Username string `gorm:"type:varchar(30);not null;uniqueIndex" json:"username"`
	// bcrypt-хэш, наружу не отдаётся
	Password string `gorm:"type:text;not null" json:"-"`
	Role     string `gorm:"type:varchar(20);not null;index" json:"role"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
