package model

import (
	"time"

	"gorm.io/datatypes"
)

// Тип события аудита.
type EventType string

const (
	EventTypeOrderCreated   EventType = "order_created"
	EventTypeOrderCompleted EventType = "order_completed"
)

// events — события аудита, пишутся в той же транзакции, что и изменение заказа
type Event struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	EventType EventType `gorm:"type:varchar(64);not null;index" json:"event_type"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`

	UserID  *int64 `gorm:"index" json:"user_id,omitempty"`
	OrderID *int64 `gorm:"index" json:"order_id,omitempty"`

	// request id, под которым произошло событие
	RequestID string `gorm:"type:varchar(36)" json:"request_id,omitempty"`

	Details datatypes.JSON `json:"details"`

	// Навигационные поля
	User  *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Order *Order `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
