package entity

import (
	"time"
)

// Reward представляет приз, который участник может получить за рупии.
// RemainingQuantity — денормализованный счетчик остатка: он равен
// quantity минус количество неотмененных обменов этого приза.
type Reward struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	RoomID            uint   `gorm:"not null;index" json:"room_id"`
	Name              string `gorm:"size:100;not null" json:"name"`
	Tier              string `gorm:"size:10;not null;default:'bronze'" json:"tier"`
	RupiahRequired    int64  `gorm:"not null" json:"rupiah_required"`
	Quantity          int    `gorm:"not null" json:"quantity"`
	RemainingQuantity int    `gorm:"not null" json:"remaining_quantity"`
	IsActive          bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Reward) TableName() string {
	return "rewards"
}

// InStock проверяет, остались ли еще экземпляры приза
func (r *Reward) InStock() bool {
	return r.RemainingQuantity > 0
}
