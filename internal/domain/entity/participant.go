package entity

import (
	"time"
)

// Статусы участника
const (
	ParticipantStatusActive  = "active"
	ParticipantStatusClaimed = "claimed" // весь баланс списан системным обменом
)

// Participant представляет игрока в одной комнате.
// TotalRupiah — денормализованный счетчик: он меняется только как побочный
// эффект коммита ответа или смены статуса обмена и обязан сходиться с
// леджером (сумма начислений минус сумма неотмененных списаний).
type Participant struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	RoomID      uint   `gorm:"not null;index" json:"room_id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	TotalRupiah int64  `gorm:"not null;default:0" json:"total_rupiah"`
	Status      string `gorm:"size:20;not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// CanAfford проверяет, хватает ли баланса на указанную стоимость
func (p *Participant) CanAfford(rupiahRequired int64) bool {
	return p.TotalRupiah >= rupiahRequired
}
