package entity

import (
	"time"
)

// Статусы обмена
const (
	RedemptionStatusPending   = "pending"
	RedemptionStatusFulfilled = "fulfilled"
	RedemptionStatusCancelled = "cancelled"
)

// Виды обмена. Явный тег вместо null-проверок RewardID:
// RedemptionKindReward — обычный обмен рупий на конкретный приз,
// RedemptionKindSystem — административное списание всего баланса.
const (
	RedemptionKindReward = "reward"
	RedemptionKindSystem = "system"
)

// Redemption представляет запись обмена в леджере. Запись неизменяема,
// кроме перехода статуса: pending -> fulfilled либо pending -> cancelled,
// ровно один раз. Отмена — единственный переход с компенсирующими
// эффектами (возврат баланса, восстановление остатка приза).
type Redemption struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Kind          string `gorm:"size:10;not null;default:'reward'" json:"kind"`
	RewardID      *uint  `gorm:"index" json:"reward_id,omitempty"` // nil для kind=system
	ParticipantID uint   `gorm:"not null;index" json:"participant_id"`
	RoomID        uint   `gorm:"not null;index" json:"room_id"`
	RupiahSpent   int64  `gorm:"not null" json:"rupiah_spent"`
	Status        string `gorm:"size:10;not null;default:'pending'" json:"status"`
	Notes         string `gorm:"size:500;not null;default:''" json:"notes,omitempty"`
	Reference     string `gorm:"size:36;not null;uniqueIndex" json:"reference"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Redemption) TableName() string {
	return "redemptions"
}

// IsSystemClaim сообщает, является ли обмен административным списанием
// всего баланса (без конкретного приза)
func (r *Redemption) IsSystemClaim() bool {
	return r.Kind == RedemptionKindSystem
}

// IsCounted сообщает, учитывается ли обмен в балансе участника и в
// остатке приза (все статусы, кроме cancelled)
func (r *Redemption) IsCounted() bool {
	return r.Status != RedemptionStatusCancelled
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Легальны только pending -> fulfilled и pending -> cancelled.
func (r *Redemption) CanTransitionTo(newStatus string) bool {
	if r.Status != RedemptionStatusPending {
		return false
	}
	return newStatus == RedemptionStatusFulfilled || newStatus == RedemptionStatusCancelled
}
