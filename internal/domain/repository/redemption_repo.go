package repository

import (
	"github.com/yourusername/thr-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ParticipantSpendTotal — агрегат леджера: сумма списанных рупий по участнику
// (неотмененные обмены)
type ParticipantSpendTotal struct {
	ParticipantID uint
	TotalSpent    int64
}

// RewardClaimCount — агрегат леджера: количество неотмененных обменов приза
type RewardClaimCount struct {
	RewardID uint
	Claimed  int64
}

// RedemptionRepository определяет методы для работы с леджером обменов
type RedemptionRepository interface {
	// Create вставляет запись обмена внутри транзакции коммита.
	Create(tx *gorm.DB, redemption *entity.Redemption) error
	GetByID(id uint) (*entity.Redemption, error)
	GetByParticipant(participantID uint) ([]entity.Redemption, error)
	// GetForUpdate читает обмен внутри транзакции с блокировкой строки,
	// чтобы переход статуса применился ровно один раз.
	GetForUpdate(tx *gorm.DB, id uint) (*entity.Redemption, error)
	UpdateStatus(tx *gorm.DB, id uint, status, notes string) error
	// HasActiveSystemClaim проверяет наличие неотмененного системного
	// обмена у участника (идемпотентность административного списания).
	HasActiveSystemClaim(tx *gorm.DB, participantID uint) (bool, error)
	// SpendTotals возвращает суммы списаний по всем участникам
	// (неотмененные обмены). Источник истины для сверки балансов.
	SpendTotals() ([]ParticipantSpendTotal, error)
	// SumSpent возвращает сумму списаний одного участника. Вызывается
	// внутри транзакции починки, чтобы ожидаемое значение было свежим.
	SumSpent(tx *gorm.DB, participantID uint) (int64, error)
	// ClaimCounts возвращает количество неотмененных обменов по призам.
	// Источник истины для сверки остатков.
	ClaimCounts() ([]RewardClaimCount, error)
	// CountClaims возвращает количество неотмененных обменов одного приза
	// (для транзакции починки).
	CountClaims(tx *gorm.DB, rewardID uint) (int64, error)
}
