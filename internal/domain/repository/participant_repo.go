package repository

import (
	"github.com/yourusername/thr-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ParticipantRepository определяет методы для работы с участниками
type ParticipantRepository interface {
	Create(participant *entity.Participant) error
	GetByID(id uint) (*entity.Participant, error)
	ListAll() ([]entity.Participant, error)
	// GetForUpdate читает участника внутри транзакции с блокировкой строки.
	GetForUpdate(tx *gorm.DB, id uint) (*entity.Participant, error)
	// AddRupiah атомарно меняет баланс на delta (может быть отрицательным).
	// Единственный легальный способ мутации TotalRupiah из сервисов.
	AddRupiah(tx *gorm.DB, id uint, delta int64) error
	// SetRupiah перезаписывает баланс абсолютным значением.
	// Используется ТОЛЬКО движком сверки при починке дрейфа.
	SetRupiah(tx *gorm.DB, id uint, value int64) error
	SetStatus(tx *gorm.DB, id uint, status string) error
}
