package repository

import (
	"github.com/yourusername/thr-api/internal/domain/entity"
	"gorm.io/gorm"
)

// RewardRepository определяет методы для работы с призами
type RewardRepository interface {
	Create(reward *entity.Reward) error
	GetByID(id uint) (*entity.Reward, error)
	ListAll() ([]entity.Reward, error)
	// GetForUpdate читает приз внутри транзакции с блокировкой строки,
	// чтобы гонка двух обменов на последний экземпляр сериализовалась.
	GetForUpdate(tx *gorm.DB, id uint) (*entity.Reward, error)
	// AdjustStock атомарно меняет остаток на delta (-1 при обмене,
	// +1 при отмене обмена).
	AdjustStock(tx *gorm.DB, id uint, delta int) error
	// SetRemaining перезаписывает остаток абсолютным значением.
	// Используется ТОЛЬКО движком сверки при починке дрейфа.
	SetRemaining(tx *gorm.DB, id uint, value int) error
}
