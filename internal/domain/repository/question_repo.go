package repository

import (
	"github.com/yourusername/thr-api/internal/domain/entity"
	"gorm.io/gorm"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(question *entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	GetByRoomID(roomID uint) ([]entity.Question, error)
	// GetForUpdate читает вопрос внутри транзакции с блокировкой строки
	// (SELECT ... FOR UPDATE), чтобы гонка двух участников на одном
	// вопросе сериализовалась на уровне БД.
	GetForUpdate(tx *gorm.DB, id uint) (*entity.Question, error)
	// Disable навсегда закрывает вопрос. Вызывается только внутри
	// транзакции коммита первого правильного ответа.
	Disable(tx *gorm.DB, id uint) error
}
