package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/thr-api/internal/domain/entity"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByRoomID возвращает все вопросы комнаты
func (r *QuestionRepo) GetByRoomID(roomID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("room_id = ?", roomID).Order("id").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetForUpdate возвращает вопрос с блокировкой строки FOR UPDATE.
// Должен вызываться только внутри транзакции.
func (r *QuestionRepo) GetForUpdate(tx *gorm.DB, id uint) (*entity.Question, error) {
	var question entity.Question
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// Disable навсегда закрывает вопрос для новых правильных ответов
func (r *QuestionRepo) Disable(tx *gorm.DB, id uint) error {
	return tx.Model(&entity.Question{}).
		Where("id = ?", id).
		Update("is_disabled", true).Error
}
