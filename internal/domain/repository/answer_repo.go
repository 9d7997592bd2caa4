package repository

import (
	"github.com/yourusername/thr-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ParticipantAwardTotal — агрегат леджера: сумма начисленных рупий по участнику
type ParticipantAwardTotal struct {
	ParticipantID uint
	TotalAwarded  int64
}

// AnswerRepository определяет методы для работы с леджером ответов.
// Записи ответов неизменяемы; Delete существует только для починки
// дубликатов движком сверки.
type AnswerRepository interface {
	// Create вставляет запись ответа внутри транзакции коммита.
	Create(tx *gorm.DB, answer *entity.Answer) error
	GetByID(id uint) (*entity.Answer, error)
	// HasAttempt проверяет, отвечал ли участник на вопрос (любой исход).
	HasAttempt(tx *gorm.DB, participantID, questionID uint) (bool, error)
	// HasCorrectAnswer проверяет, есть ли уже правильный ответ на вопрос.
	HasCorrectAnswer(tx *gorm.DB, questionID uint) (bool, error)
	GetByParticipant(participantID uint) ([]entity.Answer, error)
	// AwardTotals возвращает суммы начислений по всем участникам
	// (только правильные ответы). Источник истины для сверки балансов.
	AwardTotals() ([]ParticipantAwardTotal, error)
	// SumAwarded возвращает сумму начислений одного участника. Вызывается
	// внутри транзакции починки, чтобы ожидаемое значение было свежим.
	SumAwarded(tx *gorm.DB, participantID uint) (int64, error)
	// ListDuplicates возвращает все ответы из групп (participant_id,
	// question_id) с более чем одной записью, отсортированные по группе
	// и времени создания.
	ListDuplicates() ([]entity.Answer, error)
	// DeleteByIDs удаляет записи по ID. Используется только починкой
	// дубликатов: сохраняется самый ранний ответ группы.
	DeleteByIDs(tx *gorm.DB, ids []uint) error
}
