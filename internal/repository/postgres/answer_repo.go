package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/domain/repository"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// Имена уникальных ограничений из миграций. По имени нарушенного
// ограничения различаем проигранную гонку и повторную попытку.
const (
	constraintAnswerPerParticipant = "idx_answers_participant_question"
	constraintSingleCorrectAnswer  = "idx_answers_question_correct"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий леджера ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Create вставляет запись ответа. Нарушение уникальности маппится в
// детерминированный конфликтный исход: дубликат попытки или проигранная
// гонка за правильный ответ (последний рубеж после проверок под локом).
func (r *AnswerRepo) Create(tx *gorm.DB, answer *entity.Answer) error {
	err := tx.Create(answer).Error
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueViolationConstraint(err); ok {
		switch constraint {
		case constraintAnswerPerParticipant:
			return apperrors.ErrDuplicateAttempt
		case constraintSingleCorrectAnswer:
			return apperrors.ErrAlreadyResolved
		}
	}
	return fmt.Errorf("failed to save answer: %w", err)
}

// GetByID возвращает запись ответа по ID
func (r *AnswerRepo) GetByID(id uint) (*entity.Answer, error) {
	var answer entity.Answer
	err := r.db.First(&answer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// HasAttempt проверяет, отвечал ли участник на вопрос
func (r *AnswerRepo) HasAttempt(tx *gorm.DB, participantID, questionID uint) (bool, error) {
	var count int64
	err := tx.Model(&entity.Answer{}).
		Where("participant_id = ? AND question_id = ?", participantID, questionID).
		Count(&count).Error
	return count > 0, err
}

// HasCorrectAnswer проверяет, есть ли уже правильный ответ на вопрос
func (r *AnswerRepo) HasCorrectAnswer(tx *gorm.DB, questionID uint) (bool, error) {
	var count int64
	err := tx.Model(&entity.Answer{}).
		Where("question_id = ? AND is_correct = true", questionID).
		Count(&count).Error
	return count > 0, err
}

// GetByParticipant возвращает все ответы участника
func (r *AnswerRepo) GetByParticipant(participantID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("participant_id = ?", participantID).
		Order("created_at").
		Find(&answers).Error
	return answers, err
}

// AwardTotals возвращает суммы начисленных рупий по участникам
func (r *AnswerRepo) AwardTotals() ([]repository.ParticipantAwardTotal, error) {
	var totals []repository.ParticipantAwardTotal
	err := r.db.Model(&entity.Answer{}).
		Select("participant_id, COALESCE(SUM(rupiah_awarded), 0) as total_awarded").
		Where("is_correct = true").
		Group("participant_id").
		Scan(&totals).Error
	return totals, err
}

// SumAwarded возвращает сумму начислений одного участника
func (r *AnswerRepo) SumAwarded(tx *gorm.DB, participantID uint) (int64, error) {
	var total int64
	err := tx.Model(&entity.Answer{}).
		Select("COALESCE(SUM(rupiah_awarded), 0)").
		Where("participant_id = ? AND is_correct = true", participantID).
		Scan(&total).Error
	return total, err
}

// ListDuplicates возвращает все ответы из групп с нарушенной уникальностью
// (participant_id, question_id). Группы отсортированы, внутри группы первым
// идет самый ранний ответ.
func (r *AnswerRepo) ListDuplicates() ([]entity.Answer, error) {
	var answers []entity.Answer
	sql := `
	SELECT a.* FROM answers a
	JOIN (
	    SELECT participant_id, question_id
	    FROM answers
	    GROUP BY participant_id, question_id
	    HAVING COUNT(*) > 1
	) d ON a.participant_id = d.participant_id AND a.question_id = d.question_id
	ORDER BY a.participant_id, a.question_id, a.created_at, a.id;`

	err := r.db.Raw(sql).Scan(&answers).Error
	return answers, err
}

// DeleteByIDs удаляет записи ответов по ID (только починка дубликатов)
func (r *AnswerRepo) DeleteByIDs(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Delete(&entity.Answer{}, ids).Error
}
