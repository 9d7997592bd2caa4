package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/domain/repository"
	"github.com/yourusername/thr-api/internal/metrics"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
	ws "github.com/yourusername/thr-api/internal/websocket"
)

// TTL кеша баланса участника
const balanceCacheTTL = 5 * time.Minute

// balanceCacheKey возвращает ключ кеша баланса участника
func balanceCacheKey(participantID uint) string {
	return fmt.Sprintf("participant:%d:balance", participantID)
}

// leaderboardCacheKey возвращает ключ кеша лидерборда комнаты
func leaderboardCacheKey(roomID uint) string {
	return fmt.Sprintf("room:%d:leaderboard", roomID)
}

// SubmitAnswerInput — входные данные попытки ответа
type SubmitAnswerInput struct {
	ParticipantID   uint
	QuestionID      uint
	RoomID          uint
	SelectedOption  int // entity.NoSelectionOption (-1) — просроченный ответ без выбора
	TimeToAnswerSec int
}

// AnswerResult — исход принятой попытки ответа
type AnswerResult struct {
	AnswerID      uint   `json:"answer_id"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectOption int    `json:"correct_option"`
	RupiahAwarded int64  `json:"rupiah_awarded"`
	Explanation   string `json:"explanation"`
	NewBalance    int64  `json:"new_balance"`
}

// AnswerService принимает и коммитит попытки ответов.
// Гарантирует "первый правильный побеждает": на вопрос засчитывается не
// более одного правильного ответа глобально, проигравший гонку всегда
// получает терминальный ErrAlreadyResolved.
type AnswerService struct {
	questionRepo    repository.QuestionRepository
	participantRepo repository.ParticipantRepository
	answerRepo      repository.AnswerRepository
	cacheRepo       repository.CacheRepository
	txManager       repository.TxManager
	hub             *ws.Hub
}

// NewAnswerService создает новый сервис приема ответов
func NewAnswerService(
	questionRepo repository.QuestionRepository,
	participantRepo repository.ParticipantRepository,
	answerRepo repository.AnswerRepository,
	cacheRepo repository.CacheRepository,
	txManager repository.TxManager,
	hub *ws.Hub,
) *AnswerService {
	return &AnswerService{
		questionRepo:    questionRepo,
		participantRepo: participantRepo,
		answerRepo:      answerRepo,
		cacheRepo:       cacheRepo,
		txManager:       txManager,
		hub:             hub,
	}
}

// Submit валидирует и атомарно коммитит одну попытку ответа.
//
// Порядок проверок фиксирован, каждая дает свой исход:
//  1. вопрос существует и принадлежит комнате — иначе ErrNotFound;
//  2. участник существует и состоит в комнате — иначе ErrNotFound;
//  3. вопрос еще не закрыт — иначе ErrAlreadyResolved;
//  4. участник еще не отвечал на этот вопрос — иначе ErrDuplicateAttempt;
//  5. никто еще не ответил правильно — иначе ErrAlreadyResolved;
//  6. выбранный вариант в пределах массива (или -1) — иначе ErrValidation.
//
// Проверки 3-6 и коммит выполняются под одной транзакцией со строкой
// вопроса, заблокированной FOR UPDATE: два участника, гоняющиеся за одним
// вопросом, сериализуются на уровне БД, и оба начисления невозможны.
func (s *AnswerService) Submit(ctx context.Context, in SubmitAnswerInput) (*AnswerResult, error) {
	if in.ParticipantID == 0 || in.QuestionID == 0 || in.RoomID == 0 {
		return nil, fmt.Errorf("%w: participant_id, question_id and room_id are required", apperrors.ErrValidation)
	}
	if in.SelectedOption < entity.NoSelectionOption {
		return nil, fmt.Errorf("%w: selected_option must be >= -1", apperrors.ErrValidation)
	}
	if in.TimeToAnswerSec < 0 {
		return nil, fmt.Errorf("%w: time_to_answer_sec must not be negative", apperrors.ErrValidation)
	}

	var result *AnswerResult

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		// 1. Вопрос (под локом: его is_disabled — охраняемое состояние)
		question, err := s.questionRepo.GetForUpdate(tx, in.QuestionID)
		if err != nil {
			return err
		}
		if question.RoomID != in.RoomID {
			return apperrors.ErrNotFound
		}

		// 2. Участник (под локом: его баланс будет изменен)
		participant, err := s.participantRepo.GetForUpdate(tx, in.ParticipantID)
		if err != nil {
			return err
		}
		if participant.RoomID != in.RoomID {
			return apperrors.ErrNotFound
		}

		// 3. Вопрос уже закрыт (правильный ответ или административное отключение)
		if question.IsDisabled {
			return apperrors.ErrAlreadyResolved
		}

		// 4. Повторная попытка того же участника
		attempted, err := s.answerRepo.HasAttempt(tx, in.ParticipantID, in.QuestionID)
		if err != nil {
			return err
		}
		if attempted {
			return apperrors.ErrDuplicateAttempt
		}

		// 5. Гонка уже выиграна кем-то другим
		resolved, err := s.answerRepo.HasCorrectAnswer(tx, in.QuestionID)
		if err != nil {
			return err
		}
		if resolved {
			return apperrors.ErrAlreadyResolved
		}

		// 6. Границы варианта ответа
		if !question.IsValidOption(in.SelectedOption) {
			return fmt.Errorf("%w: selected_option %d is out of range (question has %d options)",
				apperrors.ErrValidation, in.SelectedOption, question.OptionsCount())
		}

		isCorrect := in.SelectedOption != entity.NoSelectionOption && question.IsCorrectOption(in.SelectedOption)
		awarded := int64(question.AwardFor(isCorrect))

		if isCorrect {
			// Закрываем вопрос навсегда и начисляем рупии — в той же транзакции
			if err := s.questionRepo.Disable(tx, question.ID); err != nil {
				return fmt.Errorf("failed to disable question: %w", err)
			}
			if err := s.participantRepo.AddRupiah(tx, participant.ID, awarded); err != nil {
				return fmt.Errorf("failed to credit participant: %w", err)
			}
		}

		answer := &entity.Answer{
			QuestionID:      in.QuestionID,
			ParticipantID:   in.ParticipantID,
			RoomID:          in.RoomID,
			SelectedOption:  in.SelectedOption,
			IsCorrect:       isCorrect,
			RupiahAwarded:   awarded,
			TimeToAnswerSec: in.TimeToAnswerSec,
		}
		// Уникальные ограничения леджера — последний рубеж: при гонке,
		// проскочившей проверки, вставка вернет детерминированный конфликт.
		if err := s.answerRepo.Create(tx, answer); err != nil {
			return err
		}

		result = &AnswerResult{
			AnswerID:      answer.ID,
			IsCorrect:     isCorrect,
			CorrectOption: question.CorrectOption,
			RupiahAwarded: awarded,
			Explanation:   question.Explanation,
			NewBalance:    participant.TotalRupiah + awarded,
		}
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.ConflictsTotal.WithLabelValues(conflictKind(err)).Inc()
			log.Printf("[AnswerService] Попытка участника #%d на вопрос #%d отклонена: %v", in.ParticipantID, in.QuestionID, err)
		}
		return nil, err
	}

	outcome := "incorrect"
	if result.IsCorrect {
		outcome = "correct"
	}
	metrics.AnswersSubmitted.WithLabelValues(outcome).Inc()

	// Пост-обработка после коммита: кеш и уведомления. Ошибки здесь не
	// откатывают принятый ответ, только логируются.
	s.invalidateBalanceCache(in.ParticipantID, in.RoomID)
	if result.IsCorrect && s.hub != nil {
		s.hub.BroadcastToRoom(in.RoomID, "question:resolved", map[string]interface{}{
			"question_id":    in.QuestionID,
			"participant_id": in.ParticipantID,
			"rupiah_awarded": result.RupiahAwarded,
		})
	}

	log.Printf("[AnswerService] Участник #%d ответил на вопрос #%d: correct=%t, начислено %d рупий",
		in.ParticipantID, in.QuestionID, result.IsCorrect, result.RupiahAwarded)
	return result, nil
}

// invalidateBalanceCache сбрасывает кеш баланса участника и лидерборда комнаты
func (s *AnswerService) invalidateBalanceCache(participantID, roomID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(balanceCacheKey(participantID)); err != nil {
		log.Printf("[AnswerService] WARNING: Не удалось сбросить кеш баланса участника #%d: %v", participantID, err)
	}
	if err := s.cacheRepo.Delete(leaderboardCacheKey(roomID)); err != nil {
		log.Printf("[AnswerService] WARNING: Не удалось сбросить кеш лидерборда комнаты #%d: %v", roomID, err)
	}
}
