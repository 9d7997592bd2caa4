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
)

// ParticipantDrift — расхождение денормализованного баланса участника
// с суммой по леджеру (начисления минус списания)
type ParticipantDrift struct {
	ParticipantID uint  `json:"participant_id"`
	RoomID        uint  `json:"room_id"`
	Actual        int64 `json:"actual"`
	Expected      int64 `json:"expected"`
	Delta         int64 `json:"delta"`
}

// RewardDrift — расхождение счетчика остатка приза с количеством
// неотмененных обменов по леджеру
type RewardDrift struct {
	RewardID uint   `json:"reward_id"`
	RoomID   uint   `json:"room_id"`
	Name     string `json:"name"`
	Actual   int    `json:"actual"`
	Expected int    `json:"expected"`
	Delta    int    `json:"delta"`
}

// DuplicateAnswerGroup — группа ответов одного участника на один вопрос
// с более чем одной записью. KeepID — самый ранний ответ группы,
// ExtraIDs — записи на удаление.
type DuplicateAnswerGroup struct {
	ParticipantID uint   `json:"participant_id"`
	QuestionID    uint   `json:"question_id"`
	KeepID        uint   `json:"keep_id"`
	ExtraIDs      []uint `json:"extra_ids"`
}

// DriftReport — результат полного прохода сверки
type DriftReport struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	ParticipantDrifts []ParticipantDrift     `json:"participant_drifts"`
	RewardDrifts      []RewardDrift          `json:"reward_drifts"`
	DuplicateAnswers  []DuplicateAnswerGroup `json:"duplicate_answers"`
}

// IsClean сообщает, что сверка не нашла ни одного расхождения
func (r *DriftReport) IsClean() bool {
	return len(r.ParticipantDrifts) == 0 && len(r.RewardDrifts) == 0 && len(r.DuplicateAnswers) == 0
}

// RepairReport — результат починки: сколько целей исправлено по каждому типу
type RepairReport struct {
	ParticipantsRepaired int `json:"participants_repaired"`
	RewardsRepaired      int `json:"rewards_repaired"`
	DuplicatesRemoved    int `json:"duplicates_removed"`
	Failed               int `json:"failed"`
}

// ReportMailer отправляет отчет сверки администраторам
type ReportMailer interface {
	SendDriftReport(report *DriftReport) error
}

// ReconciliationService сверяет денормализованные счетчики (баланс
// участника, остаток приза) с леджером ответов и обменов. Леджер —
// единственный источник истины: при расхождении чинится счетчик,
// записи леджера никогда не переписываются (кроме удаления дубликатов).
type ReconciliationService struct {
	participantRepo repository.ParticipantRepository
	rewardRepo      repository.RewardRepository
	answerRepo      repository.AnswerRepository
	redemptionRepo  repository.RedemptionRepository
	txManager       repository.TxManager
	mailer          ReportMailer
}

// NewReconciliationService создает новый сервис сверки
func NewReconciliationService(
	participantRepo repository.ParticipantRepository,
	rewardRepo repository.RewardRepository,
	answerRepo repository.AnswerRepository,
	redemptionRepo repository.RedemptionRepository,
	txManager repository.TxManager,
	mailer ReportMailer,
) *ReconciliationService {
	return &ReconciliationService{
		participantRepo: participantRepo,
		rewardRepo:      rewardRepo,
		answerRepo:      answerRepo,
		redemptionRepo:  redemptionRepo,
		txManager:       txManager,
		mailer:          mailer,
	}
}

// Scan выполняет полный проход сверки без изменений данных. Агрегаты и
// счетчики читаются без локов, поэтому на живой системе возможны ложные
// срабатывания от запросов между чтениями; Repair перепроверяет каждую
// цель под локом перед перезаписью.
func (s *ReconciliationService) Scan(ctx context.Context) (*DriftReport, error) {
	report := &DriftReport{GeneratedAt: time.Now()}

	participants, err := s.participantRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	awardTotals, err := s.answerRepo.AwardTotals()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate awards: %w", err)
	}
	spendTotals, err := s.redemptionRepo.SpendTotals()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spends: %w", err)
	}

	awarded := make(map[uint]int64, len(awardTotals))
	for _, t := range awardTotals {
		awarded[t.ParticipantID] = t.TotalAwarded
	}
	spent := make(map[uint]int64, len(spendTotals))
	for _, t := range spendTotals {
		spent[t.ParticipantID] = t.TotalSpent
	}

	for _, p := range participants {
		expected := awarded[p.ID] - spent[p.ID]
		if p.TotalRupiah != expected {
			report.ParticipantDrifts = append(report.ParticipantDrifts, ParticipantDrift{
				ParticipantID: p.ID,
				RoomID:        p.RoomID,
				Actual:        p.TotalRupiah,
				Expected:      expected,
				Delta:         p.TotalRupiah - expected,
			})
		}
	}

	rewards, err := s.rewardRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	claimCounts, err := s.redemptionRepo.ClaimCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate claims: %w", err)
	}
	claimed := make(map[uint]int64, len(claimCounts))
	for _, c := range claimCounts {
		claimed[c.RewardID] = c.Claimed
	}

	for _, rw := range rewards {
		expected := rw.Quantity - int(claimed[rw.ID])
		if rw.RemainingQuantity != expected {
			report.RewardDrifts = append(report.RewardDrifts, RewardDrift{
				RewardID: rw.ID,
				RoomID:   rw.RoomID,
				Name:     rw.Name,
				Actual:   rw.RemainingQuantity,
				Expected: expected,
				Delta:    rw.RemainingQuantity - expected,
			})
		}
	}

	duplicates, err := s.answerRepo.ListDuplicates()
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate answers: %w", err)
	}
	report.DuplicateAnswers = groupDuplicates(duplicates)

	for range report.ParticipantDrifts {
		metrics.DriftDetected.WithLabelValues("participant").Inc()
	}
	for range report.RewardDrifts {
		metrics.DriftDetected.WithLabelValues("reward").Inc()
	}
	for range report.DuplicateAnswers {
		metrics.DriftDetected.WithLabelValues("duplicate").Inc()
	}

	if report.IsClean() {
		log.Printf("[ReconciliationService] Сверка чистая: %d участников, %d призов", len(participants), len(rewards))
	} else {
		log.Printf("[ReconciliationService] Сверка нашла расхождения: балансы=%d, остатки=%d, дубликаты=%d",
			len(report.ParticipantDrifts), len(report.RewardDrifts), len(report.DuplicateAnswers))
		if s.mailer != nil {
			if err := s.mailer.SendDriftReport(report); err != nil {
				log.Printf("[ReconciliationService] WARNING: Не удалось отправить отчет сверки: %v", err)
			}
		}
	}

	return report, nil
}

// Repair устраняет расхождения из отчета. Каждая цель чинится в
// собственной короткой транзакции: строка лочится, ожидаемое значение
// пересчитывается по леджеру заново (отчет мог устареть) и счетчик
// перезаписывается, только если расхождение все еще есть. Дубликаты
// удаляются первыми, чтобы пересчет балансов шел по очищенному леджеру.
// Ошибка одной цели не прерывает остальные.
func (s *ReconciliationService) Repair(ctx context.Context, report *DriftReport) (*RepairReport, error) {
	result := &RepairReport{}

	for _, group := range report.DuplicateAnswers {
		err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
			return s.answerRepo.DeleteByIDs(tx, group.ExtraIDs)
		})
		if err != nil {
			result.Failed++
			log.Printf("[ReconciliationService] ERROR: Не удалось удалить дубликаты ответов участника #%d на вопрос #%d: %v",
				group.ParticipantID, group.QuestionID, err)
			continue
		}
		result.DuplicatesRemoved += len(group.ExtraIDs)
		metrics.DriftRepaired.WithLabelValues("duplicate").Inc()
		log.Printf("[ReconciliationService] Удалено %d дубликатов ответов: участник #%d, вопрос #%d (сохранен ответ #%d)",
			len(group.ExtraIDs), group.ParticipantID, group.QuestionID, group.KeepID)
	}

	for _, drift := range report.ParticipantDrifts {
		err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
			participant, err := s.participantRepo.GetForUpdate(tx, drift.ParticipantID)
			if err != nil {
				return err
			}
			awarded, err := s.answerRepo.SumAwarded(tx, participant.ID)
			if err != nil {
				return err
			}
			spentSum, err := s.redemptionRepo.SumSpent(tx, participant.ID)
			if err != nil {
				return err
			}
			expected := awarded - spentSum
			if participant.TotalRupiah == expected {
				// Расхождение уже исчезло — отчет устарел
				return nil
			}
			log.Printf("[ReconciliationService] Починка баланса участника #%d: %d -> %d",
				participant.ID, participant.TotalRupiah, expected)
			return s.participantRepo.SetRupiah(tx, participant.ID, expected)
		})
		if err != nil {
			result.Failed++
			log.Printf("[ReconciliationService] ERROR: Не удалось починить баланс участника #%d: %v", drift.ParticipantID, err)
			continue
		}
		result.ParticipantsRepaired++
		metrics.DriftRepaired.WithLabelValues("participant").Inc()
	}

	for _, drift := range report.RewardDrifts {
		err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
			reward, err := s.rewardRepo.GetForUpdate(tx, drift.RewardID)
			if err != nil {
				return err
			}
			claims, err := s.redemptionRepo.CountClaims(tx, reward.ID)
			if err != nil {
				return err
			}
			expected := reward.Quantity - int(claims)
			if reward.RemainingQuantity == expected {
				return nil
			}
			log.Printf("[ReconciliationService] Починка остатка приза #%d (%s): %d -> %d",
				reward.ID, reward.Name, reward.RemainingQuantity, expected)
			return s.rewardRepo.SetRemaining(tx, reward.ID, expected)
		})
		if err != nil {
			result.Failed++
			log.Printf("[ReconciliationService] ERROR: Не удалось починить остаток приза #%d: %v", drift.RewardID, err)
			continue
		}
		result.RewardsRepaired++
		metrics.DriftRepaired.WithLabelValues("reward").Inc()
	}

	log.Printf("[ReconciliationService] Починка завершена: балансы=%d, остатки=%d, дубликаты=%d, ошибки=%d",
		result.ParticipantsRepaired, result.RewardsRepaired, result.DuplicatesRemoved, result.Failed)
	return result, nil
}

// ScanAndRepair — полный цикл сверки за один вызов (используется
// batch-утилитой и периодическим запуском)
func (s *ReconciliationService) ScanAndRepair(ctx context.Context) (*DriftReport, *RepairReport, error) {
	report, err := s.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	if report.IsClean() {
		return report, &RepairReport{}, nil
	}
	repaired, err := s.Repair(ctx, report)
	if err != nil {
		return report, nil, err
	}
	return report, repaired, nil
}

// groupDuplicates собирает плоский список дубликатов (отсортирован по
// группе и времени создания) в группы: первый ответ группы сохраняется,
// остальные помечаются на удаление.
func groupDuplicates(answers []entity.Answer) []DuplicateAnswerGroup {
	var groups []DuplicateAnswerGroup
	for _, a := range answers {
		n := len(groups)
		if n == 0 || groups[n-1].ParticipantID != a.ParticipantID || groups[n-1].QuestionID != a.QuestionID {
			groups = append(groups, DuplicateAnswerGroup{
				ParticipantID: a.ParticipantID,
				QuestionID:    a.QuestionID,
				KeepID:        a.ID,
			})
			continue
		}
		groups[n-1].ExtraIDs = append(groups[n-1].ExtraIDs, a.ID)
	}
	return groups
}
