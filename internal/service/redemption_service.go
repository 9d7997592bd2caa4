package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/domain/repository"
	"github.com/yourusername/thr-api/internal/metrics"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
	ws "github.com/yourusername/thr-api/internal/websocket"
)

// RedeemResult — исход принятого обмена
type RedeemResult struct {
	RedemptionID uint   `json:"redemption_id"`
	Reference    string `json:"reference"`
	RupiahSpent  int64  `json:"rupiah_spent"`
	NewBalance   int64  `json:"new_balance"`
}

// RedemptionService проводит обмены рупий на призы и переходы их статусов.
// Баланс и остаток призов не могут уйти в минус: проверка и списание
// выполняются под одной транзакцией с залоченными строками.
type RedemptionService struct {
	participantRepo repository.ParticipantRepository
	rewardRepo      repository.RewardRepository
	redemptionRepo  repository.RedemptionRepository
	cacheRepo       repository.CacheRepository
	txManager       repository.TxManager
	hub             *ws.Hub
}

// NewRedemptionService создает новый сервис обменов
func NewRedemptionService(
	participantRepo repository.ParticipantRepository,
	rewardRepo repository.RewardRepository,
	redemptionRepo repository.RedemptionRepository,
	cacheRepo repository.CacheRepository,
	txManager repository.TxManager,
	hub *ws.Hub,
) *RedemptionService {
	return &RedemptionService{
		participantRepo: participantRepo,
		rewardRepo:      rewardRepo,
		redemptionRepo:  redemptionRepo,
		cacheRepo:       cacheRepo,
		txManager:       txManager,
		hub:             hub,
	}
}

// Redeem атомарно обменивает рупии участника на приз: остаток приза -1,
// баланс -стоимость, запись в леджер со статусом pending. Гонка двух
// участников за последний экземпляр сериализуется локом строки приза:
// ровно один получает обмен, второй — терминальный ErrOutOfStock.
func (s *RedemptionService) Redeem(ctx context.Context, participantID, rewardID uint) (*RedeemResult, error) {
	if participantID == 0 || rewardID == 0 {
		return nil, fmt.Errorf("%w: participant_id and reward_id are required", apperrors.ErrValidation)
	}

	var result *RedeemResult
	var roomID uint

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		// Порядок локов фиксирован (участник, затем приз), чтобы
		// встречные обмены не взаимоблокировались.
		participant, err := s.participantRepo.GetForUpdate(tx, participantID)
		if err != nil {
			return err
		}
		reward, err := s.rewardRepo.GetForUpdate(tx, rewardID)
		if err != nil {
			return err
		}
		if !reward.IsActive {
			return apperrors.ErrNotFound
		}
		if participant.RoomID != reward.RoomID {
			return apperrors.ErrRoomMismatch
		}
		if !reward.InStock() {
			return apperrors.ErrOutOfStock
		}
		if !participant.CanAfford(reward.RupiahRequired) {
			return apperrors.ErrInsufficientBalance
		}

		if err := s.rewardRepo.AdjustStock(tx, reward.ID, -1); err != nil {
			return fmt.Errorf("failed to decrement reward stock: %w", err)
		}
		if err := s.participantRepo.AddRupiah(tx, participant.ID, -reward.RupiahRequired); err != nil {
			return fmt.Errorf("failed to debit participant: %w", err)
		}

		redemption := &entity.Redemption{
			Kind:          entity.RedemptionKindReward,
			RewardID:      &reward.ID,
			ParticipantID: participant.ID,
			RoomID:        participant.RoomID,
			RupiahSpent:   reward.RupiahRequired,
			Status:        entity.RedemptionStatusPending,
			Reference:     uuid.NewString(),
		}
		if err := s.redemptionRepo.Create(tx, redemption); err != nil {
			return err
		}

		roomID = participant.RoomID
		result = &RedeemResult{
			RedemptionID: redemption.ID,
			Reference:    redemption.Reference,
			RupiahSpent:  redemption.RupiahSpent,
			NewBalance:   participant.TotalRupiah - reward.RupiahRequired,
		}
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.ConflictsTotal.WithLabelValues(conflictKind(err)).Inc()
			log.Printf("[RedemptionService] Обмен участника #%d на приз #%d отклонен: %v", participantID, rewardID, err)
		}
		return nil, err
	}

	metrics.RedemptionsTotal.WithLabelValues("claimed").Inc()
	s.invalidateAfterCommit(participantID, roomID)
	if s.hub != nil {
		s.hub.BroadcastToRoom(roomID, "reward:claimed", map[string]interface{}{
			"reward_id":      rewardID,
			"participant_id": participantID,
			"redemption_id":  result.RedemptionID,
		})
	}

	log.Printf("[RedemptionService] Участник #%d обменял %d рупий на приз #%d (обмен #%d, %s)",
		participantID, result.RupiahSpent, rewardID, result.RedemptionID, result.Reference)
	return result, nil
}

// SetStatus выполняет переход статуса обмена. Легальны только
// pending -> fulfilled и pending -> cancelled; любой другой исходный
// статус дает ErrIllegalTransition. Отмена компенсирует ровно один раз:
// возврат rupiah_spent на баланс и +1 к остатку приза (для kind=reward).
func (s *RedemptionService) SetStatus(ctx context.Context, redemptionID uint, newStatus, notes string) (*entity.Redemption, error) {
	if newStatus != entity.RedemptionStatusFulfilled && newStatus != entity.RedemptionStatusCancelled {
		return nil, fmt.Errorf("%w: status must be %q or %q",
			apperrors.ErrValidation, entity.RedemptionStatusFulfilled, entity.RedemptionStatusCancelled)
	}

	var updated *entity.Redemption
	var roomID, participantID uint

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		// Лок строки обмена: переход и его компенсация применяются
		// ровно один раз даже при конкурирующих запросах администратора.
		redemption, err := s.redemptionRepo.GetForUpdate(tx, redemptionID)
		if err != nil {
			return err
		}
		if !redemption.CanTransitionTo(newStatus) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrIllegalTransition, redemption.Status, newStatus)
		}

		if err := s.redemptionRepo.UpdateStatus(tx, redemption.ID, newStatus, notes); err != nil {
			return fmt.Errorf("failed to update redemption status: %w", err)
		}

		if newStatus == entity.RedemptionStatusCancelled {
			// Компенсация: полный возврат списанного и восстановление остатка
			if err := s.participantRepo.AddRupiah(tx, redemption.ParticipantID, redemption.RupiahSpent); err != nil {
				return fmt.Errorf("failed to refund participant: %w", err)
			}
			if redemption.RewardID != nil {
				if err := s.rewardRepo.AdjustStock(tx, *redemption.RewardID, 1); err != nil {
					return fmt.Errorf("failed to restore reward stock: %w", err)
				}
			}
			if redemption.IsSystemClaim() {
				// Отмена системного списания возвращает участника в игру
				if err := s.participantRepo.SetStatus(tx, redemption.ParticipantID, entity.ParticipantStatusActive); err != nil {
					return fmt.Errorf("failed to reactivate participant: %w", err)
				}
			}
		}

		roomID = redemption.RoomID
		participantID = redemption.ParticipantID
		copied := *redemption
		copied.Status = newStatus
		if notes != "" {
			copied.Notes = notes
		}
		updated = &copied
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.ConflictsTotal.WithLabelValues(conflictKind(err)).Inc()
			log.Printf("[RedemptionService] Переход статуса обмена #%d -> %s отклонен: %v", redemptionID, newStatus, err)
		}
		return nil, err
	}

	metrics.RedemptionsTotal.WithLabelValues(newStatus).Inc()
	if newStatus == entity.RedemptionStatusCancelled {
		s.invalidateAfterCommit(participantID, roomID)
		if s.hub != nil {
			s.hub.BroadcastToRoom(roomID, "redemption:cancelled", map[string]interface{}{
				"redemption_id":  redemptionID,
				"participant_id": participantID,
			})
		}
	}

	log.Printf("[RedemptionService] Обмен #%d переведен в статус %s", redemptionID, newStatus)
	return updated, nil
}

// ClaimFullBalance создает системный обмен: административное списание
// всего баланса участника без конкретного приза (kind=system, rewardID
// nil, статус сразу fulfilled). Идемпотентно: не более одного
// неотмененного системного обмена на участника, повтор административного
// действия дает ErrAlreadyResolved.
func (s *RedemptionService) ClaimFullBalance(ctx context.Context, participantID uint) (*RedeemResult, error) {
	if participantID == 0 {
		return nil, fmt.Errorf("%w: participant_id is required", apperrors.ErrValidation)
	}

	var result *RedeemResult
	var roomID uint

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		participant, err := s.participantRepo.GetForUpdate(tx, participantID)
		if err != nil {
			return err
		}

		claimed, err := s.redemptionRepo.HasActiveSystemClaim(tx, participantID)
		if err != nil {
			return err
		}
		if claimed {
			return apperrors.ErrAlreadyResolved
		}

		spent := participant.TotalRupiah
		redemption := &entity.Redemption{
			Kind:          entity.RedemptionKindSystem,
			ParticipantID: participant.ID,
			RoomID:        participant.RoomID,
			RupiahSpent:   spent,
			Status:        entity.RedemptionStatusFulfilled,
			Reference:     uuid.NewString(),
		}
		// Частичный уникальный индекс системных обменов — последний рубеж
		// идемпотентности при гонке повторных административных запросов.
		if err := s.redemptionRepo.Create(tx, redemption); err != nil {
			return err
		}
		if err := s.participantRepo.AddRupiah(tx, participant.ID, -spent); err != nil {
			return fmt.Errorf("failed to debit participant: %w", err)
		}
		if err := s.participantRepo.SetStatus(tx, participant.ID, entity.ParticipantStatusClaimed); err != nil {
			return fmt.Errorf("failed to mark participant as claimed: %w", err)
		}

		roomID = participant.RoomID
		result = &RedeemResult{
			RedemptionID: redemption.ID,
			Reference:    redemption.Reference,
			RupiahSpent:  spent,
			NewBalance:   0,
		}
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.ConflictsTotal.WithLabelValues(conflictKind(err)).Inc()
			log.Printf("[RedemptionService] Системное списание участника #%d отклонено: %v", participantID, err)
		}
		return nil, err
	}

	metrics.RedemptionsTotal.WithLabelValues("system").Inc()
	s.invalidateAfterCommit(participantID, roomID)

	log.Printf("[RedemptionService] Системное списание: участник #%d, %d рупий (обмен #%d)",
		participantID, result.RupiahSpent, result.RedemptionID)
	return result, nil
}

// GetRedemption возвращает запись обмена по ID
func (s *RedemptionService) GetRedemption(id uint) (*entity.Redemption, error) {
	return s.redemptionRepo.GetByID(id)
}

// invalidateAfterCommit сбрасывает кеш баланса и лидерборда после коммита
func (s *RedemptionService) invalidateAfterCommit(participantID, roomID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(balanceCacheKey(participantID)); err != nil {
		log.Printf("[RedemptionService] WARNING: Не удалось сбросить кеш баланса участника #%d: %v", participantID, err)
	}
	if err := s.cacheRepo.Delete(leaderboardCacheKey(roomID)); err != nil {
		log.Printf("[RedemptionService] WARNING: Не удалось сбросить кеш лидерборда комнаты #%d: %v", roomID, err)
	}
}
