package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/thr-api/internal/domain/entity"
	"github.com/yourusername/thr-api/internal/domain/repository"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// Частичный уникальный индекс: не более одного неотмененного системного
// обмена на участника (см. миграции).
const constraintSingleSystemClaim = "idx_redemptions_system_claim"

// RedemptionRepo реализует repository.RedemptionRepository
type RedemptionRepo struct {
	db *gorm.DB
}

// NewRedemptionRepo создает новый репозиторий леджера обменов
func NewRedemptionRepo(db *gorm.DB) *RedemptionRepo {
	return &RedemptionRepo{db: db}
}

// Create вставляет запись обмена. Нарушение уникальности системного
// обмена маппится в конфликтный исход (повтор административного списания).
func (r *RedemptionRepo) Create(tx *gorm.DB, redemption *entity.Redemption) error {
	err := tx.Create(redemption).Error
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueViolationConstraint(err); ok && constraint == constraintSingleSystemClaim {
		return apperrors.ErrAlreadyResolved
	}
	return fmt.Errorf("failed to save redemption: %w", err)
}

// GetByID возвращает запись обмена по ID
func (r *RedemptionRepo) GetByID(id uint) (*entity.Redemption, error) {
	var redemption entity.Redemption
	err := r.db.First(&redemption, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &redemption, nil
}

// GetByParticipant возвращает все обмены участника
func (r *RedemptionRepo) GetByParticipant(participantID uint) ([]entity.Redemption, error) {
	var redemptions []entity.Redemption
	err := r.db.Where("participant_id = ?", participantID).
		Order("created_at").
		Find(&redemptions).Error
	return redemptions, err
}

// GetForUpdate возвращает обмен с блокировкой строки FOR UPDATE.
// Должен вызываться только внутри транзакции.
func (r *RedemptionRepo) GetForUpdate(tx *gorm.DB, id uint) (*entity.Redemption, error) {
	var redemption entity.Redemption
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&redemption, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &redemption, nil
}

// UpdateStatus обновляет статус и заметки обмена
func (r *RedemptionRepo) UpdateStatus(tx *gorm.DB, id uint, status, notes string) error {
	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates["notes"] = notes
	}
	return tx.Model(&entity.Redemption{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// HasActiveSystemClaim проверяет наличие неотмененного системного обмена
func (r *RedemptionRepo) HasActiveSystemClaim(tx *gorm.DB, participantID uint) (bool, error) {
	var count int64
	err := tx.Model(&entity.Redemption{}).
		Where("participant_id = ? AND kind = ? AND status <> ?",
			participantID, entity.RedemptionKindSystem, entity.RedemptionStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

// SpendTotals возвращает суммы списанных рупий по участникам
// (неотмененные обмены)
func (r *RedemptionRepo) SpendTotals() ([]repository.ParticipantSpendTotal, error) {
	var totals []repository.ParticipantSpendTotal
	err := r.db.Model(&entity.Redemption{}).
		Select("participant_id, COALESCE(SUM(rupiah_spent), 0) as total_spent").
		Where("status <> ?", entity.RedemptionStatusCancelled).
		Group("participant_id").
		Scan(&totals).Error
	return totals, err
}

// SumSpent возвращает сумму списаний одного участника (неотмененные обмены)
func (r *RedemptionRepo) SumSpent(tx *gorm.DB, participantID uint) (int64, error) {
	var total int64
	err := tx.Model(&entity.Redemption{}).
		Select("COALESCE(SUM(rupiah_spent), 0)").
		Where("participant_id = ? AND status <> ?", participantID, entity.RedemptionStatusCancelled).
		Scan(&total).Error
	return total, err
}

// ClaimCounts возвращает количество неотмененных обменов по призам
func (r *RedemptionRepo) ClaimCounts() ([]repository.RewardClaimCount, error) {
	var counts []repository.RewardClaimCount
	err := r.db.Model(&entity.Redemption{}).
		Select("reward_id, COUNT(*) as claimed").
		Where("reward_id IS NOT NULL AND status <> ?", entity.RedemptionStatusCancelled).
		Group("reward_id").
		Scan(&counts).Error
	return counts, err
}

// CountClaims возвращает количество неотмененных обменов одного приза
func (r *RedemptionRepo) CountClaims(tx *gorm.DB, rewardID uint) (int64, error) {
	var count int64
	err := tx.Model(&entity.Redemption{}).
		Where("reward_id = ? AND status <> ?", rewardID, entity.RedemptionStatusCancelled).
		Count(&count).Error
	return count, err
}
