package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/thr-api/internal/domain/entity"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// RewardRepo реализует repository.RewardRepository
type RewardRepo struct {
	db *gorm.DB
}

// NewRewardRepo создает новый репозиторий призов
func NewRewardRepo(db *gorm.DB) *RewardRepo {
	return &RewardRepo{db: db}
}

// Create создает новый приз
func (r *RewardRepo) Create(reward *entity.Reward) error {
	return r.db.Create(reward).Error
}

// GetByID возвращает приз по ID
func (r *RewardRepo) GetByID(id uint) (*entity.Reward, error) {
	var reward entity.Reward
	err := r.db.First(&reward, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &reward, nil
}

// ListAll возвращает все призы (для сверки)
func (r *RewardRepo) ListAll() ([]entity.Reward, error) {
	var rewards []entity.Reward
	err := r.db.Order("id").Find(&rewards).Error
	return rewards, err
}

// GetForUpdate возвращает приз с блокировкой строки FOR UPDATE.
// Должен вызываться только внутри транзакции.
func (r *RewardRepo) GetForUpdate(tx *gorm.DB, id uint) (*entity.Reward, error) {
	var reward entity.Reward
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reward, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &reward, nil
}

// AdjustStock атомарно меняет остаток приза на delta
func (r *RewardRepo) AdjustStock(tx *gorm.DB, id uint, delta int) error {
	return tx.Model(&entity.Reward{}).
		Where("id = ?", id).
		UpdateColumn("remaining_quantity", gorm.Expr("remaining_quantity + ?", delta)).Error
}

// SetRemaining перезаписывает остаток абсолютным значением (только сверка)
func (r *RewardRepo) SetRemaining(tx *gorm.DB, id uint, value int) error {
	return tx.Model(&entity.Reward{}).
		Where("id = ?", id).
		UpdateColumn("remaining_quantity", value).Error
}
