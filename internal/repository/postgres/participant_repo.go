package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/thr-api/internal/domain/entity"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create создает нового участника
func (r *ParticipantRepo) Create(participant *entity.Participant) error {
	return r.db.Create(participant).Error
}

// GetByID возвращает участника по ID
func (r *ParticipantRepo) GetByID(id uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.First(&participant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// ListAll возвращает всех участников (для сверки)
func (r *ParticipantRepo) ListAll() ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.Order("id").Find(&participants).Error
	return participants, err
}

// GetForUpdate возвращает участника с блокировкой строки FOR UPDATE.
// Должен вызываться только внутри транзакции.
func (r *ParticipantRepo) GetForUpdate(tx *gorm.DB, id uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&participant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// AddRupiah атомарно меняет баланс участника на delta
func (r *ParticipantRepo) AddRupiah(tx *gorm.DB, id uint, delta int64) error {
	return tx.Model(&entity.Participant{}).
		Where("id = ?", id).
		UpdateColumn("total_rupiah", gorm.Expr("total_rupiah + ?", delta)).Error
}

// SetRupiah перезаписывает баланс абсолютным значением (только сверка)
func (r *ParticipantRepo) SetRupiah(tx *gorm.DB, id uint, value int64) error {
	return tx.Model(&entity.Participant{}).
		Where("id = ?", id).
		UpdateColumn("total_rupiah", value).Error
}

// SetStatus обновляет статус участника
func (r *ParticipantRepo) SetStatus(tx *gorm.DB, id uint, status string) error {
	return tx.Model(&entity.Participant{}).
		Where("id = ?", id).
		Update("status", status).Error
}
