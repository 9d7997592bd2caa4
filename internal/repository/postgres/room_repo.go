package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/thr-api/internal/domain/entity"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// RoomRepo реализует repository.RoomRepository
type RoomRepo struct {
	db *gorm.DB
}

// NewRoomRepo создает новый репозиторий комнат
func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create создает новую комнату
func (r *RoomRepo) Create(room *entity.Room) error {
	return r.db.Create(room).Error
}

// GetByID возвращает комнату по ID
func (r *RoomRepo) GetByID(id uint) (*entity.Room, error) {
	var room entity.Room
	err := r.db.First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}
