package repository

import "github.com/yourusername/thr-api/internal/domain/entity"

// RoomRepository определяет методы для работы с комнатами
type RoomRepository interface {
	Create(room *entity.Room) error
	GetByID(id uint) (*entity.Room, error)
}
