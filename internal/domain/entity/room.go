package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Room представляет игровую комнату, в рамках которой участники
// отвечают на вопросы и обменивают рупии на призы
type Room struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Code     string `gorm:"size:100;not null" json:"-"` // хеш кода доступа, выдается внешним слоем
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Room) TableName() string {
	return "rooms"
}

// BeforeSave хеширует код доступа перед сохранением, только если он не является bcrypt-хешем
func (r *Room) BeforeSave(tx *gorm.DB) error {
	if len(r.Code) > 0 && !strings.HasPrefix(r.Code, "$2a$") &&
		!strings.HasPrefix(r.Code, "$2b$") && !strings.HasPrefix(r.Code, "$2y$") {
		hashedCode, err := bcrypt.GenerateFromPassword([]byte(r.Code), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[Room.BeforeSave] Ошибка при хешировании кода комнаты #%d: %v", r.ID, err)
			return err
		}
		r.Code = string(hashedCode)
	}
	return nil
}

// CheckCode проверяет, соответствует ли переданный код доступа хешу
func (r *Room) CheckCode(code string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(r.Code), []byte(code))
	return err == nil
}
