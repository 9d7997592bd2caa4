package entity

import (
	"time"
)

// Answer представляет неизменяемую запись попытки ответа в леджере.
// Создается один раз сервисом отправки ответов и никогда не мутируется.
// Инварианты обеспечены на уровне БД: уникальность (participant_id,
// question_id) и не более одного is_correct=true на вопрос (частичный
// уникальный индекс).
type Answer struct {
	ID              uint  `gorm:"primaryKey" json:"id"`
	QuestionID      uint  `gorm:"not null;index" json:"question_id"`
	ParticipantID   uint  `gorm:"not null;index" json:"participant_id"`
	RoomID          uint  `gorm:"not null;index" json:"room_id"`
	SelectedOption  int   `gorm:"not null;default:-1" json:"selected_option"`
	IsCorrect       bool  `gorm:"not null" json:"is_correct"`
	RupiahAwarded   int64 `gorm:"not null;default:0" json:"rupiah_awarded"`
	TimeToAnswerSec int   `gorm:"not null;default:0" json:"time_to_answer_sec"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
