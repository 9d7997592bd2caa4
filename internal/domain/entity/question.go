package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if o == nil || len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Уровни сложности вопросов и призов
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

// NoSelectionOption — значение selected_option для просроченного ответа
// без выбора. Всегда трактуется как неправильный ответ.
const NoSelectionOption = -1

// Question представляет вопрос в комнате
type Question struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	RoomID        uint        `gorm:"not null;index" json:"room_id"`
	Text          string      `gorm:"size:500;not null" json:"text"`
	Options       StringArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectOption int         `gorm:"not null" json:"-"` // Скрыто от клиента
	Explanation   string      `gorm:"size:500;not null;default:''" json:"explanation"`
	Tier          string      `gorm:"size:10;not null;default:'bronze'" json:"tier"`
	RupiahValue   int         `gorm:"not null;default:0" json:"rupiah_value"`
	// IsDisabled становится true навсегда после первого правильного ответа
	// (или административного отключения) и никогда не сбрасывается.
	IsDisabled bool      `gorm:"not null;default:false" json:"is_disabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrectOption проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrectOption(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// IsValidOption проверяет, является ли выбранный вариант допустимым.
// NoSelectionOption (-1) допустим: это просроченный ответ без выбора.
func (q *Question) IsValidOption(selectedOption int) bool {
	if selectedOption == NoSelectionOption {
		return true
	}
	return selectedOption >= 0 && selectedOption < len(q.Options)
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// AwardFor возвращает количество рупий за ответ.
// Плоская стоимость вопроса за правильный ответ, 0 за неправильный;
// бонус за скорость отключен, timeToAnswerSec сохраняется только в леджере.
func (q *Question) AwardFor(isCorrect bool) int {
	if !isCorrect {
		return 0
	}
	return q.RupiahValue
}
