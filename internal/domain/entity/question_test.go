package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_IsCorrectOption(t *testing.T) {
	// Arrange
	question := &Question{
		ID:            1,
		RoomID:        1,
		Text:          "Какой месяц следует за Рамаданом?",
		Options:       StringArray{"Раджаб", "Шаввал", "Шабан", "Мухаррам"},
		CorrectOption: 1,
		Tier:          TierBronze,
		RupiahValue:   10000,
	}

	// Act & Assert
	assert.True(t, question.IsCorrectOption(1), "Правильный индекс должен совпадать")
	assert.False(t, question.IsCorrectOption(0))
	assert.False(t, question.IsCorrectOption(2))
	assert.False(t, question.IsCorrectOption(3))
}

func TestQuestion_IsValidOption(t *testing.T) {
	// Arrange
	question := &Question{
		Options: StringArray{"A", "B", "C", "D"},
	}

	// Act & Assert: валидные опции
	assert.True(t, question.IsValidOption(0), "Индекс 0 должен быть валидным")
	assert.True(t, question.IsValidOption(3), "Последний индекс должен быть валидным")
	assert.True(t, question.IsValidOption(NoSelectionOption), "-1 валиден: просроченный ответ без выбора")

	// Assert: невалидные опции
	assert.False(t, question.IsValidOption(4), "Индекс вне диапазона должен быть невалидным")
	assert.False(t, question.IsValidOption(-2), "Индекс меньше -1 должен быть невалидным")
	assert.False(t, question.IsValidOption(100))
}

func TestQuestion_AwardFor(t *testing.T) {
	// Arrange
	question := &Question{
		Tier:        TierGold,
		RupiahValue: 100000,
	}

	// Act & Assert: плоская стоимость без бонуса за скорость
	assert.Equal(t, 100000, question.AwardFor(true), "Правильный ответ дает полную стоимость вопроса")
	assert.Equal(t, 0, question.AwardFor(false), "Неправильный ответ не дает ничего")
}

func TestStringArray_ScanAndValue(t *testing.T) {
	// Arrange
	var options StringArray

	// Act: чтение JSONB из базы
	err := options.Scan([]byte(`["A","B","C"]`))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StringArray{"A", "B", "C"}, options)

	// Act: NULL из базы дает пустой массив
	err = options.Scan(nil)
	require.NoError(t, err)
	assert.Empty(t, options)

	// Act: запись пустого массива — "[]", не null
	value, err := StringArray{}.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}
