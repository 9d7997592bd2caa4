package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у актора недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrServiceUnavailable используется, когда транзакция не прошла после
	// всех повторных попыток (serialization failure / deadlock в хранилище).
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)

// Конфликтные ошибки игровой экономики. Это ожидаемые, терминальные исходы
// легитимной конкуренции или бизнес-правил, а не сбои системы: они никогда
// не ретраятся и возвращаются вызывающему как окончательный отказ.
var (
	// ErrAlreadyResolved означает, что вопрос уже закрыт: кто-то ответил
	// правильно раньше, либо вопрос отключен администратором.
	ErrAlreadyResolved = errors.New("question already resolved")

	// ErrDuplicateAttempt означает повторную попытку ответа того же участника
	// на тот же вопрос.
	ErrDuplicateAttempt = errors.New("participant already answered this question")

	// ErrInsufficientBalance означает нехватку рупий для обмена на приз.
	ErrInsufficientBalance = errors.New("insufficient rupiah balance")

	// ErrOutOfStock означает, что остаток приза исчерпан.
	ErrOutOfStock = errors.New("reward is out of stock")

	// ErrRoomMismatch означает, что участник и приз/вопрос из разных комнат.
	ErrRoomMismatch = errors.New("participant and target belong to different rooms")

	// ErrIllegalTransition означает недопустимый переход статуса обмена.
	// Легальны только pending -> fulfilled и pending -> cancelled.
	ErrIllegalTransition = errors.New("illegal redemption status transition")
)

// IsConflict сообщает, относится ли ошибка к семейству конфликтных исходов.
// Используется хендлерами для маппинга в HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyResolved) ||
		errors.Is(err, ErrDuplicateAttempt) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrRoomMismatch) ||
		errors.Is(err, ErrIllegalTransition)
}
