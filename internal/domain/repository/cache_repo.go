package repository

import "time"

// CacheRepository определяет методы для работы с кешем (Redis).
// Используется для кеширования балансов и лидерборда комнаты;
// сервисы инвалидируют ключи после коммита мутаций.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) (bool, error)
	Increment(key string) (int64, error)
}
