package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxManager — абстракция единицы работы. Гарантирует атомарный
// коммит/откат вокруг всех чтений и записей внутри fn: либо все эффекты
// fn видны после возврата, либо ни один. Каждая мутирующая операция
// сервисов выражается одним вызовом WithTransaction.
//
// Реализация для PostgreSQL дополнительно ретраит fn ограниченное число
// раз с экспоненциальным бэкоффом при serialization failure / deadlock;
// бизнес-ошибки (конфликты, валидация) не ретраятся никогда.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
