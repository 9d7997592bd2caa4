package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/thr-api/internal/metrics"
	apperrors "github.com/yourusername/thr-api/internal/pkg/errors"
)

// Параметры ретраев транзакций
const (
	txMaxAttempts     = 3
	txInitialBackoff  = 20 * time.Millisecond
	txBackoffMultiple = 2
)

// TxManager реализует repository.TxManager поверх gorm.DB.Transaction.
// Serialization failure / deadlock ретраится до txMaxAttempts раз с
// экспоненциальным бэкоффом; после исчерпания попыток возвращается
// apperrors.ErrServiceUnavailable. Любая другая ошибка fn (в том числе
// конфликтные исходы) возвращается как есть после отката.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager создает новый менеджер транзакций
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction выполняет fn внутри транзакции БД
func (m *TxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := txInitialBackoff
	var lastErr error

	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err := m.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}

		if !isRetriable(err) {
			return err
		}

		lastErr = err
		log.Printf("[TxManager] Транзакция отклонена хранилищем (попытка %d/%d): %v", attempt, txMaxAttempts, err)

		if attempt == txMaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= txBackoffMultiple
	}

	metrics.TxRetriesExhausted.Inc()
	return fmt.Errorf("%w: %v", apperrors.ErrServiceUnavailable, lastErr)
}
