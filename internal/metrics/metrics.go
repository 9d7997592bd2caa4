package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики игровой экономики. Конфликтные исходы считаются отдельно от
// сбоев: это нормальная работа системы под конкуренцией, а не ошибки.
var (
	// AnswersSubmitted — принятые в леджер ответы, по исходу (correct/incorrect)
	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thr_answers_submitted_total",
		Help: "Committed answer attempts by outcome.",
	}, []string{"outcome"})

	// ConflictsTotal — отклоненные конфликтами операции, по виду конфликта
	ConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thr_conflicts_total",
		Help: "Requests rejected by a terminal business conflict.",
	}, []string{"kind"})

	// RedemptionsTotal — события жизненного цикла обменов
	RedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thr_redemptions_total",
		Help: "Redemption lifecycle events (claimed, fulfilled, cancelled, system).",
	}, []string{"event"})

	// DriftDetected — найденные сверкой расхождения, по типу цели
	DriftDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thr_reconciliation_drift_detected_total",
		Help: "Drift findings reported by reconciliation scans.",
	}, []string{"target"})

	// DriftRepaired — примененные сверкой исправления, по типу цели
	DriftRepaired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thr_reconciliation_repairs_total",
		Help: "Corrections applied by reconciliation repairs.",
	}, []string{"target"})

	// TxRetriesExhausted — транзакции, не прошедшие после всех ретраев
	TxRetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thr_tx_retries_exhausted_total",
		Help: "Transactions aborted after exhausting serialization retries.",
	})
)
