package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики операций журнала
	Deposits            int64
	Withdrawals         int64
	Transfers           int64
	RejectedOperations  int64
	IdempotentReplays   int64
	LastLedgerOperation time.Time

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest записывает метрики HTTP-запроса
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordLedgerOperation записывает метрики операции журнала
func (m *Metrics) RecordLedgerOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastLedgerOperation = time.Now()

	if err != nil {
		m.RejectedOperations++
		m.recordErrorLocked(err)
		return
	}

	switch operation {
	case "deposit":
		m.Deposits++
	case "withdraw":
		m.Withdrawals++
	case "transfer":
		m.Transfers++
	}
}

// RecordIdempotentReplay записывает повтор операции по ключу идемпотентности
func (m *Metrics) RecordIdempotentReplay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IdempotentReplays++
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"average_latency":     m.AverageLatency,
		"deposits":            m.Deposits,
		"withdrawals":         m.Withdrawals,
		"transfers":           m.Transfers,
		"rejected_operations": m.RejectedOperations,
		"idempotent_replays":  m.IdempotentReplays,
		"error_count":         m.ErrorCount,
		"last_error_time":     m.LastErrorTime,
		"error_types":         errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.Deposits = 0
	m.Withdrawals = 0
	m.Transfers = 0
	m.RejectedOperations = 0
	m.IdempotentReplays = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
