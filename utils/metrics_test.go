package utils

import (
	"errors"
	"testing"
	"time"
)

func TestRecordLedgerOperation(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordLedgerOperation("deposit", nil)
	m.RecordLedgerOperation("deposit", nil)
	m.RecordLedgerOperation("withdraw", nil)
	m.RecordLedgerOperation("transfer", nil)
	m.RecordLedgerOperation("withdraw", errors.New("недостаточно средств на счете"))

	if m.Deposits != 2 {
		t.Errorf("deposits: got %d want 2", m.Deposits)
	}
	if m.Withdrawals != 1 {
		t.Errorf("withdrawals: got %d want 1", m.Withdrawals)
	}
	if m.Transfers != 1 {
		t.Errorf("transfers: got %d want 1", m.Transfers)
	}

	// Отклоненная операция не попадает в счетчик успешных
	if m.RejectedOperations != 1 {
		t.Errorf("rejected operations: got %d want 1", m.RejectedOperations)
	}
	if m.ErrorCount != 1 {
		t.Errorf("error count: got %d want 1", m.ErrorCount)
	}
}

func TestRecordIdempotentReplay(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordIdempotentReplay()
	m.RecordIdempotentReplay()

	if m.IdempotentReplays != 2 {
		t.Errorf("idempotent replays: got %d want 2", m.IdempotentReplays)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordRequest(100*time.Millisecond, false)
	m.RecordRequest(200*time.Millisecond, true)
	m.RecordLedgerOperation("deposit", nil)

	snapshot := m.GetMetricsSnapshot()

	if got := snapshot["total_requests"].(int64); got != 2 {
		t.Errorf("total_requests: got %d want 2", got)
	}
	if got := snapshot["failed_requests"].(int64); got != 1 {
		t.Errorf("failed_requests: got %d want 1", got)
	}
	if got := snapshot["deposits"].(int64); got != 1 {
		t.Errorf("deposits: got %d want 1", got)
	}

	// Снимок содержит копию карты ошибок, а не саму карту
	errorTypes := snapshot["error_types"].(map[string]int64)
	errorTypes["mutated"] = 99
	if _, ok := m.ErrorTypes["mutated"]; ok {
		t.Error("mutating snapshot leaked into live metrics")
	}
}

func TestResetMetrics(t *testing.T) {
	m := GetMetrics()
	m.RecordLedgerOperation("deposit", nil)
	m.RecordError(errors.New("test error"))

	m.ResetMetrics()

	if m.Deposits != 0 || m.ErrorCount != 0 || len(m.ErrorTypes) != 0 {
		t.Error("metrics not fully reset")
	}
}
