package models

import (
	"time"
)

// IdempotencyKey хранит результат уже выполненной операции для повторных
// запросов клиента. Повтор с тем же ключом и теми же параметрами возвращает
// сохраненный ответ; повтор с другими параметрами отклоняется.
type IdempotencyKey struct {
	Key         string    `gorm:"primaryKey;size:100"`
	Operation   string    `gorm:"column:operation;not null;size:20"`
	Fingerprint string    `gorm:"column:fingerprint;not null;size:64"`
	Response    []byte    `gorm:"column:response;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
