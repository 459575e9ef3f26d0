package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind представляет вид операции журнала
type TransactionKind string

const (
	TransactionKindDeposit  TransactionKind = "deposit"
	TransactionKindWithdraw TransactionKind = "withdraw"
	TransactionKindTransfer TransactionKind = "transfer"
)

// Transaction представляет запись журнала операций. Журнал append-only:
// записи никогда не изменяются и не удаляются, исправления оформляются
// новыми встречными операциями.
//
// Ссылки на счета зависят от вида операции:
//   - deposit:  только ToAccountID
//   - withdraw: только FromAccountID
//   - transfer: оба — один перевод порождает ровно одну запись
type Transaction struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	Kind          TransactionKind `gorm:"column:kind;type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	FromAccountID *uint           `gorm:"column:from_account_id;index"`
	ToAccountID   *uint           `gorm:"column:to_account_id;index"`
	Description   string          `gorm:"column:description;size:255"`
	CreatedAt     time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP;index"`
}

func (Transaction) TableName() string {
	return "transactions"
}
