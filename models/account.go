package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType представляет тип банковского счета
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// Account представляет банковский счет. Баланс хранится как точный decimal
// и изменяется только внутри транзакций LedgerService; ограничение
// balance >= 0 продублировано CHECK-ограничением в миграции.
type Account struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	Number    string          `gorm:"column:number;unique;not null"`
	Name      string          `gorm:"column:name;not null;size:100"`
	Type      AccountType     `gorm:"column:type;type:varchar(20);not null"`
	Currency  string          `gorm:"column:currency;size:3;not null;default:'INR'"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(20,2);not null;default:0.0"`
	HolderID  uint            `gorm:"column:holder_id;not null;index"`
	Holder    User            `gorm:"foreignKey:HolderID;references:ID"`
	CreatedAt time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string {
	return "accounts"
}
