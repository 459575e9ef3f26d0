package database

import (
	"bankledger/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Хранилище счетов. Функции принимают *gorm.DB, чтобы вызываться как на
// обычном подключении, так и внутри открытой транзакции.

// CreateAccount сохраняет новый счет
func CreateAccount(db *gorm.DB, account *models.Account) error {
	return db.Create(account).Error
}

// GetAccount возвращает счет по ID
func GetAccount(db *gorm.DB, id uint) (*models.Account, error) {
	var account models.Account
	if err := db.First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountForUpdate возвращает счет, удерживая блокировку строки
// (SELECT ... FOR UPDATE) до конца текущей транзакции. Все изменения
// баланса выполняются только под этой блокировкой.
func GetAccountForUpdate(tx *gorm.DB, id uint) (*models.Account, error) {
	var account models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccountsByOwner возвращает счета пользователя в порядке создания
func ListAccountsByOwner(db *gorm.DB, ownerID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := db.Where("holder_id = ?", ownerID).
		Order("id ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return []models.Account{}, nil
	}
	return accounts, nil
}

// ListAllAccounts возвращает все счета (для административных выборок)
func ListAllAccounts(db *gorm.DB) ([]models.Account, error) {
	var accounts []models.Account
	if err := db.Preload("Holder").Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
