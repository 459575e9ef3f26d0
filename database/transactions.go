package database

import (
	"errors"
	"time"

	"bankledger/models"

	"gorm.io/gorm"
)

// Журнал операций. Таблица transactions append-only: здесь нет ни Update,
// ни Delete — только вставка и чтение.

// Cursor задает позицию страницы при обратно-хронологической выборке.
// Нулевое значение означает чтение с самой свежей записи.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// AppendTransaction добавляет запись журнала в рамках текущей транзакции.
// Проверки ниже страхуют инвариант журнала (сумма > 0, ссылки по виду
// операции) и продублированы CHECK-ограничениями в миграции. Единственный
// производитель записей — LedgerService, который валидирует параметры до
// вызова, поэтому срабатывание проверки означает ошибку в коде, а не в
// клиентском запросе — на доменные ошибки она не отображается.
func AppendTransaction(tx *gorm.DB, txn *models.Transaction) error {
	if !txn.Amount.IsPositive() {
		return errors.New("сумма операции должна быть больше 0")
	}
	switch txn.Kind {
	case models.TransactionKindDeposit:
		if txn.ToAccountID == nil || txn.FromAccountID != nil {
			return errors.New("пополнение ссылается только на счет зачисления")
		}
	case models.TransactionKindWithdraw:
		if txn.FromAccountID == nil || txn.ToAccountID != nil {
			return errors.New("снятие ссылается только на счет списания")
		}
	case models.TransactionKindTransfer:
		if txn.FromAccountID == nil || txn.ToAccountID == nil {
			return errors.New("перевод ссылается на оба счета")
		}
	default:
		return errors.New("неизвестный вид операции")
	}
	return tx.Create(txn).Error
}

// GetTransaction возвращает запись журнала по ID
func GetTransaction(db *gorm.DB, id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := db.First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListTransactionsByAccount возвращает страницу записей, затрагивающих счет
// (как источник или получатель), от новых к старым. Выборка ограничена
// limit записями; возвращенный флаг сообщает о наличии следующей страницы.
func ListTransactionsByAccount(db *gorm.DB, accountID uint, cursor Cursor, limit int) ([]models.Transaction, bool, error) {
	q := db.Where("from_account_id = ? OR to_account_id = ?", accountID, accountID)
	return listPage(q, cursor, limit)
}

// ListTransactionsByOwner возвращает страницу записей по всем счетам владельца
func ListTransactionsByOwner(db *gorm.DB, ownerID uint, cursor Cursor, limit int) ([]models.Transaction, bool, error) {
	sub := db.Model(&models.Account{}).Select("id").Where("holder_id = ?", ownerID)
	q := db.Where("from_account_id IN (?) OR to_account_id IN (?)", sub, sub)
	return listPage(q, cursor, limit)
}

// ListAllTransactions возвращает страницу всех записей журнала
func ListAllTransactions(db *gorm.DB, cursor Cursor, limit int) ([]models.Transaction, bool, error) {
	return listPage(db, cursor, limit)
}

// listPage выполняет курсорную выборку страницы журнала.
// Порядок (created_at, id) DESC детерминирован, поэтому курсор по той же
// паре колонок перезапускаем без пропусков и дублей.
func listPage(q *gorm.DB, cursor Cursor, limit int) ([]models.Transaction, bool, error) {
	if !cursor.CreatedAt.IsZero() {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var txns []models.Transaction
	if err := q.Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&txns).Error; err != nil {
		return nil, false, err
	}

	// Лишняя запись сверх limit означает, что есть следующая страница
	hasMore := false
	if len(txns) > limit {
		hasMore = true
		txns = txns[:limit]
	}
	return txns, hasMore, nil
}
