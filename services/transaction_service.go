package services

import (
	"errors"
	"fmt"

	"bankledger/database"
	"bankledger/models"
	"bankledger/utils"

	"gorm.io/gorm"
)

// defaultPageSize — размер страницы журнала операций
const defaultPageSize = 20

// TransactionPage представляет страницу журнала операций
type TransactionPage struct {
	Transactions  []TransactionDTO `json:"transactions"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

// TransactionService предоставляет доступ на чтение к журналу операций.
// Записи журнала создает только LedgerService.
type TransactionService struct {
	db       *gorm.DB
	accounts *AccountService
	tokenKey string
	pageSize int
}

// NewTransactionService создает новый экземпляр TransactionService
func NewTransactionService(db *gorm.DB, accounts *AccountService, tokenKey string) *TransactionService {
	return &TransactionService{
		db:       db,
		accounts: accounts,
		tokenKey: tokenKey,
		pageSize: defaultPageSize,
	}
}

// ListByAccount возвращает страницу операций по счету от новых к старым.
// Счет должен принадлежать вызывающему.
func (s *TransactionService) ListByAccount(accountID, ownerID uint, pageToken string) (*TransactionPage, error) {
	if _, err := s.accounts.GetOwnedById(accountID, ownerID); err != nil {
		return nil, err
	}

	cursor, err := s.decodeCursor(pageToken)
	if err != nil {
		return nil, err
	}

	txns, hasMore, err := database.ListTransactionsByAccount(s.db, accountID, cursor, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала операций: %w", err)
	}
	return s.buildPage(txns, hasMore), nil
}

// ListByOwner возвращает страницу операций по всем счетам пользователя
func (s *TransactionService) ListByOwner(ownerID uint, pageToken string) (*TransactionPage, error) {
	cursor, err := s.decodeCursor(pageToken)
	if err != nil {
		return nil, err
	}

	txns, hasMore, err := database.ListTransactionsByOwner(s.db, ownerID, cursor, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала операций: %w", err)
	}
	return s.buildPage(txns, hasMore), nil
}

// ListAll возвращает страницу всех операций (для административных выборок)
func (s *TransactionService) ListAll(pageToken string) (*TransactionPage, error) {
	cursor, err := s.decodeCursor(pageToken)
	if err != nil {
		return nil, err
	}

	txns, hasMore, err := database.ListAllTransactions(s.db, cursor, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала операций: %w", err)
	}
	return s.buildPage(txns, hasMore), nil
}

// GetByID возвращает одну запись журнала. Не-администратор видит только
// операции, затрагивающие его счета; чужая запись неотличима от
// несуществующей.
func (s *TransactionService) GetByID(id string, callerID uint, isAdmin bool) (*TransactionDTO, error) {
	txn, err := database.GetTransaction(s.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске транзакции: %w", err)
	}

	if !isAdmin {
		touches, err := s.touchesOwner(txn, callerID)
		if err != nil {
			return nil, err
		}
		if !touches {
			return nil, ErrNotFound
		}
	}

	dto := NewTransactionDTO(txn)
	return &dto, nil
}

// touchesOwner проверяет, затрагивает ли запись журнала счета пользователя
func (s *TransactionService) touchesOwner(txn *models.Transaction, ownerID uint) (bool, error) {
	for _, ref := range []*uint{txn.FromAccountID, txn.ToAccountID} {
		if ref == nil {
			continue
		}
		account, err := database.GetAccount(s.db, *ref)
		if err != nil {
			return false, fmt.Errorf("ошибка при поиске банковского счета: %w", err)
		}
		if account.HolderID == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *TransactionService) decodeCursor(pageToken string) (database.Cursor, error) {
	if pageToken == "" {
		return database.Cursor{}, nil
	}
	createdAt, id, err := utils.DecodePageToken(pageToken, s.tokenKey)
	if err != nil {
		return database.Cursor{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return database.Cursor{CreatedAt: createdAt, ID: id}, nil
}

func (s *TransactionService) buildPage(txns []models.Transaction, hasMore bool) *TransactionPage {
	page := &TransactionPage{Transactions: make([]TransactionDTO, 0, len(txns))}
	for i := range txns {
		page.Transactions = append(page.Transactions, NewTransactionDTO(&txns[i]))
	}

	if hasMore && len(txns) > 0 {
		last := txns[len(txns)-1]
		page.NextPageToken = utils.EncodePageToken(last.CreatedAt, last.ID, s.tokenKey)
	}
	return page
}
