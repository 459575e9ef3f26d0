package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"bankledger/database"
	"bankledger/models"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Код ошибки Postgres "unique_violation"
const pgUniqueViolation = "23505"

// Число попыток подобрать свободный номер счета
const maxNumberAttempts = 3

// AccountDTO представляет счет в ответах API
type AccountDTO struct {
	ID        uint            `json:"_id"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// NewAccountDTO конвертирует модель счета в DTO
func NewAccountDTO(a *models.Account) AccountDTO {
	return AccountDTO{
		ID:        a.ID,
		Number:    a.Number,
		Name:      a.Name,
		Type:      string(a.Type),
		Currency:  a.Currency,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateAccountRequest представляет данные для создания банковского счета
type CreateAccountRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Type     string `json:"type" validate:"required,oneof=checking savings"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// AccountService предоставляет методы для работы с банковскими счетами.
// Балансы счетов здесь не изменяются — это зона ответственности LedgerService.
type AccountService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewAccountService создает новый экземпляр AccountService
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		db:        db,
		validator: validator.New(),
	}
}

// GetById возвращает банковский счет по ID
func (s *AccountService) GetById(id uint) (*models.Account, error) {
	account, err := database.GetAccount(s.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске банковского счета: %w", err)
	}
	return account, nil
}

// GetOwnedById возвращает счет, если он принадлежит пользователю.
// Чужой счет неотличим от несуществующего.
func (s *AccountService) GetOwnedById(id, ownerID uint) (*models.Account, error) {
	account, err := s.GetById(id)
	if err != nil {
		return nil, err
	}
	if account.HolderID != ownerID {
		return nil, ErrNotFound
	}
	return account, nil
}

// CreateAccount создает новый банковский счет с нулевым балансом
func (s *AccountService) CreateAccount(ownerID uint, req CreateAccountRequest) (*AccountDTO, error) {
	// Валидируем запрос
	if err := s.validator.Struct(req); err != nil {
		return nil, translateValidationErrors(err)
	}

	// Валюта фиксируется при создании и больше не меняется
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "INR"
	}

	// Сгенерированный номер может совпасть с существующим; при нарушении
	// уникальности генерируем новый номер и повторяем вставку
	var account *models.Account
	for attempt := 0; ; attempt++ {
		account = &models.Account{
			Number:    generateAccountNumber(),
			Name:      req.Name,
			Type:      models.AccountType(req.Type),
			Currency:  currency,
			Balance:   decimal.Zero,
			HolderID:  ownerID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		err := database.CreateAccount(s.db, account)
		if err == nil {
			break
		}
		if isUniqueViolation(err) && attempt < maxNumberAttempts-1 {
			continue
		}
		return nil, fmt.Errorf("не удалось создать банковский счет: %w", err)
	}

	dto := NewAccountDTO(account)
	return &dto, nil
}

// isUniqueViolation сообщает, что вставка нарушила уникальное ограничение
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// GetAccountsByUserID возвращает список счетов пользователя в порядке создания
func (s *AccountService) GetAccountsByUserID(userID uint) ([]AccountDTO, error) {
	accounts, err := database.ListAccountsByOwner(s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка счетов: %w", err)
	}

	dtos := make([]AccountDTO, 0, len(accounts))
	for i := range accounts {
		dtos = append(dtos, NewAccountDTO(&accounts[i]))
	}
	return dtos, nil
}

// generateAccountNumber генерирует номер банковского счета
var generateAccountNumber = func() string {
	var number strings.Builder
	for i := 0; i < 20; i++ {
		number.WriteString(strconv.Itoa(rand.Intn(10)))
	}
	return number.String()
}
