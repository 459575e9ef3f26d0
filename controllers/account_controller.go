package controllers

import (
	"encoding/json"
	"net/http"

	"bankledger/database"
	"bankledger/middleware"
	"bankledger/services"
)

// AccountController обрабатывает запросы, связанные со счетами и денежными операциями
type AccountController struct {
	accounts *services.AccountService
	ledger   *services.LedgerService
}

// NewAccountController создает новый экземпляр AccountController
func NewAccountController(db *database.Database, ledger *services.LedgerService) *AccountController {
	return &AccountController{
		accounts: services.NewAccountService(db.DB),
		ledger:   ledger,
	}
}

// CreateAccount обрабатывает запрос на создание банковского счета
func (c *AccountController) CreateAccount(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен middleware)
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Создаем банковский счет
	account, err := c.accounts.CreateAccount(userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// ListAccounts возвращает счета текущего пользователя
func (c *AccountController) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := c.accounts.GetAccountsByUserID(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// Deposit обрабатывает запрос на пополнение банковского счета
func (c *AccountController) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	applyIdempotencyHeader(r, &req.IdempotencyKey)

	// Проверяем владельца счета
	if _, err := c.accounts.GetOwnedById(req.AccountID, userID); err != nil {
		writeError(w, err)
		return
	}

	// Пополняем счет
	result, err := c.ledger.Deposit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Withdraw обрабатывает запрос на снятие средств с банковского счета
func (c *AccountController) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	applyIdempotencyHeader(r, &req.IdempotencyKey)

	// Проверяем владельца счета
	if _, err := c.accounts.GetOwnedById(req.AccountID, userID); err != nil {
		writeError(w, err)
		return
	}

	// Снимаем средства
	result, err := c.ledger.Withdraw(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Transfer обрабатывает запрос на перевод средств между счетами
func (c *AccountController) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	applyIdempotencyHeader(r, &req.IdempotencyKey)

	// Проверяем владельца исходного счета; счет получателя может
	// принадлежать другому пользователю
	if _, err := c.accounts.GetOwnedById(req.FromAccountID, userID); err != nil {
		writeError(w, err)
		return
	}

	// Выполняем перевод
	result, err := c.ledger.Transfer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// applyIdempotencyHeader подставляет ключ из заголовка Idempotency-Key,
// если он не передан в теле запроса
func applyIdempotencyHeader(r *http.Request, key *string) {
	if *key == "" {
		*key = r.Header.Get("Idempotency-Key")
	}
}
