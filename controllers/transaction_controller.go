package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bankledger/middleware"
	"bankledger/services"
)

// TransactionController обрабатывает запросы к журналу транзакций
type TransactionController struct {
	transactions *services.TransactionService
}

// NewTransactionController создает новый экземпляр TransactionController
func NewTransactionController(transactions *services.TransactionService) *TransactionController {
	return &TransactionController{transactions: transactions}
}

// ListOwn возвращает транзакции по всем счетам текущего пользователя
// в обратном хронологическом порядке
func (c *TransactionController) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, err := c.transactions.ListByOwner(userID, r.URL.Query().Get("pageToken"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// ListByAccount возвращает транзакции конкретного счета.
// Счет должен принадлежать текущему пользователю
func (c *TransactionController) ListByAccount(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Получаем ID счета из пути
	accountID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	page, err := c.transactions.ListByAccount(uint(accountID), userID, r.URL.Query().Get("pageToken"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetTransaction возвращает одну транзакцию по идентификатору.
// Обычный пользователь видит только транзакции, затрагивающие его счета
func (c *TransactionController) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txn, err := c.transactions.GetByID(mux.Vars(r)["id"], userID, middleware.IsAdmin(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}
