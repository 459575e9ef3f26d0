package controllers

import (
	"net/http"

	"bankledger/database"
	"bankledger/middleware"
	"bankledger/services"
	"bankledger/utils"
)

// AdminController обрабатывает сводку пользователя и административные запросы
type AdminController struct {
	db           *database.Database
	aggregation  *services.AggregationService
	transactions *services.TransactionService
	users        *services.UserService
}

// NewAdminController создает новый экземпляр AdminController
func NewAdminController(db *database.Database, transactions *services.TransactionService) *AdminController {
	return &AdminController{
		db:           db,
		aggregation:  services.NewAggregationService(db.DB),
		transactions: transactions,
		users:        services.NewUserService(db),
	}
}

// AdminAccountDTO представляет счет вместе с данными владельца
type AdminAccountDTO struct {
	services.AccountDTO
	HolderName  string `json:"holderName"`
	HolderEmail string `json:"holderEmail"`
}

// Dashboard возвращает сводку по счетам текущего пользователя:
// суммарный баланс и последние транзакции из одного согласованного снимка
func (c *AdminController) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dashboard, err := c.aggregation.Dashboard(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// AdminStats возвращает статистику по всей системе
func (c *AdminController) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.aggregation.AdminStats()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// AdminAccounts возвращает все счета системы с данными владельцев
func (c *AdminController) AdminAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := database.ListAllAccounts(c.db.DB)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]AdminAccountDTO, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		dtos = append(dtos, AdminAccountDTO{
			AccountDTO:  services.NewAccountDTO(a),
			HolderName:  a.Holder.FirstName + " " + a.Holder.LastName,
			HolderEmail: a.Holder.Email,
		})
	}

	writeJSON(w, http.StatusOK, dtos)
}

// AdminTransactions возвращает журнал транзакций всей системы
func (c *AdminController) AdminTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := c.transactions.ListAll(r.URL.Query().Get("pageToken"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// AdminUsers возвращает список всех пользователей
func (c *AdminController) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.users.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// AdminMetrics возвращает счетчики операций процесса
func (c *AdminController) AdminMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, utils.GetMetrics().GetMetricsSnapshot())
}
