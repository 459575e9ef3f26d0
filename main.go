package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"bankledger/config"
	"bankledger/controllers"
	"bankledger/database"
	"bankledger/middleware"
	"bankledger/services"
	"bankledger/utils"
)

// healthHandler сообщает, что сервис жив
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем логгеры
	utils.InitLoggers("logs")

	// Инициализируем подключение к базе данных
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Инициализируем сервисы
	emailService := services.NewEmailService(cfg)
	ledgerService := services.NewLedgerService(db.DB, cfg, emailService)
	accountService := services.NewAccountService(db.DB)
	transactionService := services.NewTransactionService(db.DB, accountService, cfg.JWT.SecretKey)

	// Создаем роутер
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RateLimitMiddleware)

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(db, cfg)
	accountController := controllers.NewAccountController(db, ledgerService)
	transactionController := controllers.NewTransactionController(transactionService)
	adminController := controllers.NewAdminController(db, transactionService)

	// Публичные маршруты
	router.HandleFunc("/api/health", healthHandler).Methods("GET")
	router.HandleFunc("/api/auth/register", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/login", authController.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(cfg.JWT.SecretKey)))
	protected.Use(middleware.LoggingMiddleware)

	// Маршруты для работы со счетами
	protected.HandleFunc("/accounts", accountController.CreateAccount).Methods("POST")
	protected.HandleFunc("/accounts", accountController.ListAccounts).Methods("GET")
	protected.HandleFunc("/accounts/deposit", accountController.Deposit).Methods("POST")
	protected.HandleFunc("/accounts/withdraw", accountController.Withdraw).Methods("POST")
	protected.HandleFunc("/accounts/transfer", accountController.Transfer).Methods("POST")

	// Маршруты для работы с журналом транзакций
	protected.HandleFunc("/transactions", transactionController.ListOwn).Methods("GET")
	protected.HandleFunc("/transactions/account/{id:[0-9]+}", transactionController.ListByAccount).Methods("GET")
	protected.HandleFunc("/transactions/{id}", transactionController.GetTransaction).Methods("GET")

	// Сводка пользователя
	protected.HandleFunc("/dashboard", adminController.Dashboard).Methods("GET")

	// Административные маршруты
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/stats", adminController.AdminStats).Methods("GET")
	admin.HandleFunc("/accounts", adminController.AdminAccounts).Methods("GET")
	admin.HandleFunc("/transactions", adminController.AdminTransactions).Methods("GET")
	admin.HandleFunc("/users", adminController.AdminUsers).Methods("GET")
	admin.HandleFunc("/metrics", adminController.AdminMetrics).Methods("GET")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
