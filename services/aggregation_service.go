package services

import (
	"database/sql"
	"fmt"

	"bankledger/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recentLimit — сколько последних операций попадает в сводки
const recentLimit = 5

// DashboardDTO представляет сводку пользователя
type DashboardDTO struct {
	TotalBalance       decimal.Decimal  `json:"totalBalance"`
	AccountCount       int64            `json:"accountCount"`
	RecentTransactions []TransactionDTO `json:"recentTransactions"`
}

// AdminStatsDTO представляет сводку по всей платформе
type AdminStatsDTO struct {
	TotalUsers        int64           `json:"totalUsers"`
	TotalAccounts     int64           `json:"totalAccounts"`
	TotalTransactions int64           `json:"totalTransactions"`
	TotalBalance      decimal.Decimal `json:"totalBalance"`
	RecentUsers       []UserDTO       `json:"recentUsers"`
}

// AggregationService строит производные представления поверх счетов и
// журнала. Только чтение: каждая сводка вычисляется в одной read-only
// транзакции REPEATABLE READ, поэтому частично выполненный перевод в нее
// попасть не может.
type AggregationService struct {
	db *gorm.DB
}

// NewAggregationService создает новый экземпляр AggregationService
func NewAggregationService(db *gorm.DB) *AggregationService {
	return &AggregationService{db: db}
}

var snapshotOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// Dashboard возвращает сводку по счетам пользователя
func (s *AggregationService) Dashboard(ownerID uint) (*DashboardDTO, error) {
	out := &DashboardDTO{
		TotalBalance:       decimal.Zero,
		RecentTransactions: []TransactionDTO{},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).
			Where("holder_id = ?", ownerID).
			Select("COALESCE(SUM(balance), 0)").
			Scan(&out.TotalBalance).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Account{}).
			Where("holder_id = ?", ownerID).
			Count(&out.AccountCount).Error; err != nil {
			return err
		}

		sub := tx.Model(&models.Account{}).Select("id").Where("holder_id = ?", ownerID)
		var recent []models.Transaction
		if err := tx.Where("from_account_id IN (?) OR to_account_id IN (?)", sub, sub).
			Order("created_at DESC, id DESC").
			Limit(recentLimit).
			Find(&recent).Error; err != nil {
			return err
		}
		for i := range recent {
			out.RecentTransactions = append(out.RecentTransactions, NewTransactionDTO(&recent[i]))
		}
		return nil
	}, snapshotOpts)
	if err != nil {
		return nil, fmt.Errorf("ошибка при построении сводки: %w", err)
	}

	return out, nil
}

// AdminStats возвращает сводку по всей платформе
func (s *AggregationService) AdminStats() (*AdminStatsDTO, error) {
	out := &AdminStatsDTO{
		TotalBalance: decimal.Zero,
		RecentUsers:  []UserDTO{},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Count(&out.TotalUsers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).Count(&out.TotalAccounts).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).Count(&out.TotalTransactions).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).
			Select("COALESCE(SUM(balance), 0)").
			Scan(&out.TotalBalance).Error; err != nil {
			return err
		}

		var users []models.User
		if err := tx.Order("created_at DESC, id DESC").
			Limit(recentLimit).
			Find(&users).Error; err != nil {
			return err
		}
		for _, u := range users {
			out.RecentUsers = append(out.RecentUsers, UserDTO{
				ID:        u.ID,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Email:     u.Email,
				Role:      string(u.Role),
			})
		}
		return nil
	}, snapshotOpts)
	if err != nil {
		return nil, fmt.Errorf("ошибка при построении сводки: %w", err)
	}

	return out, nil
}
