//go:build integration
// +build integration

package services

import (
	"context"
	"errors"
	"testing"
)

func TestDashboard(t *testing.T) {
	db := setupTestDB(t)
	ledger := newTestLedger(db)
	aggregation := NewAggregationService(db)

	owner := seedUser(t, db, "dashboard@example.com")
	other := seedUser(t, db, "other@example.com")
	a := seedAccount(t, db, owner.ID, "100.00")
	b := seedAccount(t, db, owner.ID, "250.00")
	foreign := seedAccount(t, db, other.ID, "9999.00")
	ctx := context.Background()

	// Семь операций по счетам владельца и одна по чужому счету
	for i := 0; i < 4; i++ {
		if _, err := ledger.Deposit(ctx, OperationRequest{AccountID: a.ID, Amount: dec("10")}); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := ledger.Deposit(ctx, OperationRequest{AccountID: b.ID, Amount: dec("20")}); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}
	if _, err := ledger.Deposit(ctx, OperationRequest{AccountID: foreign.ID, Amount: dec("5")}); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	dashboard, err := aggregation.Dashboard(owner.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	// 100 + 250 + 4*10 + 3*20 = 450
	if !dashboard.TotalBalance.Equal(dec("450")) {
		t.Errorf("total balance: got %s want 450", dashboard.TotalBalance)
	}
	if dashboard.AccountCount != 2 {
		t.Errorf("account count: got %d want 2", dashboard.AccountCount)
	}

	// В сводку попадают только последние операции владельца
	if len(dashboard.RecentTransactions) != recentLimit {
		t.Fatalf("recent transactions: got %d want %d", len(dashboard.RecentTransactions), recentLimit)
	}
	for _, txn := range dashboard.RecentTransactions {
		if txn.ToAccount != nil && *txn.ToAccount == foreign.ID {
			t.Errorf("foreign transaction leaked into dashboard: %s", txn.ID)
		}
	}
}

func TestAdminStats(t *testing.T) {
	db := setupTestDB(t)
	ledger := newTestLedger(db)
	aggregation := NewAggregationService(db)

	u1 := seedUser(t, db, "stats1@example.com")
	u2 := seedUser(t, db, "stats2@example.com")
	a := seedAccount(t, db, u1.ID, "300.00")
	b := seedAccount(t, db, u2.ID, "700.00")
	ctx := context.Background()

	if _, err := ledger.Transfer(ctx, TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("100")}); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	stats, err := aggregation.AdminStats()
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}

	if stats.TotalUsers != 2 {
		t.Errorf("total users: got %d want 2", stats.TotalUsers)
	}
	if stats.TotalAccounts != 2 {
		t.Errorf("total accounts: got %d want 2", stats.TotalAccounts)
	}
	if stats.TotalTransactions != 1 {
		t.Errorf("total transactions: got %d want 1", stats.TotalTransactions)
	}
	// Перевод не меняет суммарный баланс платформы
	if !stats.TotalBalance.Equal(dec("1000")) {
		t.Errorf("total balance: got %s want 1000", stats.TotalBalance)
	}
}

func TestTransactionPaging(t *testing.T) {
	db := setupTestDB(t)
	ledger := newTestLedger(db)
	accounts := NewAccountService(db)
	transactions := NewTransactionService(db, accounts, "test-token-key")

	owner := seedUser(t, db, "paging@example.com")
	account := seedAccount(t, db, owner.ID, "0.00")
	ctx := context.Background()

	const total = 25
	for i := 0; i < total; i++ {
		if _, err := ledger.Deposit(ctx, OperationRequest{AccountID: account.ID, Amount: dec("1")}); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}

	// Первая страница полная, с токеном продолжения
	page, err := transactions.ListByAccount(account.ID, owner.ID, "")
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(page.Transactions) != defaultPageSize {
		t.Fatalf("first page size: got %d want %d", len(page.Transactions), defaultPageSize)
	}
	if page.NextPageToken == "" {
		t.Fatal("expected next page token")
	}

	// Вторая страница содержит остаток без токена
	page2, err := transactions.ListByAccount(account.ID, owner.ID, page.NextPageToken)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(page2.Transactions) != total-defaultPageSize {
		t.Errorf("second page size: got %d want %d", len(page2.Transactions), total-defaultPageSize)
	}
	if page2.NextPageToken != "" {
		t.Errorf("unexpected next page token: %s", page2.NextPageToken)
	}

	// Страницы не пересекаются
	seen := make(map[string]bool)
	for _, txn := range append(page.Transactions, page2.Transactions...) {
		if seen[txn.ID] {
			t.Errorf("transaction %s appears on both pages", txn.ID)
		}
		seen[txn.ID] = true
	}

	// Поддельный токен отклоняется как некорректный ввод
	if _, err := transactions.ListByAccount(account.ID, owner.ID, "forged-token"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("forged token: expected ErrInvalidInput, got %v", err)
	}
}

func TestTransactionVisibility(t *testing.T) {
	db := setupTestDB(t)
	ledger := newTestLedger(db)
	accounts := NewAccountService(db)
	transactions := NewTransactionService(db, accounts, "test-token-key")

	owner := seedUser(t, db, "visible@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	account := seedAccount(t, db, owner.ID, "0.00")

	result, err := ledger.Deposit(context.Background(), OperationRequest{AccountID: account.ID, Amount: dec("10")})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	txnID := result.Transaction.ID

	// Владелец видит свою транзакцию
	if _, err := transactions.GetByID(txnID, owner.ID, false); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}

	// Чужая транзакция неотличима от несуществующей
	if _, err := transactions.GetByID(txnID, stranger.ID, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger lookup: expected ErrNotFound, got %v", err)
	}

	// Администратор видит любую транзакцию
	if _, err := transactions.GetByID(txnID, stranger.ID, true); err != nil {
		t.Errorf("admin lookup failed: %v", err)
	}

	// Чужой счет при листинге тоже неотличим от несуществующего
	if _, err := transactions.ListByAccount(account.ID, stranger.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger listing: expected ErrNotFound, got %v", err)
	}
}
