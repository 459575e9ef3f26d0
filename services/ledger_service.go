package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bankledger/config"
	"bankledger/database"
	"bankledger/models"
	"bankledger/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Код ошибки Postgres "lock_not_available" — истек lock_timeout
const pgLockNotAvailable = "55P03"

// TransactionDTO представляет запись журнала в ответах API
type TransactionDTO struct {
	ID          string          `json:"_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	FromAccount *uint           `json:"fromAccount,omitempty"`
	ToAccount   *uint           `json:"toAccount,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

// NewTransactionDTO конвертирует запись журнала в DTO
func NewTransactionDTO(t *models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          t.ID,
		Type:        string(t.Kind),
		Amount:      t.Amount,
		FromAccount: t.FromAccountID,
		ToAccount:   t.ToAccountID,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// LedgerResult представляет результат операции журнала. Содержит балансы
// после операции и созданную запись, чтобы клиенту не требовался
// дополнительный запрос на чтение.
type LedgerResult struct {
	Account     *AccountDTO    `json:"account,omitempty"`
	Source      *AccountDTO    `json:"sourceAccount,omitempty"`
	Destination *AccountDTO    `json:"destinationAccount,omitempty"`
	Transaction TransactionDTO `json:"transaction"`

	// Replayed выставляется, когда результат возвращен из хранилища
	// идемпотентности без повторного применения эффектов
	Replayed bool `json:"-"`
}

// OperationRequest представляет данные для пополнения или снятия
type OperationRequest struct {
	AccountID      uint            `json:"accountId" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description" validate:"max=255"`
	IdempotencyKey string          `json:"idempotencyKey" validate:"omitempty,min=8,max=100"`
}

// TransferRequest представляет данные для перевода средств
type TransferRequest struct {
	FromAccountID  uint            `json:"fromAccountId" validate:"required"`
	ToAccountID    uint            `json:"toAccountId" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description" validate:"max=255"`
	IdempotencyKey string          `json:"idempotencyKey" validate:"omitempty,min=8,max=100"`
}

// LedgerService — единственная точка изменения денежных позиций.
// Каждая операция выполняется в одной транзакции базы данных: строки счетов
// захватываются SELECT ... FOR UPDATE, баланс и запись журнала меняются
// вместе или не меняются вовсе. Операции по одному счету сериализуются
// блокировкой строки, по разным счетам идут параллельно.
type LedgerService struct {
	db          *gorm.DB
	validator   *validator.Validate
	email       *EmailService
	lockTimeout time.Duration
}

// NewLedgerService создает новый экземпляр LedgerService
func NewLedgerService(db *gorm.DB, cfg *config.Config, email *EmailService) *LedgerService {
	return &LedgerService{
		db:          db,
		validator:   validator.New(),
		email:       email,
		lockTimeout: cfg.Server.LockTimeout,
	}
}

// Deposit пополняет банковский счет
func (s *LedgerService) Deposit(ctx context.Context, req OperationRequest) (*LedgerResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, translateValidationErrors(err)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: сумма должна быть больше 0", ErrInvalidInput)
	}

	fp := utils.Fingerprint("deposit", fmt.Sprint(req.AccountID), req.Amount.String(), req.Description)
	result, err := s.run(ctx, "deposit", req.IdempotencyKey, fp, func(tx *gorm.DB) (*LedgerResult, error) {
		account, err := s.lockAccount(tx, req.AccountID)
		if err != nil {
			return nil, err
		}

		// Зачисляем средства
		account.Balance = account.Balance.Add(req.Amount)
		account.UpdatedAt = time.Now()
		if err := tx.Save(account).Error; err != nil {
			return nil, fmt.Errorf("ошибка при обновлении баланса: %w", err)
		}

		txn, err := s.appendEntry(tx, models.TransactionKindDeposit, req.Amount, nil, &account.ID, req.Description)
		if err != nil {
			return nil, err
		}

		dto := NewAccountDTO(account)
		return &LedgerResult{Account: &dto, Transaction: NewTransactionDTO(txn)}, nil
	})

	s.finish("deposit", req.AccountID, req.Amount, result, err)
	return result, err
}

// Withdraw снимает средства с банковского счета.
// Проверка достаточности средств выполняется на заблокированной строке:
// баланс, показанный клиенту, мог устареть.
func (s *LedgerService) Withdraw(ctx context.Context, req OperationRequest) (*LedgerResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, translateValidationErrors(err)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: сумма должна быть больше 0", ErrInvalidInput)
	}

	fp := utils.Fingerprint("withdraw", fmt.Sprint(req.AccountID), req.Amount.String(), req.Description)
	result, err := s.run(ctx, "withdraw", req.IdempotencyKey, fp, func(tx *gorm.DB) (*LedgerResult, error) {
		account, err := s.lockAccount(tx, req.AccountID)
		if err != nil {
			return nil, err
		}

		// Проверяем достаточность средств
		if account.Balance.LessThan(req.Amount) {
			return nil, ErrInsufficientFunds
		}

		account.Balance = account.Balance.Sub(req.Amount)
		account.UpdatedAt = time.Now()
		if err := tx.Save(account).Error; err != nil {
			return nil, fmt.Errorf("ошибка при обновлении баланса: %w", err)
		}

		txn, err := s.appendEntry(tx, models.TransactionKindWithdraw, req.Amount, &account.ID, nil, req.Description)
		if err != nil {
			return nil, err
		}

		dto := NewAccountDTO(account)
		return &LedgerResult{Account: &dto, Transaction: NewTransactionDTO(txn)}, nil
	})

	s.finish("withdraw", req.AccountID, req.Amount, result, err)
	return result, err
}

// Transfer переводит средства между счетами. Оба изменения баланса и
// единственная запись журнала становятся видимыми вместе или не становятся
// видимыми вовсе — частично выполненный перевод невозможен.
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (*LedgerResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, translateValidationErrors(err)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: сумма должна быть больше 0", ErrInvalidInput)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: нельзя перевести средства на тот же счет", ErrInvalidInput)
	}

	fp := utils.Fingerprint("transfer", fmt.Sprint(req.FromAccountID), fmt.Sprint(req.ToAccountID), req.Amount.String(), req.Description)
	result, err := s.run(ctx, "transfer", req.IdempotencyKey, fp, func(tx *gorm.DB) (*LedgerResult, error) {
		// Блокируем оба счета в порядке возрастания ID, чтобы встречные
		// переводы не зашли в deadlock
		first, second := req.FromAccountID, req.ToAccountID
		if second < first {
			first, second = second, first
		}

		locked := make(map[uint]*models.Account, 2)
		for _, id := range []uint{first, second} {
			account, err := s.lockAccount(tx, id)
			if err != nil {
				return nil, err
			}
			locked[id] = account
		}
		source, dest := locked[req.FromAccountID], locked[req.ToAccountID]

		if source.Balance.LessThan(req.Amount) {
			return nil, ErrInsufficientFunds
		}

		now := time.Now()
		source.Balance = source.Balance.Sub(req.Amount)
		source.UpdatedAt = now
		dest.Balance = dest.Balance.Add(req.Amount)
		dest.UpdatedAt = now

		if err := tx.Save(source).Error; err != nil {
			return nil, fmt.Errorf("ошибка при обновлении баланса: %w", err)
		}
		if err := tx.Save(dest).Error; err != nil {
			return nil, fmt.Errorf("ошибка при обновлении баланса: %w", err)
		}

		txn, err := s.appendEntry(tx, models.TransactionKindTransfer, req.Amount, &source.ID, &dest.ID, req.Description)
		if err != nil {
			return nil, err
		}

		srcDTO, dstDTO := NewAccountDTO(source), NewAccountDTO(dest)
		return &LedgerResult{Source: &srcDTO, Destination: &dstDTO, Transaction: NewTransactionDTO(txn)}, nil
	})

	s.finish("transfer", req.FromAccountID, req.Amount, result, err)
	return result, err
}

// run выполняет атомарную единицу операции: открывает транзакцию базы,
// разрешает ключ идемпотентности и применяет fn. Любая ошибка откатывает
// все, включая резервирование ключа.
func (s *LedgerService) run(ctx context.Context, op, key, fingerprint string, fn func(tx *gorm.DB) (*LedgerResult, error)) (*LedgerResult, error) {
	var result *LedgerResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ожидание блокировки строки ограничено: зависший конкурент не
		// должен держать вызывающего дольше таймаута
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())).Error; err != nil {
			return fmt.Errorf("ошибка установки таймаута блокировки: %w", err)
		}

		if key != "" {
			replay, err := s.resolveIdempotencyKey(tx, op, key, fingerprint)
			if err != nil {
				return err
			}
			if replay != nil {
				result = replay
				return nil
			}
		}

		r, err := fn(tx)
		if err != nil {
			return err
		}

		if key != "" {
			body, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("ошибка сериализации результата: %w", err)
			}
			if err := tx.Model(&models.IdempotencyKey{}).
				Where("key = ?", key).
				Update("response", body).Error; err != nil {
				return fmt.Errorf("ошибка сохранения результата операции: %w", err)
			}
		}

		result = r
		return nil
	})

	if err != nil {
		return nil, s.mapError(err)
	}
	return result, nil
}

// resolveIdempotencyKey резервирует ключ внутри текущей транзакции.
// Возвращает сохраненный результат, если операция с этим ключом уже
// завершалась. Конкурентный повтор с тем же ключом блокируется на
// уникальном индексе до исхода первой попытки.
func (s *LedgerService) resolveIdempotencyKey(tx *gorm.DB, op, key, fingerprint string) (*LedgerResult, error) {
	record := models.IdempotencyKey{
		Key:         key,
		Operation:   op,
		Fingerprint: fingerprint,
		Response:    []byte("{}"),
		CreatedAt:   time.Now(),
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if res.Error != nil {
		return nil, fmt.Errorf("ошибка резервирования ключа идемпотентности: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		// Ключ свободен, операция выполняется впервые
		return nil, nil
	}

	var existing models.IdempotencyKey
	if err := tx.First(&existing, "key = ?", key).Error; err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа идемпотентности: %w", err)
	}
	if existing.Operation != op || existing.Fingerprint != fingerprint {
		return nil, ErrConflict
	}

	var stored LedgerResult
	if err := json.Unmarshal(existing.Response, &stored); err != nil {
		return nil, fmt.Errorf("ошибка чтения сохраненного результата: %w", err)
	}
	stored.Replayed = true
	utils.GetMetrics().RecordIdempotentReplay()
	return &stored, nil
}

// lockAccount захватывает строку счета до конца транзакции
func (s *LedgerService) lockAccount(tx *gorm.DB, id uint) (*models.Account, error) {
	account, err := database.GetAccountForUpdate(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске банковского счета: %w", err)
	}
	return account, nil
}

// appendEntry добавляет запись журнала в рамках той же транзакции
func (s *LedgerService) appendEntry(tx *gorm.DB, kind models.TransactionKind, amount decimal.Decimal, fromID, toID *uint, description string) (*models.Transaction, error) {
	txn := &models.Transaction{
		ID:            uuid.NewString(),
		Kind:          kind,
		Amount:        amount,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Description:   description,
		CreatedAt:     time.Now(),
	}
	if err := database.AppendTransaction(tx, txn); err != nil {
		return nil, fmt.Errorf("ошибка при сохранении транзакции: %w", err)
	}
	return txn, nil
}

// mapError переводит инфраструктурные ошибки в доменные
func (s *LedgerService) mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// finish записывает метрики и отправляет уведомление о выполненной операции.
// Повтор по ключу идемпотентности ничего не применял: он уже учтен
// счетчиком IdempotentReplays и в счетчики операций не попадает.
func (s *LedgerService) finish(op string, accountID uint, amount decimal.Decimal, result *LedgerResult, err error) {
	if result == nil || !result.Replayed {
		utils.GetMetrics().RecordLedgerOperation(op, err)
	}

	if err != nil || result == nil || result.Replayed {
		return
	}

	// Уведомление не входит в атомарную единицу: его сбой не откатывает
	// уже выполненную операцию
	if notifyErr := s.email.NotifyTransaction(s.db, accountID, amount, op); notifyErr != nil {
		utils.LogError("Ошибка отправки уведомления: %v", notifyErr)
	}
}
