package services

import (
	"fmt"
	"time"

	"bankledger/config"
	"bankledger/models"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// EmailService предоставляет методы для отправки email-уведомлений.
// Доставка уведомлений — внешний побочный эффект: она выполняется после
// фиксации операции и ее сбой не влияет на журнал.
type EmailService struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer:  dialer,
		from:    cfg.SMTP.From,
		enabled: cfg.SMTP.Enabled,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.enabled {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// NotifyTransaction отправляет владельцу счета уведомление об операции
func (s *EmailService) NotifyTransaction(db *gorm.DB, accountID uint, amount decimal.Decimal, operation string) error {
	if !s.enabled {
		return nil
	}

	var account models.Account
	if err := db.Preload("Holder").First(&account, accountID).Error; err != nil {
		return fmt.Errorf("ошибка при получении данных владельца счета: %v", err)
	}

	operationTitle := map[string]string{
		"deposit":  "Пополнение",
		"withdraw": "Снятие",
		"transfer": "Перевод",
	}[operation]
	if operationTitle == "" {
		operationTitle = operation
	}

	subject := "Уведомление о транзакции"
	body := fmt.Sprintf(`
		<h2>Уведомление о транзакции</h2>
		<p>Счет: %s</p>
		<p>Тип операции: %s</p>
		<p>Сумма: %s %s</p>
		<p>Дата: %s</p>
	`, account.Number, operationTitle, amount.StringFixed(2), account.Currency, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(account.Holder.Email, subject, body)
}
