package services

import "errors"

// Доменные ошибки сервисного слоя. Контроллеры сопоставляют их с HTTP-кодами
// через errors.Is, поэтому сервисы оборачивают причины с %w.
var (
	// ErrInvalidInput — некорректные аргументы операции: неположительная
	// сумма, неизвестный тип счета, совпадающие счета перевода.
	ErrInvalidInput = errors.New("некорректные параметры запроса")

	// ErrNotFound — счет или транзакция не существует.
	ErrNotFound = errors.New("банковский счет не найден")

	// ErrInsufficientFunds — операция сделала бы баланс отрицательным.
	ErrInsufficientFunds = errors.New("недостаточно средств на счете")

	// ErrUnauthorized — у вызывающего нет прав на ресурс.
	ErrUnauthorized = errors.New("нет доступа к данному ресурсу")

	// ErrConflict — ключ идемпотентности уже использован с другими параметрами.
	ErrConflict = errors.New("ключ идемпотентности уже использован с другими параметрами")

	// ErrUnavailable — истек таймаут ожидания блокировки; операция не
	// применена, клиент может безопасно повторить запрос.
	ErrUnavailable = errors.New("операция временно недоступна, повторите запрос")
)
