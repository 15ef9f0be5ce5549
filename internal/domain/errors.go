package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего email клиента.
	ErrCustomerEmailRequired = errors.New("customer_email is required")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка, если статус заказа не входит в перечисление.
	ErrOrderStatusInvalid = errors.New("order status is not a valid value")
	// Ошибка, если статус оплаты не входит в перечисление.
	ErrPaymentStatusInvalid = errors.New("payment_status is not a valid value")
	// Ошибка пустого идентификатора платёжной сессии: поле всегда хранит хотя бы сентинел.
	ErrSessionIDEmpty = errors.New("stripe_session_id must not be empty")
	// Ошибка отсутствующего идентификатора игры в позиции.
	ErrItemGameIDRequired = errors.New("item game_id is required")
	// Ошибка отсутствующего названия игры в позиции.
	ErrItemGameNameRequired = errors.New("item game_name is required")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderItemNotFound возвращается, если у найденного заказа нет ни одной позиции.
	ErrOrderItemNotFound = errors.New("order item not found")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа или позиции.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderItemNotFound)
}
