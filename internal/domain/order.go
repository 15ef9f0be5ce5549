package domain

import (
	"strings"
	"time"
)

// OrderStatus описывает жизненный цикл заказа в магазине игр.
type OrderStatus string

const (
	// OrderStatusProcessing — заказ создан и находится в обработке. Присваивается при создании.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ отгружен покупателю.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusPending — заказ ожидает обработки.
	OrderStatusPending OrderStatus = "pending"
)

// PaymentStatus описывает состояние оплаты, которое сообщает внешний платёжный сервис.
type PaymentStatus string

const (
	// PaymentStatusPending — оплата ещё не подтверждена. Значение по умолчанию.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid — оплата подтверждена.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed — оплата не прошла.
	PaymentStatusFailed PaymentStatus = "failed"
)

const (
	// DefaultShippingAddress подставляется, если адрес доставки не указан в запросе.
	DefaultShippingAddress = "81 Victoria St, Singapore 188065"
	// UnboundSessionID — значение stripe_session_id до привязки платёжной сессии.
	// Поле никогда не бывает пустым.
	UnboundSessionID = "NA"
	// GenreSeparator используется при склейке списка жанров в genre_string.
	GenreSeparator = ", "
)

// OrderItem представляет одну позицию заказа: одну игру с зафиксированной ценой.
type OrderItem struct {
	// ItemID — суррогатный идентификатор, присваивается хранилищем.
	ItemID int64 `json:"item_id"`
	// OrderID — ссылка на заказ-владелец. Позиция не живёт дольше заказа.
	OrderID int64 `json:"order_id"`
	// GameID — внешний идентификатор игры.
	GameID string `json:"game_id"`
	// GameName — отображаемое название игры на момент покупки.
	GameName string `json:"game_name"`
	// Quantity — количество единиц.
	Quantity int `json:"quantity"`
	// Price — цена за единицу на момент покупки. Снимок, не пересчитывается по каталогу.
	Price float64 `json:"price"`
	// PriceID — идентификатор тарифа у платёжного провайдера.
	PriceID string `json:"price_id"`
	// GenreString — денормализованный список жанров, склеенный через запятую.
	GenreString string `json:"genre_string"`
}

// Order агрегирует шапку заказа и его позиции.
type Order struct {
	OrderID         int64         `json:"order_id"`
	CustomerID      string        `json:"customer_id"`
	CustomerEmail   string        `json:"customer_email"`
	Status          OrderStatus   `json:"status"`
	Created         time.Time     `json:"created"`
	Modified        time.Time     `json:"modified"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	ShippingAddress string        `json:"shipping_address"`
	StripeSessionID string        `json:"stripe_session_id"`
	Items           []OrderItem   `json:"order_item"`
}

// NewOrder собирает заказ со значениями по умолчанию: статус processing,
// оплата pending, сессия не привязана.
func NewOrder(customerID, customerEmail, shippingAddress string, now time.Time) Order {
	if shippingAddress == "" {
		shippingAddress = DefaultShippingAddress
	}
	return Order{
		CustomerID:      customerID,
		CustomerEmail:   customerEmail,
		Status:          OrderStatusProcessing,
		Created:         now,
		Modified:        now,
		PaymentStatus:   PaymentStatusPending,
		ShippingAddress: shippingAddress,
		StripeSessionID: UnboundSessionID,
	}
}

// JoinGenres склеивает список жанров в строку для хранения в genre_string.
func JoinGenres(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	return strings.Join(genres, GenreSeparator)
}

// ValidOrderStatus проверяет, входит ли значение в перечисление статусов заказа.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled, OrderStatusPending:
		return true
	default:
		return false
	}
}

// ValidPaymentStatus проверяет, входит ли значение в перечисление статусов оплаты.
// Исходная система записывала произвольные строки; здесь значение проверяется явно.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.CustomerEmail == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}
	if !ValidOrderStatus(o.Status) {
		errs = append(errs, ErrOrderStatusInvalid)
	}
	if !ValidPaymentStatus(o.PaymentStatus) {
		errs = append(errs, ErrPaymentStatusInvalid)
	}
	if o.StripeSessionID == "" {
		errs = append(errs, ErrSessionIDEmpty)
	}

	// Проверка только на присутствие полей: диапазоны quantity/price
	// внешним контрактом не проверяются.
	for _, item := range o.Items {
		if item.GameID == "" {
			errs = append(errs, ErrItemGameIDRequired)
		}
		if item.GameName == "" {
			errs = append(errs, ErrItemGameNameRequired)
		}
	}

	return errs
}
