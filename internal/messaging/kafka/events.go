package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события заказа.
type EventType string

const (
	// EventTypeOrderCreated публикуется после коммита нового заказа.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypeOrderRemoved публикуется после удаления заказа вместе с позициями.
	EventTypeOrderRemoved EventType = "order.removed"
	// EventTypePaymentUpdated публикуется при изменении статуса оплаты,
	// включая привязку платёжной сессии.
	EventTypePaymentUpdated EventType = "order.payment_updated"
)

// TopicOrderEvents — topic для событий заказов.
const TopicOrderEvents = "orders.order.events"

// OrderEvent представляет событие заказа. Публикация best-effort: отказ брокера
// логируется и не влияет на ответ HTTP-клиенту.
type OrderEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	OrderID       int64     `json:"order_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа с уникальным идентификатором.
func NewOrderEvent(eventType EventType, orderID int64, customerID, paymentStatus string) *OrderEvent {
	return &OrderEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OrderID:       orderID,
		CustomerID:    customerID,
		PaymentStatus: paymentStatus,
		Timestamp:     time.Now().UTC(),
	}
}
