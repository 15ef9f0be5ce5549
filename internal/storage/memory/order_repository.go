package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/game-orders/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu        sync.RWMutex
	orders    map[int64]domain.Order
	nextOrder int64
	nextItem  int64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders:    make(map[int64]domain.Order),
		nextOrder: 1,
		nextItem:  1,
	}
}

// Create сохраняет заказ и позиции, присваивая последовательные идентификаторы.
func (r *orderRepositoryInMemory) Create(order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.OrderID = r.nextOrder
	r.nextOrder++
	for i := range order.Items {
		order.Items[i].ItemID = r.nextItem
		order.Items[i].OrderID = order.OrderID
		r.nextItem++
	}

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.orders[order.OrderID] = cloneOrder(*order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(orderID int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListAll возвращает все заказы. Порядок стабилизирован по order_id для предсказуемости тестов.
func (r *orderRepositoryInMemory) ListAll() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		result = append(result, cloneOrder(order))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrderID < result[j].OrderID })
	return result, nil
}

// ListByGame возвращает по одной записи на каждую совпавшую позицию.
func (r *orderRepositoryInMemory) ListByGame(gameID string) ([]domain.GameMatch, error) {
	orders, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	matches := make([]domain.GameMatch, 0)
	for _, order := range orders {
		for _, item := range order.Items {
			if item.GameID == gameID {
				matches = append(matches, domain.GameMatch{Order: cloneOrder(order), Quantity: item.Quantity})
			}
		}
	}
	return matches, nil
}

// ListByCustomer возвращает все заказы клиента.
func (r *orderRepositoryInMemory) ListByCustomer(customerID string) ([]domain.Order, error) {
	orders, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	result := make([]domain.Order, 0)
	for _, order := range orders {
		if order.CustomerID == customerID {
			result = append(result, order)
		}
	}
	return result, nil
}

// Delete удаляет заказ вместе с позициями.
func (r *orderRepositoryInMemory) Delete(orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, orderID)
	return nil
}

// UpdateFirstItemPrice корректирует цену первой позиции заказа.
func (r *orderRepositoryInMemory) UpdateFirstItemPrice(orderID int64, newPrice float64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if len(order.Items) == 0 {
		return domain.Order{}, domain.ErrOrderItemNotFound
	}

	order = cloneOrder(order)
	first := 0
	for i := range order.Items {
		if order.Items[i].ItemID < order.Items[first].ItemID {
			first = i
		}
	}
	order.Items[first].Price = newPrice
	r.orders[orderID] = cloneOrder(order)
	return order, nil
}

// BindPaymentSession записывает сессию и безусловно переводит оплату в paid.
func (r *orderRepositoryInMemory) BindPaymentSession(orderID int64, sessionID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	order = cloneOrder(order)
	order.StripeSessionID = sessionID
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Modified = time.Now().UTC()
	r.orders[orderID] = cloneOrder(order)
	return order, nil
}

// SetPaymentStatus записывает статус оплаты.
func (r *orderRepositoryInMemory) SetPaymentStatus(orderID int64, status domain.PaymentStatus) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	order = cloneOrder(order)
	order.PaymentStatus = status
	order.Modified = time.Now().UTC()
	r.orders[orderID] = cloneOrder(order)
	return order, nil
}

func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
