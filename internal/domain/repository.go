package domain

// GameMatch — результат поиска заказов по игре: заказ и количество из совпавшей позиции.
// Заказ с несколькими совпавшими позициями попадает в выборку по одному разу на позицию.
type GameMatch struct {
	Order    Order
	Quantity int
}

// OrderRepository описывает требования к хранилищу заказов.
// Все мутации затрагивают строки заказа и позиций в одной транзакции:
// хранилище никогда не оставляет заказ с частично записанными позициями.
type OrderRepository interface {
	// Create сохраняет заказ и его позиции атомарно, присваивая суррогатные идентификаторы.
	Create(order *Order) error
	// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
	Get(orderID int64) (Order, error)
	// ListAll возвращает все заказы с позициями. Пустая выборка — валидный результат, не ошибка.
	ListAll() ([]Order, error)
	// ListByGame возвращает по одной записи на каждую позицию с указанной игрой.
	ListByGame(gameID string) ([]GameMatch, error)
	// ListByCustomer возвращает все заказы клиента с позициями.
	ListByCustomer(customerID string) ([]Order, error)
	// Delete удаляет заказ и все его позиции атомарно. ErrOrderNotFound — отдельный исход.
	Delete(orderID int64) error
	// UpdateFirstItemPrice корректирует цену первой позиции заказа (с наименьшим item_id).
	// Отсутствие заказа и отсутствие позиций — раздельные исходы.
	UpdateFirstItemPrice(orderID int64, newPrice float64) (Order, error)
	// BindPaymentSession записывает идентификатор платёжной сессии и переводит
	// payment_status в paid. Возвращает обновлённый заказ.
	BindPaymentSession(orderID int64, sessionID string) (Order, error)
	// SetPaymentStatus записывает статус оплаты. Значение должно быть провалидировано вызывающим.
	SetPaymentStatus(orderID int64, status PaymentStatus) (Order, error)
}
