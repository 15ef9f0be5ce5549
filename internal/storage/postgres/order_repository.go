package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/game-orders/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

const orderColumns = `order_id, customer_id, customer_email, status, created, modified,
		payment_status, shipping_address, stripe_session_id`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create вставляет шапку заказа и позиции в одной транзакции.
// При любой ошибке транзакция откатывается целиком, частичных записей не остаётся.
func (r *orderRepository) Create(order *domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO "order" (
			customer_id, customer_email, status, created, modified,
			payment_status, shipping_address, stripe_session_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING order_id
	`,
		order.CustomerID, order.CustomerEmail, string(order.Status), order.Created,
		order.Modified, string(order.PaymentStatus), order.ShippingAddress, order.StripeSessionID,
	).Scan(&order.OrderID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.OrderID
		if err = tx.QueryRowContext(ctx, `
			INSERT INTO order_item (
				order_id, game_id, game_name, quantity, price, price_id, genre_string
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING item_id
		`,
			item.OrderID, item.GameID, item.GameName, item.Quantity,
			item.Price, item.PriceID, item.GenreString,
		).Scan(&item.ItemID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(orderID int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.getTx(ctx, r.db, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.loadItems(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) ListAll() ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM "order"
		ORDER BY order_id ASC
	`)
}

// ListByGame возвращает по одной записи на каждую совпавшую позицию: заказ с
// двумя подходящими позициями попадает в выборку дважды.
func (r *orderRepository) ListByGame(gameID string) ([]domain.GameMatch, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.quantity
		FROM order_item oi
		WHERE oi.game_id = $1
		ORDER BY oi.item_id ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list order items by game: %w", err)
	}
	defer rows.Close()

	type hit struct {
		orderID  int64
		quantity int
	}
	hits := make([]hit, 0)
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.orderID, &h.quantity); err != nil {
			return nil, fmt.Errorf("scan game match: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game matches: %w", err)
	}

	matches := make([]domain.GameMatch, 0, len(hits))
	loaded := make(map[int64]domain.Order)
	for _, h := range hits {
		order, ok := loaded[h.orderID]
		if !ok {
			order, err = r.Get(h.orderID)
			if err != nil {
				return nil, err
			}
			loaded[h.orderID] = order
		}
		matches = append(matches, domain.GameMatch{Order: order, Quantity: h.quantity})
	}

	return matches, nil
}

func (r *orderRepository) ListByCustomer(customerID string) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM "order"
		WHERE customer_id = $1
		ORDER BY order_id ASC
	`, customerID)
}

// Delete удаляет заказ и его позиции в одной транзакции. Внешний ключ с
// ON DELETE CASCADE подстраховывает тот же инвариант на уровне схемы.
func (r *orderRepository) Delete(orderID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_item WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM "order" WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrOrderNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete order: %w", err)
	}

	return nil
}

// UpdateFirstItemPrice корректирует цену позиции с наименьшим item_id.
// game_id запроса на выбор позиции не влияет.
func (r *orderRepository) UpdateFirstItemPrice(orderID int64, newPrice float64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = r.getTx(ctx, tx, orderID); err != nil {
		return domain.Order{}, err
	}

	var itemID int64
	err = tx.QueryRowContext(ctx, `
		SELECT item_id
		FROM order_item
		WHERE order_id = $1
		ORDER BY item_id ASC
		LIMIT 1
		FOR UPDATE
	`, orderID).Scan(&itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrOrderItemNotFound
		} else {
			err = fmt.Errorf("select first order item: %w", err)
		}
		return domain.Order{}, err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE order_item SET price = $1 WHERE item_id = $2
	`, newPrice, itemID); err != nil {
		return domain.Order{}, fmt.Errorf("update item price: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit update item price: %w", err)
	}

	return r.Get(orderID)
}

// BindPaymentSession записывает идентификатор сессии и безусловно переводит
// оплату в paid — существующий контракт платёжной интеграции.
func (r *orderRepository) BindPaymentSession(orderID int64, sessionID string) (domain.Order, error) {
	return r.updateOrderRow(orderID, `
		UPDATE "order"
		SET stripe_session_id = $2,
		    payment_status = $3,
		    modified = NOW()
		WHERE order_id = $1
	`, orderID, sessionID, string(domain.PaymentStatusPaid))
}

func (r *orderRepository) SetPaymentStatus(orderID int64, status domain.PaymentStatus) (domain.Order, error) {
	return r.updateOrderRow(orderID, `
		UPDATE "order"
		SET payment_status = $2,
		    modified = NOW()
		WHERE order_id = $1
	`, orderID, string(status))
}

// updateOrderRow выполняет одиночный UPDATE шапки заказа и возвращает обновлённый заказ.
func (r *orderRepository) updateOrderRow(orderID int64, query string, args ...any) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return r.Get(orderID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *orderRepository) getTx(ctx context.Context, q queryer, orderID int64) (domain.Order, error) {
	var (
		order         domain.Order
		status        string
		paymentStatus string
	)

	err := q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM "order"
		WHERE order_id = $1
	`, orderID).Scan(
		&order.OrderID, &order.CustomerID, &order.CustomerEmail, &status, &order.Created,
		&order.Modified, &paymentStatus, &order.ShippingAddress, &order.StripeSessionID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)

	return order, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order         domain.Order
			status        string
			paymentStatus string
		)
		if err := rows.Scan(
			&order.OrderID, &order.CustomerID, &order.CustomerEmail, &status, &order.Created,
			&order.Modified, &paymentStatus, &order.ShippingAddress, &order.StripeSessionID,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		order.PaymentStatus = domain.PaymentStatus(paymentStatus)

		items, err := r.loadItems(ctx, order.OrderID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, order_id, game_id, game_name, quantity, price, price_id, genre_string
		FROM order_item
		WHERE order_id = $1
		ORDER BY item_id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ItemID, &item.OrderID, &item.GameID, &item.GameName,
			&item.Quantity, &item.Price, &item.PriceID, &item.GenreString,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
