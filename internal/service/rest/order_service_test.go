package restsvc_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/game-orders/internal/domain"
	restsvc "github.com/vladislavdragonenkov/game-orders/internal/service/rest"
	"github.com/vladislavdragonenkov/game-orders/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

type stubPublisher struct {
	mu     sync.Mutex
	topics []string
	keys   []string
	events []interface{}
}

func (p *stubPublisher) PublishEvent(topic, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, domain.OrderRepository, *stubPublisher) {
	t.Helper()

	repo := memory.NewOrderRepository()
	publisher := &stubPublisher{}
	service := restsvc.NewOrderService(repo, publisher, nil, loggerForTests())

	mux := http.NewServeMux()
	service.Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, repo, publisher
}

func doRequest(t *testing.T, method, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func chessCart() map[string]interface{} {
	return map[string]interface{}{
		"customer_id":    "c1",
		"customer_email": "c1@example.com",
		"cart": []map[string]interface{}{
			{
				"_id":         "g1",
				"GameName":    "Chess",
				"Quantity":    1,
				"Price":       9.99,
				"StripePrice": map[string]string{"id": "p1"},
				"Genre":       []string{"Strategy"},
			},
		},
	}
}

func TestCreateOrder_MapsCartItems(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order", map[string]interface{}{
		"customer_id":      "c1",
		"customer_email":   "c1@example.com",
		"shipping_address": "12 Kallang Ave",
		"cart": []map[string]interface{}{
			{
				"_id":         "g1",
				"GameName":    "Chess",
				"Quantity":    2,
				"Price":       9.99,
				"StripePrice": map[string]string{"id": "p1"},
				"Genre":       []string{"Strategy", "Board"},
			},
			{
				"_id":         "g2",
				"GameName":    "Tetris",
				"Quantity":    1,
				"Price":       1.99,
				"StripePrice": map[string]string{"id": "p2"},
				"Genre":       []string{"Puzzle"},
			},
		},
	})

	require.Equal(t, http.StatusCreated, status)
	require.EqualValues(t, 201, body["code"])

	data := body["data"].(map[string]interface{})
	require.EqualValues(t, "c1", data["customer_id"])
	require.EqualValues(t, "processing", data["status"])
	require.EqualValues(t, "pending", data["payment_status"])
	require.EqualValues(t, "NA", data["stripe_session_id"])
	require.EqualValues(t, "12 Kallang Ave", data["shipping_address"])

	items := data["order_item"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	require.EqualValues(t, "g1", first["game_id"])
	require.EqualValues(t, "Chess", first["game_name"])
	require.EqualValues(t, 2, first["quantity"])
	require.EqualValues(t, 9.99, first["price"])
	require.EqualValues(t, "p1", first["price_id"])
	require.EqualValues(t, "Strategy, Board", first["genre_string"])
}

func TestCreateOrder_DefaultShippingAddress(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order", chessCart())
	require.Equal(t, http.StatusCreated, status)

	data := body["data"].(map[string]interface{})
	require.EqualValues(t, domain.DefaultShippingAddress, data["shipping_address"])
}

func TestCreateOrder_MissingCustomer(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order", map[string]interface{}{
		"customer_email": "c1@example.com",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body["message"], "customer_id is required")
}

func TestListOrders_EmptyIs404(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodGet, server.URL+"/order", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "There are no orders.", body["message"])
}

func TestListOrders_ReturnsAll(t *testing.T) {
	server, _, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		status, _ := doRequest(t, http.MethodPost, server.URL+"/order", chessCart())
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := doRequest(t, http.MethodGet, server.URL+"/order", nil)
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	require.Len(t, data["orders"].([]interface{}), 3)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/orderbyid", map[string]interface{}{"order_id": 42})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "Order not found.", body["message"])

	data := body["data"].(map[string]interface{})
	require.EqualValues(t, 42, data["order_id"])
}

// Сквозной сценарий: создание заказа, удаление, повторный поиск.
func TestScenario_CreateRemoveLookup(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order", chessCart())
	require.Equal(t, http.StatusCreated, status)
	require.EqualValues(t, 201, body["code"])

	data := body["data"].(map[string]interface{})
	orderID := int64(data["order_id"].(float64))
	items := data["order_item"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	require.EqualValues(t, "g1", item["game_id"])
	require.EqualValues(t, "Strategy", item["genre_string"])

	status, body = doRequest(t, http.MethodPost, server.URL+"/removeorder", map[string]interface{}{"order_id": orderID})
	require.Equal(t, http.StatusCreated, status)
	require.EqualValues(t, 201, body["code"])
	require.EqualValues(t, fmt.Sprintf("Successfully removed order %d", orderID), body["message"])

	status, body = doRequest(t, http.MethodPost, server.URL+"/orderbyid", map[string]interface{}{"order_id": orderID})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, 404, body["code"])
}

func TestRemoveOrder_NotFound(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/removeorder", map[string]interface{}{"order_id": 42})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "Order with ID 42 not found.", body["message"])
}

func TestListByGame_FanOut(t *testing.T) {
	server, repo, _ := newTestServer(t)

	// Заказ с двумя позициями одной игры: в выборке появляется дважды.
	order := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	order.Items = []domain.OrderItem{
		{GameID: "g1", GameName: "Chess", Quantity: 1, Price: 9.99, PriceID: "p1", GenreString: "Strategy"},
		{GameID: "g1", GameName: "Chess", Quantity: 3, Price: 9.99, PriceID: "p1", GenreString: "Strategy"},
		{GameID: "g2", GameName: "Tetris", Quantity: 1, Price: 1.99, PriceID: "p2", GenreString: "Puzzle"},
	}
	require.NoError(t, repo.Create(&order))

	status, body := doRequest(t, http.MethodPost, server.URL+"/cidbygame", map[string]interface{}{"game_id": "g1"})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	require.Len(t, data["orders"].([]interface{}), 2)
}

func TestListByGame_NoMatches(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/cidbygame", map[string]interface{}{"game_id": "g404"})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "There are no orders.", body["message"])
}

func TestListByCustomer_DenormalizedRecord(t *testing.T) {
	server, repo, _ := newTestServer(t)

	first := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	first.Items = []domain.OrderItem{
		{GameID: "g1", GameName: "Chess", Quantity: 1, Price: 9.99, PriceID: "p1", GenreString: "Strategy"},
		{GameID: "g2", GameName: "Go", Quantity: 1, Price: 4.99, PriceID: "p2", GenreString: "Board"},
	}
	require.NoError(t, repo.Create(&first))

	second := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	second.Items = []domain.OrderItem{
		{GameID: "g3", GameName: "Tetris", Quantity: 2, Price: 1.99, PriceID: "p3", GenreString: "Puzzle"},
	}
	require.NoError(t, repo.Create(&second))

	status, body := doRequest(t, http.MethodPost, server.URL+"/orderlist", map[string]interface{}{"customer_id": "c1"})
	require.Equal(t, http.StatusOK, status)

	// Ответ без конверта: денормализованная сводка.
	require.EqualValues(t, "c1", body["customer_id"])
	require.EqualValues(t, "c1@example.com", body["customer_email"])
	// Суммарная длина списков равна общему числу позиций обоих заказов.
	require.Len(t, body["game_list"].([]interface{}), 3)
	require.Len(t, body["game_name_list"].([]interface{}), 3)
	// genre_string — от последней встреченной позиции.
	require.EqualValues(t, "Puzzle", body["genre_string"])
}

func TestListByCustomer_NoOrders(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/orderlist", map[string]interface{}{"customer_id": "c404"})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "This user have not made not any orders.", body["message"])
}

func TestUpdatePrice_FirstItemOnly(t *testing.T) {
	server, repo, _ := newTestServer(t)

	order := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	order.Items = []domain.OrderItem{
		{GameID: "g1", GameName: "Chess", Quantity: 1, Price: 9.99, PriceID: "p1", GenreString: "Strategy"},
		{GameID: "g2", GameName: "Tetris", Quantity: 1, Price: 1.99, PriceID: "p2", GenreString: "Puzzle"},
	}
	require.NoError(t, repo.Create(&order))

	// game_id указывает на вторую позицию, но корректируется всегда первая.
	status, body := doRequest(t, http.MethodPut, server.URL+"/updateprice", map[string]interface{}{
		"order_id":  order.OrderID,
		"game_id":   "g2",
		"new_price": 0.5,
	})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	items := data["order_item"].([]interface{})
	require.EqualValues(t, 0.5, items[0].(map[string]interface{})["price"])
	require.EqualValues(t, 1.99, items[1].(map[string]interface{})["price"])
}

func TestUpdatePrice_NotFoundOutcomes(t *testing.T) {
	server, repo, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPut, server.URL+"/updateprice", map[string]interface{}{
		"order_id": 42, "game_id": "g1", "new_price": 0.5,
	})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "Order not found.", body["message"])

	// Заказ без позиций: отдельный исход "позиция не найдена".
	empty := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	require.NoError(t, repo.Create(&empty))

	status, body = doRequest(t, http.MethodPut, server.URL+"/updateprice", map[string]interface{}{
		"order_id": empty.OrderID, "game_id": "g1", "new_price": 0.5,
	})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "Order item not found.", body["message"])
}

func TestBindPaymentSession(t *testing.T) {
	server, repo, _ := newTestServer(t)

	order := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	require.NoError(t, repo.Create(&order))
	_, err := repo.SetPaymentStatus(order.OrderID, domain.PaymentStatusFailed)
	require.NoError(t, err)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order/stripe_session", map[string]interface{}{
		"order_id": order.OrderID, "session_id": "cs_test_123",
	})
	require.Equal(t, http.StatusOK, status)

	// Ответ без конверта: сам заказ.
	require.EqualValues(t, "cs_test_123", body["stripe_session_id"])
	// Привязка сессии всегда переводит оплату в paid, независимо от прежнего статуса.
	require.EqualValues(t, "paid", body["payment_status"])
}

func TestBindPaymentSession_Validation(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order/stripe_session", map[string]interface{}{
		"session_id": "cs_test_123",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.EqualValues(t, "order_id is required", body["error"])

	status, body = doRequest(t, http.MethodPost, server.URL+"/order/stripe_session", map[string]interface{}{
		"order_id": 1,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.EqualValues(t, "stripe_session_id is required", body["error"])

	status, body = doRequest(t, http.MethodPost, server.URL+"/order/stripe_session", map[string]interface{}{
		"order_id": 42, "session_id": "cs_test_123",
	})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "Order not found", body["error"])
}

func TestUpdatePayment(t *testing.T) {
	server, repo, _ := newTestServer(t)

	order := domain.NewOrder("c1", "c1@example.com", "", time.Now().UTC())
	require.NoError(t, repo.Create(&order))

	status, body := doRequest(t, http.MethodPost, server.URL+"/update_payment", map[string]interface{}{
		"order_id": order.OrderID, "payment_status": "failed",
	})
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, "failed", body["payment_status"])
}

func TestUpdatePayment_Validation(t *testing.T) {
	server, _, _ := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/update_payment", map[string]interface{}{
		"payment_status": "paid",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.EqualValues(t, "order_id is required", body["error"])

	status, body = doRequest(t, http.MethodPost, server.URL+"/update_payment", map[string]interface{}{
		"order_id": 1,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.EqualValues(t, "payment_status is required", body["error"])

	// Значение вне перечисления отклоняется.
	status, body = doRequest(t, http.MethodPost, server.URL+"/update_payment", map[string]interface{}{
		"order_id": 1, "payment_status": "refunded",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body["error"], "payment_status must be one of")

	status, body = doRequest(t, http.MethodPost, server.URL+"/update_payment", map[string]interface{}{
		"order_id": 42, "payment_status": "paid",
	})
	require.Equal(t, http.StatusNotFound, status)
	require.EqualValues(t, "Order not found", body["error"])
}

func TestEventsPublished(t *testing.T) {
	server, _, publisher := newTestServer(t)

	status, body := doRequest(t, http.MethodPost, server.URL+"/order", chessCart())
	require.Equal(t, http.StatusCreated, status)

	data := body["data"].(map[string]interface{})
	orderID := int64(data["order_id"].(float64))

	status, _ = doRequest(t, http.MethodPost, server.URL+"/removeorder", map[string]interface{}{"order_id": orderID})
	require.Equal(t, http.StatusCreated, status)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Len(t, publisher.events, 2)
	require.Equal(t, fmt.Sprintf("%d", orderID), publisher.keys[0])
	require.Equal(t, fmt.Sprintf("%d", orderID), publisher.keys[1])
}
