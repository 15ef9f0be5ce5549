package restsvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/game-orders/internal/domain"
	"github.com/vladislavdragonenkov/game-orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/game-orders/internal/metrics"
)

// OrderService реализует HTTP JSON API поверх доменного репозитория заказов.
// Каждый обработчик — одно чтение или одна read-modify-write транзакция хранилища.
type OrderService struct {
	repo    domain.OrderRepository
	events  domain.EventPublisher
	metrics *metrics.HTTPMetrics
	logger  *log.Entry
}

// NewOrderService конструирует сервис с зависимостями. events и httpMetrics опциональны.
func NewOrderService(
	repo domain.OrderRepository,
	events domain.EventPublisher,
	httpMetrics *metrics.HTTPMetrics,
	logger *log.Entry,
) *OrderService {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &OrderService{
		repo:    repo,
		events:  events,
		metrics: httpMetrics,
		logger:  logger,
	}
}

// Register вешает обработчики на mux. Пути и методы — существующий внешний контракт.
func (s *OrderService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /order", s.instrument("/order", s.handleListOrders))
	mux.HandleFunc("POST /order", s.instrument("/order", s.handleCreateOrder))
	mux.HandleFunc("POST /orderbyid", s.instrument("/orderbyid", s.handleGetOrderByID))
	mux.HandleFunc("POST /cidbygame", s.instrument("/cidbygame", s.handleListByGame))
	mux.HandleFunc("POST /orderlist", s.instrument("/orderlist", s.handleListByCustomer))
	mux.HandleFunc("PUT /updateprice", s.instrument("/updateprice", s.handleUpdatePrice))
	mux.HandleFunc("POST /removeorder", s.instrument("/removeorder", s.handleRemoveOrder))
	mux.HandleFunc("POST /order/stripe_session", s.instrument("/order/stripe_session", s.handleBindPaymentSession))
	mux.HandleFunc("POST /update_payment", s.instrument("/update_payment", s.handleUpdatePayment))
}

type createOrderRequest struct {
	CustomerID      string     `json:"customer_id"`
	CustomerEmail   string     `json:"customer_email"`
	ShippingAddress string     `json:"shipping_address"`
	Cart            []cartItem `json:"cart"`
}

// cartItem повторяет форму элемента корзины, которую присылает фронтенд каталога.
type cartItem struct {
	GameID      string      `json:"_id"`
	GameName    string      `json:"GameName"`
	Quantity    int         `json:"Quantity"`
	Price       float64     `json:"Price"`
	StripePrice stripePrice `json:"StripePrice"`
	Genre       []string    `json:"Genre"`
}

type stripePrice struct {
	ID string `json:"id"`
}

type orderIDRequest struct {
	OrderID int64 `json:"order_id"`
}

type gameIDRequest struct {
	GameID string `json:"game_id"`
}

type customerIDRequest struct {
	CustomerID string `json:"customer_id"`
}

type updatePriceRequest struct {
	OrderID int64 `json:"order_id"`
	// GameID принимается для совместимости, но на выбор позиции не влияет:
	// корректируется всегда первая позиция заказа.
	GameID   string  `json:"game_id"`
	NewPrice float64 `json:"new_price"`
}

type bindSessionRequest struct {
	OrderID   int64  `json:"order_id"`
	SessionID string `json:"session_id"`
}

type updatePaymentRequest struct {
	OrderID       int64  `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}

// handleListOrders возвращает все заказы. Пустое хранилище — отдельный исход 404.
func (s *OrderService) handleListOrders(w http.ResponseWriter, _ *http.Request) {
	orders, err := s.repo.ListAll()
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while retrieving orders. "+err.Error())
		return
	}
	if len(orders) == 0 {
		writeEnvelope(w, http.StatusNotFound, nil, "There are no orders.")
		return
	}

	writeEnvelope(w, http.StatusOK, map[string]interface{}{"orders": orders}, "")
}

func (s *OrderService) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	var req orderIDRequest
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.repo.Get(req.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeEnvelope(w, http.StatusNotFound, map[string]interface{}{"order_id": req.OrderID}, "Order not found.")
			return
		}
		s.logger.WithError(err).WithField("order_id", req.OrderID).Error("failed to load order")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while retrieving the order. "+err.Error())
		return
	}

	writeEnvelope(w, http.StatusOK, order, "")
}

func (s *OrderService) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !s.decode(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	order := domain.NewOrder(req.CustomerID, req.CustomerEmail, req.ShippingAddress, now)
	order.Items = make([]domain.OrderItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		order.Items = append(order.Items, domain.OrderItem{
			GameID:      item.GameID,
			GameName:    item.GameName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			PriceID:     item.StripePrice.ID,
			GenreString: domain.JoinGenres(item.Genre),
		})
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		writeEnvelope(w, http.StatusBadRequest, nil, joinErrors(errs))
		return
	}

	if err := s.repo.Create(&order); err != nil {
		s.logger.WithError(err).Error("failed to create order")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while creating the order. "+err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.publish(kafka.EventTypeOrderCreated, order)

	writeEnvelope(w, http.StatusCreated, order, "")
}

// handleListByGame возвращает заказы, содержащие указанную игру: по одной
// записи на каждую совпавшую позицию.
func (s *OrderService) handleListByGame(w http.ResponseWriter, r *http.Request) {
	var req gameIDRequest
	if !s.decode(w, r, &req) {
		return
	}

	matches, err := s.repo.ListByGame(req.GameID)
	if err != nil {
		s.logger.WithError(err).WithField("game_id", req.GameID).Error("failed to list orders by game")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while retrieving orders. "+err.Error())
		return
	}
	if len(matches) == 0 {
		writeEnvelope(w, http.StatusNotFound, nil, "There are no orders.")
		return
	}

	orders := make([]domain.Order, 0, len(matches))
	for _, match := range matches {
		orders = append(orders, match.Order)
	}
	writeEnvelope(w, http.StatusOK, map[string]interface{}{"orders": orders}, "")
}

// handleListByCustomer возвращает денормализованную сводку заказов клиента.
// Успешный ответ — без конверта: существующий внешний контракт.
func (s *OrderService) handleListByCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerIDRequest
	if !s.decode(w, r, &req) {
		return
	}

	orders, err := s.repo.ListByCustomer(req.CustomerID)
	if err != nil {
		s.logger.WithError(err).WithField("customer_id", req.CustomerID).Error("failed to list orders by customer")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while retrieving orders. "+err.Error())
		return
	}
	if len(orders) == 0 {
		writeEnvelope(w, http.StatusNotFound, nil, "This user have not made not any orders.")
		return
	}

	writeJSON(w, http.StatusOK, domain.SummarizeCustomer(req.CustomerID, orders))
}

func (s *OrderService) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req updatePriceRequest
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.repo.UpdateFirstItemPrice(req.OrderID, req.NewPrice)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			writeEnvelope(w, http.StatusNotFound, map[string]interface{}{"order_id": req.OrderID}, "Order not found.")
		case errors.Is(err, domain.ErrOrderItemNotFound):
			writeEnvelope(w, http.StatusNotFound, map[string]interface{}{"order_id": req.OrderID}, "Order item not found.")
		default:
			s.logger.WithError(err).WithField("order_id", req.OrderID).Error("failed to update item price")
			writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while updating the price. "+err.Error())
		}
		return
	}

	writeEnvelope(w, http.StatusOK, order, "")
}

// handleRemoveOrder удаляет заказ вместе с позициями. Код успешного ответа 201
// сохранён ради совместимости с существующими клиентами.
func (s *OrderService) handleRemoveOrder(w http.ResponseWriter, r *http.Request) {
	var req orderIDRequest
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.repo.Get(req.OrderID)
	if err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
		s.logger.WithError(err).WithField("order_id", req.OrderID).Error("failed to load order")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while removing the order. "+err.Error())
		return
	}

	if err := s.repo.Delete(req.OrderID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeEnvelope(w, http.StatusNotFound, nil, fmt.Sprintf("Order with ID %d not found.", req.OrderID))
			return
		}
		s.logger.WithError(err).WithField("order_id", req.OrderID).Error("failed to remove order")
		writeEnvelope(w, http.StatusInternalServerError, nil, "An error occurred while removing the order. "+err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOrderRemoved()
	}
	s.publish(kafka.EventTypeOrderRemoved, order)

	writeEnvelope(w, http.StatusCreated, nil, fmt.Sprintf("Successfully removed order %d", req.OrderID))
}

// handleBindPaymentSession привязывает платёжную сессию к заказу. Ответы без
// конверта — существующий контракт платёжной интеграции.
func (s *OrderService) handleBindPaymentSession(w http.ResponseWriter, r *http.Request) {
	var req bindSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "stripe_session_id is required")
		return
	}

	order, err := s.repo.BindPaymentSession(req.OrderID, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		s.logger.WithError(err).WithField("order_id", req.OrderID).Error("failed to bind payment session")
		writeError(w, http.StatusInternalServerError, "failed to bind payment session")
		return
	}

	s.publish(kafka.EventTypePaymentUpdated, order)

	writeJSON(w, http.StatusOK, order)
}

// handleUpdatePayment записывает статус оплаты, сообщённый платёжным сервисом.
// Значение проверяется по перечислению; исходная система принимала любую строку.
func (s *OrderService) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	if req.PaymentStatus == "" {
		writeError(w, http.StatusBadRequest, "payment_status is required")
		return
	}

	status := domain.PaymentStatus(req.PaymentStatus)
	if !domain.ValidPaymentStatus(status) {
		writeError(w, http.StatusBadRequest, "payment_status must be one of pending, paid, failed")
		return
	}

	order, err := s.repo.SetPaymentStatus(req.OrderID, status)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		s.logger.WithError(err).WithField("order_id", req.OrderID).Error("failed to update payment status")
		writeError(w, http.StatusInternalServerError, "failed to update payment status")
		return
	}

	s.publish(kafka.EventTypePaymentUpdated, order)

	writeJSON(w, http.StatusOK, order)
}

// decode разбирает JSON-тело запроса; при ошибке пишет 400-конверт и возвращает false.
func (s *OrderService) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "invalid request body")
		return false
	}
	return true
}

// publish отправляет событие заказа best-effort: ошибка публикации логируется,
// но не откатывает уже зафиксированную запись и не возвращается клиенту.
func (s *OrderService) publish(eventType kafka.EventType, order domain.Order) {
	if s.events == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.OrderID, order.CustomerID, string(order.PaymentStatus))
	key := strconv.FormatInt(order.OrderID, 10)
	if err := s.events.PublishEvent(kafka.TopicOrderEvents, key, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.OrderID,
			"event":    eventType,
		}).Warn("failed to publish order event")
	}
}

func joinErrors(errs []error) string {
	msg := ""
	for i, err := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}
