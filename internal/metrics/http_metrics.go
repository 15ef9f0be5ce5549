package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics содержит метрики HTTP-слоя сервиса заказов.
type HTTPMetrics struct {
	// Счётчики запросов и длительности по endpoint'ам
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Счётчики доменных операций
	ordersCreated prometheus.Counter
	ordersRemoved prometheus.Counter
}

// NewHTTPMetrics создаёт новый экземпляр метрик HTTP-слоя.
func NewHTTPMetrics() *HTTPMetrics {
	return newHTTPMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newHTTPMetricsWithRegisterer(registerer prometheus.Registerer) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &HTTPMetrics{
		requestsTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_http_requests_total",
			Help: "Total number of HTTP requests handled, by endpoint and response code",
		}, []string{"endpoint", "code"}),
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orders_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"endpoint"}),
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_removed_total",
			Help: "Total number of orders removed",
		}),
	}
}

// RecordRequest записывает обработанный запрос и его длительность.
func (m *HTTPMetrics) RecordRequest(endpoint string, code int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *HTTPMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderRemoved увеличивает счётчик удалённых заказов.
func (m *HTTPMetrics) RecordOrderRemoved() {
	m.ordersRemoved.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
