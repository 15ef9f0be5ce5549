package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status — состояние компонента или сервиса в целом.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc выполняет проверку одного компонента. Ненулевая ошибка — unhealthy.
type CheckFunc func() error

// CheckResult — результат одной проверки в ответе /healthz.
type CheckResult struct {
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response — тело ответа /healthz.
type Response struct {
	Status        Status                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	Checks        map[string]CheckResult `json:"checks,omitempty"`
	Version       string                 `json:"version,omitempty"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
}

// Handler агрегирует проверки компонентов и отдаёт их по HTTP.
type Handler struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	version   string
	startTime time.Time
}

// NewHandler создаёт handler без зарегистрированных проверок.
func NewHandler(version string) *Handler {
	return &Handler{
		checks:    make(map[string]CheckFunc),
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterCheck добавляет проверку компонента под именем name.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) snapshot() map[string]CheckFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	return checks
}

func runCheck(check CheckFunc) CheckResult {
	start := time.Now()
	err := check()
	result := CheckResult{
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// ServeHTTP выполняет все проверки и возвращает агрегированный отчёт.
// Любой unhealthy компонент переводит ответ в 503.
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	results := make(map[string]CheckResult)
	overall := StatusHealthy

	for name, check := range h.snapshot() {
		result := runCheck(check)
		results[name] = result
		if result.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		}
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Status:        overall,
		Timestamp:     time.Now(),
		Checks:        results,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// LivenessHandler — liveness probe, всегда 200.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler — readiness probe: 503, пока хотя бы одна проверка падает.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	for _, check := range h.snapshot() {
		if err := check(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
