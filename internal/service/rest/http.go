package restsvc

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope — стандартная форма ответа: {code, data?, message?}.
// HTTP-статус ответа всегда дублирует поле code.
type envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// errorBody — форма ошибок платёжных endpoint'ов, исторически без конверта.
type errorBody struct {
	Error string `json:"error"`
}

func writeEnvelope(w http.ResponseWriter, code int, data interface{}, message string) {
	writeJSON(w, code, envelope{Code: code, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// statusRecorder запоминает код ответа для метрик.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument оборачивает обработчик учётом количества запросов и длительности.
func (s *OrderService) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(recorder, r)
		s.metrics.RecordRequest(endpoint, recorder.status, time.Since(start))
	}
}
