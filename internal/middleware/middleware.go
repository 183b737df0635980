// Package middleware wraps the inventory router: request tagging, panic
// recovery, metrics, access logging, CORS and the operator check on
// mutating requests.
//
// RequestID must be the outermost middleware. It attaches the per-request
// record that Auth fills in and that Recovery, Metrics and Logging read
// once the handler has returned.
package middleware

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// RequestIDHeader is the HTTP header name for request ID.
const RequestIDHeader = "X-Request-ID"

// anonymous labels requests that carried no operator.
const anonymous = "anonymous"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gildedrose_http_requests_total",
			Help: "HTTP requests by route, status and how the operator authenticated",
		},
		[]string{"method", "route", "status", "auth"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gildedrose_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gildedrose_http_requests_in_flight",
			Help: "HTTP requests currently being served, websocket sessions excluded",
		},
	)

	websocketUpgrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gildedrose_websocket_upgrades_total",
			Help: "Stock feed websocket upgrade attempts by resulting status",
		},
		[]string{"status"},
	)

	panicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gildedrose_http_panics_total",
			Help: "Handler panics recovered",
		},
	)
)

type contextKey string

const requestInfoKey contextKey = "request_info"

// requestInfo is shared by every middleware serving one request.
type requestInfo struct {
	id       string
	operator *auth.Operator
}

func infoFrom(r *http.Request) *requestInfo {
	info, _ := r.Context().Value(requestInfoKey).(*requestInfo)
	return info
}

// RequestIDFromContext returns the ID assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

func requestID(r *http.Request) string {
	if info := infoFrom(r); info != nil {
		return info.id
	}
	return ""
}

// operatorOf returns the operator Auth accepted for r, if any.
func operatorOf(r *http.Request) *auth.Operator {
	if info := infoFrom(r); info != nil {
		return info.operator
	}
	return nil
}

func authLabel(r *http.Request) string {
	if op := operatorOf(r); op != nil {
		return string(op.Method)
	}
	return anonymous
}

// responseWriter records the status code written by the wrapped handler.
// A hijacked connection is a websocket session and reports 101.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	hijacked   bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrader take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, buf, err := hijacker.Hijack()
	if err == nil {
		rw.hijacked = true
		rw.written = true
		rw.statusCode = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// RequestID tags each request with an ID, reusing the caller's
// X-Request-ID when present.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := context.WithValue(r.Context(), requestInfoKey, &requestInfo{id: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recovery turns a handler panic into a JSON 500 carrying the request ID.
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					panicsTotal.Inc()
					logger.Error("panic recovered",
						zap.Any("error", err),
						zap.String("stack", string(debug.Stack())),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.String("request_id", requestID(r)),
					)
					writeError(w, http.StatusInternalServerError, "internal server error", requestID(r))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records per-route request metrics. Websocket upgrades are
// counted separately: the session outlives the handler, so its duration
// would skew the histogram.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)

			if isWebSocketUpgrade(r) {
				next.ServeHTTP(rw, r)
				websocketUpgrades.WithLabelValues(strconv.Itoa(rw.statusCode)).Inc()
				return
			}

			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode), authLabel(r)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// quietPaths are logged at Debug level; health checks and scrapes hit them constantly.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logging writes one access log entry per request, naming the operator
// behind any stock change.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", routeTemplate(r)),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("request_id", requestID(r)),
			}
			if op := operatorOf(r); op != nil {
				fields = append(fields,
					zap.String("operator", op.Name),
					zap.String("auth_method", string(op.Method)),
				)
			}

			switch {
			case rw.hijacked:
				logger.Info("stock feed session opened", fields...)
			case quietPaths[r.URL.Path]:
				logger.Debug("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		"Content-Type",
		"Authorization",
		auth.APIKeyHeader,
		RequestIDHeader,
	}, ", ")
)

// CORS lets shop dashboards served from allowedOrigins call the API.
// "*" admits any origin but without credentials. Preflight requests are
// answered here and never reach Auth or the handlers.
func CORS(allowedOrigins ...string) Middleware {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[strings.TrimSpace(origin)] = true
	}
	anyOrigin := origins["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			switch {
			case origin == "":
			case origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// routeTemplate returns the matched mux route template so item IDs do not
// become metric label values.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// writeError writes the API's error body.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Code:    status,
		Message: message,
		Details: details,
	})
}
