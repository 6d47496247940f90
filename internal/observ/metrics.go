package observ

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playhub",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playhub",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	chatReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playhub",
		Subsystem: "chat",
		Name:      "replies_total",
		Help:      "Chat replies by game and outcome.",
	}, []string{"game", "status"})

	chatLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playhub",
		Subsystem: "chat",
		Name:      "reply_duration_seconds",
		Help:      "Time to produce a chat reply, simulated latency included.",
		Buckets:   prometheus.LinearBuckets(0.25, 0.25, 10),
	}, []string{"game"})

	chatTokens = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "playhub",
		Subsystem: "chat",
		Name:      "tokens_total",
		Help:      "Tokens generated by the assistant.",
	})

	chatSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "playhub",
		Subsystem: "chat",
		Name:      "active_sessions",
		Help:      "Chat sessions alive after the last sweep.",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "playhub",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-user rate limiter.",
	})
)

// Metrics records application metrics into the default Prometheus registry.
type Metrics struct{}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	rateLimited.Inc()
}

func (m *Metrics) ObserveChatReply(game string, latency time.Duration, tokens int, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	chatReplies.WithLabelValues(game, status).Inc()
	chatLatency.WithLabelValues(game).Observe(latency.Seconds())
	chatTokens.Add(float64(tokens))
}

func (m *Metrics) SetChatSessions(n int) {
	chatSessions.Set(float64(n))
}

// MetricsServer exposes the registry and a liveness probe on their own port.
type MetricsServer struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return &MetricsServer{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background until Shutdown.
func (s *MetricsServer) Start() {
	go func() {
		s.logger.Info("metrics server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
