// Package metrics собирает метрики Prometheus и отдаёт их на /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// исходы оформления заказа
const (
	CheckoutSuccess     = "success"
	CheckoutEmptyCart   = "empty_cart"
	CheckoutUnavailable = "unavailable"
	CheckoutInvalid     = "invalid"
	CheckoutFailed      = "failed"
)

// MetricsCollector — то, что нужно сервисному слою и HTTP-middleware.
type MetricsCollector interface {
	RecordCheckout(outcome string)
	RecordOrderTotal(total int64)
	RecordHTTPStatus(statusCode int)
	RecordHTTPLatency(duration time.Duration)
}

// Collector реализует MetricsCollector поверх Prometheus.
type Collector struct {
	checkouts   *prometheus.CounterVec
	orderTotal  prometheus.Histogram
	httpStatus  *prometheus.CounterVec
	httpLatency prometheus.Histogram
}

// NewCollector создаёт Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecofinds_checkout_total",
			Help: "Количество оформлений заказа по исходу",
		}, []string{"outcome"}),
		orderTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecofinds_order_total_cents",
			Help:    "Сумма оформленного заказа в центах",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecofinds_http_responses_total",
			Help: "HTTP-ответы по коду статуса",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecofinds_http_request_duration_seconds",
			Help:    "Длительность обработки HTTP-запроса",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.checkouts,
		c.orderTotal,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordCheckout(outcome string) {
	c.checkouts.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordOrderTotal(total int64) {
	c.orderTotal.Observe(float64(total))
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordHTTPLatency(duration time.Duration) {
	c.httpLatency.Observe(duration.Seconds())
}

// Handler отдаёт метрики для скрейпа Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware считает коды ответов и время обработки каждого запроса.
func Middleware(c MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			c.RecordHTTPStatus(status)
			c.RecordHTTPLatency(time.Since(start))
		})
	}
}

// Nop ничего не записывает, удобно в тестах и когда метрики выключены.
type Nop struct{}

func (Nop) RecordCheckout(string) {}
func (Nop) RecordOrderTotal(int64) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordHTTPLatency(time.Duration) {}
