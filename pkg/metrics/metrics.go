// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stockr/trading/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 收到的行情 tick 计数
	TicksTotal prometheus.Counter
	// 丢弃的异常帧计数
	MalformedFramesTotal prometheus.Counter
	// 成功成交的订单计数
	ExecutionsTotal prometheus.Counter
	// 执行失败的订单计数
	ExecutionFailuresTotal prometheus.Counter

	// 已创建订单计数
	OrdersCreated prometheus.Counter
	// 已取消订单计数
	OrdersCancelled prometheus.Counter
	// 准入被拒订单计数
	OrdersRejected prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "ticks_total",
			Help:      "Total price ticks received from the exchange feed",
		}),
		MalformedFramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "malformed_frames_total",
			Help:      "Total malformed wire frames dropped",
		}),
		ExecutionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "executions_total",
			Help:      "Total limit orders executed",
		}),
		ExecutionFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "execution_failures_total",
			Help:      "Total limit order executions that failed",
		}),

		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "orders_created_total",
			Help:      "Total limit orders admitted",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total limit orders cancelled",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockr",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total limit orders rejected at admission",
		}),
	}
}

// Register 注册全部指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TicksTotal,
		m.MalformedFramesTotal,
		m.ExecutionsTotal,
		m.ExecutionFailuresTotal,
		m.OrdersCreated,
		m.OrdersCancelled,
		m.OrdersRejected,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// StartHTTPServer 启动 Prometheus 指标 HTTP 服务
func StartHTTPServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(context.Background(), "Metrics HTTP server error", "error", err)
		}
	}()

	logger.Info(context.Background(), "Metrics HTTP server started", "addr", addr, "path", path)
	return nil
}
