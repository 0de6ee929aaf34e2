// Package metrics 提供 Prometheus helper，暴露订单撮合与结算相关业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// 提交订单计数
	OrdersSubmitted prometheus.Counter
	// 成交订单计数
	OrdersFilled prometheus.Counter
	// 拒绝订单计数
	OrdersRejected prometheus.Counter
	// 取消订单计数
	OrdersCancelled prometheus.Counter
	// 成交记录计数
	ExecutionsTotal prometheus.Counter
	// 结算竞争冲突计数（防御性余额校验失败）
	SettlementConflicts prometheus.Counter
	// 挂单数量
	RestingOrders prometheus.Gauge
	// 成交耗时
	FillDuration prometheus.Histogram
	// 行情 tick 计数
	QuoteTicks prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "orders_submitted_total",
			Help:      "Total orders submitted",
		}),
		OrdersFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "orders_filled_total",
			Help:      "Total orders filled",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total orders rejected by validation",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total orders cancelled",
		}),
		ExecutionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "executions_total",
			Help:      "Total executions recorded",
		}),
		SettlementConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "settlement_conflicts_total",
			Help:      "Fill attempts aborted by the defensive balance check",
		}),
		RestingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "resting_orders",
			Help:      "Number of accepted orders waiting for a quote",
		}),
		FillDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "fill_duration_seconds",
			Help:      "Duration of the atomic fill unit in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QuoteTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: serviceName,
			Name:      "quote_ticks_total",
			Help:      "Total quote ticks accepted by the quote board",
		}),
	}
}

// RecordOrderSubmitted 记录一次订单提交
func (m *Metrics) RecordOrderSubmitted() {
	m.OrdersSubmitted.Inc()
}

// RecordOrderFilled 记录一次订单成交及其耗时
func (m *Metrics) RecordOrderFilled(duration time.Duration) {
	m.OrdersFilled.Inc()
	m.FillDuration.Observe(duration.Seconds())
}

// RecordOrderRejected 记录一次订单拒绝
func (m *Metrics) RecordOrderRejected() {
	m.OrdersRejected.Inc()
}

// RecordOrderCancelled 记录一次订单取消
func (m *Metrics) RecordOrderCancelled() {
	m.OrdersCancelled.Inc()
}

// RecordExecution 记录一条成交记录
func (m *Metrics) RecordExecution() {
	m.ExecutionsTotal.Inc()
}

// RecordSettlementConflict 记录一次结算竞争冲突
func (m *Metrics) RecordSettlementConflict() {
	m.SettlementConflicts.Inc()
}

// AddRestingOrders 调整挂单数量
func (m *Metrics) AddRestingOrders(delta float64) {
	m.RestingOrders.Add(delta)
}

// RecordQuoteTick 记录一次行情 tick
func (m *Metrics) RecordQuoteTick() {
	m.QuoteTicks.Inc()
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.OrdersSubmitted,
		m.OrdersFilled,
		m.OrdersRejected,
		m.OrdersCancelled,
		m.ExecutionsTotal,
		m.SettlementConflicts,
		m.RestingOrders,
		m.FillDuration,
		m.QuoteTicks,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
