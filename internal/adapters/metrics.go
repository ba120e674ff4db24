package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type MetricsServer struct {
	*http.Server

	auditEntriesTotal    *prometheus.CounterVec
	candlesImportedTotal *prometheus.CounterVec
	signalsTotal         *prometheus.CounterVec
	ordersTotal          *prometheus.CounterVec
	tradesTotal          prometheus.Counter
	loginsTotal          prometheus.Counter
}

// NewMetricsServer returns a new prometheus server
func NewMetricsServer(cfg *config.Config) *MetricsServer {
	reg := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		Server: &http.Server{
			Addr:    cfg.Statistics.ListeningAddress,
			Handler: mux,
		},

		auditEntriesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_audit_entries_total",
				Help: "Audit trail entries written, by table and action.",
			}, []string{"table", "action"},
		),
		candlesImportedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_candles_imported_total",
				Help: "OHLCV bars imported, by asset symbol.",
			}, []string{"symbol"},
		),
		signalsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_signals_total",
				Help: "Trading signals generated, by signal type.",
			}, []string{"signal_type"},
		),
		ordersTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_orders_total",
				Help: "Orders placed, by side.",
			}, []string{"side"},
		),
		tradesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "trader_trades_total",
				Help: "Trade fills recorded.",
			},
		),
		loginsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "trader_logins_total",
				Help: "Successful user logins.",
			},
		),
	}
}

// Run starts the metrics server. The function blocks until the context is cancelled.
func (m *MetricsServer) Run(ctx context.Context) {
	go func() {
		if err := m.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics service exited", "address", m.Addr, "error", err)
		}
	}()

	slog.Info("started metrics service", "address", m.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics service shutdown failed", "address", m.Addr, "error", err)
	} else {
		slog.Info("metrics service shutdown gracefully", "address", m.Addr)
	}
}

// CountAuditEntry counts one written audit trail entry.
func (m *MetricsServer) CountAuditEntry(table string, action domain.AuditAction) {
	m.auditEntriesTotal.WithLabelValues(table, string(action)).Inc()
}

// CountImportedCandles counts newly imported OHLCV bars for the given symbol.
func (m *MetricsServer) CountImportedCandles(symbol string, count int) {
	m.candlesImportedTotal.WithLabelValues(symbol).Add(float64(count))
}

// CountSignals counts generated trading signals of one type.
func (m *MetricsServer) CountSignals(signalType domain.SignalType, count int) {
	m.signalsTotal.WithLabelValues(string(signalType)).Add(float64(count))
}

// CountOrder counts one placed order.
func (m *MetricsServer) CountOrder(side domain.OrderSide) {
	m.ordersTotal.WithLabelValues(string(side)).Inc()
}

// CountTrade counts one recorded trade fill.
func (m *MetricsServer) CountTrade() {
	m.tradesTotal.Inc()
}

// CountLogin counts one successful login.
func (m *MetricsServer) CountLogin() {
	m.loginsTotal.Inc()
}
