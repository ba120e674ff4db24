package metrics

import (
	"fmt"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/app/assets"
	"github.com/ai-trader/trader-portal/internal/app/labeling"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// Exporter is the sink that collected counters are pushed to.
type Exporter interface {
	CountImportedCandles(symbol string, count int)
	CountSignals(signalType domain.SignalType, count int)
	CountOrder(side domain.OrderSide)
	CountTrade()
	CountLogin()
}

// Collector listens on the message bus and translates application events
// into prometheus counters.
type Collector struct {
	cfg *config.Config
	bus evbus.MessageBus

	exporter Exporter
}

func NewCollector(cfg *config.Config, bus evbus.MessageBus, exporter Exporter) (*Collector, error) {
	c := &Collector{
		cfg: cfg,
		bus: bus,

		exporter: exporter,
	}

	if err := c.connectToMessageBus(); err != nil {
		return nil, fmt.Errorf("failed to setup message bus: %w", err)
	}

	return c, nil
}

func (c *Collector) connectToMessageBus() error {
	if !c.cfg.Statistics.Enabled {
		return nil // nothing to do
	}

	if err := c.bus.Subscribe(app.TopicCandlesImported, c.candlesImportedEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicCandlesImported, err)
	}
	if err := c.bus.Subscribe(app.TopicSignalsGenerated, c.signalsGeneratedEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicSignalsGenerated, err)
	}
	if err := c.bus.Subscribe(app.TopicOrderPlaced, c.orderPlacedEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicOrderPlaced, err)
	}
	if err := c.bus.Subscribe(app.TopicTradeRecorded, c.tradeRecordedEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicTradeRecorded, err)
	}
	if err := c.bus.Subscribe(app.TopicAuthLogin, c.userLoggedInEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", app.TopicAuthLogin, err)
	}

	return nil
}

func (c *Collector) candlesImportedEvent(event assets.CandleImportEvent) {
	c.exporter.CountImportedCandles(event.Symbol, event.Imported)
}

func (c *Collector) signalsGeneratedEvent(event labeling.SignalGenerationEvent) {
	for signalType, count := range event.Counts {
		c.exporter.CountSignals(signalType, count)
	}
}

func (c *Collector) orderPlacedEvent(order *domain.Order) {
	c.exporter.CountOrder(order.Side)
}

func (c *Collector) tradeRecordedEvent(_ *domain.Trade) {
	c.exporter.CountTrade()
}

func (c *Collector) userLoggedInEvent(_ domain.UserId) {
	c.exporter.CountLogin()
}
