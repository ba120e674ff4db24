package labeling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// SignalGenerationEvent is published on the message bus after a labeling run.
type SignalGenerationEvent struct {
	Symbol string
	Total  int
	New    int
	Counts map[domain.SignalType]int
}

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	assets     AssetDatabaseRepo
	candles    CandleDatabaseRepo
	features   FeatureDatabaseRepo
	signals    SignalDatabaseRepo
	strategies StrategyDatabaseRepo
	users      UserDatabaseRepo
}

func NewLabelManager(
	cfg *config.Config,
	bus evbus.MessageBus,
	assets AssetDatabaseRepo,
	candles CandleDatabaseRepo,
	features FeatureDatabaseRepo,
	signals SignalDatabaseRepo,
	strategies StrategyDatabaseRepo,
	users UserDatabaseRepo,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		assets:     assets,
		candles:    candles,
		features:   features,
		signals:    signals,
		strategies: strategies,
		users:      users,
	}
	return m, nil
}

// Label derives the trading signal for one bar: BUY while the short average
// trades above the long one, SELL while below, HOLD otherwise. Bars with an
// unfilled indicator window always yield HOLD.
func Label(emaShort, emaLong *float64) domain.SignalType {
	if emaShort == nil || emaLong == nil {
		return domain.SignalTypeHold
	}
	if math.IsNaN(*emaShort) || math.IsNaN(*emaLong) {
		return domain.SignalTypeHold
	}

	switch {
	case *emaShort > *emaLong:
		return domain.SignalTypeBuy
	case *emaShort < *emaLong:
		return domain.SignalTypeSell
	default:
		return domain.SignalTypeHold
	}
}

// GenerateSignals labels every stored feature row of the given symbol and
// persists the resulting signals under the configured labeling strategy.
// Bars that already carry a signal for this strategy are left untouched, so
// the run is safe to repeat.
func (m Manager) GenerateSignals(ctx context.Context, symbol string) (int, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	strategy, err := m.EnsureLabelingStrategy(ctx)
	if err != nil {
		return 0, err
	}

	sets, err := m.features.GetFeatureSets(ctx, asset.Id, time.Time{}, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("unable to load features of %s: %w", symbol, err)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	closes, err := m.closePrices(ctx, asset.Id)
	if err != nil {
		return 0, err
	}

	signals := make([]domain.Signal, 0, len(sets))
	counts := map[domain.SignalType]int{}
	for _, set := range sets {
		signalType := Label(set.Ema20, set.Ema50)
		counts[signalType]++

		signal := domain.Signal{
			AssetId:         asset.Id,
			StrategyId:      strategy.Id,
			Timestamp:       set.Timestamp,
			SignalType:      signalType,
			ConfidenceScore: confidence(set.Ema20, set.Ema50),
		}
		if price, ok := closes[set.Timestamp.UTC().Unix()]; ok {
			signal.PriceAtSignal = &price
		}

		signals = append(signals, signal)
	}

	inserted, err := m.signals.SaveSignals(ctx, signals)
	if err != nil {
		return 0, fmt.Errorf("failed to store signals of %s: %w", symbol, err)
	}

	slog.Info("generated signals", "symbol", symbol, "strategy", strategy.Name,
		"total", len(signals), "new", inserted)
	m.bus.Publish(app.TopicSignalsGenerated, SignalGenerationEvent{
		Symbol: symbol,
		Total:  len(signals),
		New:    inserted,
		Counts: counts,
	})

	return inserted, nil
}

// GetSignals returns the stored signals of a symbol within the given time range.
func (m Manager) GetSignals(ctx context.Context, symbol string, from, to time.Time) ([]domain.Signal, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	signals, err := m.signals.GetAssetSignals(ctx, asset.Id, from, to)
	if err != nil {
		return nil, fmt.Errorf("unable to load signals of %s: %w", symbol, err)
	}

	return signals, nil
}

// EnsureLabelingStrategy resolves the configured labeling strategy, creating
// it under the admin account on first use.
func (m Manager) EnsureLabelingStrategy(ctx context.Context) (*domain.Strategy, error) {
	owner, err := m.users.GetUserByUsername(ctx, m.cfg.Core.AdminUser)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve labeling strategy owner: %w", err)
	}

	name := m.cfg.Pipeline.LabelingStrategy

	strategy, err := m.strategies.GetStrategyByName(ctx, owner.Id, name)
	if err == nil {
		return strategy, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unable to load labeling strategy %s: %w", name, err)
	}

	strategy, err = m.strategies.SaveStrategy(ctx, 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = owner.Id
		s.Name = name
		s.Description = "EMA crossover labeling"
		s.ModelVersion = "1"
		s.Parameters = domain.StrategyParameters{"ema_short": 20, "ema_long": 50}
		s.IsActive = true
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create labeling strategy %s: %w", name, err)
	}

	slog.Info("created labeling strategy", "name", name, "owner", owner.Username)

	return strategy, nil
}

func (m Manager) closePrices(ctx context.Context, assetId domain.AssetId) (map[int64]float64, error) {
	candles, err := m.candles.GetCandles(ctx, assetId, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("unable to load candles: %w", err)
	}

	closes := make(map[int64]float64, len(candles))
	for _, c := range candles {
		closes[c.Timestamp.UTC().Unix()] = c.Close
	}

	return closes, nil
}

// confidence grades how far the short average has moved away from the long
// one, clamped to [0, 1].
func confidence(emaShort, emaLong *float64) *float64 {
	if emaShort == nil || emaLong == nil || *emaLong == 0 {
		return nil
	}

	v := math.Abs(*emaShort-*emaLong) / math.Abs(*emaLong)
	if v > 1 {
		v = 1
	}

	return &v
}
