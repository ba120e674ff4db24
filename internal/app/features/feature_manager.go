package features

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// Indicator windows, matching the common charting defaults.
const (
	rsiPeriod      = 14
	smaShortPeriod = 20
	smaLongPeriod  = 50
	emaShortPeriod = 20
	emaLongPeriod  = 50
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	atrPeriod      = 14
	bbPeriod       = 20
	bbWidth        = 2.0
)

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	assets   AssetDatabaseRepo
	candles  CandleDatabaseRepo
	features FeatureDatabaseRepo
}

func NewFeatureManager(
	cfg *config.Config,
	bus evbus.MessageBus,
	assets AssetDatabaseRepo,
	candles CandleDatabaseRepo,
	features FeatureDatabaseRepo,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		assets:   assets,
		candles:  candles,
		features: features,
	}
	return m, nil
}

// ComputeFeatures recomputes the technical indicators for all stored bars of
// the given symbol and persists one feature row per bar. Re-running replaces
// previously computed values.
func (m Manager) ComputeFeatures(ctx context.Context, symbol string) (int, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	candles, err := m.candles.GetCandles(ctx, asset.Id, time.Time{}, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("unable to load candles of %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return 0, nil
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	rsi := Rsi(closes, rsiPeriod)
	smaShort := Sma(closes, smaShortPeriod)
	smaLong := Sma(closes, smaLongPeriod)
	emaShort := Ema(closes, emaShortPeriod)
	emaLong := Ema(closes, emaLongPeriod)
	macdLine, macdSig, macdHist := Macd(closes, macdFast, macdSlow, macdSignal)
	atr := Atr(highs, lows, closes, atrPeriod)
	bbUpper, bbMiddle, bbLower := Bollinger(closes, bbPeriod, bbWidth)

	sets := make([]domain.FeatureSet, len(candles))
	for i := range candles {
		sets[i] = domain.FeatureSet{
			AssetId:    asset.Id,
			Timestamp:  candles[i].Timestamp,
			Rsi14:      nullable(rsi[i]),
			Sma20:      nullable(smaShort[i]),
			Sma50:      nullable(smaLong[i]),
			Ema20:      nullable(emaShort[i]),
			Ema50:      nullable(emaLong[i]),
			MacdLine:   nullable(macdLine[i]),
			MacdSignal: nullable(macdSig[i]),
			MacdHist:   nullable(macdHist[i]),
			Atr14:      nullable(atr[i]),
			BbUpper:    nullable(bbUpper[i]),
			BbMiddle:   nullable(bbMiddle[i]),
			BbLower:    nullable(bbLower[i]),
		}
	}

	if err := m.features.SaveFeatureSets(ctx, sets); err != nil {
		return 0, fmt.Errorf("failed to store features of %s: %w", symbol, err)
	}

	slog.Info("computed features", "symbol", symbol, "bars", len(sets))

	return len(sets), nil
}

// GetFeatures returns the stored indicator rows of a symbol within the given time range.
func (m Manager) GetFeatures(ctx context.Context, symbol string, from, to time.Time) ([]domain.FeatureSet, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	sets, err := m.features.GetFeatureSets(ctx, asset.Id, from, to)
	if err != nil {
		return nil, fmt.Errorf("unable to load features of %s: %w", symbol, err)
	}

	return sets, nil
}

// nullable converts NaN indicator values into database nulls.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
