package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	assets  AssetDatabaseRepo
	candles CandleDatabaseRepo
}

func NewAssetManager(
	cfg *config.Config,
	bus evbus.MessageBus,
	assets AssetDatabaseRepo,
	candles CandleDatabaseRepo,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		assets:  assets,
		candles: candles,
	}
	return m, nil
}

// CreateAsset registers a new tradable instrument, admins only.
func (m Manager) CreateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	if asset.Symbol == "" {
		return nil, fmt.Errorf("missing asset symbol: %w", domain.ErrInvalidData)
	}

	if _, err := m.assets.GetAssetBySymbol(ctx, asset.Symbol); err == nil {
		return nil, fmt.Errorf("asset %s already exists: %w", asset.Symbol, domain.ErrDuplicateEntry)
	}

	created, err := m.assets.SaveAsset(ctx, 0, func(a *domain.Asset) (*domain.Asset, error) {
		a.Symbol = asset.Symbol
		a.Name = asset.Name
		a.AssetType = asset.AssetType
		a.Exchange = asset.Exchange
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}

	return created, nil
}

func (m Manager) GetAsset(ctx context.Context, id domain.AssetId) (*domain.Asset, error) {
	asset, err := m.assets.GetAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset %d: %w", id, err)
	}

	return asset, nil
}

func (m Manager) GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	return asset, nil
}

// GetOrCreateAssetBySymbol resolves a symbol to its asset, creating a crypto
// asset on the fly if the symbol is unknown. Used by the import paths.
func (m Manager) GetOrCreateAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	asset, err = m.assets.SaveAsset(ctx, 0, func(a *domain.Asset) (*domain.Asset, error) {
		a.Symbol = symbol
		a.AssetType = domain.AssetTypeCrypto
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create asset %s: %w", symbol, err)
	}

	slog.Info("created asset on first import", "symbol", symbol, "id", asset.Id)

	return asset, nil
}

func (m Manager) GetAllAssets(ctx context.Context) ([]domain.Asset, error) {
	assets, err := m.assets.GetAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load assets: %w", err)
	}

	return assets, nil
}

func (m Manager) FindAssets(ctx context.Context, search string) ([]domain.Asset, error) {
	assets, err := m.assets.FindAssets(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("unable to search assets: %w", err)
	}

	return assets, nil
}

// ImportCandles stores the given OHLCV bars for a symbol. Bars that were
// imported before are skipped, the returned count contains only new bars.
func (m Manager) ImportCandles(ctx context.Context, symbol, source string, candles []domain.Candle) (int, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return 0, err
	}

	if source == "" {
		source = "import"
	}

	asset, err := m.GetOrCreateAssetBySymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}

	for i := range candles {
		candles[i].AssetId = asset.Id
		candles[i].Source = source
		if err := validateCandle(&candles[i]); err != nil {
			return 0, fmt.Errorf("bar %d: %w", i, err)
		}
	}

	imported, err := m.candles.SaveCandles(ctx, candles)
	if err != nil {
		return 0, fmt.Errorf("failed to import candles for %s: %w", symbol, err)
	}

	slog.Info("imported candles", "symbol", symbol, "source", source, "new", imported, "total", len(candles))
	m.bus.Publish(app.TopicCandlesImported, CandleImportEvent{Symbol: symbol, Imported: imported})

	return imported, nil
}

// GetCandles returns the bars of a symbol within the given time range.
func (m Manager) GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]domain.Candle, error) {
	asset, err := m.assets.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset %s: %w", symbol, err)
	}

	candles, err := m.candles.GetCandles(ctx, asset.Id, from, to)
	if err != nil {
		return nil, fmt.Errorf("unable to load candles of %s: %w", symbol, err)
	}

	return candles, nil
}

// CandleImportEvent is published on the message bus after every import.
type CandleImportEvent struct {
	Symbol   string
	Imported int
}

func validateCandle(candle *domain.Candle) error {
	if candle.Timestamp.IsZero() {
		return fmt.Errorf("missing bar timestamp: %w", domain.ErrInvalidData)
	}
	if candle.High < candle.Low {
		return fmt.Errorf("bar high below low: %w", domain.ErrInvalidData)
	}
	if candle.Open < 0 || candle.High < 0 || candle.Low < 0 || candle.Close < 0 || candle.Volume < 0 {
		return fmt.Errorf("negative bar values: %w", domain.ErrInvalidData)
	}
	return nil
}
