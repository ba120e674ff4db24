package assets

import (
	"context"
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type AssetDatabaseRepo interface {
	GetAsset(ctx context.Context, id domain.AssetId) (*domain.Asset, error)
	GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)
	GetAllAssets(ctx context.Context) ([]domain.Asset, error)
	FindAssets(ctx context.Context, search string) ([]domain.Asset, error)
	SaveAsset(
		ctx context.Context,
		id domain.AssetId,
		updateFunc func(a *domain.Asset) (*domain.Asset, error),
	) (*domain.Asset, error)
}

type CandleDatabaseRepo interface {
	SaveCandles(ctx context.Context, candles []domain.Candle) (int, error)
	GetCandles(ctx context.Context, assetId domain.AssetId, from, to time.Time) ([]domain.Candle, error)
	GetLatestCandle(ctx context.Context, assetId domain.AssetId) (*domain.Candle, error)
}
