package features

import (
	"context"
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type AssetDatabaseRepo interface {
	GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)
}

type CandleDatabaseRepo interface {
	GetCandles(ctx context.Context, assetId domain.AssetId, from, to time.Time) ([]domain.Candle, error)
}

type FeatureDatabaseRepo interface {
	SaveFeatureSets(ctx context.Context, sets []domain.FeatureSet) error
	GetFeatureSets(ctx context.Context, assetId domain.AssetId, from, to time.Time) ([]domain.FeatureSet, error)
}
