package labeling

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
	GetFeatureSets(ctx context.Context, assetId domain.AssetId, from, to time.Time) ([]domain.FeatureSet, error)
}

type SignalDatabaseRepo interface {
	SaveSignals(ctx context.Context, signals []domain.Signal) (int, error)
	GetAssetSignals(ctx context.Context, assetId domain.AssetId, from, to time.Time) ([]domain.Signal, error)
	GetStrategySignals(ctx context.Context, strategyId domain.StrategyId) ([]domain.Signal, error)
}

type StrategyDatabaseRepo interface {
	GetStrategyByName(ctx context.Context, userId domain.UserId, name string) (*domain.Strategy, error)
	SaveStrategy(
		ctx context.Context,
		id domain.StrategyId,
		updateFunc func(s *domain.Strategy) (*domain.Strategy, error),
	) (*domain.Strategy, error)
}

type UserDatabaseRepo interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
