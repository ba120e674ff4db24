package strategies

import (
	"context"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type StrategyDatabaseRepo interface {
	GetStrategy(ctx context.Context, id domain.StrategyId) (*domain.Strategy, error)
	GetStrategyByName(ctx context.Context, userId domain.UserId, name string) (*domain.Strategy, error)
	GetUserStrategies(ctx context.Context, userId domain.UserId) ([]domain.Strategy, error)
	GetAllStrategies(ctx context.Context) ([]domain.Strategy, error)
	SaveStrategy(
		ctx context.Context,
		id domain.StrategyId,
		updateFunc func(s *domain.Strategy) (*domain.Strategy, error),
	) (*domain.Strategy, error)
	DeleteStrategy(ctx context.Context, id domain.StrategyId) error
}

type BacktestDatabaseRepo interface {
	GetBacktestResult(ctx context.Context, id domain.BacktestResultId) (*domain.BacktestResult, error)
	GetStrategyBacktestResults(ctx context.Context, strategyId domain.StrategyId) ([]domain.BacktestResult, error)
	SaveBacktestResult(
		ctx context.Context,
		id domain.BacktestResultId,
		updateFunc func(b *domain.BacktestResult) (*domain.BacktestResult, error),
	) (*domain.BacktestResult, error)
	DeleteBacktestResult(ctx context.Context, id domain.BacktestResultId) error
}
