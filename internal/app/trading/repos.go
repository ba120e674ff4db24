package trading

import (
	"context"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type OrderDatabaseRepo interface {
	GetOrder(ctx context.Context, id domain.OrderId) (*domain.Order, error)
	GetUserOrders(ctx context.Context, userId domain.UserId) ([]domain.Order, error)
	GetStrategyOrders(ctx context.Context, strategyId domain.StrategyId) ([]domain.Order, error)
	SaveOrder(
		ctx context.Context,
		id domain.OrderId,
		updateFunc func(o *domain.Order) (*domain.Order, error),
	) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id domain.OrderId) error
}

type TradeDatabaseRepo interface {
	GetTrade(ctx context.Context, id domain.TradeId) (*domain.Trade, error)
	GetUserTrades(ctx context.Context, userId domain.UserId) ([]domain.Trade, error)
	GetOrderTrades(ctx context.Context, orderId domain.OrderId) ([]domain.Trade, error)
	SaveTrade(
		ctx context.Context,
		id domain.TradeId,
		updateFunc func(t *domain.Trade) (*domain.Trade, error),
	) (*domain.Trade, error)
	SaveFill(
		ctx context.Context,
		orderId domain.OrderId,
		tradeFunc func(t *domain.Trade) (*domain.Trade, error),
		orderFunc func(o *domain.Order) (*domain.Order, error),
	) (*domain.Trade, error)
	DeleteTrade(ctx context.Context, id domain.TradeId) error
}

type StrategyDatabaseRepo interface {
	GetStrategy(ctx context.Context, id domain.StrategyId) (*domain.Strategy, error)
}

type AssetDatabaseRepo interface {
	GetAsset(ctx context.Context, id domain.AssetId) (*domain.Asset, error)
}
