package analytics

import (
	"context"
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type TradeDatabaseRepo interface {
	GetUserTrades(ctx context.Context, userId domain.UserId) ([]domain.Trade, error)
	GetTradesInRange(ctx context.Context, from, to time.Time) ([]domain.Trade, error)
}

type OrderDatabaseRepo interface {
	GetStrategyOrders(ctx context.Context, strategyId domain.StrategyId) ([]domain.Order, error)
}

type AnalyticsDatabaseRepo interface {
	GetUserTradeAnalytics(ctx context.Context, userId domain.UserId) ([]domain.TradeAnalytics, error)
	SaveTradeAnalytics(ctx context.Context, analytics *domain.TradeAnalytics) error

	ReplaceDailyProfits(ctx context.Context, day time.Time, profits []domain.DailyProfit) error
	GetUserDailyProfits(ctx context.Context, userId domain.UserId, from, to time.Time) ([]domain.DailyProfit, error)
	GetDailyProfitsInRange(ctx context.Context, from, to time.Time) ([]domain.DailyProfit, error)
	ReplaceMonthlySummaries(ctx context.Context, month time.Time, summaries []domain.MonthlySummary) error
	GetUserMonthlySummaries(ctx context.Context, userId domain.UserId, from, to time.Time) (
		[]domain.MonthlySummary, error)
}
