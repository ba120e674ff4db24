package analytics

import (
	"context"
	"fmt"
	"time"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	trades    TradeDatabaseRepo
	orders    OrderDatabaseRepo
	analytics AnalyticsDatabaseRepo
}

func NewAnalyticsManager(
	cfg *config.Config,
	bus evbus.MessageBus,
	trades TradeDatabaseRepo,
	orders OrderDatabaseRepo,
	analytics AnalyticsDatabaseRepo,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		trades:    trades,
		orders:    orders,
		analytics: analytics,
	}
	return m, nil
}

// ComputeAnalytics aggregates the fills of a user into a stored performance
// snapshot. If a strategy id is given, only fills of orders placed by that
// strategy are considered.
func (m Manager) ComputeAnalytics(ctx context.Context, userId domain.UserId, strategyId *domain.StrategyId) (
	*domain.TradeAnalytics,
	error,
) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	trades, err := m.trades.GetUserTrades(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to load trades of user %d: %w", userId, err)
	}

	if strategyId != nil {
		trades, err = m.filterByStrategy(ctx, trades, *strategyId)
		if err != nil {
			return nil, err
		}
	}

	snapshot := &domain.TradeAnalytics{
		UserId:       userId,
		StrategyId:   strategyId,
		TotalTrades:  len(trades),
		AnalysisDate: time.Now().UTC(),
	}

	wins := 0
	for _, trade := range trades {
		pnl := trade.Pnl()
		snapshot.TotalPnl += pnl
		if pnl > 0 {
			wins++
		}
	}
	if len(trades) > 0 {
		snapshot.WinRate = float64(wins) / float64(len(trades))
	}

	if err := m.analytics.SaveTradeAnalytics(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store analytics snapshot: %w", err)
	}

	return snapshot, nil
}

// GetAnalytics returns the stored snapshots of a user, newest first.
func (m Manager) GetAnalytics(ctx context.Context, userId domain.UserId) ([]domain.TradeAnalytics, error) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	snapshots, err := m.analytics.GetUserTradeAnalytics(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to load analytics of user %d: %w", userId, err)
	}

	return snapshots, nil
}

// ComputeDailyProfits aggregates the fills of one trading day into per-user
// daily profit rows. Profit is the signed cash flow of the day's fills, volume
// the traded value of both sides. Existing rows of the day are replaced, so
// re-running a day is safe. A zero day defaults to yesterday (UTC). The number
// of stored rows is returned.
func (m Manager) ComputeDailyProfits(ctx context.Context, day time.Time) (int, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return 0, err
	}

	day = truncateToDay(day)
	if day.IsZero() {
		day = truncateToDay(time.Now().UTC()).AddDate(0, 0, -1)
	}

	trades, err := m.trades.GetTradesInRange(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("unable to load trades of %s: %w", day.Format(time.DateOnly), err)
	}

	byUser := map[domain.UserId]*domain.DailyProfit{}
	for _, trade := range trades {
		row, ok := byUser[trade.UserId]
		if !ok {
			row = &domain.DailyProfit{ProfitDate: day, UserId: trade.UserId}
			byUser[trade.UserId] = row
		}

		row.TotalProfit += trade.Pnl()
		row.TotalTrades++
		row.TotalVolume += trade.Quantity * trade.Price
	}

	profits := make([]domain.DailyProfit, 0, len(byUser))
	for _, row := range byUser {
		profits = append(profits, *row)
	}

	if err := m.analytics.ReplaceDailyProfits(ctx, day, profits); err != nil {
		return 0, fmt.Errorf("failed to store daily profits of %s: %w", day.Format(time.DateOnly), err)
	}

	return len(profits), nil
}

// ComputeMonthlySummaries rolls the daily profit rows of one calendar month up
// into per-user summary rows. A zero month defaults to the month containing
// yesterday, so a daily schedule keeps the running month current. The number
// of stored rows is returned.
func (m Manager) ComputeMonthlySummaries(ctx context.Context, month time.Time) (int, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return 0, err
	}

	if month.IsZero() {
		month = time.Now().UTC().AddDate(0, 0, -1)
	}
	month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)

	profits, err := m.analytics.GetDailyProfitsInRange(ctx, month, month.AddDate(0, 1, 0))
	if err != nil {
		return 0, fmt.Errorf("unable to load daily profits of %s: %w", month.Format("2006-01"), err)
	}

	byUser := map[domain.UserId]*domain.MonthlySummary{}
	for _, profit := range profits {
		row, ok := byUser[profit.UserId]
		if !ok {
			row = &domain.MonthlySummary{MonthYear: month, UserId: profit.UserId}
			byUser[profit.UserId] = row
		}

		row.TotalProfit += profit.TotalProfit
		row.TotalTrades += profit.TotalTrades
		row.TotalVolume += profit.TotalVolume
	}

	summaries := make([]domain.MonthlySummary, 0, len(byUser))
	for _, row := range byUser {
		summaries = append(summaries, *row)
	}

	if err := m.analytics.ReplaceMonthlySummaries(ctx, month, summaries); err != nil {
		return 0, fmt.Errorf("failed to store monthly summaries of %s: %w", month.Format("2006-01"), err)
	}

	return len(summaries), nil
}

// GetDailyProfits returns the stored daily profit rows of a user, optionally
// restricted to a date range.
func (m Manager) GetDailyProfits(ctx context.Context, userId domain.UserId, from, to time.Time) (
	[]domain.DailyProfit,
	error,
) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	profits, err := m.analytics.GetUserDailyProfits(ctx, userId, truncateToDay(from), truncateToDay(to))
	if err != nil {
		return nil, fmt.Errorf("unable to load daily profits of user %d: %w", userId, err)
	}

	return profits, nil
}

// GetMonthlySummaries returns the stored monthly summaries of a user,
// optionally restricted to a date range.
func (m Manager) GetMonthlySummaries(ctx context.Context, userId domain.UserId, from, to time.Time) (
	[]domain.MonthlySummary,
	error,
) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	summaries, err := m.analytics.GetUserMonthlySummaries(ctx, userId, truncateToDay(from), truncateToDay(to))
	if err != nil {
		return nil, fmt.Errorf("unable to load monthly summaries of user %d: %w", userId, err)
	}

	return summaries, nil
}

func truncateToDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (m Manager) filterByStrategy(ctx context.Context, trades []domain.Trade, strategyId domain.StrategyId) (
	[]domain.Trade,
	error,
) {
	orders, err := m.orders.GetStrategyOrders(ctx, strategyId)
	if err != nil {
		return nil, fmt.Errorf("unable to load orders of strategy %d: %w", strategyId, err)
	}

	orderIds := make(map[domain.OrderId]struct{}, len(orders))
	for _, order := range orders {
		orderIds[order.Id] = struct{}{}
	}

	var filtered []domain.Trade
	for _, trade := range trades {
		if trade.OrderId == nil {
			continue
		}
		if _, ok := orderIds[*trade.OrderId]; ok {
			filtered = append(filtered, trade)
		}
	}

	return filtered, nil
}
