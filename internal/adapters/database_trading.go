package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ai-trader/trader-portal/internal/domain"
)

// region strategies

// GetStrategy returns the strategy with the given id.
// If no strategy is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetStrategy(ctx context.Context, id domain.StrategyId) (*domain.Strategy, error) {
	var strategy domain.Strategy

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&strategy).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &strategy, nil
}

// GetStrategyByName returns the strategy of the given user with the given name.
// If no strategy is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetStrategyByName(ctx context.Context, userId domain.UserId, name string) (
	*domain.Strategy,
	error,
) {
	var strategies []domain.Strategy

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("user_id = ? AND name = ?", userId, name).
		Find(&strategies).Error
	if err != nil {
		return nil, err
	}

	if len(strategies) == 0 {
		return nil, domain.ErrNotFound
	}

	strategy := strategies[0]

	return &strategy, nil
}

// GetUserStrategies returns all strategies owned by the given user.
func (r *SqlRepo) GetUserStrategies(ctx context.Context, userId domain.UserId) ([]domain.Strategy, error) {
	var strategies []domain.Strategy

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("user_id = ?", userId).
		Order("name asc").
		Find(&strategies).Error
	if err != nil {
		return nil, err
	}

	return strategies, nil
}

// GetAllStrategies returns all strategies that are not soft-deleted.
func (r *SqlRepo) GetAllStrategies(ctx context.Context) ([]domain.Strategy, error) {
	var strategies []domain.Strategy

	err := r.db.WithContext(ctx).Scopes(notDeleted).Order("user_id asc, name asc").Find(&strategies).Error
	if err != nil {
		return nil, err
	}

	return strategies, nil
}

// SaveStrategy updates the strategy with the given id.
// If the id is zero, a new strategy is created.
func (r *SqlRepo) SaveStrategy(
	ctx context.Context,
	id domain.StrategyId,
	updateFunc func(s *domain.Strategy) (*domain.Strategy, error),
) (*domain.Strategy, error) {
	var saved *domain.Strategy

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		strategy := &domain.Strategy{}
		if id != 0 {
			err := tx.Scopes(notDeleted).Where("id = ?", id).First(strategy).Error
			if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
		} else {
			strategy.CreatedAt = time.Now()
		}

		strategy, err := updateFunc(strategy)
		if err != nil {
			return err
		}

		strategy.UpdatedAt = time.Now()
		if err := tx.Save(strategy).Error; err != nil {
			return err
		}

		saved = strategy

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// endregion strategies

// region backtest-results

// GetBacktestResult returns the backtest result with the given id.
// If no result is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetBacktestResult(ctx context.Context, id domain.BacktestResultId) (
	*domain.BacktestResult,
	error,
) {
	var result domain.BacktestResult

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&result).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetStrategyBacktestResults returns all backtest results of the given strategy, newest first.
func (r *SqlRepo) GetStrategyBacktestResults(ctx context.Context, strategyId domain.StrategyId) (
	[]domain.BacktestResult,
	error,
) {
	var results []domain.BacktestResult

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("strategy_id = ?", strategyId).
		Order("end_time desc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	return results, nil
}

// SaveBacktestResult updates the backtest result with the given id.
// If the id is zero, a new result is created.
func (r *SqlRepo) SaveBacktestResult(
	ctx context.Context,
	id domain.BacktestResultId,
	updateFunc func(b *domain.BacktestResult) (*domain.BacktestResult, error),
) (*domain.BacktestResult, error) {
	var saved *domain.BacktestResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := &domain.BacktestResult{}
		if id != 0 {
			err := tx.Scopes(notDeleted).Where("id = ?", id).First(result).Error
			if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
		} else {
			result.CreatedAt = time.Now()
		}

		result, err := updateFunc(result)
		if err != nil {
			return err
		}

		result.UpdatedAt = time.Now()
		if err := tx.Save(result).Error; err != nil {
			return err
		}

		saved = result

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// endregion backtest-results

// region signals

// SaveSignals stores the given signals. Signals that already exist for the
// same asset, strategy and bar timestamp are skipped, the returned count
// contains only newly inserted signals.
func (r *SqlRepo) SaveSignals(ctx context.Context, signals []domain.Signal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_id"}, {Name: "strategy_id"}, {Name: "timestamp"}},
			DoNothing: true,
		}).
		CreateInBatches(signals, 500)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to store signals: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// GetSignal returns the signal with the given id.
// If no signal is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetSignal(ctx context.Context, id domain.SignalId) (*domain.Signal, error) {
	var signal domain.Signal

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&signal).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &signal, nil
}

// GetStrategySignals returns all signals of the given strategy, ordered by bar timestamp.
func (r *SqlRepo) GetStrategySignals(ctx context.Context, strategyId domain.StrategyId) ([]domain.Signal, error) {
	var signals []domain.Signal

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("strategy_id = ?", strategyId).
		Order("timestamp asc").
		Find(&signals).Error
	if err != nil {
		return nil, err
	}

	return signals, nil
}

// GetAssetSignals returns the signals of an asset within the given time range, ordered by bar timestamp.
func (r *SqlRepo) GetAssetSignals(ctx context.Context, assetId domain.AssetId, from, to time.Time) (
	[]domain.Signal,
	error,
) {
	var signals []domain.Signal

	query := r.db.WithContext(ctx).Scopes(notDeleted).Where("asset_id = ?", assetId)
	if !from.IsZero() {
		query = query.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("timestamp <= ?", to)
	}

	err := query.Order("timestamp asc").Find(&signals).Error
	if err != nil {
		return nil, err
	}

	return signals, nil
}

// endregion signals

// region orders

// GetOrder returns the order with the given id.
// If no order is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetOrder(ctx context.Context, id domain.OrderId) (*domain.Order, error) {
	var order domain.Order

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&order).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// GetUserOrders returns all orders of the given user, newest first.
func (r *SqlRepo) GetUserOrders(ctx context.Context, userId domain.UserId) ([]domain.Order, error) {
	var orders []domain.Order

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("user_id = ?", userId).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// GetStrategyOrders returns all orders placed by the given strategy, newest first.
func (r *SqlRepo) GetStrategyOrders(ctx context.Context, strategyId domain.StrategyId) ([]domain.Order, error) {
	var orders []domain.Order

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("strategy_id = ?", strategyId).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// SaveOrder updates the order with the given id.
// If the id is zero, a new order is created.
func (r *SqlRepo) SaveOrder(
	ctx context.Context,
	id domain.OrderId,
	updateFunc func(o *domain.Order) (*domain.Order, error),
) (*domain.Order, error) {
	var saved *domain.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := &domain.Order{}
		if id != 0 {
			err := tx.Scopes(notDeleted).Where("id = ?", id).First(order).Error
			if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
		} else {
			order.CreatedAt = time.Now()
			order.Status = domain.OrderStatusPending
		}

		order, err := updateFunc(order)
		if err != nil {
			return err
		}

		if err := order.Validate(); err != nil {
			return err
		}

		order.UpdatedAt = time.Now()
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		saved = order

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// endregion orders

// region trades

// GetTrade returns the trade with the given id.
// If no trade is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetTrade(ctx context.Context, id domain.TradeId) (*domain.Trade, error) {
	var trade domain.Trade

	err := r.db.WithContext(ctx).Scopes(notDeleted).Where("id = ?", id).First(&trade).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &trade, nil
}

// GetUserTrades returns all trades of the given user, newest first.
func (r *SqlRepo) GetUserTrades(ctx context.Context, userId domain.UserId) ([]domain.Trade, error) {
	var trades []domain.Trade

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("user_id = ?", userId).
		Order("timestamp desc, id desc").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// GetTradesInRange returns the trades of all users executed within
// [from, to), oldest first.
func (r *SqlRepo) GetTradesInRange(ctx context.Context, from, to time.Time) ([]domain.Trade, error) {
	var trades []domain.Trade

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp asc, id asc").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// GetOrderTrades returns all fills of the given order, oldest first.
func (r *SqlRepo) GetOrderTrades(ctx context.Context, orderId domain.OrderId) ([]domain.Trade, error) {
	var trades []domain.Trade

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("order_id = ?", orderId).
		Order("timestamp asc, id asc").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// SaveTrade updates the trade with the given id.
// If the id is zero, a new trade is created.
func (r *SqlRepo) SaveTrade(
	ctx context.Context,
	id domain.TradeId,
	updateFunc func(t *domain.Trade) (*domain.Trade, error),
) (*domain.Trade, error) {
	var saved *domain.Trade

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trade := &domain.Trade{}
		if id != 0 {
			err := tx.Scopes(notDeleted).Where("id = ?", id).First(trade).Error
			if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
		}

		trade, err := updateFunc(trade)
		if err != nil {
			return err
		}

		if trade.Timestamp.IsZero() {
			trade.Timestamp = time.Now().UTC()
		}

		if err := tx.Save(trade).Error; err != nil {
			return err
		}

		saved = trade

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// SaveFill stores a trade and applies the matching order update in one
// transaction. A failing order update also discards the trade, so the two
// rows and their audit entries commit or roll back together.
func (r *SqlRepo) SaveFill(
	ctx context.Context,
	orderId domain.OrderId,
	tradeFunc func(t *domain.Trade) (*domain.Trade, error),
	orderFunc func(o *domain.Order) (*domain.Order, error),
) (*domain.Trade, error) {
	var saved *domain.Trade

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := &domain.Order{}
		err := tx.Scopes(notDeleted).Where("id = ?", orderId).First(order).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		trade, err := tradeFunc(&domain.Trade{})
		if err != nil {
			return err
		}

		if trade.Timestamp.IsZero() {
			trade.Timestamp = time.Now().UTC()
		}

		if err := tx.Save(trade).Error; err != nil {
			return err
		}

		order, err = orderFunc(order)
		if err != nil {
			return err
		}

		if err := order.Validate(); err != nil {
			return err
		}

		order.UpdatedAt = time.Now()
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		saved = trade

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// endregion trades

// region analytics

// GetUserTradeAnalytics returns all analytics snapshots of the given user, newest first.
func (r *SqlRepo) GetUserTradeAnalytics(ctx context.Context, userId domain.UserId) (
	[]domain.TradeAnalytics,
	error,
) {
	var analytics []domain.TradeAnalytics

	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("user_id = ?", userId).
		Order("analysis_date desc, id desc").
		Find(&analytics).Error
	if err != nil {
		return nil, err
	}

	return analytics, nil
}

// SaveTradeAnalytics stores a new analytics snapshot.
func (r *SqlRepo) SaveTradeAnalytics(ctx context.Context, analytics *domain.TradeAnalytics) error {
	if analytics.AnalysisDate.IsZero() {
		analytics.AnalysisDate = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(analytics).Error; err != nil {
		return fmt.Errorf("failed to store analytics snapshot: %w", err)
	}

	return nil
}

// ReplaceDailyProfits swaps out all daily profit rows of the given day in one
// transaction. Recomputing a day is therefore idempotent.
func (r *SqlRepo) ReplaceDailyProfits(ctx context.Context, day time.Time, profits []domain.DailyProfit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("profit_date = ?", day).Delete(&domain.DailyProfit{}).Error
		if err != nil {
			return fmt.Errorf("failed to clear daily profits for %s: %w", day.Format(time.DateOnly), err)
		}

		if len(profits) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(profits, 500).Error; err != nil {
			return fmt.Errorf("failed to store daily profits for %s: %w", day.Format(time.DateOnly), err)
		}

		return nil
	})
}

// GetUserDailyProfits returns the daily profit rows of a user within the given
// date range, oldest first.
func (r *SqlRepo) GetUserDailyProfits(ctx context.Context, userId domain.UserId, from, to time.Time) (
	[]domain.DailyProfit,
	error,
) {
	var profits []domain.DailyProfit

	query := r.db.WithContext(ctx).Where("user_id = ?", userId)
	if !from.IsZero() {
		query = query.Where("profit_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("profit_date <= ?", to)
	}

	err := query.Order("profit_date asc, id asc").Find(&profits).Error
	if err != nil {
		return nil, err
	}

	return profits, nil
}

// GetDailyProfitsInRange returns the daily profit rows of all users within
// [from, to), oldest first.
func (r *SqlRepo) GetDailyProfitsInRange(ctx context.Context, from, to time.Time) ([]domain.DailyProfit, error) {
	var profits []domain.DailyProfit

	err := r.db.WithContext(ctx).
		Where("profit_date >= ? AND profit_date < ?", from, to).
		Order("profit_date asc, id asc").
		Find(&profits).Error
	if err != nil {
		return nil, err
	}

	return profits, nil
}

// ReplaceMonthlySummaries swaps out all summary rows of the given month in one
// transaction. The month must be normalized to its first day.
func (r *SqlRepo) ReplaceMonthlySummaries(
	ctx context.Context,
	month time.Time,
	summaries []domain.MonthlySummary,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("month_year = ?", month).Delete(&domain.MonthlySummary{}).Error
		if err != nil {
			return fmt.Errorf("failed to clear monthly summaries for %s: %w", month.Format("2006-01"), err)
		}

		if len(summaries) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(summaries, 500).Error; err != nil {
			return fmt.Errorf("failed to store monthly summaries for %s: %w", month.Format("2006-01"), err)
		}

		return nil
	})
}

// GetUserMonthlySummaries returns the monthly summaries of a user within the
// given date range, oldest first.
func (r *SqlRepo) GetUserMonthlySummaries(ctx context.Context, userId domain.UserId, from, to time.Time) (
	[]domain.MonthlySummary,
	error,
) {
	var summaries []domain.MonthlySummary

	query := r.db.WithContext(ctx).Where("user_id = ?", userId)
	if !from.IsZero() {
		query = query.Where("month_year >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("month_year <= ?", to)
	}

	err := query.Order("month_year asc, id asc").Find(&summaries).Error
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// endregion analytics
