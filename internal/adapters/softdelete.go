package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ai-trader/trader-portal/internal/domain"
)

// The delete functions below implement the cascading soft delete. Rows are
// flagged instead of removed, children are flagged by walking the ownership
// edges declared in domain.OwnershipEdges, and everything happens in one
// transaction. Each flagged row goes through a regular save, so the audit
// trail records one UPDATE entry per affected record.

type softDeletable interface {
	MarkDeleted(time.Time) bool
}

// flagChildren builds the handler for one ownership edge: it flags all
// not-yet-deleted child rows referencing the parent and returns their ids so
// the walk can descend further.
func flagChildren[T any, P interface {
	*T
	softDeletable
}](fkColumn string, id func(*T) uint64) func(tx *gorm.DB, now time.Time, parentId uint64) ([]uint64, error) {
	return func(tx *gorm.DB, now time.Time, parentId uint64) ([]uint64, error) {
		var rows []T
		if err := tx.Scopes(notDeleted).Where(fkColumn+" = ?", parentId).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to load cascade children by %s = %d: %w", fkColumn, parentId, err)
		}

		ids := make([]uint64, 0, len(rows))
		for i := range rows {
			if !P(&rows[i]).MarkDeleted(now) {
				continue
			}
			if err := tx.Save(&rows[i]).Error; err != nil {
				return nil, err
			}
			ids = append(ids, id(&rows[i]))
		}

		return ids, nil
	}
}

// cascadeEdges maps every edge of domain.OwnershipEdges to its handler.
// The walk refuses edges without a handler, so the declared table and the
// executed cascade cannot drift apart silently.
var cascadeEdges = map[string]func(tx *gorm.DB, now time.Time, parentId uint64) ([]uint64, error){
	"users/strategies": flagChildren[domain.Strategy, *domain.Strategy](
		"user_id", func(s *domain.Strategy) uint64 { return uint64(s.Id) }),
	"strategies/orders": flagChildren[domain.Order, *domain.Order](
		"strategy_id", func(o *domain.Order) uint64 { return uint64(o.Id) }),
	"strategies/signals": flagChildren[domain.Signal, *domain.Signal](
		"strategy_id", func(s *domain.Signal) uint64 { return uint64(s.Id) }),
	"strategies/backtest_results": flagChildren[domain.BacktestResult, *domain.BacktestResult](
		"strategy_id", func(b *domain.BacktestResult) uint64 { return uint64(b.Id) }),
	"orders/trades": flagChildren[domain.Trade, *domain.Trade](
		"order_id", func(t *domain.Trade) uint64 { return uint64(t.Id) }),
}

// cascadeDelete walks the ownership edges below the given table and flags
// every reachable row.
func cascadeDelete(tx *gorm.DB, now time.Time, table string, id uint64) error {
	for _, child := range domain.OwnershipEdges[table] {
		flag, ok := cascadeEdges[table+"/"+child]
		if !ok {
			return fmt.Errorf("no cascade handler for ownership edge %s -> %s", table, child)
		}

		childIds, err := flag(tx, now, id)
		if err != nil {
			return err
		}

		for _, childId := range childIds {
			if err := cascadeDelete(tx, now, child, childId); err != nil {
				return err
			}
		}
	}

	return nil
}

// DeleteUser soft-deletes the user with the given id and all strategies,
// orders, signals, backtest results and trades hanging below it.
// Deleting an already deleted user is a no-op.
func (r *SqlRepo) DeleteUser(ctx context.Context, id domain.UserId) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var user domain.User
		err := tx.Where("id = ?", id).First(&user).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !user.MarkDeleted(now) {
			return nil
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		return cascadeDelete(tx, now, user.TableName(), uint64(user.Id))
	})
}

// DeleteStrategy soft-deletes the strategy with the given id and all orders,
// signals and backtest results hanging below it.
// Deleting an already deleted strategy is a no-op.
func (r *SqlRepo) DeleteStrategy(ctx context.Context, id domain.StrategyId) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var strategy domain.Strategy
		err := tx.Where("id = ?", id).First(&strategy).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !strategy.MarkDeleted(now) {
			return nil
		}

		if err := tx.Save(&strategy).Error; err != nil {
			return err
		}

		return cascadeDelete(tx, now, strategy.TableName(), uint64(strategy.Id))
	})
}

// DeleteOrder soft-deletes the order with the given id and all trades that filled it.
// Deleting an already deleted order is a no-op.
func (r *SqlRepo) DeleteOrder(ctx context.Context, id domain.OrderId) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var order domain.Order
		err := tx.Where("id = ?", id).First(&order).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !order.MarkDeleted(now) {
			return nil
		}

		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		return cascadeDelete(tx, now, order.TableName(), uint64(order.Id))
	})
}

// DeleteTrade soft-deletes a single trade. Trades own nothing, so no cascade is involved.
func (r *SqlRepo) DeleteTrade(ctx context.Context, id domain.TradeId) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trade domain.Trade
		err := tx.Where("id = ?", id).First(&trade).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !trade.MarkDeleted(time.Now().UTC()) {
			return nil
		}

		return tx.Save(&trade).Error
	})
}

// DeleteSignal soft-deletes a single signal.
func (r *SqlRepo) DeleteSignal(ctx context.Context, id domain.SignalId) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var signal domain.Signal
		err := tx.Where("id = ?", id).First(&signal).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !signal.MarkDeleted(time.Now().UTC()) {
			return nil
		}

		return tx.Save(&signal).Error
	})
}

// DeleteBacktestResult soft-deletes a single backtest result.
func (r *SqlRepo) DeleteBacktestResult(ctx context.Context, id domain.BacktestResultId) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var result domain.BacktestResult
		err := tx.Where("id = ?", id).First(&result).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if !result.MarkDeleted(time.Now().UTC()) {
			return nil
		}

		return tx.Save(&result).Error
	})
}
