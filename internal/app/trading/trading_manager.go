package trading

import (
	"context"
	"fmt"
	"time"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	orders     OrderDatabaseRepo
	trades     TradeDatabaseRepo
	strategies StrategyDatabaseRepo
	assets     AssetDatabaseRepo
}

func NewTradingManager(
	cfg *config.Config,
	bus evbus.MessageBus,
	orders OrderDatabaseRepo,
	trades TradeDatabaseRepo,
	strategies StrategyDatabaseRepo,
	assets AssetDatabaseRepo,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		orders:     orders,
		trades:     trades,
		strategies: strategies,
		assets:     assets,
	}
	return m, nil
}

// PlaceOrder stores a new order for its owning user. If the order references
// a strategy, that strategy must belong to the same user.
func (m Manager) PlaceOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := domain.ValidateUserAccessRights(ctx, order.UserId); err != nil {
		return nil, err
	}

	if _, err := m.assets.GetAsset(ctx, order.AssetId); err != nil {
		return nil, fmt.Errorf("unable to load asset %d: %w", order.AssetId, err)
	}

	if order.StrategyId != nil {
		strategy, err := m.strategies.GetStrategy(ctx, *order.StrategyId)
		if err != nil {
			return nil, fmt.Errorf("unable to load strategy %d: %w", *order.StrategyId, err)
		}
		if strategy.UserId != order.UserId {
			return nil, fmt.Errorf("strategy %d belongs to another user: %w", strategy.Id, domain.ErrNoPermission)
		}
	}

	placed, err := m.orders.SaveOrder(ctx, 0, func(o *domain.Order) (*domain.Order, error) {
		o.UserId = order.UserId
		o.AssetId = order.AssetId
		o.StrategyId = order.StrategyId
		o.SignalId = order.SignalId
		o.OrderType = order.OrderType
		o.Side = order.Side
		o.Quantity = order.Quantity
		o.Price = order.Price
		o.IsSimulated = order.IsSimulated
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	m.bus.Publish(app.TopicOrderPlaced, placed)

	return placed, nil
}

func (m Manager) GetOrder(ctx context.Context, id domain.OrderId) (*domain.Order, error) {
	order, err := m.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load order %d: %w", id, err)
	}

	if err := order.AccessAllowed(ctx); err != nil {
		return nil, err
	}

	return order, nil
}

func (m Manager) GetUserOrders(ctx context.Context, userId domain.UserId) ([]domain.Order, error) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	orders, err := m.orders.GetUserOrders(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to load orders of user %d: %w", userId, err)
	}

	return orders, nil
}

func (m Manager) GetStrategyOrders(ctx context.Context, strategyId domain.StrategyId) ([]domain.Order, error) {
	strategy, err := m.strategies.GetStrategy(ctx, strategyId)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategy %d: %w", strategyId, err)
	}

	if err := strategy.AccessAllowed(ctx); err != nil {
		return nil, err
	}

	orders, err := m.orders.GetStrategyOrders(ctx, strategyId)
	if err != nil {
		return nil, fmt.Errorf("unable to load orders of strategy %d: %w", strategyId, err)
	}

	return orders, nil
}

// CancelOrder cancels an order that has not been fully filled yet.
func (m Manager) CancelOrder(ctx context.Context, id domain.OrderId) (*domain.Order, error) {
	order, err := m.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Open() {
		return nil, fmt.Errorf("order %d is already %s: %w", id, order.Status, domain.ErrInvalidData)
	}

	cancelled, err := m.orders.SaveOrder(ctx, id, func(o *domain.Order) (*domain.Order, error) {
		o.Status = domain.OrderStatusCancelled
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", id, err)
	}

	m.bus.Publish(app.TopicOrderCancelled, cancelled)

	return cancelled, nil
}

// RecordFill books an execution against an open order: it stores the trade
// and rolls quantity, average price and status forward on the order.
func (m Manager) RecordFill(
	ctx context.Context,
	orderId domain.OrderId,
	quantity, price float64,
	commission *float64,
) (*domain.Trade, error) {
	order, err := m.GetOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}

	if !order.Open() {
		return nil, fmt.Errorf("order %d is already %s: %w", orderId, order.Status, domain.ErrInvalidData)
	}
	if quantity <= 0 || price <= 0 {
		return nil, fmt.Errorf("fill needs positive quantity and price: %w", domain.ErrInvalidData)
	}

	asset, err := m.assets.GetAsset(ctx, order.AssetId)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset %d: %w", order.AssetId, err)
	}

	// trade insert and order update share one transaction, a failure on
	// either side leaves neither row behind
	trade, err := m.trades.SaveFill(ctx, orderId,
		func(t *domain.Trade) (*domain.Trade, error) {
			t.UserId = order.UserId
			t.OrderId = &order.Id
			t.Symbol = asset.Symbol
			t.TradeType = domain.TradeType(order.Side)
			t.Quantity = quantity
			t.Price = price
			t.Timestamp = time.Now().UTC()
			t.Commission = commission
			return t, nil
		},
		func(o *domain.Order) (*domain.Order, error) {
			if o.FilledQuantity+quantity > o.Quantity {
				return nil, fmt.Errorf("fill exceeds order quantity: %w", domain.ErrInvalidData)
			}

			filledBefore := o.FilledQuantity
			o.FilledQuantity += quantity

			// volume weighted average over all fills
			avg := price
			if o.AverageFillPrice != nil && filledBefore > 0 {
				avg = (*o.AverageFillPrice*filledBefore + price*quantity) / o.FilledQuantity
			}
			o.AverageFillPrice = &avg

			if o.FilledQuantity >= o.Quantity {
				o.Status = domain.OrderStatusFilled
			} else {
				o.Status = domain.OrderStatusPartiallyFilled
			}
			return o, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to record fill for order %d: %w", orderId, err)
	}

	m.bus.Publish(app.TopicTradeRecorded, trade)

	return trade, nil
}

func (m Manager) GetTrade(ctx context.Context, id domain.TradeId) (*domain.Trade, error) {
	trade, err := m.trades.GetTrade(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load trade %d: %w", id, err)
	}

	if err := domain.ValidateUserAccessRights(ctx, trade.UserId); err != nil {
		return nil, err
	}

	return trade, nil
}

func (m Manager) GetUserTrades(ctx context.Context, userId domain.UserId) ([]domain.Trade, error) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	trades, err := m.trades.GetUserTrades(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to load trades of user %d: %w", userId, err)
	}

	return trades, nil
}

func (m Manager) GetOrderTrades(ctx context.Context, orderId domain.OrderId) ([]domain.Trade, error) {
	if _, err := m.GetOrder(ctx, orderId); err != nil {
		return nil, err
	}

	trades, err := m.trades.GetOrderTrades(ctx, orderId)
	if err != nil {
		return nil, fmt.Errorf("unable to load trades of order %d: %w", orderId, err)
	}

	return trades, nil
}

// DeleteOrder soft-deletes an order and its trades.
func (m Manager) DeleteOrder(ctx context.Context, id domain.OrderId) error {
	if _, err := m.GetOrder(ctx, id); err != nil {
		return err
	}

	if err := m.orders.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}

	return nil
}
