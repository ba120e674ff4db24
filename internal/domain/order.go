package domain

import (
	"context"
	"fmt"
)

type OrderId uint64

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// Order is a buy or sell instruction for an asset, optionally placed by a
// strategy in reaction to a signal.
type Order struct {
	Id OrderId `gorm:"primaryKey;autoIncrement;column:id"`

	UserId     UserId      `gorm:"column:user_id;index"`
	AssetId    AssetId     `gorm:"column:asset_id;index"`
	StrategyId *StrategyId `gorm:"column:strategy_id;index"`
	SignalId   *SignalId   `gorm:"column:signal_id"`

	OrderType OrderType   `gorm:"column:order_type"`
	Side      OrderSide   `gorm:"column:side"`
	Status    OrderStatus `gorm:"column:status;index"`

	Quantity         float64  `gorm:"column:quantity"`
	Price            *float64 `gorm:"column:price"`
	FilledQuantity   float64  `gorm:"column:filled_quantity"`
	AverageFillPrice *float64 `gorm:"column:average_fill_price"`
	Commission       *float64 `gorm:"column:commission"`

	ExchangeOrderId string `gorm:"column:exchange_order_id"`
	IsSimulated     bool   `gorm:"column:is_simulated"`

	BaseModel
	SoftDelete
}

func (o *Order) TableName() string {
	return "orders"
}

// AccessAllowed returns an error if the context principal must not read or
// modify this order.
func (o *Order) AccessAllowed(ctx context.Context) error {
	return ValidateUserAccessRights(ctx, o.UserId)
}

// Open returns true if the order can still receive fills.
func (o *Order) Open() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusOpen, OrderStatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// Validate performs basic sanity checks before the order is persisted.
func (o *Order) Validate() error {
	if o.Quantity <= 0 {
		return fmt.Errorf("order quantity must be positive: %w", ErrInvalidData)
	}

	if o.OrderType != OrderTypeMarket && (o.Price == nil || *o.Price <= 0) {
		return fmt.Errorf("%s orders need a positive price: %w", o.OrderType, ErrInvalidData)
	}

	switch o.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return fmt.Errorf("unknown order side %q: %w", o.Side, ErrInvalidData)
	}

	return nil
}
