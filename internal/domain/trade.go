package domain

import (
	"time"
)

type TradeId uint64

type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// Trade is one executed fill. Fills always belong to a user and usually to
// the order that produced them.
type Trade struct {
	Id TradeId `gorm:"primaryKey;autoIncrement;column:id"`

	UserId  UserId   `gorm:"column:user_id;index"`
	OrderId *OrderId `gorm:"column:order_id;index"`

	Symbol    string    `gorm:"column:symbol;index"`
	TradeType TradeType `gorm:"column:trade_type"`
	Quantity  float64   `gorm:"column:quantity"`
	Price     float64   `gorm:"column:price"`
	Timestamp time.Time `gorm:"column:timestamp;index"`

	Commission      *float64 `gorm:"column:commission"`
	CommissionAsset string   `gorm:"column:commission_asset"`

	SoftDelete
}

func (t *Trade) TableName() string {
	return "trades"
}

// Pnl returns the signed cash flow of the fill, negative for buys.
func (t *Trade) Pnl() float64 {
	value := t.Quantity * t.Price
	if t.TradeType == TradeTypeBuy {
		value = -value
	}

	if t.Commission != nil {
		value -= *t.Commission
	}

	return value
}
