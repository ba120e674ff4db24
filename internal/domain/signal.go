package domain

import (
	"time"
)

type SignalId uint64

type SignalType string

const (
	SignalTypeBuy  SignalType = "BUY"
	SignalTypeSell SignalType = "SELL"
	SignalTypeHold SignalType = "HOLD"
)

// Signal is one trading recommendation emitted by a strategy for an asset at
// a bar timestamp. Signals are unique per asset, strategy and timestamp.
type Signal struct {
	Id SignalId `gorm:"primaryKey;autoIncrement;column:id"`

	AssetId    AssetId    `gorm:"column:asset_id;uniqueIndex:idx_signal_bar"`
	StrategyId StrategyId `gorm:"column:strategy_id;uniqueIndex:idx_signal_bar;index"`
	Timestamp  time.Time  `gorm:"column:timestamp;uniqueIndex:idx_signal_bar;index"`

	SignalType      SignalType `gorm:"column:signal_type"`
	ConfidenceScore *float64   `gorm:"column:confidence_score"`
	RiskScore       *float64   `gorm:"column:risk_score"`
	PriceAtSignal   *float64   `gorm:"column:price_at_signal"`

	SoftDelete
}

func (s *Signal) TableName() string {
	return "signals"
}

// Actionable returns true if the signal suggests opening or closing a position.
func (s *Signal) Actionable() bool {
	return s.SignalType == SignalTypeBuy || s.SignalType == SignalTypeSell
}
