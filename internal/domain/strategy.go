package domain

import (
	"context"
	"time"
)

type StrategyId uint64

// StrategyParameters holds free-form strategy tuning values, stored as JSON.
type StrategyParameters map[string]any

// Strategy is a named trading strategy owned by a user. Strategy names are
// unique per owner.
type Strategy struct {
	Id StrategyId `gorm:"primaryKey;autoIncrement;column:id"`

	UserId UserId `gorm:"column:user_id;index;uniqueIndex:idx_strategy_owner_name"`
	Name   string `gorm:"column:name;uniqueIndex:idx_strategy_owner_name"`

	Description  string             `gorm:"column:description"`
	ModelVersion string             `gorm:"column:model_version"`
	Parameters   StrategyParameters `gorm:"column:parameters;serializer:json"`
	ApiKey       PrivateString      `gorm:"column:api_key"`
	IsActive     bool               `gorm:"column:is_active"`

	BaseModel
	SoftDelete
}

func (s *Strategy) TableName() string {
	return "strategies"
}

// AccessAllowed returns an error if the context principal must not read or
// modify this strategy.
func (s *Strategy) AccessAllowed(ctx context.Context) error {
	return ValidateUserAccessRights(ctx, s.UserId)
}

type BacktestResultId uint64

// BacktestResult stores the outcome of one historical simulation of a strategy.
type BacktestResult struct {
	Id BacktestResultId `gorm:"primaryKey;autoIncrement;column:id"`

	StrategyId StrategyId `gorm:"column:strategy_id;index"`

	StartTime      time.Time `gorm:"column:start_time"`
	EndTime        time.Time `gorm:"column:end_time"`
	InitialCapital float64   `gorm:"column:initial_capital"`
	FinalCapital   float64   `gorm:"column:final_capital"`
	TotalProfit    float64   `gorm:"column:total_profit"`
	TotalTrades    int       `gorm:"column:total_trades"`
	WinningTrades  int       `gorm:"column:winning_trades"`
	LosingTrades   int       `gorm:"column:losing_trades"`
	WinRate        *float64  `gorm:"column:win_rate"`
	MaxDrawdown    *float64  `gorm:"column:max_drawdown"`
	SharpeRatio    *float64  `gorm:"column:sharpe_ratio"`
	SortinoRatio   *float64  `gorm:"column:sortino_ratio"`

	ParametersUsed StrategyParameters `gorm:"column:parameters_used;serializer:json"`

	BaseModel
	SoftDelete
}

func (b *BacktestResult) TableName() string {
	return "backtest_results"
}
