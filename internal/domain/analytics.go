package domain

import (
	"time"
)

type TradeAnalyticsId uint64

// TradeAnalytics is an aggregated performance snapshot for a user, optionally
// restricted to a single strategy.
type TradeAnalytics struct {
	Id TradeAnalyticsId `gorm:"primaryKey;autoIncrement;column:id"`

	UserId     UserId      `gorm:"column:user_id;index"`
	StrategyId *StrategyId `gorm:"column:strategy_id;index"`

	TotalTrades  int       `gorm:"column:total_trades"`
	WinRate      float64   `gorm:"column:win_rate"`
	TotalPnl     float64   `gorm:"column:total_pnl"`
	AvgRiskRatio *float64  `gorm:"column:avg_risk_ratio"`
	MaxDrawdown  *float64  `gorm:"column:max_drawdown"`
	AnalysisDate time.Time `gorm:"column:analysis_date"`
	Notes        string    `gorm:"column:notes"`

	SoftDelete
}

func (t *TradeAnalytics) TableName() string {
	return "trade_analytics"
}

type DailyProfitId uint64

// DailyProfit is a per-user cash-flow aggregate for one trading day.
// Rows are derived from trades and replaced wholesale when a day is
// recomputed, so unlike the entities they are derived from they carry no
// soft-delete marker and are not audited.
type DailyProfit struct {
	Id DailyProfitId `gorm:"primaryKey;autoIncrement;column:id"`

	ProfitDate time.Time   `gorm:"column:profit_date;uniqueIndex:idx_daily_profit_day_user"`
	UserId     UserId      `gorm:"column:user_id;index;uniqueIndex:idx_daily_profit_day_user"`
	StrategyId *StrategyId `gorm:"column:strategy_id;index"`

	TotalProfit float64 `gorm:"column:total_profit"`
	TotalTrades int     `gorm:"column:total_trades"`
	TotalVolume float64 `gorm:"column:total_volume"`
}

func (d *DailyProfit) TableName() string {
	return "daily_profits"
}

type MonthlySummaryId uint64

// MonthlySummary rolls the daily profit rows of one calendar month up into a
// single per-user row. MonthYear is the first day of the month.
type MonthlySummary struct {
	Id MonthlySummaryId `gorm:"primaryKey;autoIncrement;column:id"`

	MonthYear  time.Time   `gorm:"column:month_year;uniqueIndex:idx_monthly_summary_month_user"`
	UserId     UserId      `gorm:"column:user_id;index;uniqueIndex:idx_monthly_summary_month_user"`
	StrategyId *StrategyId `gorm:"column:strategy_id;index"`

	TotalProfit float64 `gorm:"column:total_profit"`
	TotalTrades int     `gorm:"column:total_trades"`
	TotalVolume float64 `gorm:"column:total_volume"`
}

func (m *MonthlySummary) TableName() string {
	return "monthly_summaries"
}
