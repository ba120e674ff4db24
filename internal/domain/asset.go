package domain

import (
	"time"
)

type AssetId uint64

type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
	AssetTypeForex  AssetType = "forex"
)

// Asset is a tradable instrument, identified by its symbol (e.g. "BTC/USDT").
type Asset struct {
	Id AssetId `gorm:"primaryKey;autoIncrement;column:id"`

	Symbol    string    `gorm:"uniqueIndex;column:symbol"`
	Name      string    `gorm:"column:name"`
	AssetType AssetType `gorm:"column:asset_type"`
	Exchange  string    `gorm:"column:exchange"`

	BaseModel
}

func (a *Asset) TableName() string {
	return "assets"
}

type CandleId uint64

// Candle is one OHLCV bar for an asset. Bars are unique per asset, bar
// timestamp and data source, re-imports of the same bar are ignored.
type Candle struct {
	Id CandleId `gorm:"primaryKey;autoIncrement;column:id"`

	AssetId   AssetId   `gorm:"column:asset_id;uniqueIndex:idx_candle_bar"`
	Timestamp time.Time `gorm:"column:timestamp;uniqueIndex:idx_candle_bar;index"`
	Source    string    `gorm:"column:source;uniqueIndex:idx_candle_bar"`

	Open   float64 `gorm:"column:open"`
	High   float64 `gorm:"column:high"`
	Low    float64 `gorm:"column:low"`
	Close  float64 `gorm:"column:close"`
	Volume float64 `gorm:"column:volume"`
}

func (c *Candle) TableName() string {
	return "candles"
}

type FeatureSetId uint64

// FeatureSet holds the technical indicators computed for one asset at one bar
// timestamp. Indicator values are nullable, leading bars of a series have no
// value until the indicator window is filled.
type FeatureSet struct {
	Id FeatureSetId `gorm:"primaryKey;autoIncrement;column:id"`

	AssetId   AssetId   `gorm:"column:asset_id;uniqueIndex:idx_feature_bar"`
	Timestamp time.Time `gorm:"column:timestamp;uniqueIndex:idx_feature_bar;index"`

	Rsi14      *float64 `gorm:"column:rsi_14"`
	Sma20      *float64 `gorm:"column:sma_20"`
	Sma50      *float64 `gorm:"column:sma_50"`
	Ema20      *float64 `gorm:"column:ema_20"`
	Ema50      *float64 `gorm:"column:ema_50"`
	MacdLine   *float64 `gorm:"column:macd_line"`
	MacdSignal *float64 `gorm:"column:macd_signal"`
	MacdHist   *float64 `gorm:"column:macd_hist"`
	Atr14      *float64 `gorm:"column:atr_14"`
	BbUpper    *float64 `gorm:"column:bb_upper"`
	BbMiddle   *float64 `gorm:"column:bb_middle"`
	BbLower    *float64 `gorm:"column:bb_lower"`
}

func (f *FeatureSet) TableName() string {
	return "feature_sets"
}
