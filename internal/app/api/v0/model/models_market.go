package model

import (
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type Asset struct {
	Id        uint64 `json:"Id"`
	Symbol    string `json:"Symbol"`
	Name      string `json:"Name"`
	AssetType string `json:"AssetType"`
	Exchange  string `json:"Exchange"`
}

func NewAsset(src *domain.Asset) *Asset {
	return &Asset{
		Id:        uint64(src.Id),
		Symbol:    src.Symbol,
		Name:      src.Name,
		AssetType: string(src.AssetType),
		Exchange:  src.Exchange,
	}
}

func NewAssets(src []domain.Asset) []Asset {
	results := make([]Asset, len(src))
	for i := range src {
		results[i] = *NewAsset(&src[i])
	}

	return results
}

func NewDomainAsset(src *Asset) *domain.Asset {
	return &domain.Asset{
		Id:        domain.AssetId(src.Id),
		Symbol:    src.Symbol,
		Name:      src.Name,
		AssetType: domain.AssetType(src.AssetType),
		Exchange:  src.Exchange,
	}
}

type Candle struct {
	Timestamp time.Time `json:"Timestamp"`
	Source    string    `json:"Source"`
	Open      float64   `json:"Open"`
	High      float64   `json:"High"`
	Low       float64   `json:"Low"`
	Close     float64   `json:"Close"`
	Volume    float64   `json:"Volume"`
}

func NewCandle(src *domain.Candle) *Candle {
	return &Candle{
		Timestamp: src.Timestamp,
		Source:    src.Source,
		Open:      src.Open,
		High:      src.High,
		Low:       src.Low,
		Close:     src.Close,
		Volume:    src.Volume,
	}
}

func NewCandles(src []domain.Candle) []Candle {
	results := make([]Candle, len(src))
	for i := range src {
		results[i] = *NewCandle(&src[i])
	}

	return results
}

type CandleImportResult struct {
	Symbol   string `json:"Symbol"`
	Received int    `json:"Received"`
	Imported int    `json:"Imported"`
}

type FeatureSet struct {
	Timestamp  time.Time `json:"Timestamp"`
	Rsi14      *float64  `json:"Rsi14"`
	Sma20      *float64  `json:"Sma20"`
	Sma50      *float64  `json:"Sma50"`
	Ema20      *float64  `json:"Ema20"`
	Ema50      *float64  `json:"Ema50"`
	MacdLine   *float64  `json:"MacdLine"`
	MacdSignal *float64  `json:"MacdSignal"`
	MacdHist   *float64  `json:"MacdHist"`
	Atr14      *float64  `json:"Atr14"`
	BbUpper    *float64  `json:"BbUpper"`
	BbMiddle   *float64  `json:"BbMiddle"`
	BbLower    *float64  `json:"BbLower"`
}

func NewFeatureSet(src *domain.FeatureSet) *FeatureSet {
	return &FeatureSet{
		Timestamp:  src.Timestamp,
		Rsi14:      src.Rsi14,
		Sma20:      src.Sma20,
		Sma50:      src.Sma50,
		Ema20:      src.Ema20,
		Ema50:      src.Ema50,
		MacdLine:   src.MacdLine,
		MacdSignal: src.MacdSignal,
		MacdHist:   src.MacdHist,
		Atr14:      src.Atr14,
		BbUpper:    src.BbUpper,
		BbMiddle:   src.BbMiddle,
		BbLower:    src.BbLower,
	}
}

func NewFeatureSets(src []domain.FeatureSet) []FeatureSet {
	results := make([]FeatureSet, len(src))
	for i := range src {
		results[i] = *NewFeatureSet(&src[i])
	}

	return results
}

type Signal struct {
	Id              uint64    `json:"Id"`
	AssetId         uint64    `json:"AssetId"`
	StrategyId      uint64    `json:"StrategyId"`
	Timestamp       time.Time `json:"Timestamp"`
	SignalType      string    `json:"SignalType"`
	ConfidenceScore *float64  `json:"ConfidenceScore"`
	RiskScore       *float64  `json:"RiskScore"`
	PriceAtSignal   *float64  `json:"PriceAtSignal"`
}

func NewSignal(src *domain.Signal) *Signal {
	return &Signal{
		Id:              uint64(src.Id),
		AssetId:         uint64(src.AssetId),
		StrategyId:      uint64(src.StrategyId),
		Timestamp:       src.Timestamp,
		SignalType:      string(src.SignalType),
		ConfidenceScore: src.ConfidenceScore,
		RiskScore:       src.RiskScore,
		PriceAtSignal:   src.PriceAtSignal,
	}
}

func NewSignals(src []domain.Signal) []Signal {
	results := make([]Signal, len(src))
	for i := range src {
		results[i] = *NewSignal(&src[i])
	}

	return results
}
