package model

import (
	"time"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type Strategy struct {
	Id           uint64         `json:"Id"`
	UserId       uint64         `json:"UserId"`
	Name         string         `json:"Name"`
	Description  string         `json:"Description"`
	ModelVersion string         `json:"ModelVersion"`
	Parameters   map[string]any `json:"Parameters"`
	IsActive     bool           `json:"IsActive"`

	Deleted   bool      `json:"Deleted"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
}

func NewStrategy(src *domain.Strategy) *Strategy {
	return &Strategy{
		Id:           uint64(src.Id),
		UserId:       uint64(src.UserId),
		Name:         src.Name,
		Description:  src.Description,
		ModelVersion: src.ModelVersion,
		Parameters:   src.Parameters,
		IsActive:     src.IsActive,
		Deleted:      src.Deleted(),
		CreatedAt:    src.CreatedAt,
		UpdatedAt:    src.UpdatedAt,
	}
}

func NewStrategies(src []domain.Strategy) []Strategy {
	results := make([]Strategy, len(src))
	for i := range src {
		results[i] = *NewStrategy(&src[i])
	}

	return results
}

func NewDomainStrategy(src *Strategy) *domain.Strategy {
	return &domain.Strategy{
		Id:           domain.StrategyId(src.Id),
		UserId:       domain.UserId(src.UserId),
		Name:         src.Name,
		Description:  src.Description,
		ModelVersion: src.ModelVersion,
		Parameters:   src.Parameters,
		IsActive:     src.IsActive,
	}
}

type BacktestResult struct {
	Id             uint64         `json:"Id"`
	StrategyId     uint64         `json:"StrategyId"`
	StartTime      time.Time      `json:"StartTime"`
	EndTime        time.Time      `json:"EndTime"`
	InitialCapital float64        `json:"InitialCapital"`
	FinalCapital   float64        `json:"FinalCapital"`
	TotalProfit    float64        `json:"TotalProfit"`
	TotalTrades    int            `json:"TotalTrades"`
	WinningTrades  int            `json:"WinningTrades"`
	LosingTrades   int            `json:"LosingTrades"`
	WinRate        *float64       `json:"WinRate"`
	MaxDrawdown    *float64       `json:"MaxDrawdown"`
	SharpeRatio    *float64       `json:"SharpeRatio"`
	SortinoRatio   *float64       `json:"SortinoRatio"`
	ParametersUsed map[string]any `json:"ParametersUsed"`
}

func NewBacktestResult(src *domain.BacktestResult) *BacktestResult {
	return &BacktestResult{
		Id:             uint64(src.Id),
		StrategyId:     uint64(src.StrategyId),
		StartTime:      src.StartTime,
		EndTime:        src.EndTime,
		InitialCapital: src.InitialCapital,
		FinalCapital:   src.FinalCapital,
		TotalProfit:    src.TotalProfit,
		TotalTrades:    src.TotalTrades,
		WinningTrades:  src.WinningTrades,
		LosingTrades:   src.LosingTrades,
		WinRate:        src.WinRate,
		MaxDrawdown:    src.MaxDrawdown,
		SharpeRatio:    src.SharpeRatio,
		SortinoRatio:   src.SortinoRatio,
		ParametersUsed: src.ParametersUsed,
	}
}

func NewBacktestResults(src []domain.BacktestResult) []BacktestResult {
	results := make([]BacktestResult, len(src))
	for i := range src {
		results[i] = *NewBacktestResult(&src[i])
	}

	return results
}

func NewDomainBacktestResult(src *BacktestResult) *domain.BacktestResult {
	return &domain.BacktestResult{
		Id:             domain.BacktestResultId(src.Id),
		StrategyId:     domain.StrategyId(src.StrategyId),
		StartTime:      src.StartTime,
		EndTime:        src.EndTime,
		InitialCapital: src.InitialCapital,
		FinalCapital:   src.FinalCapital,
		TotalTrades:    src.TotalTrades,
		WinningTrades:  src.WinningTrades,
		LosingTrades:   src.LosingTrades,
		WinRate:        src.WinRate,
		MaxDrawdown:    src.MaxDrawdown,
		SharpeRatio:    src.SharpeRatio,
		SortinoRatio:   src.SortinoRatio,
		ParametersUsed: src.ParametersUsed,
	}
}

type Order struct {
	Id               uint64    `json:"Id"`
	UserId           uint64    `json:"UserId"`
	AssetId          uint64    `json:"AssetId"`
	StrategyId       *uint64   `json:"StrategyId,omitempty"`
	SignalId         *uint64   `json:"SignalId,omitempty"`
	OrderType        string    `json:"OrderType"`
	Side             string    `json:"Side"`
	Status           string    `json:"Status"`
	Quantity         float64   `json:"Quantity"`
	Price            *float64  `json:"Price,omitempty"`
	FilledQuantity   float64   `json:"FilledQuantity"`
	AverageFillPrice *float64  `json:"AverageFillPrice,omitempty"`
	Commission       *float64  `json:"Commission,omitempty"`
	ExchangeOrderId  string    `json:"ExchangeOrderId"`
	IsSimulated      bool      `json:"IsSimulated"`
	CreatedAt        time.Time `json:"CreatedAt"`
	UpdatedAt        time.Time `json:"UpdatedAt"`
}

func NewOrder(src *domain.Order) *Order {
	o := &Order{
		Id:               uint64(src.Id),
		UserId:           uint64(src.UserId),
		AssetId:          uint64(src.AssetId),
		OrderType:        string(src.OrderType),
		Side:             string(src.Side),
		Status:           string(src.Status),
		Quantity:         src.Quantity,
		Price:            src.Price,
		FilledQuantity:   src.FilledQuantity,
		AverageFillPrice: src.AverageFillPrice,
		Commission:       src.Commission,
		ExchangeOrderId:  src.ExchangeOrderId,
		IsSimulated:      src.IsSimulated,
		CreatedAt:        src.CreatedAt,
		UpdatedAt:        src.UpdatedAt,
	}

	if src.StrategyId != nil {
		id := uint64(*src.StrategyId)
		o.StrategyId = &id
	}
	if src.SignalId != nil {
		id := uint64(*src.SignalId)
		o.SignalId = &id
	}

	return o
}

func NewOrders(src []domain.Order) []Order {
	results := make([]Order, len(src))
	for i := range src {
		results[i] = *NewOrder(&src[i])
	}

	return results
}

func NewDomainOrder(src *Order) *domain.Order {
	o := &domain.Order{
		Id:              domain.OrderId(src.Id),
		UserId:          domain.UserId(src.UserId),
		AssetId:         domain.AssetId(src.AssetId),
		OrderType:       domain.OrderType(src.OrderType),
		Side:            domain.OrderSide(src.Side),
		Quantity:        src.Quantity,
		Price:           src.Price,
		ExchangeOrderId: src.ExchangeOrderId,
		IsSimulated:     src.IsSimulated,
	}

	if src.StrategyId != nil {
		id := domain.StrategyId(*src.StrategyId)
		o.StrategyId = &id
	}
	if src.SignalId != nil {
		id := domain.SignalId(*src.SignalId)
		o.SignalId = &id
	}

	return o
}

type Trade struct {
	Id              uint64    `json:"Id"`
	UserId          uint64    `json:"UserId"`
	OrderId         *uint64   `json:"OrderId,omitempty"`
	Symbol          string    `json:"Symbol"`
	TradeType       string    `json:"TradeType"`
	Quantity        float64   `json:"Quantity"`
	Price           float64   `json:"Price"`
	Timestamp       time.Time `json:"Timestamp"`
	Commission      *float64  `json:"Commission,omitempty"`
	CommissionAsset string    `json:"CommissionAsset"`
	Pnl             float64   `json:"Pnl"`
}

func NewTrade(src *domain.Trade) *Trade {
	t := &Trade{
		Id:              uint64(src.Id),
		UserId:          uint64(src.UserId),
		Symbol:          src.Symbol,
		TradeType:       string(src.TradeType),
		Quantity:        src.Quantity,
		Price:           src.Price,
		Timestamp:       src.Timestamp,
		Commission:      src.Commission,
		CommissionAsset: src.CommissionAsset,
		Pnl:             src.Pnl(),
	}

	if src.OrderId != nil {
		id := uint64(*src.OrderId)
		t.OrderId = &id
	}

	return t
}

func NewTrades(src []domain.Trade) []Trade {
	results := make([]Trade, len(src))
	for i := range src {
		results[i] = *NewTrade(&src[i])
	}

	return results
}

type TradeAnalytics struct {
	Id           uint64    `json:"Id"`
	UserId       uint64    `json:"UserId"`
	StrategyId   *uint64   `json:"StrategyId,omitempty"`
	TotalTrades  int       `json:"TotalTrades"`
	WinRate      float64   `json:"WinRate"`
	TotalPnl     float64   `json:"TotalPnl"`
	AvgRiskRatio *float64  `json:"AvgRiskRatio,omitempty"`
	MaxDrawdown  *float64  `json:"MaxDrawdown,omitempty"`
	AnalysisDate time.Time `json:"AnalysisDate"`
	Notes        string    `json:"Notes"`
}

func NewTradeAnalytics(src *domain.TradeAnalytics) *TradeAnalytics {
	t := &TradeAnalytics{
		Id:           uint64(src.Id),
		UserId:       uint64(src.UserId),
		TotalTrades:  src.TotalTrades,
		WinRate:      src.WinRate,
		TotalPnl:     src.TotalPnl,
		AvgRiskRatio: src.AvgRiskRatio,
		MaxDrawdown:  src.MaxDrawdown,
		AnalysisDate: src.AnalysisDate,
		Notes:        src.Notes,
	}

	if src.StrategyId != nil {
		id := uint64(*src.StrategyId)
		t.StrategyId = &id
	}

	return t
}

func NewTradeAnalyticsList(src []domain.TradeAnalytics) []TradeAnalytics {
	results := make([]TradeAnalytics, len(src))
	for i := range src {
		results[i] = *NewTradeAnalytics(&src[i])
	}

	return results
}

type DailyProfit struct {
	Id          uint64    `json:"Id"`
	ProfitDate  time.Time `json:"ProfitDate"`
	UserId      uint64    `json:"UserId"`
	StrategyId  *uint64   `json:"StrategyId,omitempty"`
	TotalProfit float64   `json:"TotalProfit"`
	TotalTrades int       `json:"TotalTrades"`
	TotalVolume float64   `json:"TotalVolume"`
}

func NewDailyProfit(src *domain.DailyProfit) *DailyProfit {
	p := &DailyProfit{
		Id:          uint64(src.Id),
		ProfitDate:  src.ProfitDate,
		UserId:      uint64(src.UserId),
		TotalProfit: src.TotalProfit,
		TotalTrades: src.TotalTrades,
		TotalVolume: src.TotalVolume,
	}

	if src.StrategyId != nil {
		id := uint64(*src.StrategyId)
		p.StrategyId = &id
	}

	return p
}

func NewDailyProfits(src []domain.DailyProfit) []DailyProfit {
	results := make([]DailyProfit, len(src))
	for i := range src {
		results[i] = *NewDailyProfit(&src[i])
	}

	return results
}

type MonthlySummary struct {
	Id          uint64    `json:"Id"`
	MonthYear   time.Time `json:"MonthYear"`
	UserId      uint64    `json:"UserId"`
	StrategyId  *uint64   `json:"StrategyId,omitempty"`
	TotalProfit float64   `json:"TotalProfit"`
	TotalTrades int       `json:"TotalTrades"`
	TotalVolume float64   `json:"TotalVolume"`
}

func NewMonthlySummary(src *domain.MonthlySummary) *MonthlySummary {
	s := &MonthlySummary{
		Id:          uint64(src.Id),
		MonthYear:   src.MonthYear,
		UserId:      uint64(src.UserId),
		TotalProfit: src.TotalProfit,
		TotalTrades: src.TotalTrades,
		TotalVolume: src.TotalVolume,
	}

	if src.StrategyId != nil {
		id := uint64(*src.StrategyId)
		s.StrategyId = &id
	}

	return s
}

func NewMonthlySummaries(src []domain.MonthlySummary) []MonthlySummary {
	results := make([]MonthlySummary, len(src))
	for i := range src {
		results[i] = *NewMonthlySummary(&src[i])
	}

	return results
}
