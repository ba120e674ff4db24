package app

const TopicUserCreated = "user:created"
const TopicUserRegistered = "user:registered"
const TopicUserDeleted = "user:deleted"
const TopicAuthLogin = "auth:login"
const TopicStrategyCreated = "strategy:created"
const TopicStrategyDeleted = "strategy:deleted"
const TopicOrderPlaced = "order:placed"
const TopicOrderCancelled = "order:cancelled"
const TopicTradeRecorded = "trade:recorded"
const TopicCandlesImported = "candles:imported"
const TopicSignalsGenerated = "signals:generated"
const TopicBacktestRecorded = "backtest:recorded"
