package strategies

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	strategies StrategyDatabaseRepo
	backtests  BacktestDatabaseRepo
}

func NewStrategyManager(
	cfg *config.Config,
	bus evbus.MessageBus,
	strategies StrategyDatabaseRepo,
	backtests BacktestDatabaseRepo,
) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		strategies: strategies,
		backtests:  backtests,
	}
	return m, nil
}

// CreateStrategy stores a new strategy for its owning user. The strategy name
// must be unique per owner, a fresh API key is generated on creation.
func (m Manager) CreateStrategy(ctx context.Context, strategy *domain.Strategy) (*domain.Strategy, error) {
	if err := domain.ValidateUserAccessRights(ctx, strategy.UserId); err != nil {
		return nil, err
	}

	if strategy.Name == "" {
		return nil, fmt.Errorf("missing strategy name: %w", domain.ErrInvalidData)
	}

	if _, err := m.strategies.GetStrategyByName(ctx, strategy.UserId, strategy.Name); err == nil {
		return nil, fmt.Errorf("strategy %s already exists: %w", strategy.Name, domain.ErrDuplicateEntry)
	}

	created, err := m.strategies.SaveStrategy(ctx, 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = strategy.UserId
		s.Name = strategy.Name
		s.Description = strategy.Description
		s.ModelVersion = strategy.ModelVersion
		s.Parameters = strategy.Parameters
		s.IsActive = strategy.IsActive
		s.ApiKey = domain.PrivateString(uuid.New().String())
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save strategy: %w", err)
	}

	m.bus.Publish(app.TopicStrategyCreated, created)

	return created, nil
}

func (m Manager) GetStrategy(ctx context.Context, id domain.StrategyId) (*domain.Strategy, error) {
	strategy, err := m.strategies.GetStrategy(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategy %d: %w", id, err)
	}

	if err := strategy.AccessAllowed(ctx); err != nil {
		return nil, err
	}

	return strategy, nil
}

func (m Manager) GetUserStrategies(ctx context.Context, userId domain.UserId) ([]domain.Strategy, error) {
	if err := domain.ValidateUserAccessRights(ctx, userId); err != nil {
		return nil, err
	}

	strategies, err := m.strategies.GetUserStrategies(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategies of user %d: %w", userId, err)
	}

	return strategies, nil
}

func (m Manager) GetAllStrategies(ctx context.Context) ([]domain.Strategy, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	strategies, err := m.strategies.GetAllStrategies(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategies: %w", err)
	}

	return strategies, nil
}

// UpdateStrategy changes the mutable fields of a strategy. The owner and the
// API key never change through this path.
func (m Manager) UpdateStrategy(ctx context.Context, update *domain.Strategy) (*domain.Strategy, error) {
	existing, err := m.strategies.GetStrategy(ctx, update.Id)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategy %d: %w", update.Id, err)
	}

	if err := existing.AccessAllowed(ctx); err != nil {
		return nil, err
	}

	if update.Name != "" && update.Name != existing.Name {
		if _, err := m.strategies.GetStrategyByName(ctx, existing.UserId, update.Name); err == nil {
			return nil, fmt.Errorf("strategy %s already exists: %w", update.Name, domain.ErrDuplicateEntry)
		}
	}

	strategy, err := m.strategies.SaveStrategy(ctx, update.Id, func(s *domain.Strategy) (*domain.Strategy, error) {
		if update.Name != "" {
			s.Name = update.Name
		}
		s.Description = update.Description
		s.ModelVersion = update.ModelVersion
		s.Parameters = update.Parameters
		s.IsActive = update.IsActive
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save strategy: %w", err)
	}

	return strategy, nil
}

// RotateApiKey replaces the API key of a strategy with a fresh one and
// returns the new key. This is the only path that ever exposes the plaintext
// key, it is redacted everywhere else.
func (m Manager) RotateApiKey(ctx context.Context, id domain.StrategyId) (string, error) {
	existing, err := m.strategies.GetStrategy(ctx, id)
	if err != nil {
		return "", fmt.Errorf("unable to load strategy %d: %w", id, err)
	}

	if err := existing.AccessAllowed(ctx); err != nil {
		return "", err
	}

	newKey := uuid.New().String()

	_, err = m.strategies.SaveStrategy(ctx, id, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.ApiKey = domain.PrivateString(newKey)
		return s, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to save strategy: %w", err)
	}

	return newKey, nil
}

// DeleteStrategy soft-deletes a strategy and everything it owns.
func (m Manager) DeleteStrategy(ctx context.Context, id domain.StrategyId) error {
	strategy, err := m.strategies.GetStrategy(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to load strategy %d: %w", id, err)
	}

	if err := strategy.AccessAllowed(ctx); err != nil {
		return err
	}

	if err := m.strategies.DeleteStrategy(ctx, id); err != nil {
		return fmt.Errorf("failed to delete strategy %d: %w", id, err)
	}

	m.bus.Publish(app.TopicStrategyDeleted, strategy)

	return nil
}

// RecordBacktestResult stores the outcome of a backtest run for a strategy.
func (m Manager) RecordBacktestResult(ctx context.Context, result *domain.BacktestResult) (
	*domain.BacktestResult,
	error,
) {
	strategy, err := m.strategies.GetStrategy(ctx, result.StrategyId)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategy %d: %w", result.StrategyId, err)
	}

	if err := strategy.AccessAllowed(ctx); err != nil {
		return nil, err
	}

	if result.EndTime.Before(result.StartTime) {
		return nil, fmt.Errorf("backtest end before start: %w", domain.ErrInvalidData)
	}

	stored, err := m.backtests.SaveBacktestResult(ctx, 0, func(b *domain.BacktestResult) (
		*domain.BacktestResult,
		error,
	) {
		b.StrategyId = result.StrategyId
		b.StartTime = result.StartTime
		b.EndTime = result.EndTime
		b.InitialCapital = result.InitialCapital
		b.FinalCapital = result.FinalCapital
		b.TotalProfit = result.FinalCapital - result.InitialCapital
		b.TotalTrades = result.TotalTrades
		b.WinningTrades = result.WinningTrades
		b.LosingTrades = result.LosingTrades
		b.WinRate = result.WinRate
		b.MaxDrawdown = result.MaxDrawdown
		b.SharpeRatio = result.SharpeRatio
		b.SortinoRatio = result.SortinoRatio
		b.ParametersUsed = result.ParametersUsed
		return b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save backtest result: %w", err)
	}

	m.bus.Publish(app.TopicBacktestRecorded, stored)

	return stored, nil
}

// GetBacktestResults returns all backtest runs of a strategy, newest first.
func (m Manager) GetBacktestResults(ctx context.Context, strategyId domain.StrategyId) (
	[]domain.BacktestResult,
	error,
) {
	strategy, err := m.strategies.GetStrategy(ctx, strategyId)
	if err != nil {
		return nil, fmt.Errorf("unable to load strategy %d: %w", strategyId, err)
	}

	if err := strategy.AccessAllowed(ctx); err != nil {
		return nil, err
	}

	results, err := m.backtests.GetStrategyBacktestResults(ctx, strategyId)
	if err != nil {
		return nil, fmt.Errorf("unable to load backtest results of strategy %d: %w", strategyId, err)
	}

	return results, nil
}
