package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// fakeStrategyRepo is a minimal in-memory StrategyDatabaseRepo.
type fakeStrategyRepo struct {
	strategies map[domain.StrategyId]*domain.Strategy
	nextId     domain.StrategyId
}

func newFakeStrategyRepo() *fakeStrategyRepo {
	return &fakeStrategyRepo{strategies: map[domain.StrategyId]*domain.Strategy{}, nextId: 1}
}

func (r *fakeStrategyRepo) GetStrategy(_ context.Context, id domain.StrategyId) (*domain.Strategy, error) {
	if s, ok := r.strategies[id]; ok {
		cpy := *s
		return &cpy, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeStrategyRepo) GetStrategyByName(
	_ context.Context,
	userId domain.UserId,
	name string,
) (*domain.Strategy, error) {
	for _, s := range r.strategies {
		if s.UserId == userId && s.Name == name {
			cpy := *s
			return &cpy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeStrategyRepo) GetUserStrategies(_ context.Context, userId domain.UserId) ([]domain.Strategy, error) {
	var all []domain.Strategy
	for _, s := range r.strategies {
		if s.UserId == userId {
			all = append(all, *s)
		}
	}
	return all, nil
}

func (r *fakeStrategyRepo) GetAllStrategies(_ context.Context) ([]domain.Strategy, error) {
	all := make([]domain.Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		all = append(all, *s)
	}
	return all, nil
}

func (r *fakeStrategyRepo) SaveStrategy(
	_ context.Context,
	id domain.StrategyId,
	updateFunc func(s *domain.Strategy) (*domain.Strategy, error),
) (*domain.Strategy, error) {
	s, ok := r.strategies[id]
	if !ok {
		s = &domain.Strategy{Id: r.nextId}
		r.nextId++
	}

	updated, err := updateFunc(s)
	if err != nil {
		return nil, err
	}

	r.strategies[updated.Id] = updated
	cpy := *updated
	return &cpy, nil
}

func (r *fakeStrategyRepo) DeleteStrategy(_ context.Context, id domain.StrategyId) error {
	if _, ok := r.strategies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.strategies, id)
	return nil
}

// fakeBacktestRepo is a minimal in-memory BacktestDatabaseRepo.
type fakeBacktestRepo struct {
	results map[domain.BacktestResultId]*domain.BacktestResult
	nextId  domain.BacktestResultId
}

func newFakeBacktestRepo() *fakeBacktestRepo {
	return &fakeBacktestRepo{results: map[domain.BacktestResultId]*domain.BacktestResult{}, nextId: 1}
}

func (r *fakeBacktestRepo) GetBacktestResult(
	_ context.Context,
	id domain.BacktestResultId,
) (*domain.BacktestResult, error) {
	if b, ok := r.results[id]; ok {
		cpy := *b
		return &cpy, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBacktestRepo) GetStrategyBacktestResults(
	_ context.Context,
	strategyId domain.StrategyId,
) ([]domain.BacktestResult, error) {
	var all []domain.BacktestResult
	for _, b := range r.results {
		if b.StrategyId == strategyId {
			all = append(all, *b)
		}
	}
	return all, nil
}

func (r *fakeBacktestRepo) SaveBacktestResult(
	_ context.Context,
	id domain.BacktestResultId,
	updateFunc func(b *domain.BacktestResult) (*domain.BacktestResult, error),
) (*domain.BacktestResult, error) {
	b, ok := r.results[id]
	if !ok {
		b = &domain.BacktestResult{Id: r.nextId}
		r.nextId++
	}

	updated, err := updateFunc(b)
	if err != nil {
		return nil, err
	}

	r.results[updated.Id] = updated
	cpy := *updated
	return &cpy, nil
}

func (r *fakeBacktestRepo) DeleteBacktestResult(_ context.Context, id domain.BacktestResultId) error {
	if _, ok := r.results[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.results, id)
	return nil
}

func testStrategyManager(t *testing.T) (*Manager, *fakeStrategyRepo, *fakeBacktestRepo) {
	t.Helper()

	strategies := newFakeStrategyRepo()
	backtests := newFakeBacktestRepo()
	m, err := NewStrategyManager(&config.Config{}, evbus.New(10), strategies, backtests)
	require.NoError(t, err)

	return m, strategies, backtests
}

func userCtx(id domain.UserId) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{Id: id, Username: "user"})
}

func adminCtx() context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{Id: 999, Username: "admin", IsAdmin: true})
}

func Test_Manager_CreateStrategy(t *testing.T) {
	m, _, _ := testStrategyManager(t)

	created, err := m.CreateStrategy(userCtx(7), &domain.Strategy{
		UserId: 7,
		Name:   "momentum",
		Parameters: domain.StrategyParameters{
			"lookback": 14,
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.Id)
	assert.NotEmpty(t, created.ApiKey)

	// name is unique per owner
	_, err = m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 7, Name: "momentum"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)

	// but free for other users
	_, err = m.CreateStrategy(userCtx(8), &domain.Strategy{UserId: 8, Name: "momentum"})
	assert.NoError(t, err)

	_, err = m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 7})
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	// users cannot create strategies for other users
	_, err = m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 8, Name: "other"})
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_GetStrategy_accessControl(t *testing.T) {
	m, _, _ := testStrategyManager(t)

	created, err := m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 7, Name: "momentum"})
	require.NoError(t, err)

	_, err = m.GetStrategy(userCtx(7), created.Id)
	assert.NoError(t, err)

	_, err = m.GetStrategy(adminCtx(), created.Id)
	assert.NoError(t, err)

	_, err = m.GetStrategy(userCtx(8), created.Id)
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	_, err = m.GetAllStrategies(userCtx(7))
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	all, err := m.GetAllStrategies(adminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func Test_Manager_UpdateStrategy(t *testing.T) {
	m, _, _ := testStrategyManager(t)

	created, err := m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 7, Name: "momentum"})
	require.NoError(t, err)
	originalKey := created.ApiKey

	updated, err := m.UpdateStrategy(userCtx(7), &domain.Strategy{
		Id:          created.Id,
		Name:        "momentum-v2",
		Description: "tuned",
		IsActive:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "momentum-v2", updated.Name)
	assert.True(t, updated.IsActive)

	// owner and API key survive updates
	assert.Equal(t, domain.UserId(7), updated.UserId)
	assert.Equal(t, originalKey, updated.ApiKey)
}

func Test_Manager_RotateApiKey(t *testing.T) {
	m, repo, _ := testStrategyManager(t)

	created, err := m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 7, Name: "momentum"})
	require.NoError(t, err)

	newKey, err := m.RotateApiKey(userCtx(7), created.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, newKey)
	assert.NotEqual(t, created.ApiKey, domain.PrivateString(newKey))

	stored, err := repo.GetStrategy(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.PrivateString(newKey), stored.ApiKey)

	_, err = m.RotateApiKey(userCtx(8), created.Id)
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_RecordBacktestResult(t *testing.T) {
	m, _, _ := testStrategyManager(t)

	created, err := m.CreateStrategy(userCtx(7), &domain.Strategy{UserId: 7, Name: "momentum"})
	require.NoError(t, err)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)

	stored, err := m.RecordBacktestResult(userCtx(7), &domain.BacktestResult{
		StrategyId:     created.Id,
		StartTime:      start,
		EndTime:        end,
		InitialCapital: 10_000,
		FinalCapital:   12_500,
		TotalTrades:    40,
		WinningTrades:  25,
		LosingTrades:   15,
	})
	require.NoError(t, err)
	assert.Equal(t, 2_500.0, stored.TotalProfit)

	// reversed time range is rejected
	_, err = m.RecordBacktestResult(userCtx(7), &domain.BacktestResult{
		StrategyId: created.Id,
		StartTime:  end,
		EndTime:    start,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	results, err := m.GetBacktestResults(userCtx(7), created.Id)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = m.GetBacktestResults(userCtx(8), created.Id)
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}
