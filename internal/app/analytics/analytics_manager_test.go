package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/adapters"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type analyticsFixture struct {
	manager *Manager
	repo    *adapters.SqlRepo
	alice   *domain.User
	bob     *domain.User
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()

	db, err := adapters.NewDatabase(config.DatabaseConfig{Type: config.DatabaseSQLite, DSN: ":memory:"})
	require.NoError(t, err)

	repo, err := adapters.NewSqlRepository(db)
	require.NoError(t, err)

	manager, err := NewAnalyticsManager(&config.Config{}, evbus.New(10), repo, repo, repo)
	require.NoError(t, err)

	f := &analyticsFixture{manager: manager, repo: repo}
	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")

	return f
}

func (f *analyticsFixture) createUser(t *testing.T, username string) *domain.User {
	t.Helper()

	user, err := f.repo.SaveUser(context.Background(), 0, func(u *domain.User) (*domain.User, error) {
		u.Username = username
		u.Email = username + "@example.com"
		u.Password = "secret-password"
		return u, u.HashPassword()
	})
	require.NoError(t, err)

	return user
}

func (f *analyticsFixture) adminCtx() context.Context {
	return domain.SetUserInfo(context.Background(), domain.SystemContextUserInfo())
}

func (f *analyticsFixture) userCtx(user *domain.User) context.Context {
	return domain.SetUserInfo(context.Background(),
		&domain.ContextUserInfo{Id: user.Id, Username: user.Username})
}

func (f *analyticsFixture) recordTrade(
	t *testing.T,
	user *domain.User,
	tradeType domain.TradeType,
	quantity, price float64,
	at time.Time,
) {
	t.Helper()

	_, err := f.repo.SaveTrade(context.Background(), 0, func(tr *domain.Trade) (*domain.Trade, error) {
		tr.UserId = user.Id
		tr.Symbol = "BTC/USDT"
		tr.TradeType = tradeType
		tr.Quantity = quantity
		tr.Price = price
		tr.Timestamp = at
		return tr, nil
	})
	require.NoError(t, err)
}

func Test_Manager_ComputeDailyProfits(t *testing.T) {
	f := newAnalyticsFixture(t)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	f.recordTrade(t, f.alice, domain.TradeTypeBuy, 1, 100, day.Add(9*time.Hour))
	f.recordTrade(t, f.alice, domain.TradeTypeSell, 2, 60, day.Add(15*time.Hour))
	f.recordTrade(t, f.bob, domain.TradeTypeSell, 1, 50, day.Add(12*time.Hour))
	// the day after must not leak into the aggregate
	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 500, day.AddDate(0, 0, 1))

	rows, err := f.manager.ComputeDailyProfits(f.adminCtx(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	profits, err := f.manager.GetDailyProfits(f.userCtx(f.alice), f.alice.Id, day, day)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	// sell value minus buy value
	assert.InDelta(t, 20, profits[0].TotalProfit, 0.001)
	assert.Equal(t, 2, profits[0].TotalTrades)
	// volume counts both sides
	assert.InDelta(t, 220, profits[0].TotalVolume, 0.001)

	profits, err = f.manager.GetDailyProfits(f.userCtx(f.bob), f.bob.Id, day, day)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	assert.InDelta(t, 50, profits[0].TotalProfit, 0.001)
	assert.Equal(t, 1, profits[0].TotalTrades)
}

func Test_Manager_ComputeDailyProfits_replacesOnRerun(t *testing.T) {
	f := newAnalyticsFixture(t)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 100, day.Add(time.Hour))

	_, err := f.manager.ComputeDailyProfits(f.adminCtx(), day)
	require.NoError(t, err)

	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 200, day.Add(2*time.Hour))

	rows, err := f.manager.ComputeDailyProfits(f.adminCtx(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	profits, err := f.manager.GetDailyProfits(f.userCtx(f.alice), f.alice.Id, day, day)
	require.NoError(t, err)
	require.Len(t, profits, 1)
	assert.InDelta(t, 300, profits[0].TotalProfit, 0.001)
	assert.Equal(t, 2, profits[0].TotalTrades)
}

func Test_Manager_ComputeDailyProfits_requiresAdmin(t *testing.T) {
	f := newAnalyticsFixture(t)

	_, err := f.manager.ComputeDailyProfits(f.userCtx(f.alice), time.Time{})
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_ComputeMonthlySummaries(t *testing.T) {
	f := newAnalyticsFixture(t)

	june := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 100, june.AddDate(0, 0, 1))
	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 50, june.AddDate(0, 0, 2))
	f.recordTrade(t, f.bob, domain.TradeTypeBuy, 1, 30, june.AddDate(0, 0, 2))
	// july stays out of the june rollup
	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 999, june.AddDate(0, 1, 3))

	for _, day := range []time.Time{
		june.AddDate(0, 0, 1), june.AddDate(0, 0, 2), june.AddDate(0, 1, 3),
	} {
		_, err := f.manager.ComputeDailyProfits(f.adminCtx(), day)
		require.NoError(t, err)
	}

	rows, err := f.manager.ComputeMonthlySummaries(f.adminCtx(), june)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	summaries, err := f.manager.GetMonthlySummaries(f.userCtx(f.alice), f.alice.Id, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].MonthYear.Equal(june))
	assert.InDelta(t, 150, summaries[0].TotalProfit, 0.001)
	assert.Equal(t, 2, summaries[0].TotalTrades)

	summaries, err = f.manager.GetMonthlySummaries(f.userCtx(f.bob), f.bob.Id, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.InDelta(t, -30, summaries[0].TotalProfit, 0.001)
}

func Test_Manager_GetDailyProfits_accessControl(t *testing.T) {
	f := newAnalyticsFixture(t)

	_, err := f.manager.GetDailyProfits(f.userCtx(f.bob), f.alice.Id, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	_, err = f.manager.GetMonthlySummaries(f.userCtx(f.bob), f.alice.Id, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_ComputeAnalytics(t *testing.T) {
	f := newAnalyticsFixture(t)

	now := time.Now().UTC()
	f.recordTrade(t, f.alice, domain.TradeTypeBuy, 1, 100, now.Add(-2*time.Hour))
	f.recordTrade(t, f.alice, domain.TradeTypeSell, 1, 150, now.Add(-time.Hour))

	snapshot, err := f.manager.ComputeAnalytics(f.userCtx(f.alice), f.alice.Id, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.TotalTrades)
	assert.InDelta(t, 50, snapshot.TotalPnl, 0.001)
	// only the sell fill has positive cash flow
	assert.InDelta(t, 0.5, snapshot.WinRate, 0.001)

	stored, err := f.manager.GetAnalytics(f.userCtx(f.alice), f.alice.Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	_, err = f.manager.ComputeAnalytics(f.userCtx(f.bob), f.alice.Id, nil)
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}