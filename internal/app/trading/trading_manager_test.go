package trading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/adapters"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type tradingFixture struct {
	manager *Manager
	repo    *adapters.SqlRepo
	user    *domain.User
	asset   *domain.Asset
}

func newTradingFixture(t *testing.T) *tradingFixture {
	t.Helper()

	db, err := adapters.NewDatabase(config.DatabaseConfig{Type: config.DatabaseSQLite, DSN: ":memory:"})
	require.NoError(t, err)

	repo, err := adapters.NewSqlRepository(db)
	require.NoError(t, err)

	manager, err := NewTradingManager(&config.Config{}, evbus.New(10), repo, repo, repo, repo)
	require.NoError(t, err)

	ctx := context.Background()

	user, err := repo.SaveUser(ctx, 0, func(u *domain.User) (*domain.User, error) {
		u.Username = "trader"
		u.Email = "trader@example.com"
		u.Password = "secret-password"
		return u, u.HashPassword()
	})
	require.NoError(t, err)

	asset, err := repo.SaveAsset(ctx, 0, func(a *domain.Asset) (*domain.Asset, error) {
		a.Symbol = "BTCUSD"
		a.Name = "Bitcoin"
		a.AssetType = domain.AssetTypeCrypto
		return a, nil
	})
	require.NoError(t, err)

	return &tradingFixture{manager: manager, repo: repo, user: user, asset: asset}
}

func (f *tradingFixture) userCtx() context.Context {
	return domain.SetUserInfo(context.Background(),
		&domain.ContextUserInfo{Id: f.user.Id, Username: f.user.Username})
}

func (f *tradingFixture) placeOrder(t *testing.T, quantity float64) *domain.Order {
	t.Helper()

	order, err := f.manager.PlaceOrder(f.userCtx(), &domain.Order{
		UserId:    f.user.Id,
		AssetId:   f.asset.Id,
		OrderType: domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  quantity,
	})
	require.NoError(t, err)

	return order
}

func Test_Manager_PlaceOrder(t *testing.T) {
	f := newTradingFixture(t)

	order := f.placeOrder(t, 2)
	assert.NotZero(t, order.Id)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	// unknown asset
	_, err := f.manager.PlaceOrder(f.userCtx(), &domain.Order{
		UserId:    f.user.Id,
		AssetId:   9999,
		OrderType: domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  1,
	})
	assert.Error(t, err)

	// placing orders for other users needs admin rights
	otherCtx := domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{Id: 4242, Username: "other"})
	_, err = f.manager.PlaceOrder(otherCtx, &domain.Order{
		UserId:    f.user.Id,
		AssetId:   f.asset.Id,
		OrderType: domain.OrderTypeMarket,
		Side:      domain.OrderSideBuy,
		Quantity:  1,
	})
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_PlaceOrder_foreignStrategy(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()

	other, err := f.repo.SaveUser(ctx, 0, func(u *domain.User) (*domain.User, error) {
		u.Username = "other"
		u.Email = "other@example.com"
		u.Password = "secret-password"
		return u, u.HashPassword()
	})
	require.NoError(t, err)

	strategy, err := f.repo.SaveStrategy(ctx, 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = other.Id
		s.Name = "foreign"
		return s, nil
	})
	require.NoError(t, err)

	_, err = f.manager.PlaceOrder(f.userCtx(), &domain.Order{
		UserId:     f.user.Id,
		AssetId:    f.asset.Id,
		StrategyId: &strategy.Id,
		OrderType:  domain.OrderTypeMarket,
		Side:       domain.OrderSideBuy,
		Quantity:   1,
	})
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_RecordFill(t *testing.T) {
	f := newTradingFixture(t)
	order := f.placeOrder(t, 2)

	// partial fill
	trade, err := f.manager.RecordFill(f.userCtx(), order.Id, 1, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, f.user.Id, trade.UserId)
	assert.Equal(t, "BTCUSD", trade.Symbol)

	updated, err := f.manager.GetOrder(f.userCtx(), order.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPartiallyFilled, updated.Status)
	assert.Equal(t, 1.0, updated.FilledQuantity)
	require.NotNil(t, updated.AverageFillPrice)
	assert.Equal(t, 100.0, *updated.AverageFillPrice)

	// over-filling is rejected and leaves no trade behind
	_, err = f.manager.RecordFill(f.userCtx(), order.Id, 2, 100, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	trades, err := f.manager.GetOrderTrades(f.userCtx(), order.Id)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	// completing fill rolls the average price forward
	_, err = f.manager.RecordFill(f.userCtx(), order.Id, 1, 110, nil)
	require.NoError(t, err)

	updated, err = f.manager.GetOrder(f.userCtx(), order.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, updated.Status)
	require.NotNil(t, updated.AverageFillPrice)
	assert.InDelta(t, 105.0, *updated.AverageFillPrice, 1e-9)

	// filled orders accept no further fills
	_, err = f.manager.RecordFill(f.userCtx(), order.Id, 1, 100, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	trades, err = f.manager.GetOrderTrades(f.userCtx(), order.Id)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func Test_Manager_CancelOrder(t *testing.T) {
	f := newTradingFixture(t)
	order := f.placeOrder(t, 1)

	cancelled, err := f.manager.CancelOrder(f.userCtx(), order.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	// cancelled orders cannot be cancelled again or filled
	_, err = f.manager.CancelOrder(f.userCtx(), order.Id)
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	_, err = f.manager.RecordFill(f.userCtx(), order.Id, 1, 100, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidData)
}

func Test_Manager_DeleteOrder_cascadesToTrades(t *testing.T) {
	f := newTradingFixture(t)
	order := f.placeOrder(t, 1)

	_, err := f.manager.RecordFill(f.userCtx(), order.Id, 1, 100, nil)
	require.NoError(t, err)

	require.NoError(t, f.manager.DeleteOrder(f.userCtx(), order.Id))

	_, err = f.manager.GetOrder(f.userCtx(), order.Id)
	assert.Error(t, err)

	trades, err := f.manager.GetUserTrades(f.userCtx(), f.user.Id)
	require.NoError(t, err)
	assert.Empty(t, trades)
}
