package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

func tempSqliteRepo(t *testing.T, auditTables ...string) *SqlRepo {
	t.Helper()

	db, err := NewDatabase(config.DatabaseConfig{Type: config.DatabaseSQLite, DSN: ":memory:"})
	require.NoError(t, err)

	if len(auditTables) > 0 {
		require.NoError(t, RegisterAuditing(db, auditTables))
	}

	repo, err := NewSqlRepository(db)
	require.NoError(t, err)

	return repo
}

func createTestUser(t *testing.T, repo *SqlRepo, username string) *domain.User {
	t.Helper()

	user, err := repo.SaveUser(context.Background(), 0, func(u *domain.User) (*domain.User, error) {
		u.Username = username
		u.Email = username + "@example.com"
		u.Password = "secret-password"
		return u, u.HashPassword()
	})
	require.NoError(t, err)
	require.NotZero(t, user.Id)

	return user
}

func Test_SqlRepo_migrate(t *testing.T) {
	repo := tempSqliteRepo(t)

	for _, table := range []string{
		"users", "assets", "candles", "feature_sets", "strategies",
		"backtest_results", "signals", "orders", "trades", "trade_analytics",
		"daily_profits", "monthly_summaries", "audit_logs",
	} {
		assert.True(t, repo.db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func Test_SqlRepo_SaveUser(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "alice")

	loaded, err := repo.GetUser(ctx, user.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Username)
	assert.NoError(t, loaded.CheckPassword("secret-password"))
	assert.Error(t, loaded.CheckPassword("wrong"))

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.Id, byName.Id)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.SaveUser(ctx, 9999, func(u *domain.User) (*domain.User, error) { return u, nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_SqlRepo_SaveCandles_deduplicates(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	asset, err := repo.SaveAsset(ctx, 0, func(a *domain.Asset) (*domain.Asset, error) {
		a.Symbol = "BTC/USDT"
		a.AssetType = domain.AssetTypeCrypto
		return a, nil
	})
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := []domain.Candle{
		{AssetId: asset.Id, Timestamp: base, Source: "binance", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{AssetId: asset.Id, Timestamp: base.Add(time.Hour), Source: "binance", Open: 1.5, High: 3, Low: 1, Close: 2, Volume: 20},
	}

	inserted, err := repo.SaveCandles(ctx, bars)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// re-import with one overlapping and one new bar
	more := []domain.Candle{
		{AssetId: asset.Id, Timestamp: base.Add(time.Hour), Source: "binance", Open: 9, High: 9, Low: 9, Close: 9, Volume: 9},
		{AssetId: asset.Id, Timestamp: base.Add(2 * time.Hour), Source: "binance", Open: 2, High: 4, Low: 2, Close: 3, Volume: 30},
	}
	inserted, err = repo.SaveCandles(ctx, more)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	stored, err := repo.GetCandles(ctx, asset.Id, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// the overlapping bar keeps its original values
	assert.Equal(t, 2.0, stored[1].Close)

	latest, err := repo.GetLatestCandle(ctx, asset.Id)
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Hour).Unix(), latest.Timestamp.Unix())
}

func Test_SqlRepo_SaveFeatureSets_replacesOnReimport(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rsi := 55.0
	require.NoError(t, repo.SaveFeatureSets(ctx, []domain.FeatureSet{{AssetId: 1, Timestamp: ts, Rsi14: &rsi}}))

	updated := 70.0
	require.NoError(t, repo.SaveFeatureSets(ctx, []domain.FeatureSet{{AssetId: 1, Timestamp: ts, Rsi14: &updated}}))

	sets, err := repo.GetFeatureSets(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.NotNil(t, sets[0].Rsi14)
	assert.Equal(t, 70.0, *sets[0].Rsi14)
}

func Test_SqlRepo_SaveSignals_deduplicates(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	signals := []domain.Signal{
		{AssetId: 1, StrategyId: 1, Timestamp: ts, SignalType: domain.SignalTypeBuy},
		{AssetId: 1, StrategyId: 1, Timestamp: ts.Add(time.Hour), SignalType: domain.SignalTypeHold},
	}

	inserted, err := repo.SaveSignals(ctx, signals)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = repo.SaveSignals(ctx, signals)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

func Test_SqlRepo_DeleteUser_cascades(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "bob")

	strategy, err := repo.SaveStrategy(ctx, 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = user.Id
		s.Name = "ema-crossover"
		return s, nil
	})
	require.NoError(t, err)

	order, err := repo.SaveOrder(ctx, 0, func(o *domain.Order) (*domain.Order, error) {
		o.UserId = user.Id
		o.AssetId = 1
		o.StrategyId = &strategy.Id
		o.OrderType = domain.OrderTypeMarket
		o.Side = domain.OrderSideBuy
		o.Quantity = 1
		return o, nil
	})
	require.NoError(t, err)

	trade, err := repo.SaveTrade(ctx, 0, func(tr *domain.Trade) (*domain.Trade, error) {
		tr.UserId = user.Id
		tr.OrderId = &order.Id
		tr.Symbol = "BTC/USDT"
		tr.TradeType = domain.TradeTypeBuy
		tr.Quantity = 1
		tr.Price = 100
		return tr, nil
	})
	require.NoError(t, err)

	inserted, err := repo.SaveSignals(ctx, []domain.Signal{
		{AssetId: 1, StrategyId: strategy.Id, Timestamp: time.Now().UTC(), SignalType: domain.SignalTypeBuy},
	})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	require.NoError(t, repo.DeleteUser(ctx, user.Id))

	// default queries no longer see the user or anything below it
	_, err = repo.GetUser(ctx, user.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetStrategy(ctx, strategy.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetOrder(ctx, order.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetTrade(ctx, trade.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	signals, err := repo.GetStrategySignals(ctx, strategy.Id)
	require.NoError(t, err)
	assert.Empty(t, signals)

	// the rows themselves are still there
	deleted, err := repo.GetUserIncludeDeleted(ctx, user.Id)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)
}

func Test_SqlRepo_DeleteUser_idempotent(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "carol")

	require.NoError(t, repo.DeleteUser(ctx, user.Id))

	first, err := repo.GetUserIncludeDeleted(ctx, user.Id)
	require.NoError(t, err)
	require.NotNil(t, first.DeletedAt)

	require.NoError(t, repo.DeleteUser(ctx, user.Id))

	second, err := repo.GetUserIncludeDeleted(ctx, user.Id)
	require.NoError(t, err)
	require.NotNil(t, second.DeletedAt)
	assert.Equal(t, first.DeletedAt.Unix(), second.DeletedAt.Unix())

	require.ErrorIs(t, repo.DeleteUser(ctx, 4242), domain.ErrNotFound)
}

func Test_SqlRepo_cascadeCoversAllOwnershipEdges(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	// one row per table reachable from users via the declared edges
	user := createTestUser(t, repo, "dave")

	strategy, err := repo.SaveStrategy(ctx, 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = user.Id
		s.Name = "ema-crossover"
		return s, nil
	})
	require.NoError(t, err)

	order, err := repo.SaveOrder(ctx, 0, func(o *domain.Order) (*domain.Order, error) {
		o.UserId = user.Id
		o.AssetId = 1
		o.StrategyId = &strategy.Id
		o.OrderType = domain.OrderTypeMarket
		o.Side = domain.OrderSideBuy
		o.Quantity = 1
		return o, nil
	})
	require.NoError(t, err)

	_, err = repo.SaveTrade(ctx, 0, func(tr *domain.Trade) (*domain.Trade, error) {
		tr.UserId = user.Id
		tr.OrderId = &order.Id
		tr.Symbol = "BTC/USDT"
		tr.TradeType = domain.TradeTypeBuy
		tr.Quantity = 1
		tr.Price = 100
		return tr, nil
	})
	require.NoError(t, err)

	_, err = repo.SaveBacktestResult(ctx, 0, func(b *domain.BacktestResult) (*domain.BacktestResult, error) {
		b.StrategyId = strategy.Id
		b.StartTime = time.Now().Add(-time.Hour)
		b.EndTime = time.Now()
		return b, nil
	})
	require.NoError(t, err)

	inserted, err := repo.SaveSignals(ctx, []domain.Signal{
		{AssetId: 1, StrategyId: strategy.Id, Timestamp: time.Now().UTC(), SignalType: domain.SignalTypeBuy},
	})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	require.NoError(t, repo.DeleteUser(ctx, user.Id))

	// every table in the transitive closure of the declared edges must have
	// picked up flagged rows
	reachable := map[string]bool{}
	var walk func(table string)
	walk = func(table string) {
		for _, child := range domain.OwnershipEdges[table] {
			if reachable[child] {
				continue
			}
			reachable[child] = true
			walk(child)
		}
	}
	walk("users")
	require.NotEmpty(t, reachable)

	for table := range reachable {
		var flagged int64
		require.NoError(t, repo.db.Table(table).Where("is_deleted = ?", true).Count(&flagged).Error)
		assert.NotZero(t, flagged, "expected the cascade to flag rows in %s", table)
	}
}

func Test_SqlRepo_SaveFill_atomic(t *testing.T) {
	repo := tempSqliteRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "erin")

	order, err := repo.SaveOrder(ctx, 0, func(o *domain.Order) (*domain.Order, error) {
		o.UserId = user.Id
		o.AssetId = 1
		o.OrderType = domain.OrderTypeMarket
		o.Side = domain.OrderSideBuy
		o.Quantity = 1
		return o, nil
	})
	require.NoError(t, err)

	// a failing order update must also roll back the trade insert
	_, err = repo.SaveFill(ctx, order.Id,
		func(tr *domain.Trade) (*domain.Trade, error) {
			tr.UserId = user.Id
			tr.OrderId = &order.Id
			tr.Symbol = "BTC/USDT"
			tr.TradeType = domain.TradeTypeBuy
			tr.Quantity = 1
			tr.Price = 100
			return tr, nil
		},
		func(o *domain.Order) (*domain.Order, error) {
			return nil, domain.ErrInvalidData
		})
	require.ErrorIs(t, err, domain.ErrInvalidData)

	trades, err := repo.GetOrderTrades(ctx, order.Id)
	require.NoError(t, err)
	assert.Empty(t, trades)

	unchanged, err := repo.GetOrder(ctx, order.Id)
	require.NoError(t, err)
	assert.Zero(t, unchanged.FilledQuantity)
	assert.Equal(t, domain.OrderStatusPending, unchanged.Status)

	_, err = repo.SaveFill(ctx, 4242,
		func(tr *domain.Trade) (*domain.Trade, error) { return tr, nil },
		func(o *domain.Order) (*domain.Order, error) { return o, nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
