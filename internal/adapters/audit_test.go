package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

func auditedRepo(t *testing.T) *SqlRepo {
	t.Helper()
	return tempSqliteRepo(t, "users", "strategies", "orders", "trades")
}

func asPrincipal(user *domain.User) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{
		Id:       user.Id,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
}

func Test_auditPlugin_recordsInsert(t *testing.T) {
	repo := auditedRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "alice")

	entries, err := repo.GetRecordAuditEntries(ctx, "users", uint64(user.Id))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, domain.AuditActionInsert, entry.Action)
	assert.Equal(t, "users", entry.Table)
	assert.Nil(t, entry.ChangedBy) // created without an authenticated principal
	assert.False(t, entry.Timestamp.IsZero())

	assert.Equal(t, "alice", entry.Changes["username"])
	assert.Equal(t, "", entry.Changes["password"]) // redacted, never stored in the trail
}

func Test_auditPlugin_recordsAttributedUpdate(t *testing.T) {
	repo := auditedRepo(t)

	admin := createTestUser(t, repo, "admin")
	victim := createTestUser(t, repo, "bob")

	// admin changes bobs email address
	_, err := repo.SaveUser(asPrincipal(admin), victim.Id, func(u *domain.User) (*domain.User, error) {
		u.Email = "bob@corp.example.com"
		return u, nil
	})
	require.NoError(t, err)

	entries, err := repo.GetRecordAuditEntries(context.Background(), "users", uint64(victim.Id))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	update := entries[1]
	assert.Equal(t, domain.AuditActionUpdate, update.Action)
	require.NotNil(t, update.ChangedBy)
	assert.Equal(t, admin.Id, *update.ChangedBy)

	// only the changed column shows up in the diff
	require.Len(t, update.Changes, 1)
	change, ok := update.Changes["email"].(map[string]any)
	require.True(t, ok, "expected an old/new pair, got %T", update.Changes["email"])
	assert.Equal(t, "bob@example.com", change["old"])
	assert.Equal(t, "bob@corp.example.com", change["new"])

	attributed, err := repo.GetUserAuditEntries(context.Background(), admin.Id)
	require.NoError(t, err)
	require.Len(t, attributed, 1)
	assert.Equal(t, uint64(victim.Id), attributed[0].RecordId)
}

func Test_auditPlugin_skipsNoOpUpdates(t *testing.T) {
	repo := auditedRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "alice")

	// a save that changes nothing must not pollute the trail
	_, err := repo.SaveUser(ctx, user.Id, func(u *domain.User) (*domain.User, error) {
		return u, nil
	})
	require.NoError(t, err)

	entries, err := repo.GetRecordAuditEntries(ctx, "users", uint64(user.Id))
	require.NoError(t, err)
	assert.Len(t, entries, 1) // just the INSERT
}

func Test_auditPlugin_recordsDeleteSnapshot(t *testing.T) {
	repo := auditedRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "gone")

	// physical deletes are not part of the repository API, but the trail
	// still captures them if someone issues one
	require.NoError(t, repo.db.WithContext(ctx).Delete(&domain.User{Id: user.Id}).Error)

	entries, err := repo.GetRecordAuditEntries(ctx, "users", uint64(user.Id))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	snapshot := entries[1]
	assert.Equal(t, domain.AuditActionDelete, snapshot.Action)
	assert.Equal(t, "gone", snapshot.Changes["username"])
}

func Test_auditPlugin_rollsBackWithTransaction(t *testing.T) {
	repo := auditedRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&domain.User{Username: "phantom", Email: "phantom@example.com"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// neither the user nor its audit entry survived the rollback
	_, err = repo.GetUserByUsername(ctx, "phantom")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := repo.GetAuditEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func Test_auditPlugin_softDeleteCascadeLeavesTrail(t *testing.T) {
	repo := auditedRepo(t)

	admin := createTestUser(t, repo, "admin")
	user := createTestUser(t, repo, "dave")

	ctx := asPrincipal(admin)

	strategy, err := repo.SaveStrategy(ctx, 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = user.Id
		s.Name = "scalper"
		return s, nil
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, user.Id))

	userTrail, err := repo.GetRecordAuditEntries(context.Background(), "users", uint64(user.Id))
	require.NoError(t, err)
	require.Len(t, userTrail, 2)
	assert.Equal(t, domain.AuditActionUpdate, userTrail[1].Action)
	assert.Contains(t, userTrail[1].Changes, "is_deleted")

	strategyTrail, err := repo.GetRecordAuditEntries(context.Background(), "strategies", uint64(strategy.Id))
	require.NoError(t, err)
	require.Len(t, strategyTrail, 2)
	assert.Contains(t, strategyTrail[1].Changes, "is_deleted")
	require.NotNil(t, strategyTrail[1].ChangedBy)
	assert.Equal(t, admin.Id, *strategyTrail[1].ChangedBy)
}

func Test_auditPlugin_unlistedTablesStaySilent(t *testing.T) {
	repo := tempSqliteRepo(t, "users")
	ctx := context.Background()

	_, err := repo.SaveAsset(ctx, 0, func(a *domain.Asset) (*domain.Asset, error) {
		a.Symbol = "ETH/USDT"
		return a, nil
	})
	require.NoError(t, err)

	entries, err := repo.GetAuditEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func Test_RegisterAuditing_isIdempotent(t *testing.T) {
	db, err := NewDatabase(config.DatabaseConfig{Type: config.DatabaseSQLite, DSN: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, RegisterAuditing(db, []string{"users"}))
	// the second registration only extends the allow-list
	require.NoError(t, RegisterAuditing(db, []string{"users", "strategies"}))

	repo, err := NewSqlRepository(db)
	require.NoError(t, err)

	user := createTestUser(t, repo, "eve")

	entries, err := repo.GetRecordAuditEntries(context.Background(), "users", uint64(user.Id))
	require.NoError(t, err)
	assert.Len(t, entries, 1) // exactly one entry, the callbacks are not installed twice

	strategy, err := repo.SaveStrategy(context.Background(), 0, func(s *domain.Strategy) (*domain.Strategy, error) {
		s.UserId = user.Id
		s.Name = "merged-in"
		return s, nil
	})
	require.NoError(t, err)

	entries, err = repo.GetRecordAuditEntries(context.Background(), "strategies", uint64(strategy.Id))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func Test_auditPlugin_rejectsBulkMutationsOnAuditedTables(t *testing.T) {
	repo := auditedRepo(t)
	ctx := context.Background()

	createTestUser(t, repo, "alice")
	createTestUser(t, repo, "bob")

	// a bulk update cannot be attributed to single records
	err := repo.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("is_admin = ?", false).
		Update("notes", "bulk").Error
	assert.Error(t, err)

	err = repo.db.WithContext(ctx).
		Where("is_admin = ?", false).
		Delete(&domain.User{}).Error
	assert.Error(t, err)
}
