package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

// fakeUserRepo is a minimal in-memory UserDatabaseRepo.
type fakeUserRepo struct {
	users  map[domain.UserId]*domain.User
	nextId domain.UserId
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[domain.UserId]*domain.User{}, nextId: 1}
}

func (r *fakeUserRepo) GetUser(_ context.Context, id domain.UserId) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		cpy := *u
		return &cpy, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetAllUsers(_ context.Context) ([]domain.User, error) {
	all := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, *u)
	}
	return all, nil
}

func (r *fakeUserRepo) FindUsers(ctx context.Context, _ string) ([]domain.User, error) {
	return r.GetAllUsers(ctx)
}

func (r *fakeUserRepo) SaveUser(
	_ context.Context,
	id domain.UserId,
	updateFunc func(u *domain.User) (*domain.User, error),
) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		u = &domain.User{Id: r.nextId}
		r.nextId++
	}

	updated, err := updateFunc(u)
	if err != nil {
		return nil, err
	}

	r.users[updated.Id] = updated
	cpy := *updated
	return &cpy, nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id domain.UserId) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func testUserManager(t *testing.T) (*Manager, *fakeUserRepo) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Core.AdminUser = "admin"
	cfg.Core.AdminPassword = "admin-secret"
	cfg.Core.AdminEmail = "admin@example.com"
	cfg.Core.SelfRegistrationAllowed = true

	repo := newFakeUserRepo()
	m, err := NewUserManager(cfg, evbus.New(10), repo)
	require.NoError(t, err)

	return m, repo
}

func adminCtx() context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{Id: 999, Username: "admin", IsAdmin: true})
}

func userCtx(id domain.UserId) context.Context {
	return domain.SetUserInfo(context.Background(), &domain.ContextUserInfo{Id: id, Username: "user"})
}

func Test_Manager_EnsureDefaultAdmin(t *testing.T) {
	m, repo := testUserManager(t)

	require.NoError(t, m.EnsureDefaultAdmin(context.Background()))

	admin, err := repo.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, admin.CheckPassword("admin-secret"))

	// second run must not create a duplicate
	require.NoError(t, m.EnsureDefaultAdmin(context.Background()))
	all, err := repo.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func Test_Manager_RegisterUser(t *testing.T) {
	m, _ := testUserManager(t)

	user, err := m.RegisterUser(context.Background(), "trader", "trader@example.com", "super-secret")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	assert.NoError(t, user.CheckPassword("super-secret"))

	// duplicate username
	_, err = m.RegisterUser(context.Background(), "trader", "other@example.com", "super-secret")
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)

	m.cfg.Core.SelfRegistrationAllowed = false
	_, err = m.RegisterUser(context.Background(), "other", "other@example.com", "super-secret")
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_NewUser_adminOnly(t *testing.T) {
	m, _ := testUserManager(t)

	_, err := m.NewUser(userCtx(7), "trader", "trader@example.com", "super-secret", false)
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	user, err := m.NewUser(adminCtx(), "trader", "trader@example.com", "super-secret", true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func Test_Manager_Authenticate(t *testing.T) {
	m, _ := testUserManager(t)

	user, err := m.RegisterUser(context.Background(), "trader", "trader@example.com", "super-secret")
	require.NoError(t, err)

	got, err := m.Authenticate(context.Background(), "trader", "super-secret")
	require.NoError(t, err)
	assert.Equal(t, user.Id, got.Id)

	_, err = m.Authenticate(context.Background(), "trader", "wrong")
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	_, err = m.Authenticate(context.Background(), "nobody", "super-secret")
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func Test_Manager_ChangePassword(t *testing.T) {
	m, _ := testUserManager(t)

	user, err := m.RegisterUser(context.Background(), "trader", "trader@example.com", "super-secret")
	require.NoError(t, err)

	// non-admins need a matching current password
	err = m.ChangePassword(userCtx(user.Id), user.Id, "wrong", "new-password")
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	err = m.ChangePassword(userCtx(user.Id), user.Id, "super-secret", "new-password")
	require.NoError(t, err)

	_, err = m.Authenticate(context.Background(), "trader", "new-password")
	assert.NoError(t, err)

	// admins can reset without the current password
	err = m.ChangePassword(adminCtx(), user.Id, "", "reset-password")
	require.NoError(t, err)

	_, err = m.Authenticate(context.Background(), "trader", "reset-password")
	assert.NoError(t, err)
}

func Test_Manager_UpdateUser_adminFlag(t *testing.T) {
	m, _ := testUserManager(t)

	user, err := m.RegisterUser(context.Background(), "trader", "trader@example.com", "super-secret")
	require.NoError(t, err)

	// users cannot grant themselves admin rights
	update := *user
	update.IsAdmin = true
	_, err = m.UpdateUser(userCtx(user.Id), &update)
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	updated, err := m.UpdateUser(adminCtx(), &update)
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
}

func Test_Manager_DeleteUser(t *testing.T) {
	m, repo := testUserManager(t)

	user, err := m.RegisterUser(context.Background(), "trader", "trader@example.com", "super-secret")
	require.NoError(t, err)

	// deletion requires admin rights, self-deletion is rejected
	err = m.DeleteUser(userCtx(user.Id), user.Id)
	assert.ErrorIs(t, err, domain.ErrNoPermission)

	selfCtx := domain.SetUserInfo(context.Background(),
		&domain.ContextUserInfo{Id: user.Id, Username: user.Username, IsAdmin: true})
	err = m.DeleteUser(selfCtx, user.Id)
	assert.ErrorIs(t, err, domain.ErrInvalidData)

	require.NoError(t, m.DeleteUser(adminCtx(), user.Id))

	_, err = repo.GetUser(context.Background(), user.Id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
