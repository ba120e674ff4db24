package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal/app"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type Manager struct {
	cfg *config.Config
	bus evbus.MessageBus

	users UserDatabaseRepo
}

func NewUserManager(cfg *config.Config, bus evbus.MessageBus, users UserDatabaseRepo) (*Manager, error) {
	m := &Manager{
		cfg: cfg,
		bus: bus,

		users: users,
	}
	return m, nil
}

// EnsureDefaultAdmin creates the admin account from the configuration if it
// does not exist yet. The account is created under the system principal, so
// its audit entry stays unattributed.
func (m Manager) EnsureDefaultAdmin(ctx context.Context) error {
	if m.cfg.Core.AdminUser == "" {
		return nil
	}

	ctx = domain.SetUserInfo(ctx, domain.SystemContextUserInfo())

	_, err := m.users.GetUserByUsername(ctx, m.cfg.Core.AdminUser)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	admin, err := m.users.SaveUser(ctx, 0, func(u *domain.User) (*domain.User, error) {
		u.Username = m.cfg.Core.AdminUser
		u.Email = m.cfg.Core.AdminEmail
		u.Password = domain.PrivateString(m.cfg.Core.AdminPassword)
		u.IsAdmin = true
		return u, u.HashPassword()
	})
	if err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	slog.Info("created default admin user", "id", admin.Id, "username", admin.Username)
	m.bus.Publish(app.TopicUserCreated, admin)

	return nil
}

// RegisterUser creates a new non-admin account with the given credentials.
// Registration is only possible if self registration is enabled.
func (m Manager) RegisterUser(ctx context.Context, username, email, password string) (*domain.User, error) {
	if !m.cfg.Core.SelfRegistrationAllowed {
		return nil, fmt.Errorf("self registration is disabled: %w", domain.ErrNoPermission)
	}

	user, err := m.createUser(ctx, username, email, password, false)
	if err != nil {
		return nil, err
	}

	m.bus.Publish(app.TopicUserRegistered, user)

	return user, nil
}

// NewUser creates a new account, only admins are allowed to do this.
func (m Manager) NewUser(ctx context.Context, username, email, password string, isAdmin bool) (
	*domain.User,
	error,
) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	return m.createUser(ctx, username, email, password, isAdmin)
}

func (m Manager) createUser(ctx context.Context, username, email, password string, isAdmin bool) (
	*domain.User,
	error,
) {
	if username == "" {
		return nil, fmt.Errorf("missing username: %w", domain.ErrInvalidData)
	}
	if password == "" {
		return nil, fmt.Errorf("missing password: %w", domain.ErrInvalidData)
	}

	if _, err := m.users.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("user %s already exists: %w", username, domain.ErrDuplicateEntry)
	}

	user, err := m.users.SaveUser(ctx, 0, func(u *domain.User) (*domain.User, error) {
		u.Username = username
		u.Email = email
		u.Password = domain.PrivateString(password)
		u.IsAdmin = isAdmin
		return u, u.HashPassword()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	m.bus.Publish(app.TopicUserCreated, user)

	return user, nil
}

func (m Manager) GetUser(ctx context.Context, id domain.UserId) (*domain.User, error) {
	if err := domain.ValidateUserAccessRights(ctx, id); err != nil {
		return nil, err
	}

	user, err := m.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load user %d: %w", id, err)
	}

	return user, nil
}

func (m Manager) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	users, err := m.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load users: %w", err)
	}

	return users, nil
}

func (m Manager) FindUsers(ctx context.Context, search string) ([]domain.User, error) {
	if err := domain.ValidateAdminAccessRights(ctx); err != nil {
		return nil, err
	}

	users, err := m.users.FindUsers(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("unable to search users: %w", err)
	}

	return users, nil
}

// UpdateUser changes the profile data of the user with the given id.
// Only admins can grant or revoke admin rights.
func (m Manager) UpdateUser(ctx context.Context, update *domain.User) (*domain.User, error) {
	existing, err := m.users.GetUser(ctx, update.Id)
	if err != nil {
		return nil, fmt.Errorf("unable to load user %d: %w", update.Id, err)
	}

	if err := existing.EditAllowed(ctx); err != nil {
		return nil, err
	}

	if update.IsAdmin != existing.IsAdmin {
		if err := domain.ValidateAdminAccessRights(ctx); err != nil {
			return nil, fmt.Errorf("only admins can change admin rights: %w", err)
		}
	}

	user, err := m.users.SaveUser(ctx, update.Id, func(u *domain.User) (*domain.User, error) {
		u.Email = update.Email
		u.IsAdmin = update.IsAdmin
		u.Notes = update.Notes
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return user, nil
}

// ChangePassword sets a new password for the user with the given id.
// Non-admin users have to provide their current password.
func (m Manager) ChangePassword(ctx context.Context, id domain.UserId, oldPassword, newPassword string) error {
	user, err := m.users.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to load user %d: %w", id, err)
	}

	if err := user.EditAllowed(ctx); err != nil {
		return err
	}

	if newPassword == "" {
		return fmt.Errorf("missing new password: %w", domain.ErrInvalidData)
	}

	if !domain.GetUserInfo(ctx).IsAdmin {
		if err := user.CheckPassword(oldPassword); err != nil {
			return fmt.Errorf("current password mismatch: %w", domain.ErrNoPermission)
		}
	}

	_, err = m.users.SaveUser(ctx, id, func(u *domain.User) (*domain.User, error) {
		u.Password = domain.PrivateString(newPassword)
		return u, u.HashPassword()
	})
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// DeleteUser soft-deletes the user with the given id, including all owned
// strategies, orders, signals and trades. Admins only, self-deletion is not
// allowed.
func (m Manager) DeleteUser(ctx context.Context, id domain.UserId) error {
	user, err := m.users.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to load user %d: %w", id, err)
	}

	if err := user.DeleteAllowed(ctx); err != nil {
		return err
	}

	if err := m.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}

	m.bus.Publish(app.TopicUserDeleted, user)

	return nil
}

// Authenticate checks the given credentials and returns the matching user.
func (m Manager) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := m.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrNoPermission)
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrNoPermission)
	}

	m.bus.Publish(app.TopicAuthLogin, user.Id)

	return user, nil
}
