package users

import (
	"context"

	"github.com/ai-trader/trader-portal/internal/domain"
)

type UserDatabaseRepo interface {
	GetUser(ctx context.Context, id domain.UserId) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	FindUsers(ctx context.Context, search string) ([]domain.User, error)
	SaveUser(
		ctx context.Context,
		id domain.UserId,
		updateFunc func(u *domain.User) (*domain.User, error),
	) (*domain.User, error)
	DeleteUser(ctx context.Context, id domain.UserId) error
}
