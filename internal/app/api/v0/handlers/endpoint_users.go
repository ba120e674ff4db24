package handlers

import (
	"context"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/ai-trader/trader-portal/internal/app/api/core/request"
	"github.com/ai-trader/trader-portal/internal/app/api/core/respond"
	"github.com/ai-trader/trader-portal/internal/app/api/v0/model"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id domain.UserId) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	FindUsers(ctx context.Context, search string) ([]domain.User, error)
	NewUser(ctx context.Context, username, email, password string, isAdmin bool) (*domain.User, error)
	UpdateUser(ctx context.Context, update *domain.User) (*domain.User, error)
	ChangePassword(ctx context.Context, id domain.UserId, oldPassword, newPassword string) error
	DeleteUser(ctx context.Context, id domain.UserId) error
}

type UserEndpoint struct {
	userService   UserService
	authenticator Authenticator
	validate      Validator
}

func NewUserEndpoint(authenticator Authenticator, validator Validator, userService UserService) UserEndpoint {
	return UserEndpoint{
		userService:   userService,
		authenticator: authenticator,
		validate:      validator,
	}
}

func (e UserEndpoint) GetName() string {
	return "UserEndpoint"
}

func (e UserEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/user")
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("GET /all", e.handleAllGet())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /new", e.handleCreatePost())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /{id}", e.handleSingleGet())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("PUT /{id}", e.handleUpdatePut())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("POST /{id}/password", e.handlePasswordPost())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("DELETE /{id}", e.handleDelete())
}

// handleAllGet returns all user records. An optional search query filters by
// username or email.
func (e UserEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := request.Query(r, "search")

		var users []domain.User
		var err error
		if search != "" {
			users, err = e.userService.FindUsers(r.Context(), search)
		} else {
			users, err = e.userService.GetAllUsers(r.Context())
		}
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUsers(users))
	}
}

// handleSingleGet returns a single user record.
func (e UserEndpoint) handleSingleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		user, err := e.userService.GetUser(r.Context(), domain.UserId(id))
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUser(user))
	}
}

// handleCreatePost creates a new user record.
func (e UserEndpoint) handleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newUser struct {
			Username string `json:"username" validate:"required,min=2"`
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required,min=8"`
			IsAdmin  bool   `json:"isAdmin"`
		}

		if err := request.BodyJson(r, &newUser); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validate.Struct(newUser); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		user, err := e.userService.NewUser(r.Context(), newUser.Username, newUser.Email, newUser.Password,
			newUser.IsAdmin)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewUser(user))
	}
}

// handleUpdatePut updates the user record.
func (e UserEndpoint) handleUpdatePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var user model.User
		if err := request.BodyJson(r, &user); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if id != user.Id {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "user id mismatch"})
			return
		}

		updatedUser, err := e.userService.UpdateUser(r.Context(), model.NewDomainUser(&user))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewUser(updatedUser))
	}
}

// handlePasswordPost changes the password of a user. Non-admins have to
// provide their current password.
func (e UserEndpoint) handlePasswordPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var passwordData struct {
			OldPassword string `json:"oldPassword"`
			NewPassword string `json:"newPassword" validate:"required,min=8"`
		}

		if err := request.BodyJson(r, &passwordData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validate.Struct(passwordData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		err = e.userService.ChangePassword(r.Context(), domain.UserId(id),
			passwordData.OldPassword, passwordData.NewPassword)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}

// handleDelete flags the user record and all owned records as deleted.
func (e UserEndpoint) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if err := e.userService.DeleteUser(r.Context(), domain.UserId(id)); err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}
