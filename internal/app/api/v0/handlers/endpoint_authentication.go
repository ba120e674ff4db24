package handlers

import (
	"context"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/ai-trader/trader-portal/internal/app/api/core/request"
	"github.com/ai-trader/trader-portal/internal/app/api/core/respond"
	"github.com/ai-trader/trader-portal/internal/app/api/v0/model"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type AuthenticationService interface {
	// Authenticate checks the given credentials and returns the matching user.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	// RegisterUser creates a new non-admin account, if self registration is enabled.
	RegisterUser(ctx context.Context, username, email, password string) (*domain.User, error)
}

type AuthEndpoint struct {
	cfg         *config.Config
	authService AuthenticationService
	session     Session
	validate    Validator
}

func NewAuthEndpoint(
	cfg *config.Config,
	session Session,
	validator Validator,
	authService AuthenticationService,
) AuthEndpoint {
	return AuthEndpoint{
		cfg:         cfg,
		authService: authService,
		session:     session,
		validate:    validator,
	}
}

func (e AuthEndpoint) GetName() string {
	return "AuthEndpoint"
}

func (e AuthEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/auth")

	apiGroup.HandleFunc("GET /session", e.handleSessionInfoGet())
	apiGroup.HandleFunc("POST /login", e.handleLoginPost())
	apiGroup.HandleFunc("POST /logout", e.handleLogoutPost())
	apiGroup.HandleFunc("POST /register", e.handleRegisterPost())
}

// handleSessionInfoGet returns information about the currently logged-in user.
func (e AuthEndpoint) handleSessionInfoGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentSession := e.session.GetData(r.Context())

		info := model.SessionInfo{
			LoggedIn: currentSession.LoggedIn,
			IsAdmin:  currentSession.IsAdmin,
		}
		if currentSession.LoggedIn {
			uid := currentSession.UserId
			username := currentSession.Username
			email := currentSession.Email
			info.UserId = &uid
			info.Username = &username
			info.Email = &email
		}

		respond.JSON(w, http.StatusOK, info)
	}
}

// handleLoginPost authenticates a user with username and password and starts
// a fresh session.
func (e AuthEndpoint) handleLoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentSession := e.session.GetData(r.Context())
		if currentSession.LoggedIn {
			respond.JSON(w, http.StatusOK, model.Error{Code: http.StatusOK, Message: "already logged in"})
			return
		}

		var loginData struct {
			Username string `json:"username" validate:"required,min=2"`
			Password string `json:"password" validate:"required,min=4"`
		}

		if err := request.BodyJson(r, &loginData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validate.Struct(loginData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		user, err := e.authService.Authenticate(r.Context(), loginData.Username, loginData.Password)
		if err != nil {
			respond.JSON(w, http.StatusUnauthorized,
				model.Error{Code: http.StatusUnauthorized, Message: "login failed"})
			return
		}

		e.setAuthenticatedUser(r, user)

		respond.JSON(w, http.StatusOK, model.NewUser(user))
	}
}

// handleLogoutPost destroys the current session.
func (e AuthEndpoint) handleLogoutPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentSession := e.session.GetData(r.Context())

		if !currentSession.LoggedIn { // Not logged in
			respond.JSON(w, http.StatusOK, model.Error{Code: http.StatusOK, Message: "not logged in"})
			return
		}

		e.session.DestroyData(r.Context())
		respond.JSON(w, http.StatusOK, model.Error{Code: http.StatusOK, Message: "logout ok"})
	}
}

// handleRegisterPost creates a new account, if self registration is enabled.
func (e AuthEndpoint) handleRegisterPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentSession := e.session.GetData(r.Context())
		if currentSession.LoggedIn {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "already logged in"})
			return
		}

		var registerData struct {
			Username string `json:"username" validate:"required,min=2"`
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required,min=8"`
		}

		if err := request.BodyJson(r, &registerData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validate.Struct(registerData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		user, err := e.authService.RegisterUser(r.Context(),
			registerData.Username, registerData.Email, registerData.Password)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		e.setAuthenticatedUser(r, user)

		respond.JSON(w, http.StatusCreated, model.NewUser(user))
	}
}

func (e AuthEndpoint) setAuthenticatedUser(r *http.Request, user *domain.User) {
	// start a fresh session
	e.session.DestroyData(r.Context())

	currentSession := e.session.GetData(r.Context())

	currentSession.LoggedIn = true
	currentSession.IsAdmin = user.IsAdmin
	currentSession.UserId = uint64(user.Id)
	currentSession.Username = user.Username
	currentSession.Email = user.Email

	e.session.SetData(r.Context(), currentSession)
}
