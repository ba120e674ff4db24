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

type StrategyService interface {
	CreateStrategy(ctx context.Context, strategy *domain.Strategy) (*domain.Strategy, error)
	GetStrategy(ctx context.Context, id domain.StrategyId) (*domain.Strategy, error)
	GetUserStrategies(ctx context.Context, userId domain.UserId) ([]domain.Strategy, error)
	GetAllStrategies(ctx context.Context) ([]domain.Strategy, error)
	UpdateStrategy(ctx context.Context, update *domain.Strategy) (*domain.Strategy, error)
	RotateApiKey(ctx context.Context, id domain.StrategyId) (string, error)
	DeleteStrategy(ctx context.Context, id domain.StrategyId) error
	RecordBacktestResult(ctx context.Context, result *domain.BacktestResult) (*domain.BacktestResult, error)
	GetBacktestResults(ctx context.Context, strategyId domain.StrategyId) ([]domain.BacktestResult, error)
}

type StrategyEndpoint struct {
	strategyService StrategyService
	authenticator   Authenticator
	validate        Validator
}

func NewStrategyEndpoint(
	authenticator Authenticator,
	validator Validator,
	strategyService StrategyService,
) StrategyEndpoint {
	return StrategyEndpoint{
		strategyService: strategyService,
		authenticator:   authenticator,
		validate:        validator,
	}
}

func (e StrategyEndpoint) GetName() string {
	return "StrategyEndpoint"
}

func (e StrategyEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/strategy")
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("GET /all", e.handleAllGet())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}", e.handleUserStrategiesGet())
	apiGroup.HandleFunc("POST /new", e.handleCreatePost())
	apiGroup.HandleFunc("GET /{id}", e.handleSingleGet())
	apiGroup.HandleFunc("PUT /{id}", e.handleUpdatePut())
	apiGroup.HandleFunc("POST /{id}/api-key", e.handleApiKeyPost())
	apiGroup.HandleFunc("DELETE /{id}", e.handleDelete())
	apiGroup.HandleFunc("GET /{id}/backtests", e.handleBacktestsGet())
	apiGroup.HandleFunc("POST /{id}/backtests", e.handleBacktestPost())
}

// handleAllGet returns the strategies of all users.
func (e StrategyEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		strategies, err := e.strategyService.GetAllStrategies(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewStrategies(strategies))
	}
}

// handleUserStrategiesGet returns all strategies owned by the given user.
func (e StrategyEndpoint) handleUserStrategiesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		strategies, err := e.strategyService.GetUserStrategies(r.Context(), domain.UserId(userId))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewStrategies(strategies))
	}
}

// handleCreatePost creates a new strategy for the calling user.
func (e StrategyEndpoint) handleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var strategy model.Strategy
		if err := request.BodyJson(r, &strategy); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if strategy.UserId == 0 {
			strategy.UserId = uint64(domain.GetUserInfo(r.Context()).Id)
		}

		created, err := e.strategyService.CreateStrategy(r.Context(), model.NewDomainStrategy(&strategy))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewStrategy(created))
	}
}

// handleSingleGet returns a single strategy record.
func (e StrategyEndpoint) handleSingleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		strategy, err := e.strategyService.GetStrategy(r.Context(), domain.StrategyId(id))
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewStrategy(strategy))
	}
}

// handleUpdatePut updates a strategy record.
func (e StrategyEndpoint) handleUpdatePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var strategy model.Strategy
		if err := request.BodyJson(r, &strategy); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if id != strategy.Id {
			respond.JSON(w, http.StatusBadRequest,
				model.Error{Code: http.StatusBadRequest, Message: "strategy id mismatch"})
			return
		}

		updated, err := e.strategyService.UpdateStrategy(r.Context(), model.NewDomainStrategy(&strategy))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewStrategy(updated))
	}
}

// handleApiKeyPost generates a fresh API key for a strategy. The response is
// the only place the plaintext key ever shows up.
func (e StrategyEndpoint) handleApiKeyPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		apiKey, err := e.strategyService.RotateApiKey(r.Context(), domain.StrategyId(id))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, map[string]string{"ApiKey": apiKey})
	}
}

// handleDelete flags a strategy and its dependent records as deleted.
func (e StrategyEndpoint) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if err := e.strategyService.DeleteStrategy(r.Context(), domain.StrategyId(id)); err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}

// handleBacktestsGet returns the stored backtest results of a strategy.
func (e StrategyEndpoint) handleBacktestsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		results, err := e.strategyService.GetBacktestResults(r.Context(), domain.StrategyId(id))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewBacktestResults(results))
	}
}

// handleBacktestPost stores a new backtest result for a strategy.
func (e StrategyEndpoint) handleBacktestPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var result model.BacktestResult
		if err := request.BodyJson(r, &result); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		result.StrategyId = id

		stored, err := e.strategyService.RecordBacktestResult(r.Context(), model.NewDomainBacktestResult(&result))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewBacktestResult(stored))
	}
}
