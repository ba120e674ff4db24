package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/ai-trader/trader-portal/internal/app/api/core/request"
	"github.com/ai-trader/trader-portal/internal/app/api/core/respond"
	"github.com/ai-trader/trader-portal/internal/app/api/v0/model"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type AnalyticsService interface {
	ComputeAnalytics(ctx context.Context, userId domain.UserId,
		strategyId *domain.StrategyId) (*domain.TradeAnalytics, error)
	GetAnalytics(ctx context.Context, userId domain.UserId) ([]domain.TradeAnalytics, error)
	GetDailyProfits(ctx context.Context, userId domain.UserId, from, to time.Time) ([]domain.DailyProfit, error)
	GetMonthlySummaries(ctx context.Context, userId domain.UserId, from, to time.Time) (
		[]domain.MonthlySummary, error)
}

type AnalyticsEndpoint struct {
	analyticsService AnalyticsService
	authenticator    Authenticator
}

func NewAnalyticsEndpoint(authenticator Authenticator, analyticsService AnalyticsService) AnalyticsEndpoint {
	return AnalyticsEndpoint{
		analyticsService: analyticsService,
		authenticator:    authenticator,
	}
}

func (e AnalyticsEndpoint) GetName() string {
	return "AnalyticsEndpoint"
}

func (e AnalyticsEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/analytics")
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}", e.handleUserAnalyticsGet())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("POST /user/{id}/compute",
		e.handleComputePost())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}/daily",
		e.handleDailyProfitsGet())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}/monthly",
		e.handleMonthlySummariesGet())
}

// handleUserAnalyticsGet returns the stored performance snapshots of a user.
func (e AnalyticsEndpoint) handleUserAnalyticsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		analytics, err := e.analyticsService.GetAnalytics(r.Context(), domain.UserId(userId))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewTradeAnalyticsList(analytics))
	}
}

// handleComputePost aggregates the trades of a user into a fresh performance
// snapshot. An optional strategyId query parameter restricts the aggregation
// to trades of a single strategy.
func (e AnalyticsEndpoint) handleComputePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var strategyId *domain.StrategyId
		if raw := request.Query(r, "strategyId"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				respond.JSON(w, http.StatusBadRequest,
					model.Error{Code: http.StatusBadRequest, Message: "invalid strategyId parameter"})
				return
			}
			sid := domain.StrategyId(parsed)
			strategyId = &sid
		}

		analytics, err := e.analyticsService.ComputeAnalytics(r.Context(), domain.UserId(userId), strategyId)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewTradeAnalytics(analytics))
	}
}

// handleDailyProfitsGet returns the stored daily profit rows of a user.
// Optional from and to query parameters (YYYY-MM-DD) restrict the range.
func (e AnalyticsEndpoint) handleDailyProfitsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		from, to, err := dateRange(r)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		profits, err := e.analyticsService.GetDailyProfits(r.Context(), domain.UserId(userId), from, to)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewDailyProfits(profits))
	}
}

// handleMonthlySummariesGet returns the stored monthly summaries of a user.
// Optional from and to query parameters (YYYY-MM-DD) restrict the range.
func (e AnalyticsEndpoint) handleMonthlySummariesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		from, to, err := dateRange(r)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		summaries, err := e.analyticsService.GetMonthlySummaries(r.Context(), domain.UserId(userId), from, to)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewMonthlySummaries(summaries))
	}
}

func dateRange(r *http.Request) (from, to time.Time, err error) {
	if raw := request.Query(r, "from"); raw != "" {
		from, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from parameter: %w", err)
		}
	}
	if raw := request.Query(r, "to"); raw != "" {
		to, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to parameter: %w", err)
		}
	}

	return from, to, nil
}
