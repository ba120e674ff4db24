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

type TradingService interface {
	PlaceOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id domain.OrderId) (*domain.Order, error)
	GetUserOrders(ctx context.Context, userId domain.UserId) ([]domain.Order, error)
	GetStrategyOrders(ctx context.Context, strategyId domain.StrategyId) ([]domain.Order, error)
	CancelOrder(ctx context.Context, id domain.OrderId) (*domain.Order, error)
	RecordFill(ctx context.Context, orderId domain.OrderId, quantity, price float64,
		commission *float64) (*domain.Trade, error)
	DeleteOrder(ctx context.Context, id domain.OrderId) error
	GetTrade(ctx context.Context, id domain.TradeId) (*domain.Trade, error)
	GetUserTrades(ctx context.Context, userId domain.UserId) ([]domain.Trade, error)
	GetOrderTrades(ctx context.Context, orderId domain.OrderId) ([]domain.Trade, error)
}

type TradingEndpoint struct {
	tradingService TradingService
	authenticator  Authenticator
	validate       Validator
}

func NewTradingEndpoint(
	authenticator Authenticator,
	validator Validator,
	tradingService TradingService,
) TradingEndpoint {
	return TradingEndpoint{
		tradingService: tradingService,
		authenticator:  authenticator,
		validate:       validator,
	}
}

func (e TradingEndpoint) GetName() string {
	return "TradingEndpoint"
}

func (e TradingEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	orderGroup := g.Mount("/order")
	orderGroup.Use(e.authenticator.LoggedIn())

	orderGroup.HandleFunc("POST /new", e.handleOrderPost())
	orderGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}", e.handleUserOrdersGet())
	orderGroup.HandleFunc("GET /strategy/{id}", e.handleStrategyOrdersGet())
	orderGroup.HandleFunc("GET /{id}", e.handleOrderGet())
	orderGroup.HandleFunc("POST /{id}/cancel", e.handleOrderCancelPost())
	orderGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /{id}/fill", e.handleOrderFillPost())
	orderGroup.HandleFunc("GET /{id}/trades", e.handleOrderTradesGet())
	orderGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("DELETE /{id}", e.handleOrderDelete())

	tradeGroup := g.Mount("/trade")
	tradeGroup.Use(e.authenticator.LoggedIn())

	tradeGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}", e.handleUserTradesGet())
	tradeGroup.HandleFunc("GET /{id}", e.handleTradeGet())
}

// handleOrderPost places a new order for the calling user.
func (e TradingEndpoint) handleOrderPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var order model.Order
		if err := request.BodyJson(r, &order); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if order.UserId == 0 {
			order.UserId = uint64(domain.GetUserInfo(r.Context()).Id)
		}

		placed, err := e.tradingService.PlaceOrder(r.Context(), model.NewDomainOrder(&order))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewOrder(placed))
	}
}

// handleOrderGet returns a single order record.
func (e TradingEndpoint) handleOrderGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		order, err := e.tradingService.GetOrder(r.Context(), domain.OrderId(id))
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewOrder(order))
	}
}

// handleUserOrdersGet returns all orders of the given user.
func (e TradingEndpoint) handleUserOrdersGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		orders, err := e.tradingService.GetUserOrders(r.Context(), domain.UserId(userId))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewOrders(orders))
	}
}

// handleStrategyOrdersGet returns all orders linked to the given strategy.
func (e TradingEndpoint) handleStrategyOrdersGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		strategyId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		orders, err := e.tradingService.GetStrategyOrders(r.Context(), domain.StrategyId(strategyId))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewOrders(orders))
	}
}

// handleOrderCancelPost cancels an open order.
func (e TradingEndpoint) handleOrderCancelPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		cancelled, err := e.tradingService.CancelOrder(r.Context(), domain.OrderId(id))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewOrder(cancelled))
	}
}

// handleOrderFillPost books an execution against an open order.
func (e TradingEndpoint) handleOrderFillPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var fillData struct {
			Quantity   float64  `json:"quantity" validate:"required,gt=0"`
			Price      float64  `json:"price" validate:"required,gt=0"`
			Commission *float64 `json:"commission"`
		}

		if err := request.BodyJson(r, &fillData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		if err := e.validate.Struct(fillData); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		trade, err := e.tradingService.RecordFill(r.Context(), domain.OrderId(id),
			fillData.Quantity, fillData.Price, fillData.Commission)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewTrade(trade))
	}
}

// handleOrderTradesGet returns the fills booked against an order.
func (e TradingEndpoint) handleOrderTradesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		trades, err := e.tradingService.GetOrderTrades(r.Context(), domain.OrderId(id))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewTrades(trades))
	}
}

// handleOrderDelete flags an order and its trades as deleted.
func (e TradingEndpoint) handleOrderDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		if err := e.tradingService.DeleteOrder(r.Context(), domain.OrderId(id)); err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}

// handleTradeGet returns a single trade record.
func (e TradingEndpoint) handleTradeGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		trade, err := e.tradingService.GetTrade(r.Context(), domain.TradeId(id))
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewTrade(trade))
	}
}

// handleUserTradesGet returns all trades of the given user.
func (e TradingEndpoint) handleUserTradesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		trades, err := e.tradingService.GetUserTrades(r.Context(), domain.UserId(userId))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewTrades(trades))
	}
}
