package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/ai-trader/trader-portal/internal/app/api/core/respond"
	"github.com/ai-trader/trader-portal/internal/app/api/v0/model"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type FeatureService interface {
	ComputeFeatures(ctx context.Context, symbol string) (int, error)
	GetFeatures(ctx context.Context, symbol string, from, to time.Time) ([]domain.FeatureSet, error)
}

type SignalService interface {
	GenerateSignals(ctx context.Context, symbol string) (int, error)
	GetSignals(ctx context.Context, symbol string, from, to time.Time) ([]domain.Signal, error)
}

type SignalEndpoint struct {
	featureService FeatureService
	signalService  SignalService
	authenticator  Authenticator
}

func NewSignalEndpoint(
	authenticator Authenticator,
	featureService FeatureService,
	signalService SignalService,
) SignalEndpoint {
	return SignalEndpoint{
		featureService: featureService,
		signalService:  signalService,
		authenticator:  authenticator,
	}
}

func (e SignalEndpoint) GetName() string {
	return "SignalEndpoint"
}

func (e SignalEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	featureGroup := g.Mount("/feature")
	featureGroup.Use(e.authenticator.LoggedIn())

	featureGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /{symbol}/compute",
		e.handleFeatureComputePost())
	featureGroup.HandleFunc("GET /{symbol}", e.handleFeaturesGet())

	signalGroup := g.Mount("/signal")
	signalGroup.Use(e.authenticator.LoggedIn())

	signalGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /{symbol}/generate",
		e.handleSignalGeneratePost())
	signalGroup.HandleFunc("GET /{symbol}", e.handleSignalsGet())
}

// handleFeatureComputePost recomputes the indicator values for all bars of an
// asset and returns the number of processed bars.
func (e SignalEndpoint) handleFeatureComputePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := pathSymbol(r)

		bars, err := e.featureService.ComputeFeatures(r.Context(), symbol)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, map[string]any{"Symbol": symbol, "Bars": bars})
	}
}

// handleFeaturesGet returns the stored indicator values of an asset,
// optionally restricted to a time range via from and to query parameters.
func (e SignalEndpoint) handleFeaturesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := pathSymbol(r)

		from, err := queryTime(r, "from")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		to, err := queryTime(r, "to")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		features, err := e.featureService.GetFeatures(r.Context(), symbol, from, to)
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewFeatureSets(features))
	}
}

// handleSignalGeneratePost runs the signal labeling pass for an asset and
// returns the number of newly stored signals.
func (e SignalEndpoint) handleSignalGeneratePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := pathSymbol(r)

		created, err := e.signalService.GenerateSignals(r.Context(), symbol)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, map[string]any{"Symbol": symbol, "NewSignals": created})
	}
}

// handleSignalsGet returns the stored signals of an asset, optionally
// restricted to a time range via from and to query parameters.
func (e SignalEndpoint) handleSignalsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := pathSymbol(r)

		from, err := queryTime(r, "from")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		to, err := queryTime(r, "to")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		signals, err := e.signalService.GetSignals(r.Context(), symbol, from, to)
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewSignals(signals))
	}
}
