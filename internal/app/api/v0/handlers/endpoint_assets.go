package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/ai-trader/trader-portal/internal/app/api/core/request"
	"github.com/ai-trader/trader-portal/internal/app/api/core/respond"
	"github.com/ai-trader/trader-portal/internal/app/api/v0/model"
	"github.com/ai-trader/trader-portal/internal/app/assets"
	"github.com/ai-trader/trader-portal/internal/domain"
)

type AssetService interface {
	CreateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)
	GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)
	GetAllAssets(ctx context.Context) ([]domain.Asset, error)
	FindAssets(ctx context.Context, search string) ([]domain.Asset, error)
	ImportCandles(ctx context.Context, symbol, source string, candles []domain.Candle) (int, error)
	GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]domain.Candle, error)
}

type AssetEndpoint struct {
	assetService  AssetService
	authenticator Authenticator
	validate      Validator
}

func NewAssetEndpoint(authenticator Authenticator, validator Validator, assetService AssetService) AssetEndpoint {
	return AssetEndpoint{
		assetService:  assetService,
		authenticator: authenticator,
		validate:      validator,
	}
}

func (e AssetEndpoint) GetName() string {
	return "AssetEndpoint"
}

func (e AssetEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/asset")
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.HandleFunc("GET /all", e.handleAllGet())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /new", e.handleCreatePost())
	apiGroup.HandleFunc("GET /{symbol}", e.handleSingleGet())
	apiGroup.HandleFunc("GET /{symbol}/candles", e.handleCandlesGet())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("POST /{symbol}/candles",
		e.handleCandlesImportPost())
}

// handleAllGet returns all known assets. An optional search query filters by
// symbol or name.
func (e AssetEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := request.Query(r, "search")

		var result []domain.Asset
		var err error
		if search != "" {
			result, err = e.assetService.FindAssets(r.Context(), search)
		} else {
			result, err = e.assetService.GetAllAssets(r.Context())
		}
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAssets(result))
	}
}

// handleCreatePost registers a new tradable asset.
func (e AssetEndpoint) handleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var asset model.Asset
		if err := request.BodyJson(r, &asset); err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		created, err := e.assetService.CreateAsset(r.Context(), model.NewDomainAsset(&asset))
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusCreated, model.NewAsset(created))
	}
}

// handleSingleGet returns the asset with the given symbol.
func (e AssetEndpoint) handleSingleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := pathSymbol(r)

		asset, err := e.assetService.GetAssetBySymbol(r.Context(), symbol)
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAsset(asset))
	}
}

// handleCandlesGet returns the OHLCV bars of an asset, optionally restricted
// to a time range via from and to query parameters.
func (e AssetEndpoint) handleCandlesGet() http.HandlerFunc {
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

		candles, err := e.assetService.GetCandles(r.Context(), symbol, from, to)
		if err != nil {
			respond.JSON(w, http.StatusNotFound, model.Error{Code: http.StatusNotFound, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewCandles(candles))
	}
}

// handleCandlesImportPost imports OHLCV bars for an asset. The body is parsed
// as CSV or JSON depending on the Content-Type header, duplicate bars are
// silently skipped.
func (e AssetEndpoint) handleCandlesImportPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := pathSymbol(r)
		source := request.QueryDefault(r, "source", "api")

		body, err := request.BodyString(r)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		var candles []domain.Candle
		contentType := request.Header(r, "Content-Type")
		switch {
		case strings.Contains(contentType, "text/csv"):
			candles, err = assets.ParseCandlesCSV(strings.NewReader(body))
		default:
			candles, err = assets.ParseCandlesJSON(strings.NewReader(body))
		}
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		imported, err := e.assetService.ImportCandles(r.Context(), symbol, source, candles)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.CandleImportResult{
			Symbol:   symbol,
			Received: len(candles),
			Imported: imported,
		})
	}
}
