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

type AuditService interface {
	GetAll(ctx context.Context) ([]domain.AuditLogEntry, error)
	GetForRecord(ctx context.Context, table string, recordId uint64) ([]domain.AuditLogEntry, error)
	GetForUser(ctx context.Context, userId domain.UserId) ([]domain.AuditLogEntry, error)
}

type AuditEndpoint struct {
	auditService  AuditService
	authenticator Authenticator
}

func NewAuditEndpoint(authenticator Authenticator, auditService AuditService) AuditEndpoint {
	return AuditEndpoint{
		auditService:  auditService,
		authenticator: authenticator,
	}
}

func (e AuditEndpoint) GetName() string {
	return "AuditEndpoint"
}

func (e AuditEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/audit")
	apiGroup.Use(e.authenticator.LoggedIn())

	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("GET /entries", e.handleEntriesGet())
	apiGroup.With(e.authenticator.LoggedIn(ScopeAdmin)).HandleFunc("GET /record/{table}/{id}",
		e.handleRecordEntriesGet())
	apiGroup.With(e.authenticator.UserIdMatch("id")).HandleFunc("GET /user/{id}", e.handleUserEntriesGet())
}

// handleEntriesGet returns the full audit trail, newest entries first.
func (e AuditEndpoint) handleEntriesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := e.auditService.GetAll(r.Context())
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAuditEntries(entries))
	}
}

// handleRecordEntriesGet returns the audit trail of a single database record.
func (e AuditEndpoint) handleRecordEntriesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table := request.Path(r, "table")
		recordId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		entries, err := e.auditService.GetForRecord(r.Context(), table, recordId)
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAuditEntries(entries))
	}
}

// handleUserEntriesGet returns all audit entries recorded for changes made by
// the given user.
func (e AuditEndpoint) handleUserEntriesGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := pathId(r, "id")
		if err != nil {
			respond.JSON(w, http.StatusBadRequest, model.Error{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}

		entries, err := e.auditService.GetForUser(r.Context(), domain.UserId(userId))
		if err != nil {
			respond.JSON(w, http.StatusInternalServerError,
				model.Error{Code: http.StatusInternalServerError, Message: err.Error()})
			return
		}

		respond.JSON(w, http.StatusOK, model.NewAuditEntries(entries))
	}
}
