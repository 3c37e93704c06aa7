package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/karobar-erp/karobar-erp/internal/auth"
	"github.com/karobar-erp/karobar-erp/internal/platform/httpx"
	"github.com/karobar-erp/karobar-erp/jobs"
)

// Handler exposes the accounts report and the manual rebuild trigger.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   auth.Middleware
	jobs    *jobs.Client
}

// NewHandler constructs a Handler. jobsClient may be nil, in which case
// rebuilds run synchronously in the request.
func NewHandler(logger *slog.Logger, service *Service, authz auth.Middleware, jobsClient *jobs.Client) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, jobs: jobsClient}
}

// MountRoutes attaches account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionRead))
		r.Get("/", h.Report)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionUpdate))
		r.Post("/rebuild", h.Rebuild)
	})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.Report(r.Context())
	if err != nil {
		h.logger.Error("accounts report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, accounts)
}

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if h.jobs != nil {
		if _, err := h.jobs.EnqueueAccountRollup(r.Context()); err != nil {
			h.logger.Error("enqueue account rollup", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}
	count, err := h.service.Rebuild(r.Context())
	if err != nil {
		h.logger.Error("account rollup failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"accounts": count})
}
