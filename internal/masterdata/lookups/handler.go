package lookups

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/karobar-erp/karobar-erp/internal/auth"
	"github.com/karobar-erp/karobar-erp/internal/platform/httpx"
)

// Handler mounts identical CRUD routes for every lookup resource.
type Handler struct {
	logger   *slog.Logger
	repo     *Repository
	authz    auth.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo *Repository, authz auth.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, authz: authz, validate: validator.New()}
}

// MountRoutes attaches one route tree per resource under its slug.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, res := range Resources {
		table := res.Table
		r.Route("/"+res.Slug, func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.authz.Require(auth.ActionRead))
				r.Get("/", h.list(table))
				r.Get("/{id}", h.show(table))
			})
			r.Group(func(r chi.Router) {
				r.Use(h.authz.Require(auth.ActionCreate))
				r.Post("/", h.create(table))
			})
			r.Group(func(r chi.Router) {
				r.Use(h.authz.Require(auth.ActionUpdate))
				r.Put("/{id}", h.update(table))
			})
			r.Group(func(r chi.Router) {
				r.Use(h.authz.Require(auth.ActionDelete))
				r.Delete("/{id}", h.delete(table))
			})
		})
	}
}

type recordRequest struct {
	Name   string `json:"name" validate:"required,max=128"`
	Detail string `json:"detail,omitempty" validate:"max=512"`
}

func (h *Handler) list(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.repo.List(r.Context(), table)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, out)
	}
}

func (h *Handler) show(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}
		rec, err := h.repo.Get(r.Context(), table, id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, rec)
	}
}

func (h *Handler) create(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.decode(w, r)
		if !ok {
			return
		}
		rec, err := h.repo.Create(r.Context(), table, Record{Name: req.Name, Detail: req.Detail})
		if err != nil {
			h.respondError(w, httpx.WrapConstraint(err))
			return
		}
		httpx.OK(w, http.StatusCreated, rec)
	}
}

func (h *Handler) update(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}
		req, ok := h.decode(w, r)
		if !ok {
			return
		}
		rec, err := h.repo.Update(r.Context(), table, Record{ID: id, Name: req.Name, Detail: req.Detail})
		if err != nil {
			h.respondError(w, httpx.WrapConstraint(err))
			return
		}
		httpx.OK(w, http.StatusOK, rec)
	}
}

func (h *Handler) delete(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r)
		if !ok {
			return
		}
		if err := h.repo.Delete(r.Context(), table, id); err != nil {
			h.respondError(w, httpx.WrapConstraint(err))
			return
		}
		httpx.OK(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (recordRequest, bool) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return req, false
	}
	return req, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "not found")
		return
	}
	h.logger.Error("lookup request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
