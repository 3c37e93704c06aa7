package stock

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

// Handler exposes stock endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    auth.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authz auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, validate: validator.New()}
}

// MountRoutes attaches stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionRead))
		r.Get("/", h.List)
		r.Get("/{productID}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionUpdate))
		r.Put("/{id}", h.Update)
	})
}

type createStockRequest struct {
	ProductID    int64   `json:"productId" validate:"required,gt=0"`
	OpeningStock float64 `json:"openingStock" validate:"gte=0"`
	PurchasedQty float64 `json:"purchasedQty" validate:"gte=0"`
	SoldQty      float64 `json:"soldQty" validate:"gte=0"`
}

type updateStockRequest struct {
	OpeningStock *float64 `json:"openingStock,omitempty" validate:"omitempty,gte=0"`
	PurchasedQty *float64 `json:"purchasedQty,omitempty" validate:"omitempty,gte=0"`
	SoldQty      *float64 `json:"soldQty,omitempty" validate:"omitempty,gte=0"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list stock failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, stocks)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}
	s, err := h.service.GetByProduct(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, s)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	s, err := h.service.Create(r.Context(), CreateInput{
		ProductID:    req.ProductID,
		OpeningStock: req.OpeningStock,
		PurchasedQty: req.PurchasedQty,
		SoldQty:      req.SoldQty,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusCreated, s)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid stock id")
		return
	}
	var req updateStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	s, err := h.service.Update(r.Context(), id, UpdateInput{
		OpeningStock: req.OpeningStock,
		PurchasedQty: req.PurchasedQty,
		SoldQty:      req.SoldQty,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, s)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "stock not found")
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("stock request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
