package purchasing

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

// Handler exposes purchase order endpoints.
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

// MountRoutes attaches purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionRead))
		r.Get("/", h.List)
		r.Get("/generate-ref", h.GenerateRef)
		r.Get("/{id}", h.Show)
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

type poItemRequest struct {
	ProductID     int64    `json:"productId" validate:"required,gt=0"`
	UnitPrice     float64  `json:"unitPrice" validate:"gte=0"`
	UnitQuantity  float64  `json:"unitQuantity" validate:"gt=0"`
	TotalQuantity *float64 `json:"totalQuantity,omitempty"`
}

type createPORequest struct {
	SupplierID        int64           `json:"supplierId" validate:"required,gt=0"`
	AddressID         *int64          `json:"addressId,omitempty"`
	ShippingAddressID *int64          `json:"shippingAddressId,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Items             []poItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updatePORequest struct {
	SupplierID        *int64          `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	AddressID         *int64          `json:"addressId,omitempty"`
	ShippingAddressID *int64          `json:"shippingAddressId,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	Status            POStatus        `json:"status,omitempty" validate:"omitempty,oneof=pending received"`
	Items             []poItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

func toItemInputs(reqs []poItemRequest) []ItemInput {
	if reqs == nil {
		return nil
	}
	items := make([]ItemInput, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, ItemInput{
			ProductID:     it.ProductID,
			UnitPrice:     it.UnitPrice,
			UnitQuantity:  it.UnitQuantity,
			TotalQuantity: it.TotalQuantity,
		})
	}
	return items
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: POStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("supplierId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid supplier id")
			return
		}
		filter.SupplierID = id
	}
	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list purchase orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, orders)
}

func (h *Handler) GenerateRef(w http.ResponseWriter, r *http.Request) {
	number, err := h.service.NextOrderNumber(r.Context())
	if err != nil {
		h.logger.Error("generate order number failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"order_number": number})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, po)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPORequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var createdBy int64
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID
	}
	po, err := h.service.Create(r.Context(), CreateInput{
		SupplierID:        req.SupplierID,
		AddressID:         req.AddressID,
		ShippingAddressID: req.ShippingAddressID,
		Notes:             req.Notes,
		CreatedBy:         createdBy,
		Items:             toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusCreated, po)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req updatePORequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	po, err := h.service.Update(r.Context(), id, UpdateInput{
		SupplierID:        req.SupplierID,
		AddressID:         req.AddressID,
		ShippingAddressID: req.ShippingAddressID,
		Notes:             req.Notes,
		Status:            req.Status,
		Items:             toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusOK, po)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid purchase order id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "purchase order not found")
	case errors.Is(err, ErrEmptyItems), errors.Is(err, ErrInvalidTransition):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("purchase order request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
