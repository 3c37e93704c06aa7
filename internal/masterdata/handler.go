package masterdata

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/karobar-erp/karobar-erp/internal/auth"
	"github.com/karobar-erp/karobar-erp/internal/platform/httpx"
)

// Handler exposes CRUD for customers, products and suppliers. There is no
// service layer: these are straight persistence wrappers.
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

func (h *Handler) crud(r chi.Router, list, show, create, update, del http.HandlerFunc) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionRead))
		r.Get("/", list)
		r.Get("/{id}", show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionCreate))
		r.Post("/", create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionUpdate))
		r.Put("/{id}", update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionDelete))
		r.Delete("/{id}", del)
	})
}

// MountCustomerRoutes attaches /customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	h.crud(r, h.ListCustomers, h.ShowCustomer, h.CreateCustomer, h.UpdateCustomer, h.DeleteCustomer)
}

// MountProductRoutes attaches /products.
func (h *Handler) MountProductRoutes(r chi.Router) {
	h.crud(r, h.ListProducts, h.ShowProduct, h.CreateProduct, h.UpdateProduct, h.DeleteProduct)
}

// MountSupplierRoutes attaches /suppliers.
func (h *Handler) MountSupplierRoutes(r chi.Router) {
	h.crud(r, h.ListSuppliers, h.ShowSupplier, h.CreateSupplier, h.UpdateSupplier, h.DeleteSupplier)
}

type customerRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Phone    string `json:"phone,omitempty" validate:"max=32"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Address  string `json:"address,omitempty" validate:"max=512"`
	BranchID *int64 `json:"branchId,omitempty"`
}

type productRequest struct {
	Name          string  `json:"name" validate:"required,max=128"`
	SKU           string  `json:"sku,omitempty" validate:"max=64"`
	UnitID        *int64  `json:"unitId,omitempty"`
	BrandID       *int64  `json:"brandId,omitempty"`
	CategoryID    *int64  `json:"categoryId,omitempty"`
	SalePrice     float64 `json:"salePrice" validate:"gte=0"`
	PurchasePrice float64 `json:"purchasePrice" validate:"gte=0"`
	Active        *bool   `json:"active,omitempty"`
}

type supplierRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Phone   string `json:"phone,omitempty" validate:"max=32"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	GSTIN   string `json:"gstin,omitempty" validate:"max=15"`
	Address string `json:"address,omitempty" validate:"max=512"`
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListCustomers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, out)
}

func (h *Handler) ShowCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	c, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, c)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[customerRequest](h, w, r)
	if !ok {
		return
	}
	c, err := h.repo.CreateCustomer(r.Context(), Customer{
		Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address, BranchID: req.BranchID,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeValid[customerRequest](h, w, r)
	if !ok {
		return
	}
	c, err := h.repo.UpdateCustomer(r.Context(), Customer{
		ID: id, Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address, BranchID: req.BranchID,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusOK, c)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.repo.DeleteCustomer)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListProducts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, out)
}

func (h *Handler) ShowProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[productRequest](h, w, r)
	if !ok {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.repo.CreateProduct(r.Context(), Product{
		Name: req.Name, SKU: req.SKU, UnitID: req.UnitID, BrandID: req.BrandID, CategoryID: req.CategoryID,
		SalePrice: req.SalePrice, PurchasePrice: req.PurchasePrice, Active: active,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeValid[productRequest](h, w, r)
	if !ok {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.repo.UpdateProduct(r.Context(), Product{
		ID: id, Name: req.Name, SKU: req.SKU, UnitID: req.UnitID, BrandID: req.BrandID, CategoryID: req.CategoryID,
		SalePrice: req.SalePrice, PurchasePrice: req.PurchasePrice, Active: active,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.repo.DeleteProduct)
}

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListSuppliers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, out)
}

func (h *Handler) ShowSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	s, err := h.repo.GetSupplier(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, s)
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[supplierRequest](h, w, r)
	if !ok {
		return
	}
	s, err := h.repo.CreateSupplier(r.Context(), Supplier{
		Name: req.Name, Phone: req.Phone, Email: req.Email, GSTIN: req.GSTIN, Address: req.Address,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusCreated, s)
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeValid[supplierRequest](h, w, r)
	if !ok {
		return
	}
	s, err := h.repo.UpdateSupplier(r.Context(), Supplier{
		ID: id, Name: req.Name, Phone: req.Phone, Email: req.Email, GSTIN: req.GSTIN, Address: req.Address,
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusOK, s)
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.repo.DeleteSupplier)
}

func decodeValid[T any](h *Handler, w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
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

func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) error) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
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
	h.logger.Error("masterdata request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
