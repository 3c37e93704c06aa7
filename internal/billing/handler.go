package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/karobar-erp/karobar-erp/internal/auth"
	"github.com/karobar-erp/karobar-erp/internal/platform/httpx"
	"github.com/karobar-erp/karobar-erp/internal/stock"
)

// Handler exposes bill endpoints.
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

// MountRoutes attaches bill routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionCreate))
		r.Post("/", h.Create)
		r.Post("/{id}/payment", h.AddPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionUpdate))
		r.Put("/{id}", h.Update)
		r.Post("/{id}/convert", h.Convert)
		r.Post("/{id}/restore", h.Restore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(auth.ActionDelete))
		r.Delete("/{id}", h.SoftDelete)
		r.Delete("/{id}/hard", h.HardDelete)
	})
}

type billItemRequest struct {
	ProductID       int64   `json:"productId" validate:"required,gt=0"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unitPrice" validate:"gte=0"`
	DiscountPercent float64 `json:"discountPercent" validate:"gte=0,lte=100"`
	TaxPercent      float64 `json:"taxPercent" validate:"gte=0,lte=100"`
}

type createBillRequest struct {
	Type       BillType          `json:"type" validate:"omitempty,oneof=quotation invoice"`
	CustomerID *int64            `json:"customerId,omitempty"`
	BranchID   *int64            `json:"branchId,omitempty"`
	Remarks    string            `json:"remarks,omitempty"`
	Items      []billItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateBillRequest struct {
	Type       *BillType         `json:"type,omitempty" validate:"omitempty,oneof=quotation invoice"`
	CustomerID *int64            `json:"customerId,omitempty"`
	BranchID   *int64            `json:"branchId,omitempty"`
	Remarks    *string           `json:"remarks,omitempty"`
	Items      []billItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type paymentRequest struct {
	PaymentMode   PaymentMode `json:"paymentMode" validate:"required,oneof=cash upi card bank"`
	AmountPaid    float64     `json:"amountPaid" validate:"required,gt=0"`
	TransactionID *string     `json:"transactionId,omitempty"`
	PaymentDate   *time.Time  `json:"paymentDate,omitempty"`
}

func toItemInputs(reqs []billItemRequest) []ItemInput {
	if reqs == nil {
		return nil
	}
	items := make([]ItemInput, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, ItemInput{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TaxPercent:      it.TaxPercent,
		})
	}
	return items
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Type: BillType(r.URL.Query().Get("type"))}
	if v := r.URL.Query().Get("customerId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid customer id")
			return
		}
		filter.CustomerID = id
	}
	filter.Deleted = r.URL.Query().Get("deleted") == "true"

	bills, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list bills failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, bills)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, b)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
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
	b, err := h.service.Create(r.Context(), CreateInput{
		Type:       req.Type,
		CustomerID: req.CustomerID,
		BranchID:   req.BranchID,
		Remarks:    req.Remarks,
		CreatedBy:  createdBy,
		Items:      toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusCreated, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	var req updateBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.Update(r.Context(), id, UpdateInput{
		Type:       req.Type,
		CustomerID: req.CustomerID,
		BranchID:   req.BranchID,
		Remarks:    req.Remarks,
		Items:      toItemInputs(req.Items),
	})
	if err != nil {
		h.respondError(w, httpx.WrapConstraint(err))
		return
	}
	httpx.OK(w, http.StatusOK, b)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	b, err := h.service.ConvertToInvoice(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, b)
}

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in := PaymentInput{
		PaymentMode:   req.PaymentMode,
		AmountPaid:    req.AmountPaid,
		TransactionID: req.TransactionID,
	}
	if req.PaymentDate != nil {
		in.PaymentDate = *req.PaymentDate
	}
	b, err := h.service.AddPayment(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"payment_status": b.PaymentStatus})
}

func (h *Handler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	if err := h.service.SoftDelete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	if err := h.service.Restore(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, b)
}

func (h *Handler) HardDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.billID(w, r)
	if !ok {
		return
	}
	if err := h.service.HardDelete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) billID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid bill id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "bill not found")
	case errors.Is(err, ErrEmptyItems), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotInvoice):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("billing request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
