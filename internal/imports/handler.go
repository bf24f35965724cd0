package imports

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/platform/httpx"
)

// Handler exposes the import receipt endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates the imports HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

// Routes mounts the import endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.del)
	return r
}

type recordItemRequest struct {
	ProductID     string   `json:"product_id" validate:"omitempty,uuid4"`
	ProductName   string   `json:"product_name" validate:"required_without=ProductID"`
	Unit          string   `json:"unit" validate:"omitempty,max=32"`
	Category      string   `json:"category" validate:"omitempty,max=64"`
	Quantity      int      `json:"quantity" validate:"gt=0"`
	UnitCost      float64  `json:"unit_cost" validate:"gte=0"`
	ProfitPercent *float64 `json:"profit_percent" validate:"omitempty,gte=0"`
}

type recordRequest struct {
	SupplierID   string              `json:"supplier_id" validate:"omitempty,uuid4"`
	SupplierName string              `json:"supplier_name" validate:"required_without=SupplierID"`
	Note         string              `json:"note" validate:"omitempty,max=512"`
	Items        []recordItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	in := RecordInput{
		SupplierID:   req.SupplierID,
		SupplierName: req.SupplierName,
		Note:         req.Note,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, ImportItem{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Unit:          it.Unit,
			Category:      it.Category,
			Quantity:      it.Quantity,
			UnitCost:      it.UnitCost,
			ProfitPercent: it.ProfitPercent,
		})
	}

	receipt, err := h.svc.Record(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, meta, err := h.svc.List(r.Context(), page, perPage)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": meta})
}

func (h *Handler) del(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	var lineErr *LineError
	switch {
	case errors.As(err, &lineErr):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Import Aborted", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, ledger.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, catalog.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
