package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/catalog-api/internal/app/dto"
	"github.com/mrops-br/catalog-api/internal/app/service"
	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/response"
	"github.com/spf13/cast"
)

// ProductHandler handles JSON API requests for the catalog
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints
func (h *ProductHandler) Routes(r chi.Router) {
	r.Get("/", h.ListProducts)
	r.Post("/", h.CreateProduct)
	r.Get("/{id}", h.GetProduct)
	r.Patch("/{id}", h.EditProduct)
	r.Post("/{id}/like", h.ToggleLike)
	r.Delete("/{id}", h.DeleteProduct)
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	page, err := h.service.ListProducts(r.Context(), q)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, page)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// EditProduct handles PATCH /api/products/{id}
func (h *ProductHandler) EditProduct(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	var req dto.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.EditProduct(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ToggleLike handles POST /api/products/{id}/like
func (h *ProductHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.ToggleLike(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

// Status handles GET /api/status
func (h *ProductHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, status)
}

func (h *ProductHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidationError(err):
		response.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrDuplicateProduct):
		response.Error(w, http.StatusConflict, err)
	default:
		response.Error(w, http.StatusInternalServerError, err)
	}
}

// ParseProductID parses a product id path parameter
func ParseProductID(raw string) (int64, error) {
	id, err := cast.ToInt64E(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidProductID, raw)
	}
	return id, nil
}

// ParseListQuery reads filter, search and page from the query string.
// A missing or unparsable page means the first page.
func ParseListQuery(r *http.Request) (dto.ListQuery, error) {
	values := r.URL.Query()

	filter, err := domain.ParseFilter(values.Get("filter"))
	if err != nil {
		return dto.ListQuery{}, err
	}

	page, err := cast.ToIntE(values.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	return dto.ListQuery{
		Filter: filter,
		Search: values.Get("search"),
		Page:   page,
	}, nil
}
