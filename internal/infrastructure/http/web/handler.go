package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/catalog-api/internal/app/dto"
	"github.com/mrops-br/catalog-api/internal/app/service"
	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/http/handler"
)

// Handler serves the HTML catalog UI
type Handler struct {
	service   *service.CatalogService
	templates *Templates
	logger    *slog.Logger
}

// NewHandler creates the UI handler
func NewHandler(service *service.CatalogService, templates *Templates, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		templates: templates,
		logger:    logger,
	}
}

// Routes mounts the UI pages
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/products", http.StatusFound)
	})
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Detail)
	r.Post("/products/{id}/like", h.Like)
	r.Post("/products/{id}/delete", h.Delete)
	r.Post("/products/{id}/edit", h.Edit)
	r.Get("/create-product", h.CreateForm)
	r.Post("/create-product", h.Create)
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type listData struct {
	Page         *dto.ProductPage
	ReturnTo     string
	AllURL       string
	FavoritesURL string
	PageLinks    []pageLink
}

type productForm struct {
	Title       string
	Description string
	Image       string
}

type detailData struct {
	Product *dto.ProductResponse
	Form    productForm
	Error   string
}

type createData struct {
	Form   productForm
	Errors map[string]string
}

// List renders the filtered, paginated product listing
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := handler.ParseListQuery(r)
	if err != nil {
		// unknown filters fall back to the full listing
		q.Filter = domain.FilterAll
		q.Search = r.URL.Query().Get("search")
		q.Page = 1
	}

	page, err := h.service.ListProducts(r.Context(), q)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := listData{
		Page:         page,
		ReturnTo:     listURL(page.Filter, page.Search, page.Page),
		AllURL:       listURL(domain.FilterAll, page.Search, 1),
		FavoritesURL: listURL(domain.FilterFavorites, page.Search, 1),
	}
	for n := 1; n <= page.Pages; n++ {
		data.PageLinks = append(data.PageLinks, pageLink{
			Number:  n,
			URL:     listURL(page.Filter, page.Search, n),
			Current: n == page.Page,
		})
	}

	h.render(w, r, http.StatusOK, "list.html", data)
}

// Detail renders one product with its edit form
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		h.render(w, r, http.StatusNotFound, "detail.html", detailData{})
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			h.render(w, r, http.StatusNotFound, "detail.html", detailData{})
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "detail.html", detailData{
		Product: product,
		Form:    productForm{Title: product.Title, Description: product.Description},
	})
}

// Like toggles the liked flag and returns to the listing
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.mutateAndReturn(w, r, func(id int64) error {
		_, err := h.service.ToggleLike(r.Context(), id)
		return err
	})
}

// Delete removes a product and returns to the listing
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutateAndReturn(w, r, func(id int64) error {
		return h.service.DeleteProduct(r.Context(), id)
	})
}

// Edit saves title and description changes from the detail page
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		h.render(w, r, http.StatusNotFound, "detail.html", detailData{})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	title := r.PostForm.Get("title")
	description := r.PostForm.Get("description")

	_, err = h.service.EditProduct(r.Context(), id, &dto.UpdateProductRequest{
		Title:       &title,
		Description: &description,
	})
	switch {
	case err == nil:
		http.Redirect(w, r, "/products/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
	case errors.Is(err, domain.ErrProductNotFound):
		h.render(w, r, http.StatusNotFound, "detail.html", detailData{})
	case service.IsValidationError(err):
		product, getErr := h.service.GetProduct(r.Context(), id)
		if getErr != nil {
			h.serverError(w, r, getErr)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, "detail.html", detailData{
			Product: product,
			Form:    productForm{Title: title, Description: description},
			Error:   err.Error(),
		})
	default:
		h.serverError(w, r, err)
	}
}

// CreateForm renders an empty creation form
func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create.html", createData{Errors: map[string]string{}})
}

// Create validates the form, adds the product and returns to the listing
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := productForm{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Image:       r.PostForm.Get("image"),
	}

	_, err := h.service.CreateProduct(r.Context(), &dto.CreateProductRequest{
		Title:       form.Title,
		Description: form.Description,
		Image:       form.Image,
	})
	if err == nil {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	if !service.IsValidationError(err) {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusUnprocessableEntity, "create.html", createData{
		Form:   form,
		Errors: fieldErrors(err),
	})
}

func (h *Handler) mutateAndReturn(w http.ResponseWriter, r *http.Request, op func(id int64) error) {
	id, err := handler.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// a product that is already gone needs no further action
	if err := op(id); err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, safeReturn(r.PostForm.Get("return")), http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.templates.Render(w, status, name, data); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "UI request failed",
		slog.String("error", err.Error()),
	)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func fieldErrors(err error) map[string]string {
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		return map[string]string{"title": "Title is required"}
	case errors.Is(err, domain.ErrDescriptionRequired):
		return map[string]string{"description": "Description is required"}
	case errors.Is(err, domain.ErrImageRequired):
		return map[string]string{"image": "Image link is required"}
	default:
		return map[string]string{"": err.Error()}
	}
}

func listURL(filter domain.Filter, search string, page int) string {
	values := url.Values{}
	if filter != "" && filter != domain.FilterAll {
		values.Set("filter", string(filter))
	}
	if search != "" {
		values.Set("search", search)
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	if len(values) == 0 {
		return "/products"
	}
	return "/products?" + values.Encode()
}

// safeReturn only allows redirects back into the listing
func safeReturn(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path != "/products" {
		return "/products"
	}
	if u.RawQuery == "" {
		return u.Path
	}
	return u.Path + "?" + u.RawQuery
}

