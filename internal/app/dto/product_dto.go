package dto

import (
	"github.com/mrops-br/catalog-api/internal/domain"
)

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// UpdateProductRequest carries a partial edit. Omitted fields stay unchanged.
type UpdateProductRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Liked       *bool   `json:"liked,omitempty"`
}

// ToPatch converts the request into a domain patch
func (r *UpdateProductRequest) ToPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Liked:       r.Liked,
	}
}

// ListQuery selects one page of the catalog
type ListQuery struct {
	Filter domain.Filter
	Search string
	Page   int
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Liked       bool   `json:"liked"`
}

// ProductPage is one page of the filtered catalog plus the load status
type ProductPage struct {
	Items     []*ProductResponse `json:"items"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
	Pages     int                `json:"pages"`
	Filter    domain.Filter      `json:"filter"`
	Search    string             `json:"search"`
	Loaded    bool               `json:"loaded"`
	LoadError string             `json:"load_error,omitempty"`
}

// CatalogStatus reports whether the initial load happened
type CatalogStatus struct {
	Loaded    bool   `json:"loaded"`
	Count     int    `json:"count"`
	LoadError string `json:"load_error,omitempty"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Liked:       p.Liked,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// ToProductPage converts a derived view into a page response
func ToProductPage(view domain.View, q ListQuery, state domain.State, loadErr error) *ProductPage {
	page := &ProductPage{
		Items:    ToProductResponseList(view.Items),
		Total:    view.Total,
		Page:     view.Page,
		PageSize: view.PageSize,
		Pages:    view.Pages,
		Filter:   q.Filter,
		Search:   q.Search,
		Loaded:   state.Loaded,
	}
	if loadErr != nil {
		page.LoadError = loadErr.Error()
	}
	return page
}
