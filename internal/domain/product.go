package domain

import (
	"errors"
	"strings"
)

var (
	ErrTitleRequired       = errors.New("product title is required")
	ErrDescriptionRequired = errors.New("product description is required")
	ErrImageRequired       = errors.New("product image is required")
	ErrInvalidProductID    = errors.New("product id must be a positive integer")
)

// Product represents a catalog record
type Product struct {
	ID          int64
	Title       string
	Description string
	Image       string
	Liked       bool
}

// NewProduct creates a new, not yet liked product with validation
func NewProduct(id int64, title, description, image string) (Product, error) {
	product := Product{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Image:       strings.TrimSpace(image),
	}

	if err := product.Validate(); err != nil {
		return Product{}, err
	}
	if product.Description == "" {
		return Product{}, ErrDescriptionRequired
	}
	if product.Image == "" {
		return Product{}, ErrImageRequired
	}

	return product, nil
}

// Validate checks the fields every stored product must carry
func (p Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidProductID
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// ProductPatch holds the fields of an edit. Nil fields are left untouched.
type ProductPatch struct {
	Title       *string
	Description *string
	Image       *string
	Liked       *bool
}

// Validate rejects patches that would leave a product without a title
func (p ProductPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// Apply returns a copy of product with the patch merged in
func (p ProductPatch) Apply(product Product) Product {
	if p.Title != nil {
		product.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		product.Description = strings.TrimSpace(*p.Description)
	}
	if p.Image != nil {
		product.Image = strings.TrimSpace(*p.Image)
	}
	if p.Liked != nil {
		product.Liked = *p.Liked
	}
	return product
}
