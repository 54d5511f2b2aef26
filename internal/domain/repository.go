package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateProduct  = errors.New("product id already exists")
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	ErrMalformedSource   = errors.New("catalog source returned malformed data")
)

// CatalogRepository holds the single catalog state.
// Mutations of an unknown id leave the catalog unchanged and report found=false.
// Edit and ToggleLike return the product as stored by that same mutation.
type CatalogRepository interface {
	Snapshot(ctx context.Context) (State, error)
	SetProducts(ctx context.Context, products []Product) error
	Add(ctx context.Context, product Product) error
	Edit(ctx context.Context, id int64, patch ProductPatch) (updated Product, found bool, err error)
	ToggleLike(ctx context.Context, id int64) (updated Product, found bool, err error)
	Delete(ctx context.Context, id int64) (found bool, err error)
}

// ProductSource is the remote listing used to seed the catalog
type ProductSource interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// IDGenerator assigns identifiers to locally created products
type IDGenerator interface {
	NextID() int64
}
