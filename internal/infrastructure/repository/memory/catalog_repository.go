package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrops-br/catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CatalogRepository is the in-memory implementation of domain.CatalogRepository.
// It owns one catalog snapshot and swaps it on every mutation.
type CatalogRepository struct {
	mu     sync.RWMutex
	state  domain.State
	tracer trace.Tracer
	logger *slog.Logger
}

// NewCatalogRepository creates an empty, not yet loaded catalog
func NewCatalogRepository(tracer trace.Tracer, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{
		tracer: tracer,
		logger: logger,
	}
}

// Snapshot returns the current catalog state
func (r *CatalogRepository) Snapshot(ctx context.Context) (domain.State, error) {
	_, span := r.tracer.Start(ctx, "CatalogRepository.Snapshot")
	defer span.End()

	r.mu.RLock()
	state := r.state
	r.mu.RUnlock()

	span.SetAttributes(
		attribute.Int("catalog.size", len(state.Products)),
		attribute.Bool("catalog.loaded", state.Loaded),
	)
	return state, nil
}

// SetProducts replaces the whole catalog and marks it loaded
func (r *CatalogRepository) SetProducts(ctx context.Context, products []domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.SetProducts")
	defer span.End()

	span.SetAttributes(attribute.Int("catalog.size", len(products)))

	r.mu.Lock()
	r.state = r.state.SetProducts(products)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Catalog replaced",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Catalog replaced")
	return nil
}

// Add appends a product to the end of the catalog
func (r *CatalogRepository) Add(ctx context.Context, product domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.Add")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", product.ID),
		attribute.String("product.title", product.Title),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Contains(product.ID) {
		span.RecordError(domain.ErrDuplicateProduct)
		span.SetStatus(codes.Error, "Duplicate product id")
		return domain.ErrDuplicateProduct
	}
	r.state = r.state.AddProduct(product)

	r.logger.InfoContext(ctx, "Product added to catalog",
		slog.Int64("product_id", product.ID),
		slog.String("product_title", product.Title),
	)

	span.SetStatus(codes.Ok, "Product added")
	return nil
}

// Edit merges patch into the product with the given id
func (r *CatalogRepository) Edit(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, bool, error) {
	return r.mutate(ctx, "CatalogRepository.Edit", id, func(s domain.State) domain.State {
		return s.EditProduct(id, patch)
	})
}

// ToggleLike flips the liked flag of the product with the given id
func (r *CatalogRepository) ToggleLike(ctx context.Context, id int64) (domain.Product, bool, error) {
	return r.mutate(ctx, "CatalogRepository.ToggleLike", id, func(s domain.State) domain.State {
		return s.ToggleLike(id)
	})
}

// Delete removes the product with the given id
func (r *CatalogRepository) Delete(ctx context.Context, id int64) (bool, error) {
	_, found, err := r.mutate(ctx, "CatalogRepository.Delete", id, func(s domain.State) domain.State {
		return s.DeleteProduct(id)
	})
	return found, err
}

// mutate applies op when id is present and returns the product as op left it.
// A missing id leaves the state as it is. After a delete the product is zero.
func (r *CatalogRepository) mutate(ctx context.Context, name string, id int64, op func(domain.State) domain.State) (domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, name)
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	var updated domain.Product
	r.mu.Lock()
	found := r.state.Contains(id)
	if found {
		r.state = op(r.state)
		updated, _ = r.state.Find(id)
	}
	r.mu.Unlock()

	if !found {
		span.SetStatus(codes.Error, "Product not found")
		r.logger.DebugContext(ctx, "Product not in catalog, nothing changed",
			slog.Int64("product_id", id),
		)
		return domain.Product{}, false, nil
	}

	r.logger.DebugContext(ctx, "Catalog updated",
		slog.String("operation", name),
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Catalog updated")
	return updated, true, nil
}
