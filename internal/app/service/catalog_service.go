package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mrops-br/catalog-api/internal/app/dto"
	"github.com/mrops-br/catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const initialLoadKey = "initial-load"

// CatalogService handles catalog use cases for both the API and the UI
type CatalogService struct {
	repo   domain.CatalogRepository
	source domain.ProductSource
	ids    domain.IDGenerator
	tracer trace.Tracer
	logger *slog.Logger

	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
	sourceLoads           metric.Int64Counter
	sourceLoadDuration    metric.Float64Histogram

	loads   singleflight.Group
	mu      sync.RWMutex
	loadErr error
}

// NewCatalogService creates a new catalog service.
// A nil source disables the initial load; the catalog then starts empty.
func NewCatalogService(
	repo domain.CatalogRepository,
	source domain.ProductSource,
	ids domain.IDGenerator,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CatalogService {
	productCreatedCounter, _ := meter.Int64Counter(
		"catalog.products.created.total",
		metric.WithDescription("Total number of products created locally"),
	)

	productOperations, _ := meter.Int64Counter(
		"catalog.operations",
		metric.WithDescription("Total number of catalog operations"),
	)

	sourceLoads, _ := meter.Int64Counter(
		"catalog.source.loads",
		metric.WithDescription("Initial catalog loads from the remote source"),
	)

	sourceLoadDuration, _ := meter.Float64Histogram(
		"catalog.source.load.duration",
		metric.WithDescription("Duration of initial catalog loads"),
		metric.WithUnit("s"),
	)

	return &CatalogService{
		repo:                  repo,
		source:                source,
		ids:                   ids,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
		sourceLoads:           sourceLoads,
		sourceLoadDuration:    sourceLoadDuration,
	}
}

// ListProducts returns one filtered page of the catalog, loading it from the
// remote source first if that has not happened yet. A failed load is
// reported in the page instead of failing the listing.
func (s *CatalogService) ListProducts(ctx context.Context, q dto.ListQuery) (*dto.ProductPage, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	if q.Filter == "" {
		q.Filter = domain.FilterAll
	}

	span.SetAttributes(
		attribute.String("catalog.filter", string(q.Filter)),
		attribute.String("catalog.search", q.Search),
		attribute.Int("catalog.page", q.Page),
	)

	loadErr := s.EnsureLoaded(ctx)

	state, err := s.repo.Snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read catalog")
		s.logger.ErrorContext(ctx, "Failed to read catalog",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "list", "failure")
		return nil, err
	}

	view := domain.DeriveView(state.Products, domain.ViewQuery{
		Filter:   q.Filter,
		Search:   q.Search,
		Page:     q.Page,
		PageSize: domain.PageSize,
	})

	span.SetAttributes(
		attribute.Int("catalog.total", view.Total),
		attribute.Int("product.count", len(view.Items)),
	)
	s.record(ctx, "list", "success")

	s.logger.DebugContext(ctx, "Products listed",
		slog.String("filter", string(q.Filter)),
		slog.Int("page", view.Page),
		slog.Int("total", view.Total),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductPage(view, q, state, loadErr), nil
}

// EnsureLoaded seeds the catalog from the remote source once.
// Concurrent callers share a single fetch. Once the catalog is loaded, or
// when no source is configured, it returns immediately.
func (s *CatalogService) EnsureLoaded(ctx context.Context) error {
	if s.source == nil {
		return nil
	}

	state, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	if state.Loaded {
		return nil
	}

	_, err, _ = s.loads.Do(initialLoadKey, func() (any, error) {
		return nil, s.load(context.WithoutCancel(ctx))
	})
	return err
}

func (s *CatalogService) load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.load")
	defer span.End()

	// a caller that waited behind a finished load must not fetch again
	state, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	if state.Loaded {
		return nil
	}

	s.logger.InfoContext(ctx, "Loading catalog from remote source")
	start := time.Now()

	products, err := s.source.Fetch(ctx)
	if err == nil {
		err = s.repo.SetProducts(ctx, products)
	}

	result := "success"
	if err != nil {
		result = "failure"
	}
	s.sourceLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	s.sourceLoadDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("result", result)),
	)

	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Initial load failed")
		s.logger.ErrorContext(ctx, "Failed to load catalog",
			slog.String("error", err.Error()),
		)
		return err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.logger.InfoContext(ctx, "Catalog loaded from remote source",
		slog.Int("count", len(products)),
	)
	span.SetStatus(codes.Ok, "Catalog loaded")
	return nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	state, err := s.repo.Snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read catalog")
		s.record(ctx, "read", "failure")
		return nil, err
	}

	product, ok := state.Find(id)
	if !ok {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.Int64("product_id", id),
		)
		s.record(ctx, "read", "not_found")
		return nil, domain.ErrProductNotFound
	}

	s.record(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// CreateProduct validates the request and appends a new, not liked product
func (s *CatalogService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.title", req.Title))

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("title", req.Title),
	)

	product, err := domain.NewProduct(s.ids.NextID(), req.Title, req.Description, req.Image)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.logger.WarnContext(ctx, "Rejected product",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "create", "invalid")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))

	if err := s.repo.Add(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store product")
		s.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "create", "failure")
		return nil, err
	}

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.Int64("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(product), nil
}

// EditProduct merges the provided fields into an existing product
func (s *CatalogService) EditProduct(ctx context.Context, id int64, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	patch := req.ToPatch()
	if err := patch.Validate(); err != nil {
		s.record(ctx, "edit", "invalid")
		return nil, err
	}

	return s.mutate(ctx, "edit", id, func(ctx context.Context) (domain.Product, bool, error) {
		return s.repo.Edit(ctx, id, patch)
	})
}

// ToggleLike flips the liked flag of a product
func (s *CatalogService) ToggleLike(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	return s.mutate(ctx, "toggle_like", id, func(ctx context.Context) (domain.Product, bool, error) {
		return s.repo.ToggleLike(ctx, id)
	})
}

// DeleteProduct removes a product from the catalog
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, "delete", id, func(ctx context.Context) (domain.Product, bool, error) {
		found, err := s.repo.Delete(ctx, id)
		return domain.Product{}, found, err
	})
	return err
}

// Status reports the load flag, catalog size and last load failure
func (s *CatalogService) Status(ctx context.Context) (*dto.CatalogStatus, error) {
	state, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	status := &dto.CatalogStatus{
		Loaded: state.Loaded,
		Count:  len(state.Products),
	}
	if err := s.LastLoadError(); err != nil {
		status.LoadError = err.Error()
	}
	return status, nil
}

// LastLoadError returns the error of the most recent failed load, if the
// catalog has not been loaded successfully since.
func (s *CatalogService) LastLoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// mutate runs op for id and returns the product op reports. A missing id
// changes nothing and yields domain.ErrProductNotFound.
func (s *CatalogService) mutate(ctx context.Context, operation string, id int64, op func(context.Context) (domain.Product, bool, error)) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService."+operation)
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	product, found, err := op(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Catalog update failed")
		s.logger.ErrorContext(ctx, "Catalog update failed",
			slog.String("operation", operation),
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		s.record(ctx, operation, "failure")
		return nil, err
	}
	if !found {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("operation", operation),
			slog.Int64("product_id", id),
		)
		s.record(ctx, operation, "not_found")
		return nil, domain.ErrProductNotFound
	}

	s.record(ctx, operation, "success")
	s.logger.InfoContext(ctx, "Catalog updated",
		slog.String("operation", operation),
		slog.Int64("product_id", id),
	)
	span.SetStatus(codes.Ok, "Catalog updated")

	if operation == "delete" {
		return nil, nil
	}
	return dto.ToProductResponse(product), nil
}

func (s *CatalogService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// IsValidationError reports whether err is caused by bad user input
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrTitleRequired) ||
		errors.Is(err, domain.ErrDescriptionRequired) ||
		errors.Is(err, domain.ErrImageRequired) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidFilter)
}
