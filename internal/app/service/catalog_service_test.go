package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mrops-br/catalog-api/internal/app/dto"
	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeSource struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type counterIDs struct{ next atomic.Int64 }

func (c *counterIDs) NextID() int64 { return c.next.Add(1) }

func newTestService(source domain.ProductSource) *CatalogService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	repo := memory.NewCatalogRepository(tracer, logger)
	return NewCatalogService(repo, source, &counterIDs{}, tracer, metricnoop.NewMeterProvider().Meter("test"), logger)
}

func remoteProducts(n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			ID:          int64(1000 + i),
			Title:       fmt.Sprintf("Item %02d", i),
			Description: "remote",
			Image:       "https://img.test/p.png",
		}
	}
	return products
}

func TestListProducts_LoadsOnceFromSource(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{products: remoteProducts(12)}
	svc := newTestService(source)

	page, err := svc.ListProducts(ctx, dto.ListQuery{Page: 3})
	require.NoError(t, err)

	assert.True(t, page.Loaded)
	assert.Empty(t, page.LoadError)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, domain.FilterAll, page.Filter)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(1010), page.Items[0].ID)
	assert.Equal(t, int64(1011), page.Items[1].ID)

	_, err = svc.ListProducts(ctx, dto.ListQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestListProducts_ConcurrentFirstRequestsShareOneFetch(t *testing.T) {
	source := &fakeSource{products: remoteProducts(3), delay: 20 * time.Millisecond}
	svc := newTestService(source)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := svc.ListProducts(context.Background(), dto.ListQuery{Page: 1})
			assert.NoError(t, err)
			assert.Equal(t, 3, page.Total)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), source.calls.Load())
}

func TestListProducts_LoadFailureIsReportedAndRetried(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{products: remoteProducts(2)}
	source.fail(fmt.Errorf("%w: connection refused", domain.ErrSourceUnavailable))
	svc := newTestService(source)

	page, err := svc.ListProducts(ctx, dto.ListQuery{Page: 1})
	require.NoError(t, err)
	assert.False(t, page.Loaded)
	assert.Contains(t, page.LoadError, "connection refused")
	assert.ErrorIs(t, svc.LastLoadError(), domain.ErrSourceUnavailable)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Loaded)
	assert.NotEmpty(t, status.LoadError)

	source.fail(nil)
	page, err = svc.ListProducts(ctx, dto.ListQuery{Page: 1})
	require.NoError(t, err)
	assert.True(t, page.Loaded)
	assert.Empty(t, page.LoadError)
	assert.Equal(t, 2, page.Total)
	assert.NoError(t, svc.LastLoadError())
}

func TestListProducts_WithoutSourceStaysUnloaded(t *testing.T) {
	svc := newTestService(nil)

	page, err := svc.ListProducts(context.Background(), dto.ListQuery{})
	require.NoError(t, err)
	assert.False(t, page.Loaded)
	assert.Zero(t, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, domain.PageSize, page.PageSize)
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	created, err := svc.CreateProduct(ctx, &dto.CreateProductRequest{Title: "New", Description: "D", Image: "img.png"})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.False(t, created.Liked)

	page, err := svc.ListProducts(ctx, dto.ListQuery{Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created, page.Items[0])
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.CreateProduct(context.Background(), &dto.CreateProductRequest{Description: "D", Image: "img.png"})
	assert.ErrorIs(t, err, domain.ErrTitleRequired)
	assert.True(t, IsValidationError(err))

	status, _ := svc.Status(context.Background())
	assert.Zero(t, status.Count)
}

func TestEditToggleDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeSource{products: remoteProducts(2)})
	_, err := svc.ListProducts(ctx, dto.ListQuery{})
	require.NoError(t, err)

	desc := "updated"
	edited, err := svc.EditProduct(ctx, 1000, &dto.UpdateProductRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "updated", edited.Description)
	assert.Equal(t, "Item 00", edited.Title)

	liked, err := svc.ToggleLike(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, liked.Liked)

	favorites, err := svc.ListProducts(ctx, dto.ListQuery{Filter: domain.FilterFavorites, Page: 1})
	require.NoError(t, err)
	require.Len(t, favorites.Items, 1)
	assert.Equal(t, int64(1001), favorites.Items[0].ID)

	require.NoError(t, svc.DeleteProduct(ctx, 1000))
	_, err = svc.GetProduct(ctx, 1000)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMissingIDsReportNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	title := "x"

	_, err := svc.EditProduct(ctx, 5, &dto.UpdateProductRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.ToggleLike(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	err = svc.DeleteProduct(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestEditProduct_RejectsEmptyTitle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	created, err := svc.CreateProduct(ctx, &dto.CreateProductRequest{Title: "New", Description: "D", Image: "img.png"})
	require.NoError(t, err)

	empty := " "
	_, err = svc.EditProduct(ctx, created.ID, &dto.UpdateProductRequest{Title: &empty})
	assert.True(t, errors.Is(err, domain.ErrTitleRequired))

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
}

// deleteAfterLike removes the product right after it was liked, the way a
// concurrent delete request would.
type deleteAfterLike struct {
	*memory.CatalogRepository
}

func (r deleteAfterLike) ToggleLike(ctx context.Context, id int64) (domain.Product, bool, error) {
	product, found, err := r.CatalogRepository.ToggleLike(ctx, id)
	if found {
		_, _ = r.CatalogRepository.Delete(ctx, id)
	}
	return product, found, err
}

func TestToggleLike_ReturnsProductEvenIfDeletedRightAfter(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	repo := deleteAfterLike{memory.NewCatalogRepository(tracer, logger)}
	require.NoError(t, repo.Add(ctx, domain.Product{ID: 7, Title: "Red Shoe"}))

	svc := NewCatalogService(repo, nil, &counterIDs{}, tracer, metricnoop.NewMeterProvider().Meter("test"), logger)

	liked, err := svc.ToggleLike(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, liked)
	assert.Equal(t, int64(7), liked.ID)
	assert.True(t, liked.Liked)
}

func TestEditProduct_TrimsFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)
	created, err := svc.CreateProduct(ctx, &dto.CreateProductRequest{Title: "New", Description: "D", Image: "img.png"})
	require.NoError(t, err)

	title := "  Renamed  "
	edited, err := svc.EditProduct(ctx, created.ID, &dto.UpdateProductRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", edited.Title)
}
