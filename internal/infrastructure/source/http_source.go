package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mrops-br/catalog-api/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxPayloadBytes = 10 << 20

// Options tunes how the remote listing is fetched
type Options struct {
	Timeout         time.Duration
	MaxAttempts     uint
	InitialInterval time.Duration
}

// remoteProduct is the wire shape of one listing entry.
// Pointers distinguish a missing field from an empty one.
type remoteProduct struct {
	ID          *int64  `json:"id" validate:"required,gt=0"`
	Title       *string `json:"title" validate:"required,min=1"`
	Description *string `json:"description" validate:"required"`
	Image       *string `json:"image" validate:"required"`
}

// HTTPSource reads the product listing from a remote JSON endpoint
type HTTPSource struct {
	url      string
	client   *http.Client
	opts     Options
	validate *validator.Validate
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewHTTPSource creates a source for the given listing URL
func NewHTTPSource(url string, opts Options, tracer trace.Tracer, logger *slog.Logger) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}

	return &HTTPSource{
		url: url,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   opts.Timeout,
		},
		opts:     opts,
		validate: newValidator(),
		tracer:   tracer,
		logger:   logger,
	}
}

// Fetch retrieves, validates and normalizes the remote listing.
// Transport failures and 5xx responses are retried; malformed payloads are not.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "HTTPSource.Fetch")
	defer span.End()

	span.SetAttributes(
		attribute.String("source.url", s.url),
		attribute.Int("source.max_attempts", int(s.opts.MaxAttempts)),
	)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.InitialInterval

	attempt := 0
	products, err := backoff.Retry(ctx,
		func() ([]domain.Product, error) {
			attempt++
			return s.fetchOnce(ctx)
		},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.opts.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.WarnContext(ctx, "Catalog source fetch failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("retry_in", next.String()),
				slog.String("error", err.Error()),
			)
		}),
	)
	span.SetAttributes(attribute.Int("source.attempts", attempt))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Catalog source fetch failed")
		s.logger.ErrorContext(ctx, "Failed to fetch catalog source",
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Catalog source fetched")
	return products, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err))
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode))
	}

	products, err := s.decode(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return products, nil
}

// decode parses the listing and rejects entries that miss required fields
func (s *HTTPSource) decode(r io.Reader) ([]domain.Product, error) {
	var items []remoteProduct
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedSource, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: listing is null", domain.ErrMalformedSource)
	}

	seen := make(map[int64]struct{}, len(items))
	products := make([]domain.Product, 0, len(items))
	for i := range items {
		item := &items[i]
		if err := s.validate.Struct(item); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return nil, fmt.Errorf("%w: entry %d: field %s failed %q", domain.ErrMalformedSource, i, verrs[0].Field(), verrs[0].Tag())
			}
			return nil, fmt.Errorf("%w: entry %d: %w", domain.ErrMalformedSource, i, err)
		}
		if _, dup := seen[*item.ID]; dup {
			return nil, fmt.Errorf("%w: entry %d: duplicate id %d", domain.ErrMalformedSource, i, *item.ID)
		}
		seen[*item.ID] = struct{}{}

		product := domain.Product{
			ID:          *item.ID,
			Title:       *item.Title,
			Description: *item.Description,
			Image:       *item.Image,
			Liked:       false,
		}
		// same rules as locally created products, e.g. no blank titles
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", domain.ErrMalformedSource, i, err)
		}
		products = append(products, product)
	}
	return products, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
