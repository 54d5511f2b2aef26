package domain

import (
	"errors"
	"fmt"
	"strings"
)

// PageSize is the number of products shown on one listing page
const PageSize = 5

var ErrInvalidFilter = errors.New("filter must be \"all\" or \"favorites\"")

// Filter selects which products are eligible for a view
type Filter string

const (
	FilterAll       Filter = "all"
	FilterFavorites Filter = "favorites"
)

// ParseFilter converts user input into a Filter. Empty input means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFavorites:
		return FilterFavorites, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// ViewQuery describes the visible subset a listing wants
type ViewQuery struct {
	Filter   Filter
	Search   string
	Page     int // 1-based
	PageSize int
}

// View is one page of the filtered catalog
type View struct {
	Items    []Product
	Total    int
	Page     int
	PageSize int
	Pages    int
}

// DeriveView filters products by mode and title substring, then slices out
// the requested page. Total is the filtered count before slicing.
func DeriveView(products []Product, q ViewQuery) View {
	size := q.PageSize
	if size <= 0 {
		size = PageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	search := strings.ToLower(q.Search)

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Filter == FilterFavorites && !p.Liked {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	pages := total / size
	if total%size != 0 {
		pages++
	}

	// checked before multiplying so huge page numbers cannot overflow
	items := []Product{}
	if page <= pages {
		start := (page - 1) * size
		end := min(start+size, total)
		items = filtered[start:end]
	}

	return View{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
}
