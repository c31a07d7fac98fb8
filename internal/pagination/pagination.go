// Package pagination computes offset/limit pages over ordered sources.
// Sources must already be filtered and sorted; this package never reorders.
package pagination

import (
	"context"
	"encoding/json"
	"math"
)

const (
	// DefaultPageNumber is applied by transports when the client omits the page number.
	DefaultPageNumber = 1
	// DefaultPageSize is applied by transports when the client omits the page size.
	DefaultPageSize = 10
	// MaxPageSize caps every page request.
	MaxPageSize = 50
	// HeaderName carries the JSON-encoded Metadata on list responses.
	HeaderName = "X-Pagination"
)

// Request is a page request after clamping. Build it with NewRequest so the
// invariants PageNumber >= 1 and 1 <= PageSize <= max always hold.
type Request struct {
	PageNumber int
	PageSize   int
}

// NewRequest clamps untrusted input against MaxPageSize.
func NewRequest(pageNumber, pageSize int) Request {
	return NewRequestWithMax(pageNumber, pageSize, MaxPageSize)
}

// NewRequestWithMax clamps untrusted input against an explicit cap.
// A non-positive cap falls back to MaxPageSize.
func NewRequestWithMax(pageNumber, pageSize, maxPageSize int) Request {
	if maxPageSize < 1 {
		maxPageSize = MaxPageSize
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	switch {
	case pageSize < 1:
		pageSize = 1
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return Request{PageNumber: pageNumber, PageSize: pageSize}
}

// normalized guards against zero-value Requests built without NewRequest.
func (r Request) normalized() Request {
	if r.PageNumber >= 1 && r.PageSize >= 1 {
		return r
	}
	return NewRequest(r.PageNumber, r.PageSize)
}

// Offset is the number of items skipped before the page starts.
// It saturates at math.MaxInt instead of wrapping for huge page numbers.
func (r Request) Offset() int {
	n := r.normalized()
	if n.PageNumber-1 > math.MaxInt/n.PageSize {
		return math.MaxInt
	}
	return (n.PageNumber - 1) * n.PageSize
}

// Limit is the maximum number of items on the page.
func (r Request) Limit() int { return r.normalized().PageSize }

// Metadata describes where a page sits within the full sequence.
// Field names are part of the wire contract of the X-Pagination header.
type Metadata struct {
	TotalCount  int  `json:"TotalCount"`
	PageSize    int  `json:"PageSize"`
	CurrentPage int  `json:"CurrentPage"`
	TotalPages  int  `json:"TotalPages"`
	HasNext     bool `json:"HasNext"`
	HasPrevious bool `json:"HasPrevious"`
}

// NewMetadata derives navigation metadata from a total and the clamped request.
func NewMetadata(totalCount int, req Request) Metadata {
	req = req.normalized()
	if totalCount < 0 {
		totalCount = 0
	}
	totalPages := (totalCount + req.PageSize - 1) / req.PageSize
	return Metadata{
		TotalCount:  totalCount,
		PageSize:    req.PageSize,
		CurrentPage: req.PageNumber,
		TotalPages:  totalPages,
		HasNext:     req.PageNumber < totalPages,
		HasPrevious: req.PageNumber > 1,
	}
}

// Header returns the JSON form used for the X-Pagination header.
func (m Metadata) Header() string {
	b, _ := json.Marshal(m) // plain ints and bools never fail to encode
	return string(b)
}

// Result is one page of items plus its metadata. It is built once per request
// and not mutated afterwards.
type Result[T any] struct {
	Items    []T
	Metadata Metadata
}

// Map converts the page items while keeping the metadata.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := Result[U]{Items: make([]U, 0, len(r.Items)), Metadata: r.Metadata}
	for _, it := range r.Items {
		out.Items = append(out.Items, fn(it))
	}
	return out
}

// Source is an ordered, already filtered sequence that can be counted and windowed.
// Deferred implementations (SQL queries) push offset/limit down to the store.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Window(ctx context.Context, offset, limit int) ([]T, error)
}

// Paginate realises one page of src: a single Count, then a single Window
// unless the offset is already past the end.
// Errors from the source are returned unchanged.
func Paginate[T any](ctx context.Context, src Source[T], req Request) (Result[T], error) {
	req = req.normalized()
	total, err := src.Count(ctx)
	if err != nil {
		return Result[T]{}, err
	}
	meta := NewMetadata(total, req)

	// a page past the last one is empty; checking the page number first keeps
	// huge values away from the offset arithmetic
	if req.PageNumber > meta.TotalPages {
		return Result[T]{Items: []T{}, Metadata: meta}, nil
	}
	offset := req.Offset()
	if offset < 0 || offset >= meta.TotalCount {
		return Result[T]{Items: []T{}, Metadata: meta}, nil
	}
	items, err := src.Window(ctx, offset, req.PageSize)
	if err != nil {
		return Result[T]{}, err
	}
	if items == nil {
		items = []T{}
	}
	if len(items) > req.PageSize {
		items = items[:req.PageSize]
	}
	return Result[T]{Items: items, Metadata: meta}, nil
}
