package fetch

import (
	"context"
	"fmt"
)

// OffsetPageFunc fetches one page at the given record offset and reports the
// total number of records the query matches.
type OffsetPageFunc[T any] func(ctx context.Context, startAt, pageSize int) (items []T, total int, err error)

// CollectOffset walks an offset-paginated query strictly in order, stopping
// once startAt+pageSize reaches the reported total. Any page error aborts
// the whole collection.
func CollectOffset[T any](ctx context.Context, pageSize int, fn OffsetPageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	var out []T
	for startAt := 0; ; startAt += pageSize {
		items, total, err := fn(ctx, startAt, pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if startAt+pageSize >= total {
			return out, nil
		}
		// An empty page means the server is done regardless of total.
		if len(items) == 0 {
			return out, nil
		}
	}
}

// CursorPageFunc fetches the numbered page (1-based) and reports whether
// more pages remain.
type CursorPageFunc[T any] func(ctx context.Context, page int) (items []T, hasNext bool, err error)

// CollectCursor walks a cursor-paginated query until the source reports no
// next page. Any page error aborts the whole collection.
func CollectCursor[T any](ctx context.Context, fn CursorPageFunc[T]) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		items, hasNext, err := fn(ctx, page)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if !hasNext {
			return out, nil
		}
	}
}
