package pagination

import "context"

// SliceSource adapts an in-memory ordered slice to Source.
type SliceSource[T any] []T

func (s SliceSource[T]) Count(context.Context) (int, error) { return len(s), nil }

func (s SliceSource[T]) Window(_ context.Context, offset, limit int) ([]T, error) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s) || limit <= 0 {
		return []T{}, nil
	}
	end := offset + limit
	if limit > len(s)-offset {
		end = len(s)
	}
	out := make([]T, end-offset)
	copy(out, s[offset:end])
	return out, nil
}

// FromSlice pages an in-memory slice. The returned items never alias items.
func FromSlice[T any](items []T, req Request) Result[T] {
	// SliceSource never fails.
	res, _ := Paginate[T](context.Background(), SliceSource[T](items), req)
	return res
}
