package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list endpoint can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers.
type Params struct {
	Limit  int
	Offset int
}

// Normalize clamps the params to the configured default and maximum limits.
func (p Params) Normalize() Params {
	out := p
	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}
	if out.Limit > MaxLimit {
		out.Limit = MaxLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// Page is the windowed result returned to clients.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Window applies the params to an already-filtered, already-sorted list.
func Window[T any](items []T, params Params) Page[T] {
	normalized := params.Normalize()
	total := len(items)

	start := normalized.Offset
	if start > total {
		start = total
	}
	end := start + normalized.Limit
	if end > total {
		end = total
	}

	page := make([]T, end-start)
	copy(page, items[start:end])

	return Page[T]{
		Items:   page,
		Total:   total,
		Limit:   normalized.Limit,
		Offset:  normalized.Offset,
		HasMore: end < total,
	}
}
