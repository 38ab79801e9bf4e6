package service

import (
	"context"
	"sort"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"
)

// HandlerFunc is a registered segment handler: a named function returning
// the customer IDs currently belonging to the segment.
type HandlerFunc func(ctx context.Context) ([]int, error)

// HandlerRegistry holds the named handlers available to function-type
// segments. It is populated at startup and read-only afterwards; passing it
// in explicitly (instead of a package-level singleton) keeps tests able to
// substitute fakes.
type HandlerRegistry struct {
	handlers map[string]HandlerFunc
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: map[string]HandlerFunc{}}
}

func (r *HandlerRegistry) Register(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

func (r *HandlerRegistry) Get(name string) (HandlerFunc, bool) {
	fn, ok := r.handlers[name]
	return fn, ok
}

func (r *HandlerRegistry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SegmentStore is the slice of the segment repository the resolver needs.
type SegmentStore interface {
	GetMemberIDs(segmentID int) ([]int, error)
	ExecuteSelectionSQL(query string) ([]int, error)
}

// SegmentResolver turns a segment definition into the concrete customer ID
// list for its strategy: manual join table, stored SQL, or registered
// handler.
type SegmentResolver struct {
	Segments SegmentStore
	Registry *HandlerRegistry
}

func NewSegmentResolver(segments SegmentStore, registry *HandlerRegistry) *SegmentResolver {
	if registry == nil {
		registry = NewHandlerRegistry()
	}
	return &SegmentResolver{Segments: segments, Registry: registry}
}

// Resolve returns the customer IDs currently in the segment. Order is
// datastore-determined. A failing stored query surfaces as
// SegmentExecutionError and an unregistered handler as
// HandlerNotFoundError; both indicate a misconfigured segment and must
// reach the caller.
func (r *SegmentResolver) Resolve(ctx context.Context, segment *model.CustomerSegment) ([]int, error) {
	switch segment.Type {
	case model.SegmentManual:
		return r.Segments.GetMemberIDs(segment.ID)

	case model.SegmentSQL:
		if segment.SelectionSQL == nil || *segment.SelectionSQL == "" {
			return []int{}, nil
		}
		ids, err := r.Segments.ExecuteSelectionSQL(*segment.SelectionSQL)
		if err != nil {
			return nil, appErrors.NewSegmentExecutionError(segment.ID, err)
		}
		return ids, nil

	case model.SegmentFunction:
		if segment.HandlerFunction == nil || *segment.HandlerFunction == "" {
			return []int{}, nil
		}
		handler, ok := r.Registry.Get(*segment.HandlerFunction)
		if !ok {
			return nil, appErrors.NewHandlerNotFound(*segment.HandlerFunction)
		}
		return handler(ctx)

	default:
		return []int{}, nil
	}
}

// ResolvePage resolves the whole segment and slices the requested page
// client-side. O(segment size) per call for sql/function segments, which is
// acceptable for marketing-sized segments; each call re-resolves, no
// caching.
func (r *SegmentResolver) ResolvePage(ctx context.Context, segment *model.CustomerSegment, page, limit int) ([]int, int, error) {
	ids, err := r.Resolve(ctx, segment)
	if err != nil {
		return nil, 0, err
	}

	total := len(ids)
	offset := (page - 1) * limit
	if offset >= total {
		return []int{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ids[offset:end], total, nil
}
