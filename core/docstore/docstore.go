package docstore

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrUnavailable reports that the store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
	// ErrWriteFailed reports that the store rejected a write.
	ErrWriteFailed = errors.New("store write failed")
	// ErrIndexConflict reports an existing index whose unique flag differs from the expected one.
	ErrIndexConflict = errors.New("index conflict")
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("record not found")
)

// Filter is an equality match on top-level fields.
type Filter map[string]any

// Fields returns the filter's field names in sorted order.
func (f Filter) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update describes a single atomic write.
type Update struct {
	// Set assigns fields on every write.
	Set map[string]any
	// Inc adds to numeric fields, starting from zero when absent.
	Inc map[string]int64
	// SetOnInsert assigns fields only when the write creates the document.
	SetOnInsert map[string]any
	// CurrentDate names the field the store stamps with its own clock.
	CurrentDate string
}

// Touched returns every field path the update assigns, excluding SetOnInsert.
func (u Update) Touched() []string {
	paths := make([]string, 0, len(u.Set)+len(u.Inc)+1)
	for name := range u.Set {
		paths = append(paths, name)
	}
	for name := range u.Inc {
		paths = append(paths, name)
	}
	if u.CurrentDate != "" {
		paths = append(paths, u.CurrentDate)
	}
	sort.Strings(paths)
	return paths
}

// Result reports the effect of a write.
type Result struct {
	Matched  int64
	Modified int64
	Upserted int64
}

// Collection is a handle on one named collection.
type Collection interface {
	// Name returns the collection name.
	Name() string
	// EnsureIndex creates an ascending index over fields if it does not exist.
	// An existing index over the same fields with a different unique flag is ErrIndexConflict.
	EnsureIndex(ctx context.Context, fields []string, unique bool) error
	// Upsert applies update to the document matching filter, inserting it when missing.
	Upsert(ctx context.Context, filter Filter, update Update) (*Result, error)
	// UpdateIn applies update to every document whose field is one of values. It never inserts.
	UpdateIn(ctx context.Context, field string, values []string, update Update) (*Result, error)
	// FindOne returns the document matching filter, or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (map[string]any, error)
}

// Gateway hands out collection handles.
type Gateway interface {
	Collection(name string) Collection
}
