package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ledger-reconciler/core/docstore"

	"golang.org/x/sync/errgroup"
)

// TimestampField is the server-stamped write time carried by every entity.
const TimestampField = "timestamp"

// Generation identifies the schema generation that introduced a field.
type Generation int

const (
	// V1 is the original record shape.
	V1 Generation = 1
	// V2 introduced altcurrency and probi amounts.
	V2 Generation = 2
)

var (
	// ErrInvalidEntity reports an entity definition that cannot be registered.
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrUnknownEntity reports a lookup of an entity that was never registered.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Field is one template field.
type Field struct {
	// Name is the top-level field name.
	Name string
	// Default is the value a new record receives when the write does not set it.
	Default any
	// Since is the generation that introduced the field.
	Since Generation
	// Legacy marks fields only V1 writers produced. They are never defaulted.
	Legacy bool
}

// Index is an ascending index over one or more fields.
type Index struct {
	Fields []string
	Unique bool
}

// Entity describes one persisted record type.
type Entity struct {
	// Name is the collection name.
	Name string
	// Key lists the fields of the natural key, in index order.
	Key []string
	// Fields is the versioned template.
	Fields []Field
	// Indices lists secondary indices.
	Indices []Index
}

// Indexes returns the unique key index followed by the secondary indices.
func (e Entity) Indexes() []Index {
	out := make([]Index, 0, len(e.Indices)+1)
	out = append(out, Index{Fields: e.Key, Unique: true})
	return append(out, e.Indices...)
}

// Template returns a fresh copy of the empty record for the current generation.
func (e Entity) Template() map[string]any {
	doc := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		if f.Legacy {
			continue
		}
		doc[f.Name] = cloneDefault(f.Default)
	}
	return doc
}

// InsertDefaults returns the template fields a newly created record should
// receive, excluding key fields, the timestamp and any path that conflicts
// with one of touched.
func (e Entity) InsertDefaults(touched ...string) map[string]any {
	exclude := append([]string{TimestampField}, e.Key...)
	exclude = append(exclude, touched...)

	doc := make(map[string]any)
	for _, f := range e.Fields {
		if f.Legacy || conflictsAny(f.Name, exclude) {
			continue
		}
		doc[f.Name] = cloneDefault(f.Default)
	}
	return doc
}

// Merge layers a stored record over the template.
func (e Entity) Merge(stored map[string]any) map[string]any {
	doc := e.Template()
	for name, value := range stored {
		doc[name] = value
	}
	return doc
}

// Generation reports which generation wrote a stored record. Records carrying
// a legacy field, or none of the V2 fields, are V1.
func (e Entity) Generation(stored map[string]any) Generation {
	sawV2 := false
	for _, f := range e.Fields {
		if _, ok := stored[f.Name]; !ok {
			continue
		}
		if f.Legacy {
			return V1
		}
		if f.Since >= V2 {
			sawV2 = true
		}
	}
	if sawV2 {
		return V2
	}
	return V1
}

// KeyFilter builds the equality filter for the natural key from values.
// It fails when any key field is missing or empty.
func (e Entity) KeyFilter(values map[string]string) (docstore.Filter, error) {
	filter := make(docstore.Filter, len(e.Key))
	for _, field := range e.Key {
		v := values[field]
		if v == "" {
			return nil, fmt.Errorf("%w: %s requires %s", ErrInvalidEntity, e.Name, field)
		}
		filter[field] = v
	}
	return filter, nil
}

func (e Entity) validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntity)
	}
	if len(e.Key) == 0 {
		return fmt.Errorf("%w: %s has no key", ErrInvalidEntity, e.Name)
	}

	names := make(map[string]struct{}, len(e.Fields))
	for _, f := range e.Fields {
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("%w: %s declares %s twice", ErrInvalidEntity, e.Name, f.Name)
		}
		names[f.Name] = struct{}{}
	}
	for _, k := range e.Key {
		if _, ok := names[k]; !ok {
			return fmt.Errorf("%w: %s key field %s missing from template", ErrInvalidEntity, e.Name, k)
		}
	}
	return nil
}

// Registry holds the entity table. It is built once at startup and is
// read-only afterwards.
type Registry struct {
	entities map[string]Entity
}

// NewRegistry builds a registry from a fixed entity table.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", ErrInvalidEntity, e.Name)
		}
		r.entities[e.Name] = e
	}
	return r, nil
}

// Entity returns the named entity.
func (r *Registry) Entity(name string) (Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return e, nil
}

// MustEntity returns the named entity and panics if it is unknown.
func (r *Registry) MustEntity(name string) Entity {
	e, err := r.Entity(name)
	if err != nil {
		panic(err)
	}
	return e
}

// Entities returns all entities sorted by name.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// EnsureIndices makes sure every entity's indices exist in the store.
// Collections are processed concurrently, indices within a collection in order.
func (r *Registry) EnsureIndices(ctx context.Context, gw docstore.Gateway) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range r.Entities() {
		g.Go(func() error {
			coll := gw.Collection(e.Name)
			for _, idx := range e.Indexes() {
				if err := coll.EnsureIndex(ctx, idx.Fields, idx.Unique); err != nil {
					return fmt.Errorf("ensure index %s(%s): %w", e.Name, strings.Join(idx.Fields, ","), err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// conflicts reports whether two field paths address overlapping data.
func conflicts(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+".") || strings.HasPrefix(b, a+".")
}

func conflictsAny(path string, others []string) bool {
	for _, other := range others {
		if conflicts(path, other) {
			return true
		}
	}
	return false
}

// cloneDefault copies container defaults so templates are never shared.
func cloneDefault(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = cloneDefault(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneDefault(item)
		}
		return out
	default:
		return v
	}
}
