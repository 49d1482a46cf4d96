// Package memstore provides an in-process docstore.Gateway.
//
// Each collection serializes its writes with a mutex, so every Upsert and
// UpdateIn is atomic the same way a single-document MongoDB write is. Unique
// indices are enforced on insert and update. The clock field named by
// Update.CurrentDate is stamped with a BSON timestamp whose increment grows
// monotonically, so two writes in the same second remain distinguishable.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is an in-memory gateway.
type Store struct {
	mu          sync.Mutex
	collections map[string]*Collection
	now         func() time.Time
	seq         uint32
}

// New creates an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]*Collection),
		now:         time.Now,
	}
}

// SetClock overrides the wall clock used for CurrentDate stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) docstore.Collection {
	return s.collection(name)
}

// Docs returns copies of every document in the named collection.
func (s *Store) Docs(name string) []map[string]any {
	c := s.collection(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]map[string]any, 0, len(c.docs))
	for _, doc := range c.docs {
		out = append(out, copyDoc(doc))
	}
	return out
}

// Indexes returns the index definitions of the named collection.
func (s *Store) Indexes(name string) []Index {
	c := s.collection(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Index, len(c.indexes))
	copy(out, c.indexes)
	return out
}

func (s *Store) collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &Collection{name: name, store: s}
		s.collections[name] = c
	}
	return c
}

func (s *Store) stamp() primitive.Timestamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return primitive.Timestamp{T: uint32(s.now().Unix()), I: s.seq}
}

// Index is an index definition held by a collection.
type Index struct {
	Fields []string
	Unique bool
}

// Collection is one in-memory collection.
type Collection struct {
	name    string
	store   *Store
	mu      sync.Mutex
	docs    []map[string]any
	indexes []Index
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// EnsureIndex records an index, failing on a unique flag mismatch.
func (c *Collection) EnsureIndex(_ context.Context, fields []string, unique bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, idx := range c.indexes {
		if !reflect.DeepEqual(idx.Fields, fields) {
			continue
		}
		if idx.Unique != unique {
			return fmt.Errorf("%w: %s.%s has unique=%t, expected unique=%t",
				docstore.ErrIndexConflict, c.name, strings.Join(fields, "_"), idx.Unique, unique)
		}
		return nil
	}

	candidate := Index{Fields: append([]string(nil), fields...), Unique: unique}
	if unique {
		seen := make(map[string]struct{}, len(c.docs))
		for _, doc := range c.docs {
			key := indexKey(doc, candidate.Fields)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: duplicate key %s in %s", docstore.ErrWriteFailed, key, c.name)
			}
			seen[key] = struct{}{}
		}
	}
	c.indexes = append(c.indexes, candidate)
	return nil
}

// Upsert updates the first document matching filter or inserts a new one.
func (c *Collection) Upsert(_ context.Context, filter docstore.Filter, update docstore.Update) (*docstore.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if !matches(doc, filter) {
			continue
		}
		next := copyDoc(doc)
		c.apply(next, update)
		if err := c.checkUnique(next, i); err != nil {
			return nil, err
		}
		modified := int64(0)
		if !reflect.DeepEqual(doc, next) {
			modified = 1
		}
		c.docs[i] = next
		return &docstore.Result{Matched: 1, Modified: modified}, nil
	}

	doc := make(map[string]any, len(filter)+len(update.SetOnInsert)+len(update.Set))
	for name, value := range filter {
		doc[name] = copyValue(value)
	}
	for name, value := range update.SetOnInsert {
		setPath(doc, name, copyValue(value))
	}
	c.apply(doc, update)
	if err := c.checkUnique(doc, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, doc)
	return &docstore.Result{Upserted: 1}, nil
}

// UpdateIn updates every document whose field value is listed in values.
func (c *Collection) UpdateIn(_ context.Context, field string, values []string, update docstore.Update) (*docstore.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wanted := make(map[string]struct{}, len(values))
	for _, v := range values {
		wanted[v] = struct{}{}
	}

	result := &docstore.Result{}
	for i, doc := range c.docs {
		v, ok := doc[field].(string)
		if !ok {
			continue
		}
		if _, hit := wanted[v]; !hit {
			continue
		}
		next := copyDoc(doc)
		c.apply(next, update)
		if err := c.checkUnique(next, i); err != nil {
			return nil, err
		}
		result.Matched++
		if !reflect.DeepEqual(doc, next) {
			result.Modified++
		}
		c.docs[i] = next
	}
	return result, nil
}

// FindOne returns a copy of the first document matching filter.
func (c *Collection) FindOne(_ context.Context, filter docstore.Filter) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, doc := range c.docs {
		if matches(doc, filter) {
			return copyDoc(doc), nil
		}
	}
	return nil, docstore.ErrNotFound
}

func (c *Collection) apply(doc map[string]any, update docstore.Update) {
	for name, value := range update.Set {
		setPath(doc, name, copyValue(value))
	}
	for name, delta := range update.Inc {
		setPath(doc, name, utils.ToInt64(getPath(doc, name))+delta)
	}
	if update.CurrentDate != "" {
		setPath(doc, update.CurrentDate, c.store.stamp())
	}
}

func (c *Collection) checkUnique(doc map[string]any, self int) error {
	for _, idx := range c.indexes {
		if !idx.Unique {
			continue
		}
		key := indexKey(doc, idx.Fields)
		for i, other := range c.docs {
			if i == self {
				continue
			}
			if indexKey(other, idx.Fields) == key {
				return fmt.Errorf("%w: duplicate key %s in %s", docstore.ErrWriteFailed, key, c.name)
			}
		}
	}
	return nil
}

func matches(doc map[string]any, filter docstore.Filter) bool {
	for name, want := range filter {
		if !equalValue(getPath(doc, name), want) {
			return false
		}
	}
	return true
}

// equalValue compares decimals by value, as the server does.
func equalValue(got, want any) bool {
	if _, ok := want.(primitive.Decimal128); ok {
		return amount.Equal(got, want)
	}
	return reflect.DeepEqual(got, want)
}

func indexKey(doc map[string]any, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", field, getPath(doc, field)))
	}
	return strings.Join(parts, ",")
}

func getPath(doc map[string]any, path string) any {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func setPath(doc map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep copies the container types payloads decode into.
func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyDoc(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case map[string]primitive.Decimal128:
		out := make(map[string]any, len(x))
		for k, dec := range x {
			out[k] = dec
		}
		return out
	default:
		return v
	}
}
