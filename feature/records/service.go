package records

import (
	"context"
	"sort"
	"strings"
	"time"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/schema"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Record is a stored entity with the empty template overlaid.
type Record struct {
	Entity     string            `json:"entity"`
	Key        map[string]string `json:"key"`
	Generation int               `json:"generation"`
	Fields     map[string]any    `json:"fields"`
}

// Description summarizes a registered entity.
type Description struct {
	Name    string         `json:"name"`
	Key     []string       `json:"key"`
	Fields  []string       `json:"fields"`
	Indexes []schema.Index `json:"indexes"`
}

// Service reads records back from the store.
type Service struct {
	store    docstore.Gateway
	registry *schema.Registry
	logger   *zap.Logger
	sf       singleflight.Group
}

// NewService creates a lookup service.
func NewService(store docstore.Gateway, registry *schema.Registry, logger *zap.Logger) *Service {
	return &Service{store: store, registry: registry, logger: logger}
}

// Lookup finds one record by its full natural key. Concurrent identical
// lookups share a single store read.
func (s *Service) Lookup(ctx context.Context, entity string, key map[string]string) (*Record, error) {
	e, err := s.registry.Entity(entity)
	if err != nil {
		return nil, err
	}
	filter, err := e.KeyFilter(key)
	if err != nil {
		return nil, err
	}

	result, err, _ := s.sf.Do(flightKey(e, key), func() (interface{}, error) {
		stored, err := s.store.Collection(e.Name).FindOne(ctx, filter)
		if err != nil {
			return nil, err
		}

		fields := make(map[string]any, len(e.Fields))
		for name, value := range e.Merge(stored) {
			fields[name] = Present(value)
		}

		recKey := make(map[string]string, len(e.Key))
		for _, k := range e.Key {
			recKey[k] = key[k]
		}
		return &Record{
			Entity:     e.Name,
			Key:        recKey,
			Generation: int(e.Generation(stored)),
			Fields:     fields,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Record), nil
}

// Entities describes every registered entity.
func (s *Service) Entities() []Description {
	entities := s.registry.Entities()
	out := make([]Description, 0, len(entities))
	for _, e := range entities {
		names := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			names = append(names, f.Name)
		}
		sort.Strings(names)
		out = append(out, Description{Name: e.Name, Key: e.Key, Fields: names, Indexes: e.Indexes()})
	}
	return out
}

// Present converts stored BSON values into JSON friendly ones: decimals become
// plain decimal text, timestamps RFC3339 and object ids hex.
func Present(v any) any {
	switch x := v.(type) {
	case primitive.Decimal128:
		d, err := amount.Parse(x)
		if err != nil {
			return x.String()
		}
		return d.String()
	case primitive.Timestamp:
		if x.IsZero() {
			return ""
		}
		return time.Unix(int64(x.T), 0).UTC().Format(time.RFC3339)
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano)
	case primitive.ObjectID:
		return x.Hex()
	case primitive.M:
		return presentMap(x)
	case map[string]any:
		return presentMap(x)
	case primitive.D:
		m := make(map[string]any, len(x))
		for _, elem := range x {
			m[elem.Key] = Present(elem.Value)
		}
		return m
	case primitive.A:
		return presentSlice(x)
	case []any:
		return presentSlice(x)
	default:
		return v
	}
}

func presentMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Present(v)
	}
	return out
}

func presentSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Present(v)
	}
	return out
}

func flightKey(e schema.Entity, key map[string]string) string {
	var b strings.Builder
	b.WriteString(e.Name)
	for _, k := range e.Key {
		b.WriteByte('\x00')
		b.WriteString(key[k])
	}
	return b.String()
}
