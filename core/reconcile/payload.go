package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"ledger-reconciler/core/utils"
)

// storeOwned lists fields the store assigns. Payload values for them are dropped.
var storeOwned = []string{"_id", "timestamp"}

// Payload is the decoded message of a delivery.
type Payload map[string]any

// String returns the named field as a string, or false when it is absent or empty.
func (p Payload) String(name string) (string, bool) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", false
	}
	s := utils.ToString(v)
	return s, s != ""
}

// Require returns the named fields as strings, failing with ErrMissingField on
// the first one that is absent or empty.
func (p Payload) Require(names ...string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		s, ok := p.String(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Fields returns a shallow copy of the payload without the omitted fields and
// the store-owned ones. Field names that start with '$' or contain '.' would be
// read as update operators or nested paths, so they fail with ErrInvalidPayload.
func (p Payload) Fields(omit ...string) (map[string]any, error) {
	skip := make(map[string]struct{}, len(omit)+len(storeOwned))
	for _, name := range omit {
		skip[name] = struct{}{}
	}
	for _, name := range storeOwned {
		skip[name] = struct{}{}
	}

	out := make(map[string]any, len(p))
	for _, name := range p.names() {
		if _, ok := skip[name]; ok {
			continue
		}
		if name == "" || strings.HasPrefix(name, "$") || strings.Contains(name, ".") {
			return nil, fmt.Errorf("%w: field name %q", ErrInvalidPayload, name)
		}
		out[name] = p[name]
	}
	return out, nil
}

// Clone returns a shallow copy of the payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Payload) names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
