package schema_test

import (
	"context"
	"errors"
	"testing"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/docstore/memstore"
	"ledger-reconciler/core/docstore/mocks"
	"ledger-reconciler/core/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func votingEntity() schema.Entity {
	return schema.Entity{
		Name: "voting",
		Key:  []string{"surveyorId", "publisher"},
		Fields: []schema.Field{
			{Name: "surveyorId", Default: "", Since: schema.V1},
			{Name: "publisher", Default: "", Since: schema.V1},
			{Name: "counts", Default: 0, Since: schema.V1},
			{Name: "timestamp", Default: primitive.Timestamp{}, Since: schema.V1},
			{Name: "balances", Default: map[string]any{}, Since: schema.V1},
			{Name: "satoshis", Default: 0, Since: schema.V1, Legacy: true},
			{Name: "altcurrency", Default: "", Since: schema.V2},
			{Name: "probi", Default: amount.Zero, Since: schema.V2},
		},
		Indices: []schema.Index{
			{Fields: []string{"counts"}},
			{Fields: []string{"altcurrency", "probi"}},
		},
	}
}

func TestEntity_Template(t *testing.T) {
	e := votingEntity()
	tmpl := e.Template()

	assert.Equal(t, 0, tmpl["counts"])
	assert.Equal(t, amount.Zero, tmpl["probi"])
	assert.NotContains(t, tmpl, "satoshis")

	tmpl["balances"].(map[string]any)["BAT"] = "1"
	assert.Empty(t, e.Template()["balances"], "templates must not share containers")
}

func TestEntity_InsertDefaults(t *testing.T) {
	e := votingEntity()
	defaults := e.InsertDefaults("counts", "balances.BAT")

	assert.NotContains(t, defaults, "surveyorId")
	assert.NotContains(t, defaults, "publisher")
	assert.NotContains(t, defaults, "timestamp")
	assert.NotContains(t, defaults, "counts")
	assert.NotContains(t, defaults, "balances")
	assert.NotContains(t, defaults, "satoshis")
	assert.Equal(t, "", defaults["altcurrency"])
	assert.Equal(t, amount.Zero, defaults["probi"])
}

func TestEntity_Merge(t *testing.T) {
	e := votingEntity()
	legacy := map[string]any{"surveyorId": "S1", "publisher": "example.com", "counts": int64(4), "satoshis": 10}

	merged := e.Merge(legacy)
	assert.Equal(t, int64(4), merged["counts"])
	assert.Equal(t, 10, merged["satoshis"])
	assert.Equal(t, "", merged["altcurrency"])
	assert.Equal(t, amount.Zero, merged["probi"])
}

func TestEntity_Generation(t *testing.T) {
	e := votingEntity()
	assert.Equal(t, schema.V1, e.Generation(map[string]any{"counts": 1}))
	assert.Equal(t, schema.V1, e.Generation(map[string]any{"satoshis": 1, "altcurrency": "BAT"}))
	assert.Equal(t, schema.V2, e.Generation(map[string]any{"altcurrency": "BAT"}))
}

func TestEntity_KeyFilter(t *testing.T) {
	e := votingEntity()

	filter, err := e.KeyFilter(map[string]string{"surveyorId": "S1", "publisher": "example.com"})
	require.NoError(t, err)
	assert.Equal(t, docstore.Filter{"surveyorId": "S1", "publisher": "example.com"}, filter)

	_, err = e.KeyFilter(map[string]string{"surveyorId": "S1"})
	assert.ErrorIs(t, err, schema.ErrInvalidEntity)
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		entities []schema.Entity
	}{
		{"EmptyName", []schema.Entity{{Key: []string{"id"}, Fields: []schema.Field{{Name: "id"}}}}},
		{"NoKey", []schema.Entity{{Name: "x", Fields: []schema.Field{{Name: "id"}}}}},
		{"KeyNotInTemplate", []schema.Entity{{Name: "x", Key: []string{"id"}}}},
		{"DuplicateField", []schema.Entity{{Name: "x", Key: []string{"id"}, Fields: []schema.Field{{Name: "id"}, {Name: "id"}}}}},
		{"DuplicateEntity", []schema.Entity{votingEntity(), votingEntity()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.NewRegistry(tt.entities...)
			assert.ErrorIs(t, err, schema.ErrInvalidEntity)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := schema.NewRegistry(votingEntity())
	require.NoError(t, err)

	e, err := reg.Entity("voting")
	require.NoError(t, err)
	assert.Equal(t, "voting", e.Name)

	_, err = reg.Entity("ballots")
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)
	assert.Panics(t, func() { reg.MustEntity("ballots") })
	assert.Len(t, reg.Entities(), 1)
}

func TestRegistry_EnsureIndices(t *testing.T) {
	reg, err := schema.NewRegistry(votingEntity())
	require.NoError(t, err)

	store := memstore.New()
	require.NoError(t, reg.EnsureIndices(context.Background(), store))

	indexes := store.Indexes("voting")
	require.Len(t, indexes, 3)
	assert.Equal(t, memstore.Index{Fields: []string{"surveyorId", "publisher"}, Unique: true}, indexes[0])
	assert.Equal(t, memstore.Index{Fields: []string{"altcurrency", "probi"}}, indexes[2])

	// Re-running is a no-op.
	require.NoError(t, reg.EnsureIndices(context.Background(), store))
	assert.Len(t, store.Indexes("voting"), 3)
}

func TestRegistry_EnsureIndices_Conflict(t *testing.T) {
	reg, err := schema.NewRegistry(votingEntity())
	require.NoError(t, err)

	store := memstore.New()
	require.NoError(t, store.Collection("voting").EnsureIndex(context.Background(), []string{"counts"}, true))

	err = reg.EnsureIndices(context.Background(), store)
	assert.ErrorIs(t, err, docstore.ErrIndexConflict)
}

func TestRegistry_EnsureIndices_StoreError(t *testing.T) {
	reg, err := schema.NewRegistry(votingEntity())
	require.NoError(t, err)

	coll := new(mocks.Collection)
	coll.On("EnsureIndex", mock.Anything, []string{"surveyorId", "publisher"}, true).
		Return(errors.Join(docstore.ErrUnavailable, errors.New("connection refused")))

	gw := new(mocks.Gateway)
	gw.On("Collection", "voting").Return(coll)

	err = reg.EnsureIndices(context.Background(), gw)
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
	coll.AssertNumberOfCalls(t, "EnsureIndex", 1)
}
