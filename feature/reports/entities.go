package reports

import (
	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/schema"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	Wallets       = "wallets"
	Surveyors     = "surveyors"
	Contributions = "contributions"
	Voting        = "voting"
	Grants        = "grants"
)

// zeroTimestamp is the template value of the server-stamped timestamp.
var zeroTimestamp = primitive.Timestamp{}

// Entities returns the ledger entity table.
func Entities() []schema.Entity {
	return []schema.Entity{
		{
			Name: Wallets,
			Key:  []string{"paymentId"},
			Fields: []schema.Field{
				{Name: "paymentId", Default: "", Since: schema.V1},
				{Name: "address", Default: "", Since: schema.V1},
				{Name: "provider", Default: "", Since: schema.V1},
				{Name: "balances", Default: map[string]any{}, Since: schema.V1},
				{Name: "keychains", Default: map[string]any{}, Since: schema.V1},
				{Name: "paymentStamp", Default: 0, Since: schema.V1},
				{Name: "altcurrency", Default: "", Since: schema.V2},
				{Name: "timestamp", Default: zeroTimestamp, Since: schema.V1},
			},
			Indices: ascending("provider", "address", "altcurrency", "paymentStamp", "timestamp"),
		},
		{
			Name: Surveyors,
			Key:  []string{"surveyorId"},
			Fields: []schema.Field{
				{Name: "surveyorId", Default: "", Since: schema.V1},
				{Name: "surveyorType", Default: "", Since: schema.V1},
				{Name: "votes", Default: 0, Since: schema.V1},
				{Name: "counts", Default: 0, Since: schema.V1},
				{Name: "satoshis", Default: 0, Since: schema.V1, Legacy: true},
				{Name: "altcurrency", Default: "", Since: schema.V2},
				{Name: "probi", Default: amount.Zero, Since: schema.V2},
				{Name: "timestamp", Default: zeroTimestamp, Since: schema.V1},
				// Filled in by report runs.
				{Name: "inputs", Default: amount.Zero, Since: schema.V2},
				{Name: "fee", Default: amount.Zero, Since: schema.V2},
				{Name: "quantum", Default: 0, Since: schema.V2},
			},
			Indices: ascending("surveyorType", "votes", "counts", "altcurrency", "probi", "timestamp", "inputs", "fee", "quantum"),
		},
		{
			Name: Contributions,
			Key:  []string{"viewingId"},
			Fields: []schema.Field{
				{Name: "viewingId", Default: "", Since: schema.V1},
				{Name: "paymentId", Default: "", Since: schema.V1},
				{Name: "address", Default: "", Since: schema.V1},
				{Name: "paymentStamp", Default: 0, Since: schema.V1},
				{Name: "surveyorId", Default: "", Since: schema.V1},
				{Name: "satoshis", Default: 0, Since: schema.V1, Legacy: true},
				{Name: "altcurrency", Default: "", Since: schema.V2},
				{Name: "probi", Default: amount.Zero, Since: schema.V2},
				{Name: "fee", Default: amount.Zero, Since: schema.V2},
				{Name: "votes", Default: 0, Since: schema.V2},
				{Name: "hash", Default: "", Since: schema.V2},
				{Name: "timestamp", Default: zeroTimestamp, Since: schema.V1},
			},
			Indices: ascending("paymentId", "address", "paymentStamp", "surveyorId", "altcurrency", "probi", "fee", "votes", "hash", "timestamp"),
		},
		{
			Name: Voting,
			Key:  []string{"surveyorId", "publisher"},
			Fields: []schema.Field{
				{Name: "surveyorId", Default: "", Since: schema.V1},
				{Name: "publisher", Default: "", Since: schema.V1},
				{Name: "counts", Default: 0, Since: schema.V1},
				{Name: "timestamp", Default: zeroTimestamp, Since: schema.V1},
				// Set by an administrator.
				{Name: "exclude", Default: false, Since: schema.V1},
				{Name: "hash", Default: "", Since: schema.V1},
				// Filled in by report runs.
				{Name: "satoshis", Default: 0, Since: schema.V1, Legacy: true},
				{Name: "altcurrency", Default: "", Since: schema.V2},
				{Name: "probi", Default: amount.Zero, Since: schema.V2},
			},
			Indices: append(ascending("counts", "timestamp", "exclude", "hash"),
				schema.Index{Fields: []string{"altcurrency", "probi"}}),
		},
		{
			Name: Grants,
			Key:  []string{"grantId"},
			Fields: []schema.Field{
				{Name: "grantId", Default: "", Since: schema.V2},
				{Name: "promotionId", Default: "", Since: schema.V2},
				{Name: "altcurrency", Default: "", Since: schema.V2},
				// Kept as text: grant readers predate Decimal128 storage.
				{Name: "probi", Default: "0", Since: schema.V2},
				{Name: "paymentId", Default: "", Since: schema.V2},
				{Name: "timestamp", Default: zeroTimestamp, Since: schema.V2},
			},
			Indices: ascending("promotionId", "altcurrency", "probi", "paymentId", "timestamp"),
		},
	}
}

// NewRegistry builds the schema registry for the ledger entities.
func NewRegistry() (*schema.Registry, error) {
	return schema.NewRegistry(Entities()...)
}

func ascending(fields ...string) []schema.Index {
	out := make([]schema.Index, 0, len(fields))
	for _, f := range fields {
		out = append(out, schema.Index{Fields: []string{f}})
	}
	return out
}
