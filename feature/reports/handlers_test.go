package reports

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/docstore/memstore"
	"ledger-reconciler/core/docstore/mocks"
	"ledger-reconciler/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestReconciler(t *testing.T) (*Reconciler, *memstore.Store) {
	t.Helper()
	registry, err := NewRegistry()
	require.NoError(t, err)

	store := memstore.New()
	store.SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	require.NoError(t, registry.EnsureIndices(context.Background(), store))

	return NewReconciler(store, registry), store
}

func payload(t *testing.T, raw string) reconcile.Payload {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var p reconcile.Payload
	require.NoError(t, dec.Decode(&p))
	return p
}

func find(t *testing.T, store *memstore.Store, collection string, filter docstore.Filter) map[string]any {
	t.Helper()
	doc, err := store.Collection(collection).FindOne(context.Background(), filter)
	require.NoError(t, err)
	return doc
}

func decimal128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestTable_CoversEveryQueue(t *testing.T) {
	r, _ := newTestReconciler(t)

	router, err := reconcile.NewRouter(r.Table(), DefaultQueues()...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ContributionReport, GrantReport, PersonaReport, RedeemReport,
		SurveyorReport, VotingReport, WalletReport,
	}, router.Queues())
}

func TestPersonaReport_CreatesWalletWithDefaults(t *testing.T) {
	r, store := newTestReconciler(t)

	err := r.PersonaReport(context.Background(), payload(t, `{"paymentId":"P1","address":"A1","provider":"uphold"}`))
	require.NoError(t, err)

	doc := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	assert.Equal(t, "A1", doc["address"])
	assert.Equal(t, "uphold", doc["provider"])
	assert.Equal(t, 0, doc["paymentStamp"])
	assert.Equal(t, map[string]any{}, doc["balances"])
	assert.IsType(t, primitive.Timestamp{}, doc["timestamp"])
}

func TestPersonaReport_KeepsPaymentStamp(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, r.PersonaReport(ctx, payload(t, `{"paymentId":"P1"}`)))
	require.NoError(t, r.ContributionReport(ctx, payload(t,
		`{"viewingId":"V1","paymentId":"P1","probi":"1","fee":"0","paymentStamp":1500}`)))
	require.NoError(t, r.PersonaReport(ctx, payload(t, `{"paymentId":"P1","provider":"uphold"}`)))

	doc := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	assert.Equal(t, json.Number("1500"), doc["paymentStamp"])
	assert.Equal(t, "uphold", doc["provider"])
}

func TestPersonaReport_Idempotent(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()
	p := payload(t, `{"paymentId":"P1","address":"A1","balances":{"BAT":"1.5"}}`)

	require.NoError(t, r.PersonaReport(ctx, p))
	first := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	require.NoError(t, r.PersonaReport(ctx, p))
	second := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})

	delete(first, "timestamp")
	delete(second, "timestamp")
	assert.Equal(t, first, second)
	assert.Len(t, store.Docs(Wallets), 1)
}

func TestReports_IdempotentApartFromTimestamp(t *testing.T) {
	tests := []struct {
		name       string
		seed       []string
		handle     func(r *Reconciler) reconcile.Handler
		message    string
		collection string
		filter     docstore.Filter
	}{
		{
			name:       "Surveyor",
			handle:     func(r *Reconciler) reconcile.Handler { return r.SurveyorReport },
			message:    `{"surveyorId":"S1","surveyorType":"contribution","probi":"12.50","inputs":"3","fee":"0.01"}`,
			collection: Surveyors,
			filter:     docstore.Filter{"surveyorId": "S1"},
		},
		{
			name:       "Wallet",
			handle:     func(r *Reconciler) reconcile.Handler { return r.WalletReport },
			message:    `{"paymentId":"P1","balances":{"BAT":"1.5","USD":"0.30"}}`,
			collection: Wallets,
			filter:     docstore.Filter{"paymentId": "P1"},
		},
		{
			name:       "Grant",
			handle:     func(r *Reconciler) reconcile.Handler { return r.GrantReport },
			message:    `{"grantId":"G1","promotionId":"PR1","altcurrency":"BAT","probi":"30000000000000000000"}`,
			collection: Grants,
			filter:     docstore.Filter{"grantId": "G1"},
		},
		{
			name:       "Redeem",
			seed:       []string{"G1", "G2"},
			handle:     func(r *Reconciler) reconcile.Handler { return r.RedeemReport },
			message:    `{"grantIds":["G1","G2"],"paymentId":"P1","redeemed":true}`,
			collection: Grants,
			filter:     docstore.Filter{"grantId": "G2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store := newTestReconciler(t)
			ctx := context.Background()
			for _, id := range tt.seed {
				require.NoError(t, r.GrantReport(ctx, payload(t, `{"grantId":"`+id+`","probi":"1"}`)))
			}
			count := len(store.Docs(tt.collection))
			handle := tt.handle(r)

			require.NoError(t, handle(ctx, payload(t, tt.message)))
			first := find(t, store, tt.collection, tt.filter)
			require.NoError(t, handle(ctx, payload(t, tt.message)))
			second := find(t, store, tt.collection, tt.filter)

			firstStamp, ok := first["timestamp"].(primitive.Timestamp)
			require.True(t, ok)
			secondStamp, ok := second["timestamp"].(primitive.Timestamp)
			require.True(t, ok)
			assert.True(t, secondStamp.After(firstStamp), "timestamp must be refreshed")

			delete(first, "timestamp")
			delete(second, "timestamp")
			assert.Equal(t, first, second)
			if len(tt.seed) == 0 {
				assert.Len(t, store.Docs(tt.collection), count+1)
			} else {
				assert.Len(t, store.Docs(tt.collection), count)
			}
		})
	}
}

func TestPersonaReport_Rejections(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	err := r.PersonaReport(ctx, payload(t, `{"address":"A1"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.PersonaReport(ctx, payload(t, `{"paymentId":"P1","$set":{"x":1}}`))
	assert.ErrorIs(t, err, reconcile.ErrInvalidPayload)

	err = r.PersonaReport(ctx, payload(t, `{"paymentId":"P1","balances":{"BAT":"-1"}}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	assert.Empty(t, store.Docs(Wallets))
}

func TestPersonaReport_DropsStoreOwnedFields(t *testing.T) {
	r, store := newTestReconciler(t)

	err := r.PersonaReport(context.Background(), payload(t, `{"paymentId":"P1","_id":"x","timestamp":5}`))
	require.NoError(t, err)

	doc := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	assert.NotContains(t, doc, "_id")
	assert.IsType(t, primitive.Timestamp{}, doc["timestamp"])
}

func TestSurveyorReport_DefaultsCountsOnCreationOnly(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, r.SurveyorReport(ctx, payload(t, `{"surveyorId":"S1","surveyorType":"contribution"}`)))
	doc := find(t, store, Surveyors, docstore.Filter{"surveyorId": "S1"})
	assert.Equal(t, 0, doc["counts"])
	assert.Equal(t, amount.Zero, doc["probi"])

	require.NoError(t, r.SurveyorReport(ctx, payload(t, `{"surveyorId":"S1","counts":7}`)))
	require.NoError(t, r.SurveyorReport(ctx, payload(t, `{"surveyorId":"S1","votes":3}`)))

	doc = find(t, store, Surveyors, docstore.Filter{"surveyorId": "S1"})
	assert.Equal(t, json.Number("7"), doc["counts"])
	assert.Equal(t, json.Number("3"), doc["votes"])
	assert.Equal(t, "contribution", doc["surveyorType"])
}

func TestSurveyorReport_PreservesPrecision(t *testing.T) {
	r, store := newTestReconciler(t)

	err := r.SurveyorReport(context.Background(), payload(t,
		`{"surveyorId":"S1","probi":"12345678901234567890.123456789","inputs":1e3,"fee":"0.000000000000000001"}`))
	require.NoError(t, err)

	doc := find(t, store, Surveyors, docstore.Filter{"surveyorId": "S1"})
	assert.Equal(t, decimal128(t, "12345678901234567890.123456789"), doc["probi"])
	assert.True(t, amount.Equal("1000", doc["inputs"]))
	assert.True(t, amount.Equal("0.000000000000000001", doc["fee"]))
	assert.False(t, amount.Equal("0", doc["fee"]))
}

func TestSurveyorReport_InvalidAmountWritesNothing(t *testing.T) {
	r, store := newTestReconciler(t)

	err := r.SurveyorReport(context.Background(), payload(t, `{"surveyorId":"S1","probi":"abc"}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)
	assert.Equal(t, reconcile.OutcomeInvalidAmount, reconcile.Classify(err))
	assert.Empty(t, store.Docs(Surveyors))
}

func TestContributionReport_RecordsContributionAndWallet(t *testing.T) {
	r, store := newTestReconciler(t)

	err := r.ContributionReport(context.Background(), payload(t, `{
		"viewingId":"V1","paymentId":"P1","surveyorId":"S1","altcurrency":"BAT",
		"probi":"1000000000000000000","fee":"0.5","votes":5,"paymentStamp":1500000000000}`))
	require.NoError(t, err)

	contribution := find(t, store, Contributions, docstore.Filter{"viewingId": "V1"})
	assert.Equal(t, "P1", contribution["paymentId"])
	assert.Equal(t, "S1", contribution["surveyorId"])
	assert.Equal(t, decimal128(t, "1000000000000000000"), contribution["probi"])
	assert.Equal(t, decimal128(t, "0.5"), contribution["fee"])
	assert.Equal(t, "", contribution["hash"])

	wallet := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	assert.Equal(t, json.Number("1500000000000"), wallet["paymentStamp"])
	assert.Equal(t, map[string]any{}, wallet["balances"])
	assert.IsType(t, primitive.Timestamp{}, wallet["timestamp"])
}

func TestContributionReport_WithoutPaymentStampKeepsWallet(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, r.ContributionReport(ctx, payload(t,
		`{"viewingId":"V1","paymentId":"P1","probi":"1","fee":"0","paymentStamp":10}`)))
	require.NoError(t, r.ContributionReport(ctx, payload(t,
		`{"viewingId":"V2","paymentId":"P1","probi":"1","fee":"0"}`)))

	wallet := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	assert.Equal(t, json.Number("10"), wallet["paymentStamp"])
	assert.Len(t, store.Docs(Contributions), 2)
}

func TestContributionReport_Rejections(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	err := r.ContributionReport(ctx, payload(t, `{"paymentId":"P1","probi":"1","fee":"0"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.ContributionReport(ctx, payload(t, `{"viewingId":"V1","probi":"1","fee":"0"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.ContributionReport(ctx, payload(t, `{"viewingId":"V1","paymentId":"P1","fee":"0"}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	err = r.ContributionReport(ctx, payload(t, `{"viewingId":"V1","paymentId":"P1","probi":"1","fee":"x"}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	assert.Empty(t, store.Docs(Contributions))
	assert.Empty(t, store.Docs(Wallets))
}

func TestContributionReport_WalletFailureLeavesContribution(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	contributions := new(mocks.Collection)
	contributions.On("Upsert", mock.Anything, docstore.Filter{"viewingId": "V1"}, mock.Anything).
		Return(&docstore.Result{Upserted: 1}, nil)
	wallets := new(mocks.Collection)
	wallets.On("Upsert", mock.Anything, docstore.Filter{"paymentId": "P1"}, mock.Anything).
		Return(nil, docstore.ErrUnavailable)

	gw := new(mocks.Gateway)
	gw.On("Collection", Contributions).Return(contributions)
	gw.On("Collection", Wallets).Return(wallets)

	r := NewReconciler(gw, registry)
	err = r.ContributionReport(context.Background(), payload(t,
		`{"viewingId":"V1","paymentId":"P1","probi":"1","fee":"0"}`))
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
	assert.False(t, reconcile.IsRejection(err))

	contributions.AssertNumberOfCalls(t, "Upsert", 1)
	wallets.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestVotingReport_CountsEveryDelivery(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()
	p := payload(t, `{"surveyorId":"S1","publisher":"example.com"}`)

	require.NoError(t, r.VotingReport(ctx, p))
	require.NoError(t, r.VotingReport(ctx, p))

	doc := find(t, store, Voting, docstore.Filter{"surveyorId": "S1", "publisher": "example.com"})
	assert.Equal(t, int64(2), doc["counts"])
	assert.Equal(t, false, doc["exclude"])
	assert.Equal(t, amount.Zero, doc["probi"])
}

func TestVotingReport_ClearsExclude(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()
	filter := docstore.Filter{"surveyorId": "S1", "publisher": "example.com"}

	_, err := store.Collection(Voting).Upsert(ctx, filter, docstore.Update{
		Set: map[string]any{"exclude": true, "counts": int64(4)},
	})
	require.NoError(t, err)

	require.NoError(t, r.VotingReport(ctx, payload(t, `{"surveyorId":"S1","publisher":"example.com"}`)))

	doc := find(t, store, Voting, filter)
	assert.Equal(t, int64(5), doc["counts"])
	assert.Equal(t, false, doc["exclude"])
}

func TestVotingReport_CompositeKey(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, r.VotingReport(ctx, payload(t, `{"surveyorId":"S1","publisher":"a.com"}`)))
	require.NoError(t, r.VotingReport(ctx, payload(t, `{"surveyorId":"S1","publisher":"b.com"}`)))
	require.NoError(t, r.VotingReport(ctx, payload(t, `{"surveyorId":"S2","publisher":"a.com"}`)))

	assert.Len(t, store.Docs(Voting), 3)
}

func TestVotingReport_Rejections(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	err := r.VotingReport(ctx, payload(t, `{"surveyorId":"S1"}`))
	assert.ErrorIs(t, err, reconcile.ErrInvalidPayload)

	err = r.VotingReport(ctx, payload(t, `{"surveyorId":"S1","publisher":""}`))
	assert.ErrorIs(t, err, reconcile.ErrInvalidPayload)

	err = r.VotingReport(ctx, payload(t, `{"publisher":"example.com"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	assert.Empty(t, store.Docs(Voting))
}

func TestWalletReport_ReplacesBalances(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, r.WalletReport(ctx, payload(t, `{"paymentId":"P1","balances":{"BAT":"1.25","ETH":"2"}}`)))
	require.NoError(t, r.WalletReport(ctx, payload(t, `{"paymentId":"P1","balances":{"BAT":"3.000000000000000001"},"provider":"ignored"}`)))

	doc := find(t, store, Wallets, docstore.Filter{"paymentId": "P1"})
	balances, ok := doc["balances"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"BAT": decimal128(t, "3.000000000000000001")}, balances)
	assert.Equal(t, "", doc["provider"])
}

func TestWalletReport_Rejections(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	err := r.WalletReport(ctx, payload(t, `{"balances":{}}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.WalletReport(ctx, payload(t, `{"paymentId":"P1"}`))
	assert.ErrorIs(t, err, reconcile.ErrInvalidPayload)

	err = r.WalletReport(ctx, payload(t, `{"paymentId":"P1","balances":["1"]}`))
	assert.ErrorIs(t, err, reconcile.ErrInvalidPayload)

	err = r.WalletReport(ctx, payload(t, `{"paymentId":"P1","balances":{"BAT":"1","ETH":"NaN"}}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	assert.Empty(t, store.Docs(Wallets))
}

func TestGrantReport_StoresProbiAsText(t *testing.T) {
	r, store := newTestReconciler(t)

	err := r.GrantReport(context.Background(), payload(t,
		`{"grantId":"G1","promotionId":"PR1","altcurrency":"BAT","probi":"30000000000000000000"}`))
	require.NoError(t, err)

	doc := find(t, store, Grants, docstore.Filter{"grantId": "G1"})
	assert.Equal(t, "30000000000000000000", doc["probi"])
	assert.Equal(t, "PR1", doc["promotionId"])
	assert.Equal(t, "", doc["paymentId"])
}

func TestGrantReport_Rejections(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	err := r.GrantReport(ctx, payload(t, `{"probi":"1"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.GrantReport(ctx, payload(t, `{"grantId":"G1"}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	err = r.GrantReport(ctx, payload(t, `{"grantId":"G1","probi":"-3"}`))
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	assert.Empty(t, store.Docs(Grants))
}

func TestRedeemReport_UpdatesKnownGrantsOnly(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	for _, id := range []string{"G1", "G2", "G3"} {
		require.NoError(t, r.GrantReport(ctx, payload(t, `{"grantId":"`+id+`","probi":"1"}`)))
	}

	err := r.RedeemReport(ctx, payload(t, `{"grantIds":["G1","G3","G9"],"paymentId":"P1","redeemed":true}`))
	require.NoError(t, err)

	assert.Len(t, store.Docs(Grants), 3)
	g1 := find(t, store, Grants, docstore.Filter{"grantId": "G1"})
	assert.Equal(t, "P1", g1["paymentId"])
	assert.Equal(t, true, g1["redeemed"])
	assert.NotContains(t, g1, "grantIds")

	g2 := find(t, store, Grants, docstore.Filter{"grantId": "G2"})
	assert.Equal(t, "", g2["paymentId"])
}

func TestRedeemReport_Rejections(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	err := r.RedeemReport(ctx, payload(t, `{"paymentId":"P1"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.RedeemReport(ctx, payload(t, `{"grantIds":[],"paymentId":"P1"}`))
	assert.ErrorIs(t, err, reconcile.ErrMissingField)

	err = r.RedeemReport(ctx, payload(t, `{"grantIds":["G1"],"a.b":1}`))
	assert.ErrorIs(t, err, reconcile.ErrInvalidPayload)
}

func TestUpsert_StoreErrorIsNotRejection(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	coll := new(mocks.Collection)
	coll.On("Upsert", mock.Anything, docstore.Filter{"surveyorId": "S1", "publisher": "example.com"}, mock.MatchedBy(func(u docstore.Update) bool {
		return u.CurrentDate == "timestamp" && u.Inc["counts"] == 1 && u.SetOnInsert["counts"] == nil
	})).Return(nil, docstore.ErrWriteFailed)
	gw := new(mocks.Gateway)
	gw.On("Collection", Voting).Return(coll)

	r := NewReconciler(gw, registry)
	err = r.VotingReport(context.Background(), payload(t, `{"surveyorId":"S1","publisher":"example.com"}`))
	assert.ErrorIs(t, err, docstore.ErrWriteFailed)
	assert.Equal(t, reconcile.OutcomeStoreWriteFailed, reconcile.Classify(err))
	coll.AssertExpectations(t)
}
