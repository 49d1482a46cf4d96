package reports

import (
	"context"
	"fmt"
	"strings"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"
	"ledger-reconciler/core/reconcile"
	"ledger-reconciler/core/schema"
	"ledger-reconciler/core/utils"
)

// Queue names.
const (
	PersonaReport      = "persona-report"
	SurveyorReport     = "surveyor-report"
	ContributionReport = "contribution-report"
	VotingReport       = "voting-report"
	WalletReport       = "wallet-report"
	GrantReport        = "grant-report"
	RedeemReport       = "redeem-report"
)

// Reconciler folds report payloads into ledger records.
type Reconciler struct {
	store         docstore.Gateway
	wallets       schema.Entity
	surveyors     schema.Entity
	contributions schema.Entity
	voting        schema.Entity
	grants        schema.Entity
}

// NewReconciler binds the handlers to a store and the ledger entity table.
func NewReconciler(store docstore.Gateway, registry *schema.Registry) *Reconciler {
	return &Reconciler{
		store:         store,
		wallets:       registry.MustEntity(Wallets),
		surveyors:     registry.MustEntity(Surveyors),
		contributions: registry.MustEntity(Contributions),
		voting:        registry.MustEntity(Voting),
		grants:        registry.MustEntity(Grants),
	}
}

// Table returns the fixed queue to handler mapping.
func (r *Reconciler) Table() map[string]reconcile.Handler {
	return map[string]reconcile.Handler{
		PersonaReport:      r.PersonaReport,
		SurveyorReport:     r.SurveyorReport,
		ContributionReport: r.ContributionReport,
		VotingReport:       r.VotingReport,
		WalletReport:       r.WalletReport,
		GrantReport:        r.GrantReport,
		RedeemReport:       r.RedeemReport,
	}
}

// PersonaReport records a newly registered wallet.
// Sent by the registrar when a persona is created.
func (r *Reconciler) PersonaReport(ctx context.Context, p reconcile.Payload) error {
	keys, err := p.Require("paymentId")
	if err != nil {
		return err
	}
	fields, err := p.Fields("paymentId")
	if err != nil {
		return err
	}
	if raw, ok := fields["balances"]; ok {
		if fields["balances"], err = normalizeBalances(raw); err != nil {
			return err
		}
	}

	return r.upsert(ctx, r.wallets, docstore.Filter{"paymentId": keys[0]}, docstore.Update{Set: fields})
}

// SurveyorReport records a surveyor definition or its report-run totals.
// counts is only defaulted on creation, so a report without it keeps the tally.
func (r *Reconciler) SurveyorReport(ctx context.Context, p reconcile.Payload) error {
	keys, err := p.Require("surveyorId")
	if err != nil {
		return err
	}
	fields, err := p.Fields("surveyorId")
	if err != nil {
		return err
	}
	if err := normalizePresent(fields, "probi", "inputs", "fee"); err != nil {
		return err
	}

	return r.upsert(ctx, r.surveyors, docstore.Filter{"surveyorId": keys[0]}, docstore.Update{Set: fields})
}

// ContributionReport records a contribution and advances the owning wallet's
// paymentStamp. The two upserts are independent: if the wallet write fails the
// contribution stays recorded and the delivery must be retried.
func (r *Reconciler) ContributionReport(ctx context.Context, p reconcile.Payload) error {
	keys, err := p.Require("viewingId", "paymentId")
	if err != nil {
		return err
	}
	fields, err := p.Fields("viewingId")
	if err != nil {
		return err
	}
	if err := normalizeRequired(fields, "probi", "fee"); err != nil {
		return err
	}

	err = r.upsert(ctx, r.contributions, docstore.Filter{"viewingId": keys[0]}, docstore.Update{Set: fields})
	if err != nil {
		return err
	}

	wallet := map[string]any{}
	if stamp, ok := p["paymentStamp"]; ok && stamp != nil {
		wallet["paymentStamp"] = stamp
	}
	if err := r.upsert(ctx, r.wallets, docstore.Filter{"paymentId": keys[1]}, docstore.Update{Set: wallet}); err != nil {
		return fmt.Errorf("wallet paymentStamp for %s: %w", keys[1], err)
	}
	return nil
}

// VotingReport tallies one vote for a publisher in a surveyor.
// Every vote clears an administrative exclude. Redelivery counts again.
func (r *Reconciler) VotingReport(ctx context.Context, p reconcile.Payload) error {
	publisher, ok := p.String("publisher")
	if !ok {
		return fmt.Errorf("%w: no publisher specified", reconcile.ErrInvalidPayload)
	}
	keys, err := p.Require("surveyorId")
	if err != nil {
		return err
	}

	filter := docstore.Filter{"surveyorId": keys[0], "publisher": publisher}
	return r.upsert(ctx, r.voting, filter, docstore.Update{
		Set: map[string]any{"exclude": false},
		Inc: map[string]int64{"counts": 1},
	})
}

// WalletReport replaces a wallet's balances.
func (r *Reconciler) WalletReport(ctx context.Context, p reconcile.Payload) error {
	keys, err := p.Require("paymentId")
	if err != nil {
		return err
	}
	balances, err := normalizeBalances(p["balances"])
	if err != nil {
		return err
	}

	return r.upsert(ctx, r.wallets, docstore.Filter{"paymentId": keys[0]}, docstore.Update{
		Set: map[string]any{"balances": balances},
	})
}

// GrantReport records an issued grant. probi is validated as a decimal but
// stored as text, matching what existing grant readers expect.
func (r *Reconciler) GrantReport(ctx context.Context, p reconcile.Payload) error {
	keys, err := p.Require("grantId")
	if err != nil {
		return err
	}
	fields, err := p.Fields("grantId")
	if err != nil {
		return err
	}
	if fields["probi"], err = amount.Text(fields["probi"]); err != nil {
		return fmt.Errorf("probi: %w", err)
	}

	return r.upsert(ctx, r.grants, docstore.Filter{"grantId": keys[0]}, docstore.Update{Set: fields})
}

// RedeemReport marks every listed grant with the remaining payload fields.
// Grants that were never reported are not created.
func (r *Reconciler) RedeemReport(ctx context.Context, p reconcile.Payload) error {
	grantIDs := utils.ToStringSlice(p["grantIds"])
	if len(grantIDs) == 0 {
		return fmt.Errorf("%w: grantIds", reconcile.ErrMissingField)
	}
	fields, err := p.Fields("grantIds", "grantId")
	if err != nil {
		return err
	}

	_, err = r.store.Collection(r.grants.Name).UpdateIn(ctx, "grantId", grantIDs, docstore.Update{
		Set:         fields,
		CurrentDate: schema.TimestampField,
	})
	return err
}

// upsert stamps the write time, adds creation defaults for every template field
// the update leaves alone and writes in a single atomic operation.
func (r *Reconciler) upsert(ctx context.Context, e schema.Entity, filter docstore.Filter, update docstore.Update) error {
	update.CurrentDate = schema.TimestampField
	update.SetOnInsert = e.InsertDefaults(update.Touched()...)

	_, err := r.store.Collection(e.Name).Upsert(ctx, filter, update)
	return err
}

// normalizeRequired converts each named field to Decimal128, failing when one is absent.
func normalizeRequired(fields map[string]any, names ...string) error {
	for _, name := range names {
		dec, err := amount.Normalize(fields[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fields[name] = dec
	}
	return nil
}

// normalizePresent converts each named field that the payload carries.
func normalizePresent(fields map[string]any, names ...string) error {
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			continue
		}
		if err := normalizeRequired(fields, name); err != nil {
			return err
		}
	}
	return nil
}

// normalizeBalances converts every currency entry independently.
func normalizeBalances(raw any) (map[string]any, error) {
	balances, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: balances must be an object", reconcile.ErrInvalidPayload)
	}

	out := make(map[string]any, len(balances))
	for currency, value := range balances {
		if currency == "" || strings.HasPrefix(currency, "$") || strings.Contains(currency, ".") {
			return nil, fmt.Errorf("%w: currency %q", reconcile.ErrInvalidPayload, currency)
		}
		dec, err := amount.Normalize(value)
		if err != nil {
			return nil, fmt.Errorf("balances.%s: %w", currency, err)
		}
		out[currency] = dec
	}
	return out, nil
}
