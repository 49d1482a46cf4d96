// Package reports folds the ledger report queues into settlement records.
//
// # Queues
//
// Seven queues are consumed, each by one handler on Reconciler:
//
//   - persona-report: a wallet was registered (wallets, keyed by paymentId)
//   - surveyor-report: a surveyor was defined or its report run finished
//   - contribution-report: a wallet contributed; also advances the wallet's paymentStamp
//   - voting-report: one vote for a publisher in a surveyor, tallied with $inc
//   - wallet-report: a wallet's balances changed
//   - grant-report: a promotional grant was issued
//   - redeem-report: grants were redeemed; only existing grants are touched
//
// Every write is a single upsert on the record's natural key. Fields the
// update does not touch get their template default on creation, and the
// store stamps the write time. Monetary amounts are parsed with
// shopspring/decimal and stored as Decimal128, except grant probi which stays
// text.
//
// # Delivery
//
// Service wraps the router with logging, metrics, the delivery journal and
// the rejection archive. Rejected deliveries (bad amounts, missing keys,
// malformed payloads) are archived and can be replayed with Replay once the
// producer is fixed. Store failures are returned for redelivery and never
// archived.
//
// # HTTP
//
//	POST /reports             {"queue": "...", "message": {...}}
//	GET  /reports/queues
//	GET  /reports/deliveries  ?queue=&limit=
//	GET  /reports/summary
//
// Rejections answer 422, store failures 503.
package reports
