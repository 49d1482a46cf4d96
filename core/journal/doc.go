// Package journal keeps an audit row for every delivery the reconciler handles.
//
// Rows hold the delivery id, queue, payload digest, outcome, error text and
// timing. They are written after dispatch and never affect it: a journal that
// is down costs the audit trail, not the write.
//
// The digest lets the delivery service notice a voting report it has already
// applied. Votes are not idempotent, so a redelivered vote increments again;
// the journal only makes that visible.
package journal
