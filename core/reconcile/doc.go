// Package reconcile routes report events to the handlers that fold them into
// ledger records.
//
// The routing table is fixed: it is built once at startup from a static map of
// queue name to Handler and never mutated. NewRouter checks that every queue
// the transport is configured to consume has a handler, so a missing handler
// stops the process before the first delivery instead of dropping events at
// runtime.
//
// # Payloads
//
// A Payload is the decoded message body of a delivery. Payload helpers extract
// key fields (Require, String) and produce the field set a handler merges into
// storage (Fields), discarding the store-owned _id and timestamp fields.
//
// # Errors
//
// Every failure is returned to the caller. Classify maps an error onto the
// outcome taxonomy used in logs, metrics and the delivery journal:
//
//   - invalid_amount, missing_field, invalid_payload: the event is rejected
//     before any write. Redelivering it cannot succeed.
//   - store_unavailable, store_write_failed: the store failed. The transport
//     should redeliver according to its own policy.
//   - unregistered_queue: a configuration error, fatal at startup.
//
// # Usage
//
//	router, err := reconcile.NewRouter(table, cfg.Queue.Names...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = router.Dispatch(ctx, "voting-report", payload)
package reconcile
