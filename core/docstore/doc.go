// Package docstore is the gateway between the reconciler and the document store.
//
// The engine never talks to MongoDB directly. It obtains a Collection handle by
// name and performs one of three writes, each a single atomic store operation:
//
//   - Upsert: update the document matching an equality filter, or insert it.
//   - UpdateIn: update every document whose field value is in a set.
//   - EnsureIndex: make sure an index exists with the expected unique flag.
//
// An Update carries the field assignments ($set), counters ($inc), creation
// defaults ($setOnInsert) and the name of the field that the store stamps with
// its own clock ($currentDate). Payload timestamps are never written.
//
// # Implementations
//
//   - NewMongo: a MongoDB gateway built on the official mongo-driver.
//   - memstore.New: an in-process gateway with the same semantics, used by
//     tests and dry runs.
//
// # Errors
//
// Collaborator failures are reported as ErrUnavailable (the store could not be
// reached) or ErrWriteFailed (the store rejected the write). Callers hand both
// back to the transport for redelivery; the gateway never retries.
package docstore
