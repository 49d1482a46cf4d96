// Package schema is the registry of persisted entity shapes.
//
// Each Entity names its collection, its natural key, a versioned list of
// template fields and the secondary indices that back analytical queries.
//
// # Templates
//
// Collections hold records written by two schema generations. Fields added by
// a later generation are declared with Since: V2 and a zero default. The
// template is applied two ways:
//
//   - At write time, InsertDefaults yields the fields a newly created record
//     should receive, minus anything the write itself assigns. Handlers send
//     it as $setOnInsert, so defaults never clobber existing values.
//   - At read time, Merge layers a stored record over the template so every
//     current field is present even on records written before it existed.
//
// Adding a field to an entity is therefore a change to its template only.
//
// # Indices
//
// EnsureIndices reconciles the unique key index and every secondary index of
// every entity against the live store. An existing index with the wrong
// unique flag is a fatal startup error.
package schema
