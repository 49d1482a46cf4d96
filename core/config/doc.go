// Package config loads the application configuration.
//
// Values come from defaults declared in `default:"..."` struct tags, an
// optional .env file and the environment, in increasing precedence. Nested
// keys map to upper-case variables with underscores:
//
//	mongo.uri        -> MONGO_URI
//	queue.names      -> QUEUE_NAMES (comma separated)
//	journal.enabled  -> JOURNAL_ENABLED
//	archive.bucket   -> ARCHIVE_BUCKET
//
// Each section is owned by the package that uses it (server, logger,
// docstore, reconcile, database, storage, metrics).
package config
