// Package database opens the relational database behind the delivery journal.
//
// It wraps GORM so the journal can run on MySQL in production or on a SQLite
// file (or :memory:) for single-node deployments and tests.
//
// # Connect
//
// Connect picks the dialector from Config.Driver, applies the connection
// timeouts and pings the server before returning.
//
// # Schema Inspection
//
// Columns and MissingColumns read the live columns of a table. The journal
// uses them to report drift between its model and a table migrated by an
// older release.
//
// # Usage
//
//	db, err := database.Connect(cfg.Journal)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "deliveries", "digest")
package database
