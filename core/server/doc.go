// Package server holds the HTTP server configuration.
//
// The start command builds the Fiber app; this package only defines the
// listen port, the API key guarding the routes and the ingest body limit.
package server
