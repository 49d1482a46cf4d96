package docstore

// Config holds configuration for the document store connection.
type Config struct {
	// URI is the MongoDB connection string.
	URI string `mapstructure:"uri" default:"mongodb://localhost:27017"`
	// Database is the database holding the ledger collections.
	Database string `mapstructure:"database" default:"eyeshade"`
	// TimeoutSeconds bounds connection setup and each store operation.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
