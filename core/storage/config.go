package storage

// Config holds configuration for the object store that archives rejected deliveries.
type Config struct {
	// Enabled turns the archive on. When off, rejected deliveries are only logged.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the host and port of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket receives the archived envelopes.
	Bucket string `mapstructure:"bucket" default:"reconciler-archive"`
	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix" default:"rejected"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds connection setup and the wait for response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
