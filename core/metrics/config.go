package metrics

// Config holds configuration for the prometheus metrics.
type Config struct {
	// Enabled registers the collectors and exposes /metrics.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace" default:"reconciler"`
}
