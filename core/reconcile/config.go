package reconcile

// Config selects the queues this process consumes.
type Config struct {
	// Names lists the consumed queues. Every name must have a handler.
	Names []string `mapstructure:"names" default:"persona-report,surveyor-report,contribution-report,voting-report,wallet-report,grant-report,redeem-report"`
}
