package reports

// DefaultQueues lists every queue with a handler, in registration order.
func DefaultQueues() []string {
	return []string{
		PersonaReport,
		SurveyorReport,
		ContributionReport,
		VotingReport,
		WalletReport,
		GrantReport,
		RedeemReport,
	}
}
