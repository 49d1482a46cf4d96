package cmd

import (
	"ledger-reconciler/feature/reports"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	replayLimit int
	replayKeep  bool
)

// replayCmd re-dispatches archived rejections.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay rejected deliveries from the archive",
	Long: `Loads rejected deliveries from the archive bucket and dispatches them again.
Deliveries that apply are removed from the archive unless --keep is given;
deliveries rejected again stay archived with the new error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx, bootOptions{archive: true})
		if err != nil {
			return err
		}
		defer rt.Close()

		svc, err := rt.service()
		if err != nil {
			return err
		}

		report, err := reports.Replay(ctx, svc, rt.archive, replayLimit, replayKeep)
		rt.log.Info("Replay finished",
			zap.Int("attempted", report.Attempted),
			zap.Int("applied", report.Applied),
			zap.Int("failed", report.Failed),
			zap.Int("removed", report.Removed),
		)
		return err
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayLimit, "limit", 0, "Maximum deliveries to replay, 0 for all")
	replayCmd.Flags().BoolVar(&replayKeep, "keep", false, "Keep applied deliveries in the archive")
	RootCmd.AddCommand(replayCmd)
}
