package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"ledger-reconciler/core/reconcile"
	"ledger-reconciler/feature/reports"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	applyFile   string
	applyDryRun bool
)

// applyCmd feeds a file of report envelopes through the reconciler.
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply newline-delimited report envelopes",
	Long: `Reads one JSON envelope per line, {"queue": "...", "message": {...}}, and
dispatches each through the reconciler exactly as the HTTP ingest does.

Examples:
  # Apply a captured queue dump
  reconciler apply --file reports.ndjson

  # Validate a dump against an in-memory store, touching nothing
  reconciler apply --file reports.ndjson --dry-run

  # Read from stdin
  cat reports.ndjson | reconciler apply --file -`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "-", "NDJSON file to apply, - for stdin")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Apply against an in-memory store without journal or archive")
	RootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	in := cmd.InOrStdin()
	if applyFile != "-" {
		f, err := os.Open(applyFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", applyFile, err)
		}
		defer f.Close()
		in = f
	}

	rt, err := bootstrap(ctx, bootOptions{memory: applyDryRun})
	if err != nil {
		return err
	}
	defer rt.Close()

	if applyDryRun {
		rt.log.Info("Dry-run mode: nothing will be persisted")
	}
	if err := rt.registry.EnsureIndices(ctx, rt.store); err != nil {
		return err
	}

	svc, err := rt.service()
	if err != nil {
		return err
	}

	counts, err := applyStream(ctx, svc, rt.log, in)
	if err != nil {
		return err
	}

	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, string(outcome))
	}
	sort.Strings(outcomes)

	failed := 0
	for _, outcome := range outcomes {
		n := counts[reconcile.Outcome(outcome)]
		rt.log.Info("Apply result", zap.String("outcome", outcome), zap.Int("count", n))
		if reconcile.Outcome(outcome) != reconcile.OutcomeApplied {
			failed += n
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d deliveries were not applied", failed)
	}
	return nil
}

// applyStream dispatches every envelope in r and counts the outcomes.
// Lines that are not valid envelopes count as invalid payloads.
func applyStream(ctx context.Context, svc *reports.Service, log *zap.Logger, r io.Reader) (map[reconcile.Outcome]int, error) {
	counts := make(map[reconcile.Outcome]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return counts, err
		}

		var req reports.Request
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil || req.Queue == "" {
			counts[reconcile.OutcomeInvalidPayload]++
			log.Warn("Skipping malformed envelope", zap.Int("line", line), zap.Error(err))
			continue
		}

		receipt, _ := svc.Handle(ctx, reports.Delivery{ID: req.ID, Queue: req.Queue, Message: req.Message})
		counts[receipt.Outcome]++
	}
	if err := scanner.Err(); err != nil {
		return counts, fmt.Errorf("read envelopes: %w", err)
	}
	return counts, nil
}
