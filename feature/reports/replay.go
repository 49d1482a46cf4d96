package reports

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReplayReport summarizes a replay run.
type ReplayReport struct {
	Attempted int `json:"attempted"`
	Applied   int `json:"applied"`
	Failed    int `json:"failed"`
	Removed   int `json:"removed"`
}

// Replay re-dispatches up to limit archived deliveries. Applied envelopes are
// removed from the archive unless keep is set. A delivery rejected again is
// re-archived under the same key by the service.
func Replay(ctx context.Context, svc *Service, archive *Archive, limit int, keep bool) (ReplayReport, error) {
	var report ReplayReport

	keys, err := archive.List(ctx, limit)
	if err != nil {
		return report, err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		log := svc.logger.With(zap.String("key", key))

		env, err := archive.Load(ctx, key)
		if err != nil {
			report.Failed++
			log.Error("Archived delivery unreadable", zap.Error(err))
			continue
		}

		_, err = svc.Handle(ctx, Delivery{
			ID:         env.ID,
			Queue:      env.Queue,
			Message:    env.Message,
			ReceivedAt: env.ReceivedAt,
		})
		if err != nil {
			report.Failed++
			continue
		}
		report.Applied++

		if keep {
			continue
		}
		if err := archive.Remove(ctx, key); err != nil {
			log.Error("Archived delivery applied but not removed", zap.Error(err))
			continue
		}
		report.Removed++
	}

	if report.Failed > 0 {
		return report, fmt.Errorf("replay: %d of %d deliveries failed", report.Failed, report.Attempted)
	}
	return report, nil
}
