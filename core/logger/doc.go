// Package logger builds the zap loggers used by the reconciler.
//
// Commands build one logger at bootstrap and pass it down to the router,
// delivery service and HTTP features. Tests pass zap.NewNop or an observer
// core instead.
//
// # Configuration
//
// Config is loaded from the log section (LOG_LEVEL, LOG_FORMAT):
//   - Level: debug, info, warn or error. debug selects zap's development
//     preset, every other level the production preset.
//   - Format: json (default) for log shippers, console for a terminal.
//     The console encoder colours levels and drops stack traces.
//
// Entries always use the level, time and message keys so that json and
// console output carry the same fields.
//
// # Request correlation
//
// WithRayID attaches the ray id stored by the rayid middleware, so every
// line logged while serving a report delivery can be matched to its request.
//
// # Usage
//
//	log, err := logger.New(&logger.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	log.Info("Consuming queues", zap.Strings("queues", names))
//
//	// In a fiber handler:
//	logger.WithRayID(log, c).Warn("Delivery rejected", zap.Error(err))
package logger
