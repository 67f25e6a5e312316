// Package log provides duraq's structured logging facade.
//
// It exposes a small Logger interface with leveled, Field-based structured
// methods, backed by the standard library's log/slog for actual formatting
// and output. The queue engine logs at Warn or above only for conditions
// worth operator attention (corruption, recovery summaries); it never logs
// below Warn on the Push/PopOpen/PopClose hot path.
//
// Quick start:
//
//	logger := log.NewLogger(log.WithLevel(log.InfoLevel))
//	logger = logger.With(log.F("component", "queue"))
//	logger.Warn("recovered outstanding items", log.F("count", 3))
package log
