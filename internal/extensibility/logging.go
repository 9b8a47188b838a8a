package extensibility

import (
	"time"

	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/primitives"
	"github.com/comalice/loginflow/logging"
)

// LoggingMiddleware logs every reduction: the action type and how long the
// wrapped reducer took. Payloads are not logged since they may hold credentials.
func LoggingMiddleware[S any](logger logging.Logger) core.Middleware[S] {
	return func(next primitives.Reducer[S]) primitives.Reducer[S] {
		return func(state S, a primitives.Action) S {
			start := time.Now()
			out := next(state, a)
			logger.Info("state updated", "action", a.Type, "duration", time.Since(start))
			return out
		}
	}
}
