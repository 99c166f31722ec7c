package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// span wraps a sentry span for one cache call. The zero value is a no-op
// so callers never branch on whether tracing is active.
type span struct {
	s *sentry.Span
}

// startSpan opens a "cache.<backend>.<op>" span when the context carries a hub.
func startSpan(ctx context.Context, backend, op, key string) span {
	if sentry.GetHubFromContext(ctx) == nil {
		return span{}
	}
	s := sentry.StartSpan(ctx, "cache."+backend+"."+op)
	s.Description = "cache." + backend + "." + op
	s.SetData("cache.key", key)
	return span{s: s}
}

// hit records whether a lookup found the key, then finishes the span.
func (sp span) hit(found bool) {
	if sp.s == nil {
		return
	}
	sp.s.SetData("cache.hit", found)
	sp.s.Status = sentry.SpanStatusOK
	sp.s.Finish()
}

func (sp span) finish() {
	if sp.s == nil {
		return
	}
	sp.s.Status = sentry.SpanStatusOK
	sp.s.Finish()
}
