package ctx

import "time"

// WithNow pins the clock of ctx, used by endpoint caches and audit events.
func (ctx Context) WithNow(now time.Time) Context {
	return ctx.with(contextKeyNow, now).
		WithLogger(ctx.Logger().With(loggerKeyNow, now))
}

func (ctx Context) Now() time.Time {
	if now, ok := ctx.Value(contextKeyNow).(time.Time); ok {
		return now
	}
	return time.Now().UTC()
}
