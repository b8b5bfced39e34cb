package ctx

import (
	convAuth "github.com/sofmon/actuator/lib/auth"
)

func (ctx Context) WithClaims(claims convAuth.Claims) Context {
	return ctx.with(contextKeyClaims, claims).
		WithLogger(ctx.Logger().With(loggerKeyUser, claims.User))
}

func (ctx Context) Claims() (claims convAuth.Claims) {
	claims, _ = ctx.Value(contextKeyClaims).(convAuth.Claims)
	return
}

// User is the principal of the call, empty for anonymous callers.
func (ctx Context) User() convAuth.User {
	return ctx.Claims().User
}
