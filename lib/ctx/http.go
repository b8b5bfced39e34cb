package ctx

import (
	"net/http"
	"time"

	convAuth "github.com/sofmon/actuator/lib/auth"
)

const (
	HttpHeaderAuthorization = convAuth.HttpHeaderAuthorization
	HttpHeaderWorkflow      = "Workflow"
	HttpHeaderAgent         = "Agent"
	HTTPHeaderTimeNow       = "Time-Now"
)

func (ctx Context) WithRequest(r *http.Request) (res Context) {

	res = ctx.with(contextKeyRequest, r)

	if r == nil {
		return
	}

	if wid := r.Header.Get(HttpHeaderWorkflow); wid != "" {
		res = res.WithWorkflow(Workflow(wid))
	}

	if claims, err := convAuth.DecodeHTTPRequestClaims(r); err == nil {
		res = res.WithClaims(claims)
	} else if err != convAuth.ErrMissingAuthorizationHeader {
		res.Logger().Warn("failed to decode HTTP request claims", "error", err.Error())
	}

	if !ctx.IsProdEnv() {
		nowStr := r.Header.Get(HTTPHeaderTimeNow)
		if nowStr != "" {
			now, err := time.Parse(time.RFC3339, nowStr)
			if err != nil {
				ctx.Logger().Warn("failed to parse '"+HTTPHeaderTimeNow+"' header", "error", err.Error())
			} else {
				res = res.WithNow(now.UTC())
			}
		}
	}

	return
}

func (ctx Context) Request() (r *http.Request) {
	r, _ = ctx.Value(contextKeyRequest).(*http.Request)
	return
}
