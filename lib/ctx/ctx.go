package ctx

import (
	"context"
	"time"
)

// Context carries request scoped values of a management call: the running
// agent, the caller claims, the workflow id, the error scope and the logger.
type Context struct {
	context.Context
}

type contextKey int

const (
	contextKeyAgent contextKey = iota
	contextKeyEnv
	contextKeyRequest
	contextKeyClaims
	contextKeyWorkflow
	contextKeyScope
	contextKeyNow
	contextKeyLogger

	loggerKeyEnv      = "env"
	loggerKeyAgent    = "agent"
	loggerKeyWorkflow = "workflow"
	loggerKeyUser     = "user"
	loggerKeyNow      = "now"
)

type Agent string

func New(agent Agent) (ctx Context) {
	return WrapContext(context.Background(), agent)
}

func WrapContext(parent context.Context, agent Agent) (ctx Context) {

	env := getEnv()
	workflow := NewWorkflow()
	scope := string(agent) // initial scope is the agent name

	ctx.Context = context.WithValue(parent, contextKeyEnv, env)
	ctx.Context = context.WithValue(ctx.Context, contextKeyAgent, agent)
	ctx.Context = context.WithValue(ctx.Context, contextKeyWorkflow, workflow)
	ctx.Context = context.WithValue(ctx.Context, contextKeyScope, scope)

	ctx.Context = context.WithValue(ctx.Context, contextKeyLogger,
		defaultLogger().
			With(
				loggerKeyEnv, env,
				loggerKeyAgent, agent,
				loggerKeyWorkflow, workflow,
			),
	)

	return
}

func (ctx Context) Agent() Agent {
	agent, _ := ctx.Value(contextKeyAgent).(Agent)
	return agent
}

// WithDone returns a copy of ctx that is also cancelled when done is.
// Values keep coming from ctx.
func (ctx Context) WithDone(done context.Context) (Context, context.CancelFunc) {
	child, cancel := context.WithCancelCause(ctx.Context)
	stop := context.AfterFunc(done, func() {
		cancel(context.Cause(done))
	})
	return Context{child}, func() {
		stop()
		cancel(context.Canceled)
	}
}

func (ctx Context) WithTimeout(timeout time.Duration) (Context, context.CancelFunc) {
	child, cancel := context.WithTimeout(ctx.Context, timeout)
	return Context{child}, cancel
}

func (ctx Context) with(key contextKey, value any) Context {
	return Context{context.WithValue(ctx.Context, key, value)}
}
