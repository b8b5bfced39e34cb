package ctx

import "github.com/google/uuid"

type Workflow string

func NewWorkflow() Workflow {
	return Workflow(uuid.NewString())
}

func (ctx Context) WithNewWorkflow() Context {
	return ctx.WithWorkflow(NewWorkflow())
}

// WithWorkflow correlates the log lines of one management call, local and
// remote.
func (ctx Context) WithWorkflow(workflow Workflow) Context {
	return ctx.with(contextKeyWorkflow, workflow).
		WithLogger(ctx.Logger().With(loggerKeyWorkflow, workflow))
}

func (ctx Context) Workflow() Workflow {
	workflow, _ := ctx.Value(contextKeyWorkflow).(Workflow)
	return workflow
}
