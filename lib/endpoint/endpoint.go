package endpoint

import (
	"net/http"
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

type OperationKind int

const (
	OperationRead OperationKind = iota
	OperationWrite
)

func (k OperationKind) String() string {
	switch k {
	case OperationRead:
		return "read"
	case OperationWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Method returns the HTTP verb an operation of this kind is bound to.
func (k OperationKind) Method() string {
	if k == OperationWrite {
		return http.MethodPost
	}
	return http.MethodGet
}

func kindForMethod(method string) (OperationKind, bool) {
	switch method {
	case http.MethodGet:
		return OperationRead, true
	case http.MethodPost:
		return OperationWrite, true
	default:
		return 0, false
	}
}

type ParameterType string

const (
	TypeString   ParameterType = "string"
	TypeInteger  ParameterType = "integer"
	TypeNumber   ParameterType = "number"
	TypeBoolean  ParameterType = "boolean"
	TypeTime     ParameterType = "time"
	TypeDuration ParameterType = "duration"
	TypeAny      ParameterType = "any"
)

type ParameterSource int

const (
	SourceSelector ParameterSource = iota
	// SourceRequest is the query string for read operations and the body
	// for write operations.
	SourceRequest
)

type Parameter struct {
	Name   string
	Type   ParameterType
	List   bool
	Source ParameterSource
}

func (p Parameter) IsSelector() bool {
	return p.Source == SourceSelector
}

// Selector declares a mandatory path segment parameter. Selectors are
// consumed left to right in declaration order.
func Selector(name string, t ParameterType) Parameter {
	return Parameter{Name: name, Type: t, Source: SourceSelector}
}

func Param(name string, t ParameterType) Parameter {
	return Parameter{Name: name, Type: t, Source: SourceRequest}
}

func ListParam(name string, t ParameterType) Parameter {
	return Parameter{Name: name, Type: t, List: true, Source: SourceRequest}
}

// Invoker is the operation callable bound to an endpoint instance.
// Returning a nil value means "no result".
type Invoker func(ctx convCtx.Context, args Arguments) (any, error)

type Operation struct {
	EndpointID string
	Kind       OperationKind
	Name       string
	Parameters []Parameter

	invoke Invoker
}

func Read(name string, fn Invoker, params ...Parameter) Operation {
	return Operation{Kind: OperationRead, Name: name, Parameters: params, invoke: fn}
}

func Write(name string, fn Invoker, params ...Parameter) Operation {
	return Operation{Kind: OperationWrite, Name: name, Parameters: params, invoke: fn}
}

func (op Operation) Selectors() (res []Parameter) {
	for _, p := range op.Parameters {
		if p.IsSelector() {
			res = append(res, p)
		}
	}
	return
}

func (op Operation) Invoke(ctx convCtx.Context, args Arguments) (any, error) {
	return op.invoke(ctx, args)
}

// Definition is the registration table entry a Candidate hands to the
// Discoverer.
type Definition struct {
	ID         string
	Operations []Operation
}

func Define(id string, ops ...Operation) Definition {
	return Definition{ID: id, Operations: ops}
}

// Candidate is any object that exposes a management endpoint.
type Candidate interface {
	Endpoint() Definition
}

// CandidateFunc adapts a plain function to Candidate.
type CandidateFunc func() Definition

func (f CandidateFunc) Endpoint() Definition {
	return f()
}

// Endpoint is an immutable, discovered endpoint.
type Endpoint struct {
	ID         string
	Operations []Operation
	TimeToLive time.Duration
}

// AllowedMethods returns the verbs the endpoint serves, GET before POST.
func (ep Endpoint) AllowedMethods() (methods []string) {
	var read, write bool
	for _, op := range ep.Operations {
		switch op.Kind {
		case OperationRead:
			read = true
		case OperationWrite:
			write = true
		}
	}
	if read {
		methods = append(methods, http.MethodGet)
	}
	if write {
		methods = append(methods, http.MethodPost)
	}
	return
}
