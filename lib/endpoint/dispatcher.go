package endpoint

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

const (
	HeaderOrigin                    = "Origin"
	HeaderAccessControlAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders = "Access-Control-Allow-Headers"
	HeaderAccessControlMaxAge       = "Access-Control-Max-Age"
	HeaderAccessControlReqMethod    = "Access-Control-Request-Method"
	HeaderAccessControlReqHeaders   = "Access-Control-Request-Headers"
	HeaderVary                      = "Vary"
)

// Request is the transport independent shape of an inbound call. Path is
// the part after the management base path: "<endpoint id>[/<selector>...]".
type Request struct {
	Method         string
	Path           string
	Query          map[string][]string
	Body           map[string]any
	Accept         string
	ContentType    string
	Origin         string
	RequestHeaders string
}

type Dispatcher struct {
	registry       *Registry
	mapper         ParameterMapper
	allowedOrigins []string
	maxAge         time.Duration
}

type DispatcherOption func(d *Dispatcher)

func WithMapper(mapper ParameterMapper) DispatcherOption {
	return func(d *Dispatcher) {
		d.mapper = mapper
	}
}

// WithAllowedOrigins restricts cross-origin calls to origins. Without it any
// origin is echoed back.
func WithAllowedOrigins(origins ...string) DispatcherOption {
	return func(d *Dispatcher) {
		d.allowedOrigins = append(d.allowedOrigins, origins...)
	}
}

func WithMaxAge(maxAge time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxAge = maxAge
	}
}

// NewDispatcher freezes registry; it must be fully built at this point.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {

	registry.Freeze()

	d := &Dispatcher{
		registry: registry,
		mapper:   Mapper{},
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves and invokes the operation matching req. The returned
// error is only ever an error raised by the operation itself; every other
// failure is reported through the Result outcome.
func (d *Dispatcher) Dispatch(ctx convCtx.Context, req Request) (res Result, err error) {

	id, selectors, ok := splitPath(req.Path)
	if !ok {
		res.Outcome = OutcomeNotFound
		return
	}

	if req.Method == http.MethodOptions {
		res = d.preflight(id, req)
		return
	}

	if req.Origin != "" && !d.originAllowed(req.Origin) {
		res = Result{Outcome: OutcomeForbidden, EndpointID: id}
		return
	}

	op, ok := d.registry.Resolve(id, req.Method, selectors)
	if !ok {
		res = Result{Outcome: OutcomeNotFound, EndpointID: id}
		return
	}

	args, err := d.mapArguments(op, selectors, req)
	if err != nil {
		res = Result{Outcome: OutcomeBadRequest, Err: err, EndpointID: id, Operation: op.Name}
		err = nil
		return
	}

	value, err := op.Invoke(ctx, args)
	if err != nil {
		res = Result{EndpointID: id, Operation: op.Name}
	} else {
		res = translate(op, value)
	}

	// failed operations still answer cross-origin callers
	if req.Origin != "" {
		res.Header = http.Header{}
		setAllowOrigin(res.Header, req.Origin)
	}

	return
}

// splitPath never interprets dots; "test/foo.bar" selects "foo.bar".
func splitPath(path string) (id string, selectors []string, ok bool) {

	path = strings.Trim(path, "/")
	if path == "" {
		return
	}

	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return
		}
	}

	return segments[0], segments[1:], true
}

func (d *Dispatcher) mapArguments(op Operation, selectors []string, req Request) (args Arguments, err error) {

	args = make(Arguments, len(op.Parameters))

	si := 0
	for _, p := range op.Parameters {

		var raw any

		switch {
		case p.IsSelector():
			raw = selectors[si]
			si++
		case op.Kind == OperationRead:
			if values, ok := req.Query[p.Name]; ok {
				raw = values
			}
		default:
			raw = req.Body[p.Name]
		}

		var v any
		v, err = d.mapper.Map(raw, p)
		if err != nil {
			return
		}

		args[p.Name] = v
	}

	return
}

func (d *Dispatcher) preflight(id string, req Request) (res Result) {

	res.EndpointID = id

	ep, ok := d.registry.Endpoint(id)
	if !ok {
		res.Outcome = OutcomeNotFound
		return
	}

	if req.Origin != "" && !d.originAllowed(req.Origin) {
		res.Outcome = OutcomeForbidden
		return
	}

	res.Outcome = OutcomePreflight
	res.Header = http.Header{}

	if req.Origin != "" {
		setAllowOrigin(res.Header, req.Origin)
	}

	res.Header.Set(HeaderAccessControlAllowMethods, strings.Join(ep.AllowedMethods(), ","))

	if req.RequestHeaders != "" {
		res.Header.Set(HeaderAccessControlAllowHeaders, req.RequestHeaders)
	}

	if d.maxAge > 0 {
		res.Header.Set(HeaderAccessControlMaxAge, strconv.Itoa(int(d.maxAge.Seconds())))
	}

	return
}

func (d *Dispatcher) originAllowed(origin string) bool {
	if len(d.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range d.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func setAllowOrigin(h http.Header, origin string) {
	h.Set(HeaderAccessControlAllowOrigin, origin)
	h.Add(HeaderVary, HeaderOrigin)
}
