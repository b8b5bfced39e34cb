package endpoint

import (
	"strings"
	"time"
)

// Discoverer extracts endpoint descriptors from candidate objects. It has no
// side effects; the result is handed to a Registry.
type Discoverer struct {
	filter  func(id string) bool
	caching func(id string) time.Duration
}

type DiscovererOption func(d *Discoverer)

// WithFilter skips candidates whose endpoint id is rejected by filter.
func WithFilter(filter func(id string) bool) DiscovererOption {
	return func(d *Discoverer) {
		d.filter = filter
	}
}

// WithCaching sets the time-to-live of the cached responses of parameterless
// read operations per endpoint id. Zero disables caching.
func WithCaching(ttl func(id string) time.Duration) DiscovererOption {
	return func(d *Discoverer) {
		d.caching = ttl
	}
}

func NewDiscoverer(opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Discoverer) Discover(candidates ...Candidate) (eps []Endpoint, err error) {

	seen := map[string]bool{}

	for _, c := range candidates {

		if c == nil {
			continue
		}

		def := c.Endpoint()

		if d.filter != nil && !d.filter(def.ID) {
			continue
		}

		if seen[def.ID] {
			err = newDiscoveryError(def.ID, "", "endpoint id declared by more than one candidate")
			return
		}
		seen[def.ID] = true

		var ep Endpoint
		ep, err = d.extract(def)
		if err != nil {
			return
		}

		eps = append(eps, ep)
	}

	return
}

type routeShape struct {
	kind  OperationKind
	arity int
}

func (d *Discoverer) extract(def Definition) (ep Endpoint, err error) {

	if def.ID == "" || strings.Contains(def.ID, "/") {
		err = newDiscoveryError(def.ID, "", "endpoint id must be a single non-empty path segment")
		return
	}

	ep.ID = def.ID
	if d.caching != nil {
		ep.TimeToLive = d.caching(def.ID)
	}

	shapes := map[routeShape]string{}

	for _, op := range def.Operations {

		if op.invoke == nil {
			err = newDiscoveryError(def.ID, op.Name, "operation has no invoker")
			return
		}

		names := map[string]bool{}
		arity := 0
		for _, p := range op.Parameters {
			if p.Name == "" {
				err = newDiscoveryError(def.ID, op.Name, "parameter without a name")
				return
			}
			if names[p.Name] {
				err = newDiscoveryError(def.ID, op.Name, "parameter '%s' declared twice", p.Name)
				return
			}
			names[p.Name] = true
			if p.IsSelector() {
				if p.List {
					err = newDiscoveryError(def.ID, op.Name, "selector '%s' cannot be a list", p.Name)
					return
				}
				arity++
			}
		}

		shape := routeShape{op.Kind, arity}
		if other, ok := shapes[shape]; ok {
			err = newDiscoveryError(def.ID, op.Name,
				"ambiguous route: %s with %d selector(s) already declared by operation '%s'",
				op.Kind.Method(), arity, other)
			return
		}
		shapes[shape] = op.Name

		op.EndpointID = def.ID
		op.Parameters = append([]Parameter(nil), op.Parameters...)

		if op.Kind == OperationRead && len(op.Parameters) == 0 && ep.TimeToLive > 0 {
			op.invoke = newCachingInvoker(op.invoke, ep.TimeToLive)
		}

		ep.Operations = append(ep.Operations, op)
	}

	return
}
