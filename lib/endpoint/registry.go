package endpoint

import "sync/atomic"

// Registry holds the discovered endpoints by id.
//
// It is built by a single writer and frozen before serving; after Freeze
// every method is a read of immutable data and needs no locking.
type Registry struct {
	endpoints map[string]Endpoint
	order     []string
	frozen    atomic.Bool
}

func NewRegistry(eps ...Endpoint) (r *Registry, err error) {
	r = &Registry{endpoints: make(map[string]Endpoint)}
	for _, ep := range eps {
		err = r.Register(ep)
		if err != nil {
			return nil, err
		}
	}
	return
}

func (r *Registry) Register(ep Endpoint) error {

	if r.frozen.Load() {
		return ErrRegistryFrozen
	}

	if _, ok := r.endpoints[ep.ID]; ok {
		return newDiscoveryError(ep.ID, "", "endpoint already registered")
	}

	r.endpoints[ep.ID] = ep
	r.order = append(r.order, ep.ID)

	return nil
}

// Freeze ends the build phase. It is idempotent.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

func (r *Registry) Endpoint(id string) (ep Endpoint, ok bool) {
	ep, ok = r.endpoints[id]
	return
}

// Endpoints returns the endpoints in registration order.
func (r *Registry) Endpoints() []Endpoint {
	res := make([]Endpoint, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.endpoints[id])
	}
	return res
}

// Resolve finds the operation of endpoint id bound to method whose selector
// count equals len(selectors).
func (r *Registry) Resolve(id, method string, selectors []string) (op Operation, ok bool) {

	kind, ok := kindForMethod(method)
	if !ok {
		return
	}

	ep, ok := r.endpoints[id]
	if !ok {
		return
	}

	for _, candidate := range ep.Operations {
		if candidate.Kind != kind {
			continue
		}
		if len(candidate.Selectors()) == len(selectors) {
			return candidate, true
		}
	}

	return Operation{}, false
}
