package actuate

import (
	"net/http"
	"sort"
	"sync"

	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

type Status string

const (
	StatusUp           Status = "UP"
	StatusDown         Status = "DOWN"
	StatusOutOfService Status = "OUT_OF_SERVICE"
	StatusUnknown      Status = "UNKNOWN"

	configKeyHealthStatusMapping convCfg.ConfigKey = "health_status_mapping"
)

type Health struct {
	Status  Status         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

func Up() Health {
	return Health{Status: StatusUp}
}

func Down(err error) Health {
	h := Health{Status: StatusDown}
	if err != nil {
		h.Details = map[string]any{"error": err.Error()}
	}
	return h
}

func (h Health) WithDetail(key string, value any) Health {
	details := make(map[string]any, len(h.Details)+1)
	for k, v := range h.Details {
		details[k] = v
	}
	details[key] = value
	h.Details = details
	return h
}

type Indicator interface {
	Health(ctx convCtx.Context) Health
}

type IndicatorFunc func(ctx convCtx.Context) Health

func (f IndicatorFunc) Health(ctx convCtx.Context) Health {
	return f(ctx)
}

// CheckIndicator reports UP when check succeeds and DOWN with the error
// otherwise.
func CheckIndicator(check func(ctx convCtx.Context) error) Indicator {
	return IndicatorFunc(func(ctx convCtx.Context) Health {
		if err := check(ctx); err != nil {
			return Down(err)
		}
		return Up()
	})
}

// DefaultStatusOrder ranks statuses from most to least severe.
var DefaultStatusOrder = []Status{StatusDown, StatusOutOfService, StatusUp, StatusUnknown}

// Aggregate returns the most severe of statuses according to order.
// Statuses missing from order rank after every ordered one; no statuses
// aggregate to UNKNOWN.
func Aggregate(order []Status, statuses ...Status) Status {

	if len(statuses) == 0 {
		return StatusUnknown
	}

	rank := func(s Status) int {
		for i, o := range order {
			if o == s {
				return i
			}
		}
		return len(order)
	}

	sorted := append([]Status(nil), statuses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})

	return sorted[0]
}

// StatusMapping maps a health status to the HTTP status it is served with.
// Unmapped statuses are served with 200.
type StatusMapping map[Status]int

func DefaultStatusMapping() StatusMapping {
	return StatusMapping{
		StatusDown:         http.StatusServiceUnavailable,
		StatusOutOfService: http.StatusServiceUnavailable,
	}
}

func (m StatusMapping) StatusCode(s Status) int {
	if code, ok := m[s]; ok {
		return code
	}
	return http.StatusOK
}

type HealthOption func(h *HealthEndpoint)

func WithStatusOrder(order ...Status) HealthOption {
	return func(h *HealthEndpoint) {
		h.order = order
	}
}

// WithStatusMapping overrides single entries of the default mapping.
func WithStatusMapping(mapping StatusMapping) HealthOption {
	return func(h *HealthEndpoint) {
		for s, code := range mapping {
			h.mapping[s] = code
		}
	}
}

// HealthEndpoint aggregates the registered indicators.
type HealthEndpoint struct {
	mu         sync.RWMutex
	names      []string
	indicators map[string]Indicator

	order   []Status
	mapping StatusMapping
}

// NewHealthEndpoint applies "health_status_mapping" from configuration
// before opts.
func NewHealthEndpoint(opts ...HealthOption) *HealthEndpoint {

	h := &HealthEndpoint{
		indicators: map[string]Indicator{},
		order:      DefaultStatusOrder,
		mapping:    DefaultStatusMapping(),
	}

	if configured, err := convCfg.Object[StatusMapping](configKeyHealthStatusMapping); err == nil {
		WithStatusMapping(configured)(h)
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register adds or replaces the indicator of component name.
func (h *HealthEndpoint) Register(name string, indicator Indicator) *HealthEndpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.indicators[name]; !ok {
		h.names = append(h.names, name)
	}
	h.indicators[name] = indicator
	return h
}

// Health evaluates every indicator in registration order.
func (h *HealthEndpoint) Health(ctx convCtx.Context) Health {

	h.mu.RLock()
	names := append([]string(nil), h.names...)
	indicators := make([]Indicator, len(names))
	for i, name := range names {
		indicators[i] = h.indicators[name]
	}
	h.mu.RUnlock()

	if len(names) == 0 {
		return Up()
	}

	details := make(map[string]any, len(names))
	statuses := make([]Status, 0, len(names))

	for i, name := range names {
		component := evaluate(ctx, name, indicators[i])
		details[name] = component
		statuses = append(statuses, component.Status)
	}

	return Health{
		Status:  Aggregate(h.order, statuses...),
		Details: details,
	}
}

// Component evaluates one indicator; ok is false for unknown components.
func (h *HealthEndpoint) Component(ctx convCtx.Context, name string) (res Health, ok bool) {

	h.mu.RLock()
	indicator, ok := h.indicators[name]
	h.mu.RUnlock()

	if !ok {
		return
	}

	return evaluate(ctx, name, indicator), true
}

func evaluate(ctx convCtx.Context, name string, indicator Indicator) (res Health) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Logger().Error("health indicator panicked", "component", name, "panic", r)
			res = Health{Status: StatusDown, Details: map[string]any{"error": "indicator panicked"}}
		}
	}()

	res = indicator.Health(ctx)
	if res.Status == "" {
		res.Status = StatusUnknown
	}
	if res.Status != StatusUp {
		ctx.Logger().Warn("component is not healthy", "component", name, "status", res.Status)
	}
	return
}

func (h *HealthEndpoint) Endpoint() endpoint.Definition {
	return endpoint.Define(IDHealth,
		endpoint.Read("health", func(ctx convCtx.Context, _ endpoint.Arguments) (any, error) {
			health := h.Health(ctx)
			return &endpoint.Response{Status: h.mapping.StatusCode(health.Status), Body: health}, nil
		}),
		endpoint.Read("healthForComponent", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
			name, _ := args.String("component")
			health, ok := h.Component(ctx, name)
			if !ok {
				return nil, nil
			}
			return &endpoint.Response{Status: h.mapping.StatusCode(health.Status), Body: health}, nil
		}, endpoint.Selector("component", endpoint.TypeString)),
	)
}
