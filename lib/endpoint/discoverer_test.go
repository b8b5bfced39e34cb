package endpoint_test

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

func noop(convCtx.Context, endpoint.Arguments) (any, error) {
	return "ok", nil
}

func TestDiscover(t *testing.T) {

	d := endpoint.NewDiscoverer()

	eps, err := d.Discover(
		newTestEndpoint(),
		endpoint.CandidateFunc(func() endpoint.Definition {
			return endpoint.Define("info", endpoint.Read("info", noop))
		}),
	)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(eps) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(eps))
	}
	if eps[0].ID != "test" || eps[1].ID != "info" {
		t.Errorf("unexpected endpoint order: %s, %s", eps[0].ID, eps[1].ID)
	}
	for _, op := range eps[0].Operations {
		if op.EndpointID != "test" {
			t.Errorf("operation %s not bound to its endpoint: %q", op.Name, op.EndpointID)
		}
	}

	methods := strings.Join(eps[0].AllowedMethods(), ",")
	if methods != "GET,POST" {
		t.Errorf("AllowedMethods = %s, want GET,POST", methods)
	}
}

func TestDiscoverFilter(t *testing.T) {

	d := endpoint.NewDiscoverer(endpoint.WithFilter(func(id string) bool {
		return id != "test"
	}))

	eps, err := d.Discover(
		newTestEndpoint(),
		endpoint.CandidateFunc(func() endpoint.Definition {
			return endpoint.Define("info", endpoint.Read("info", noop))
		}),
	)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(eps) != 1 || eps[0].ID != "info" {
		t.Errorf("expected only the info endpoint, got %v", eps)
	}
}

func TestDiscoverRejects(t *testing.T) {

	tests := map[string]endpoint.Definition{
		"empty id":       endpoint.Define("", endpoint.Read("read", noop)),
		"nested id":      endpoint.Define("a/b", endpoint.Read("read", noop)),
		"missing invoke": endpoint.Define("x", endpoint.Read("read", nil)),
		"unnamed param":  endpoint.Define("x", endpoint.Read("read", noop, endpoint.Param("", endpoint.TypeString))),
		"duplicate param": endpoint.Define("x", endpoint.Read("read", noop,
			endpoint.Param("a", endpoint.TypeString),
			endpoint.Param("a", endpoint.TypeString),
		)),
		"list selector": endpoint.Define("x", endpoint.Read("read", noop,
			endpoint.Parameter{Name: "a", Type: endpoint.TypeString, List: true, Source: endpoint.SourceSelector},
		)),
		"ambiguous route": endpoint.Define("x",
			endpoint.Read("first", noop, endpoint.Selector("a", endpoint.TypeString)),
			endpoint.Read("second", noop, endpoint.Selector("b", endpoint.TypeString), endpoint.Param("c", endpoint.TypeString)),
		),
	}

	for name, def := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := endpoint.NewDiscoverer().Discover(endpoint.CandidateFunc(func() endpoint.Definition {
				return def
			}))
			var derr *endpoint.DiscoveryError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DiscoveryError, got %v", err)
			}
			if derr.EndpointID != def.ID {
				t.Errorf("error names endpoint %q, want %q", derr.EndpointID, def.ID)
			}
		})
	}
}

func TestDiscoverDuplicateID(t *testing.T) {

	_, err := endpoint.NewDiscoverer().Discover(newTestEndpoint(), newTestEndpoint())

	var derr *endpoint.DiscoveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DiscoveryError, got %v", err)
	}
	if !strings.Contains(err.Error(), "endpoint 'test'") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestDiscoverCaching(t *testing.T) {

	var calls atomic.Int32

	candidate := endpoint.CandidateFunc(func() endpoint.Definition {
		return endpoint.Define("cached",
			endpoint.Read("read", func(convCtx.Context, endpoint.Arguments) (any, error) {
				return calls.Add(1), nil
			}),
			endpoint.Read("readPart", func(convCtx.Context, endpoint.Arguments) (any, error) {
				return calls.Add(1), nil
			}, endpoint.Selector("part", endpoint.TypeString)),
		)
	})

	eps, err := endpoint.NewDiscoverer(endpoint.WithCaching(func(id string) time.Duration {
		return time.Minute
	})).Discover(candidate)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	registry, err := endpoint.NewRegistry(eps...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	read, ok := registry.Resolve("cached", "GET", nil)
	if !ok {
		t.Fatalf("read not resolved")
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := convCtx.New("test").WithNow(start)

	first, _ := read.Invoke(ctx, endpoint.Arguments{})
	second, _ := read.Invoke(ctx.WithNow(start.Add(30*time.Second)), endpoint.Arguments{})
	if first != second {
		t.Errorf("expected cached response within time to live, got %v and %v", first, second)
	}

	third, _ := read.Invoke(ctx.WithNow(start.Add(2*time.Minute)), endpoint.Arguments{})
	if third == first {
		t.Errorf("expected fresh response after time to live")
	}

	part, _ := registry.Resolve("cached", "GET", []string{"a"})
	a, _ := part.Invoke(ctx, endpoint.Arguments{"part": "a"})
	b, _ := part.Invoke(ctx, endpoint.Arguments{"part": "a"})
	if a == b {
		t.Errorf("operations with parameters must not be cached")
	}
}
