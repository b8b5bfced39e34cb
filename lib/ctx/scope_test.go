package ctx_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

var errSentinel = errors.New("sentinel")

func scoped(ctx convCtx.Context, fail error) (err error) {
	ctx = ctx.WithScope("scoped", "id", "health", "size", 3)
	defer ctx.Exit(&err, errSentinel)

	err = fail
	return
}

func TestExit(t *testing.T) {

	ctx := convCtx.New("test")

	err := scoped(ctx, errors.New("boom"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.HasPrefix(err.Error(), "✘ test → scoped {id=health size=3}: boom") {
		t.Errorf("unexpected error: %s", err)
	}

	err = scoped(ctx, errSentinel)
	if err != errSentinel {
		t.Errorf("expected excepted error to stay unwrapped, got %v", err)
	}

	if scoped(ctx, nil) != nil {
		t.Errorf("expected nil error")
	}
}

func TestScope(t *testing.T) {

	ctx := convCtx.New("test")

	tests := map[string]struct {
		args []any
		want string
	}{
		"no args":     {nil, "test → op"},
		"plain":       {[]any{"id", "health"}, "test → op {id=health}"},
		"quoted":      {[]any{"name", "two words"}, `test → op {name="two words"}`},
		"missing key": {[]any{42}, "test → op {!BADKEY=42}"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ctx.WithScope("op", tt.args...).Scope(); got != tt.want {
				t.Errorf("Scope = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithDone(t *testing.T) {

	ctx := convCtx.New("test").WithWorkflow("wf-1")

	parent, cancelParent := context.WithCancel(context.Background())

	bound, cancel := ctx.WithDone(parent)
	defer cancel()

	if bound.Workflow() != "wf-1" {
		t.Errorf("expected values to be kept, got workflow '%s'", bound.Workflow())
	}

	cancelParent()

	select {
	case <-bound.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected bound context to be cancelled with its parent")
	}
}

func TestNow(t *testing.T) {

	fixed := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	ctx := convCtx.New("test").WithNow(fixed)
	if !ctx.Now().Equal(fixed) {
		t.Errorf("expected %s, got %s", fixed, ctx.Now())
	}
}
