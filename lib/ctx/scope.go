package ctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	scopeSeparator = " → "
	scopeErrPrefix = "✘ "
)

// WithScope nests scope under the current one; args are key value pairs
// rendered the way slog renders them.
func (ctx Context) WithScope(scope string, args ...any) Context {

	scope = ctx.Scope() + scopeSeparator + scope

	if len(args) > 0 {
		scope += " {" + formatArgs(args...) + "}"
	}

	return ctx.with(contextKeyScope, scope)
}

func (ctx Context) Scope() string {
	scope, _ := ctx.Value(contextKeyScope).(string)
	return scope
}

func (ctx Context) wrapErr(err error) error {

	if err == nil {
		return nil
	}

	prefix := scopeErrPrefix + ctx.Scope()

	// already wrapped by a nested call sharing this scope
	if strings.HasPrefix(err.Error(), prefix) {
		return err
	}

	return fmt.Errorf("%s: %w", prefix, err)
}

// Exit wraps *errPtr with the current scope unless it is nil or matches
// one of except.
func (ctx Context) Exit(errPtr *error, except ...error) {
	if errPtr == nil || *errPtr == nil {
		return
	}
	for _, ex := range except {
		if errors.Is(*errPtr, ex) {
			return
		}
	}
	*errPtr = ctx.wrapErr(*errPtr)
	ctx.Logger().Debug("exiting scope", "error", (*errPtr).Error())
}

func formatArgs(args ...any) string {

	var buf bytes.Buffer

	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch a.Key {
				case slog.TimeKey, slog.LevelKey, slog.MessageKey:
					return slog.Attr{}
				}
			}
			return a
		},
	})

	slog.New(h).Log(context.Background(), slog.LevelInfo, "", args...)

	return strings.TrimSpace(buf.String())
}
