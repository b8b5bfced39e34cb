package endpoint

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRegistryFrozen = errors.New("registry is frozen; endpoints can only be registered before the first dispatch")
)

// DiscoveryError reports an endpoint declaration that cannot be routed.
// It is fatal at startup.
type DiscoveryError struct {
	EndpointID string
	Operation  string
	Reason     string
}

func (e *DiscoveryError) Error() string {
	sb := strings.Builder{}
	sb.WriteString("✘ endpoint '")
	sb.WriteString(e.EndpointID)
	sb.WriteRune('\'')
	if e.Operation != "" {
		sb.WriteString(" → operation '")
		sb.WriteString(e.Operation)
		sb.WriteRune('\'')
	}
	sb.WriteString(" → ")
	sb.WriteString(e.Reason)
	return sb.String()
}

func newDiscoveryError(id, op, format string, a ...any) *DiscoveryError {
	return &DiscoveryError{
		EndpointID: id,
		Operation:  op,
		Reason:     fmt.Sprintf(format, a...),
	}
}

// MappingFailure reports a present request value that cannot be coerced to
// the declared parameter type.
type MappingFailure struct {
	Parameter Parameter
	Value     any
	Err       error
}

func (e *MappingFailure) Error() string {
	return fmt.Sprintf("failed to map parameter '%s' value %q to %s: %v",
		e.Parameter.Name, fmt.Sprint(e.Value), e.Parameter.typeName(), e.Err)
}

func (e *MappingFailure) Unwrap() error {
	return e.Err
}

func (p Parameter) typeName() string {
	if p.List {
		return "list of " + string(p.Type)
	}
	return string(p.Type)
}
