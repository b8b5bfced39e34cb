package endpoint

import (
	"net/http"
	"reflect"
)

const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)

// Resource is a raw byte payload. It is served as-is with an octet-stream
// content type instead of being serialized.
type Resource []byte

// Response lets an operation choose its own status and content type.
type Response struct {
	Status      int
	ContentType string
	Body        any
}

type Outcome int

const (
	OutcomeValue Outcome = iota
	OutcomeEmpty
	OutcomeNotFound
	OutcomeBadRequest
	OutcomePreflight
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValue:
		return "value"
	case OutcomeEmpty:
		return "empty"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomePreflight:
		return "preflight"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Result is the transport independent outcome of a dispatch.
type Result struct {
	Outcome     Outcome
	Value       any
	ContentType string
	Status      int
	Header      http.Header
	Err         error

	EndpointID string
	Operation  string
}

func (r Result) StatusCode() int {
	if r.Status != 0 {
		return r.Status
	}
	switch r.Outcome {
	case OutcomeValue, OutcomePreflight:
		return http.StatusOK
	case OutcomeEmpty:
		return http.StatusNoContent
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomeBadRequest:
		return http.StatusBadRequest
	case OutcomeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func translate(op Operation, value any) (res Result) {

	res.EndpointID = op.EndpointID
	res.Operation = op.Name

	if resp, ok := value.(*Response); ok && resp != nil {
		value = *resp
	}

	if resp, ok := value.(Response); ok {
		res.Status = resp.Status
		value = resp.Body
		if isNil(value) {
			res.Outcome = OutcomeEmpty
			if res.Status == 0 && op.Kind == OperationRead {
				res.Outcome = OutcomeNotFound
			}
			return
		}
		res.Outcome = OutcomeValue
		res.Value = value
		res.ContentType = contentTypeOf(value)
		if resp.ContentType != "" {
			res.ContentType = resp.ContentType
		}
		return
	}

	if isNil(value) {
		if op.Kind == OperationRead {
			res.Outcome = OutcomeNotFound
		} else {
			res.Outcome = OutcomeEmpty
		}
		return
	}

	res.Outcome = OutcomeValue
	res.Value = value
	res.ContentType = contentTypeOf(value)

	return
}

func contentTypeOf(value any) string {
	if _, ok := value.(Resource); ok {
		return ContentTypeOctetStream
	}
	return ContentTypeJSON
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
