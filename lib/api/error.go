package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

type ErrorCode string

const (
	ErrorCodeInternalError        ErrorCode = "internal_error"
	ErrorCodeNotFound             ErrorCode = "not_found"
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeForbidden            ErrorCode = "forbidden"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeUnexpectedStatusCode ErrorCode = "unexpected_status_code"
	ErrorCodeServiceUnavailable   ErrorCode = "service_unavailable"
	ErrorCodeRequestTooLarge      ErrorCode = "request_too_large"
)

func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return ErrorCodeNotFound
	case http.StatusBadRequest:
		return ErrorCodeBadRequest
	case http.StatusForbidden:
		return ErrorCodeForbidden
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusServiceUnavailable:
		return ErrorCodeServiceUnavailable
	case http.StatusRequestEntityTooLarge:
		return ErrorCodeRequestTooLarge
	case http.StatusInternalServerError:
		return ErrorCodeInternalError
	default:
		return ErrorCodeUnexpectedStatusCode
	}
}

func ErrorHasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

func NewError(ctx convCtx.Context, status int, code ErrorCode, message string, inner error) error {
	return newError(ctx, status, code, message, inner)
}

func newError(ctx convCtx.Context, status int, code ErrorCode, message string, inner error) (err *Error) {

	err = &Error{
		Status:  status,
		Code:    code,
		Message: message,
		Scope:   ctx.Scope(),
	}

	r := ctx.Request()
	if r != nil {
		err.Method = r.Method
		err.URL = r.URL.Path
	}
	if inner != nil {
		if apiErr, ok := inner.(*Error); ok {
			err.Inner = apiErr
		} else {
			err.Message += " → " + inner.Error()
		}
	}

	return
}

type Error struct {
	URL       string    `json:"url,omitempty"`
	Method    string    `json:"method,omitempty"`
	Status    int       `json:"status,omitempty"`
	Code      ErrorCode `json:"code,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Parameter string    `json:"parameter,omitempty"`
	Scope     string    `json:"scope,omitempty"`
	Message   string    `json:"message,omitempty"`
	Inner     *Error    `json:"inner,omitempty"`
}

func (e Error) Error() string {
	sb := strings.Builder{}
	sb.WriteString("✘ ")
	sb.WriteString(e.Method)
	sb.WriteRune(' ')
	sb.WriteString(e.URL)
	sb.WriteString(" → ")
	sb.WriteString(strconv.Itoa(e.Status))
	sb.WriteRune(' ')
	sb.WriteString(string(e.Code))
	if e.Endpoint != "" {
		sb.WriteString(" → ")
		sb.WriteString(e.Endpoint)
		if e.Operation != "" {
			sb.WriteRune('.')
			sb.WriteString(e.Operation)
		}
	}
	sb.WriteString(" → ")
	sb.WriteString(e.Message)
	if e.Inner != nil {
		sb.WriteString(" → ")
		sb.WriteString(e.Inner.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	if e.Inner == nil {
		return nil
	}
	return e.Inner
}

// errorForResult describes an unsuccessful dispatch outcome.
func errorForResult(ctx convCtx.Context, res endpoint.Result) (err *Error) {

	switch res.Outcome {
	case endpoint.OutcomeNotFound:
		err = newError(ctx, res.StatusCode(), ErrorCodeNotFound, "Endpoint not found", nil)
	case endpoint.OutcomeBadRequest:
		err = newError(ctx, res.StatusCode(), ErrorCodeBadRequest, "invalid request parameters", res.Err)
		var mf *endpoint.MappingFailure
		if errors.As(res.Err, &mf) {
			err.Parameter = mf.Parameter.Name
		}
	case endpoint.OutcomeForbidden:
		err = newError(ctx, res.StatusCode(), ErrorCodeForbidden, "origin is not allowed", nil)
	default:
		return nil
	}

	err.Endpoint = res.EndpointID
	err.Operation = res.Operation
	return
}

// errorForOperation keeps the status of an *Error returned by an operation;
// anything else is an internal error.
func errorForOperation(ctx convCtx.Context, res endpoint.Result, opErr error) (err *Error) {

	var apiErr *Error
	if errors.As(opErr, &apiErr) {
		err = apiErr
	} else {
		err = newError(ctx, http.StatusInternalServerError, ErrorCodeInternalError, "unexpected error", opErr)
	}

	if err.Endpoint == "" {
		err.Endpoint = res.EndpointID
		err.Operation = res.Operation
	}
	return
}

func ServeError(ctx convCtx.Context, w http.ResponseWriter, status int, code ErrorCode, message string, inner error) {
	serveError(w, newError(ctx, status, code, message, inner))
}

func serveError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(err)
}

func parseRemoteError(ctx convCtx.Context, req *http.Request, res *http.Response) (err error) {

	targetUrl := req.URL.Path
	targetMethod := req.Method

	inner := &Error{}
	if e := json.NewDecoder(res.Body).Decode(inner); e != nil ||
		inner.URL == "" || inner.Method == "" || inner.Status == 0 {
		inner = nil
	}

	// an error relayed from another call is returned as is
	if inner != nil && inner.URL != targetUrl && inner.Method != targetMethod {
		err = inner
		return
	}

	code := codeForStatus(res.StatusCode)
	if inner != nil {
		code = inner.Code
	}

	e := &Error{
		URL:     req.URL.Path,
		Method:  req.Method,
		Status:  res.StatusCode,
		Code:    code,
		Scope:   ctx.Scope(),
		Message: "unexpected status code: " + res.Status,
		Inner:   inner,
	}
	if inner != nil {
		e.Endpoint = inner.Endpoint
		e.Operation = inner.Operation
		e.Parameter = inner.Parameter
	}

	err = e

	return
}
