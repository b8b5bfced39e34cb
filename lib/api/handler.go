package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"strings"
	"time"

	convAuth "github.com/sofmon/actuator/lib/auth"
	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

const (
	DefaultBasePath = "/actuator"

	MaxBodyBytes = 1 << 20
)

type HandlerOption func(h *httpHandler)

// WithCheck authorises every non preflight request with check.
func WithCheck(check convAuth.Check) HandlerOption {
	return func(h *httpHandler) {
		h.check = check
	}
}

func WithLogCalls(logCalls bool) HandlerOption {
	return func(h *httpHandler) {
		h.logCalls = logCalls
	}
}

func WithMetrics(m *Metrics) HandlerOption {
	return func(h *httpHandler) {
		h.metrics = m
	}
}

// NewHandler serves the endpoints of dispatcher under basePath.
func NewHandler(ctx convCtx.Context, basePath string, dispatcher *endpoint.Dispatcher, opts ...HandlerOption) http.Handler {

	if basePath == "" {
		basePath = DefaultBasePath
	}
	basePath = "/" + strings.Trim(basePath, "/")
	if basePath == "/" {
		basePath = ""
	}

	h := &httpHandler{
		ctx:        ctx,
		basePath:   basePath,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

type httpHandler struct {
	ctx        convCtx.Context
	basePath   string
	dispatcher *endpoint.Dispatcher
	check      convAuth.Check
	logCalls   bool
	metrics    *Metrics
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	// cancelled when the caller goes away or the server shuts the request down
	ctx, cancel := h.ctx.
		WithRequest(r).
		WithDone(r.Context())
	defer cancel()

	if r.Method != http.MethodOptions && h.check != nil {
		_, err := h.check(r)
		if err != nil {
			switch {
			case errors.Is(err, convAuth.ErrMissingRequest):
				ServeError(ctx, w, http.StatusBadRequest, ErrorCodeBadRequest, "missing http request", err)
				return
			case errors.Is(err, convAuth.ErrForbidden),
				errors.Is(err, convAuth.ErrMissingAuthorizationHeader),
				errors.Is(err, convAuth.ErrInvalidAuthorizationToken):
				ServeError(ctx, w, http.StatusForbidden, ErrorCodeForbidden, "missing or wrong authentication token", err)
				return
			default:
				ServeError(ctx, w, http.StatusUnauthorized, ErrorCodeUnauthorized, "unexpected error", err)
				return
			}
		}
	}

	if h.logCalls {
		logCall(ctx, w, r, func(w http.ResponseWriter, r *http.Request) {
			h.serve(ctx, w, r)
		})
	} else {
		h.serve(ctx, w, r)
	}
}

func (h *httpHandler) serve(ctx convCtx.Context, w http.ResponseWriter, r *http.Request) {

	rel, ok := h.relativePath(r.URL.Path)
	if !ok {
		ServeError(ctx, w, http.StatusNotFound, ErrorCodeNotFound, "Endpoint not found", nil)
		return
	}

	if strings.Trim(rel, "/") == "" && r.Method == http.MethodGet {
		h.serveValue(w, r, http.StatusOK, linksFor(r, h.basePath, h.dispatcher.Registry().Endpoints()))
		return
	}

	req := endpoint.Request{
		Method:         r.Method,
		Path:           rel,
		Query:          r.URL.Query(),
		Accept:         r.Header.Get(httpHeaderAccept),
		ContentType:    r.Header.Get(httpHeaderContentType),
		Origin:         r.Header.Get(endpoint.HeaderOrigin),
		RequestHeaders: r.Header.Get(endpoint.HeaderAccessControlReqHeaders),
	}

	if r.Method == http.MethodPost {
		body, err := readBody(w, r)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ServeError(ctx, w, http.StatusRequestEntityTooLarge, ErrorCodeRequestTooLarge, "request body is too large", err)
			return
		}
		if err != nil {
			ServeError(ctx, w, http.StatusBadRequest, ErrorCodeBadRequest, "request body is not a JSON object", err)
			return
		}
		req.Body = body
	}

	rec := &statusRecorder{ResponseWriter: w}
	defer h.metrics.begin()()
	start := time.Now()

	res, err := h.dispatcher.Dispatch(ctx, req)
	if err != nil {
		copyHeader(rec, res.Header)
		serveError(rec, errorForOperation(ctx, res, err))
	} else {
		h.serveResult(ctx, rec, r, res)
	}

	h.metrics.observe(h.endpointLabel(res.EndpointID), r.Method, rec.status, time.Since(start))
}

// endpointLabel only lets registered ids into metric labels.
func (h *httpHandler) endpointLabel(id string) string {
	if _, ok := h.dispatcher.Registry().Endpoint(id); !ok {
		return unknownLabel
	}
	return id
}

func (h *httpHandler) relativePath(path string) (string, bool) {
	if !strings.HasPrefix(path, h.basePath) {
		return "", false
	}
	rel := strings.TrimPrefix(path, h.basePath)
	if rel != "" && !strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}

// readBody decodes a JSON object body of at most MaxBodyBytes; an empty
// body has no fields.
func readBody(w http.ResponseWriter, r *http.Request) (body map[string]any, err error) {

	if r.Body == nil {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}

	err = json.Unmarshal(raw, &body)

	return
}

func copyHeader(w http.ResponseWriter, header http.Header) {
	for k, vv := range header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
}

func (h *httpHandler) serveResult(ctx convCtx.Context, w http.ResponseWriter, r *http.Request, res endpoint.Result) {

	copyHeader(w, res.Header)

	if err := errorForResult(ctx, res); err != nil {
		serveError(w, err)
		return
	}

	status := res.StatusCode()

	switch res.Outcome {

	case endpoint.OutcomeEmpty, endpoint.OutcomePreflight:
		w.WriteHeader(status)

	default:
		err := h.serveRaw(w, status, res)
		if err == errNotRaw {
			err = h.serveValue(w, r, status, res.Value)
		}
		if err != nil {
			ctx.Logger().Warn("failed to write response", "endpoint", res.EndpointID, "error", err)
		}
	}
}

var errNotRaw = errors.New("value is not raw content")

func (h *httpHandler) serveRaw(w http.ResponseWriter, status int, res endpoint.Result) error {

	var raw []byte
	switch v := res.Value.(type) {
	case endpoint.Resource:
		raw = v
	case []byte:
		if res.ContentType == endpoint.ContentTypeJSON {
			return errNotRaw
		}
		raw = v
	case string:
		if res.ContentType == endpoint.ContentTypeJSON {
			return errNotRaw
		}
		raw = []byte(v)
	default:
		return errNotRaw
	}

	w.Header().Set(httpHeaderContentType, res.ContentType)
	w.WriteHeader(status)
	_, err := w.Write(raw)

	return err
}

func (h *httpHandler) serveValue(w http.ResponseWriter, r *http.Request, status int, value any) error {
	if prefersYAML(r) {
		return serveYAML(w, status, value)
	}
	return serveJSON(w, status, value)
}

func logCall(ctx convCtx.Context, w http.ResponseWriter, r *http.Request, handle func(w http.ResponseWriter, r *http.Request)) {

	logger := ctx.Logger()
	if logger == nil {
		handle(w, r)
		return
	}

	rec := httptest.NewRecorder()

	// temporary hide the Authorization header while we dump the request
	authHeader := r.Header.Get(convAuth.HttpHeaderAuthorization)
	if authHeader != "" {
		l := len(authHeader) - 10
		if l < 0 {
			l = len(authHeader)
		}
		r.Header.Set(convAuth.HttpHeaderAuthorization, "..."+authHeader[l:])
	}

	reqDump, err := httputil.DumpRequest(r, isTextContent(r.Header.Get(httpHeaderContentType)))
	if err != nil {
		logger.Warn("error dumping request for logging", "error", err)
		return
	}

	reqHeaderAttrs := headersToAttrs(r.Header)

	if authHeader != "" {
		r.Header.Set(convAuth.HttpHeaderAuthorization, authHeader)
	}

	handle(rec, r)

	res := rec.Result()

	resDump, err := httputil.DumpResponse(res, isTextContent(res.Header.Get(httpHeaderContentType)))
	if err != nil {
		logger.Warn("error dumping response for logging", "error", err)
		return
	}

	for k, v := range res.Header {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}

	w.WriteHeader(res.StatusCode)

	if res.Body != nil {
		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			logger.Warn("error reading response body after logging", "error", err)
			return
		}
		_, err = w.Write(resBody)
		if err != nil {
			logger.Warn("error writing response body after logging", "error", err)
			return
		}
	}

	logger.
		With(
			"request", string(reqDump),
			"response", string(resDump),
			slog.Group("headers",
				slog.Group("request", reqHeaderAttrs...),
				slog.Group("response", headersToAttrs(res.Header)...),
			),
		).
		Info("management call")
}

func isTextContent(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(mediaType) {
	case contentTypeJSON, contentTypeYAML, "application/xml", "text/plain", "text/html":
		return true
	default:
		return false
	}
}

func headersToAttrs(headers http.Header) []any {
	var attrs []any
	for name, values := range headers {
		attrs = append(attrs, name, strings.Join(values, ", "))
	}
	return attrs
}
