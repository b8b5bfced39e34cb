package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

// Client calls the management endpoints of a remote actuator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(c *Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient targets baseURL, the scheme, host and management base path of the
// remote actuator, e.g. "https://svc:8443/actuator".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read calls the read operation of endpoint id with selectors and query and
// decodes a 200 response into out. It reports found=false on 404.
func (c *Client) Read(ctx convCtx.Context, out any, id string, selectors []string, query url.Values) (found bool, err error) {

	target := c.target(id, selectors)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return
	}

	res, err := c.do(ctx, req)
	if err != nil {
		return
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		found = true
		err = decodeInto(res.Body, out)
	case http.StatusNotFound:
		return
	default:
		err = parseRemoteError(ctx, req, res)
	}

	return
}

// Write calls the write operation of endpoint id with body encoded as a JSON
// object. A 200 response is decoded into out; 204 leaves out untouched.
func (c *Client) Write(ctx convCtx.Context, out any, id string, body map[string]any) (err error) {

	var payload io.Reader
	if body != nil {
		var raw []byte
		raw, err = json.Marshal(body)
		if err != nil {
			return
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target(id, nil), payload)
	if err != nil {
		return
	}
	req.Header.Set(httpHeaderContentType, contentTypeJSON)

	res, err := c.do(ctx, req)
	if err != nil {
		return
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		err = decodeInto(res.Body, out)
	case http.StatusNoContent:
	default:
		err = parseRemoteError(ctx, req, res)
	}

	return
}

func (c *Client) target(id string, selectors []string) string {
	sb := strings.Builder{}
	sb.WriteString(c.baseURL)
	sb.WriteRune('/')
	sb.WriteString(url.PathEscape(id))
	for _, s := range selectors {
		sb.WriteRune('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}

func (c *Client) do(ctx convCtx.Context, req *http.Request) (*http.Response, error) {

	err := setContextHttpHeaders(ctx, req)
	if err != nil {
		return nil, err
	}

	req.Header.Set(httpHeaderAccept, contentTypeJSON)

	return c.httpClient.Do(req)
}

func decodeInto(r io.Reader, out any) error {

	if out == nil {
		return nil
	}

	if raw, ok := out.(*[]byte); ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		*raw = b
		return nil
	}

	return json.NewDecoder(r).Decode(out)
}
