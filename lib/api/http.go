package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	convAuth "github.com/sofmon/actuator/lib/auth"
	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
)

const (
	contentTypeJSON = "application/json"
	contentTypeYAML = "application/yaml"

	httpHeaderAccept      = "Accept"
	httpHeaderContentType = "Content-Type"
)

func serveJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set(httpHeaderContentType, contentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func serveYAML(w http.ResponseWriter, status int, body any) error {

	// yaml.v3 does not know encoding/json tags; normalise through JSON first
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var generic any
	err = json.Unmarshal(raw, &generic)
	if err != nil {
		return err
	}

	w.Header().Set(httpHeaderContentType, contentTypeYAML)
	w.WriteHeader(status)

	enc := yaml.NewEncoder(w)
	defer enc.Close()

	return enc.Encode(generic)
}

// prefersYAML reports whether the Accept header ranks YAML above JSON.
func prefersYAML(r *http.Request) bool {

	accept := r.Header.Get(httpHeaderAccept)
	if accept == "" {
		return false
	}

	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case contentTypeYAML, "application/x-yaml", "text/yaml":
			return true
		case contentTypeJSON, "*/*", "application/*":
			return false
		}
	}

	return false
}

func setContextHttpHeaders(ctx convCtx.Context, r *http.Request) (err error) {

	r.Header.Add(convCtx.HttpHeaderWorkflow, string(ctx.Workflow()))
	r.Header.Add(convCtx.HttpHeaderAgent, string(ctx.Agent()))

	err = convAuth.EncodeHTTPRequestClaims(r, ctx.Claims())
	if errors.Is(err, convCfg.ErrNotConfigured) {
		// no secret, no signed claims
		err = nil
	}

	return
}
