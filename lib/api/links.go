package api

import (
	"net/http"
	"strings"

	"github.com/sofmon/actuator/lib/endpoint"
)

type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated"`
}

type Links struct {
	Links map[string]Link `json:"_links"`
}

// linksFor lists every reachable operation path of eps. Operations with
// selectors are keyed "<id>-<selector>" and templated.
func linksFor(r *http.Request, basePath string, eps []endpoint.Endpoint) (res Links) {

	root := requestOrigin(r) + basePath

	res.Links = map[string]Link{
		"self": {Href: root},
	}

	for _, ep := range eps {
		for _, op := range ep.Operations {

			selectors := op.Selectors()

			name := ep.ID
			href := root + "/" + ep.ID
			for _, s := range selectors {
				name += "-" + s.Name
				href += "/{" + s.Name + "}"
			}

			if _, ok := res.Links[name]; ok {
				continue
			}

			res.Links[name] = Link{Href: href, Templated: len(selectors) > 0}
		}
	}

	return
}

func requestOrigin(r *http.Request) string {

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.ToLower(fwd)
	}

	return scheme + "://" + r.Host
}
