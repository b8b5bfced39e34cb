package storage

import (
	"errors"
	"net/http"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

// NewEndpoint exposes the objects of s as management endpoint id:
//
//	GET  <id>         names of the stored objects
//	GET  <id>/{name}  raw content of one object
//	POST <id>         {"name": "..."} deletes one object
func NewEndpoint(id string, s *Storage) endpoint.Candidate {
	return endpoint.CandidateFunc(func() endpoint.Definition {
		return endpoint.Define(id,
			endpoint.Read("list", func(ctx convCtx.Context, _ endpoint.Arguments) (any, error) {
				return listObjects(ctx, s)
			}),
			endpoint.Read("load", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
				name, _ := args.String("name")
				return loadObject(ctx, s, name)
			}, endpoint.Selector("name", endpoint.TypeString)),
			endpoint.Write("delete", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
				name, ok := args.String("name")
				if !ok || name == "" {
					return endpoint.Response{Status: http.StatusBadRequest, Body: map[string]string{"error": "name is required"}}, nil
				}
				return nil, s.Delete(ctx, name)
			}, endpoint.Param("name", endpoint.TypeString)),
		)
	})
}

func listObjects(ctx convCtx.Context, s *Storage) (names []string, err error) {
	names, err = s.List(ctx)
	if names == nil {
		names = []string{}
	}
	return
}

func loadObject(ctx convCtx.Context, s *Storage, name string) (any, error) {
	data, err := s.Load(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return endpoint.Resource(data), nil
}
