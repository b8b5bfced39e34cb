package api_test

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sofmon/actuator/lib/api"
	convAuth "github.com/sofmon/actuator/lib/auth"
	convCtx "github.com/sofmon/actuator/lib/ctx"
)

func TestClient(t *testing.T) {

	check, err := convAuth.NewCheck(convAuth.Policy{
		Roles: convAuth.RolePermissions{
			"operator": convAuth.Permissions{"all"},
		},
		Permissions: convAuth.PermissionActions{
			"all": convAuth.Actions{"* /actuator/{any...}"},
		},
	})
	if err != nil {
		t.Fatalf("NewCheck failed: %v", err)
	}

	srv := httptest.NewServer(api.NewHandler(convCtx.New("remote"), "", newTestDispatcher(t), api.WithCheck(check)))
	defer srv.Close()

	ctx := convCtx.New("test").WithClaims(convAuth.Claims{User: "ops", Roles: convAuth.Roles{"operator"}})
	client := api.NewClient(srv.URL+"/actuator/", api.WithHTTPClient(srv.Client()))

	var part map[string]string
	found, err := client.Read(ctx, &part, "test", []string{"foo.bar"}, nil)
	if err != nil || !found {
		t.Fatalf("Read failed: %v (found %v)", err, found)
	}
	if part["part"] != "foo.bar" {
		t.Errorf("part = %v", part)
	}

	var query map[string]string
	_, err = client.Read(ctx, &query, "query", nil, url.Values{"one": {"1", "1"}, "two": {"2"}})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if query["query"] != "1,1 2" {
		t.Errorf("query = %v", query)
	}

	found, err = client.Read(ctx, nil, "nullread", nil, nil)
	if err != nil || found {
		t.Errorf("expected not found without error, got %v (found %v)", err, found)
	}

	err = client.Write(ctx, nil, "test", map[string]any{"foo": "one"})
	if err != nil {
		t.Errorf("Write failed: %v", err)
	}

	var echo map[string]any
	err = client.Write(ctx, &echo, "echo", map[string]any{"name": "x", "count": 2})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if echo["name"] != "x" || echo["count"] != float64(2) {
		t.Errorf("echo = %v", echo)
	}

	_, err = client.Read(ctx, nil, "failing", nil, nil)
	if !api.ErrorHasCode(err, api.ErrorCodeServiceUnavailable) {
		t.Errorf("expected service_unavailable error, got %v", err)
	}

	_, err = client.Read(ctx, nil, "query", nil, url.Values{"two": {"two"}})
	if !api.ErrorHasCode(err, api.ErrorCodeBadRequest) {
		t.Errorf("expected bad_request error, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Endpoint != "query" || apiErr.Parameter != "two" {
		t.Errorf("expected the failing parameter to be reported, got %+v", apiErr)
	}

	anonymous := convCtx.New("test")
	_, err = client.Read(anonymous, nil, "test", nil, nil)
	if !api.ErrorHasCode(err, api.ErrorCodeForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}
