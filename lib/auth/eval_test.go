package auth_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	convAuth "github.com/sofmon/actuator/lib/auth"
)

var (
	managementPolicy = convAuth.Policy{
		Roles: convAuth.RolePermissions{
			"operator": convAuth.Permissions{
				"read_endpoints",
				"write_endpoints",
			},
			"observer": convAuth.Permissions{
				"read_endpoints",
			},
			"self_service": convAuth.Permissions{
				"read_own_audit",
			},
		},
		Permissions: convAuth.PermissionActions{
			"read_endpoints": convAuth.Actions{
				"GET /actuator",
				"GET /actuator/{any...}",
			},
			"write_endpoints": convAuth.Actions{
				"POST /actuator/{any...}",
			},
			"read_own_audit": convAuth.Actions{
				"GET /actuator/auditevents/{user}",
			},
		},
		Public: convAuth.Actions{
			"GET /actuator/health",
			"GET /actuator/health/{any}",
		},
	}

	testData = []struct {
		name  string          // test case name
		user  convAuth.User   // authenticated user
		roles convAuth.Roles  // authenticated user assigned roles
		pass  []*http.Request // requests that should pass the access check
		block []*http.Request // requests that should be blocked by the access check
	}{
		{
			name:  "operator reads and writes every endpoint",
			user:  "ops",
			roles: convAuth.Roles{"operator"},
			pass: []*http.Request{
				{Method: "GET", URL: &url.URL{Path: "/actuator"}},
				{Method: "GET", URL: &url.URL{Path: "/actuator/heapdump"}},
				{Method: "GET", URL: &url.URL{Path: "/actuator/test/foo.bar"}},
				{Method: "POST", URL: &url.URL{Path: "/actuator/heapdump"}},
			},
			block: []*http.Request{
				{Method: "DELETE", URL: &url.URL{Path: "/actuator/heapdump"}},
				{Method: "GET", URL: &url.URL{Path: "/somewhere/else"}},
			},
		},
		{
			name:  "observer only reads",
			user:  "viewer",
			roles: convAuth.Roles{"observer"},
			pass: []*http.Request{
				{Method: "GET", URL: &url.URL{Path: "/actuator/auditevents"}},
			},
			block: []*http.Request{
				{Method: "POST", URL: &url.URL{Path: "/actuator/auditevents"}},
			},
		},
		{
			name:  "user bound segment matches own user only",
			user:  "alice",
			roles: convAuth.Roles{"self_service"},
			pass: []*http.Request{
				{Method: "GET", URL: &url.URL{Path: "/actuator/auditevents/alice"}},
			},
			block: []*http.Request{
				{Method: "GET", URL: &url.URL{Path: "/actuator/auditevents/bob"}},
				{Method: "GET", URL: &url.URL{Path: "/actuator/heapdump"}},
			},
		},
		{
			name:  "public health",
			user:  "nobody",
			roles: convAuth.Roles{"unknown"},
			pass: []*http.Request{
				{Method: "GET", URL: &url.URL{Path: "/actuator/health"}},
				{Method: "GET", URL: &url.URL{Path: "/actuator/health/db"}},
			},
			block: []*http.Request{
				{Method: "GET", URL: &url.URL{Path: "/actuator/health/db/extra"}},
			},
		},
	}
)

func TestCheck(t *testing.T) {

	check, err := convAuth.NewCheck(managementPolicy)
	if err != nil {
		t.Fatalf("NewCheck failed: %v", err)
	}

	for _, td := range testData {

		claims := convAuth.Claims{
			User:  td.user,
			Roles: td.roles,
		}

		for _, req := range td.pass {
			req.Header = make(http.Header)
			err = convAuth.EncodeHTTPRequestClaims(req, claims)
			if err != nil {
				t.Fatalf("EncodeHTTPRequestClaims failed: %v", err)
			}
			_, err = check(req)
			if err != nil {
				t.Fatalf("%s\n%s %s: endpoint blocked: %v", td.name, req.Method, req.URL.Path, err)
			}
		}

		for _, req := range td.block {
			req.Header = make(http.Header)
			err = convAuth.EncodeHTTPRequestClaims(req, claims)
			if err != nil {
				t.Fatalf("EncodeHTTPRequestClaims failed: %v", err)
			}
			_, err = check(req)
			if err == nil {
				t.Fatalf("%s\n%s %s: endpoint allowed", td.name, req.Method, req.URL.Path)
			}
		}
	}
}

func TestCheckWithoutToken(t *testing.T) {

	check, err := convAuth.NewCheck(managementPolicy)
	if err != nil {
		t.Fatalf("NewCheck failed: %v", err)
	}

	public := &http.Request{Method: "GET", URL: &url.URL{Path: "/actuator/health"}, Header: http.Header{}}
	if _, err := check(public); err != nil {
		t.Errorf("expected public action to pass without token, got %v", err)
	}

	protected := &http.Request{Method: "GET", URL: &url.URL{Path: "/actuator/heapdump"}, Header: http.Header{}}
	if _, err := check(protected); !errors.Is(err, convAuth.ErrMissingAuthorizationHeader) {
		t.Errorf("expected ErrMissingAuthorizationHeader, got %v", err)
	}

	forged := &http.Request{Method: "GET", URL: &url.URL{Path: "/actuator/heapdump"}, Header: http.Header{}}
	forged.Header.Set(convAuth.HttpHeaderAuthorization, "Bearer not-a-token")
	if _, err := check(forged); !errors.Is(err, convAuth.ErrInvalidAuthorizationToken) {
		t.Errorf("expected ErrInvalidAuthorizationToken, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {

	token, err := convAuth.GenerateToken(convAuth.Claims{
		User:      "ops",
		Roles:     convAuth.Roles{"operator", "observer"},
		Additions: map[string]any{"team": "platform"},
	})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := convAuth.DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken failed: %v", err)
	}

	if claims.User != "ops" || !claims.Roles.Has("observer") || claims.Additions["team"] != "platform" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestExpiredToken(t *testing.T) {

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": "ops",
		"exp":  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	_, err = convAuth.DecodeToken(signed)
	if !errors.Is(err, convAuth.ErrInvalidAuthorizationToken) || !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenSigningMethod(t *testing.T) {

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user": "ops"})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err = convAuth.DecodeToken(unsigned); !errors.Is(err, convAuth.ErrInvalidAuthorizationToken) {
		t.Errorf("expected unsigned token to be rejected, got %v", err)
	}
}
