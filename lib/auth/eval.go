package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrForbidden = errors.New("authenticated user has no permission to access the requested resource")
)

type allowedAction struct {
	method  string
	path    allowedPath
	openEnd bool
	role    Role
}

type allowedActions []allowedAction

// Check authorises a request and returns the claims it was authorised with.
// Public actions return empty claims.
type Check func(r *http.Request) (Claims, error)

func NewCheck(policy Policy) (check Check, err error) {

	var protected, public allowedActions

	for role, permissions := range policy.Roles {
		for _, permission := range permissions {
			for _, a := range policy.Permissions[permission] {
				var aa allowedAction
				aa, err = generateAllowedAction(a)
				if err != nil {
					return
				}
				aa.role = role
				protected = append(protected, aa)
			}
		}
	}

	for _, a := range policy.Public {
		var aa allowedAction
		aa, err = generateAllowedAction(a)
		if err != nil {
			return
		}
		public = append(public, aa)
	}

	check = func(r *http.Request) (Claims, error) {

		if r == nil {
			return Claims{}, ErrMissingRequest
		}

		segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		if public.match(r.Method, segments, Claims{}, false) {
			return Claims{}, nil
		}

		claims, err := DecodeHTTPRequestClaims(r)
		if err != nil {
			return Claims{}, err
		}

		if protected.match(r.Method, segments, claims, true) {
			return claims, nil
		}

		return claims, ErrForbidden
	}

	return
}

func generateAllowedAction(a Action) (res allowedAction, err error) {

	method, path, err := a.MethodPath()
	if err != nil {
		return
	}

	segments := strings.Split(path, "/")

	openEnd := strings.HasSuffix(path, "{any...}")
	if openEnd {
		segments = segments[:len(segments)-1]
	}

	allowedPath := make(allowedPath, len(segments))

	for i, segment := range segments {
		switch segment {
		case "{any}":
			allowedPath[i] = allowedSegmentAny{}
		case "{user}":
			allowedPath[i] = allowedSegmentUser{}
		default:
			allowedPath[i] = allowedSegmentFixed(segment)
		}
	}

	res = allowedAction{method: method, path: allowedPath, openEnd: openEnd}

	return
}

func (as allowedActions) match(method string, segments []string, claims Claims, checkRole bool) bool {
	for _, a := range as {
		if checkRole && !claims.Roles.Has(a.role) {
			continue
		}
		if a.match(method, segments, claims) {
			return true
		}
	}
	return false
}

func (a allowedAction) match(method string, segments []string, claims Claims) bool {

	if a.method != method && a.method != "*" {
		return false
	}

	if a.openEnd {
		if len(a.path) > len(segments) {
			return false
		}
		return a.path.match(segments[:len(a.path)], claims)
	}

	return a.path.match(segments, claims)
}

type allowedPath []allowedSegment

func (p allowedPath) match(segments []string, claims Claims) bool {
	if len(p) != len(segments) {
		return false
	}
	for i := range p {
		if !p[i].Match(segments[i], claims) {
			return false
		}
	}
	return true
}

type allowedSegment interface {
	Match(segment string, claims Claims) bool
}

type allowedSegmentFixed string

func (s allowedSegmentFixed) Match(segment string, claims Claims) bool {
	return string(s) == segment
}

type allowedSegmentAny struct{}

func (s allowedSegmentAny) Match(segment string, claims Claims) bool {
	return true
}

type allowedSegmentUser struct{}

func (s allowedSegmentUser) Match(segment string, claims Claims) bool {
	return claims.User != "" && claims.User == User(segment)
}
