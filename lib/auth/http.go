package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	convCfg "github.com/sofmon/actuator/lib/cfg"
)

const (
	HttpHeaderAuthorization = "Authorization"

	bearerPrefix = "Bearer "

	// TokenIssuer marks tokens generated by GenerateToken.
	TokenIssuer = "actuator"

	DefaultTokenTTL = time.Hour

	configKeySecret   convCfg.ConfigKey = "management_secret"
	configKeyTokenTTL convCfg.ConfigKey = "management_token_ttl"
)

var (
	hmacSecret []byte
	hmacMutex  sync.Mutex

	ErrMissingRequest             = errors.New("HTTP request is nil")
	ErrMissingAuthorizationHeader = errors.New("HTTP request has no valid Bearer authentication; expecting header like 'Authorization: Bearer <token>'")
	ErrInvalidAuthorizationToken  = errors.New("HTTP request has invalid bearer token")

	registeredClaims = map[string]bool{
		claimUser:  true,
		claimRoles: true,
		"iss":      true,
		"iat":      true,
		"exp":      true,
	}
)

func getHmacSecret() ([]byte, error) {

	hmacMutex.Lock()
	defer hmacMutex.Unlock()

	if hmacSecret != nil {
		return hmacSecret, nil
	}

	secret, err := convCfg.Bytes(configKeySecret)
	if err != nil {
		return nil, err
	}

	hmacSecret = secret

	return hmacSecret, nil
}

// tokenTTL reads "management_token_ttl" as a Go duration.
func tokenTTL() time.Duration {
	ttl, err := time.ParseDuration(convCfg.StringOrDefault(configKeyTokenTTL, ""))
	if err != nil || ttl <= 0 {
		return DefaultTokenTTL
	}
	return ttl
}

func DecodeHTTPRequestClaims(r *http.Request) (res Claims, err error) {

	if r == nil {
		err = ErrMissingRequest
		return
	}

	token, ok := strings.CutPrefix(r.Header.Get(HttpHeaderAuthorization), bearerPrefix)
	if !ok || token == "" {
		err = ErrMissingAuthorizationHeader
		return
	}

	return DecodeToken(token)
}

func EncodeHTTPRequestClaims(r *http.Request, claims Claims) error {

	token, err := GenerateToken(claims)
	if err != nil {
		return err
	}

	r.Header.Set(HttpHeaderAuthorization, bearerPrefix+token)

	return nil
}

// GenerateToken signs claims with the management secret; the token expires
// after "management_token_ttl" (one hour by default).
func GenerateToken(claims Claims) (string, error) {

	hmac, err := getHmacSecret()
	if err != nil {
		return "", err
	}

	rawClaims := jwt.MapClaims{}
	for k, v := range claims.Additions {
		if !registeredClaims[k] {
			rawClaims[k] = v
		}
	}

	now := time.Now()

	rawClaims[claimUser] = string(claims.User)
	rawClaims[claimRoles] = claims.Roles
	rawClaims["iss"] = TokenIssuer
	rawClaims["iat"] = jwt.NewNumericDate(now)
	rawClaims["exp"] = jwt.NewNumericDate(now.Add(tokenTTL()))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, rawClaims).SignedString(hmac)
}

// DecodeToken accepts HMAC signed tokens only and rejects expired ones.
func DecodeToken(tokenString string) (res Claims, err error) {

	hmac, err := getHmacSecret()
	if err != nil {
		return
	}

	token, err := jwt.Parse(tokenString,
		func(*jwt.Token) (any, error) { return hmac, nil },
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidAuthorizationToken, err)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		err = ErrInvalidAuthorizationToken
		return
	}

	if user, ok := claims[claimUser].(string); ok {
		res.User = User(user)
	}

	if roles, ok := claims[claimRoles].([]any); ok {
		res.Roles = make(Roles, 0, len(roles))
		for _, role := range roles {
			if s, ok := role.(string); ok {
				res.Roles = append(res.Roles, Role(s))
			}
		}
	}

	for k, v := range claims {
		if registeredClaims[k] {
			continue
		}
		if res.Additions == nil {
			res.Additions = make(map[string]any)
		}
		res.Additions[k] = v
	}

	return
}
