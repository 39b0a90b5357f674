package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/routegate/routegate/apperr"
)

// clockSkew tolerated when validating exp/nbf/iat claims.
const clockSkew = 30 * time.Second

// allowedAlgorithms restricts verification to asymmetric signatures; a
// JWKS never justifies accepting HMAC tokens.
var allowedAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
	"EdDSA",
}

// Authenticator validates bearer tokens against a single JWKS source.
// The key set is cached and, for remote sources, refreshed in the
// background for the lifetime of the context passed to New.
type Authenticator struct {
	keys keyfunc.Keyfunc
}

// New builds an Authenticator from the configured JWKS source. A value
// starting with "http" is treated as a URL and fetched with automatic
// refresh; anything else is parsed as an inline JWKS JSON document.
// Failures are configuration errors: without key material no private
// route can be served.
func New(ctx context.Context, jwts string) (*Authenticator, error) {
	if strings.TrimSpace(jwts) == "" {
		return nil, apperr.Config("jwts source is empty")
	}
	if strings.HasPrefix(jwts, "http") {
		keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwts})
		if err != nil {
			return nil, apperr.Config("fetch JWKS from %s: %v", jwts, err)
		}
		return &Authenticator{keys: keys}, nil
	}
	keys, err := keyfunc.NewJWKSetJSON(json.RawMessage(jwts))
	if err != nil {
		return nil, apperr.Config("parse inline JWKS document: %v", err)
	}
	return &Authenticator{keys: keys}, nil
}

// Authenticate verifies the bearer token in header and extracts the
// request identity. Every failure mode is Unauthorized: missing header,
// wrong scheme, bad signature, expired token, unknown key.
func (a *Authenticator) Authenticate(header http.Header) (*Context, error) {
	raw, err := bearerToken(header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(raw, a.keys.Keyfunc,
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token.").WithCause(err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthorized("Invalid or expired token.")
	}

	subject, _ := claims.GetSubject()
	name, _ := claims["name"].(string)
	audience := ""
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		audience = aud[0]
	}
	scopes := splitScopes(claims["scope"])

	// An admin-scoped token may act on behalf of the subject named in
	// the personate header; everyone else has the header ignored.
	if slices.Contains(scopes, AdminScope) {
		if sub := header.Get(PersonateHeader); sub != "" {
			subject = sub
		}
	}

	return &Context{
		Subject:  subject,
		Name:     name,
		Audience: audience,
		Scopes:   scopes,
	}, nil
}

// bearerToken pulls the raw token out of an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthorized("Authorization header required.")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Unauthorized("Authorization header format must be Bearer {token}.")
	}
	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", apperr.Unauthorized("Authorization header format must be Bearer {token}.")
	}
	return raw, nil
}

// splitScopes turns the space-delimited scope claim into an ordered list.
func splitScopes(claim any) []string {
	s, _ := claim.(string)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
