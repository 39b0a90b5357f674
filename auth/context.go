// Package auth verifies bearer tokens against a JWKS source and carries
// the resulting identity through the request. Verification is delegated
// to golang-jwt with key material managed by keyfunc; this package owns
// claim extraction, the impersonation rule, and scope checks.
package auth

import (
	"slices"

	"github.com/routegate/routegate/apperr"
)

const (
	// AdminScope is the sentinel scope that lets a token act on behalf
	// of another subject via the PersonateHeader.
	AdminScope = "*:admin"

	// PersonateHeader names the trusted header carrying the subject an
	// admin-scoped token impersonates. Stripping it from untrusted
	// traffic is the ingress proxy's job.
	PersonateHeader = "x-personate-sub"
)

// Context is the per-request identity produced by the Authenticator.
// It is immutable once built; downstream handlers only read it.
type Context struct {
	Subject  string
	Name     string
	Audience string
	Scopes   []string
}

// HasScope reports whether the token carried the given scope.
func (c *Context) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

// RequireScope allows the request when required is empty or present in
// the context's scopes, and fails with a Forbidden error otherwise. It
// assumes authentication already succeeded.
func RequireScope(c *Context, required string) error {
	if required == "" {
		return nil
	}
	if c.HasScope(required) {
		return nil
	}
	return apperr.Forbidden("Insufficient scope.")
}
