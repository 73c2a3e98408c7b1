package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// Role determines the permission tier of a credential.
type Role string

const (
	// RoleMember may read the activation decision.
	RoleMember Role = "member"
	// RoleAdmin may additionally mutate it.
	RoleAdmin Role = "admin"
)

var (
	// ErrUnauthorized indicates a missing, malformed, or unknown credential.
	ErrUnauthorized = errors.New("missing or invalid credential")
	// ErrForbidden indicates a known credential with insufficient scope.
	ErrForbidden = errors.New("admin privileges required")
)

// Credential is a caller identity with its role scope.
type Credential struct {
	Token string
	Role  Role
}

// TokenSet is the injected set of known credentials. It is immutable after
// construction; lookups compare tokens in constant time.
type TokenSet struct {
	creds []Credential
}

// NewTokenSet builds a TokenSet from member and admin token lists.
// Empty tokens are skipped.
func NewTokenSet(memberTokens, adminTokens []string) *TokenSet {
	ts := &TokenSet{}
	for _, token := range memberTokens {
		if token != "" {
			ts.creds = append(ts.creds, Credential{Token: token, Role: RoleMember})
		}
	}
	for _, token := range adminTokens {
		if token != "" {
			ts.creds = append(ts.creds, Credential{Token: token, Role: RoleAdmin})
		}
	}
	return ts
}

// Authenticate resolves a bearer token to a credential. Unknown or empty
// tokens fail with ErrUnauthorized.
func (ts *TokenSet) Authenticate(token string) (*Credential, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	for i := range ts.creds {
		if subtle.ConstantTimeCompare([]byte(ts.creds[i].Token), []byte(token)) == 1 {
			cred := ts.creds[i]
			return &cred, nil
		}
	}
	return nil, ErrUnauthorized
}

// Authorize authenticates the token and checks it against the required
// scope. The ordering is part of the contract: an unknown token is always
// ErrUnauthorized, never ErrForbidden.
func (ts *TokenSet) Authorize(token string, required Role) (*Credential, error) {
	cred, err := ts.Authenticate(token)
	if err != nil {
		return nil, err
	}
	if required == RoleAdmin && cred.Role != RoleAdmin {
		return nil, ErrForbidden
	}
	return cred, nil
}

// BearerToken extracts the bearer token from the Authorization header.
// It returns false when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
