package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenSet() *TokenSet {
	return NewTokenSet(
		[]string{"member-key", "backup-key"},
		[]string{"admin-key"},
	)
}

func TestTokenSet_Authenticate(t *testing.T) {
	t.Parallel()

	ts := newTestTokenSet()

	t.Run("member token resolves to member role", func(t *testing.T) {
		t.Parallel()
		cred, err := ts.Authenticate("member-key")
		require.NoError(t, err)
		assert.Equal(t, RoleMember, cred.Role)
	})

	t.Run("admin token resolves to admin role", func(t *testing.T) {
		t.Parallel()
		cred, err := ts.Authenticate("admin-key")
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, cred.Role)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		t.Parallel()
		_, err := ts.Authenticate("nope")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty token is unauthorized", func(t *testing.T) {
		t.Parallel()
		_, err := ts.Authenticate("")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestTokenSet_Authorize(t *testing.T) {
	t.Parallel()

	ts := newTestTokenSet()

	t.Run("member scope accepts both roles", func(t *testing.T) {
		t.Parallel()
		_, err := ts.Authorize("member-key", RoleMember)
		require.NoError(t, err)
		_, err = ts.Authorize("admin-key", RoleMember)
		require.NoError(t, err)
	})

	t.Run("admin scope rejects member with forbidden", func(t *testing.T) {
		t.Parallel()
		_, err := ts.Authorize("member-key", RoleAdmin)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown token on admin scope is unauthorized, not forbidden", func(t *testing.T) {
		t.Parallel()
		_, err := ts.Authorize("nope", RoleAdmin)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.NotErrorIs(t, err, ErrForbidden)
	})
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{name: "valid bearer", header: "Bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "lowercase scheme", header: "bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "missing header", header: "", wantOK: false},
		{name: "wrong scheme", header: "Basic abc123", wantOK: false},
		{name: "scheme without token", header: "Bearer ", wantOK: false},
		{name: "no space", header: "Bearerabc123", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, ok := BearerToken(r)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}
