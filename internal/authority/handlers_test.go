package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinidoc/actd/internal/auth"
	"github.com/clinidoc/actd/internal/settings"
)

const (
	testMemberKey = "member-key"
	testBackupKey = "backup-key"
	testAdminKey  = "admin-key"
)

func newTestAuthority(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	tokens := auth.NewTokenSet(
		[]string{testMemberKey, testBackupKey},
		[]string{testAdminKey},
	)
	srv := New(Config{}, tokens, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doRequest(t *testing.T, method, url, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	_, ts := newTestAuthority(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	_, ts := newTestAuthority(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "running", body["status"])
	assert.Contains(t, body["service"], "Activation Service")
	assert.NotEmpty(t, body["version"])
}

func TestHandleCheckActivation(t *testing.T) {
	t.Parallel()

	t.Run("missing credential is unauthorized", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/check_activation", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, false, body["active"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("unknown credential is unauthorized", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/check_activation", "bogus", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("member credential reads current state", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodGet, ts.URL+"/api/check_activation", testMemberKey, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[checkResponse](t, resp)
		assert.True(t, body.Active)
		assert.Equal(t, initialMessage, body.Message)
		assert.NotEmpty(t, body.Timestamp)
	})

	t.Run("check has no side effects", func(t *testing.T) {
		t.Parallel()
		srv, ts := newTestAuthority(t)
		before := srv.state.Snapshot()

		for i := 0; i < 3; i++ {
			resp := doRequest(t, http.MethodGet, ts.URL+"/api/check_activation", testBackupKey, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		assert.Equal(t, before, srv.state.Snapshot())
	})
}

func TestHandleSetActivation(t *testing.T) {
	t.Parallel()

	t.Run("member credential is forbidden", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", testMemberKey,
			bytes.NewBufferString(`{"active": false}`))
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown credential is unauthorized before any scope check", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", "bogus",
			bytes.NewBufferString(`{"active": false}`))
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing body is a bad request", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", testAdminKey, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("admin credential overwrites the state", func(t *testing.T) {
		t.Parallel()
		srv, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", testAdminKey,
			bytes.NewBufferString(`{"active": false, "message": "maintenance"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[mutationResponse](t, resp)
		assert.True(t, body.Success)
		assert.False(t, body.Status.Active)
		assert.Equal(t, "maintenance", body.Status.Message)

		snap := srv.state.Snapshot()
		assert.False(t, snap.Active)
		assert.Equal(t, "maintenance", snap.Message)
	})

	t.Run("empty object is a bad request", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		for _, payload := range []string{`{}`, `null`} {
			resp := doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", testAdminKey,
				bytes.NewBufferString(payload))
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)

			body := decodeBody[errorResponse](t, resp)
			assert.Equal(t, "No JSON data provided", body.Error, payload)
		}
	})

	t.Run("omitted fields use defaults when one field is supplied", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", testAdminKey,
			bytes.NewBufferString(`{"message": "maintenance"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[mutationResponse](t, resp)
		assert.True(t, body.Status.Active, "active defaults to true")
		assert.Equal(t, "maintenance", body.Status.Message)

		resp = doRequest(t, http.MethodPost, ts.URL+"/api/set_activation", testAdminKey,
			bytes.NewBufferString(`{"active": false}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body = decodeBody[mutationResponse](t, resp)
		assert.False(t, body.Status.Active)
		assert.Equal(t, updatedMessage, body.Status.Message, "message defaults to the fixed update message")
	})
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("deactivate then member check observes the change", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		resp := doRequest(t, http.MethodPost, ts.URL+"/admin/deactivate", testAdminKey, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[mutationResponse](t, resp)
		assert.True(t, body.Success)
		assert.False(t, body.Status.Active)
		assert.Equal(t, deactivateMessage, body.Status.Message)

		check := doRequest(t, http.MethodGet, ts.URL+"/api/check_activation", testMemberKey, nil)
		require.Equal(t, http.StatusOK, check.StatusCode)
		checkBody := decodeBody[checkResponse](t, check)
		assert.False(t, checkBody.Active)
	})

	t.Run("activate twice is idempotent with ordered timestamps", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		first := decodeBody[mutationResponse](t,
			doRequest(t, http.MethodPost, ts.URL+"/admin/activate", testAdminKey, nil))
		second := decodeBody[mutationResponse](t,
			doRequest(t, http.MethodPost, ts.URL+"/admin/activate", testAdminKey, nil))

		assert.True(t, first.Status.Active)
		assert.True(t, second.Status.Active)
		assert.False(t, second.Status.LastUpdated.Before(first.Status.LastUpdated))
	})

	t.Run("member credential is forbidden on admin endpoints", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		for _, path := range []string{"/admin/activate", "/admin/deactivate"} {
			resp := doRequest(t, http.MethodPost, ts.URL+path, testMemberKey, nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		}
	})

	t.Run("missing credential is unauthorized on admin endpoints", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestAuthority(t)

		for _, path := range []string{"/admin/activate", "/admin/deactivate"} {
			resp := doRequest(t, http.MethodPost, ts.URL+path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		}
	})
}

func TestWriteThroughPersistence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "authority.db")
	store, err := settings.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ts := newTestAuthority(t, WithSettingsStore(store))

	resp := doRequest(t, http.MethodPost, ts.URL+"/admin/deactivate", testAdminKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	persisted, err := store.Get(ctx, keyAuthorityActive)
	require.NoError(t, err)
	assert.Equal(t, "false", persisted)

	// A fresh server over the same store recovers the decision.
	tokens := auth.NewTokenSet([]string{testMemberKey}, []string{testAdminKey})
	recovered := New(Config{}, tokens, WithSettingsStore(store))
	recovered.recoverState(ctx)

	snap := recovered.state.Snapshot()
	assert.False(t, snap.Active)
	assert.Equal(t, deactivateMessage, snap.Message)
}
