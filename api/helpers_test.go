package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApplication() *application {
	var cfg config
	cfg.env = "development"
	cfg.jwt.secret = string(testSecret)
	cfg.jwt.accessTTL = time.Hour
	cfg.jwt.refreshTTL = 24 * time.Hour
	return &application{
		config: cfg,
		store:  newMemoryStore(),
	}
}

func newTestServer(t *testing.T, app *application) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(composeRoutes(app))
	t.Cleanup(ts.Close)
	return ts
}

// createTestUser seeds a verified user directly in the store and returns it
// with a valid access token.
func createTestUser(t *testing.T, app *application, email string) (*user, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user{
		Email:        email,
		PasswordHash: hash,
		IsVerified:   true,
	}
	require.NoError(t, app.store.createUser(u))
	token, err := mintAccessToken(identity{ID: u.ID, Email: u.Email}, app.config.jwt.accessTTL, []byte(app.config.jwt.secret))
	require.NoError(t, err)
	return u, token
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
