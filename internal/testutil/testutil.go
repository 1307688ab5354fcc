// Package testutil wires a complete application for handler tests: a
// real httptest server, the mock engine client, and a live session
// store, all torn down with the test.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/portside-sh/portside/internal/auth"
	"github.com/portside-sh/portside/internal/docker"
	"github.com/portside-sh/portside/internal/handlers"
)

// TestUsername and TestPassword are the credentials every test env
// accepts.
const (
	TestUsername = "admin"
	TestPassword = "correct horse battery staple"
)

// TestEnv is a fully wired application under test.
type TestEnv struct {
	App      *handlers.App
	Server   *httptest.Server
	Sessions *auth.SessionStore
	Mock     *docker.MockClient

	client *http.Client
}

// Option tweaks the environment before the server starts.
type Option func(*handlers.App)

// WithoutAuth disables the access gate, like the --no-auth flag.
func WithoutAuth() Option {
	return func(app *handlers.App) { app.AuthEnabled = false }
}

// Setup builds the app around the mock engine client and starts an
// httptest server with the auth gate applied, mirroring production
// wiring.
func Setup(t testing.TB, opts ...Option) *TestEnv {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatal(err)
	}
	creds := auth.NewCredentials(TestUsername, hash)

	sessions, err := auth.NewSessionStore(time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	mock := docker.NewMockClient()

	app := &handlers.App{
		Creds:          creds,
		Sessions:       sessions,
		Docker:         mock,
		Web:            testPages(),
		Version:        "test",
		AuthEnabled:    true,
		SessionTimeout: time.Hour,
	}
	for _, opt := range opts {
		opt(app)
	}

	mux := http.NewServeMux()
	app.Register(mux)

	srv := httptest.NewServer(auth.Gate(sessions, app.AuthEnabled)(mux))
	t.Cleanup(srv.Close)

	return &TestEnv{
		App:      app,
		Server:   srv,
		Sessions: sessions,
		Mock:     mock,
		client: &http.Client{
			// Tests assert on redirects explicitly.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// testPages is a minimal stand-in for the embedded web assets.
func testPages() fstest.MapFS {
	return fstest.MapFS{
		"index.html":       {Data: []byte("<html><body>dashboard</body></html>")},
		"login.html":       {Data: []byte("<html><body>login</body></html>")},
		"static/style.css": {Data: []byte("body{}")},
	}
}

// Login posts the test credentials and returns the session cookie value.
func (env *TestEnv) Login(t testing.TB) string {
	t.Helper()

	form := url.Values{"username": {TestUsername}, "password": {TestPassword}}
	resp, err := env.client.Post(env.Server.URL+"/login",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login returned %d, want 303", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("login response carried no session cookie")
	return ""
}

// PostForm submits a form without following redirects.
func (env *TestEnv) PostForm(t testing.TB, path string, form url.Values) *http.Response {
	t.Helper()

	resp, err := env.client.Post(env.Server.URL+path,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// Do performs a request against the test server. A non-empty session
// value is attached as the session cookie. Redirects are not followed.
func (env *TestEnv) Do(t testing.TB, method, path, session string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, env.Server.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: session})
	}
	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
