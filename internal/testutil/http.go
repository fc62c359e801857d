package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/dalemusser/linguashift/internal/domain/models"
)

// AsUser returns a session user for u, as LoadSessionUser would build it.
func AsUser(u models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:             u.ID.Hex(),
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID.Hex(),
	}
}

// JSONRequest builds a request whose body is body encoded as JSON. A nil
// body sends no body.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request body: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AuthedJSONRequest is JSONRequest with u injected into the context.
func AuthedJSONRequest(t *testing.T, method, target string, body any, u models.User) *http.Request {
	t.Helper()
	return auth.WithTestUser(JSONRequest(t, method, target, body), AsUser(u))
}

// ResponseRecorder wraps httptest.ResponseRecorder with assertions.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body=%s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks the body contains expected.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// AssertNotContains checks the body does not contain unexpected.
func (r *ResponseRecorder) AssertNotContains(t testing.TB, unexpected string) {
	t.Helper()
	if strings.Contains(r.Body.String(), unexpected) {
		t.Errorf("response body unexpectedly contains %q: %s", unexpected, r.Body.String())
	}
}

// DecodeJSON decodes the body into dst or fails the test.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response body: %v (body=%s)", err, r.Body.String())
	}
}
