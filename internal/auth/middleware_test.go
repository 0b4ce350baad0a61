package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	calls  int
	userID string
	err    error
}

func (v *stubValidator) Validate(string) (string, error) {
	v.calls++
	return v.userID, v.err
}

func reject(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

func okHandler(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, want, got)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := ExtractBearer(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}

func TestJWTMiddleware_MissingHeaderSkipsValidator(t *testing.T) {
	v := &stubValidator{userID: "u1"}
	h := JWTMiddleware(v, false, reject)(okHandler(t, "u1"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing auth token")
	assert.Zero(t, v.calls)
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	v := &stubValidator{err: errors.New("nope")}
	h := JWTMiddleware(v, false, reject)(okHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid auth token")
	assert.Equal(t, 1, v.calls)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	v := &stubValidator{userID: "u42"}
	h := JWTMiddleware(v, false, reject)(okHandler(t, "u42"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJWTMiddleware_QueryToken(t *testing.T) {
	v := &stubValidator{userID: "u7"}

	withQuery := JWTMiddleware(v, true, reject)(okHandler(t, "u7"))
	rec := httptest.NewRecorder()
	withQuery.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	withoutQuery := JWTMiddleware(v, false, reject)(okHandler(t, "u7"))
	rec = httptest.NewRecorder()
	withoutQuery.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
