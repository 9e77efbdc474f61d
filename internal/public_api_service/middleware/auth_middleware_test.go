package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		presented  string
		configured string
		want       Decision
	}{
		{"disabled guard allows anything", "whatever", "", DecisionAllowed},
		{"disabled guard allows no token", "", "", DecisionAllowed},
		{"missing token", "", "s3cret", DecisionUnauthenticated},
		{"wrong token", "guess", "s3cret", DecisionForbidden},
		{"prefix of secret", "s3cre", "s3cret", DecisionForbidden},
		{"case differs", "S3CRET", "s3cret", DecisionForbidden},
		{"exact match", "s3cret", "s3cret", DecisionAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.presented, tt.configured))
		})
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/call/contact/a", nil)
	assert.Equal(t, "", BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", BearerToken(r))

	r.Header.Set("Authorization", "bearer  xyz ")
	assert.Equal(t, "xyz", BearerToken(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, "", BearerToken(r))

	q := httptest.NewRequest(http.MethodPost, "/call/contact/a?access_token=fromquery", nil)
	assert.Equal(t, "fromquery", BearerToken(q))

	q.Header.Set("Authorization", "Bearer fromheader")
	assert.Equal(t, "fromheader", BearerToken(q))
}

func TestAuthMiddleware(t *testing.T) {
	reached := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware("s3cret", testLogger())(next)

	t.Run("no token yields 401", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/call/contact/a", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"message":"No Bearer Token provided","status":401}`, rr.Body.String())
	})

	t.Run("wrong token yields 403", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/call/contact/a", nil)
		req.Header.Set("Authorization", "Bearer nope")
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"message":"Invalid Bearer Token provided","status":403}`, rr.Body.String())
	})

	t.Run("valid token passes through", func(t *testing.T) {
		before := reached
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/call/contact/a", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, before+1, reached)
	})

	t.Run("empty secret disables the guard", func(t *testing.T) {
		before := reached
		rr := httptest.NewRecorder()
		AuthMiddleware("", testLogger())(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/call/contact/a", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, before+1, reached)
	})
}
