package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func authProtected(a *Authenticator) (http.Handler, *string) {
	var seenUserID string
	handler := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seenUserID
}

func TestAuthMiddleware_LocalVerification(t *testing.T) {
	a := NewAuthenticator(testSecret, nil)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUserID string
	}{
		{
			name: "accepts a valid token and injects the subject",
			authHeader: "Bearer " + signedToken(t, testSecret, jwt.MapClaims{
				"sub": "user-1",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantStatus: http.StatusOK,
			wantUserID: "user-1",
		},
		{
			name:       "rejects a missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejects a malformed header",
			authHeader: "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "rejects a token signed with the wrong secret",
			authHeader: "Bearer " + signedToken(t, "other-secret", jwt.MapClaims{
				"sub": "user-1",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "rejects an expired token",
			authHeader: "Bearer " + signedToken(t, testSecret, jwt.MapClaims{
				"sub": "user-1",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "rejects a token without a subject",
			authHeader: "Bearer " + signedToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, seenUserID := authProtected(a)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK && *seenUserID != tt.wantUserID {
				t.Fatalf("expected user id %q in context, got %q", tt.wantUserID, *seenUserID)
			}
		})
	}
}

type fakeIntrospector struct {
	identity *Identity
	err      error
	calls    int
}

func (f *fakeIntrospector) IntrospectToken(ctx context.Context, token string) (*Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func TestAuthMiddleware_IntrospectionFallback(t *testing.T) {
	t.Run("uses introspection when no secret is configured", func(t *testing.T) {
		intro := &fakeIntrospector{identity: &Identity{UserID: "user-9"}}
		handler, seenUserID := authProtected(NewAuthenticator("", intro))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer opaque-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if intro.calls != 1 {
			t.Fatalf("expected one introspection call, got %d", intro.calls)
		}
		if *seenUserID != "user-9" {
			t.Fatalf("expected introspected user id, got %q", *seenUserID)
		}
	})

	t.Run("rejects when the provider rejects the token", func(t *testing.T) {
		intro := &fakeIntrospector{err: fmt.Errorf("identity provider error: status 401")}
		handler, _ := authProtected(NewAuthenticator("", intro))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("skips introspection when the local secret verifies the token", func(t *testing.T) {
		intro := &fakeIntrospector{identity: &Identity{UserID: "ignored"}}
		handler, seenUserID := authProtected(NewAuthenticator(testSecret, intro))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, jwt.MapClaims{
			"sub": "user-2",
			"exp": time.Now().Add(time.Hour).Unix(),
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if intro.calls != 0 {
			t.Fatalf("expected no introspection calls, got %d", intro.calls)
		}
		if *seenUserID != "user-2" {
			t.Fatalf("expected locally verified user id, got %q", *seenUserID)
		}
	})
}
