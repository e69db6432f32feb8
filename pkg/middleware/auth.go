/**
 * @description
 * This package provides middleware for the HTTP server, specifically for
 * handling authentication. A bearer access token is resolved to a user id
 * either by verifying the identity provider's HS256 signature locally (when
 * the shared JWT secret is configured) or by calling the provider's token
 * introspection endpoint.
 */
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthContextKey is a custom type for the context key to avoid collisions.
type AuthContextKey string

const (
	// UserIDKey is the key used to store the user's ID in the request context.
	UserIDKey AuthContextKey = "userID"
	// UserEmailKey is the key used to store the user's email in the request context.
	UserEmailKey AuthContextKey = "userEmail"
)

// Identity is the resolved owner of a bearer token.
type Identity struct {
	UserID string
	Email  string
}

// TokenIntrospector resolves a bearer token against the identity provider.
type TokenIntrospector interface {
	IntrospectToken(ctx context.Context, token string) (*Identity, error)
}

// Authenticator validates bearer credentials on incoming requests.
type Authenticator struct {
	jwtSecret    string
	introspector TokenIntrospector
}

// NewAuthenticator creates an Authenticator. When jwtSecret is non-empty the
// token is verified locally; otherwise every request performs one
// introspection call against the identity provider.
func NewAuthenticator(jwtSecret string, introspector TokenIntrospector) *Authenticator {
	return &Authenticator{jwtSecret: jwtSecret, introspector: introspector}
}

// Middleware authenticates the request and injects the user identity into the
// request context. Missing or rejected credentials end the request with 401.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				writeAuthError(w, "Unauthenticated: missing Authorization header")
				return
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				writeAuthError(w, "Unauthenticated: invalid Authorization header format")
				return
			}

			identity, err := a.resolve(r.Context(), tokenString)
			if err != nil {
				writeAuthError(w, "Unauthenticated: invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
			if identity.Email != "" {
				ctx = context.WithValue(ctx, UserEmailKey, identity.Email)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) resolve(ctx context.Context, tokenString string) (*Identity, error) {
	if a.jwtSecret != "" {
		return a.verifyLocally(tokenString)
	}
	if a.introspector != nil {
		return a.introspector.IntrospectToken(ctx, tokenString)
	}
	return nil, fmt.Errorf("no token verification method configured")
}

// verifyLocally checks the token's HS256 signature against the shared secret
// and extracts the subject claim.
func (a *Authenticator) verifyLocally(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.jwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token carries no subject")
	}
	email, _ := claims["email"].(string)
	return &Identity{UserID: sub, Email: email}, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetUserIDFromContext retrieves the user ID from the request context.
// It returns an empty string if the user ID is not found.
func GetUserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetUserEmailFromContext retrieves the user email from the request context.
// It returns an empty string if the email is not found.
func GetUserEmailFromContext(ctx context.Context) string {
	email, ok := ctx.Value(UserEmailKey).(string)
	if !ok {
		return ""
	}
	return email
}
