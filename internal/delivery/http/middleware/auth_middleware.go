package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"onboarding-portal/pkg/jwt"
	"onboarding-portal/pkg/response"

	"github.com/redis/go-redis/v9"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	RoleKey      contextKey = "role"
	TokenIDKey   contextKey = "token_id"
)

// TokenRegistry is the part of the Redis client used to check that a token was not revoked.
type TokenRegistry interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokens     TokenRegistry
}

// NewAuthMiddleware builds the middleware. A nil registry disables the revocation check.
func NewAuthMiddleware(jwtService *jwt.JWTService, tokens TokenRegistry) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokens:     tokens,
	}
}

// AccessTokenKey is the Redis key under which the identity service registers a live token.
func AccessTokenKey(userID, tokenID string) string {
	return fmt.Sprintf("access_token:%s:%s", userID, tokenID)
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			rejectMissingToken(w, r)
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		if m.tokens != nil {
			exists, err := m.tokens.Exists(r.Context(), AccessTokenKey(claims.UserID, claims.TokenID)).Result()
			if err != nil {
				response.InternalServerError(w, "Failed to validate token")
				return
			}
			if exists == 0 {
				response.Unauthorized(w, "Token has been revoked")
				return
			}
		}

		ctx := WithUser(r.Context(), claims.UserID, claims.Role)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the Authorization header. EventSource cannot send headers, so stream
// requests may pass the token as access_token instead.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		token := r.URL.Query().Get("access_token")
		return token, token != "" && strings.HasSuffix(r.URL.Path, "/stream")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func rejectMissingToken(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		response.Unauthorized(w, "Authorization header is required")
		return
	}
	response.Unauthorized(w, "Invalid authorization header format")
}

// WithUser stores the authenticated identity in ctx.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserEmailFromContext extracts user email from context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
