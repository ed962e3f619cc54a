package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"movietrack/internal/httputil"
	"movietrack/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated *model.User
	UserKey contextKey = "user"
)

// Messages returned by the auth gate.
const (
	MsgTokenRequired = "Access token required"
	MsgTokenInvalid  = "Invalid or expired token"
	MsgUserNotFound  = "Invalid token - user not found"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLookup loads the user a verified token names.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware requires "Authorization: Bearer <token>". A missing or
// garbled header is 401, any verification failure is the same 403 whatever
// the cause, and a token for a user that no longer exists is 401. On
// success the user, with the password hash cleared, is bound to the
// request context.
func AuthMiddleware(tokens TokenVerifier, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteUnauthorized(w, MsgTokenRequired)
				return
			}

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				httputil.WriteForbidden(w, MsgTokenInvalid)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, model.ErrUserNotFound) {
					httputil.WriteUnauthorized(w, MsgUserNotFound)
					return
				}
				log.Error("auth user lookup", zap.String("user_id", userID), zap.Error(err))
				httputil.WriteInternalError(w, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user.Public())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// UserFromContext returns the authenticated user bound by AuthMiddleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}

// WithUser binds user to ctx the way AuthMiddleware does.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
