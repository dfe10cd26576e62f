package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/foodgram/internal/model"
)

// contextKey is private so no other package can read or overwrite the
// identity stored by this middleware.
type contextKey string

const userIDKey contextKey = "userID"

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

// Accounts reports whether a token's subject still has an account.
//
// A JWT outlives the row it was minted for: deleting a user with the admin
// CLI does not revoke the tokens already handed out. The middleware asks
// Accounts on every authenticated request so such a token is treated exactly
// like a forged one instead of reaching the services as a ghost caller.
type Accounts interface {
	UserExists(ctx context.Context, id model.UserID) (bool, error)
}

// RequireAuth rejects requests without a valid token with 401 and stores
// the caller's id in the request context otherwise. A token whose user has
// been deleted is rejected the same way. accounts may be nil, in which case
// only the signature and expiry are checked.
func RequireAuth(tokens *TokenService, accounts Accounts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				writeUnauthorized(w)
				return
			}
			exists, err := accountExists(r.Context(), accounts, userID)
			if err != nil {
				writeLookupFailure(w, err)
				return
			}
			if !exists {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth records the caller's id when a valid token is present and
// lets the request through anonymously otherwise. Read endpoints use it so
// per-viewer flags (is_favorited, is_subscribed, ...) can be computed.
// Tokens of deleted users count as no token.
func OptionalAuth(tokens *TokenService, accounts Accounts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			exists, err := accountExists(r.Context(), accounts, userID)
			if err != nil {
				writeLookupFailure(w, err)
				return
			}
			if exists {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accountExists(ctx context.Context, accounts Accounts, id model.UserID) (bool, error) {
	if accounts == nil {
		return true, nil
	}
	return accounts.UserExists(ctx, id)
}

// WithUserID returns ctx carrying id as the authenticated caller.
func WithUserID(ctx context.Context, id model.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated caller, or (0, false) for an
// anonymous request.
func UserIDFromContext(ctx context.Context) (model.UserID, bool) {
	id, ok := ctx.Value(userIDKey).(model.UserID)
	return id, ok && id > 0
}

// extractUserID looks for a token in the Authorization header first and
// falls back to the cookie.
func extractUserID(r *http.Request, tokens *TokenService) (model.UserID, error) {
	if raw, ok := tokenFromHeader(r.Header.Get("Authorization")); ok {
		return tokens.Validate(raw)
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return 0, err
	}
	return tokens.Validate(cookie.Value)
}

// tokenFromHeader accepts "Bearer <jwt>" and "Token <jwt>"; the scheme is
// case-insensitive.
func tokenFromHeader(h string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeLookupFailure(w http.ResponseWriter, err error) {
	slog.Error("account lookup failed", slog.String("error", err.Error()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "internal_error",
		"message": "An internal error occurred",
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="foodgram"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": "valid authentication required",
	})
}
