package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"voltvault/internal/store"
)

type contextKey string

const userIDKey contextKey = "userID"

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// requireAuth resolves the bearer token to a live session and injects the
// owning user ID into the request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required", nil)
			return
		}

		sess, err := a.store.GetSessionByAccessToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, codeTokenExpired, "Session expired. Please log in again.", nil)
				return
			}
			a.log.Error().Err(err).Msg("session lookup failed")
			respondInternal(w)
			return
		}
		if time.Now().After(sess.AccessExpiresAt) {
			respondError(w, http.StatusUnauthorized, codeTokenExpired, "Session expired. Please log in again.", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
