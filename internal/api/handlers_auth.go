package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"voltvault/internal/store"
)

const defaultKDFIterations = 100000

type registerRequest struct {
	Email              string `json:"email"`
	MasterPasswordHash string `json:"master_password_hash"`
	Keys               *struct {
		EncryptedSymmetricKey string `json:"encrypted_symmetric_key"`
		EncryptedPrivateKey   string `json:"encrypted_private_key"`
		PublicKey             string `json:"public_key"`
	} `json:"keys"`
	KDFIterations int `json:"kdf_iterations"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	details := map[string]string{}
	if req.Email == "" {
		details["email"] = "Email is required"
	}
	if req.MasterPasswordHash == "" {
		details["master_password_hash"] = "Master password hash is required"
	}
	if len(details) > 0 {
		respondError(w, http.StatusBadRequest, codeValidation, "Validation failed", details)
		return
	}

	user := &store.User{
		Email:        req.Email,
		PasswordHash: req.MasterPasswordHash,
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, codeValidation, "Email is already registered", map[string]string{"email": "Email is already registered"})
			return
		}
		a.log.Error().Err(err).Msg("create user failed")
		respondInternal(w)
		return
	}

	// Key material is only recorded when the client supplies it; login
	// reports keys as null for accounts registered without any.
	if req.Keys != nil {
		keys := &store.UserKeys{
			UserID:                user.ID,
			EncryptedSymmetricKey: req.Keys.EncryptedSymmetricKey,
			EncryptedPrivateKey:   req.Keys.EncryptedPrivateKey,
			PublicKey:             req.Keys.PublicKey,
			KDFIterations:         req.KDFIterations,
		}
		if keys.KDFIterations <= 0 {
			keys.KDFIterations = defaultKDFIterations
		}
		if err := a.store.PutUserKeys(r.Context(), keys); err != nil {
			a.log.Error().Err(err).Str("user_id", user.ID).Msg("store user keys failed")
			respondInternal(w)
			return
		}
	}

	a.publish(r.Context(), topicRegistered, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})

	respondJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data: map[string]any{
			"user_id":        user.ID,
			"email":          user.Email,
			"email_verified": user.EmailVerified,
			"created_at":     user.CreatedAt,
		},
		Message: "Registration successful. Please verify your email.",
	})
}

type loginRequest struct {
	Email              string `json:"email"`
	MasterPasswordHash string `json:"master_password_hash"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.MasterPasswordHash == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "Email and master password hash are required", nil)
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			loginsTotal.WithLabelValues("invalid").Inc()
			respondError(w, http.StatusUnauthorized, codeInvalidCredentials, "Invalid email or master password", nil)
			return
		}
		a.log.Error().Err(err).Msg("user lookup failed")
		respondInternal(w)
		return
	}

	if !a.credentialsMatch(user, req.MasterPasswordHash) {
		loginsTotal.WithLabelValues("invalid").Inc()
		respondError(w, http.StatusUnauthorized, codeInvalidCredentials, "Invalid email or master password", nil)
		return
	}

	sess, err := a.mintSession(r, user.ID)
	if err != nil {
		a.log.Error().Err(err).Str("user_id", user.ID).Msg("create session failed")
		respondInternal(w)
		return
	}

	var keysPayload any
	if keys, err := a.store.GetUserKeys(r.Context(), user.ID); err == nil {
		keysPayload = map[string]any{
			"encrypted_symmetric_key": keys.EncryptedSymmetricKey,
			"encrypted_private_key":   keys.EncryptedPrivateKey,
			"kdf_iterations":          keys.KDFIterations,
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		a.log.Error().Err(err).Str("user_id", user.ID).Msg("user keys lookup failed")
		respondInternal(w)
		return
	}

	loginsTotal.WithLabelValues("ok").Inc()
	respondData(w, http.StatusOK, map[string]any{
		"access_token":  sess.AccessToken,
		"refresh_token": sess.RefreshToken,
		"expires_in":    int(a.config.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
		"user": map[string]any{
			"id":                 user.ID,
			"email":              user.Email,
			"two_factor_enabled": user.TwoFactorEnabled,
			"email_verified":     user.EmailVerified,
		},
		"keys": keysPayload,
	}, "")
}

// credentialsMatch compares the client-supplied hash. In demo mode the
// seeded demo account accepts any hash so the hosted demo stays usable
// without the real master password.
func (a *API) credentialsMatch(user *store.User, hash string) bool {
	if user.PasswordHash == hash {
		return true
	}
	return a.config.DemoMode && user.Email == store.DemoEmail
}

func (a *API) mintSession(r *http.Request, uid string) (*store.Session, error) {
	access, err := newToken()
	if err != nil {
		return nil, err
	}
	refresh, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &store.Session{
		ID:               uuid.NewString(),
		UserID:           uid,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(a.config.AccessTokenTTL),
		RefreshExpiresAt: now.Add(a.config.RefreshTokenTTL),
		CreatedAt:        now,
	}
	if err := a.store.CreateSession(r.Context(), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := bearerToken(r); ok {
		if err := a.store.DeleteSessionByAccessToken(r.Context(), token); err != nil {
			a.log.Warn().Err(err).Msg("session delete failed")
		}
	}
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "Refresh token is required", nil)
		return
	}

	sess, err := a.store.GetSessionByRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, codeTokenExpired, "Refresh token is invalid or expired", nil)
			return
		}
		a.log.Error().Err(err).Msg("session lookup failed")
		respondInternal(w)
		return
	}
	if time.Now().After(sess.RefreshExpiresAt) {
		respondError(w, http.StatusUnauthorized, codeTokenExpired, "Refresh token is invalid or expired", nil)
		return
	}

	access, err := newToken()
	if err != nil {
		a.log.Error().Err(err).Msg("token generation failed")
		respondInternal(w)
		return
	}
	sess.AccessToken = access
	sess.AccessExpiresAt = time.Now().UTC().Add(a.config.AccessTokenTTL)
	if err := a.store.UpdateSession(r.Context(), sess); err != nil {
		a.log.Error().Err(err).Msg("session update failed")
		respondInternal(w)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"access_token": sess.AccessToken,
		"expires_in":   int(a.config.AccessTokenTTL.Seconds()),
		"token_type":   "Bearer",
	}, "")
}
