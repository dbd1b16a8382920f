package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/config"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

// Auth exported for testing purposes
type Auth struct {
	Identities *registry.Identities
	Guard      *api.Guard
}

// LoginHandler creates an identity and issues its bearer token
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError("failed to decode request body", w, err)
		return
	}

	identity, err := a.Identities.Create(req.Name, req.Role)
	if err != nil {
		writeError("failed to create identity", w, err)
		return
	}
	token, expires, err := a.Guard.Issue(identity)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("identity logged in", "user_id", identity.ID, "role", identity.Role)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Identity:  identity,
		Token:     token,
		ExpiresAt: expires,
		Message:   fmt.Sprintf("Welcome, %s!", identity.DisplayName),
	})
}

// VerifyHandler returns the identity behind a valid bearer token
func (a Auth) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, a.Identities)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.VerifyResponse{Success: true, User: caller})
}

// callerIdentity resolves the authenticated caller against the registry. A
// token for an identity the registry no longer holds is unauthorized.
func callerIdentity(w http.ResponseWriter, r *http.Request, identities *registry.Identities) (models.Identity, bool) {
	claimed, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
		return models.Identity{}, false
	}
	identity, err := identities.Get(claimed.ID)
	if err != nil {
		config.ErrorStatus("unknown identity", http.StatusUnauthorized, w, err)
		return models.Identity{}, false
	}
	return identity, true
}
