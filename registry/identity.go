package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
)

var validate = validator.New()

type identityRequest struct {
	DisplayName string      `validate:"required,max=120"`
	Role        models.Role `validate:"required,oneof=Judge Lawyer Prosecutor Defendant Witness Clerk Observer"`
}

// Identities is the identity registry. Identities outlive sessions and are
// only ever mutated to set or clear their current session.
type Identities struct {
	mu         sync.RWMutex
	identities map[string]*models.Identity
}

// NewIdentities creates an empty identity registry
func NewIdentities() *Identities {
	return &Identities{identities: make(map[string]*models.Identity)}
}

// Create registers a new identity. An empty role defaults to Observer.
func (r *Identities) Create(displayName string, role models.Role) (models.Identity, error) {
	req := identityRequest{
		DisplayName: strings.TrimSpace(displayName),
		Role:        models.Role(strings.TrimSpace(string(role))),
	}
	if req.Role == "" {
		req.Role = models.RoleObserver
	}
	if err := validate.Struct(req); err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	identity := &models.Identity{
		ID:          uuid.New().String(),
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}

	r.mu.Lock()
	r.identities[identity.ID] = identity
	r.mu.Unlock()

	zap.S().Infow("identity created",
		"user_id", identity.ID,
		"name", identity.DisplayName,
		"role", identity.Role)
	return *identity, nil
}

// Get returns a copy of the identity with the given id
func (r *Identities) Get(id string) (models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[id]
	if !ok {
		return models.Identity{}, fmt.Errorf("identity %q: %w", id, ErrNotFound)
	}
	return *identity, nil
}

func (r *Identities) setSession(id, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity, ok := r.identities[id]; ok {
		identity.CurrentSession = sessionID
	}
}

// clearSession only clears when the identity still points at sessionID, so a
// late leave from an old session never detaches the identity from a newer one.
func (r *Identities) clearSession(id, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity, ok := r.identities[id]; ok && identity.CurrentSession == sessionID {
		identity.CurrentSession = ""
	}
}
