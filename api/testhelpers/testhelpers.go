package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

// Courtroom wraps a fresh identity and session registry for tests
type Courtroom struct {
	Identities *registry.Identities
	Sessions   *registry.Sessions
}

// NewCourtroom creates an empty courtroom
func NewCourtroom() *Courtroom {
	identities := registry.NewIdentities()
	return &Courtroom{Identities: identities, Sessions: registry.NewSessions(identities)}
}

// Person creates an identity or fails the test
func (c *Courtroom) Person(t *testing.T, name string, role models.Role) models.Identity {
	t.Helper()
	identity, err := c.Identities.Create(name, role)
	require.NoError(t, err)
	return identity
}

// Open creates a judge and an active session hosted by them
func (c *Courtroom) Open(t *testing.T, judgeName string) (models.Identity, models.SessionSnapshot) {
	t.Helper()
	judge := c.Person(t, judgeName, models.RoleJudge)
	session, err := c.Sessions.Create(judge.ID)
	require.NoError(t, err)
	return judge, session
}
