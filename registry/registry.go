package registry

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Normalize upper-cases an externally supplied session id
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Sessions is the session registry. Its own lock only guards the id → session
// map; every session serialises its own state behind a per-session mutex.
type Sessions struct {
	identities *Identities
	now        func() time.Time
	newCode    func() (string, error)

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessions creates an empty session registry bound to an identity registry
func NewSessions(identities *Identities) *Sessions {
	return &Sessions{
		identities: identities,
		now:        func() time.Time { return time.Now().UTC() },
		newCode:    randomCode,
		sessions:   make(map[string]*session),
	}
}

// Create opens a new session hosted by hostID
func (r *Sessions) Create(hostID string) (models.SessionSnapshot, error) {
	host, err := r.identities.Get(hostID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}

	r.mu.Lock()
	var id string
	for {
		id, err = r.newCode()
		if err != nil {
			r.mu.Unlock()
			return models.SessionSnapshot{}, fmt.Errorf("generate session id: %w", err)
		}
		if _, taken := r.sessions[id]; !taken {
			break
		}
		zap.S().Debugw("session id collision, retrying", "meeting_id", id)
	}
	s := newSession(id, host, r.now())
	r.sessions[id] = s
	r.mu.Unlock()

	r.identities.setSession(host.ID, id)
	zap.S().Infow("session created",
		"meeting_id", id,
		"host_id", host.ID,
		"host_name", host.DisplayName)
	return s.snapshot(), nil
}

// Join adds participantID to the session. Joining twice overwrites the
// earlier entry.
func (r *Sessions) Join(sessionID, participantID string) (models.SessionSnapshot, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	participant, err := r.identities.Get(participantID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	if err := s.join(participant); err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("join %s: %w", s.id, err)
	}
	r.identities.setSession(participant.ID, s.id)
	zap.S().Infow("participant joined",
		"meeting_id", s.id,
		"user_id", participant.ID,
		"name", participant.DisplayName)
	return s.snapshot(), nil
}

// Leave removes participantID from the session. Leaving twice, or leaving a
// session the participant never joined, is a no-op.
func (r *Sessions) Leave(sessionID, participantID string) error {
	s, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	removed, ended := s.leave(participantID, r.now())
	if !removed {
		return nil
	}
	r.identities.clearSession(participantID, s.id)
	zap.S().Infow("participant left", "meeting_id", s.id, "user_id", participantID)
	if ended {
		zap.S().Infow("session ended", "meeting_id", s.id)
	}
	return nil
}

// Get returns a snapshot of the session, transcript included
func (r *Sessions) Get(sessionID string) (models.SessionSnapshot, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	return s.snapshot(), nil
}

// ListActive returns snapshots of every active session, oldest first
func (r *Sessions) ListActive() []models.SessionSnapshot {
	r.mu.RLock()
	all := lo.Values(r.sessions)
	r.mu.RUnlock()

	active := lo.FilterMap(all, func(s *session, _ int) (models.SessionSnapshot, bool) {
		if !s.isActive() {
			return models.SessionSnapshot{}, false
		}
		return s.snapshot(), true
	})
	slices.SortFunc(active, func(a, b models.SessionSnapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return active
}

// AppendTranscript is the only way entries reach a transcript. Entries are
// kept in call order.
func (r *Sessions) AppendTranscript(sessionID string, entry models.TranscriptEntry) error {
	s, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := s.append(entry); err != nil {
		return fmt.Errorf("append to %s: %w", s.id, err)
	}
	return nil
}

// Transcript returns a copy of the session transcript
func (r *Sessions) Transcript(sessionID string) ([]models.TranscriptEntry, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.transcriptCopy(), nil
}

// CheckActive returns nil, ErrNotFound or ErrInactive
func (r *Sessions) CheckActive(sessionID string) error {
	s, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	if !s.isActive() {
		return fmt.Errorf("session %s: %w", s.id, ErrInactive)
	}
	return nil
}

// Cleanup removes every inactive session and returns their final snapshots
func (r *Sessions) Cleanup() []models.SessionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []models.SessionSnapshot
	for id, s := range r.sessions {
		if s.isActive() {
			continue
		}
		removed = append(removed, s.snapshot())
		delete(r.sessions, id)
	}
	if len(removed) > 0 {
		zap.S().Infow("cleaned up inactive sessions", "count", len(removed))
	}
	return removed
}

// Inactive returns snapshots of the ended sessions still held
func (r *Sessions) Inactive() []models.SessionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ended []models.SessionSnapshot
	for _, s := range r.sessions {
		if !s.isActive() {
			ended = append(ended, s.snapshot())
		}
	}
	return ended
}

// Remove drops one ended session. Active sessions are never removed.
func (r *Sessions) Remove(sessionID string) bool {
	id := Normalize(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.isActive() {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Sessions) lookup(sessionID string) (*session, error) {
	id := Normalize(sessionID)
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return s, nil
}

func randomCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
