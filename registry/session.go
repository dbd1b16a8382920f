package registry

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/linesmerrill/court-session-api/models"
)

// session is the live, mutable court session. Every field below mu is guarded
// by it; nothing outside the registry ever holds a *session.
type session struct {
	id        string
	hostID    string
	hostName  string
	createdAt time.Time

	mu           sync.Mutex
	participants map[string]models.Identity
	transcript   []models.TranscriptEntry
	endedAt      *time.Time
	active       bool
}

func newSession(id string, host models.Identity, now time.Time) *session {
	host.CurrentSession = id
	return &session{
		id:           id,
		hostID:       host.ID,
		hostName:     host.DisplayName,
		createdAt:    now,
		participants: map[string]models.Identity{host.ID: host},
		active:       true,
	}
}

func (s *session) join(participant models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	participant.CurrentSession = s.id
	s.participants[participant.ID] = participant
	return nil
}

// leave removes the participant if present. ended reports whether this call
// moved the session to inactive.
func (s *session) leave(participantID string, now time.Time) (removed, ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[participantID]; !ok {
		return false, false
	}
	delete(s.participants, participantID)
	if s.active && (participantID == s.hostID || len(s.participants) == 0) {
		s.active = false
		s.endedAt = &now
		ended = true
	}
	return true, ended
}

func (s *session) append(entry models.TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrInactive
	}
	s.transcript = append(s.transcript, entry)
	return nil
}

func (s *session) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *session) transcriptCopy() []models.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

func (s *session) snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	participants := lo.Values(s.participants)
	slices.SortFunc(participants, func(a, b models.Identity) int {
		if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return models.SessionSnapshot{
		ID:           s.id,
		HostID:       s.hostID,
		HostName:     s.hostName,
		Participants: participants,
		Transcript:   slices.Clone(s.transcript),
		CreatedAt:    s.createdAt,
		EndedAt:      s.endedAt,
		Active:       s.active,
	}
}
