package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/databases"
	"github.com/linesmerrill/court-session-api/models"
)

// sweepTimeout bounds one sweep, archive writes included
const sweepTimeout = 2 * time.Minute

// SessionStore is the part of the session registry a sweep needs
type SessionStore interface {
	Inactive() []models.SessionSnapshot
	Remove(sessionID string) bool
	Cleanup() []models.SessionSnapshot
}

// RelayDropper forgets the relay connections of a swept session
type RelayDropper interface {
	Drop(sessionID string)
}

// Scheduler handles periodic background jobs for the session registry
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	sessions   SessionStore
	relays     RelayDropper
	archive    databases.SessionArchiveDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance. archive may be nil, in
// which case ended sessions are discarded when swept.
func NewScheduler(spec string, sessions SessionStore, relays RelayDropper, archive databases.SessionArchiveDatabase) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		spec:       spec,
		sessions:   sessions,
		relays:     relays,
		archive:    archive,
		instanceID: instanceID,
	}
}

// Start registers the sweep and starts the cron runner
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweepJob); err != nil {
		return fmt.Errorf("register session sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	zap.S().Infow("session scheduler started", "schedule", s.spec, "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("session scheduler stopped")
}

func (s *Scheduler) sweepJob() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	s.Sweep(ctx)
}

// Sweep removes ended sessions from the registry and drops their relays. With
// an archive, each session is saved first; one that fails to save stays in
// the registry for the next sweep. It returns how many sessions were removed.
func (s *Scheduler) Sweep(ctx context.Context) int {
	if s.archive == nil {
		removed := s.sessions.Cleanup()
		for _, snapshot := range removed {
			s.relays.Drop(snapshot.ID)
		}
		return len(removed)
	}

	removed := 0
	for _, snapshot := range s.sessions.Inactive() {
		if err := s.archive.Save(ctx, snapshot); err != nil {
			zap.S().Errorw("failed to archive session, keeping it for the next sweep",
				"meeting_id", snapshot.ID,
				"instance", s.instanceID,
				"error", err)
			continue
		}
		if s.sessions.Remove(snapshot.ID) {
			s.relays.Drop(snapshot.ID)
			removed++
		}
	}
	if removed > 0 {
		zap.S().Infow("archived ended sessions", "count", removed, "instance", s.instanceID)
	}
	return removed
}
