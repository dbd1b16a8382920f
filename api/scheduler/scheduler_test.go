package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/court-session-api/api/scheduler"
	"github.com/linesmerrill/court-session-api/api/testhelpers"
	mocksdb "github.com/linesmerrill/court-session-api/databases/mocks"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
	"github.com/linesmerrill/court-session-api/relay"
)

type fixture struct {
	sessions  *registry.Sessions
	signaling *relay.Signaling
	ended     models.SessionSnapshot
	live      models.SessionSnapshot
	peer      *relay.BufferedPeer
}

// newFixture leaves one session ended with a signaling peer still attached
// and one session running
func newFixture(t *testing.T) fixture {
	t.Helper()
	court := testhelpers.NewCourtroom()
	signaling := relay.NewSignaling(court.Sessions)

	judge, ended := court.Open(t, "Judge Rao")
	peer := relay.NewBufferedPeer(judge.ID, 8)
	require.NoError(t, signaling.Register(ended.ID, peer))
	require.NoError(t, court.Sessions.AppendTranscript(ended.ID, models.TranscriptEntry{SpeakerID: judge.ID, Text: "Adjourned."}))
	require.NoError(t, court.Sessions.Leave(ended.ID, judge.ID))

	_, live := court.Open(t, "Judge Iyer")

	return fixture{sessions: court.Sessions, signaling: signaling, ended: ended, live: live, peer: peer}
}

func TestSweepArchivesEndedSessions(t *testing.T) {
	f := newFixture(t)
	archive := &mocksdb.SessionArchiveDatabase{}
	archive.On("Save", mock.Anything, mock.MatchedBy(func(s models.SessionSnapshot) bool {
		return s.ID == f.ended.ID && !s.Active && len(s.Transcript) == 1
	})).Return(nil)

	s := scheduler.NewScheduler("@every 1h", f.sessions, f.signaling, archive)
	assert.Equal(t, 1, s.Sweep(context.Background()))
	archive.AssertExpectations(t)

	_, err := f.sessions.Get(f.ended.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = f.sessions.Get(f.live.ID)
	assert.NoError(t, err)
	<-f.peer.Done()
	assert.Empty(t, f.signaling.Peers(f.ended.ID))

	assert.Zero(t, s.Sweep(context.Background()))
}

func TestSweepKeepsSessionWhenArchiveFails(t *testing.T) {
	f := newFixture(t)
	archive := &mocksdb.SessionArchiveDatabase{}
	archive.On("Save", mock.Anything, mock.Anything).Return(errors.New("mocked-error")).Once()

	s := scheduler.NewScheduler("@every 1h", f.sessions, f.signaling, archive)
	assert.Zero(t, s.Sweep(context.Background()))

	snapshot, err := f.sessions.Get(f.ended.ID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Transcript, 1)

	archive.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	assert.Equal(t, 1, s.Sweep(context.Background()))
	archive.AssertNumberOfCalls(t, "Save", 2)
}

func TestSweepWithoutArchive(t *testing.T) {
	f := newFixture(t)
	s := scheduler.NewScheduler("@every 1h", f.sessions, f.signaling, nil)

	assert.Equal(t, 1, s.Sweep(context.Background()))
	_, err := f.sessions.Get(f.ended.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	<-f.peer.Done()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	s := scheduler.NewScheduler("every now and then", f.sessions, f.signaling, nil)
	assert.Error(t, s.Start())

	s = scheduler.NewScheduler("@every 1h", f.sessions, f.signaling, nil)
	require.NoError(t, s.Start())
	s.Stop()
}
