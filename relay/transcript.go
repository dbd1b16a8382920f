package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
	"github.com/linesmerrill/court-session-api/speech"
)

// RecognitionIdleTimeout is how long a stream may go without audio before
// the speaker is warned and the stream is closed.
const RecognitionIdleTimeout = 30 * time.Second

const (
	noVoiceWarning     = "No voice detected. Please speak into the microphone."
	unavailableWarning = "Live transcription is unavailable right now."
	interruptedWarning = "Live transcription was interrupted."
)

// StreamState is the lifecycle of one transcription stream
type StreamState int32

const (
	StateClosed StreamState = iota
	StateConnecting
	StateStreaming
)

func (s StreamState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "closed"
	}
}

// TranscriptStore is the slice of the session registry transcription writes to
type TranscriptStore interface {
	CheckActive(sessionID string) error
	AppendTranscript(sessionID string, entry models.TranscriptEntry) error
}

// IdentityLookup resolves speaker identities
type IdentityLookup interface {
	Get(id string) (models.Identity, error)
}

// Broadcaster fans envelopes out to a session's signaling peers
type Broadcaster interface {
	Broadcast(sessionID string, env models.Envelope, except string) int
}

// AudioSource yields a speaker's raw audio chunks. ReadAudio returns an error
// once the connection is gone.
type AudioSource interface {
	ReadAudio() ([]byte, error)
}

// Transcripts bridges speakers' audio to the recognizer and fans final
// results out to the session.
type Transcripts struct {
	sessions    TranscriptStore
	identities  IdentityLookup
	broadcaster Broadcaster
	recognizer  speech.Recognizer
	idleTimeout time.Duration
	now         func() time.Time

	streams sync.Map // streamKey -> *transcription
}

type transcription struct {
	sessionID string
	speaker   models.Identity
	state     atomic.Int32
	lastAudio atomic.Int64
	cancel    context.CancelFunc
}

func (t *transcription) setState(s StreamState) { t.state.Store(int32(s)) }

// NewTranscripts creates a transcript relay
func NewTranscripts(sessions TranscriptStore, identities IdentityLookup, broadcaster Broadcaster, recognizer speech.Recognizer) *Transcripts {
	return &Transcripts{
		sessions:    sessions,
		identities:  identities,
		broadcaster: broadcaster,
		recognizer:  recognizer,
		idleTimeout: RecognitionIdleTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func streamKey(sessionID, participantID string) string {
	return sessionID + "/" + participantID
}

// State reports where a participant's transcription stream is
func (t *Transcripts) State(sessionID, participantID string) StreamState {
	v, ok := t.streams.Load(streamKey(registry.Normalize(sessionID), participantID))
	if !ok {
		return StateClosed
	}
	return StreamState(v.(*transcription).state.Load())
}

// Stop ends a participant's transcription stream, if one is open
func (t *Transcripts) Stop(sessionID, participantID string) bool {
	v, ok := t.streams.Load(streamKey(registry.Normalize(sessionID), participantID))
	if !ok {
		return false
	}
	v.(*transcription).cancel()
	return true
}

// Serve runs one speaker's transcription until the audio source ends, the
// recognizer stops, the session ends or ctx is cancelled. Interim results and
// warnings go to feedback only. Recognizer trouble is reported to the speaker
// and is not an error.
func (t *Transcripts) Serve(ctx context.Context, sessionID, participantID string, audio AudioSource, feedback Peer) error {
	id := registry.Normalize(sessionID)
	if err := t.sessions.CheckActive(id); err != nil {
		return err
	}
	speaker, err := t.identities.Get(participantID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr := &transcription{sessionID: id, speaker: speaker, cancel: cancel}
	tr.setState(StateConnecting)
	key := streamKey(id, speaker.ID)
	// a newer stream for the same speaker replaces and ends the older one
	if previous, loaded := t.streams.Swap(key, tr); loaded {
		previous.(*transcription).cancel()
		zap.S().Infow("transcription replaced by a newer stream", "meeting_id", id, "user_id", speaker.ID)
	}
	defer func() {
		tr.setState(StateClosed)
		t.streams.CompareAndDelete(key, tr)
		feedback.Close()
	}()

	stream, err := t.recognizer.Connect(ctx)
	if err != nil {
		zap.S().Warnw("speech recognizer unavailable",
			"meeting_id", id, "user_id", speaker.ID, "error", err)
		sendFeedback(feedback, models.NewWarning(unavailableWarning))
		return nil
	}
	defer stream.Close()

	tr.setState(StateStreaming)
	tr.lastAudio.Store(t.now().UnixNano())
	zap.S().Infow("transcription started", "meeting_id", id, "user_id", speaker.ID)

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		return t.forwardAudio(ctx, tr, audio, stream)
	})
	g.Go(func() error {
		defer cancel()
		return t.consumeEvents(ctx, tr, stream, feedback)
	})
	g.Go(func() error {
		defer cancel()
		return t.watchIdle(ctx, tr, feedback)
	})
	g.Go(func() error {
		<-ctx.Done()
		// unblocks the audio reader and the event consumer
		_ = stream.Close()
		feedback.Close()
		return nil
	})

	err = g.Wait()
	zap.S().Infow("transcription closed", "meeting_id", id, "user_id", speaker.ID)
	return err
}

func (t *Transcripts) forwardAudio(ctx context.Context, tr *transcription, audio AudioSource, stream speech.Stream) error {
	for {
		chunk, err := audio.ReadAudio()
		if err != nil || ctx.Err() != nil {
			return nil
		}
		tr.lastAudio.Store(t.now().UnixNano())
		if err := stream.SendAudio(chunk); err != nil {
			if ctx.Err() == nil {
				zap.S().Warnw("failed to forward audio",
					"meeting_id", tr.sessionID, "user_id", tr.speaker.ID, "error", err)
			}
			return nil
		}
	}
}

func (t *Transcripts) consumeEvents(ctx context.Context, tr *transcription, stream speech.Stream, feedback Peer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-stream.Events():
			if !ok {
				t.streamEnded(ctx, tr, stream.Err(), feedback)
				return nil
			}
			if !t.handleEvent(ctx, tr, ev, feedback) {
				return nil
			}
		}
	}
}

func (t *Transcripts) streamEnded(ctx context.Context, tr *transcription, err error, feedback Peer) {
	if ctx.Err() != nil {
		return
	}
	switch {
	case err == nil:
	case errors.Is(err, speech.ErrIdle):
		sendFeedback(feedback, models.NewWarning(noVoiceWarning))
	default:
		zap.S().Warnw("speech stream failed",
			"meeting_id", tr.sessionID, "user_id", tr.speaker.ID, "error", err)
		sendFeedback(feedback, models.NewWarning(interruptedWarning))
	}
}

// handleEvent returns false when the stream should stop. A stopped or
// replaced stream appends nothing more.
func (t *Transcripts) handleEvent(ctx context.Context, tr *transcription, ev speech.Event, feedback Peer) bool {
	if ctx.Err() != nil {
		return false
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return true
	}
	if !ev.IsFinal {
		sendFeedback(feedback, models.NewInterim(ev.Text))
		return true
	}

	entry := models.TranscriptEntry{
		Timestamp:   t.now(),
		SpeakerID:   tr.speaker.ID,
		SpeakerName: tr.speaker.DisplayName,
		Text:        text,
	}
	if err := t.sessions.AppendTranscript(tr.sessionID, entry); err != nil {
		zap.S().Infow("session no longer accepts transcript entries",
			"meeting_id", tr.sessionID, "user_id", tr.speaker.ID, "error", err)
		return false
	}
	delivered := t.broadcaster.Broadcast(tr.sessionID, models.NewTranscript(entry), tr.speaker.ID)
	zap.S().Debugw("transcript entry broadcast",
		"meeting_id", tr.sessionID, "user_id", tr.speaker.ID, "delivered", delivered)
	return true
}

func (t *Transcripts) watchIdle(ctx context.Context, tr *transcription, feedback Peer) error {
	ticker := time.NewTicker(t.idleTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			last := time.Unix(0, tr.lastAudio.Load())
			if t.now().Sub(last) >= t.idleTimeout {
				zap.S().Infow("no audio received, closing transcription",
					"meeting_id", tr.sessionID, "user_id", tr.speaker.ID)
				sendFeedback(feedback, models.NewWarning(noVoiceWarning))
				return nil
			}
		}
	}
}

func sendFeedback(feedback Peer, env models.Envelope) {
	if err := feedback.Send(env); err != nil {
		zap.S().Debugw("dropped transcription feedback", "user_id", feedback.ID(), "event", env.Kind(), "error", err)
	}
}
