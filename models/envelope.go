package models

import "encoding/json"

// EventKind tags every message pushed to a client socket. The tags and field
// names below are the client wire contract.
type EventKind string

// Envelope kinds
const (
	EventRelay                EventKind = "relay"
	EventJoined               EventKind = "joined"
	EventLeft                 EventKind = "left"
	EventExistingParticipants EventKind = "existing_participants"
	EventTranscript           EventKind = "transcript"
	EventInterim              EventKind = "interim"
	EventWarning              EventKind = "warning"
	EventAnswer               EventKind = "answer"
)

// Envelope is an outbound client message. Each concrete envelope carries its
// own tag in the "event" field.
type Envelope interface {
	Kind() EventKind
}

// RelayEnvelope forwards an opaque signaling payload from one peer to another
type RelayEnvelope struct {
	Event   EventKind       `json:"event"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// PresenceEnvelope announces a peer joining or leaving the signaling relay
type PresenceEnvelope struct {
	Event         EventKind `json:"event"`
	ParticipantID string    `json:"participant_id"`
}

// ExistingParticipantsEnvelope is the snapshot of peers already registered when
// a new peer connects
type ExistingParticipantsEnvelope struct {
	Event          EventKind `json:"event"`
	ParticipantIDs []string  `json:"participant_ids"`
}

// TranscriptEnvelope broadcasts a finalized transcript entry
type TranscriptEnvelope struct {
	Event EventKind       `json:"event"`
	Entry TranscriptEntry `json:"entry"`
}

// InterimEnvelope is live caption feedback sent only to the speaker
type InterimEnvelope struct {
	Event EventKind `json:"event"`
	Text  string    `json:"text"`
}

// WarningEnvelope reports a degraded collaborator to the client that triggered it
type WarningEnvelope struct {
	Event   EventKind `json:"event"`
	Message string    `json:"message"`
}

// AnswerEnvelope carries an assistant answer back over the chat socket
type AnswerEnvelope struct {
	Event    EventKind `json:"event"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}

func (RelayEnvelope) Kind() EventKind                { return EventRelay }
func (e PresenceEnvelope) Kind() EventKind           { return e.Event }
func (ExistingParticipantsEnvelope) Kind() EventKind { return EventExistingParticipants }
func (TranscriptEnvelope) Kind() EventKind           { return EventTranscript }
func (InterimEnvelope) Kind() EventKind              { return EventInterim }
func (WarningEnvelope) Kind() EventKind              { return EventWarning }
func (AnswerEnvelope) Kind() EventKind               { return EventAnswer }

// NewRelay builds a relay envelope
func NewRelay(from string, payload json.RawMessage) RelayEnvelope {
	return RelayEnvelope{Event: EventRelay, From: from, Payload: payload}
}

// NewJoined builds a joined presence envelope
func NewJoined(participantID string) PresenceEnvelope {
	return PresenceEnvelope{Event: EventJoined, ParticipantID: participantID}
}

// NewLeft builds a left presence envelope
func NewLeft(participantID string) PresenceEnvelope {
	return PresenceEnvelope{Event: EventLeft, ParticipantID: participantID}
}

// NewExistingParticipants builds the snapshot envelope. A nil slice is sent as [].
func NewExistingParticipants(ids []string) ExistingParticipantsEnvelope {
	if ids == nil {
		ids = []string{}
	}
	return ExistingParticipantsEnvelope{Event: EventExistingParticipants, ParticipantIDs: ids}
}

// NewTranscript builds a transcript broadcast envelope
func NewTranscript(entry TranscriptEntry) TranscriptEnvelope {
	return TranscriptEnvelope{Event: EventTranscript, Entry: entry}
}

// NewInterim builds an interim caption envelope
func NewInterim(text string) InterimEnvelope {
	return InterimEnvelope{Event: EventInterim, Text: text}
}

// NewWarning builds a warning envelope
func NewWarning(message string) WarningEnvelope {
	return WarningEnvelope{Event: EventWarning, Message: message}
}

// NewAnswer builds an assistant answer envelope
func NewAnswer(question, answer string) AnswerEnvelope {
	return AnswerEnvelope{Event: EventAnswer, Question: question, Answer: answer}
}

// SignalMessage is what a peer sends on its signaling socket. Only the target
// is read by the server; the payload is passed through untouched.
type SignalMessage struct {
	TargetParticipantID string          `json:"target_participant_id"`
	Payload             json.RawMessage `json:"payload"`
}
