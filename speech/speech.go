// Package speech is the client side of the streaming speech-to-text service.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrIdle is reported by a stream the provider closed for lack of audio
	ErrIdle = errors.New("speech stream idle")
	// ErrNotConfigured is returned by Connect when no provider credentials are set
	ErrNotConfigured = errors.New("speech recognizer not configured")
)

// Event is one recognition result. Interim events may be revised; final
// events are not.
type Event struct {
	IsFinal bool   `json:"is_final"`
	Text    string `json:"text"`
}

// Recognizer opens recognition streams
type Recognizer interface {
	Connect(ctx context.Context) (Stream, error)
}

// Stream is one open recognition session. Events is closed when the stream
// ends; Err then reports why, or nil for a normal close.
type Stream interface {
	SendAudio(chunk []byte) error
	Events() <-chan Event
	Err() error
	Close() error
}
