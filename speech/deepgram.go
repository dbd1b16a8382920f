package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultDeepgramURL is the Deepgram live transcription endpoint
const DefaultDeepgramURL = "wss://api.deepgram.com/v1/listen"

const (
	// writeWait bounds one audio write to the provider
	writeWait = 10 * time.Second
	// closeWait bounds the CloseStream flush request sent on Close
	closeWait = time.Second
)

// Deepgram opens live transcription streams against Deepgram
type Deepgram struct {
	APIKey     string
	URL        string
	Model      string
	SampleRate int
	// Endpointing is the silence in milliseconds that finalises an utterance
	Endpointing int

	dialer *websocket.Dialer
}

// NewDeepgram returns a recognizer with the settings the courtroom clients
// stream with: 16 kHz mono linear16 audio and interim results.
func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		APIKey:      apiKey,
		URL:         DefaultDeepgramURL,
		Model:       "nova-2",
		SampleRate:  16000,
		Endpointing: 500,
		dialer:      websocket.DefaultDialer,
	}
}

func (d *Deepgram) endpoint() (string, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("parse deepgram url: %w", err)
	}
	q := u.Query()
	q.Set("model", d.Model)
	q.Set("language", "en-US")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprint(d.SampleRate))
	q.Set("channels", "1")
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("interim_results", "true")
	q.Set("endpointing", fmt.Sprint(d.Endpointing))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect implements Recognizer
func (d *Deepgram) Connect(ctx context.Context) (Stream, error) {
	if strings.TrimSpace(d.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	endpoint, err := d.endpoint()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+d.APIKey)
	conn, resp, err := d.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial deepgram: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial deepgram: %w", err)
	}

	s := &deepgramStream{
		conn:   conn,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	zap.S().Debugw("deepgram stream opened", "model", d.Model)
	return s, nil
}

type deepgramResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type deepgramStream struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

func (s *deepgramStream) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(s.translate(err))
			return
		}
		var res deepgramResult
		if err := json.Unmarshal(data, &res); err != nil {
			zap.S().Debugw("skipping undecodable deepgram frame", "error", err)
			continue
		}
		if res.Type != "" && res.Type != "Results" {
			continue
		}
		if len(res.Channel.Alternatives) == 0 {
			continue
		}
		select {
		case s.events <- Event{IsFinal: res.IsFinal, Text: res.Channel.Alternatives[0].Transcript}:
		case <-s.done:
			return
		}
	}
}

// translate maps a read failure to the stream's terminal error. Deepgram
// closes idle streams with 1011 and a NET-0001 reason.
func (s *deepgramStream) translate(err error) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return nil
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code == websocket.CloseInternalServerErr &&
		strings.Contains(ce.Text, "NET-0001") {
		return ErrIdle
	}
	return fmt.Errorf("deepgram stream: %w", err)
}

func (s *deepgramStream) setErr(err error) {
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()
}

func (s *deepgramStream) SendAudio(chunk []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.done:
		return websocket.ErrCloseSent
	default:
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

func (s *deepgramStream) Events() <-chan Event { return s.events }

func (s *deepgramStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close asks Deepgram to flush and releases the connection. The flush
// request is skipped when an audio write is still in flight, so Close never
// waits on a provider that stopped reading. It is safe to call more than once.
func (s *deepgramStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.writeMu.TryLock() {
			_ = s.conn.SetWriteDeadline(time.Now().Add(closeWait))
			_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
			s.writeMu.Unlock()
		}
		err = s.conn.Close()
	})
	return err
}
