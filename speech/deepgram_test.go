package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func newDeepgramServer(t *testing.T, handle func(r *http.Request, conn *websocket.Conn)) *Deepgram {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(r, conn)
	}))
	t.Cleanup(srv.Close)

	d := NewDeepgram("test-key")
	d.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return d
}

func collect(t *testing.T, s Stream) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("stream did not end")
		}
	}
}

func TestDeepgramConnectNotConfigured(t *testing.T) {
	d := NewDeepgram(" ")
	_, err := d.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDeepgramStreamsResults(t *testing.T) {
	received := make(chan []byte, 1)
	d := newDeepgramServer(t, func(r *http.Request, conn *websocket.Conn) {
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))
		assert.Equal(t, "linear16", r.URL.Query().Get("encoding"))
		assert.Equal(t, "16000", r.URL.Query().Get("sample_rate"))
		assert.Equal(t, "true", r.URL.Query().Get("interim_results"))
		assert.Equal(t, "500", r.URL.Query().Get("endpointing"))

		_, audio, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- audio

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Metadata","request_id":"x"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"objec"}]}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"objection"}]}}`))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	s, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SendAudio([]byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, <-received)

	events := collect(t, s)
	assert.Equal(t, []Event{
		{IsFinal: false, Text: "objec"},
		{IsFinal: true, Text: "objection"},
	}, events)
	assert.NoError(t, s.Err())
}

func TestDeepgramIdleClose(t *testing.T) {
	d := newDeepgramServer(t, func(_ *http.Request, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr,
				"Deepgram did not receive audio data or a text message within the timeout window. See https://dpgr.am/net0001 NET-0001"))
	})

	s, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, collect(t, s))
	assert.ErrorIs(t, s.Err(), ErrIdle)
}

func TestDeepgramProviderFailure(t *testing.T) {
	d := newDeepgramServer(t, func(_ *http.Request, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "bad audio"))
	})

	s, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer s.Close()

	collect(t, s)
	err = s.Err()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIdle)
}

func TestDeepgramCloseIsIdempotent(t *testing.T) {
	closed := make(chan string, 1)
	d := newDeepgramServer(t, func(_ *http.Request, conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			closed <- string(msg)
		}
	})

	s, err := d.Connect(context.Background())
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.JSONEq(t, `{"type":"CloseStream"}`, <-closed)

	collect(t, s)
	assert.NoError(t, s.Err())
	assert.Error(t, s.SendAudio([]byte{0}))
}

func TestDeepgramCloseDoesNotWaitOnStalledWrite(t *testing.T) {
	release := make(chan struct{})
	d := newDeepgramServer(t, func(_ *http.Request, _ *websocket.Conn) {
		// a provider that stops reading
		<-release
	})
	t.Cleanup(func() { close(release) })

	s, err := d.Connect(context.Background())
	require.NoError(t, err)

	writing := make(chan error, 1)
	go func() {
		chunk := make([]byte, 1<<20)
		for {
			if err := s.SendAudio(chunk); err != nil {
				writing <- err
				return
			}
		}
	}()
	// long enough for the socket buffers to fill
	time.Sleep(300 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		_ = s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked behind a stalled audio write")
	}

	select {
	case err := <-writing:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("audio write did not fail after Close")
	}
}
