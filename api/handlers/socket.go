package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api"
	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
	"github.com/linesmerrill/court-session-api/relay"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 1 << 20
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// socketPeer is a relay peer whose queue is written to a websocket by a
// single write pump. Envelopes queued before Close are flushed before the
// connection is closed.
type socketPeer struct {
	*relay.BufferedPeer
	conn      *websocket.Conn
	writeDone chan struct{}
}

func newSocketPeer(id string, conn *websocket.Conn) *socketPeer {
	p := &socketPeer{
		BufferedPeer: relay.NewBufferedPeer(id, relay.DefaultQueueSize),
		conn:         conn,
		writeDone:    make(chan struct{}),
	}
	go p.writePump()
	return p
}

func (p *socketPeer) writePump() {
	defer close(p.writeDone)
	defer p.conn.Close()
	for {
		select {
		case env := <-p.Outbound():
			if err := p.write(env); err != nil {
				zap.S().Debugw("socket write failed", "user_id", p.ID(), "error", err)
				p.Close()
				return
			}
		case <-p.Done():
			for {
				select {
				case env := <-p.Outbound():
					if p.write(env) != nil {
						return
					}
				default:
					_ = p.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}

func (p *socketPeer) write(env models.Envelope) error {
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(env)
}

// wait blocks until the connection has been flushed and closed
func (p *socketPeer) wait() {
	<-p.writeDone
}

// signalReader reads signaling frames off a websocket
type signalReader struct {
	conn *websocket.Conn
}

func (s signalReader) Receive() (models.SignalMessage, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return models.SignalMessage{}, err
	}
	var msg models.SignalMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return models.SignalMessage{}, fmt.Errorf("%w: %v", relay.ErrMalformedMessage, err)
	}
	return msg, nil
}

// audioReader reads binary audio frames off a websocket. Text frames are
// client keepalives and are skipped.
type audioReader struct {
	conn *websocket.Conn
}

func (a audioReader) ReadAudio() ([]byte, error) {
	for {
		kind, data, err := a.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func send(peer relay.Peer, env models.Envelope) {
	if err := peer.Send(env); err != nil {
		zap.S().Debugw("dropped socket message", "user_id", peer.ID(), "event", env.Kind(), "error", err)
	}
}

// trackSocket counts an open socket and returns the matching release
func trackSocket(mc *api.MetricsCollector) func() {
	if mc == nil {
		return func() {}
	}
	mc.SocketOpened()
	return mc.SocketClosed
}

// Sockets exported for testing purposes
type Sockets struct {
	Sessions    *registry.Sessions
	Signaling   *relay.Signaling
	Transcripts *relay.Transcripts
	Metrics     *api.MetricsCollector
}

// SignalingSocketHandler relays signaling payloads for one participant
func (s Sockets) SignalingSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, participantID, ok := s.socketTarget(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("failed to upgrade signaling socket", "meeting_id", sessionID, "error", err)
		return
	}
	defer trackSocket(s.Metrics)()
	conn.SetReadLimit(maxFrameSize)

	peer := newSocketPeer(participantID, conn)
	if err := s.Signaling.Serve(r.Context(), sessionID, peer, signalReader{conn: conn}); err != nil {
		send(peer, models.NewWarning(socketWarning(err)))
	}
	peer.Close()
	peer.wait()
}

// TranscribeSocketHandler streams a participant's audio into the transcript
func (s Sockets) TranscribeSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, participantID, ok := s.socketTarget(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("failed to upgrade transcription socket", "meeting_id", sessionID, "error", err)
		return
	}
	defer trackSocket(s.Metrics)()
	conn.SetReadLimit(maxFrameSize)

	feedback := newSocketPeer(participantID, conn)
	if err := s.Transcripts.Serve(r.Context(), sessionID, participantID, audioReader{conn: conn}, feedback); err != nil {
		send(feedback, models.NewWarning(socketWarning(err)))
	}
	feedback.Close()
	feedback.wait()
}

// socketTarget rejects sockets for unknown or ended sessions, and for
// participants who never joined, with a plain HTTP error before the upgrade
func (s Sockets) socketTarget(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	sessionID := registry.Normalize(mux.Vars(r)["session_id"])
	participantID := mux.Vars(r)["participant_id"]
	if participantID == "" {
		writeError("participant id is required", w, registry.ErrValidation)
		return "", "", false
	}
	if err := s.Sessions.CheckActive(sessionID); err != nil {
		writeError(fmt.Sprintf("meeting %s is not available", sessionID), w, err)
		return "", "", false
	}
	snapshot, err := s.Sessions.Get(sessionID)
	if err != nil {
		writeError(fmt.Sprintf("meeting %s is not available", sessionID), w, err)
		return "", "", false
	}
	if !lo.ContainsBy(snapshot.Participants, func(p models.Identity) bool { return p.ID == participantID }) {
		writeError(fmt.Sprintf("participant %s is not in meeting %s", participantID, sessionID), w,
			fmt.Errorf("participant %s: %w", participantID, registry.ErrNotFound))
		return "", "", false
	}
	return sessionID, participantID, true
}

func socketWarning(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "Meeting or participant not found."
	case http.StatusGone:
		return "This meeting has ended."
	default:
		return "The connection could not be set up."
	}
}
