package relay

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

// ErrMalformedMessage is returned by an Inbound for a frame that could not be
// decoded. The connection stays open.
var ErrMalformedMessage = errors.New("malformed signaling message")

// SessionState is the slice of the session registry the relays read
type SessionState interface {
	CheckActive(sessionID string) error
}

// Inbound yields the signaling messages a peer sends
type Inbound interface {
	Receive() (models.SignalMessage, error)
}

// Signaling routes opaque signaling payloads between the peers of a session
// and announces presence. It is also the broadcast set for transcript entries.
type Signaling struct {
	sessions SessionState

	mu   sync.Mutex
	hubs map[string]*hub
}

// hub is the channel registry of one session. Sends happen under mu; they
// never block, so a slow peer cannot stall the others.
type hub struct {
	mu    sync.Mutex
	peers map[string]Peer
}

// NewSignaling creates a signaling relay over the given session registry
func NewSignaling(sessions SessionState) *Signaling {
	return &Signaling{sessions: sessions, hubs: make(map[string]*hub)}
}

func (s *Signaling) hub(sessionID string, create bool) *hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[sessionID]
	if !ok && create {
		h = &hub{peers: make(map[string]Peer)}
		s.hubs[sessionID] = h
	}
	return h
}

// Register adds peer to the session's registry, sends it the ids of the peers
// already present and announces it to them. A second connection for the same
// participant replaces and closes the first.
func (s *Signaling) Register(sessionID string, peer Peer) error {
	id := registry.Normalize(sessionID)
	if err := s.sessions.CheckActive(id); err != nil {
		return err
	}

	h := s.hub(id, true)
	h.mu.Lock()
	defer h.mu.Unlock()

	previous, reconnect := h.peers[peer.ID()]
	h.peers[peer.ID()] = peer
	if reconnect && previous != peer {
		previous.Close()
	}

	others := lo.Without(lo.Keys(h.peers), peer.ID())
	slices.Sort(others)
	if err := peer.Send(models.NewExistingParticipants(others)); err != nil {
		zap.S().Warnw("failed to send participant snapshot",
			"meeting_id", id, "user_id", peer.ID(), "error", err)
	}

	if !reconnect {
		h.broadcastLocked(id, models.NewJoined(peer.ID()), peer.ID())
	}
	zap.S().Infow("peer connected to signaling",
		"meeting_id", id, "user_id", peer.ID(), "peers", len(h.peers))
	return nil
}

// Unregister removes peer and tells the remaining peers it left. A peer that
// was already replaced by a newer connection is ignored.
func (s *Signaling) Unregister(sessionID string, peer Peer) {
	id := registry.Normalize(sessionID)
	peer.Close()

	h := s.hub(id, false)
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.peers[peer.ID()]; !ok || current != peer {
		return
	}
	delete(h.peers, peer.ID())
	h.broadcastLocked(id, models.NewLeft(peer.ID()), "")
	zap.S().Infow("peer disconnected from signaling",
		"meeting_id", id, "user_id", peer.ID(), "peers", len(h.peers))
}

// Disconnect closes and removes a participant's peer, announcing that it
// left. It reports whether the participant was connected.
func (s *Signaling) Disconnect(sessionID, participantID string) bool {
	id := registry.Normalize(sessionID)
	h := s.hub(id, false)
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	peer, ok := h.peers[participantID]
	if !ok {
		return false
	}
	delete(h.peers, participantID)
	peer.Close()
	h.broadcastLocked(id, models.NewLeft(participantID), "")
	zap.S().Infow("peer removed from signaling",
		"meeting_id", id, "user_id", participantID, "peers", len(h.peers))
	return true
}

// Route forwards msg from one peer to its target. Messages for unknown
// targets or ended sessions are dropped; the sender is never told.
func (s *Signaling) Route(sessionID, from string, msg models.SignalMessage) bool {
	id := registry.Normalize(sessionID)
	if err := s.sessions.CheckActive(id); err != nil {
		zap.S().Debugw("dropping signaling message", "meeting_id", id, "from", from, "error", err)
		return false
	}
	h := s.hub(id, false)
	if h == nil {
		return false
	}

	h.mu.Lock()
	target, ok := h.peers[msg.TargetParticipantID]
	h.mu.Unlock()
	if !ok {
		zap.S().Debugw("signaling target not connected",
			"meeting_id", id, "from", from, "target", msg.TargetParticipantID)
		return false
	}

	if err := target.Send(models.NewRelay(from, msg.Payload)); err != nil {
		zap.S().Warnw("failed to relay signaling message",
			"meeting_id", id, "from", from, "target", target.ID(), "error", err)
		return false
	}
	return true
}

// Broadcast sends env to every registered peer of the session except the one
// named by except. Failed recipients are skipped. It returns how many peers
// accepted the envelope.
func (s *Signaling) Broadcast(sessionID string, env models.Envelope, except string) int {
	id := registry.Normalize(sessionID)
	h := s.hub(id, false)
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcastLocked(id, env, except)
}

func (h *hub) broadcastLocked(sessionID string, env models.Envelope, except string) int {
	delivered := 0
	for pid, p := range h.peers {
		if pid == except {
			continue
		}
		if err := p.Send(env); err != nil {
			zap.S().Warnw("broadcast skipped peer",
				"meeting_id", sessionID, "user_id", pid, "event", env.Kind(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Peers returns the sorted ids of the peers registered for the session
func (s *Signaling) Peers(sessionID string) []string {
	h := s.hub(registry.Normalize(sessionID), false)
	if h == nil {
		return nil
	}
	h.mu.Lock()
	ids := lo.Keys(h.peers)
	h.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Drop closes and forgets every peer of a session that has been swept
func (s *Signaling) Drop(sessionID string) {
	id := registry.Normalize(sessionID)
	s.mu.Lock()
	h, ok := s.hubs[id]
	delete(s.hubs, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for pid, p := range h.peers {
		p.Close()
		delete(h.peers, pid)
	}
}

// Serve runs one signaling connection: register, route until the inbound side
// fails, then unregister. A closed connection is a normal return.
func (s *Signaling) Serve(ctx context.Context, sessionID string, peer Peer, in Inbound) error {
	if err := s.Register(sessionID, peer); err != nil {
		return err
	}
	defer s.Unregister(sessionID, peer)

	go func() {
		select {
		case <-ctx.Done():
			peer.Close()
		case <-peer.Done():
		}
	}()

	for {
		msg, err := in.Receive()
		if errors.Is(err, ErrMalformedMessage) {
			zap.S().Debugw("ignoring malformed signaling frame", "user_id", peer.ID(), "error", err)
			continue
		}
		if err != nil {
			zap.S().Debugw("signaling connection closed", "user_id", peer.ID(), "error", err)
			return nil
		}
		if msg.TargetParticipantID == "" {
			continue
		}
		s.Route(sessionID, peer.ID(), msg)
	}
}
