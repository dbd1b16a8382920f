package relay

import (
	"errors"
	"sync"

	"github.com/linesmerrill/court-session-api/models"
)

var (
	// ErrPeerClosed is returned when sending to a peer whose connection is gone
	ErrPeerClosed = errors.New("peer closed")
	// ErrSlowConsumer is returned when a peer's outbound queue is full. The
	// message is dropped for that peer only.
	ErrSlowConsumer = errors.New("peer outbound queue full")
)

// DefaultQueueSize is the outbound buffer of a socket-backed peer
const DefaultQueueSize = 64

// Peer is one participant's outbound delivery channel
type Peer interface {
	ID() string
	// Send queues env for delivery and must never block
	Send(env models.Envelope) error
	Close()
	Done() <-chan struct{}
}

// BufferedPeer is a Peer backed by a bounded FIFO queue. A transport drains
// Outbound and writes to the wire; per-peer order is preserved.
type BufferedPeer struct {
	id   string
	out  chan models.Envelope
	done chan struct{}
	once sync.Once
}

// NewBufferedPeer creates a peer with room for size queued envelopes
func NewBufferedPeer(id string, size int) *BufferedPeer {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &BufferedPeer{
		id:   id,
		out:  make(chan models.Envelope, size),
		done: make(chan struct{}),
	}
}

// ID returns the participant id the peer belongs to
func (p *BufferedPeer) ID() string { return p.id }

// Send implements Peer
func (p *BufferedPeer) Send(env models.Envelope) error {
	select {
	case <-p.done:
		return ErrPeerClosed
	default:
	}
	select {
	case p.out <- env:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Outbound is the queue a transport writes from
func (p *BufferedPeer) Outbound() <-chan models.Envelope { return p.out }

// Close marks the peer closed. It is safe to call more than once.
func (p *BufferedPeer) Close() {
	p.once.Do(func() { close(p.done) })
}

// Done is closed once the peer is closed
func (p *BufferedPeer) Done() <-chan struct{} { return p.done }
