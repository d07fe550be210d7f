// Package central implements the Jamulus directory ("central") server: it
// tracks registered audio servers in memory and answers CLM_REQ_SERVER_LIST
// with the current snapshot.
package central

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/jamproto"
	"github.com/jamulus-net/jamdir/metrics"
)

// pollInterval bounds how long a single Receive call blocks, so Run can
// observe context cancellation promptly even with no traffic.
const pollInterval = time.Second

// Server holds the directory's in-memory registration map and drives its
// receive loop. All map mutation is confined to the goroutine running Run,
// matching the single-threaded, pinned-state model in the concurrency
// specification; Snapshot and Len may read the map from other goroutines
// under mu.
type Server struct {
	ep *endpoint.Endpoint

	mu            sync.Mutex // guards registrations for Snapshot, called from other goroutines (e.g. tests, csv export)
	registrations map[PeerKey]*Registration
}

// New wraps ep as a directory server.
func New(ep *endpoint.Endpoint) *Server {
	return &Server{
		ep:            ep,
		registrations: make(map[PeerKey]*Registration),
	}
}

// Run drives the receive loop until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		msg, err := s.ep.Receive(pollInterval)
		if err != nil {
			if err == endpoint.ErrTimeout {
				continue
			}
			log.Println("central: receive error:", err)
			continue
		}
		s.handle(msg)
	}
	return ctx.Err()
}

func (s *Server) handle(msg *endpoint.Message) {
	switch msg.Name {
	case "AUDIO":
		if err := s.ep.Send(msg.Peer, "CLM_DISCONNECTION", 0, jamproto.Values{}); err != nil {
			log.Println("central: failed to refuse audio from", msg.Peer, ":", err)
		}

	case "CLM_REGISTER_SERVER", "CLM_REGISTER_SERVER_EX":
		v, ok := msg.Payload.(jamproto.Values)
		if !ok {
			return
		}
		reg := registrationFromValues(v, msg.Peer.IP)
		key := keyFor(msg.Peer)

		s.mu.Lock()
		s.registrations[key] = reg
		s.mu.Unlock()
		metrics.CentralRegistrationCount.Inc()

		if err := s.ep.Send(msg.Peer, "CLM_REGISTER_SERVER_RESP", 0, jamproto.Values{"status": uint8(0)}); err != nil {
			log.Println("central: failed to ack registration from", msg.Peer, ":", err)
		}

	case "CLM_UNREGISTER_SERVER":
		key := keyFor(msg.Peer)
		s.mu.Lock()
		delete(s.registrations, key)
		s.mu.Unlock()

	case "CLM_REQ_SERVER_LIST":
		metrics.CentralListRequestCount.Inc()
		if err := s.ep.Send(msg.Peer, "CLM_SERVER_LIST", 0, s.Snapshot()); err != nil {
			log.Println("central: failed to send server list to", msg.Peer, ":", err)
		}
	}
}

// Snapshot returns the current directory as a CLM_SERVER_LIST payload: a
// synthetic self entry (ip 0.0.0.0, port 0, permanent 0) followed by every
// live registration in no particular order.
func (s *Server) Snapshot() []jamproto.Values {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]jamproto.Values, 0, len(s.registrations)+1)
	out = append(out, selfEntry())
	for _, r := range s.registrations {
		out = append(out, r.toListEntry())
	}
	return out
}

// Len reports the number of live registrations, excluding the self entry.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations)
}
