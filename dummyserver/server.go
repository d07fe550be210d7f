// Package dummyserver implements a minimal reference server: it tracks
// connected clients by peer, emits the standard welcome-and-interrogation
// handshake on first contact, answers pings and metadata requests from
// stored state, forgets a client on CLM_DISCONNECTION, and relays
// CLM_SEND_EMPTY_MESSAGE — enough for a client under test to see realistic
// server behavior without any real audio mixing.
package dummyserver

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/jamproto"
)

// PeerKey is the map key for a connected client's UDP endpoint.
type PeerKey struct {
	IP   [4]byte
	Port int
}

func keyFor(addr *net.UDPAddr) PeerKey {
	var k PeerKey
	copy(k.IP[:], addr.IP.To4())
	k.Port = addr.Port
	return k
}

// clientState is what this server remembers about one connected client.
type clientState struct {
	ID   uint8
	Name string
	City string
}

// dummyServerOS and dummyServerVersion are this server's own answer to
// CLM_REQ_VERSION_AND_OS. They describe the server, not any one connected
// client, so they are fixed constants rather than state read back off a
// client that may never have sent VERSION_AND_OS at all.
const (
	dummyServerOS      = uint8(2) // jamulus.py: os=2 (kOSWindows)
	dummyServerVersion = "go-dummyserver-test"
)

// welcomeMessage is sent as CHAT_TEXT to a new client right after the
// interrogation probes, without waiting for the client's answers.
const welcomeMessage = "<b>Server Welcome Message:</b> This is a Test Server"

// handshakeMessages are sent, in order, the first time audio is seen from
// a peer this server has not met before, after CLIENT_ID and
// CLM_CONN_CLIENTS_LIST.
var handshakeMessages = []struct {
	name    string
	payload jamproto.Values
}{
	{"REQ_SPLIT_MESS_SUPPORT", jamproto.Values{}},
	{"REQ_NETW_TRANSPORT_PROPS", jamproto.Values{}},
	{"REQ_JITT_BUF_SIZE", jamproto.Values{}},
	{"REQ_CHANNEL_INFOS", jamproto.Values{}},
}

// Server drives the dummy-server receive loop.
type Server struct {
	ep *endpoint.Endpoint

	mu      sync.Mutex // guards clients/order; Len is read from other goroutines (e.g. tests)
	clients map[PeerKey]*clientState
	order   []PeerKey // insertion order, assigns sequential client ids
}

// New wraps ep as a dummy server.
func New(ep *endpoint.Endpoint) *Server {
	return &Server{ep: ep, clients: make(map[PeerKey]*clientState)}
}

// Register sends CLM_REGISTER_SERVER to central, the same registration a
// real audio server would send, so this dummy server appears in a
// directory's listing while it runs. maxClients is carried verbatim into
// the registration payload; this server enforces no client limit itself.
func (s *Server) Register(central *net.UDPAddr, name string, advertisedPort int, maxClients uint8) error {
	return s.ep.Send(central, "CLM_REGISTER_SERVER", 0, jamproto.Values{
		"port":             uint16(advertisedPort),
		"country_id":       uint16(0),
		"max_clients":      maxClients,
		"permanent":        uint8(0),
		"name":             name,
		"internal_address": "",
		"city":             "",
	})
}

// Unregister sends CLM_UNREGISTER_SERVER to central, best-effort, on
// shutdown.
func (s *Server) Unregister(central *net.UDPAddr) error {
	return s.ep.Send(central, "CLM_UNREGISTER_SERVER", 0, jamproto.Values{})
}

// Run drives the receive loop until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		msg, err := s.ep.Receive(time.Second)
		if err != nil {
			if err == endpoint.ErrTimeout {
				continue
			}
			log.Println("dummyserver: receive error:", err)
			continue
		}
		s.handle(msg)
	}
	return ctx.Err()
}

func (s *Server) handle(msg *endpoint.Message) {
	switch msg.Name {
	case "AUDIO":
		key := keyFor(msg.Peer)
		s.mu.Lock()
		_, known := s.clients[key]
		var newID uint8
		if !known {
			newID = uint8(len(s.order))
		}
		s.mu.Unlock()
		if !known {
			if err := s.ep.Send(msg.Peer, "CLIENT_ID", 0, jamproto.Values{"id": newID}); err != nil {
				log.Println("dummyserver: failed to send client id:", err)
			}
			if err := s.ep.Send(msg.Peer, "CLM_CONN_CLIENTS_LIST", 0, s.connClientsList()); err != nil {
				log.Println("dummyserver: failed to send conn clients list:", err)
			}

			s.mu.Lock()
			s.clients[key] = &clientState{ID: newID}
			s.order = append(s.order, key)
			s.mu.Unlock()

			for _, h := range handshakeMessages {
				if err := s.ep.Send(msg.Peer, h.name, 0, h.payload); err != nil {
					log.Println("dummyserver: handshake probe failed:", err)
				}
			}
			if err := s.ep.Send(msg.Peer, "CHAT_TEXT", 0, jamproto.Values{"string": welcomeMessage}); err != nil {
				log.Println("dummyserver: failed to send welcome message:", err)
			}
		}

	case "CLM_DISCONNECTION":
		key := keyFor(msg.Peer)
		s.mu.Lock()
		if _, ok := s.clients[key]; ok {
			delete(s.clients, key)
			for i, k := range s.order {
				if k == key {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		}
		s.mu.Unlock()

	case "CLM_PING_MS", "CLM_PING_MS_WITHNUMCLIENTS":
		if err := s.ep.Send(msg.Peer, msg.Name, 0, msg.Payload); err != nil {
			log.Println("dummyserver: failed to echo ping:", err)
		}

	case "VERSION_AND_OS":
		v, ok := msg.Payload.(jamproto.Values)
		if !ok {
			return
		}
		log.Printf("dummyserver: %s reports os=%v version=%v", msg.Peer, v["os"], v["version"])

	case "CHANNEL_INFOS":
		v, ok := msg.Payload.(jamproto.Values)
		if !ok {
			return
		}
		s.mu.Lock()
		st := s.clients[keyFor(msg.Peer)]
		if st != nil {
			st.Name, _ = v["name"].(string)
			st.City, _ = v["city"].(string)
		}
		s.mu.Unlock()

	case "CLM_SEND_EMPTY_MESSAGE":
		v, ok := msg.Payload.(jamproto.Values)
		if !ok {
			return
		}
		ip, _ := v["ip"].(net.IP)
		port, _ := v["port"].(uint16)
		dst := &net.UDPAddr{IP: ip, Port: int(port)}
		if err := s.ep.Send(dst, "CLM_EMPTY_MESSAGE", 0, jamproto.Values{}); err != nil {
			log.Println("dummyserver: failed to relay empty message to", dst, ":", err)
		}

	case "CLM_REQ_VERSION_AND_OS":
		if err := s.ep.Send(msg.Peer, "CLM_VERSION_AND_OS", 0, jamproto.Values{
			"os": dummyServerOS, "version": dummyServerVersion,
		}); err != nil {
			log.Println("dummyserver: failed to answer version/os:", err)
		}

	case "CLM_REQ_CONN_CLIENTS_LIST":
		if err := s.ep.Send(msg.Peer, "CLM_CONN_CLIENTS_LIST", 0, s.connClientsList()); err != nil {
			log.Println("dummyserver: failed to answer conn clients list:", err)
		}
	}
}

// connClientsList snapshots every known client's registration fields in
// join order, the payload shape CLM_CONN_CLIENTS_LIST carries.
func (s *Server) connClientsList() []jamproto.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]jamproto.Values, 0, len(s.order))
	for _, key := range s.order {
		st := s.clients[key]
		out = append(out, jamproto.Values{
			"id":         st.ID,
			"country":    uint16(0),
			"instrument": uint32(0),
			"skill":      uint8(0),
			"zero":       uint32(0),
			"name":       st.Name,
			"city":       st.City,
		})
	}
	return out
}

// Len reports the number of clients currently known: those seen so far
// minus those that have sent CLM_DISCONNECTION.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
