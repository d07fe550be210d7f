// Package dummyclient implements a minimal reference client: it registers
// presence on a real Jamulus server with a silent audio frame, answers the
// server's standard interrogation with fixed canned payloads, and echoes
// audio back, enough to appear present without any actual audio pipeline.
package dummyclient

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/jamproto"
)

// silentFrame is the 22-byte opaque AUDIO payload a dummy client sends to
// register its presence: 0x00 0xFF 0xFE followed by nineteen zero bytes.
var silentFrame = append([]byte{0x00, 0xFF, 0xFE}, make([]byte, 19)...)

// drainDuration is how long Run keeps reading (and discarding) datagrams
// after sending CLM_DISCONNECTION on shutdown, giving the server a chance
// to answer before the socket closes.
const drainDuration = time.Second

type cannedReply struct {
	name    string
	payload jamproto.Values
}

// cannedReplies maps each interrogation message a real server sends to
// the fixed response this client answers with.
var cannedReplies = map[string]cannedReply{
	"REQ_SPLIT_MESS_SUPPORT": {"SPLIT_MESS_SUPPORTED", jamproto.Values{}},
	"REQ_NETW_TRANSPORT_PROPS": {"NETW_TRANSPORT_PROPS", jamproto.Values{
		"base_netw_size":  uint32(512),
		"block_size_fact": uint16(2),
		"num_chan":        uint8(2),
		"sam_rate":        uint32(48000),
		"audiocod_type":   uint16(0),
		"flags":           uint16(0),
		"audiocod_arg":    uint32(0),
	}},
	"REQ_JITT_BUF_SIZE": {"JITT_BUF_SIZE", jamproto.Values{"blocks": uint16(4)}},
	"REQ_CHANNEL_INFOS": {"CHANNEL_INFOS", jamproto.Values{
		"country":    uint16(0),
		"instrument": uint32(0),
		"skill":      uint8(0),
		"name":       "dummy",
		"city":       "",
	}},
}

// Client drives the dummy-client receive loop against one configured
// server.
type Client struct {
	ep     *endpoint.Endpoint
	server *net.UDPAddr
}

// New attaches the dummy client to ep and the given server address.
func New(ep *endpoint.Endpoint, server *net.UDPAddr) *Client {
	return &Client{ep: ep, server: server}
}

// Register sends the silent AUDIO registration frame.
func (c *Client) Register() error {
	return c.ep.Send(c.server, "AUDIO", 0, silentFrame)
}

// Run drives the receive loop, answering interrogation and echoing audio,
// until ctx is canceled. On cancellation it sends CLM_DISCONNECTION and
// drains incoming datagrams for drainDuration before returning.
func (c *Client) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		msg, err := c.ep.Receive(time.Second)
		if err != nil {
			if err == endpoint.ErrTimeout {
				continue
			}
			log.Println("dummyclient: receive error:", err)
			continue
		}
		c.handle(msg)
	}

	if err := c.ep.Send(c.server, "CLM_DISCONNECTION", 0, jamproto.Values{}); err != nil {
		log.Println("dummyclient: failed to send disconnection:", err)
	}
	c.drain()
	return ctx.Err()
}

func (c *Client) handle(msg *endpoint.Message) {
	if msg.Name == "AUDIO" {
		data, ok := msg.Payload.([]byte)
		if !ok {
			return
		}
		if err := c.ep.Send(msg.Peer, "AUDIO", 0, data); err != nil {
			log.Println("dummyclient: failed to echo audio:", err)
		}
		return
	}

	reply, ok := cannedReplies[msg.Name]
	if !ok {
		return
	}
	if err := c.ep.Send(msg.Peer, reply.name, 0, reply.payload); err != nil {
		log.Println("dummyclient: failed to answer", msg.Name, ":", err)
	}
}

func (c *Client) drain() {
	deadline := time.Now().Add(drainDuration)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if _, err := c.ep.Receive(remaining); err != nil {
			return
		}
	}
}
