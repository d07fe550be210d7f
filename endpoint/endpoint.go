package endpoint

import (
	"context"
	"errors"
	"log"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/m-lab/go/logx"
	"golang.org/x/sys/unix"

	"github.com/jamulus-net/jamdir/jamproto"
	"github.com/jamulus-net/jamdir/metrics"
)

// ErrTimeout is returned by Receive when the deadline elapses before a
// datagram arrives.
var ErrTimeout = errors.New("endpoint: receive timeout")

// audioSchema is the one-field schema used for the unframed AUDIO
// pseudo-message: a bare opaque payload with no main frame or CRC.
var audioSchema = jamproto.Schema{{"data", jamproto.Rest}}

var decodeErrorLog = logx.NewLogEvery(nil, time.Second)

// Message is what Receive hands back: the sender, the decoded message
// name, its sequence count (nil for AUDIO, which carries none), and its
// payload (a jamproto.Values, a []jamproto.Values for a repeatable kind,
// or a raw []byte for AUDIO).
type Message struct {
	Peer    *net.UDPAddr
	Name    string
	Count   *uint8
	Payload interface{}
}

// Endpoint is a thin wrapper over a bound UDP socket that speaks the
// Jamulus wire protocol: it classifies inbound datagrams as protocol
// frames or raw audio, and automatically acknowledges connected-session
// messages.
type Endpoint struct {
	conn *net.UDPConn
	cfg  Config
}

// New binds a UDP socket per cfg and returns the Endpoint that owns it.
// Passing LocalPort 0 binds an ephemeral port, which unit tests use to
// avoid colliding on DefaultPort.
func New(cfg Config) (*Endpoint, error) {
	lc := net.ListenConfig{}
	if cfg.ReuseAddr {
		lc.Control = reuseAddrControl
	}
	pc, err := lc.ListenPacket(context.Background(), "udp4", udpAddr(cfg.LocalPort))
	if err != nil {
		return nil, err
	}
	return &Endpoint{conn: pc.(*net.UDPConn), cfg: cfg}, nil
}

// LocalAddr returns the address the endpoint's socket is bound to.
func (e *Endpoint) LocalAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the underlying socket.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}

// Send transmits one message to dst. AUDIO frames carry no main frame or
// CRC and are written verbatim; every other message is main-framed and
// CRC-trailed. Send fails with a jamproto Oversize error if the resulting
// datagram would exceed jamproto.MaxDatagramSize.
func (e *Endpoint) Send(dst *net.UDPAddr, name string, count uint8, payload interface{}) error {
	var datagram []byte
	var err error

	if name == "AUDIO" {
		data, ok := payload.([]byte)
		if !ok {
			return errors.New("endpoint: AUDIO payload must be []byte")
		}
		datagram, err = jamproto.EncodeRecord(audioSchema, jamproto.Values{"data": data})
		if err != nil {
			return err
		}
		if e.cfg.LogEnabled && e.cfg.LogAudio {
			logDatagram("send AUDIO", dst, len(datagram))
		}
	} else {
		datagram, err = jamproto.Encode(name, count, payload)
		if err != nil {
			return err
		}
		if e.cfg.LogEnabled {
			logDatagram("send "+name, dst, len(datagram))
		}
	}

	_, err = e.conn.WriteToUDP(datagram, dst)
	return err
}

// Receive blocks until a datagram arrives or timeout elapses (timeout <= 0
// means block indefinitely). On timeout it returns ErrTimeout. A decode
// failure on an inbound protocol-shaped datagram is logged and reported to
// the caller as a jamproto error; it is not treated as fatal to the
// receive loop the caller is presumably running.
func (e *Endpoint) Receive(timeout time.Duration) (*Message, error) {
	if timeout > 0 {
		e.conn.SetReadDeadline(time.Now().Add(timeout))
	} else {
		e.conn.SetReadDeadline(time.Time{})
	}

	buf := make([]byte, jamproto.MaxDatagramSize+1)
	n, src, err := e.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, ErrTimeout
		}
		return nil, err
	}
	datagram := buf[:n]

	if looksLikeFrame(datagram) {
		decoded, err := jamproto.Decode(datagram)
		if err != nil {
			decodeErrorLog.Printf("endpoint: decode error from %s: %v", src, err)
			if ce, ok := err.(*jamproto.CodecError); ok {
				metrics.DecodeErrorCount.WithLabelValues(ce.Kind.String()).Inc()
			}
			return nil, err
		}
		if e.cfg.LogEnabled {
			logDatagram("recv "+decoded.Name, src, n)
			if e.cfg.LogData {
				log.Printf("recv %s: %s payload: %v", decoded.Name, src, decoded.Payload)
			}
		}

		if e.cfg.AcksEnabled && jamproto.RequiresAck(decoded.ID) {
			ackErr := e.Send(src, "ACKN", decoded.Count, jamproto.Values{"id": uint16(decoded.ID)})
			if ackErr != nil {
				decodeErrorLog.Printf("endpoint: failed to ack %s from %s: %v", decoded.Name, src, ackErr)
			} else {
				metrics.AckSentCount.Inc()
			}
		}

		count := decoded.Count
		return &Message{Peer: src, Name: decoded.Name, Count: &count, Payload: decoded.Payload}, nil
	}

	// Audio frame: opaque payload, no frame, no ACK.
	data := make([]byte, n)
	copy(data, datagram)
	if e.cfg.LogEnabled && e.cfg.LogAudio {
		logDatagram("recv AUDIO", src, n)
	}
	return &Message{Peer: src, Name: "AUDIO", Count: nil, Payload: data}, nil
}

// looksLikeFrame reports whether datagram has the shape of a main-framed
// protocol message: a zero tag and at least the minimum frame length.
func looksLikeFrame(datagram []byte) bool {
	return len(datagram) >= jamproto.MinFrameLength && datagram[0] == 0 && datagram[1] == 0
}

func logDatagram(what string, peer *net.UDPAddr, n int) {
	log.Printf("%s: %s (%d bytes)", what, peer, n)
}

func udpAddr(port int) string {
	if port <= 0 {
		return "0.0.0.0:0"
	}
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
}

// reuseAddrControl sets SO_REUSEADDR on the listening socket before bind,
// the same way the teacher's netlink layer reaches for golang.org/x/sys/unix
// to touch a socket option the standard library does not expose directly.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
