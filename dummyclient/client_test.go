package dummyclient_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/dummyclient"
	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/jamproto"
)

func mustEndpoint(t *testing.T) *endpoint.Endpoint {
	t.Helper()
	e, err := endpoint.New(endpoint.Config{LocalPort: 0, AcksEnabled: false})
	rtx.Must(err, "could not bind endpoint")
	t.Cleanup(func() { e.Close() })
	return e
}

func TestRegisterSendsSilentFrame(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientEp := mustEndpoint(t)

	c := dummyclient.New(clientEp, serverEp.LocalAddr())
	rtx.Must(c.Register(), "Register failed")

	msg, err := serverEp.Receive(time.Second)
	rtx.Must(err, "Receive failed")
	if msg.Name != "AUDIO" {
		t.Fatalf("Name = %q, want AUDIO", msg.Name)
	}
	data := msg.Payload.([]byte)
	if len(data) != 22 || data[0] != 0x00 || data[1] != 0xFF || data[2] != 0xFE {
		t.Errorf("silent frame = % x, want 00 ff fe + 19 zero bytes", data)
	}
}

func TestAnswersInterrogationAndEchoesAudio(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientEp := mustEndpoint(t)

	c := dummyclient.New(clientEp, serverEp.LocalAddr())
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)

	rtx.Must(serverEp.Send(clientEp.LocalAddr(), "REQ_JITT_BUF_SIZE", 0, jamproto.Values{}), "send req")
	resp, err := serverEp.Receive(time.Second)
	rtx.Must(err, "Receive failed")
	if resp.Name != "JITT_BUF_SIZE" {
		t.Errorf("Name = %q, want JITT_BUF_SIZE", resp.Name)
	}

	payload := []byte{1, 2, 3, 4}
	rtx.Must(serverEp.Send(clientEp.LocalAddr(), "AUDIO", 0, payload), "send audio")
	echoed, err := serverEp.Receive(time.Second)
	rtx.Must(err, "Receive failed")
	if echoed.Name != "AUDIO" {
		t.Fatalf("Name = %q, want AUDIO", echoed.Name)
	}
	if string(echoed.Payload.([]byte)) != string(payload) {
		t.Errorf("echoed payload = %v, want %v", echoed.Payload, payload)
	}
}

func TestShutdownSendsDisconnection(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientEp := mustEndpoint(t)

	c := dummyclient.New(clientEp, serverEp.LocalAddr())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	msg, err := serverEp.Receive(2 * time.Second)
	rtx.Must(err, "Receive failed")
	if msg.Name != "CLM_DISCONNECTION" {
		t.Errorf("Name = %q, want CLM_DISCONNECTION", msg.Name)
	}
	<-done
}
