package dummyserver_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/dummyserver"
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

func TestFirstAudioTriggersHandshake(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientEp := mustEndpoint(t)

	srv := dummyserver.New(serverEp)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	rtx.Must(clientEp.Send(serverEp.LocalAddr(), "AUDIO", 0, []byte{1}), "send audio")

	wantOrder := []string{
		"CLIENT_ID", "CLM_CONN_CLIENTS_LIST",
		"REQ_SPLIT_MESS_SUPPORT", "REQ_NETW_TRANSPORT_PROPS", "REQ_JITT_BUF_SIZE", "REQ_CHANNEL_INFOS",
		"CHAT_TEXT",
	}
	for _, want := range wantOrder {
		msg, err := clientEp.Receive(time.Second)
		rtx.Must(err, "Receive failed")
		if msg.Name != want {
			t.Errorf("Name = %q, want %q", msg.Name, want)
		}
	}

	deadline := time.Now().Add(time.Second)
	for srv.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Len() != 1 {
		t.Errorf("Len() = %d, want 1", srv.Len())
	}
}

func TestDisconnectionForgetsClient(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientEp := mustEndpoint(t)

	srv := dummyserver.New(serverEp)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	rtx.Must(clientEp.Send(serverEp.LocalAddr(), "AUDIO", 0, []byte{1}), "send audio")
	for i := 0; i < 7; i++ {
		_, err := clientEp.Receive(time.Second)
		rtx.Must(err, "Receive failed draining handshake")
	}

	deadline := time.Now().Add(time.Second)
	for srv.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 before disconnection", srv.Len())
	}

	rtx.Must(clientEp.Send(serverEp.LocalAddr(), "CLM_DISCONNECTION", 0, jamproto.Values{}), "send disconnection")

	deadline = time.Now().Add(time.Second)
	for srv.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after CLM_DISCONNECTION", srv.Len())
	}
}

func TestPingEchoed(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientEp := mustEndpoint(t)

	srv := dummyserver.New(serverEp)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	rtx.Must(clientEp.Send(serverEp.LocalAddr(), "CLM_PING_MS", 0, jamproto.Values{"time": uint32(99)}), "send ping")
	resp, err := clientEp.Receive(time.Second)
	rtx.Must(err, "Receive failed")
	if resp.Name != "CLM_PING_MS" {
		t.Fatalf("Name = %q, want CLM_PING_MS", resp.Name)
	}
	v := resp.Payload.(jamproto.Values)
	if v["time"] != uint32(99) {
		t.Errorf("time = %v, want 99", v["time"])
	}
}

func TestSendEmptyMessageRelayed(t *testing.T) {
	serverEp := mustEndpoint(t)
	clientA := mustEndpoint(t)
	clientB := mustEndpoint(t)

	srv := dummyserver.New(serverEp)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	target := clientB.LocalAddr()
	rtx.Must(clientA.Send(serverEp.LocalAddr(), "CLM_SEND_EMPTY_MESSAGE", 0, jamproto.Values{
		"ip": target.IP.To4(), "port": uint16(target.Port),
	}), "send empty-message request")

	msg, err := clientB.Receive(time.Second)
	rtx.Must(err, "Receive failed")
	if msg.Name != "CLM_EMPTY_MESSAGE" {
		t.Errorf("Name = %q, want CLM_EMPTY_MESSAGE", msg.Name)
	}
}
