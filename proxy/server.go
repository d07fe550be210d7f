// Package proxy implements the Jamulus directory aggregator: it polls a
// configured set of upstream directory servers on a fixed interval, merges
// their CLM_SERVER_LIST responses into one in-memory directory keyed by
// advertised (ip, port), and serves the merged, country-filtered list to
// discovering clients.
package proxy

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/jamproto"
	"github.com/jamulus-net/jamdir/metrics"
)

// Upstream is one configured directory server to poll.
type Upstream struct {
	Host string
	Addr *net.UDPAddr
}

// Aggregator drives the poll scheduler and answers client list requests
// from the merged directory it builds.
type Aggregator struct {
	ep        *endpoint.Endpoint
	upstreams []Upstream
	sched     *Scheduler
	filter    map[uint16]bool // empty means no filtering

	mu      sync.Mutex
	entries map[Key]*Entry
}

// New builds an Aggregator polling upstreams every interval and filtering
// egress by countryFilter (nil or empty means no filtering).
func New(ep *endpoint.Endpoint, upstreams []Upstream, interval time.Duration, countryFilter []uint16, now time.Time) *Aggregator {
	filter := make(map[uint16]bool, len(countryFilter))
	for _, c := range countryFilter {
		filter[c] = true
	}
	return &Aggregator{
		ep:        ep,
		upstreams: upstreams,
		sched:     NewScheduler(interval, now),
		filter:    filter,
		entries:   make(map[Key]*Entry),
	}
}

// Run drives the receive loop, firing scheduled polls on timeout, until
// ctx is canceled.
func (a *Aggregator) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		now := time.Now()
		timeout := a.sched.Due(now)
		if timeout == 0 {
			timeout = time.Nanosecond // Receive treats <=0 as block-forever.
		}

		msg, err := a.ep.Receive(timeout)
		if err != nil {
			if err == endpoint.ErrTimeout {
				a.poll()
				a.sched.Advance(time.Now())
				continue
			}
			log.Println("proxy: receive error:", err)
			continue
		}
		a.handle(msg)
	}
	return ctx.Err()
}

func (a *Aggregator) poll() {
	for _, u := range a.upstreams {
		if err := a.ep.Send(u.Addr, "CLM_REQ_SERVER_LIST", 0, jamproto.Values{}); err != nil {
			log.Println("proxy: poll of", u.Host, "failed:", err)
			continue
		}
		metrics.ProxyPollCount.WithLabelValues(u.Host).Inc()
	}
}

func (a *Aggregator) upstreamFor(peer *net.UDPAddr) (Upstream, bool) {
	for _, u := range a.upstreams {
		if u.Addr.IP.Equal(peer.IP) && u.Addr.Port == peer.Port {
			return u, true
		}
	}
	return Upstream{}, false
}

func (a *Aggregator) handle(msg *endpoint.Message) {
	switch msg.Name {
	case "AUDIO":
		if err := a.ep.Send(msg.Peer, "CLM_DISCONNECTION", 0, jamproto.Values{}); err != nil {
			log.Println("proxy: failed to refuse audio from", msg.Peer, ":", err)
		}

	case "CLM_SERVER_LIST":
		u, ok := a.upstreamFor(msg.Peer)
		if !ok {
			return
		}
		entries, ok := msg.Payload.([]jamproto.Values)
		if !ok {
			return
		}
		now := time.Now()
		a.mu.Lock()
		for _, v := range entries {
			upsert(a.entries, v, msg.Peer, u.Host, now)
		}
		count := len(a.entries)
		a.mu.Unlock()
		metrics.ProxyEntries.Set(float64(count))

	case "CLM_REQ_SERVER_LIST":
		metrics.ProxyListRequestCount.Inc()
		if err := a.ep.Send(msg.Peer, "CLM_SERVER_LIST", 0, a.Snapshot()); err != nil {
			log.Println("proxy: failed to send server list to", msg.Peer, ":", err)
		}
	}
}

// Snapshot returns the merged, country-filtered directory as a
// CLM_SERVER_LIST payload, with the synthetic self entry first.
func (a *Aggregator) Snapshot() []jamproto.Values {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]jamproto.Values, 0, len(a.entries)+1)
	out = append(out, selfEntry())
	for _, e := range a.entries {
		if len(a.filter) > 0 && !a.filter[e.CountryID] {
			continue
		}
		out = append(out, e.toListEntry())
	}
	return out
}

// Len reports the number of entries currently held, excluding the self
// entry and ignoring the country filter.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
