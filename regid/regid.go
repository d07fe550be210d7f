// Package regid generates short correlation ids for registrations and
// aggregator entries. They have no wire representation. Each
// central.Registration and proxy.Entry stores one in its RegID field; no
// log line in this toolkit prints it, and the directory server assigns a
// fresh id on every re-registration.
//
// Adapted from the teacher's uuid package, which derives a globally unique
// per-socket id from a hostname+boottime prefix and a kernel socket
// cookie. This system has no sockets to fetch a cookie from (registrations
// are in-memory records, not live connections), so the "cookie" here is
// simply a process-local atomic counter.
package regid

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

var (
	cachedPrefixString string
	counter            uint64
)

// startTime is fixed at process start for the lifetime of the prefix; it
// stands in for the teacher's boot-time epoch, which has no meaning here.
var startTime = time.Now()

// getPrefix returns a prefix string identifying this process instance:
// hostname and start time. It is cached because both are constant for the
// life of the process.
func getPrefix() string {
	if cachedPrefixString == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown-host"
		}
		cachedPrefixString = fmt.Sprintf("%s_%d", hostname, startTime.Unix())
	}
	return cachedPrefixString
}

// New returns a new correlation id, unique for the lifetime of this
// process (until the counter wraps after 2^64 calls).
func New() string {
	n := atomic.AddUint64(&counter, 1)
	return fmt.Sprintf("%s_%X", getPrefix(), n)
}
