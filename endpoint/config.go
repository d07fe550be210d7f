// Package endpoint wraps a bound UDP socket with the Jamulus wire codec: it
// serializes outbound messages, classifies and deserializes inbound
// datagrams, and dispatches the automatic acknowledgements the protocol
// requires for connected-session messages.
package endpoint

// DefaultPort is the well-known Jamulus directory/server port.
const DefaultPort = 22124

// Config holds the construction-time knobs for an Endpoint. The three
// logging toggles mirror the reference client/server/directory CLI
// surface (--log-data / --log-audio) rather than being hardwired, so tests
// can silence or enable them independently of any flag package.
type Config struct {
	// LocalPort is the UDP port to bind. Zero lets the OS choose an
	// ephemeral port, which unit tests rely on.
	LocalPort int

	// LogEnabled turns on any logging at all from this endpoint.
	LogEnabled bool
	// LogData additionally logs decoded protocol message bodies.
	LogData bool
	// LogAudio additionally logs AUDIO frame receipt (never bodies: audio
	// payloads are opaque and large).
	LogAudio bool

	// ReuseAddr sets SO_REUSEADDR on the listening socket so a test host
	// can rebind a recently-closed port without an EADDRINUSE flake. It
	// has no effect on wire behavior.
	ReuseAddr bool

	// AcksEnabled controls whether inbound connected-session messages
	// receive an automatic ACKN. DefaultConfig sets it to true; the zero
	// Config leaves it off. Tests of endpoints
	// that want to observe raw traffic without ACK noise may disable it.
	AcksEnabled bool
}

// DefaultConfig returns the configuration used by the CLI-driven binaries:
// acknowledgements on, logging off, bound to DefaultPort.
func DefaultConfig() Config {
	return Config{
		LocalPort:   DefaultPort,
		AcksEnabled: true,
	}
}
