package central

import (
	"net"

	"github.com/jamulus-net/jamdir/jamproto"
	"github.com/jamulus-net/jamdir/regid"
)

// PeerKey is the map key for a peer's UDP endpoint: a 4-byte IPv4 address
// and a port. net.UDPAddr embeds a net.IP ([]byte), which is not
// comparable, so it cannot be used as a map key directly.
type PeerKey struct {
	IP   [4]byte
	Port int
}

func keyFor(addr *net.UDPAddr) PeerKey {
	var k PeerKey
	ip4 := addr.IP.To4()
	copy(k.IP[:], ip4)
	k.Port = addr.Port
	return k
}

// Registration is the record created by a CLM_REGISTER_SERVER or
// CLM_REGISTER_SERVER_EX message. OS and Version are only present for the
// _EX variant.
type Registration struct {
	RegID string

	AdvertisedPort int
	CountryID      uint16
	MaxClients     uint8
	Permanent      bool
	Name           string
	InternalAddr   string
	City           string
	OS             *uint8
	Version        *string

	// SourceIP is the address the registering datagram actually arrived
	// from, injected into the record per the registration rule in
	// section 4.3 of the protocol specification.
	SourceIP net.IP
}

func registrationFromValues(v jamproto.Values, sourceIP net.IP) *Registration {
	r := &Registration{
		RegID:          regid.New(),
		AdvertisedPort: int(v["port"].(uint16)),
		CountryID:      v["country_id"].(uint16),
		MaxClients:     v["max_clients"].(uint8),
		Permanent:      v["permanent"].(uint8) != 0,
		Name:           v["name"].(string),
		InternalAddr:   v["internal_address"].(string),
		City:           v["city"].(string),
		SourceIP:       sourceIP,
	}
	if osVal, ok := v["os"]; ok {
		o := osVal.(uint8)
		r.OS = &o
	}
	if verVal, ok := v["version"]; ok {
		ver := verVal.(string)
		r.Version = &ver
	}
	return r
}

// toListEntry renders the registration as one CLM_SERVER_LIST element: the
// ip-prefixed CLM_REGISTER_SERVER schema. OS/Version are not part of that
// schema and are dropped here, matching the wire catalog.
func (r *Registration) toListEntry() jamproto.Values {
	return jamproto.Values{
		"ip":               r.SourceIP.To4(),
		"port":             uint16(r.AdvertisedPort),
		"country_id":       r.CountryID,
		"max_clients":      r.MaxClients,
		"permanent":        boolToU8(r.Permanent),
		"name":             r.Name,
		"internal_address": r.InternalAddr,
		"city":             r.City,
	}
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// selfEntry is the synthetic first element every CLM_SERVER_LIST response
// carries: ip 0.0.0.0, port 0, permanent 0, per section 3's invariant.
func selfEntry() jamproto.Values {
	return jamproto.Values{
		"ip":               net.IPv4(0, 0, 0, 0).To4(),
		"port":             uint16(0),
		"country_id":       uint16(0),
		"max_clients":      uint8(0),
		"permanent":        uint8(0),
		"name":             "",
		"internal_address": "",
		"city":             "",
	}
}
