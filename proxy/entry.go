package proxy

import (
	"net"
	"time"

	"github.com/jamulus-net/jamdir/jamproto"
	"github.com/jamulus-net/jamdir/regid"
)

// Key is the aggregator's map key: the advertised (ip, port) pair an
// entry was last upserted under. net.IP is a slice and so cannot be used
// as a map key directly.
type Key struct {
	IP   [4]byte
	Port uint16
}

func keyOf(ip net.IP, port uint16) Key {
	var k Key
	copy(k.IP[:], ip.To4())
	k.Port = port
	return k
}

// Entry is one row of the aggregator's merged directory: the fields
// reported in a CLM_SERVER_LIST element, plus the bookkeeping the
// aggregator itself adds.
type Entry struct {
	RegID string

	IP              net.IP
	Port            uint16
	CountryID       uint16
	MaxClients      uint8
	Permanent       bool
	Name            string
	InternalAddress string
	City            string

	TimeCreated time.Time
	TimeUpdated time.Time
	SourceHost  string
}

// upsert applies one CLM_SERVER_LIST element reported by sourceHost
// (arriving from sourcePeer) into entries, rewriting a reported 0.0.0.0
// entry to the upstream's own address per the aggregator self-rewrite
// invariant.
func upsert(entries map[Key]*Entry, v jamproto.Values, sourcePeer *net.UDPAddr, sourceHost string, now time.Time) {
	ip, _ := v["ip"].(net.IP)
	port, _ := v["port"].(uint16)
	if ip == nil || ip.IsUnspecified() {
		ip = sourcePeer.IP.To4()
		port = uint16(sourcePeer.Port)
	}

	key := keyOf(ip, port)
	e, existed := entries[key]
	if !existed {
		e = &Entry{RegID: regid.New(), TimeCreated: now}
		entries[key] = e
	}
	e.IP = ip
	e.Port = port
	e.CountryID, _ = v["country_id"].(uint16)
	e.MaxClients, _ = v["max_clients"].(uint8)
	permanent, _ := v["permanent"].(uint8)
	e.Permanent = permanent != 0
	e.Name, _ = v["name"].(string)
	e.InternalAddress, _ = v["internal_address"].(string)
	e.City, _ = v["city"].(string)
	e.TimeUpdated = now
	e.SourceHost = sourceHost
}

func (e *Entry) toListEntry() jamproto.Values {
	return jamproto.Values{
		"ip":               e.IP,
		"port":             e.Port,
		"country_id":       e.CountryID,
		"max_clients":      e.MaxClients,
		"permanent":        boolToU8(e.Permanent),
		"name":             e.Name,
		"internal_address": e.InternalAddress,
		"city":             e.City,
	}
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// selfEntry is the synthetic first element every aggregator response to
// CLM_REQ_SERVER_LIST carries. Unlike the directory server's self entry,
// the aggregator's is permanent=1 and carries a fixed name, per the
// resolved self-entry open question.
func selfEntry() jamproto.Values {
	return jamproto.Values{
		"ip":               net.IPv4(0, 0, 0, 0).To4(),
		"port":             uint16(0),
		"country_id":       uint16(0),
		"max_clients":      uint8(0),
		"permanent":        uint8(1),
		"name":             "Jamulus Proxy",
		"internal_address": "",
		"city":             "",
	}
}
