// serverlist-csv is a read-only diagnostic tool for the Jamulus directory
// protocol. It obtains a CLM_SERVER_LIST snapshot — either by querying a
// live directory with --addr, or by replaying a file of hex-encoded
// datagrams captured earlier — and writes one CSV row per registration.
//
// It persists nothing back into a directory's in-memory state: the CSV it
// writes is an output artifact, not a store this toolkit reads from again.
// --save-raw optionally captures the obtained entries as a hex-encoded
// datagram, for later replay as a file argument.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/endpoint"
	"github.com/jamulus-net/jamdir/hostport"
	"github.com/jamulus-net/jamdir/jamproto"
	"github.com/jamulus-net/jamdir/zstd"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	addr    = flag.String("addr", "", "Directory HOST[:PORT] to query live for CLM_REQ_SERVER_LIST (mutually exclusive with a file argument)")
	timeout = flag.Duration("timeout", 5*time.Second, "How long to wait for a live directory's response")
	saveRaw = flag.String("save-raw", "", "Optional file to append this run's entries to as a hex-encoded CLM_SERVER_LIST datagram, for later replay as a hex-datagram file argument; a .zst suffix compresses it")
)

// Row is one CSV line: the registration fields of a CLM_SERVER_LIST
// element, gocsv-tagged in wire-catalog order.
type Row struct {
	IP              string `csv:"ip"`
	Port            uint16 `csv:"port"`
	CountryID       uint16 `csv:"country_id"`
	MaxClients      uint8  `csv:"max_clients"`
	Permanent       uint8  `csv:"permanent"`
	Name            string `csv:"name"`
	InternalAddress string `csv:"internal_address"`
	City            string `csv:"city"`
}

func rowsFromEntries(entries []jamproto.Values) []*Row {
	rows := make([]*Row, 0, len(entries))
	for _, v := range entries {
		ipStr := ""
		if ip, ok := v["ip"].(net.IP); ok {
			ipStr = ip.String()
		}
		row := &Row{IP: ipStr}
		row.Port, _ = v["port"].(uint16)
		row.CountryID, _ = v["country_id"].(uint16)
		row.MaxClients, _ = v["max_clients"].(uint8)
		row.Permanent, _ = v["permanent"].(uint8)
		row.Name, _ = v["name"].(string)
		row.InternalAddress, _ = v["internal_address"].(string)
		row.City, _ = v["city"].(string)
		rows = append(rows, row)
	}
	return rows
}

// queryLive sends CLM_REQ_SERVER_LIST to target and returns the decoded
// response entries.
func queryLive(target string) ([]jamproto.Values, error) {
	dst, err := hostport.Resolve(target)
	if err != nil {
		return nil, err
	}
	ep, err := endpoint.New(endpoint.Config{LocalPort: 0, AcksEnabled: false})
	if err != nil {
		return nil, err
	}
	defer ep.Close()

	if err := ep.Send(dst, "CLM_REQ_SERVER_LIST", 0, jamproto.Values{}); err != nil {
		return nil, err
	}
	msg, err := ep.Receive(*timeout)
	if err != nil {
		return nil, err
	}
	entries, ok := msg.Payload.([]jamproto.Values)
	if !ok {
		return nil, fmt.Errorf("serverlist-csv: unexpected response %q from %s", msg.Name, target)
	}
	return entries, nil
}

// readHexDatagrams opens fn (decompressing through zstd if it ends in
// .zst, the same convention the teacher's archival tooling used) and
// decodes each non-blank line as one hex-encoded main-framed datagram.
func readHexDatagrams(fn string) ([]jamproto.Values, error) {
	var rdr io.ReadCloser
	if strings.HasSuffix(fn, ".zst") {
		rdr = zstd.NewReader(fn)
	} else {
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		rdr = f
	}
	defer rdr.Close()

	var entries []jamproto.Values
	scanner := bufio.NewScanner(rdr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		datagram, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("serverlist-csv: bad hex line %q: %w", line, err)
		}
		decoded, err := jamproto.Decode(datagram)
		if err != nil {
			return nil, err
		}
		list, ok := decoded.Payload.([]jamproto.Values)
		if !ok {
			return nil, fmt.Errorf("serverlist-csv: %s is not a server list", decoded.Name)
		}
		entries = append(entries, list...)
	}
	return entries, scanner.Err()
}

// saveRawCapture re-encodes entries as one CLM_SERVER_LIST datagram and
// appends it, hex-encoded and newline-terminated, to fn so it can later be
// replayed through readHexDatagrams. A .zst suffix pipes the write through
// an external zstd process instead of writing fn directly.
func saveRawCapture(fn string, entries []jamproto.Values) error {
	datagram, err := jamproto.Encode("CLM_SERVER_LIST", 0, entries)
	if err != nil {
		return err
	}
	line := hex.EncodeToString(datagram) + "\n"

	var w io.WriteCloser
	if strings.HasSuffix(fn, ".zst") {
		w, err = zstd.NewWriter(fn)
		if err != nil {
			return err
		}
	} else {
		f, err := os.OpenFile(fn, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		w = f
	}
	if _, err := io.WriteString(w, line); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)
	args := flag.Args()

	var entries []jamproto.Values
	var err error
	switch {
	case *addr != "" && len(args) == 0:
		entries, err = queryLive(*addr)
	case *addr == "" && len(args) == 1:
		entries, err = readHexDatagrams(args[0])
	default:
		log.Fatal("serverlist-csv: pass exactly one of --addr HOST[:PORT] or a hex-datagram file argument")
	}
	rtx.Must(err, "Could not obtain a server list")

	if *saveRaw != "" {
		rtx.Must(saveRawCapture(*saveRaw, entries), "Could not save raw capture")
	}

	rtx.Must(gocsv.Marshal(rowsFromEntries(entries), os.Stdout), "Could not write CSV")
}
