package main

import (
	"encoding/hex"
	"net"
	"os"
	"testing"

	"github.com/m-lab/go/rtx"

	"github.com/jamulus-net/jamdir/jamproto"
)

func TestRowsFromEntries(t *testing.T) {
	entries := []jamproto.Values{
		{
			"ip": net.IPv4(0, 0, 0, 0).To4(), "port": uint16(0),
			"country_id": uint16(0), "max_clients": uint8(0), "permanent": uint8(0),
			"name": "", "internal_address": "", "city": "",
		},
		{
			"ip": net.IPv4(198, 51, 100, 7).To4(), "port": uint16(1234),
			"country_id": uint16(5), "max_clients": uint8(4), "permanent": uint8(1),
			"name": "T", "internal_address": "10.0.0.1", "city": "Berlin",
		},
	}

	rows := rowsFromEntries(entries)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].IP != "0.0.0.0" {
		t.Errorf("rows[0].IP = %q, want 0.0.0.0", rows[0].IP)
	}
	if rows[1].Name != "T" || rows[1].Port != 1234 || rows[1].City != "Berlin" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

// Build one CLM_SERVER_LIST datagram containing a self entry plus one real
// entry, encode it, write its hex form to a file, and confirm
// readHexDatagrams recovers both entries.
func TestReadHexDatagrams(t *testing.T) {
	self := jamproto.Values{
		"ip": net.IPv4(0, 0, 0, 0).To4(), "port": uint16(0),
		"country_id": uint16(0), "max_clients": uint8(0), "permanent": uint8(0),
		"name": "", "internal_address": "", "city": "",
	}
	entry := jamproto.Values{
		"ip": net.IPv4(203, 0, 113, 9).To4(), "port": uint16(5678),
		"country_id": uint16(1), "max_clients": uint8(8), "permanent": uint8(0),
		"name": "S", "internal_address": "", "city": "",
	}
	encoded, err := jamproto.Encode("CLM_SERVER_LIST", 0, []jamproto.Values{self, entry})
	rtx.Must(err, "encode fixture list")

	fn := t.TempDir() + "/datagrams.hex"
	rtx.Must(os.WriteFile(fn, []byte(hex.EncodeToString(encoded)+"\n"), 0644), "write fixture")

	entries, err := readHexDatagrams(fn)
	rtx.Must(err, "readHexDatagrams")
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[1]["name"] != "S" {
		t.Errorf("entries[1][name] = %v, want S", entries[1]["name"])
	}
}

// saveRawCapture followed by readHexDatagrams should round-trip the
// entries it was given, uncompressed.
func TestSaveRawCaptureRoundTrip(t *testing.T) {
	entries := []jamproto.Values{
		{
			"ip": net.IPv4(198, 51, 100, 7).To4(), "port": uint16(1234),
			"country_id": uint16(5), "max_clients": uint8(4), "permanent": uint8(1),
			"name": "T", "internal_address": "10.0.0.1", "city": "Berlin",
		},
	}

	fn := t.TempDir() + "/capture.hex"
	rtx.Must(saveRawCapture(fn, entries), "saveRawCapture")

	got, err := readHexDatagrams(fn)
	rtx.Must(err, "readHexDatagrams")
	if len(got) != 1 || got[0]["name"] != "T" {
		t.Errorf("got = %+v, want one entry named T", got)
	}
}

func TestReadHexDatagramsBlankLinesSkipped(t *testing.T) {
	fn := t.TempDir() + "/datagrams.hex"
	rtx.Must(os.WriteFile(fn, []byte("\n\n"), 0644), "write fixture")

	entries, err := readHexDatagrams(fn)
	rtx.Must(err, "readHexDatagrams")
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
