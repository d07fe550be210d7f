package jamproto

import (
	"encoding/hex"
	"net"
	"testing"

	"github.com/go-test/deep"
)

func TestEncodeRecordIntegers(t *testing.T) {
	schema := Schema{{"a", U32}, {"b", U16}, {"c", U8}}
	got, err := EncodeRecord(schema, Values{"a": uint32(1), "b": uint16(2), "c": uint8(3)})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	want, _ := hex.DecodeString("01000000020003")
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("EncodeRecord mismatch: %v", diff)
	}
}

func TestEncodeRecordStrings(t *testing.T) {
	cases := []struct {
		schema Schema
		values Values
		want   string
	}{
		{Schema{{"text", Str1}}, Values{"text": "xyz"}, "0378797a"},
		{Schema{{"text", Str2}}, Values{"text": "xyz"}, "030078797a"},
		{Schema{{"data", Bytes2}}, Values{"data": []byte("abc")}, "0300616263"},
	}
	for _, c := range cases {
		got, err := EncodeRecord(c.schema, c.values)
		if err != nil {
			t.Fatalf("EncodeRecord(%v): %v", c.values, err)
		}
		want, _ := hex.DecodeString(c.want)
		if diff := deep.Equal(got, want); diff != nil {
			t.Errorf("EncodeRecord(%v) mismatch: %v", c.values, diff)
		}
	}
}

func TestEncodeRecordIPv4(t *testing.T) {
	schema := Schema{{"ip", IPv4}}
	got, err := EncodeRecord(schema, Values{"ip": "127.0.0.1"})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	want, _ := hex.DecodeString("0100007f")
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("EncodeRecord(ipv4) mismatch: %v", diff)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	for _, k := range catalog {
		if k.Repeatable {
			continue
		}
		v := fillSchema(k.Schema)
		raw, err := EncodeRecord(k.Schema, v)
		if err != nil {
			t.Fatalf("%s: EncodeRecord: %v", k.Name, err)
		}
		got, err := DecodeRecord(k.Schema, raw)
		if err != nil {
			t.Fatalf("%s: DecodeRecord: %v", k.Name, err)
		}
		if diff := deep.Equal(got, v); diff != nil {
			t.Errorf("%s: round trip mismatch: %v", k.Name, diff)
		}
	}
}

func TestRepeatedRoundTrip(t *testing.T) {
	for _, k := range catalog {
		if !k.Repeatable {
			continue
		}
		elems := []Values{fillSchema(k.Schema), fillSchema(k.Schema)}
		raw, err := EncodeRepeated(k.Schema, elems)
		if err != nil {
			t.Fatalf("%s: EncodeRepeated: %v", k.Name, err)
		}
		got, err := DecodeRepeated(k.Schema, raw)
		if err != nil {
			t.Fatalf("%s: DecodeRepeated: %v", k.Name, err)
		}
		if diff := deep.Equal(got, elems); diff != nil {
			t.Errorf("%s: repeated round trip mismatch: %v", k.Name, diff)
		}
	}
}

func TestDecodeRepeatedPartialTrailingRecordErrors(t *testing.T) {
	schema := clientInfoSchema
	elems := []Values{fillSchema(schema)}
	raw, err := EncodeRepeated(schema, elems)
	if err != nil {
		t.Fatalf("EncodeRepeated: %v", err)
	}
	_, err = DecodeRepeated(schema, raw[:len(raw)-1])
	if err == nil {
		t.Error("expected error decoding a truncated repeated buffer")
	}
}

func TestDecodeRecordTrailingBytesError(t *testing.T) {
	schema := Schema{{"a", U8}}
	_, err := DecodeRecord(schema, []byte{1, 2})
	if err == nil {
		t.Error("expected error when bytes remain after the last field")
	}
}

// fillSchema builds a deterministic, schema-conformant Values map so round
// trip tests can exercise every field kind without hand-enumerating every
// message's payload.
func fillSchema(schema Schema) Values {
	v := Values{}
	for i, f := range schema {
		switch f.Kind {
		case U8:
			v[f.Name] = uint8(i + 1)
		case U16:
			v[f.Name] = uint16(i + 1)
		case U32:
			v[f.Name] = uint32(i + 1)
		case IPv4:
			v[f.Name] = net.ParseIP("10.0.0.1").To4()
		case Str1, Str2:
			v[f.Name] = "test"
		case Bytes2:
			v[f.Name] = []byte{1, 2, 3}
		case Rest:
			v[f.Name] = []byte{4, 5, 6}
		}
	}
	return v
}
