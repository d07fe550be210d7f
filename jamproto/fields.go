package jamproto

// FieldKind is the closed set of wire representations a schema field can
// take. All multi-byte integers are little-endian on the wire, IPv4
// addresses included: an address travels as its 32-bit value in
// little-endian byte order.
type FieldKind int

const (
	// U8 is a single unsigned byte.
	U8 FieldKind = iota
	// U16 is two bytes, little-endian unsigned.
	U16
	// U32 is four bytes, little-endian unsigned.
	U32
	// IPv4 is four bytes holding a dotted-quad address with its octets in
	// reverse order (127.0.0.1 travels as 01 00 00 7f).
	IPv4
	// Str1 is a 1-byte length prefix followed by that many UTF-8 bytes.
	Str1
	// Str2 is a 2-byte little-endian length prefix followed by that many
	// UTF-8 bytes.
	Str2
	// Bytes2 is a 2-byte little-endian length prefix followed by that
	// many opaque bytes.
	Bytes2
	// Rest consumes every byte remaining in the payload.
	Rest
)

// Field is one named, typed entry in a message schema.
type Field struct {
	Name string
	Kind FieldKind
}

// Schema is an ordered list of fields describing one record. Field order on
// the wire always matches declaration order.
type Schema []Field

// Values is a decoded (or to-be-encoded) record: field name to Go value.
// U8/U16/U32 map to uint8/uint16/uint32, IPv4 to net.IP (4-byte form),
// Str1/Str2 to string, Bytes2/Rest to []byte.
type Values map[string]interface{}
