package jamproto

import (
	"encoding/binary"
	"net"
)

// EncodeRecord writes one record conforming to schema, in field order.
func EncodeRecord(schema Schema, v Values) ([]byte, error) {
	var buf []byte
	for _, f := range schema {
		raw, err := encodeField(f, v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, raw...)
	}
	return buf, nil
}

func encodeField(f Field, v Values) ([]byte, error) {
	val, ok := v[f.Name]
	if !ok {
		return nil, errMissing(f.Name)
	}
	switch f.Kind {
	case U8:
		n, ok := toUint(val, 8)
		if !ok {
			return nil, errKind(f.Name)
		}
		return []byte{byte(n)}, nil
	case U16:
		n, ok := toUint(val, 16)
		if !ok {
			return nil, errKind(f.Name)
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(n))
		return b, nil
	case U32:
		n, ok := toUint(val, 32)
		if !ok {
			return nil, errKind(f.Name)
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		return b, nil
	case IPv4:
		ip, ok := toIPv4(val)
		if !ok {
			return nil, errKind(f.Name)
		}
		return []byte{ip[3], ip[2], ip[1], ip[0]}, nil
	case Str1:
		s, ok := val.(string)
		if !ok {
			return nil, errKind(f.Name)
		}
		if len(s) > 0xff {
			return nil, errKind(f.Name)
		}
		return append([]byte{byte(len(s))}, []byte(s)...), nil
	case Str2:
		s, ok := val.(string)
		if !ok {
			return nil, errKind(f.Name)
		}
		if len(s) > 0xffff {
			return nil, errKind(f.Name)
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(len(s)))
		return append(b, []byte(s)...), nil
	case Bytes2:
		data, ok := val.([]byte)
		if !ok {
			return nil, errKind(f.Name)
		}
		if len(data) > 0xffff {
			return nil, errKind(f.Name)
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(len(data)))
		return append(b, data...), nil
	case Rest:
		data, ok := val.([]byte)
		if !ok {
			return nil, errKind(f.Name)
		}
		return append([]byte{}, data...), nil
	default:
		return nil, errKind(f.Name)
	}
}

// toUint accepts any of the Go integer kinds a caller might reasonably
// stuff into a Values map and range-checks it against bits.
func toUint(val interface{}, bits int) (uint64, bool) {
	var n uint64
	switch x := val.(type) {
	case uint8:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case int:
		if x < 0 {
			return 0, false
		}
		n = uint64(x)
	default:
		return 0, false
	}
	if bits < 64 && n >= (uint64(1)<<uint(bits)) {
		return 0, false
	}
	return n, true
}

func toIPv4(val interface{}) (net.IP, bool) {
	switch x := val.(type) {
	case net.IP:
		ip4 := x.To4()
		if ip4 == nil {
			return nil, false
		}
		return ip4, true
	case string:
		ip := net.ParseIP(x)
		if ip == nil {
			return nil, false
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, false
		}
		return ip4, true
	default:
		return nil, false
	}
}

// cursor decodes fields from buf in order, tracking position.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) take(n int, field string) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errLength(field)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// DecodeRecord reads one record conforming to schema out of buf. For a
// non-repeating record, it is an error for bytes to remain once every
// field has been read.
func DecodeRecord(schema Schema, buf []byte) (Values, error) {
	c := &cursor{buf: buf}
	v, err := decodeRecordCursor(schema, c)
	if err != nil {
		return nil, err
	}
	if c.remaining() != 0 {
		return nil, errLength("<trailing>")
	}
	return v, nil
}

func decodeRecordCursor(schema Schema, c *cursor) (Values, error) {
	v := Values{}
	for _, f := range schema {
		val, err := decodeField(f, c)
		if err != nil {
			return nil, err
		}
		v[f.Name] = val
	}
	return v, nil
}

func decodeField(f Field, c *cursor) (interface{}, error) {
	switch f.Kind {
	case U8:
		b, err := c.take(1, f.Name)
		if err != nil {
			return nil, err
		}
		return uint8(b[0]), nil
	case U16:
		b, err := c.take(2, f.Name)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(b), nil
	case U32:
		b, err := c.take(4, f.Name)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(b), nil
	case IPv4:
		b, err := c.take(4, f.Name)
		if err != nil {
			return nil, err
		}
		ip := net.IP{b[3], b[2], b[1], b[0]}
		return ip, nil
	case Str1:
		lb, err := c.take(1, f.Name)
		if err != nil {
			return nil, err
		}
		n := int(lb[0])
		sb, err := c.take(n, f.Name)
		if err != nil {
			return nil, err
		}
		return string(sb), nil
	case Str2:
		lb, err := c.take(2, f.Name)
		if err != nil {
			return nil, err
		}
		n := int(binary.LittleEndian.Uint16(lb))
		sb, err := c.take(n, f.Name)
		if err != nil {
			return nil, err
		}
		return string(sb), nil
	case Bytes2:
		lb, err := c.take(2, f.Name)
		if err != nil {
			return nil, err
		}
		n := int(binary.LittleEndian.Uint16(lb))
		db, err := c.take(n, f.Name)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, db)
		return out, nil
	case Rest:
		db, err := c.take(c.remaining(), f.Name)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(db))
		copy(out, db)
		return out, nil
	default:
		return nil, errKind(f.Name)
	}
}
