package jamproto

import "encoding/binary"

// MinFrameLength is the smallest a valid main-framed datagram can be: the
// 7-byte header prefix (tag, id, count, payload_len) plus the trailing
// 2-byte CRC, with an empty payload.
const MinFrameLength = 9

// MaxDatagramSize is the largest datagram this codec will construct or
// accept. Senders exceeding it must fail with Oversize rather than
// fragment.
const MaxDatagramSize = 20000

// mainEncode builds the main-frame prefix, appends payload, then appends
// the CRC computed over everything preceding it.
func mainEncode(id uint16, count uint8, payload []byte) ([]byte, error) {
	if len(payload) > 0xffff {
		return nil, errOversize()
	}
	buf := make([]byte, 0, 7+len(payload)+2)
	buf = append(buf, 0, 0) // tag, always 0
	idb := make([]byte, 2)
	binary.LittleEndian.PutUint16(idb, id)
	buf = append(buf, idb...)
	buf = append(buf, count)
	lb := make([]byte, 2)
	binary.LittleEndian.PutUint16(lb, uint16(len(payload)))
	buf = append(buf, lb...)
	buf = append(buf, payload...)

	if len(buf)+2 > MaxDatagramSize {
		return nil, errOversize()
	}

	crc := CRC16(buf)
	cb := make([]byte, 2)
	binary.LittleEndian.PutUint16(cb, crc)
	buf = append(buf, cb...)
	return buf, nil
}

// mainDecode validates the trailing CRC, parses the main-frame header, and
// returns the id, count, and payload slice (a view into datagram).
func mainDecode(datagram []byte) (id uint16, count uint8, payload []byte, err error) {
	if len(datagram) < MinFrameLength {
		return 0, 0, nil, errLength("<frame>")
	}

	body := datagram[:len(datagram)-2]
	wantCRC := binary.LittleEndian.Uint16(datagram[len(datagram)-2:])
	if CRC16(body) != wantCRC {
		return 0, 0, nil, errCRC()
	}

	tag := binary.LittleEndian.Uint16(body[0:2])
	if tag != 0 {
		return 0, 0, nil, errLength("tag")
	}
	id = binary.LittleEndian.Uint16(body[2:4])
	count = body[4]
	payloadLen := int(binary.LittleEndian.Uint16(body[5:7]))
	if len(body)-7 != payloadLen {
		return 0, 0, nil, errLength("payload_len")
	}
	payload = body[7:]
	return id, count, payload, nil
}
