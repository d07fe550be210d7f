package jamproto

// Encode builds a full main-framed datagram for the named message kind. For
// a repeatable kind, payload must be a []Values; for a single-record kind
// it must be a Values. Encode rejects the result if the main-framed
// datagram (payload plus 9 bytes of frame and CRC) would exceed
// MaxDatagramSize.
func Encode(name string, count uint8, payload interface{}) ([]byte, error) {
	k, ok := KindByName(name)
	if !ok {
		return nil, errID(0)
	}

	var body []byte
	var err error
	if k.Repeatable {
		elems, ok := payload.([]Values)
		if !ok {
			return nil, errKind("<payload>")
		}
		body, err = EncodeRepeated(k.Schema, elems)
	} else {
		v, ok := payload.(Values)
		if !ok {
			return nil, errKind("<payload>")
		}
		body, err = EncodeRecord(k.Schema, v)
	}
	if err != nil {
		return nil, err
	}

	return mainEncode(k.ID, count, body)
}

// Decoded is the result of decoding one main-framed datagram.
type Decoded struct {
	Name    string
	ID      uint16
	Count   uint8
	Payload interface{} // Values, or []Values for a repeatable kind
}

// Decode parses a main-framed datagram: validates the CRC, the frame
// header, looks up the message kind by id, and parses the payload per its
// schema.
func Decode(datagram []byte) (*Decoded, error) {
	id, count, payload, err := mainDecode(datagram)
	if err != nil {
		return nil, err
	}

	k, ok := KindByID(id)
	if !ok {
		return nil, errID(id)
	}

	if k.Repeatable {
		elems, err := DecodeRepeated(k.Schema, payload)
		if err != nil {
			return nil, err
		}
		return &Decoded{Name: k.Name, ID: k.ID, Count: count, Payload: elems}, nil
	}

	v, err := DecodeRecord(k.Schema, payload)
	if err != nil {
		return nil, err
	}
	return &Decoded{Name: k.Name, ID: k.ID, Count: count, Payload: v}, nil
}
