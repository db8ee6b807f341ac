package wire

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf   []byte
	pos   int
	depth int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// Remaining returns the number of undecoded bytes
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// DecodeTag reads a field tag and validates it. Field number zero and wire
// types outside the supported set are malformed input.
func (d *Decoder) DecodeTag() (FieldNumber, WireType, error) {
	tag, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}

	fieldNumber, wireType := ParseTag(Tag(tag))
	if !fieldNumber.IsValid() {
		return 0, 0, decodeErrorf("invalid field number %d", fieldNumber)
	}
	if !wireType.IsValid() {
		return 0, 0, decodeErrorf("unsupported wire type %d for field %d", wireType, fieldNumber)
	}

	return fieldNumber, wireType, nil
}

// skipField skips a field payload based on wire type
func (d *Decoder) skipField(wireType WireType) error {
	switch wireType {
	case WireVarint:
		vd := NewVarintDecoder(d)
		return vd.SkipVarint()
	case WireFixed64:
		fd := NewFixedDecoder(d)
		return fd.SkipFixed64()
	case WireBytes:
		bd := NewBytesDecoder(d)
		return bd.SkipBytes()
	case WireFixed32:
		fd := NewFixedDecoder(d)
		return fd.SkipFixed32()
	default:
		return decodeErrorf("unsupported wire type %d", wireType)
	}
}
