package wire

import (
	"math"
	"unicode/utf8"

	"github.com/purebuf/purebuf/schema"
)

// Serializer encodes and decodes a single payload of one declared field
// type. Dump writes the payload only; tags are the field variants' concern.
// Serializers are immutable after construction and safe to share across
// goroutines.
type Serializer interface {
	// WireType returns the wire type every payload of this serializer uses.
	WireType() WireType
	// Validate checks a value without producing output.
	Validate(value interface{}) error
	// Dump appends the payload for value. The value must pass Validate.
	Dump(enc *Encoder, value interface{}) error
	// Load reads one payload from the current position.
	Load(dec *Decoder) (interface{}, error)
	// Default returns the value read back for an absent field.
	Default() interface{}
}

// deepValidator is implemented by serializers whose values nest records and
// therefore need depth-bounded recursive validation.
type deepValidator interface {
	validateDeep(value interface{}, depth int) error
}

// RANGE HELPERS

func int32Range(v interface{}, kind string) (int32, error) {
	i, err := coerceInt64(v)
	if err != nil {
		return 0, err
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, validationErrorf("%s out of range: %d", kind, i)
	}
	return int32(i), nil
}

func uint32Range(v interface{}, kind string) (uint32, error) {
	u, err := coerceUint64(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, validationErrorf("%s out of range: %d", kind, u)
	}
	return uint32(u), nil
}

// SCALAR SERIALIZERS

// BoolSerializer handles bool payloads on the varint wire type.
type BoolSerializer struct{}

func (BoolSerializer) WireType() WireType { return WireVarint }

func (BoolSerializer) Validate(value interface{}) error {
	_, err := coerceBool(value)
	return err
}

func (BoolSerializer) Dump(enc *Encoder, value interface{}) error {
	b, err := coerceBool(value)
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeBool(b)
	return nil
}

func (BoolSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeBool()
}

// IntSerializer handles width-unconstrained signed varints. The payload is
// the two's-complement bit pattern, not zigzag; negative values take ten
// bytes on the wire.
type IntSerializer struct{}

func (IntSerializer) WireType() WireType { return WireVarint }

func (IntSerializer) Validate(value interface{}) error {
	_, err := coerceInt64(value)
	return err
}

func (IntSerializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceInt64(value)
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeInt(v)
	return nil
}

func (IntSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeInt()
}

// UintSerializer handles width-unconstrained unsigned varints.
type UintSerializer struct{}

func (UintSerializer) WireType() WireType { return WireVarint }

func (UintSerializer) Validate(value interface{}) error {
	_, err := coerceUint64(value)
	return err
}

func (UintSerializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceUint64(value)
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeUint64(v)
	return nil
}

func (UintSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeVarint()
}

// Int32Serializer handles int32 payloads (two's-complement varint).
type Int32Serializer struct{}

func (Int32Serializer) WireType() WireType { return WireVarint }

func (Int32Serializer) Validate(value interface{}) error {
	_, err := int32Range(value, "int32")
	return err
}

func (Int32Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := int32Range(value, "int32")
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeInt32(v)
	return nil
}

func (Int32Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeInt32()
}

// Int64Serializer handles int64 payloads (two's-complement varint).
type Int64Serializer struct{}

func (Int64Serializer) WireType() WireType { return WireVarint }

func (Int64Serializer) Validate(value interface{}) error {
	_, err := coerceInt64(value)
	return err
}

func (Int64Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceInt64(value)
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeInt64(v)
	return nil
}

func (Int64Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeInt64()
}

// Uint32Serializer handles uint32 payloads.
type Uint32Serializer struct{}

func (Uint32Serializer) WireType() WireType { return WireVarint }

func (Uint32Serializer) Validate(value interface{}) error {
	_, err := uint32Range(value, "uint32")
	return err
}

func (Uint32Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := uint32Range(value, "uint32")
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeUint32(v)
	return nil
}

func (Uint32Serializer) Load(dec *Decoder) (interface{}, error) {
	v, err := NewVarintDecoder(dec).DecodeVarint()
	if err != nil {
		return nil, err
	}
	return uint32(v), nil
}

// Uint64Serializer handles uint64 payloads.
type Uint64Serializer struct{}

func (Uint64Serializer) WireType() WireType { return WireVarint }

func (Uint64Serializer) Validate(value interface{}) error {
	_, err := coerceUint64(value)
	return err
}

func (Uint64Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceUint64(value)
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeUint64(v)
	return nil
}

func (Uint64Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeVarint()
}

// Sint32Serializer handles sint32 payloads (zigzag varint).
type Sint32Serializer struct{}

func (Sint32Serializer) WireType() WireType { return WireVarint }

func (Sint32Serializer) Validate(value interface{}) error {
	_, err := int32Range(value, "sint32")
	return err
}

func (Sint32Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := int32Range(value, "sint32")
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeSint32(v)
	return nil
}

func (Sint32Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeSint32()
}

// Sint64Serializer handles sint64 payloads (zigzag varint).
type Sint64Serializer struct{}

func (Sint64Serializer) WireType() WireType { return WireVarint }

func (Sint64Serializer) Validate(value interface{}) error {
	_, err := coerceInt64(value)
	return err
}

func (Sint64Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceInt64(value)
	if err != nil {
		return err
	}
	NewVarintEncoder(enc).EncodeSint64(v)
	return nil
}

func (Sint64Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewVarintDecoder(dec).DecodeSint64()
}

// Fixed32Serializer handles fixed32 payloads.
type Fixed32Serializer struct{}

func (Fixed32Serializer) WireType() WireType { return WireFixed32 }

func (Fixed32Serializer) Validate(value interface{}) error {
	_, err := uint32Range(value, "fixed32")
	return err
}

func (Fixed32Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := uint32Range(value, "fixed32")
	if err != nil {
		return err
	}
	NewFixedEncoder(enc).EncodeFixed32(v)
	return nil
}

func (Fixed32Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewFixedDecoder(dec).DecodeFixed32()
}

// Sfixed32Serializer handles sfixed32 payloads.
type Sfixed32Serializer struct{}

func (Sfixed32Serializer) WireType() WireType { return WireFixed32 }

func (Sfixed32Serializer) Validate(value interface{}) error {
	_, err := int32Range(value, "sfixed32")
	return err
}

func (Sfixed32Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := int32Range(value, "sfixed32")
	if err != nil {
		return err
	}
	NewFixedEncoder(enc).EncodeSfixed32(v)
	return nil
}

func (Sfixed32Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewFixedDecoder(dec).DecodeSfixed32()
}

// Fixed64Serializer handles fixed64 payloads.
type Fixed64Serializer struct{}

func (Fixed64Serializer) WireType() WireType { return WireFixed64 }

func (Fixed64Serializer) Validate(value interface{}) error {
	_, err := coerceUint64(value)
	return err
}

func (Fixed64Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceUint64(value)
	if err != nil {
		return err
	}
	NewFixedEncoder(enc).EncodeFixed64(v)
	return nil
}

func (Fixed64Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewFixedDecoder(dec).DecodeFixed64()
}

// Sfixed64Serializer handles sfixed64 payloads.
type Sfixed64Serializer struct{}

func (Sfixed64Serializer) WireType() WireType { return WireFixed64 }

func (Sfixed64Serializer) Validate(value interface{}) error {
	_, err := coerceInt64(value)
	return err
}

func (Sfixed64Serializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceInt64(value)
	if err != nil {
		return err
	}
	NewFixedEncoder(enc).EncodeSfixed64(v)
	return nil
}

func (Sfixed64Serializer) Load(dec *Decoder) (interface{}, error) {
	return NewFixedDecoder(dec).DecodeSfixed64()
}

// FloatSerializer handles 32-bit IEEE-754 payloads.
type FloatSerializer struct{}

func (FloatSerializer) WireType() WireType { return WireFixed32 }

func (FloatSerializer) Validate(value interface{}) error {
	_, err := coerceFloat32(value)
	return err
}

func (FloatSerializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceFloat32(value)
	if err != nil {
		return err
	}
	NewFixedEncoder(enc).EncodeFloat32(v)
	return nil
}

func (FloatSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewFixedDecoder(dec).DecodeFloat32()
}

// DoubleSerializer handles 64-bit IEEE-754 payloads.
type DoubleSerializer struct{}

func (DoubleSerializer) WireType() WireType { return WireFixed64 }

func (DoubleSerializer) Validate(value interface{}) error {
	_, err := coerceFloat64(value)
	return err
}

func (DoubleSerializer) Dump(enc *Encoder, value interface{}) error {
	v, err := coerceFloat64(value)
	if err != nil {
		return err
	}
	NewFixedEncoder(enc).EncodeFloat64(v)
	return nil
}

func (DoubleSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewFixedDecoder(dec).DecodeFloat64()
}

// StringSerializer handles UTF-8 string payloads.
type StringSerializer struct {
	// SkipUTF8Check disables the validity check on encode.
	SkipUTF8Check bool
}

func (s StringSerializer) WireType() WireType { return WireBytes }

func (s StringSerializer) Validate(value interface{}) error {
	str, err := coerceString(value)
	if err != nil {
		return err
	}
	if !s.SkipUTF8Check && !utf8.ValidString(str) {
		return validationErrorf("string field contains invalid UTF-8")
	}
	return nil
}

func (s StringSerializer) Dump(enc *Encoder, value interface{}) error {
	str, err := coerceString(value)
	if err != nil {
		return err
	}
	if !s.SkipUTF8Check && !utf8.ValidString(str) {
		return validationErrorf("string field contains invalid UTF-8")
	}
	NewBytesEncoder(enc).EncodeString(str)
	return nil
}

func (s StringSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewBytesDecoder(dec).DecodeString()
}

// BytesSerializer handles raw byte payloads.
type BytesSerializer struct{}

func (BytesSerializer) WireType() WireType { return WireBytes }

func (BytesSerializer) Validate(value interface{}) error {
	_, err := coerceBytes(value)
	return err
}

func (BytesSerializer) Dump(enc *Encoder, value interface{}) error {
	b, err := coerceBytes(value)
	if err != nil {
		return err
	}
	NewBytesEncoder(enc).EncodeBytes(b)
	return nil
}

func (BytesSerializer) Load(dec *Decoder) (interface{}, error) {
	return NewBytesDecoder(dec).DecodeBytes()
}

// ENUM SERIALIZER

// EnumSerializer handles int-backed enum ordinals. Encoding requires a
// declared member; decoding of unknown ordinals is configurable.
type EnumSerializer struct {
	Enum         *schema.Enum
	AllowUnknown bool
}

func (s EnumSerializer) WireType() WireType { return WireVarint }

func (s EnumSerializer) Validate(value interface{}) error {
	ord, err := int32Range(value, "enum")
	if err != nil {
		return err
	}
	if !s.Enum.HasNumber(ord) {
		return validationErrorf("%d is not a declared value of enum %s", ord, s.Enum.Name)
	}
	return nil
}

func (s EnumSerializer) Dump(enc *Encoder, value interface{}) error {
	ord, err := int32Range(value, "enum")
	if err != nil {
		return err
	}
	if !s.Enum.HasNumber(ord) {
		return validationErrorf("%d is not a declared value of enum %s", ord, s.Enum.Name)
	}
	NewVarintEncoder(enc).EncodeEnum(ord)
	return nil
}

func (s EnumSerializer) Load(dec *Decoder) (interface{}, error) {
	ord, err := NewVarintDecoder(dec).DecodeEnum()
	if err != nil {
		return nil, err
	}
	if !s.AllowUnknown && !s.Enum.HasNumber(ord) {
		return nil, decodeErrorf("unknown value %d for enum %s", ord, s.Enum.Name)
	}
	return ord, nil
}

// MESSAGE SERIALIZER

// MessageSerializer handles embedded messages as length-delimited payloads
// of the nested type's own encoding.
type MessageSerializer struct {
	target *MessageCodec
}

func (s *MessageSerializer) WireType() WireType { return WireBytes }

func (s *MessageSerializer) Validate(value interface{}) error {
	rec, ok := value.(*Record)
	if !ok {
		return validationErrorf("message value must be *Record, got %T", value)
	}
	if rec.mc != s.target {
		return validationErrorf("message value must be %s, got %s", s.target.msg.Name, rec.mc.msg.Name)
	}
	return nil
}

func (s *MessageSerializer) validateDeep(value interface{}, depth int) error {
	rec, ok := value.(*Record)
	if !ok {
		return validationErrorf("message value must be *Record, got %T", value)
	}
	return s.target.validate(rec, depth+1)
}

func (s *MessageSerializer) Dump(enc *Encoder, value interface{}) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	nested := NewEncoder()
	if err := s.target.dump(nested, value.(*Record)); err != nil {
		return err
	}
	NewBytesEncoder(enc).EncodeBytes(nested.Bytes())
	return nil
}

func (s *MessageSerializer) Load(dec *Decoder) (interface{}, error) {
	raw, err := NewBytesDecoder(dec).DecodeRawBytes()
	if err != nil {
		return nil, err
	}
	if dec.depth+1 > s.target.codec.config.recursionLimit() {
		return nil, decodeError(ErrRecursionLimit)
	}
	sub := NewDecoder(raw)
	sub.depth = dec.depth + 1
	return s.target.unmarshal(sub)
}

// PACKING SERIALIZER

// PackingSerializer reuses a scalar serializer to write concatenated
// unframed payloads inside one length-delimited block.
type PackingSerializer struct {
	Elem Serializer
}

func (s PackingSerializer) WireType() WireType { return WireBytes }

func (s PackingSerializer) Validate(value interface{}) error {
	items, err := normalizeSlice(value)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.Elem.Validate(item); err != nil {
			return err
		}
	}
	return nil
}

func (s PackingSerializer) Dump(enc *Encoder, value interface{}) error {
	items, err := normalizeSlice(value)
	if err != nil {
		return err
	}
	block := NewEncoder()
	for _, item := range items {
		if err := s.Elem.Dump(block, item); err != nil {
			return err
		}
	}
	NewBytesEncoder(enc).EncodeBytes(block.Bytes())
	return nil
}

func (s PackingSerializer) Load(dec *Decoder) (interface{}, error) {
	raw, err := NewBytesDecoder(dec).DecodeRawBytes()
	if err != nil {
		return nil, err
	}
	sub := NewDecoder(raw)
	sub.depth = dec.depth
	items := make([]interface{}, 0)
	for sub.Remaining() > 0 {
		item, err := s.Elem.Load(sub)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// DEFAULT VALUES

func (BoolSerializer) Default() interface{}     { return false }
func (IntSerializer) Default() interface{}      { return int64(0) }
func (UintSerializer) Default() interface{}     { return uint64(0) }
func (Int32Serializer) Default() interface{}    { return int32(0) }
func (Int64Serializer) Default() interface{}    { return int64(0) }
func (Uint32Serializer) Default() interface{}   { return uint32(0) }
func (Uint64Serializer) Default() interface{}   { return uint64(0) }
func (Sint32Serializer) Default() interface{}   { return int32(0) }
func (Sint64Serializer) Default() interface{}   { return int64(0) }
func (Fixed32Serializer) Default() interface{}  { return uint32(0) }
func (Sfixed32Serializer) Default() interface{} { return int32(0) }
func (Fixed64Serializer) Default() interface{}  { return uint64(0) }
func (Sfixed64Serializer) Default() interface{} { return int64(0) }
func (FloatSerializer) Default() interface{}    { return float32(0) }
func (DoubleSerializer) Default() interface{}   { return float64(0) }
func (s StringSerializer) Default() interface{} { return "" }
func (BytesSerializer) Default() interface{}    { return []byte{} }
func (s EnumSerializer) Default() interface{}   { return int32(0) }

func (s *MessageSerializer) Default() interface{} { return s.target.newRecord() }

func (s PackingSerializer) Default() interface{} { return []interface{}{} }
