package wire

import (
	"fmt"
	"sort"

	"github.com/purebuf/purebuf/registry"
	"github.com/purebuf/purebuf/schema"
)

// MessageCodec is the compiled form of one registered message type: its
// field codecs in ascending field-number order plus lookup tables for
// decoding and record access. Compiled codecs are immutable.
type MessageCodec struct {
	msg      *schema.Message
	codec    *Codec
	fields   []fieldCodec
	byNumber map[FieldNumber]fieldCodec
	byName   map[string]fieldCodec
}

func (mc *MessageCodec) newRecord() *Record {
	return &Record{
		mc:     mc,
		values: make(map[string]interface{}),
		oneofs: make(map[string]string),
	}
}

// Codec turns registered schema definitions into compiled message codecs
// and drives encoding and decoding of records. Register all types first;
// after registration a Codec is safe for concurrent use.
type Codec struct {
	reg    *registry.Registry
	config Config
	codecs map[*schema.Message]*MessageCodec
}

// NewCodec creates a codec with default configuration resolving type names
// against reg.
func NewCodec(reg *registry.Registry) *Codec {
	return NewCodecWithConfig(reg, DefaultConfig())
}

// NewCodecWithConfig creates a codec with explicit configuration.
func NewCodecWithConfig(reg *registry.Registry, cfg Config) *Codec {
	return &Codec{
		reg:    reg,
		config: cfg,
		codecs: make(map[*schema.Message]*MessageCodec),
	}
}

// Registry returns the registry this codec resolves type names against.
func (c *Codec) Registry() *registry.Registry {
	return c.reg
}

// Config returns the codec configuration.
func (c *Codec) Config() Config {
	return c.config
}

// Register validates definitions, stores them in the registry and compiles
// message codecs. Definitions may be *schema.Message or *schema.Enum.
// Types that reference each other must be registered in the same call or
// referenced types first.
func (c *Codec) Register(defs ...interface{}) error {
	var msgs []*schema.Message
	for _, def := range defs {
		switch d := def.(type) {
		case *schema.Message:
			if err := c.reg.RegisterMessage(d); err != nil {
				return err
			}
			msgs = append(msgs, d)
		case *schema.Enum:
			if err := c.reg.RegisterEnum(d); err != nil {
				return err
			}
		default:
			return schema.Errorf("bad_definition", "cannot register %T, want *schema.Message or *schema.Enum", def)
		}
	}
	return c.compile(msgs)
}

// NewRecord returns an empty record of a registered type.
func (c *Codec) NewRecord(typeName string) (*Record, error) {
	mc, err := c.lookup(typeName)
	if err != nil {
		return nil, err
	}
	return mc.newRecord(), nil
}

// Marshal validates rec recursively, then encodes its fields in ascending
// field-number order. A validation failure produces no bytes.
func (c *Codec) Marshal(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, validationErrorf("cannot marshal nil record")
	}
	if err := rec.mc.validate(rec, 0); err != nil {
		return nil, err
	}
	enc := NewEncoder()
	if err := rec.mc.dump(enc, rec); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// Unmarshal decodes data into a new record of the named type. Unknown
// fields are skipped by wire type; empty input yields a default record.
func (c *Codec) Unmarshal(typeName string, data []byte) (*Record, error) {
	mc, err := c.lookup(typeName)
	if err != nil {
		return nil, err
	}
	return mc.unmarshal(NewDecoder(data))
}

// Merge folds src into dst field by field: set scalars overwrite, embedded
// messages merge recursively, repeated fields concatenate, an active oneof
// arm in src replaces dst's arm. Records must share a type.
func (c *Codec) Merge(dst, src *Record) error {
	if dst == nil || src == nil {
		return validationErrorf("cannot merge nil records")
	}
	if dst.mc != src.mc {
		return validationErrorf("cannot merge %s into %s", src.mc.msg.Name, dst.mc.msg.Name)
	}
	dst.mergeFrom(src)
	return nil
}

// Validate runs the checks Marshal performs, without encoding.
func (c *Codec) Validate(rec *Record) error {
	if rec == nil {
		return validationErrorf("cannot validate nil record")
	}
	return rec.mc.validate(rec, 0)
}

func (c *Codec) lookup(typeName string) (*MessageCodec, error) {
	m, err := c.reg.GetMessage(typeName)
	if err != nil {
		return nil, err
	}
	mc, ok := c.codecs[m]
	if !ok {
		return nil, schema.Errorf("unresolved_type", "message %s is not compiled by this codec", typeName)
	}
	return mc, nil
}

// COMPILATION

// compile builds codecs for a registration batch in two phases: shells for
// every new message first, field codecs second, so recursive and mutually
// recursive types resolve.
func (c *Codec) compile(msgs []*schema.Message) error {
	var pending []*schema.Message
	var shell func(m *schema.Message)
	shell = func(m *schema.Message) {
		if _, ok := c.codecs[m]; ok {
			return
		}
		c.codecs[m] = &MessageCodec{msg: m, codec: c}
		pending = append(pending, m)
		for _, nested := range m.NestedTypes {
			shell(nested)
		}
	}
	for _, m := range msgs {
		shell(m)
	}
	for _, m := range pending {
		if err := c.build(c.codecs[m]); err != nil {
			for _, p := range pending {
				delete(c.codecs, p)
			}
			return err
		}
	}
	return nil
}

func (c *Codec) build(mc *MessageCodec) error {
	mc.byNumber = make(map[FieldNumber]fieldCodec)
	mc.byName = make(map[string]fieldCodec)

	add := func(fc fieldCodec) {
		mc.fields = append(mc.fields, fc)
		mc.byNumber[fc.number()] = fc
		mc.byName[fc.name()] = fc
	}

	for _, f := range mc.msg.Fields {
		fc, err := c.buildField(f, "")
		if err != nil {
			return fmt.Errorf("message %s: %w", mc.msg.Name, err)
		}
		add(fc)
	}
	for _, g := range mc.msg.OneofGroups {
		for _, f := range g.Fields {
			fc, err := c.buildField(f, g.Name)
			if err != nil {
				return fmt.Errorf("message %s: %w", mc.msg.Name, err)
			}
			add(fc)
		}
	}
	sort.Slice(mc.fields, func(i, j int) bool {
		return mc.fields[i].number() < mc.fields[j].number()
	})
	return nil
}

func (c *Codec) buildField(f *schema.Field, group string) (fieldCodec, error) {
	ser, err := c.serializerFor(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	num := FieldNumber(f.Number)
	if group != "" {
		return newOneofArmField(f.Name, num, ser, group), nil
	}
	switch f.Label {
	case schema.LabelRepeated:
		if fieldPacked(f) {
			return newPackedField(f.Name, num, ser), nil
		}
		return newUnpackedField(f.Name, num, ser), nil
	case schema.LabelOptional:
		return newSingularField(f.Name, num, ser, true), nil
	default:
		return newSingularField(f.Name, num, ser, false), nil
	}
}

// fieldPacked resolves the packed representation for a repeated field:
// explicit override first, packed by default for packable element types.
// BYTES-wire elements never pack regardless of declaration.
func fieldPacked(f *schema.Field) bool {
	if !f.Type.Packable() {
		return false
	}
	if f.Packed != nil {
		return *f.Packed
	}
	return true
}

func (c *Codec) serializerFor(t schema.FieldType) (Serializer, error) {
	switch t.Kind {
	case schema.KindPrimitive:
		return c.primitiveSerializer(t.PrimitiveType)
	case schema.KindMessage:
		target, err := c.reg.GetMessage(t.MessageType)
		if err != nil {
			return nil, err
		}
		mc, ok := c.codecs[target]
		if !ok {
			return nil, schema.Errorf("unresolved_type", "message %s is not compiled by this codec", t.MessageType)
		}
		return &MessageSerializer{target: mc}, nil
	case schema.KindEnum:
		e, err := c.reg.GetEnum(t.EnumType)
		if err != nil {
			return nil, err
		}
		return EnumSerializer{Enum: e, AllowUnknown: c.config.AllowUnknownEnum}, nil
	}
	return nil, schema.Errorf("unresolved_type", "unsupported field type kind %q", t.Kind)
}

func (c *Codec) primitiveSerializer(t schema.PrimitiveType) (Serializer, error) {
	switch t {
	case schema.TypeBool:
		return BoolSerializer{}, nil
	case schema.TypeInt:
		return IntSerializer{}, nil
	case schema.TypeUint:
		return UintSerializer{}, nil
	case schema.TypeInt32:
		return Int32Serializer{}, nil
	case schema.TypeInt64:
		return Int64Serializer{}, nil
	case schema.TypeUint32:
		return Uint32Serializer{}, nil
	case schema.TypeUint64:
		return Uint64Serializer{}, nil
	case schema.TypeSint32:
		return Sint32Serializer{}, nil
	case schema.TypeSint64:
		return Sint64Serializer{}, nil
	case schema.TypeFixed32:
		return Fixed32Serializer{}, nil
	case schema.TypeSfixed32:
		return Sfixed32Serializer{}, nil
	case schema.TypeFixed64:
		return Fixed64Serializer{}, nil
	case schema.TypeSfixed64:
		return Sfixed64Serializer{}, nil
	case schema.TypeFloat:
		return FloatSerializer{}, nil
	case schema.TypeDouble:
		return DoubleSerializer{}, nil
	case schema.TypeString:
		return StringSerializer{SkipUTF8Check: c.config.SkipUTF8Validation}, nil
	case schema.TypeBytes:
		return BytesSerializer{}, nil
	}
	return nil, schema.Errorf("unresolved_type", "unknown primitive type %q", t)
}

// ENCODING / DECODING

func (mc *MessageCodec) dump(enc *Encoder, rec *Record) error {
	for _, fc := range mc.fields {
		if err := fc.dump(enc, rec); err != nil {
			return err
		}
	}
	// Captured unknown fields survive a decode/encode round trip verbatim.
	if len(rec.unknown) > 0 {
		enc.buf = append(enc.buf, rec.unknown...)
	}
	return nil
}

func (mc *MessageCodec) unmarshal(dec *Decoder) (*Record, error) {
	rec := mc.newRecord()
	for dec.Remaining() > 0 {
		tagStart := dec.pos
		num, wt, err := dec.DecodeTag()
		if err != nil {
			return nil, err
		}
		fc, ok := mc.byNumber[num]
		if !ok {
			if err := dec.skipField(wt); err != nil {
				return nil, err
			}
			if mc.codec.config.CaptureUnknown {
				rec.unknown = append(rec.unknown, dec.buf[tagStart:dec.pos]...)
			}
			continue
		}
		if err := fc.load(rec, dec, wt); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (mc *MessageCodec) validate(rec *Record, depth int) error {
	if rec == nil {
		return validationErrorf("nil record for message %s", mc.msg.Name)
	}
	if rec.mc != mc {
		return validationErrorf("message value must be %s, got %s", mc.msg.Name, rec.mc.msg.Name)
	}
	if depth > mc.codec.config.recursionLimit() {
		return validationErrorf("message nesting exceeds recursion limit %d", mc.codec.config.recursionLimit())
	}
	for _, fc := range mc.fields {
		if err := fc.validate(rec, depth); err != nil {
			return err
		}
	}
	return nil
}
