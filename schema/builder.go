package schema

// MessageBuilder assembles a Message descriptor one field at a time. Modifier
// calls (Optional, Repeated, Unpacked) apply to the most recently added field.
// Structural validation happens at registration, not here; the builder only
// guards against modifier misuse, which panics as a programming error.
type MessageBuilder struct {
	msg  *Message
	last *Field
}

// NewMessage starts a builder for a message type. The name should be fully
// qualified ("shop.Order") when the type belongs to a package.
func NewMessage(name string) *MessageBuilder {
	return &MessageBuilder{msg: &Message{Name: name}}
}

func (b *MessageBuilder) add(name string, number int32, t FieldType) *MessageBuilder {
	f := &Field{Name: name, Number: number, Type: t}
	b.msg.Fields = append(b.msg.Fields, f)
	b.last = f
	return b
}

// Bool adds a bool field.
func (b *MessageBuilder) Bool(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeBool))
}

// Int adds a width-unconstrained signed varint field (two's-complement, not
// zigzag; negative values always occupy ten bytes on the wire).
func (b *MessageBuilder) Int(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeInt))
}

// Uint adds a width-unconstrained unsigned varint field.
func (b *MessageBuilder) Uint(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeUint))
}

// Int32 adds an int32 field.
func (b *MessageBuilder) Int32(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeInt32))
}

// Int64 adds an int64 field.
func (b *MessageBuilder) Int64(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeInt64))
}

// Uint32 adds a uint32 field.
func (b *MessageBuilder) Uint32(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeUint32))
}

// Uint64 adds a uint64 field.
func (b *MessageBuilder) Uint64(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeUint64))
}

// Sint32 adds a zigzag-encoded int32 field.
func (b *MessageBuilder) Sint32(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeSint32))
}

// Sint64 adds a zigzag-encoded int64 field.
func (b *MessageBuilder) Sint64(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeSint64))
}

// Fixed32 adds a fixed32 field.
func (b *MessageBuilder) Fixed32(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeFixed32))
}

// Sfixed32 adds an sfixed32 field.
func (b *MessageBuilder) Sfixed32(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeSfixed32))
}

// Fixed64 adds a fixed64 field.
func (b *MessageBuilder) Fixed64(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeFixed64))
}

// Sfixed64 adds an sfixed64 field.
func (b *MessageBuilder) Sfixed64(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeSfixed64))
}

// Float adds a float field (32-bit IEEE-754).
func (b *MessageBuilder) Float(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeFloat))
}

// Double adds a double field (64-bit IEEE-754).
func (b *MessageBuilder) Double(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeDouble))
}

// String adds a string field.
func (b *MessageBuilder) String(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeString))
}

// Bytes adds a bytes field.
func (b *MessageBuilder) Bytes(name string, number int32) *MessageBuilder {
	return b.add(name, number, Primitive(TypeBytes))
}

// Enum adds an enum field referencing a registered enum type by name.
func (b *MessageBuilder) Enum(name string, number int32, enumType string) *MessageBuilder {
	return b.add(name, number, EnumRef(enumType))
}

// Message adds an embedded message field referencing a registered message
// type by name. Self references are allowed for recursive types.
func (b *MessageBuilder) Message(name string, number int32, messageType string) *MessageBuilder {
	return b.add(name, number, MessageRef(messageType))
}

// Optional marks the last added field as presence-tracked: unset values
// encode nothing and read back as nil.
func (b *MessageBuilder) Optional() *MessageBuilder {
	b.mustLast("Optional")
	b.last.Label = LabelOptional
	return b
}

// Repeated marks the last added field as repeated. Packable element types
// default to packed encoding; see Unpacked.
func (b *MessageBuilder) Repeated() *MessageBuilder {
	b.mustLast("Repeated")
	b.last.Label = LabelRepeated
	return b
}

// Unpacked forces one tag/payload pair per element for a repeated field.
func (b *MessageBuilder) Unpacked() *MessageBuilder {
	b.mustLast("Unpacked")
	packed := false
	b.last.Packed = &packed
	return b
}

// Oneof adds a group of mutually exclusive arms built with Arm. Arm numbers
// share the message's field-number space.
func (b *MessageBuilder) Oneof(group string, arms ...*Field) *MessageBuilder {
	b.msg.OneofGroups = append(b.msg.OneofGroups, &Oneof{Name: group, Fields: arms})
	b.last = nil
	return b
}

// Build returns the assembled descriptor.
func (b *MessageBuilder) Build() *Message {
	return b.msg
}

func (b *MessageBuilder) mustLast(modifier string) {
	if b.last == nil {
		panic("schema: " + modifier + "() must follow a field declaration")
	}
}

// Arm builds a oneof arm field for MessageBuilder.Oneof.
func Arm(name string, number int32, t FieldType) *Field {
	return &Field{Name: name, Number: number, Type: t}
}

// Primitive builds a FieldType for a scalar kind.
func Primitive(t PrimitiveType) FieldType {
	return FieldType{Kind: KindPrimitive, PrimitiveType: t}
}

// MessageRef builds a FieldType referencing a message type by name.
func MessageRef(name string) FieldType {
	return FieldType{Kind: KindMessage, MessageType: name}
}

// EnumRef builds a FieldType referencing an enum type by name.
func EnumRef(name string) FieldType {
	return FieldType{Kind: KindEnum, EnumType: name}
}

// EnumBuilder assembles an Enum descriptor.
type EnumBuilder struct {
	enum *Enum
}

// NewEnum starts a builder for an enum type.
func NewEnum(name string) *EnumBuilder {
	return &EnumBuilder{enum: &Enum{Name: name}}
}

// Value adds a named member.
func (b *EnumBuilder) Value(name string, number int32) *EnumBuilder {
	b.enum.Values = append(b.enum.Values, &EnumValue{Name: name, Number: number})
	return b
}

// AllowAlias permits multiple names for the same number.
func (b *EnumBuilder) AllowAlias() *EnumBuilder {
	b.enum.AllowAlias = true
	return b
}

// Build returns the assembled descriptor.
func (b *EnumBuilder) Build() *Enum {
	return b.enum
}
