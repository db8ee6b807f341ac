package schema

// Message represents a record type definition. Instances are addressed by the
// fully qualified name (package-prefixed when declared inside one).
type Message struct {
	Name        string     `json:"name"`         // "shop.Order"
	Fields      []*Field   `json:"fields"`       // regular fields
	NestedTypes []*Message `json:"nested_types"` // nested messages
	NestedEnums []*Enum    `json:"nested_enums"` // nested enums
	OneofGroups []*Oneof   `json:"oneof_groups"` // oneof groups
}

// TypeURL returns the canonical type URL for this message.
func (m *Message) TypeURL() string {
	return "type.googleapis.com/" + m.Name
}

// Field represents a message field
type Field struct {
	Name   string     `json:"name"`   // "user_name"
	Number int32      `json:"number"` // 1
	Label  FieldLabel `json:"label"`  // singular, optional, required, repeated
	Type   FieldType  `json:"type"`   // field type information
	Packed *bool      `json:"packed"` // explicit packed override; nil follows syntax default
}

// Oneof represents a oneof group. Arm fields live here, not in Message.Fields;
// their numbers share the message's number space.
type Oneof struct {
	Name   string   `json:"name"`   // "contact"
	Fields []*Field `json:"fields"` // candidate arms
}

// FieldLabel represents field labels
type FieldLabel string

const (
	// LabelSingular is the zero label: always encoded, absent reads as the
	// type's default value.
	LabelSingular FieldLabel = ""
	// LabelOptional tracks presence: unset fields encode nothing and read as nil.
	LabelOptional FieldLabel = "optional"
	// LabelRequired is the proto2 spelling; treated as singular.
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "shop.Address"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
	KindEnum      TypeKind = "enum"
)

// PrimitiveType represents protobuf primitive types. TypeInt and TypeUint are
// width-unconstrained varints (two's-complement and unsigned respectively) for
// callers that do not care about a declared width; the rest match the standard
// scalar set.
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt      PrimitiveType = "int"
	TypeUint     PrimitiveType = "uint"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitives = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt:      {},
	TypeUint:     {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeString:   {},
	TypeBytes:    {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPrimitiveType reports whether name is a known primitive type name.
func IsPrimitiveType(name string) bool {
	_, ok := primitives[PrimitiveType(name)]
	return ok
}

var packedEligible = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt:      {},
	TypeUint:     {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPackedType checks and returns if the Primitive type is packed for repeated label
func IsPackedType(t PrimitiveType) bool {
	_, ok := packedEligible[t]
	return ok
}

// Packable reports whether a repeated field of this type may be packed.
// Length-delimited payloads (string, bytes, message) never pack.
func (ft *FieldType) Packable() bool {
	switch ft.Kind {
	case KindEnum:
		return true
	case KindPrimitive:
		return IsPackedType(ft.PrimitiveType)
	default:
		return false
	}
}

// Enum represents an enum definition
type Enum struct {
	Name       string       `json:"name"`        // "shop.Status"
	Values     []*EnumValue `json:"values"`      // enum values
	AllowAlias bool         `json:"allow_alias"` // allow_alias option
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "ACTIVE"
	Number int32  `json:"number"` // 1
}

// ValueName returns the declared name for a value number, or "" when the
// number is not a member.
func (e *Enum) ValueName(number int32) string {
	for _, v := range e.Values {
		if v.Number == number {
			return v.Name
		}
	}
	return ""
}

// ValueNumber returns the number for a declared value name.
func (e *Enum) ValueNumber(name string) (int32, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Number, true
		}
	}
	return 0, false
}

// HasNumber reports whether number is a declared member of the enum.
func (e *Enum) HasNumber(number int32) bool {
	for _, v := range e.Values {
		if v.Number == number {
			return true
		}
	}
	return false
}
