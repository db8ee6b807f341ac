package registry

import (
	"sort"
	"strings"

	"github.com/purebuf/purebuf/schema"
)

// maxFieldNumber is the protobuf field number ceiling (2^29 - 1).
const maxFieldNumber = 1<<29 - 1

// Registry stores validated message and enum definitions under their fully
// qualified names. Codecs look types up here when compiling field references
// and when resolving decode requests by type name.
type Registry struct {
	messages map[string]*schema.Message
	enums    map[string]*schema.Enum
}

func NewRegistry() *Registry {
	return &Registry{
		messages: make(map[string]*schema.Message),
		enums:    make(map[string]*schema.Enum),
	}
}

// RegisterMessage validates a message definition and stores it together with
// its nested types, each under its parent-qualified name. Nested descriptor
// names are qualified in place, so "Inner" inside "shop.Order" becomes
// "shop.Order.Inner". Nothing is stored if any check fails.
func (r *Registry) RegisterMessage(msg *schema.Message) error {
	if msg == nil {
		return schema.Errorf("invalid_message", "nil message definition")
	}
	var msgs []*schema.Message
	var enums []*schema.Enum
	var walk func(name string, m *schema.Message) error
	walk = func(name string, m *schema.Message) error {
		m.Name = name
		if err := checkMessage(m); err != nil {
			return err
		}
		msgs = append(msgs, m)
		for _, ne := range m.NestedEnums {
			ne.Name = name + "." + ne.Name
			if err := checkEnum(ne); err != nil {
				return err
			}
			enums = append(enums, ne)
		}
		for _, nm := range m.NestedTypes {
			if err := walk(name+"."+nm.Name, nm); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(msg.Name, msg); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, m := range msgs {
		if _, ok := r.messages[m.Name]; ok || seen[m.Name] {
			return schema.Errorf("duplicate_type", "message %s is already registered", m.Name)
		}
		seen[m.Name] = true
	}
	for _, e := range enums {
		if _, ok := r.enums[e.Name]; ok || seen[e.Name] {
			return schema.Errorf("duplicate_type", "enum %s is already registered", e.Name)
		}
		seen[e.Name] = true
	}

	for _, m := range msgs {
		r.messages[m.Name] = m
	}
	for _, e := range enums {
		r.enums[e.Name] = e
	}
	return nil
}

// RegisterEnum validates an enum definition and stores it.
func (r *Registry) RegisterEnum(e *schema.Enum) error {
	if e == nil {
		return schema.Errorf("invalid_enum", "nil enum definition")
	}
	if err := checkEnum(e); err != nil {
		return err
	}
	if _, ok := r.enums[e.Name]; ok {
		return schema.Errorf("duplicate_type", "enum %s is already registered", e.Name)
	}
	if _, ok := r.messages[e.Name]; ok {
		return schema.Errorf("duplicate_type", "message %s is already registered", e.Name)
	}
	r.enums[e.Name] = e
	return nil
}

// GetMessage retrieves a message definition by name. Exact matches win;
// otherwise a unique-suffix lookup lets short names resolve, so "Person"
// finds "example.Person".
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}
	return nil, schema.Errorf("unresolved_type", "message not found: %s", name)
}

// GetEnum retrieves an enum definition by name, with the same suffix
// fallback as GetMessage.
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}
	for fullName, enum := range r.enums {
		if strings.HasSuffix(fullName, "."+name) {
			return enum, nil
		}
	}
	return nil, schema.Errorf("unresolved_type", "enum not found: %s", name)
}

// ListMessages returns all registered message names, sorted.
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names, sorted.
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VALIDATION

func checkMessage(m *schema.Message) error {
	if m.Name == "" {
		return schema.Errorf("invalid_message", "message name cannot be empty")
	}
	numbers := make(map[int32]string)
	names := make(map[string]bool)
	checkField := func(f *schema.Field, group string) error {
		if f.Name == "" {
			return schema.Errorf("invalid_field", "message %s: field name cannot be empty", m.Name)
		}
		if f.Number < 1 || f.Number > maxFieldNumber {
			return schema.Errorf("invalid_field", "message %s: field %s has invalid number %d", m.Name, f.Name, f.Number)
		}
		if prev, ok := numbers[f.Number]; ok {
			return schema.Errorf("invalid_field", "message %s: fields %s and %s share number %d", m.Name, prev, f.Name, f.Number)
		}
		numbers[f.Number] = f.Name
		if names[f.Name] {
			return schema.Errorf("invalid_field", "message %s: duplicate field name %q", m.Name, f.Name)
		}
		names[f.Name] = true
		if group != "" && f.Label != schema.LabelSingular {
			return schema.Errorf("invalid_field", "message %s: oneof arm %s cannot be %s", m.Name, f.Name, f.Label)
		}
		return checkFieldType(m.Name, f)
	}
	for _, f := range m.Fields {
		if err := checkField(f, ""); err != nil {
			return err
		}
	}
	for _, g := range m.OneofGroups {
		if g.Name == "" {
			return schema.Errorf("invalid_field", "message %s: oneof group name cannot be empty", m.Name)
		}
		for _, f := range g.Fields {
			if err := checkField(f, g.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFieldType(msgName string, f *schema.Field) error {
	switch f.Type.Kind {
	case schema.KindPrimitive:
		if !schema.IsPrimitiveType(string(f.Type.PrimitiveType)) {
			return schema.Errorf("invalid_field", "message %s: field %s has unknown primitive type %q", msgName, f.Name, f.Type.PrimitiveType)
		}
	case schema.KindMessage:
		if f.Type.MessageType == "" {
			return schema.Errorf("invalid_field", "message %s: field %s is missing its message type reference", msgName, f.Name)
		}
	case schema.KindEnum:
		if f.Type.EnumType == "" {
			return schema.Errorf("invalid_field", "message %s: field %s is missing its enum type reference", msgName, f.Name)
		}
	default:
		return schema.Errorf("invalid_field", "message %s: field %s has unsupported type kind %q", msgName, f.Name, f.Type.Kind)
	}
	return nil
}

func checkEnum(e *schema.Enum) error {
	if e.Name == "" {
		return schema.Errorf("invalid_enum", "enum name cannot be empty")
	}
	numbers := make(map[int32]string)
	names := make(map[string]bool)
	for _, v := range e.Values {
		if v.Name == "" {
			return schema.Errorf("invalid_enum", "enum %s: value name cannot be empty", e.Name)
		}
		if names[v.Name] {
			return schema.Errorf("invalid_enum", "enum %s: duplicate value name %q", e.Name, v.Name)
		}
		names[v.Name] = true
		if prev, ok := numbers[v.Number]; ok && !e.AllowAlias {
			return schema.Errorf("invalid_enum", "enum %s: values %s and %s share number %d without allow_alias", e.Name, prev, v.Name, v.Number)
		}
		numbers[v.Number] = v.Name
	}
	return nil
}
