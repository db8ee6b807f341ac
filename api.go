package purebuf

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/purebuf/purebuf/registry"
	"github.com/purebuf/purebuf/schema"
	"github.com/purebuf/purebuf/wire"
)

// ===== SCHEMA-AWARE API =====

// Purebuf bundles a type registry, a .proto loader and a codec behind one
// handle: register types (built with the schema package or imported from
// .proto source), then move records between Go values and wire bytes.
// Register every type before sharing an instance across goroutines.
type Purebuf struct {
	registry *registry.Registry
	loader   *registry.Loader
	codec    *wire.Codec
}

// Option configures a Purebuf instance.
type Option func(*options)

type options struct {
	config      wire.Config
	importPaths []string
}

// WithRecursionLimit caps message nesting for decoding and validation.
func WithRecursionLimit(n int) Option {
	return func(o *options) { o.config.RecursionLimit = n }
}

// WithAllowUnknownEnum keeps unknown enum ordinals on decode instead of
// rejecting them.
func WithAllowUnknownEnum() Option {
	return func(o *options) { o.config.AllowUnknownEnum = true }
}

// WithCaptureUnknown retains the raw bytes of skipped unknown fields on
// decoded records and re-emits them when the record is marshaled.
func WithCaptureUnknown() Option {
	return func(o *options) { o.config.CaptureUnknown = true }
}

// WithSkipUTF8Validation disables the string validity check on encode.
func WithSkipUTF8Validation() Option {
	return func(o *options) { o.config.SkipUTF8Validation = true }
}

// WithImportPaths adds directories .proto import statements resolve against.
func WithImportPaths(dirs ...string) Option {
	return func(o *options) { o.importPaths = append(o.importPaths, dirs...) }
}

// New creates a Purebuf instance.
func New(opts ...Option) *Purebuf {
	o := &options{config: wire.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	reg := registry.NewRegistry()
	return &Purebuf{
		registry: reg,
		loader:   &registry.Loader{ImportPaths: o.importPaths},
		codec:    wire.NewCodecWithConfig(reg, o.config),
	}
}

// Register validates and compiles message and enum definitions built with
// the schema package. Types that reference each other belong in one call.
func (p *Purebuf) Register(defs ...interface{}) error {
	return p.codec.Register(defs...)
}

// LoadSchemaFile parses a .proto file and its imports and registers every
// declared type.
func (p *Purebuf) LoadSchemaFile(path string) error {
	msgs, enums, err := p.loader.LoadFile(path)
	if err != nil {
		return err
	}
	return p.registerLoaded(msgs, enums)
}

// LoadSchema parses inline .proto source and registers every declared type.
// Imports inside the source still resolve via the configured import paths.
func (p *Purebuf) LoadSchema(source string) error {
	msgs, enums, err := p.loader.Load(source)
	if err != nil {
		return err
	}
	return p.registerLoaded(msgs, enums)
}

func (p *Purebuf) registerLoaded(msgs []*schema.Message, enums []*schema.Enum) error {
	defs := make([]interface{}, 0, len(msgs)+len(enums))
	for _, e := range enums {
		defs = append(defs, e)
	}
	for _, m := range msgs {
		defs = append(defs, m)
	}
	return p.codec.Register(defs...)
}

// NewRecord returns an empty record of a registered type.
func (p *Purebuf) NewRecord(typeName string) (*wire.Record, error) {
	return p.codec.NewRecord(typeName)
}

// Marshal validates and encodes a record. Validation failure produces no
// bytes.
func (p *Purebuf) Marshal(rec *wire.Record) ([]byte, error) {
	return p.codec.Marshal(rec)
}

// Unmarshal decodes protobuf bytes into a new record of the named type.
func (p *Purebuf) Unmarshal(typeName string, data []byte) (*wire.Record, error) {
	return p.codec.Unmarshal(typeName, data)
}

// Merge folds src into dst following protobuf merge semantics.
func (p *Purebuf) Merge(dst, src *wire.Record) error {
	return p.codec.Merge(dst, src)
}

// Validate checks a record without encoding it.
func (p *Purebuf) Validate(rec *wire.Record) error {
	return p.codec.Validate(rec)
}

// UnmarshalToStruct decodes protobuf bytes and copies the record's fields
// into a Go struct using reflection. Struct field names match their
// snake_case schema counterparts (UserName -> user_name); nested records
// fill nested structs and repeated fields fill slices.
func (p *Purebuf) UnmarshalToStruct(typeName string, data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}
	rec, err := p.codec.Unmarshal(typeName, data)
	if err != nil {
		return err
	}
	return recordToStruct(rec, rv.Elem())
}

// recordToStruct maps record fields to struct fields
func recordToStruct(rec *wire.Record, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fieldValue := rv.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		value := rec.Get(toSnakeCase(field.Name))
		if value == nil {
			continue
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set field %s: %v", field.Name, err)
		}
	}
	return nil
}

// setFieldValue sets a struct field with type conversion
func setFieldValue(fieldValue reflect.Value, value interface{}) error {
	if value == nil {
		return nil
	}

	if rec, ok := value.(*wire.Record); ok {
		target := fieldValue
		if target.Kind() == reflect.Ptr {
			if target.IsNil() {
				target.Set(reflect.New(target.Type().Elem()))
			}
			target = target.Elem()
		}
		if target.Kind() != reflect.Struct {
			return fmt.Errorf("cannot convert record to %s", fieldValue.Type())
		}
		return recordToStruct(rec, target)
	}

	if items, ok := value.([]interface{}); ok && fieldValue.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(fieldValue.Type(), len(items), len(items))
		for i, item := range items {
			if err := setFieldValue(slice.Index(i), item); err != nil {
				return err
			}
		}
		fieldValue.Set(slice)
		return nil
	}

	sourceValue := reflect.ValueOf(value)
	if sourceValue.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue)
		return nil
	}

	if sourceValue.Type().ConvertibleTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue.Convert(fieldValue.Type()))
		return nil
	}

	return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
}

// toSnakeCase converts a Go struct field name to its schema counterpart:
// "UserName" -> "user_name", "ID" -> "id".
func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && !unicode.IsUpper(rune(name[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ===== REGISTRY ACCESS =====

func (p *Purebuf) Registry() *registry.Registry { return p.registry }
func (p *Purebuf) ListMessages() []string       { return p.registry.ListMessages() }
func (p *Purebuf) ListEnums() []string          { return p.registry.ListEnums() }

// Types returns every registered type name, messages and enums together.
func (p *Purebuf) Types() []string {
	names := append(p.registry.ListMessages(), p.registry.ListEnums()...)
	sort.Strings(names)
	return names
}

// Message looks up a registered message definition.
func (p *Purebuf) Message(name string) (*schema.Message, error) {
	return p.registry.GetMessage(name)
}

// Enum looks up a registered enum definition.
func (p *Purebuf) Enum(name string) (*schema.Enum, error) {
	return p.registry.GetEnum(name)
}
