package wire

import (
	"fmt"
	"strings"

	"github.com/purebuf/purebuf/schema"
)

// Record is a dynamic instance of a registered message type. Field access
// goes by declared field name; values are held loosely and validated when
// the record is marshaled. A Record is not safe for concurrent mutation.
type Record struct {
	mc      *MessageCodec
	values  map[string]interface{}
	oneofs  map[string]string
	unknown []byte
}

// Type returns the schema message this record is an instance of.
func (r *Record) Type() *schema.Message {
	return r.mc.msg
}

// TypeURL returns the type URL of the record's message type.
func (r *Record) TypeURL() string {
	return r.mc.msg.TypeURL()
}

// Set stores a field value. Setting nil clears the field; setting a oneof
// arm makes it the active arm and drops its siblings. Values are checked
// for shape here and fully validated at marshal time.
func (r *Record) Set(field string, value interface{}) error {
	fc, ok := r.mc.byName[field]
	if !ok {
		return fmt.Errorf("unknown field %q in message %s", field, r.mc.msg.Name)
	}
	return fc.set(r, value)
}

// Get returns the field value, or its default when unset: zero for scalars,
// an empty list for repeated fields, an empty record for singular message
// fields, nil for unset optional fields and inactive oneof arms. Unknown
// field names yield nil.
func (r *Record) Get(field string) interface{} {
	fc, ok := r.mc.byName[field]
	if !ok {
		return nil
	}
	return fc.get(r)
}

// Has reports whether the field is explicitly set (for oneof arms, whether
// the arm is active; for repeated fields, whether any element is present).
func (r *Record) Has(field string) bool {
	fc, ok := r.mc.byName[field]
	if !ok {
		return false
	}
	return fc.has(r)
}

// Clear removes the field value, reverting reads to the default.
func (r *Record) Clear(field string) {
	if fc, ok := r.mc.byName[field]; ok {
		fc.clear(r)
	}
}

// WhichOneof returns the active arm of a oneof group, or "".
func (r *Record) WhichOneof(group string) string {
	return r.oneofs[group]
}

// Unknown returns the raw bytes of unknown fields skipped during decoding.
// Empty unless the codec was configured to capture them.
func (r *Record) Unknown() []byte {
	return r.unknown
}

// FieldNames returns the declared field names in field-number order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.mc.fields))
	for i, fc := range r.mc.fields {
		names[i] = fc.name()
	}
	return names
}

// Equal reports deep equality of two records of the same type. Unset fields
// compare through their defaults; captured unknown bytes do not participate.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.mc != other.mc && r.mc.msg.TypeURL() != other.mc.msg.TypeURL() {
		return false
	}
	for _, fc := range r.mc.fields {
		if !fc.equal(r, other) {
			return false
		}
	}
	return true
}

// String renders the set fields in declaration order for debugging.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.mc.msg.Name)
	b.WriteByte('{')
	first := true
	for _, fc := range r.mc.fields {
		if !fc.has(r) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: %v", fc.name(), r.values[fc.name()])
	}
	b.WriteByte('}')
	return b.String()
}

// UTILITY FUNCTIONS

// storeArm makes arm the active member of group, dropping a previously
// active sibling.
func (r *Record) storeArm(group, arm string, value interface{}) {
	if cur, ok := r.oneofs[group]; ok && cur != arm {
		delete(r.values, cur)
	}
	r.oneofs[group] = arm
	r.values[arm] = value
}

// clearGroup deactivates group and removes its stored arm value.
func (r *Record) clearGroup(group string) {
	if cur, ok := r.oneofs[group]; ok {
		delete(r.values, cur)
		delete(r.oneofs, group)
	}
}

// appendItems concatenates decoded or merged elements onto a repeated field.
func (r *Record) appendItems(name string, items []interface{}) {
	existing, err := normalizeSlice(r.values[name])
	if err != nil {
		existing = nil
	}
	merged := make([]interface{}, 0, len(existing)+len(items))
	merged = append(merged, existing...)
	merged = append(merged, items...)
	r.values[name] = merged
}

// mergeFrom folds src into r field by field. Both records must share a type;
// the exported entry point checks that.
func (r *Record) mergeFrom(src *Record) {
	for _, fc := range r.mc.fields {
		fc.merge(r, src)
	}
	if len(src.unknown) > 0 {
		r.unknown = append(r.unknown, src.unknown...)
	}
}
