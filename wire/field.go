package wire

import (
	"bytes"
	"reflect"
)

// fieldCodec is the compiled per-field behavior a message codec dispatches
// through. One implementation exists per declaration shape: singular (plus
// oneof arms), packed repeated, unpacked repeated.
type fieldCodec interface {
	name() string
	number() FieldNumber
	// group returns the oneof group name, or "" for plain fields.
	group() string

	dump(enc *Encoder, rec *Record) error
	load(rec *Record, dec *Decoder, wt WireType) error
	validate(rec *Record, depth int) error
	merge(dst, src *Record)
	equal(a, b *Record) bool

	set(rec *Record, value interface{}) error
	get(rec *Record) interface{}
	has(rec *Record) bool
	clear(rec *Record)
}

type baseField struct {
	fname string
	num   FieldNumber
	oneof string
	ser   Serializer
}

func (f *baseField) name() string       { return f.fname }
func (f *baseField) number() FieldNumber { return f.num }
func (f *baseField) group() string      { return f.oneof }

// validateValue runs the serializer's shallow check, descending into nested
// records when the serializer supports it.
func validateValue(ser Serializer, value interface{}, depth int) error {
	if dv, ok := ser.(deepValidator); ok {
		return dv.validateDeep(value, depth)
	}
	return ser.Validate(value)
}

// valuesEqual compares two field values of the same declared type. Scalars
// compare by their encoded payload so that coercible representations (int vs
// int64) agree; records compare recursively.
func valuesEqual(ser Serializer, a, b interface{}) bool {
	if ra, ok := a.(*Record); ok {
		rb, ok2 := b.(*Record)
		return ok2 && ra.Equal(rb)
	}
	if _, ok := b.(*Record); ok {
		return false
	}
	ea, eb := NewEncoder(), NewEncoder()
	if errA, errB := ser.Dump(ea, a), ser.Dump(eb, b); errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ea.Bytes(), eb.Bytes())
}

// NON-REPEATED FIELDS

// nonRepeatedField covers singular fields, optional fields and oneof arms.
type nonRepeatedField struct {
	baseField
	optional bool
}

func newSingularField(name string, num FieldNumber, ser Serializer, optional bool) *nonRepeatedField {
	return &nonRepeatedField{
		baseField: baseField{fname: name, num: num, ser: ser},
		optional:  optional,
	}
}

func newOneofArmField(name string, num FieldNumber, ser Serializer, group string) *nonRepeatedField {
	return &nonRepeatedField{
		baseField: baseField{fname: name, num: num, oneof: group, ser: ser},
	}
}

func (f *nonRepeatedField) dump(enc *Encoder, rec *Record) error {
	v, ok := rec.values[f.fname]
	switch {
	case f.oneof != "":
		if rec.oneofs[f.oneof] != f.fname {
			return nil
		}
	case f.optional:
		if !ok {
			return nil
		}
	default:
		if !ok {
			v = f.ser.Default()
		}
	}
	enc.EncodeTag(f.num, f.ser.WireType())
	if err := f.ser.Dump(enc, v); err != nil {
		return wrapEncodingFieldError(err, f.fname)
	}
	return nil
}

func (f *nonRepeatedField) load(rec *Record, dec *Decoder, wt WireType) error {
	if wt != f.ser.WireType() {
		return wrapDecodingFieldError(decodeErrorf("unexpected wire type %d, want %d", wt, f.ser.WireType()), f.fname)
	}
	v, err := f.ser.Load(dec)
	if err != nil {
		return wrapDecodingFieldError(err, f.fname)
	}
	if f.oneof != "" {
		if rec.oneofs[f.oneof] == f.fname {
			if dst, ok := rec.values[f.fname].(*Record); ok {
				if src, ok2 := v.(*Record); ok2 {
					dst.mergeFrom(src)
					return nil
				}
			}
		}
		rec.storeArm(f.oneof, f.fname, v)
		return nil
	}
	// Repeated occurrences of an embedded message merge; scalars last-win.
	if dst, ok := rec.values[f.fname].(*Record); ok {
		if src, ok2 := v.(*Record); ok2 {
			dst.mergeFrom(src)
			return nil
		}
	}
	rec.values[f.fname] = v
	return nil
}

func (f *nonRepeatedField) validate(rec *Record, depth int) error {
	v, ok := rec.values[f.fname]
	if f.oneof != "" {
		if rec.oneofs[f.oneof] != f.fname {
			return nil
		}
	} else if !ok {
		if _, isMsg := f.ser.(*MessageSerializer); isMsg && !f.optional {
			// An absent message field dumps a default record, which nests
			// recursively; bound it like a set value so a self-referential
			// type fails here instead of overflowing the stack in dump.
			if err := validateValue(f.ser, f.ser.Default(), depth); err != nil {
				return wrapEncodingFieldError(err, f.fname)
			}
		}
		// Absent scalars dump their default, which always validates.
		return nil
	}
	if err := validateValue(f.ser, v, depth); err != nil {
		return wrapEncodingFieldError(err, f.fname)
	}
	return nil
}

func (f *nonRepeatedField) merge(dst, src *Record) {
	if f.oneof != "" {
		if src.oneofs[f.oneof] != f.fname {
			return
		}
		sv := src.values[f.fname]
		if dst.oneofs[f.oneof] == f.fname {
			if dr, ok := dst.values[f.fname].(*Record); ok {
				if sr, ok2 := sv.(*Record); ok2 {
					dr.mergeFrom(sr)
					return
				}
			}
		}
		dst.storeArm(f.oneof, f.fname, sv)
		return
	}
	sv, sok := src.values[f.fname]
	if _, isMsg := f.ser.(*MessageSerializer); isMsg {
		if !sok {
			return
		}
		sr, ok := sv.(*Record)
		dr, ok2 := dst.values[f.fname].(*Record)
		if ok && ok2 {
			dr.mergeFrom(sr)
			return
		}
		dst.values[f.fname] = sv
		return
	}
	if f.optional && !sok {
		return
	}
	if !sok {
		// Singular scalars read through their default, so src always wins.
		sv = f.ser.Default()
	}
	dst.values[f.fname] = sv
}

func (f *nonRepeatedField) equal(a, b *Record) bool {
	if f.oneof != "" {
		active := a.oneofs[f.oneof] == f.fname
		if active != (b.oneofs[f.oneof] == f.fname) {
			return false
		}
		if !active {
			return true
		}
		return valuesEqual(f.ser, a.values[f.fname], b.values[f.fname])
	}
	av, aok := a.values[f.fname]
	bv, bok := b.values[f.fname]
	if f.optional {
		if aok != bok {
			return false
		}
		if !aok {
			return true
		}
		return valuesEqual(f.ser, av, bv)
	}
	if !aok {
		av = f.ser.Default()
	}
	if !bok {
		bv = f.ser.Default()
	}
	return valuesEqual(f.ser, av, bv)
}

func (f *nonRepeatedField) set(rec *Record, value interface{}) error {
	if value == nil {
		f.clear(rec)
		return nil
	}
	if f.oneof != "" {
		rec.storeArm(f.oneof, f.fname, value)
		return nil
	}
	rec.values[f.fname] = value
	return nil
}

func (f *nonRepeatedField) get(rec *Record) interface{} {
	if f.oneof != "" {
		if rec.oneofs[f.oneof] != f.fname {
			return nil
		}
		return rec.values[f.fname]
	}
	if v, ok := rec.values[f.fname]; ok {
		return v
	}
	if f.optional {
		return nil
	}
	if ms, ok := f.ser.(*MessageSerializer); ok {
		// Materialize so nested mutations stick to this record.
		fresh := ms.target.newRecord()
		rec.values[f.fname] = fresh
		return fresh
	}
	return f.ser.Default()
}

func (f *nonRepeatedField) has(rec *Record) bool {
	if f.oneof != "" {
		return rec.oneofs[f.oneof] == f.fname
	}
	_, ok := rec.values[f.fname]
	return ok
}

func (f *nonRepeatedField) clear(rec *Record) {
	if f.oneof != "" {
		if rec.oneofs[f.oneof] == f.fname {
			rec.clearGroup(f.oneof)
		}
		return
	}
	delete(rec.values, f.fname)
}

// REPEATED FIELDS

// repeatedField carries the behavior shared by the packed and unpacked
// variants; only dump and load differ.
type repeatedField struct {
	baseField
	packer PackingSerializer
}

func (f *repeatedField) appendOne(rec *Record, dec *Decoder) error {
	item, err := f.ser.Load(dec)
	if err != nil {
		return wrapDecodingFieldError(err, f.fname)
	}
	rec.appendItems(f.fname, []interface{}{item})
	return nil
}

func (f *repeatedField) appendBlock(rec *Record, dec *Decoder) error {
	v, err := f.packer.Load(dec)
	if err != nil {
		return wrapDecodingFieldError(err, f.fname)
	}
	rec.appendItems(f.fname, v.([]interface{}))
	return nil
}

func (f *repeatedField) validate(rec *Record, depth int) error {
	v, ok := rec.values[f.fname]
	if !ok {
		return nil
	}
	items, err := normalizeSlice(v)
	if err != nil {
		return wrapEncodingFieldError(err, f.fname)
	}
	for _, item := range items {
		if err := validateValue(f.ser, item, depth); err != nil {
			return wrapEncodingFieldError(err, f.fname)
		}
	}
	return nil
}

func (f *repeatedField) merge(dst, src *Record) {
	items, err := normalizeSlice(src.values[f.fname])
	if err != nil || len(items) == 0 {
		return
	}
	dst.appendItems(f.fname, items)
}

func (f *repeatedField) equal(a, b *Record) bool {
	as, errA := normalizeSlice(a.values[f.fname])
	bs, errB := normalizeSlice(b.values[f.fname])
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a.values[f.fname], b.values[f.fname])
	}
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !valuesEqual(f.ser, as[i], bs[i]) {
			return false
		}
	}
	return true
}

func (f *repeatedField) set(rec *Record, value interface{}) error {
	if value == nil {
		delete(rec.values, f.fname)
		return nil
	}
	items, err := normalizeSlice(value)
	if err != nil {
		return err
	}
	rec.values[f.fname] = items
	return nil
}

func (f *repeatedField) get(rec *Record) interface{} {
	items, err := normalizeSlice(rec.values[f.fname])
	if err != nil || items == nil {
		return []interface{}{}
	}
	return items
}

func (f *repeatedField) has(rec *Record) bool {
	items, err := normalizeSlice(rec.values[f.fname])
	return err == nil && len(items) > 0
}

func (f *repeatedField) clear(rec *Record) {
	delete(rec.values, f.fname)
}

// packedRepeatedField writes all elements as one length-delimited block.
type packedRepeatedField struct {
	repeatedField
}

func newPackedField(name string, num FieldNumber, elem Serializer) *packedRepeatedField {
	return &packedRepeatedField{repeatedField{
		baseField: baseField{fname: name, num: num, ser: elem},
		packer:    PackingSerializer{Elem: elem},
	}}
}

func (f *packedRepeatedField) dump(enc *Encoder, rec *Record) error {
	items, err := normalizeSlice(rec.values[f.fname])
	if err != nil {
		return wrapEncodingFieldError(err, f.fname)
	}
	if len(items) == 0 {
		return nil
	}
	enc.EncodeTag(f.num, WireBytes)
	if err := f.packer.Dump(enc, items); err != nil {
		return wrapEncodingFieldError(err, f.fname)
	}
	return nil
}

func (f *packedRepeatedField) load(rec *Record, dec *Decoder, wt WireType) error {
	switch wt {
	case WireBytes:
		return f.appendBlock(rec, dec)
	case f.ser.WireType():
		// Unpacked occurrence of a packed declaration.
		return f.appendOne(rec, dec)
	}
	return wrapDecodingFieldError(decodeErrorf("unexpected wire type %d for repeated field", wt), f.fname)
}

// unpackedRepeatedField writes one tag per element.
type unpackedRepeatedField struct {
	repeatedField
}

func newUnpackedField(name string, num FieldNumber, elem Serializer) *unpackedRepeatedField {
	return &unpackedRepeatedField{repeatedField{
		baseField: baseField{fname: name, num: num, ser: elem},
		packer:    PackingSerializer{Elem: elem},
	}}
}

func (f *unpackedRepeatedField) dump(enc *Encoder, rec *Record) error {
	items, err := normalizeSlice(rec.values[f.fname])
	if err != nil {
		return wrapEncodingFieldError(err, f.fname)
	}
	for _, item := range items {
		enc.EncodeTag(f.num, f.ser.WireType())
		if err := f.ser.Dump(enc, item); err != nil {
			return wrapEncodingFieldError(err, f.fname)
		}
	}
	return nil
}

func (f *unpackedRepeatedField) load(rec *Record, dec *Decoder, wt WireType) error {
	if wt == f.ser.WireType() {
		return f.appendOne(rec, dec)
	}
	if wt == WireBytes {
		// Packed occurrence of an unpacked declaration.
		return f.appendBlock(rec, dec)
	}
	return wrapDecodingFieldError(decodeErrorf("unexpected wire type %d for repeated field", wt), f.fname)
}
