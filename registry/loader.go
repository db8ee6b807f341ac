package registry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/purebuf/purebuf/schema"
)

// Loader parses .proto source at runtime and converts the declarations into
// schema definitions ready for registration. Proto2 and proto3 syntax are
// supported. Imports resolve against ImportPaths depth first;
// google/protobuf imports are skipped. Services, reserved statements and
// custom options are ignored; map and group fields are rejected.
type Loader struct {
	// ImportPaths lists directories import statements resolve against.
	ImportPaths []string
}

type parsedFile struct {
	path   string // "" for inline source
	pkg    string
	syntax string // "proto2" or "proto3"
	proto  *protoparserparser.Proto
}

// LoadFile parses the .proto file at protoPath plus everything it imports
// and returns the declared definitions.
func (l *Loader) LoadFile(protoPath string) ([]*schema.Message, []*schema.Enum, error) {
	full, err := l.findProto(protoPath)
	if err != nil {
		return nil, nil, err
	}
	root, err := parseProtoFile(full)
	if err != nil {
		return nil, nil, err
	}
	return l.loadAll(root)
}

// Load parses inline .proto source. Imports still resolve via ImportPaths.
func (l *Loader) Load(source string) ([]*schema.Message, []*schema.Enum, error) {
	root, err := parseProto("", strings.NewReader(source))
	if err != nil {
		return nil, nil, err
	}
	return l.loadAll(root)
}

func (l *Loader) loadAll(root *parsedFile) ([]*schema.Message, []*schema.Enum, error) {
	files, err := l.resolveImports(root)
	if err != nil {
		return nil, nil, err
	}
	return convertFiles(files)
}

// resolveImports walks the import graph depth first, parsing each file once.
func (l *Loader) resolveImports(root *parsedFile) ([]*parsedFile, error) {
	visited := make(map[string]struct{})
	if root.path != "" {
		visited[root.path] = struct{}{}
	}
	files := make([]*parsedFile, 0, 1)
	var visit func(pf *parsedFile) error
	visit = func(pf *parsedFile) error {
		files = append(files, pf)
		for _, body := range pf.proto.ProtoBody {
			imp, ok := body.(*protoparserparser.Import)
			if !ok {
				continue
			}
			location := strings.Trim(imp.Location, `"`)
			if strings.Contains(location, "google/protobuf") {
				continue
			}
			full, err := l.findProto(location)
			if err != nil {
				return err
			}
			if _, ok := visited[full]; ok {
				continue
			}
			visited[full] = struct{}{}
			next, err := parseProtoFile(full)
			if err != nil {
				return err
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return files, nil
}

func (l *Loader) findProto(protoPath string) (string, error) {
	protoPath = strings.Trim(protoPath, `"`)
	if !strings.HasSuffix(protoPath, ".proto") {
		return "", fmt.Errorf("%s is not a .proto file", protoPath)
	}
	if _, err := os.Stat(protoPath); err == nil {
		return protoPath, nil
	}
	for _, dir := range l.ImportPaths {
		full := path.Join(dir, protoPath)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}
	return "", fmt.Errorf("proto file does not exist in any import path: %s", protoPath)
}

func parseProtoFile(filePath string) (*parsedFile, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read proto file: %w", err)
	}
	return parseProto(filePath, bytes.NewBuffer(content))
}

func parseProto(filePath string, r io.Reader) (*parsedFile, error) {
	proto, err := protoparser.Parse(r)
	if err != nil {
		if filePath != "" {
			return nil, schema.Errorf("parse_error", "%s: %v", filePath, err)
		}
		return nil, schema.Errorf("parse_error", "%v", err)
	}
	pf := &parsedFile{path: filePath, syntax: "proto3", proto: proto}
	if proto.Syntax != nil {
		if v := strings.Trim(proto.Syntax.ProtobufVersion, `"`); v != "" {
			pf.syntax = v
		}
	}
	for _, body := range proto.ProtoBody {
		if p, ok := body.(*protoparserparser.Package); ok {
			pf.pkg = p.Name
		}
	}
	return pf, nil
}

// CONVERSION

// entitySet indexes every type name declared across the parsed files so
// that field references resolve before registration.
type entitySet struct {
	messages map[string]struct{}
	enums    map[string]struct{}
}

func (s *entitySet) has(name string) bool {
	if _, ok := s.messages[name]; ok {
		return true
	}
	_, ok := s.enums[name]
	return ok
}

func collectEntities(files []*parsedFile) *entitySet {
	es := &entitySet{
		messages: make(map[string]struct{}),
		enums:    make(map[string]struct{}),
	}
	var collect func(name string, m *protoparserparser.Message)
	collect = func(name string, m *protoparserparser.Message) {
		es.messages[name] = struct{}{}
		for _, body := range m.MessageBody {
			switch b := body.(type) {
			case *protoparserparser.Message:
				collect(name+"."+b.MessageName, b)
			case *protoparserparser.Enum:
				es.enums[name+"."+b.EnumName] = struct{}{}
			}
		}
	}
	for _, pf := range files {
		for _, body := range pf.proto.ProtoBody {
			switch b := body.(type) {
			case *protoparserparser.Message:
				collect(qualify(pf.pkg, b.MessageName), b)
			case *protoparserparser.Enum:
				es.enums[qualify(pf.pkg, b.EnumName)] = struct{}{}
			}
		}
	}
	return es
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

type protoConverter struct {
	entities *entitySet
	syntax   string
}

func convertFiles(files []*parsedFile) ([]*schema.Message, []*schema.Enum, error) {
	entities := collectEntities(files)
	var msgs []*schema.Message
	var enums []*schema.Enum
	for _, pf := range files {
		conv := &protoConverter{entities: entities, syntax: pf.syntax}
		for _, body := range pf.proto.ProtoBody {
			switch b := body.(type) {
			case *protoparserparser.Message:
				m, err := conv.message(qualify(pf.pkg, b.MessageName), b)
				if err != nil {
					return nil, nil, err
				}
				msgs = append(msgs, m)
			case *protoparserparser.Enum:
				e, err := conv.enum(qualify(pf.pkg, b.EnumName), b)
				if err != nil {
					return nil, nil, err
				}
				enums = append(enums, e)
			}
		}
	}
	return msgs, enums, nil
}

func (c *protoConverter) message(fullName string, src *protoparserparser.Message) (*schema.Message, error) {
	msg := &schema.Message{Name: fullName}
	for _, body := range src.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			f, err := c.field(fullName, b)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, f)
		case *protoparserparser.Oneof:
			g := &schema.Oneof{Name: b.OneofName}
			for _, of := range b.OneofFields {
				arm, err := c.oneofArm(fullName, of)
				if err != nil {
					return nil, err
				}
				g.Fields = append(g.Fields, arm)
			}
			msg.OneofGroups = append(msg.OneofGroups, g)
		case *protoparserparser.Message:
			nested, err := c.message(fullName+"."+b.MessageName, b)
			if err != nil {
				return nil, err
			}
			// Registration re-qualifies nested names under the parent.
			nested.Name = b.MessageName
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *protoparserparser.Enum:
			nested, err := c.enum(fullName+"."+b.EnumName, b)
			if err != nil {
				return nil, err
			}
			nested.Name = b.EnumName
			msg.NestedEnums = append(msg.NestedEnums, nested)
		case *protoparserparser.MapField:
			return nil, schema.Errorf("unsupported", "message %s: map field %s is not supported", fullName, b.MapName)
		case *protoparserparser.GroupField:
			return nil, schema.Errorf("unsupported", "message %s: group field %s is not supported", fullName, b.GroupName)
		}
	}
	return msg, nil
}

func (c *protoConverter) field(scope string, src *protoparserparser.Field) (*schema.Field, error) {
	num, err := parseNumber(src.FieldNumber)
	if err != nil {
		return nil, schema.Errorf("invalid_field", "message %s: field %s: %v", scope, src.FieldName, err)
	}
	t, err := c.fieldType(scope, src.Type)
	if err != nil {
		return nil, schema.Errorf("unresolved_type", "message %s: field %s: %v", scope, src.FieldName, err)
	}
	f := &schema.Field{Name: src.FieldName, Number: num, Type: t}
	switch {
	case src.IsRepeated:
		f.Label = schema.LabelRepeated
		f.Packed = c.packedOverride(src.FieldOptions)
	case src.IsRequired:
		f.Label = schema.LabelRequired
	case src.IsOptional:
		f.Label = schema.LabelOptional
	}
	return f, nil
}

func (c *protoConverter) oneofArm(scope string, src *protoparserparser.OneofField) (*schema.Field, error) {
	num, err := parseNumber(src.FieldNumber)
	if err != nil {
		return nil, schema.Errorf("invalid_field", "message %s: oneof arm %s: %v", scope, src.FieldName, err)
	}
	t, err := c.fieldType(scope, src.Type)
	if err != nil {
		return nil, schema.Errorf("unresolved_type", "message %s: oneof arm %s: %v", scope, src.FieldName, err)
	}
	return &schema.Field{Name: src.FieldName, Number: num, Type: t}, nil
}

func (c *protoConverter) enum(fullName string, src *protoparserparser.Enum) (*schema.Enum, error) {
	e := &schema.Enum{Name: fullName}
	for _, body := range src.EnumBody {
		switch b := body.(type) {
		case *protoparserparser.EnumField:
			num, err := parseNumber(b.Number)
			if err != nil {
				return nil, schema.Errorf("invalid_enum", "enum %s: value %s: %v", fullName, b.Ident, err)
			}
			e.Values = append(e.Values, &schema.EnumValue{Name: b.Ident, Number: num})
		case *protoparserparser.Option:
			if b.OptionName == "allow_alias" && strings.Trim(b.Constant, `"`) == "true" {
				e.AllowAlias = true
			}
		}
	}
	return e, nil
}

func (c *protoConverter) fieldType(scope, typeName string) (schema.FieldType, error) {
	if schema.IsPrimitiveType(typeName) {
		return schema.Primitive(schema.PrimitiveType(typeName)), nil
	}
	resolved, err := c.resolveType(typeName, scope)
	if err != nil {
		return schema.FieldType{}, err
	}
	if _, ok := c.entities.enums[resolved]; ok {
		return schema.EnumRef(resolved), nil
	}
	return schema.MessageRef(resolved), nil
}

// resolveType maps a type reference to its fully qualified name following
// protobuf scoping: a leading dot is absolute, otherwise resolution walks
// from the innermost enclosing scope outwards, then tries the bare name.
func (c *protoConverter) resolveType(typeName, scope string) (string, error) {
	if strings.HasPrefix(typeName, ".") {
		name := strings.TrimPrefix(typeName, ".")
		if c.entities.has(name) {
			return name, nil
		}
		return "", fmt.Errorf("unable to resolve type name: %s", typeName)
	}
	parts := strings.Split(scope, ".")
	for len(parts) > 0 {
		candidate := strings.Join(parts, ".") + "." + typeName
		if c.entities.has(candidate) {
			return candidate, nil
		}
		parts = parts[:len(parts)-1]
	}
	if c.entities.has(typeName) {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

// packedOverride resolves the packed flag for a repeated field: an explicit
// [packed=...] option wins, otherwise proto3 packs and proto2 does not.
func (c *protoConverter) packedOverride(opts []*protoparserparser.FieldOption) *bool {
	packed := c.syntax != "proto2"
	for _, opt := range opts {
		if opt.OptionName == "packed" {
			packed = strings.Trim(opt.Constant, `"`) == "true"
		}
	}
	return &packed
}

func parseNumber(raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return int32(n), nil
}
