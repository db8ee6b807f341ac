package registry

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/purebuf/purebuf/schema"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	msg := schema.NewMessage("shop.Order").
		Uint64("id", 1).
		String("note", 2).
		Build()
	if err := reg.RegisterMessage(msg); err != nil {
		t.Fatalf("Failed to register message: %v", err)
	}

	enum := schema.NewEnum("shop.Status").
		Value("STATUS_UNKNOWN", 0).
		Value("ACTIVE", 1).
		Build()
	if err := reg.RegisterEnum(enum); err != nil {
		t.Fatalf("Failed to register enum: %v", err)
	}

	got, err := reg.GetMessage("shop.Order")
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if got != msg {
		t.Error("GetMessage returned a different descriptor")
	}

	gotEnum, err := reg.GetEnum("shop.Status")
	if err != nil {
		t.Fatalf("GetEnum failed: %v", err)
	}
	if gotEnum != enum {
		t.Error("GetEnum returned a different descriptor")
	}
}

func TestRegistry_NestedTypesQualifiedInPlace(t *testing.T) {
	reg := NewRegistry()

	msg := &schema.Message{
		Name: "shop.Order",
		Fields: []*schema.Field{
			{Name: "line", Number: 1, Type: schema.MessageRef("shop.Order.Line")},
		},
		NestedTypes: []*schema.Message{
			{
				Name: "Line",
				Fields: []*schema.Field{
					{Name: "sku", Number: 1, Type: schema.Primitive(schema.TypeString)},
				},
				NestedTypes: []*schema.Message{
					{Name: "Discount", Fields: []*schema.Field{
						{Name: "percent", Number: 1, Type: schema.Primitive(schema.TypeUint32)},
					}},
				},
			},
		},
		NestedEnums: []*schema.Enum{
			{Name: "State", Values: []*schema.EnumValue{{Name: "STATE_NEW", Number: 0}}},
		},
	}
	if err := reg.RegisterMessage(msg); err != nil {
		t.Fatalf("Failed to register message: %v", err)
	}

	for _, name := range []string{"shop.Order", "shop.Order.Line", "shop.Order.Line.Discount"} {
		if _, err := reg.GetMessage(name); err != nil {
			t.Errorf("GetMessage(%q) failed: %v", name, err)
		}
	}
	if _, err := reg.GetEnum("shop.Order.State"); err != nil {
		t.Errorf("nested enum not registered: %v", err)
	}

	// Qualification rewrites the descriptors themselves.
	if msg.NestedTypes[0].Name != "shop.Order.Line" {
		t.Errorf("nested name = %q, want parent-qualified", msg.NestedTypes[0].Name)
	}
	if msg.NestedTypes[0].NestedTypes[0].Name != "shop.Order.Line.Discount" {
		t.Errorf("deep nested name = %q", msg.NestedTypes[0].NestedTypes[0].Name)
	}
	if msg.NestedEnums[0].Name != "shop.Order.State" {
		t.Errorf("nested enum name = %q", msg.NestedEnums[0].Name)
	}
}

func TestRegistry_SuffixLookup(t *testing.T) {
	reg := NewRegistry()
	msg := schema.NewMessage("example.deep.Person").String("name", 1).Build()
	if err := reg.RegisterMessage(msg); err != nil {
		t.Fatalf("Failed to register message: %v", err)
	}

	for _, name := range []string{"example.deep.Person", "deep.Person", "Person"} {
		got, err := reg.GetMessage(name)
		if err != nil {
			t.Errorf("GetMessage(%q) failed: %v", name, err)
			continue
		}
		if got.Name != "example.deep.Person" {
			t.Errorf("GetMessage(%q) resolved %q", name, got.Name)
		}
	}

	if _, err := reg.GetMessage("erson"); err == nil {
		t.Error("partial segment must not match")
	}
	if _, err := reg.GetMessage("Missing"); err == nil || !strings.Contains(err.Error(), "message not found") {
		t.Errorf("GetMessage(Missing) = %v", err)
	}
	if _, err := reg.GetEnum("Missing"); err == nil || !strings.Contains(err.Error(), "enum not found") {
		t.Errorf("GetEnum(Missing) = %v", err)
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterMessage(schema.NewMessage("Dup").Int32("a", 1).Build()); err != nil {
		t.Fatalf("Failed to register message: %v", err)
	}

	err := reg.RegisterMessage(schema.NewMessage("Dup").Int32("b", 1).Build())
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("duplicate message registration = %v", err)
	}

	// Enums share the name space with messages.
	err = reg.RegisterEnum(schema.NewEnum("Dup").Value("A", 0).Build())
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("enum/message name collision = %v", err)
	}

	if err := reg.RegisterEnum(schema.NewEnum("Color").Value("RED", 0).Build()); err != nil {
		t.Fatalf("Failed to register enum: %v", err)
	}
	err = reg.RegisterEnum(schema.NewEnum("Color").Value("BLUE", 0).Build())
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("duplicate enum registration = %v", err)
	}
}

func TestRegistry_RegistrationIsAtomic(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterMessage(schema.NewMessage("root.Taken").Int32("a", 1).Build()); err != nil {
		t.Fatalf("Failed to register message: %v", err)
	}

	// The outer message is fine but a nested type collides; nothing from the
	// second registration may land.
	msg := &schema.Message{
		Name: "root",
		Fields: []*schema.Field{
			{Name: "a", Number: 1, Type: schema.Primitive(schema.TypeInt32)},
		},
		NestedTypes: []*schema.Message{
			{Name: "Taken", Fields: []*schema.Field{
				{Name: "b", Number: 1, Type: schema.Primitive(schema.TypeInt32)},
			}},
		},
	}
	if err := reg.RegisterMessage(msg); err == nil {
		t.Fatal("expected duplicate error for nested type")
	}
	if _, err := reg.GetMessage("root"); err == nil {
		t.Error("outer message stored despite failed registration")
	}
	if got := reg.ListMessages(); !reflect.DeepEqual(got, []string{"root.Taken"}) {
		t.Errorf("ListMessages = %v after failed registration", got)
	}
}

func TestRegisterMessage_FieldValidation(t *testing.T) {
	tests := []struct {
		name string
		msg  *schema.Message
		code string
		want string
	}{
		{
			name: "nil message",
			msg:  nil,
			code: "invalid_message",
			want: "nil message definition",
		},
		{
			name: "empty message name",
			msg:  &schema.Message{},
			code: "invalid_message",
			want: "message name cannot be empty",
		},
		{
			name: "empty field name",
			msg: &schema.Message{Name: "M", Fields: []*schema.Field{
				{Number: 1, Type: schema.Primitive(schema.TypeInt32)},
			}},
			code: "invalid_field",
			want: "field name cannot be empty",
		},
		{
			name: "field number zero",
			msg:  schema.NewMessage("M").Int32("a", 0).Build(),
			code: "invalid_field",
			want: "invalid number 0",
		},
		{
			name: "field number above ceiling",
			msg:  schema.NewMessage("M").Int32("a", 1<<29).Build(),
			code: "invalid_field",
			want: "invalid number 536870912",
		},
		{
			name: "shared field number",
			msg:  schema.NewMessage("M").Int32("a", 3).String("b", 3).Build(),
			code: "invalid_field",
			want: "fields a and b share number 3",
		},
		{
			name: "oneof arm shares number with field",
			msg: schema.NewMessage("M").Int32("a", 1).
				Oneof("choice", schema.Arm("b", 1, schema.Primitive(schema.TypeString))).
				Build(),
			code: "invalid_field",
			want: "fields a and b share number 1",
		},
		{
			name: "duplicate field name",
			msg:  schema.NewMessage("M").Int32("a", 1).String("a", 2).Build(),
			code: "invalid_field",
			want: `duplicate field name "a"`,
		},
		{
			name: "repeated oneof arm",
			msg: schema.NewMessage("M").
				Oneof("choice", &schema.Field{
					Name: "items", Number: 1, Label: schema.LabelRepeated,
					Type: schema.Primitive(schema.TypeInt32),
				}).
				Build(),
			code: "invalid_field",
			want: "oneof arm items cannot be repeated",
		},
		{
			name: "empty oneof group name",
			msg: schema.NewMessage("M").
				Oneof("", schema.Arm("a", 1, schema.Primitive(schema.TypeInt32))).
				Build(),
			code: "invalid_field",
			want: "oneof group name cannot be empty",
		},
		{
			name: "unknown primitive type",
			msg: &schema.Message{Name: "M", Fields: []*schema.Field{
				{Name: "a", Number: 1, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: "varchar"}},
			}},
			code: "invalid_field",
			want: `unknown primitive type "varchar"`,
		},
		{
			name: "missing message reference",
			msg: &schema.Message{Name: "M", Fields: []*schema.Field{
				{Name: "a", Number: 1, Type: schema.FieldType{Kind: schema.KindMessage}},
			}},
			code: "invalid_field",
			want: "missing its message type reference",
		},
		{
			name: "missing enum reference",
			msg: &schema.Message{Name: "M", Fields: []*schema.Field{
				{Name: "a", Number: 1, Type: schema.FieldType{Kind: schema.KindEnum}},
			}},
			code: "invalid_field",
			want: "missing its enum type reference",
		},
		{
			name: "unsupported type kind",
			msg: &schema.Message{Name: "M", Fields: []*schema.Field{
				{Name: "a", Number: 1, Type: schema.FieldType{Kind: "tuple"}},
			}},
			code: "invalid_field",
			want: `unsupported type kind "tuple"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().RegisterMessage(tt.msg)
			if err == nil {
				t.Fatal("expected registration to fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
			var serr *schema.Error
			if !errors.As(err, &serr) {
				t.Fatalf("error type = %T, want *schema.Error", err)
			}
			if serr.Code != tt.code {
				t.Errorf("code = %q, want %q", serr.Code, tt.code)
			}
		})
	}
}

func TestRegisterEnum_Validation(t *testing.T) {
	tests := []struct {
		name string
		enum *schema.Enum
		want string
	}{
		{
			name: "nil enum",
			enum: nil,
			want: "nil enum definition",
		},
		{
			name: "empty enum name",
			enum: &schema.Enum{},
			want: "enum name cannot be empty",
		},
		{
			name: "empty value name",
			enum: &schema.Enum{Name: "E", Values: []*schema.EnumValue{{Number: 0}}},
			want: "value name cannot be empty",
		},
		{
			name: "duplicate value name",
			enum: schema.NewEnum("E").Value("A", 0).Value("A", 1).Build(),
			want: `duplicate value name "A"`,
		},
		{
			name: "aliased number without allow_alias",
			enum: schema.NewEnum("E").Value("A", 1).Value("B", 1).Build(),
			want: "values A and B share number 1 without allow_alias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().RegisterEnum(tt.enum)
			if err == nil {
				t.Fatal("expected registration to fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestRegisterEnum_AllowAliasPermitsSharedNumbers(t *testing.T) {
	enum := schema.NewEnum("E").
		Value("A", 1).
		Value("B", 1).
		AllowAlias().
		Build()
	if err := NewRegistry().RegisterEnum(enum); err != nil {
		t.Fatalf("aliased enum with allow_alias rejected: %v", err)
	}
}

func TestRegistry_ListNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zoo.Zebra", "app.User", "app.Account"} {
		if err := reg.RegisterMessage(schema.NewMessage(name).Int32("a", 1).Build()); err != nil {
			t.Fatalf("Failed to register %s: %v", name, err)
		}
	}
	for _, name := range []string{"zoo.Kind", "app.Color"} {
		if err := reg.RegisterEnum(schema.NewEnum(name).Value("V", 0).Build()); err != nil {
			t.Fatalf("Failed to register %s: %v", name, err)
		}
	}

	wantMsgs := []string{"app.Account", "app.User", "zoo.Zebra"}
	if got := reg.ListMessages(); !reflect.DeepEqual(got, wantMsgs) {
		t.Errorf("ListMessages = %v, want %v", got, wantMsgs)
	}
	wantEnums := []string{"app.Color", "zoo.Kind"}
	if got := reg.ListEnums(); !reflect.DeepEqual(got, wantEnums) {
		t.Errorf("ListEnums = %v, want %v", got, wantEnums)
	}
}
