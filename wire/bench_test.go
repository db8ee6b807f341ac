package wire

import (
	"fmt"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/purebuf/purebuf/registry"
	"github.com/purebuf/purebuf/schema"
)

// Benchmarks pit this codec against dynamicpb over the same payloads. The
// descriptor for dynamicpb is assembled at runtime so both sides work from
// schema knowledge loaded at startup rather than generated code.

var (
	benchCodec *Codec

	benchSimpleRecord  *Record
	benchSimplePayload []byte

	benchComplexRecord  *Record
	benchComplexPayload []byte

	benchUserDescriptor  protoreflect.MessageDescriptor
	benchOrderDescriptor protoreflect.MessageDescriptor

	benchSimpleDynamic *dynamicpb.Message
)

func init() {
	setupBenchData()
	setupBenchDescriptors()

	benchSimpleDynamic = dynamicpb.NewMessage(benchUserDescriptor)
	if err := proto.Unmarshal(benchSimplePayload, benchSimpleDynamic); err != nil {
		panic("dynamicpb rejected simple payload: " + err.Error())
	}
}

func benchUserSchema() *schema.Message {
	return &schema.Message{
		Name: "bench.User",
		Fields: []*schema.Field{
			{Name: "id", Number: 1, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint64}},
			{Name: "name", Number: 2, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}},
			{Name: "email", Number: 3, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}},
			{Name: "active", Number: 4, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeBool}},
			{Name: "score", Number: 5, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeDouble}},
			{Name: "tags", Number: 6, Label: schema.LabelRepeated, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}},
		},
	}
}

func benchItemSchema() *schema.Message {
	return &schema.Message{
		Name: "bench.Item",
		Fields: []*schema.Field{
			{Name: "sku", Number: 1, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}},
			{Name: "quantity", Number: 2, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint32}},
			{Name: "price", Number: 3, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeDouble}},
		},
	}
}

func benchOrderSchema() *schema.Message {
	return &schema.Message{
		Name: "bench.Order",
		Fields: []*schema.Field{
			{Name: "order_id", Number: 1, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint64}},
			{Name: "user", Number: 2, Type: schema.FieldType{Kind: schema.KindMessage, MessageType: "bench.User"}},
			{Name: "items", Number: 3, Label: schema.LabelRepeated, Type: schema.FieldType{Kind: schema.KindMessage, MessageType: "bench.Item"}},
			{Name: "amounts", Number: 4, Label: schema.LabelRepeated, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint32}},
			{Name: "note", Number: 5, Label: schema.LabelOptional, Type: schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}},
		},
	}
}

func setupBenchData() {
	benchCodec = NewCodec(registry.NewRegistry())
	if err := benchCodec.Register(benchUserSchema(), benchItemSchema(), benchOrderSchema()); err != nil {
		panic("Failed to register benchmark schemas: " + err.Error())
	}

	set := func(rec *Record, field string, v interface{}) {
		if err := rec.Set(field, v); err != nil {
			panic("Failed to set " + field + ": " + err.Error())
		}
	}

	user, err := benchCodec.NewRecord("bench.User")
	if err != nil {
		panic(err)
	}
	set(user, "id", uint64(7234))
	set(user, "name", "benchmark-user")
	set(user, "email", "bench@example.com")
	set(user, "active", true)
	set(user, "score", 4.75)
	set(user, "tags", []string{"alpha", "beta", "gamma"})
	benchSimpleRecord = user

	benchSimplePayload, err = benchCodec.Marshal(benchSimpleRecord)
	if err != nil {
		panic("Failed to marshal simple payload: " + err.Error())
	}

	order, err := benchCodec.NewRecord("bench.Order")
	if err != nil {
		panic(err)
	}
	set(order, "order_id", uint64(991188))
	set(order, "user", user)

	items := make([]interface{}, 0, 8)
	for i := 1; i <= 8; i++ {
		item, err := benchCodec.NewRecord("bench.Item")
		if err != nil {
			panic(err)
		}
		set(item, "sku", fmt.Sprintf("SKU-%04d", i))
		set(item, "quantity", uint32(i*3))
		set(item, "price", float64(i)*1.25+0.99)
		items = append(items, item)
	}
	set(order, "items", items)
	set(order, "amounts", []uint32{10, 200, 3000, 40000, 500000})
	set(order, "note", "expedite")
	benchComplexRecord = order

	benchComplexPayload, err = benchCodec.Marshal(benchComplexRecord)
	if err != nil {
		panic("Failed to marshal complex payload: " + err.Error())
	}
}

func benchDescField(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, label descriptorpb.FieldDescriptorProto_Label, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   typ.Enum(),
		Label:  label.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func setupBenchDescriptors() {
	const (
		optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	)

	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("bench.proto"),
		Package: proto.String("bench"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("User"),
				Field: []*descriptorpb.FieldDescriptorProto{
					benchDescField("id", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT64, optional, ""),
					benchDescField("name", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
					benchDescField("email", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
					benchDescField("active", 4, descriptorpb.FieldDescriptorProto_TYPE_BOOL, optional, ""),
					benchDescField("score", 5, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, optional, ""),
					benchDescField("tags", 6, descriptorpb.FieldDescriptorProto_TYPE_STRING, repeated, ""),
				},
			},
			{
				Name: proto.String("Item"),
				Field: []*descriptorpb.FieldDescriptorProto{
					benchDescField("sku", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
					benchDescField("quantity", 2, descriptorpb.FieldDescriptorProto_TYPE_UINT32, optional, ""),
					benchDescField("price", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, optional, ""),
				},
			},
			{
				Name: proto.String("Order"),
				Field: []*descriptorpb.FieldDescriptorProto{
					benchDescField("order_id", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT64, optional, ""),
					benchDescField("user", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, optional, ".bench.User"),
					benchDescField("items", 3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, repeated, ".bench.Item"),
					benchDescField("amounts", 4, descriptorpb.FieldDescriptorProto_TYPE_UINT32, repeated, ""),
					benchDescField("note", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
				},
			},
		},
	}

	fd, err := protodesc.NewFile(fdp, nil)
	if err != nil {
		panic("Failed to build runtime descriptors: " + err.Error())
	}
	benchUserDescriptor = fd.Messages().ByName("User")
	benchOrderDescriptor = fd.Messages().ByName("Order")
}

// ===== SIMPLE PAYLOAD BENCHMARKS =====

func BenchmarkSimple_Purebuf(b *testing.B) {
	b.ReportMetric(float64(len(benchSimplePayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rec, err := benchCodec.Unmarshal("bench.User", benchSimplePayload)
		if err != nil {
			b.Fatal(err)
		}
		_ = rec
	}
}

func BenchmarkSimple_DynamicPB(b *testing.B) {
	b.ReportMetric(float64(len(benchSimplePayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		message := dynamicpb.NewMessage(benchUserDescriptor)
		if err := proto.Unmarshal(benchSimplePayload, message); err != nil {
			b.Fatal(err)
		}
		_ = message
	}
}

// ===== COMPLEX PAYLOAD BENCHMARKS =====

func BenchmarkComplex_Purebuf(b *testing.B) {
	b.ReportMetric(float64(len(benchComplexPayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rec, err := benchCodec.Unmarshal("bench.Order", benchComplexPayload)
		if err != nil {
			b.Fatal(err)
		}
		_ = rec
	}
}

func BenchmarkComplex_DynamicPB(b *testing.B) {
	b.ReportMetric(float64(len(benchComplexPayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		message := dynamicpb.NewMessage(benchOrderDescriptor)
		if err := proto.Unmarshal(benchComplexPayload, message); err != nil {
			b.Fatal(err)
		}
		_ = message
	}
}

// ===== MARSHAL BENCHMARKS =====

func BenchmarkMarshalSimple_Purebuf(b *testing.B) {
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		data, err := benchCodec.Marshal(benchSimpleRecord)
		if err != nil {
			b.Fatal(err)
		}
		_ = data
	}
}

func BenchmarkMarshalSimple_DynamicPB(b *testing.B) {
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		data, err := proto.Marshal(benchSimpleDynamic)
		if err != nil {
			b.Fatal(err)
		}
		_ = data
	}
}

func BenchmarkMarshalComplex_Purebuf(b *testing.B) {
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		data, err := benchCodec.Marshal(benchComplexRecord)
		if err != nil {
			b.Fatal(err)
		}
		_ = data
	}
}

// ===== VERIFICATION TESTS =====

func TestBenchPayloadsCrossParse(t *testing.T) {
	// dynamicpb must read our bytes back to the same values.
	message := dynamicpb.NewMessage(benchUserDescriptor)
	if err := proto.Unmarshal(benchSimplePayload, message); err != nil {
		t.Fatalf("dynamicpb failed to parse simple payload: %v", err)
	}
	fields := benchUserDescriptor.Fields()
	if got := message.Get(fields.ByName("id")).Uint(); got != 7234 {
		t.Errorf("id = %d, want 7234", got)
	}
	if got := message.Get(fields.ByName("name")).String(); got != "benchmark-user" {
		t.Errorf("name = %q", got)
	}
	if got := message.Get(fields.ByName("score")).Float(); got != 4.75 {
		t.Errorf("score = %v", got)
	}
	if got := message.Get(fields.ByName("tags")).List().Len(); got != 3 {
		t.Errorf("tags length = %d, want 3", got)
	}

	order := dynamicpb.NewMessage(benchOrderDescriptor)
	if err := proto.Unmarshal(benchComplexPayload, order); err != nil {
		t.Fatalf("dynamicpb failed to parse complex payload: %v", err)
	}
	if got := order.Get(benchOrderDescriptor.Fields().ByName("items")).List().Len(); got != 8 {
		t.Errorf("items length = %d, want 8", got)
	}

	// And the reverse: bytes produced by the reference implementation come
	// back as an equal record.
	data, err := proto.Marshal(order)
	if err != nil {
		t.Fatalf("proto.Marshal failed: %v", err)
	}
	rec, err := benchCodec.Unmarshal("bench.Order", data)
	if err != nil {
		t.Fatalf("Failed to unmarshal reference bytes: %v", err)
	}
	if !rec.Equal(benchComplexRecord) {
		t.Errorf("record from reference bytes differs:\n got %v\nwant %v", rec, benchComplexRecord)
	}
}
