package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/purebuf/purebuf"
	"github.com/purebuf/purebuf/schema"
	"github.com/purebuf/purebuf/wire"
)

func main() {
	pb := purebuf.New(purebuf.WithImportPaths("testdata"))

	// order.proto imports common.proto; the loader follows the import.
	if err := pb.LoadSchemaFile("testdata/order.proto"); err != nil {
		log.Fatalf("Failed to load order.proto: %v", err)
	}

	fmt.Println("📦 Purebuf Sample App - schema-driven protobuf without generated code")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Registered types: %v\n", pb.Types())

	demonstrateProtoImport(pb)

	fmt.Println("\n" + strings.Repeat("=", 70))
	demonstrateBuilders()

	fmt.Println("\n" + strings.Repeat("=", 70))
	demonstrateMerge(pb)

	fmt.Println("\n" + strings.Repeat("=", 70))
	demonstrateStructBridge(pb)

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("✅ round trips, oneof, optional presence, merge and struct scan all working")
}

// demonstrateProtoImport builds an order against the imported schema and
// round-trips it through the wire format.
func demonstrateProtoImport(pb *purebuf.Purebuf) {
	fmt.Println("\n1️⃣  Round trip through a .proto-imported schema")
	fmt.Println(strings.Repeat("-", 60))

	order, err := pb.NewRecord("shop.Order")
	if err != nil {
		log.Fatalf("Failed to create order: %v", err)
	}

	must(order.Set("id", uint64(900314)))
	must(order.Set("customer", "ada@example.com"))
	must(order.Set("status", int32(2))) // ORDER_STATUS_SHIPPED
	must(order.Set("flags", []uint32{4, 5}))
	must(order.Set("note", "leave at the front desk"))

	// Line items: nested records inside a repeated field.
	book, err := pb.NewRecord("shop.LineItem")
	if err != nil {
		log.Fatalf("Failed to create line item: %v", err)
	}
	must(book.Set("sku", "BOOK-0042"))
	must(book.Set("quantity", uint32(2)))

	// Get materializes the nested Money record, so edits stick.
	price := book.Get("unit_price").(*wire.Record)
	must(price.Set("currency", int32(1))) // CURRENCY_USD
	must(price.Set("units", int64(35)))
	must(price.Set("nanos", int32(-500000000)))

	must(order.Set("items", []*wire.Record{book}))

	// Oneof: setting the shipment arm activates the fulfillment group.
	shipment, err := pb.NewRecord("shop.Order.Shipment")
	if err != nil {
		log.Fatalf("Failed to create shipment: %v", err)
	}
	must(shipment.Set("carrier", "DHL"))
	must(shipment.Set("tracking_code", "JD014600003582973"))
	must(order.Set("shipment", shipment))

	encoded, err := pb.Marshal(order)
	if err != nil {
		log.Fatalf("Failed to marshal order: %v", err)
	}
	fmt.Printf("   Encoded order: %d bytes\n", len(encoded))

	decoded, err := pb.Unmarshal("shop.Order", encoded)
	if err != nil {
		log.Fatalf("Failed to unmarshal order: %v", err)
	}
	fmt.Printf("   Customer: %v, status: %v\n", decoded.Get("customer"), decoded.Get("status"))
	fmt.Printf("   Fulfillment arm: %q\n", decoded.WhichOneof("fulfillment"))
	items := decoded.Get("items").([]interface{})
	first := items[0].(*wire.Record)
	fmt.Printf("   First item: %v x%v\n", first.Get("sku"), first.Get("quantity"))
	fmt.Printf("   Note set: %v -> %q\n", decoded.Has("note"), decoded.Get("note"))
	fmt.Printf("   Records equal after round trip: %v\n", order.Equal(decoded))
}

// demonstrateBuilders declares a schema in Go instead of .proto source.
func demonstrateBuilders() {
	fmt.Println("\n2️⃣  Declaring types with the schema builders")
	fmt.Println(strings.Repeat("-", 60))

	level := schema.NewEnum("telemetry.Level").
		Value("LEVEL_UNSPECIFIED", 0).
		Value("LEVEL_INFO", 1).
		Value("LEVEL_ERROR", 2).
		Build()

	event := schema.NewMessage("telemetry.Event").
		String("name", 1).
		Int64("unix_ts", 2).
		Enum("level", 3, "telemetry.Level").
		Double("value", 4).
		String("labels", 5).Repeated().
		Build()

	pb := purebuf.New()
	if err := pb.Register(level, event); err != nil {
		log.Fatalf("Failed to register telemetry types: %v", err)
	}

	rec, err := pb.NewRecord("telemetry.Event")
	if err != nil {
		log.Fatalf("Failed to create event: %v", err)
	}
	must(rec.Set("name", "cache.hit_ratio"))
	must(rec.Set("unix_ts", int64(1756080000)))
	must(rec.Set("level", int32(1)))
	must(rec.Set("value", 0.93))
	must(rec.Set("labels", []string{"region=eu-1", "tier=hot"}))

	encoded, err := pb.Marshal(rec)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}
	decoded, err := pb.Unmarshal("telemetry.Event", encoded)
	if err != nil {
		log.Fatalf("Failed to unmarshal event: %v", err)
	}
	fmt.Printf("   Encoded event: %d bytes\n", len(encoded))
	fmt.Printf("   Decoded: %v\n", decoded)

	// Validation runs before any byte is produced.
	bad, _ := pb.NewRecord("telemetry.Event")
	must(bad.Set("level", int32(42))) // not a declared member
	if _, err := pb.Marshal(bad); err != nil {
		fmt.Printf("   Marshal rejected bad enum as expected: %v\n", err)
	}
}

// demonstrateMerge shows protobuf merge semantics on records.
func demonstrateMerge(pb *purebuf.Purebuf) {
	fmt.Println("\n3️⃣  Merging records")
	fmt.Println(strings.Repeat("-", 60))

	base, err := pb.NewRecord("shop.Order")
	if err != nil {
		log.Fatalf("Failed to create base order: %v", err)
	}
	must(base.Set("note", "gift wrap")) // optional: survives a patch that leaves it unset
	must(base.Set("flags", []uint32{1}))
	must(base.Set("pickup_location", "locker 12"))

	patch, err := pb.NewRecord("shop.Order")
	if err != nil {
		log.Fatalf("Failed to create patch order: %v", err)
	}
	must(patch.Set("customer", "ada@example.com"))
	must(patch.Set("status", int32(3))) // ORDER_STATUS_DELIVERED
	must(patch.Set("flags", []uint32{2, 3}))

	if err := pb.Merge(base, patch); err != nil {
		log.Fatalf("Failed to merge: %v", err)
	}
	fmt.Printf("   Customer and status taken from patch: %v / %v\n", base.Get("customer"), base.Get("status"))
	fmt.Printf("   Flags concatenate: %v\n", base.Get("flags"))
	fmt.Printf("   Optional note survives: %q\n", base.Get("note"))
	fmt.Printf("   Oneof arm kept (patch had none): %q\n", base.WhichOneof("fulfillment"))
}

// demonstrateStructBridge decodes wire bytes straight into a Go struct.
func demonstrateStructBridge(pb *purebuf.Purebuf) {
	fmt.Println("\n4️⃣  Decoding into a Go struct")
	fmt.Println(strings.Repeat("-", 60))

	rec, err := pb.NewRecord("shop.LineItem")
	if err != nil {
		log.Fatalf("Failed to create line item: %v", err)
	}
	must(rec.Set("sku", "MUG-0099"))
	must(rec.Set("quantity", uint32(6)))
	encoded, err := pb.Marshal(rec)
	if err != nil {
		log.Fatalf("Failed to marshal line item: %v", err)
	}

	type LineItem struct {
		Sku      string
		Quantity uint32
	}
	var item LineItem
	if err := pb.UnmarshalToStruct("shop.LineItem", encoded, &item); err != nil {
		log.Fatalf("Failed to scan into struct: %v", err)
	}
	fmt.Printf("   Struct: %+v\n", item)
}

func must(err error) {
	if err != nil {
		log.Fatalf("Unexpected error: %v", err)
	}
}
