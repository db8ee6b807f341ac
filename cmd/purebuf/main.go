// Command purebuf decodes protobuf payloads against a .proto schema.
//
// Usage:
//
//	purebuf -proto order.proto -type shop.Order payload.hex
//	cat payload.bin | purebuf -proto order.proto -type shop.Order -in raw
//
// When -type is omitted the registered types from the schema file are
// listed instead.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/purebuf/purebuf"
)

func main() {
	var (
		protoFile = flag.String("proto", "", "path to the .proto schema file")
		typeName  = flag.String("type", "", "fully qualified message type to decode (omit to list types)")
		format    = flag.String("in", "hex", "payload encoding: hex, base64 or raw")
		imports   = flag.String("I", "", "comma-separated list of import directories")
		capture   = flag.Bool("capture", false, "capture unknown fields and report them")
	)
	flag.Parse()

	if *protoFile == "" {
		fmt.Fprintln(os.Stderr, "usage: purebuf -proto schema.proto -type pkg.Message [-in hex|base64|raw] [payload-file]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var opts []purebuf.Option
	if *imports != "" {
		opts = append(opts, purebuf.WithImportPaths(strings.Split(*imports, ",")...))
	}
	if *capture {
		opts = append(opts, purebuf.WithCaptureUnknown())
	}
	pb := purebuf.New(opts...)
	if err := pb.LoadSchemaFile(*protoFile); err != nil {
		fatalf("load schema: %v", err)
	}

	if *typeName == "" {
		for _, name := range pb.Types() {
			fmt.Println(name)
		}
		return
	}

	raw, err := readPayload(flag.Arg(0))
	if err != nil {
		fatalf("read payload: %v", err)
	}
	data, err := decodePayload(raw, *format)
	if err != nil {
		fatalf("decode payload: %v", err)
	}

	rec, err := pb.Unmarshal(*typeName, data)
	if err != nil {
		fatalf("unmarshal %s: %v", *typeName, err)
	}
	fmt.Println(rec)
	if unknown := rec.Unknown(); len(unknown) > 0 {
		fmt.Printf("unknown fields (%d bytes): %x\n", len(unknown), unknown)
	}
}

func readPayload(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func decodePayload(raw []byte, format string) ([]byte, error) {
	switch format {
	case "hex":
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, string(raw))
		return hex.DecodeString(cleaned)
	case "base64":
		return base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	case "raw":
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "purebuf: "+format+"\n", args...)
	os.Exit(1)
}
