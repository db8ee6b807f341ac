package wire

import (
	"errors"
	"testing"
)

func TestDecodeTag(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		wantNumber FieldNumber
		wantType   WireType
	}{
		{"field 1 varint", []byte{0x08}, 1, WireVarint},
		{"field 2 bytes", []byte{0x12}, 2, WireBytes},
		{"field 4 fixed64", []byte{0x21}, 4, WireFixed64},
		{"field 6 fixed32", []byte{0x35}, 6, WireFixed32},
		{"field 16 varint", []byte{0x80, 0x01}, 16, WireVarint},
		{"max field number", []byte{0xF8, 0xFF, 0xFF, 0xFF, 0x0F}, MaxFieldNumber, WireVarint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, wt, err := NewDecoder(tt.input).DecodeTag()
			if err != nil {
				t.Fatalf("DecodeTag failed: %v", err)
			}
			if num != tt.wantNumber || wt != tt.wantType {
				t.Errorf("DecodeTag = (%d, %d), want (%d, %d)", num, wt, tt.wantNumber, tt.wantType)
			}
		})
	}
}

func TestDecodeTag_RoundTrip(t *testing.T) {
	enc := NewEncoder()
	enc.EncodeTag(19, WireBytes)

	num, wt, err := NewDecoder(enc.Bytes()).DecodeTag()
	if err != nil {
		t.Fatalf("DecodeTag failed: %v", err)
	}
	if num != 19 || wt != WireBytes {
		t.Errorf("DecodeTag = (%d, %d), want (19, %d)", num, wt, WireBytes)
	}
}

func TestDecodeTag_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"field number zero", []byte{0x00}},
		{"start group wire type", []byte{0x0B}},
		{"end group wire type", []byte{0x0C}},
		{"wire type six", []byte{0x0E}},
		{"wire type seven", []byte{0x0F}},
		{"truncated tag varint", []byte{0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewDecoder(tt.input).DecodeTag()
			if err == nil {
				t.Fatalf("expected error for tag %X", tt.input)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected DecodeError, got %T", err)
			}
		})
	}
}

func TestMakeParseTag(t *testing.T) {
	for _, num := range []FieldNumber{1, 2, 15, 16, 100, MaxFieldNumber} {
		for _, wt := range []WireType{WireVarint, WireFixed64, WireBytes, WireFixed32} {
			gotNum, gotType := ParseTag(MakeTag(num, wt))
			if gotNum != num || gotType != wt {
				t.Errorf("ParseTag(MakeTag(%d, %d)) = (%d, %d)", num, wt, gotNum, gotType)
			}
		}
	}
}

func TestWireType_IsValid(t *testing.T) {
	valid := map[WireType]bool{
		WireVarint:  true,
		WireFixed64: true,
		WireBytes:   true,
		WireFixed32: true,
	}
	for wt := WireType(0); wt < 8; wt++ {
		if got := wt.IsValid(); got != valid[wt] {
			t.Errorf("WireType(%d).IsValid() = %v, want %v", wt, got, valid[wt])
		}
	}
}

func TestFieldNumber_IsValid(t *testing.T) {
	tests := []struct {
		number FieldNumber
		valid  bool
	}{
		{0, false},
		{1, true},
		{536870911, true}, // 2^29 - 1
		{536870912, false},
		{-1, false},
	}
	for _, tt := range tests {
		if got := tt.number.IsValid(); got != tt.valid {
			t.Errorf("FieldNumber(%d).IsValid() = %v, want %v", tt.number, got, tt.valid)
		}
	}
}

func TestSkipField(t *testing.T) {
	tests := []struct {
		name     string
		wireType WireType
		payload  []byte
	}{
		{"varint", WireVarint, []byte{0xFF, 0x01}},
		{"fixed64", WireFixed64, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"bytes", WireBytes, []byte{0x03, 0xAA, 0xBB, 0xCC}},
		{"fixed32", WireFixed32, []byte{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A trailing sentinel byte proves the skip consumed exactly
			// the payload.
			input := append(append([]byte{}, tt.payload...), 0x2A)
			dec := NewDecoder(input)
			if err := dec.skipField(tt.wireType); err != nil {
				t.Fatalf("skipField failed: %v", err)
			}
			if dec.Remaining() != 1 {
				t.Errorf("skip left %d bytes, want 1", dec.Remaining())
			}
		})
	}
}

func TestSkipField_Truncated(t *testing.T) {
	tests := []struct {
		name     string
		wireType WireType
		payload  []byte
	}{
		{"varint no terminator", WireVarint, []byte{0x80}},
		{"fixed64 short", WireFixed64, []byte{1, 2, 3}},
		{"bytes length overruns", WireBytes, []byte{0x05, 0x01}},
		{"fixed32 empty", WireFixed32, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDecoder(tt.payload).skipField(tt.wireType)
			if err == nil {
				t.Fatal("expected error for truncated skip")
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected DecodeError, got %T", err)
			}
		})
	}
}
