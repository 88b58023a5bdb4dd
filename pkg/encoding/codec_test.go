// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/lassandro/golms/pkg/encoding"
)

func TestEncodeConst(t *testing.T) {
	tests := []struct {
		Value  int64
		Output []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{31, []byte{0x1F}},
		{-1, []byte{0x3F}},
		{-32, []byte{0x20}},
		{32, []byte{0x81, 0x20}},
		{-33, []byte{0x81, 0xDF}},
		{127, []byte{0x81, 0x7F}},
		{-127, []byte{0x81, 0x81}},
		{128, []byte{0x82, 0x80, 0x00}},
		{-128, []byte{0x82, 0x80, 0xFF}},
		{32767, []byte{0x82, 0xFF, 0x7F}},
		{32768, []byte{0x83, 0x00, 0x80, 0x00, 0x00}},
		{2147483647, []byte{0x83, 0xFF, 0xFF, 0xFF, 0x7F}},
		{-2147483647, []byte{0x83, 0x01, 0x00, 0x00, 0x80}},
	}

	for _, test := range tests {
		have, err := encoding.EncodeConst(test.Value)

		if err != nil {
			t.Fatalf("EncodeConst(%d): %v", test.Value, err)
		}

		if !bytes.Equal(have, test.Output) {
			t.Fatalf(
				"EncodeConst(%d) mismatch\nwant:% x\nhave:% x",
				test.Value,
				test.Output,
				have,
			)
		}

		if n := encoding.ConstLen(test.Value); n != len(have) {
			t.Fatalf("ConstLen(%d)\nwant:%d\nhave:%d", test.Value, len(have), n)
		}
	}

	for _, value := range []int64{2147483648, -2147483648, 1 << 40} {
		if _, err := encoding.EncodeConst(value); !errors.Is(err, encoding.ErrRange) {
			t.Fatalf("EncodeConst(%d)\nwant:%v\nhave:%v", value, encoding.ErrRange, err)
		}
	}
}

func TestConstRoundTrip(t *testing.T) {
	values := []int64{-2147483647, 2147483647, -65536, 65536}

	for v := int64(-40000); v <= 40000; v += 7 {
		values = append(values, v)
	}

	for _, value := range values {
		b, err := encoding.EncodeConst(value)

		if err != nil {
			t.Fatal(err)
		}

		operand, n, err := encoding.Decode(b, false)

		if err != nil {
			t.Fatalf("Decode(% x): %v", b, err)
		}

		if n != len(b) || operand.Type != encoding.OPERAND_CONST || operand.Value != value {
			t.Fatalf(
				"Round trip of %d through % x\nhave:%s(consumed %d)",
				value,
				b,
				spew.Sdump(operand),
				n,
			)
		}
	}
}

func TestEncodeConstWidth(t *testing.T) {
	have, err := encoding.EncodeConstWidth(-3, 2)

	if err != nil {
		t.Fatal(err)
	}

	if want := []byte{0x82, 0xFD, 0xFF}; !bytes.Equal(have, want) {
		t.Fatalf("EncodeConstWidth(-3, 2)\nwant:% x\nhave:% x", want, have)
	}

	if _, err := encoding.EncodeConstWidth(40000, 2); !errors.Is(err, encoding.ErrRange) {
		t.Fatalf("EncodeConstWidth(40000, 2)\nwant:%v\nhave:%v", encoding.ErrRange, err)
	}
}

func TestEncodeVariable(t *testing.T) {
	tests := []struct {
		Name    string
		Offset  int64
		Global  bool
		Handle  bool
		Address bool
		Output  []byte
	}{
		{"Local", 0, false, false, false, []byte{0x40}},
		{"Local Max Short", 31, false, false, false, []byte{0x5F}},
		{"Global", 5, true, false, false, []byte{0x65}},
		{"Local Long", 32, false, false, false, []byte{0xC1, 0x20}},
		{"Global Long", 300, true, false, false, []byte{0xE2, 0x2C, 0x01}},
		{"Handle", 3, false, true, false, []byte{0xD1, 0x03}},
		{"Address", 3, true, false, true, []byte{0xE9, 0x03}},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, err := encoding.EncodeVariable(
				test.Offset, test.Global, test.Handle, test.Address,
			)

			if err != nil {
				t.Fatal(err)
			}

			if !bytes.Equal(have, test.Output) {
				t.Fatalf("Encoding mismatch\nwant:% x\nhave:% x", test.Output, have)
			}

			operand, n, err := encoding.Decode(have, false)

			if err != nil {
				t.Fatal(err)
			}

			want := encoding.Operand{
				Type:    encoding.OPERAND_VARIABLE,
				Value:   test.Offset,
				Global:  test.Global,
				Handle:  test.Handle,
				Address: test.Address,
				Width:   len(have) - 1,
			}

			if n != len(have) || operand != want {
				t.Fatalf("Decode mismatch\nwant:%s\nhave:%s", spew.Sdump(want), spew.Sdump(operand))
			}
		})
	}
}

func TestFloat(t *testing.T) {
	if have, want := encoding.EncodeFloat(0x3FC00000), []byte{0x83, 0x00, 0x00, 0xC0, 0x3F}; !bytes.Equal(have, want) {
		t.Fatalf("EncodeFloat(1.5)\nwant:% x\nhave:% x", want, have)
	}

	names := map[uint32]string{
		0x7F7FFFFF: "DATAF_MAX",
		0xFF7FFFFF: "DATAF_MIN",
		0x7FC00000: "DATAF_NAN",
		0x3FC00000: "1.5F",
		0x40000000: "2.0F",
		0xBF800000: "-1.0F",
		0x7F800000: "0x7F800000",
	}

	for bits, want := range names {
		if have := encoding.FormatFloat(bits); have != want {
			t.Fatalf("FormatFloat(%#08x)\nwant:%s\nhave:%s", bits, want, have)
		}
	}

	patterns := []uint32{
		0x00000000, 0x80000000, 0x3FC00000, 0x7F7FFFFF, 0xFF7FFFFF,
		0x7FC00000, 0x7F800000, 0xFF800000, 0x7FC00001, 0x00000001,
		0x3DCCCCCD, 0x4CBEBC20, 0xC61C4000,
	}

	for _, bits := range patterns {
		text := encoding.FormatFloat(bits)
		have, err := encoding.ParseFloat(text)

		if err != nil {
			t.Fatalf("ParseFloat(%s): %v", text, err)
		}

		if have != bits {
			t.Fatalf("Float round trip through %s\nwant:%#08x\nhave:%#08x", text, bits, have)
		}

		operand, n, err := encoding.Decode(encoding.EncodeFloat(bits), true)

		if err != nil || n != 5 || operand.Type != encoding.OPERAND_FLOAT || operand.Bits != bits {
			t.Fatalf("Decode float %#08x: %v\n%s", bits, err, spew.Sdump(operand))
		}
	}

	for _, b := range [][]byte{{0x01}, {0x81, 0x01}, {0x84, 'a', 0}} {
		if _, _, err := encoding.Decode(b, true); !errors.Is(err, encoding.ErrFormat) {
			t.Fatalf("Decode(% x, float)\nwant:%v\nhave:%v", b, encoding.ErrFormat, err)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		Value  string
		Quoted string
	}{
		{"", `''`},
		{"hello", `'hello'`},
		{"a\tb", `'a\tb'`},
		{"line\r\n", `'line\r\n'`},
		{`say "hi"`, `'say \qhi\q'`},
		{`it's`, `'it\'s'`},
		{`back\slash`, `'back\\slash'`},
	}

	for _, test := range tests {
		if have := encoding.Quote(test.Value); have != test.Quoted {
			t.Fatalf("Quote(%q)\nwant:%s\nhave:%s", test.Value, test.Quoted, have)
		}

		unquoted, err := encoding.Unquote(test.Quoted)

		if err != nil || unquoted != test.Value {
			t.Fatalf("Unquote(%s)\nwant:%q\nhave:%q (%v)", test.Quoted, test.Value, unquoted, err)
		}

		b, err := encoding.EncodeString(test.Value)

		if err != nil {
			t.Fatal(err)
		}

		if len(b) != len(test.Value)+2 || b[0] != 0x84 || b[len(b)-1] != 0 {
			t.Fatalf("EncodeString(%q) = % x", test.Value, b)
		}

		operand, n, err := encoding.Decode(append(b, 0xFF), false)

		if err != nil || n != len(b) || operand.Str != test.Value {
			t.Fatalf("Decode string %q: %v\n%s", test.Value, err, spew.Sdump(operand))
		}
	}

	operand, n, err := encoding.Decode([]byte{0x80, 'o', 'l', 'd', 0}, false)

	if err != nil || n != 5 || operand.Type != encoding.OPERAND_STRING || operand.Str != "old" {
		t.Fatalf("Decode old string form: %v\n%s", err, spew.Sdump(operand))
	}

	if _, err := encoding.EncodeString("a\x00b"); !errors.Is(err, encoding.ErrFormat) {
		t.Fatalf("EncodeString with NUL\nwant:%v\nhave:%v", encoding.ErrFormat, err)
	}

	for _, bad := range []string{`'abc`, `abc'`, `'a\xb'`, `'a'b'`, `'a\'`} {
		if _, err := encoding.Unquote(bad); err == nil {
			t.Fatalf("Unquote(%s) accepted a malformed literal", bad)
		}
	}
}

func TestLabel(t *testing.T) {
	b, err := encoding.EncodeLabel(5)

	if err != nil {
		t.Fatal(err)
	}

	if want := []byte{0xA0, 0x05}; !bytes.Equal(b, want) {
		t.Fatalf("EncodeLabel(5)\nwant:% x\nhave:% x", want, b)
	}

	operand, n, err := encoding.Decode(b, false)

	if err != nil || n != 2 || operand.Type != encoding.OPERAND_LABEL || operand.Value != 5 {
		t.Fatalf("Decode label: %v\n%s", err, spew.Sdump(operand))
	}

	if _, err := encoding.EncodeLabel(256); !errors.Is(err, encoding.ErrRange) {
		t.Fatalf("EncodeLabel(256)\nwant:%v\nhave:%v", encoding.ErrRange, err)
	}
}

func TestTruncated(t *testing.T) {
	tests := [][]byte{
		{},
		{0x81},
		{0x82, 0x01},
		{0x83, 0x01, 0x02, 0x03},
		{0xC2, 0x01},
		{0xA0},
		{0x84, 'a', 'b'},
		{0x85, 0x00},
	}

	for _, b := range tests {
		if _, _, err := encoding.Decode(b, false); !errors.Is(err, encoding.ErrFormat) {
			t.Fatalf("Decode(% x)\nwant:%v\nhave:%v", b, encoding.ErrFormat, err)
		}
	}

	err := encoding.Rebase(&encoding.FormatError{Offset: 2, Reason: "x"}, 40)

	if formatErr := err.(*encoding.FormatError); formatErr.Offset != 42 {
		t.Fatalf("Rebase\nwant:42\nhave:%d", formatErr.Offset)
	}
}
