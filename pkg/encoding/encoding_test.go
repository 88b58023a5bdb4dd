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
	"testing"

	"github.com/lassandro/golms/pkg/encoding"
)

func TestParseInt(t *testing.T) {
	tests := map[string]int64{
		"0":          0,
		"42":         42,
		"-42":        -42,
		"+7":         7,
		"0x1F":       31,
		"0XFF":       255,
		"-0x10":      -16,
		"0x7FFFFFFF": 2147483647,
	}

	for input, want := range tests {
		have, err := encoding.ParseInt(input)

		if err != nil {
			t.Fatalf("ParseInt(%s): %v", input, err)
		}

		if have != want {
			t.Fatalf("ParseInt(%s)\nwant:%d\nhave:%d", input, want, have)
		}
	}

	for _, input := range []string{"", "12a", "0x", "x12", "0xG1", "1.5"} {
		if _, err := encoding.ParseInt(input); err == nil {
			t.Fatalf("ParseInt(%s) accepted an invalid literal", input)
		}
	}
}

func TestIsFloat(t *testing.T) {
	tests := map[string]bool{
		"1.5":   true,
		"1.5F":  true,
		"2F":    true,
		"1e3":   true,
		"12":    false,
		"-3":    false,
		"0xFF":  false,
		"0x1E3": false,
	}

	for input, want := range tests {
		if have := encoding.IsFloat(input); have != want {
			t.Fatalf("IsFloat(%s)\nwant:%v\nhave:%v", input, want, have)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		Value    uint32
		Bitcount uint
		Want     int32
	}{
		{0x1F, 6, 31},
		{0x20, 6, -32},
		{0x3F, 6, -1},
		{0x7F, 8, 127},
		{0x80, 8, -128},
		{0xFFFF, 16, -1},
	}

	for _, test := range tests {
		if have := encoding.SignExtend(test.Value, test.Bitcount); have != test.Want {
			t.Fatalf(
				"SignExtend(%#x, %d)\nwant:%d\nhave:%d",
				test.Value,
				test.Bitcount,
				test.Want,
				have,
			)
		}
	}
}
