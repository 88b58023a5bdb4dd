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

package encoding

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/lassandro/golms/pkg/bytecode"
)

// Decodes a hexidecimal string in the formats: 0xFFFF, -0xFF
func DecodeHex(s string) (int64, error) {
	negative := strings.HasPrefix(s, "-")

	if negative || strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s[2:], 16, 32)

	if err != nil {
		return 0, err
	}

	if negative {
		return -int64(result), nil
	}

	return int64(result), nil
}

// Decodes a base-10 string in the formats: 123, -123, +123
func DecodeInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ParseInt accepts either integer notation.
func ParseInt(s string) (int64, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	return DecodeInt(s)
}

// ParseFloat reads a float operand into its bit pattern. Besides decimal
// notation with an optional F suffix it accepts the reserved names and a
// raw 0x bit pattern.
func ParseFloat(s string) (uint32, error) {
	switch s {
	case "DATAF_MAX":
		return bytecode.DATAF_MAX, nil
	case "DATAF_MIN":
		return bytecode.DATAF_MIN, nil
	case "DATAF_NAN":
		return bytecode.DATAF_NAN, nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		result, err := strconv.ParseUint(s[2:], 16, 32)

		if err != nil {
			return 0, err
		}

		return uint32(result), nil
	}

	s = strings.TrimRight(s, "fF")

	result, err := strconv.ParseFloat(s, 32)

	if err != nil {
		return 0, err
	}

	return math.Float32bits(float32(result)), nil
}

// IsFloat reports whether a numeric literal is written in float notation.
func IsFloat(s string) bool {
	if strings.ContainsAny(s, "xX") {
		return false
	}

	return strings.ContainsAny(s, ".eEfF")
}

// FormatFloat renders a float bit pattern so that ParseFloat returns the
// same bits.
func FormatFloat(bits uint32) string {
	switch bits {
	case bytecode.DATAF_MAX:
		return "DATAF_MAX"
	case bytecode.DATAF_MIN:
		return "DATAF_MIN"
	case bytecode.DATAF_NAN:
		return "DATAF_NAN"
	}

	value := math.Float32frombits(bits)

	if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
		return "0x" + strings.ToUpper(strconv.FormatUint(uint64(bits), 16))
	}

	s := strconv.FormatFloat(float64(value), 'g', -1, 32)

	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s + "F"
}

// Quote renders a string operand in source form.
func Quote(s string) string {
	var builder strings.Builder

	builder.Grow(len(s) + 2)
	builder.WriteByte('\'')

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\t':
			builder.WriteString(`\t`)
		case '\r':
			builder.WriteString(`\r`)
		case '\n':
			builder.WriteString(`\n`)
		case '"':
			builder.WriteString(`\q`)
		case '\'':
			builder.WriteString(`\'`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			builder.WriteByte(c)
		}
	}

	builder.WriteByte('\'')

	return builder.String()
}

// Unquote is the inverse of Quote.
func Unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", errors.New("Invalid string literal")
	}

	s = s[1 : len(s)-1]

	var builder strings.Builder
	builder.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]

		if c == '\'' {
			return "", errors.New("Unescaped quote in string literal")
		}

		if c != '\\' {
			builder.WriteByte(c)
			continue
		}

		if i++; i == len(s) {
			return "", errors.New("Trailing escape in string literal")
		}

		switch s[i] {
		case 't':
			builder.WriteByte('\t')
		case 'r':
			builder.WriteByte('\r')
		case 'n':
			builder.WriteByte('\n')
		case 'q':
			builder.WriteByte('"')
		case '\'':
			builder.WriteByte('\'')
		case '\\':
			builder.WriteByte('\\')
		default:
			return "", errors.New("Unknown escape in string literal")
		}
	}

	return builder.String(), nil
}

// SignExtend widens the low bitcount bits of value to a signed integer.
func SignExtend(value uint32, bitcount uint) int32 {
	if (value>>(bitcount-1))&0x1 == 1 {
		value |= (0xFFFFFFFF << bitcount)
	}

	return int32(value)
}
