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
	"encoding/binary"
	"strings"

	"github.com/lassandro/golms/pkg/bytecode"
)

type OperandType uint

const (
	OPERAND_CONST OperandType = iota
	OPERAND_FLOAT
	OPERAND_STRING
	OPERAND_LABEL
	OPERAND_VARIABLE
)

// Operand is one decoded parameter.
type Operand struct {
	Type    OperandType
	Value   int64
	Bits    uint32
	Str     string
	Global  bool
	Handle  bool
	Address bool
	Width   int
}

// sizeCode maps a byte width onto the PRIMPAR size field.
func sizeCode(width int) byte {
	switch width {
	case 1:
		return bytecode.PRIMPAR_1_BYTE
	case 2:
		return bytecode.PRIMPAR_2_BYTES
	default:
		return bytecode.PRIMPAR_4_BYTES
	}
}

// widthFor returns the narrowest long form holding value, or 0 when none does.
func widthFor(value int64) int {
	switch {
	case value >= bytecode.DATA8_MIN && value <= bytecode.DATA8_MAX:
		return 1
	case value >= bytecode.DATA16_MIN && value <= bytecode.DATA16_MAX:
		return 2
	case value >= bytecode.DATA32_MIN && value <= bytecode.DATA32_MAX:
		return 4
	}

	return 0
}

func appendValue(b []byte, value int64, width int) []byte {
	switch width {
	case 1:
		return append(b, byte(value))
	case 2:
		return binary.LittleEndian.AppendUint16(b, uint16(value))
	default:
		return binary.LittleEndian.AppendUint32(b, uint32(value))
	}
}

// EncodeConst picks the shortest form for an integer constant.
//
// Short:  [-32, 31]                one byte
// Long:   [-127, 127]              0x81 + 1 byte
//         [-32767, 32767]          0x82 + 2 bytes
//         [-2147483647, ...]       0x83 + 4 bytes
func EncodeConst(value int64) ([]byte, error) {
	if value >= bytecode.SHORT_MIN && value <= bytecode.SHORT_MAX {
		return []byte{
			bytecode.PRIMPAR_SHORT | bytecode.PRIMPAR_CONST |
				byte(value)&bytecode.PRIMPAR_VALUE,
		}, nil
	}

	width := widthFor(value)

	if width == 0 {
		return nil, &RangeError{value, bytecode.DATA32_MIN, bytecode.DATA32_MAX}
	}

	return EncodeConstWidth(value, width)
}

// EncodeConstWidth always uses the long form of the given width, so the
// length of the result is known before the value is.
func EncodeConstWidth(value int64, width int) ([]byte, error) {
	var min, max int64

	switch width {
	case 1:
		min, max = bytecode.DATA8_MIN, bytecode.DATA8_MAX
	case 2:
		min, max = bytecode.DATA16_MIN, bytecode.DATA16_MAX
	case 4:
		min, max = bytecode.DATA32_MIN, bytecode.DATA32_MAX
	default:
		panic("invalid constant width")
	}

	if value < min || value > max {
		return nil, &RangeError{value, min, max}
	}

	b := make([]byte, 0, width+1)
	b = append(b, bytecode.PRIMPAR_LONG|bytecode.PRIMPAR_CONST|sizeCode(width))

	return appendValue(b, value, width), nil
}

// ConstLen is the encoded length of EncodeConst(value).
func ConstLen(value int64) int {
	if value >= bytecode.SHORT_MIN && value <= bytecode.SHORT_MAX {
		return 1
	}

	return widthFor(value) + 1
}

// EncodeVariable encodes a reference to the storage at offset. Handle and
// address references are always written in long form.
func EncodeVariable(offset int64, global, handle, address bool) ([]byte, error) {
	if offset < 0 {
		return nil, &RangeError{offset, 0, bytecode.DATA32_MAX}
	}

	var prefix byte = bytecode.PRIMPAR_VARIABLE

	if global {
		prefix |= bytecode.PRIMPAR_GLOBAL
	}

	if !handle && !address && offset <= bytecode.PRIMPAR_INDEX {
		return []byte{prefix | byte(offset)}, nil
	}

	width := widthFor(offset)

	if width == 0 {
		return nil, &RangeError{offset, 0, bytecode.DATA32_MAX}
	}

	prefix |= bytecode.PRIMPAR_LONG | sizeCode(width)

	if handle {
		prefix |= bytecode.PRIMPAR_HANDLE
	}

	if address {
		prefix |= bytecode.PRIMPAR_ADDR
	}

	return appendValue([]byte{prefix}, offset, width), nil
}

// EncodeFloat always uses the 4 byte long form.
func EncodeFloat(bits uint32) []byte {
	b := []byte{bytecode.PRIMPAR_LONG | bytecode.PRIMPAR_CONST | bytecode.PRIMPAR_4_BYTES}
	return binary.LittleEndian.AppendUint32(b, bits)
}

func EncodeString(s string) ([]byte, error) {
	if i := strings.IndexByte(s, 0); i != -1 {
		return nil, &FormatError{i, "string contains NUL"}
	}

	b := make([]byte, 0, len(s)+2)
	b = append(b, bytecode.PRIMPAR_LONG|bytecode.PRIMPAR_CONST|bytecode.PRIMPAR_STRING)
	b = append(b, s...)

	return append(b, 0), nil
}

// EncodeLabel encodes the label number of a LABEL operation.
func EncodeLabel(number int64) ([]byte, error) {
	if number < 0 || number > 0xFF {
		return nil, &RangeError{number, 0, 0xFF}
	}

	return []byte{
		bytecode.PRIMPAR_LONG | bytecode.PRIMPAR_CONST | bytecode.PRIMPAR_LABEL,
		byte(number),
	}, nil
}

// Decode reads one operand from the start of b and returns it with the number
// of bytes consumed. Float slots are decoded as bit patterns and must use the
// 4 byte long form.
func Decode(b []byte, float bool) (Operand, int, error) {
	var operand Operand

	if len(b) == 0 {
		return operand, 0, &FormatError{0, "truncated operand"}
	}

	first := b[0]

	// Short form
	if first&bytecode.PRIMPAR_LONG == 0 {
		if first&bytecode.PRIMPAR_VARIABLE != 0 {
			operand.Type = OPERAND_VARIABLE
			operand.Global = first&bytecode.PRIMPAR_GLOBAL != 0
			operand.Value = int64(first & bytecode.PRIMPAR_INDEX)
		} else {
			operand.Type = OPERAND_CONST
			operand.Value = int64(SignExtend(uint32(first&bytecode.PRIMPAR_VALUE), 6))
		}

		if float && operand.Type == OPERAND_CONST {
			return operand, 0, &FormatError{0, "float operand is not 4 bytes wide"}
		}

		return operand, 1, nil
	}

	// Long variable
	if first&bytecode.PRIMPAR_VARIABLE != 0 {
		operand.Type = OPERAND_VARIABLE
		operand.Global = first&bytecode.PRIMPAR_GLOBAL != 0
		operand.Handle = first&bytecode.PRIMPAR_HANDLE != 0
		operand.Address = first&bytecode.PRIMPAR_ADDR != 0

		value, width, err := decodeValue(b, first&bytecode.PRIMPAR_BYTES)

		if err != nil {
			return operand, 0, err
		}

		operand.Value = value
		operand.Width = width

		return operand, width + 1, nil
	}

	// Long constant
	if first&bytecode.PRIMPAR_LABEL != 0 {
		if len(b) < 2 {
			return operand, 0, &FormatError{1, "truncated label"}
		}

		operand.Type = OPERAND_LABEL
		operand.Value = int64(b[1])
		operand.Width = 1

		return operand, 2, nil
	}

	switch size := first & bytecode.PRIMPAR_BYTES; size {
	case bytecode.PRIMPAR_STRING_OLD, bytecode.PRIMPAR_STRING:
		if float {
			return operand, 0, &FormatError{0, "float operand is not 4 bytes wide"}
		}

		end := strings.IndexByte(string(b[1:]), 0)

		if end == -1 {
			return operand, 0, &FormatError{len(b), "unterminated string"}
		}

		operand.Type = OPERAND_STRING
		operand.Str = string(b[1 : end+1])

		return operand, end + 2, nil

	default:
		value, width, err := decodeValue(b, size)

		if err != nil {
			return operand, 0, err
		}

		operand.Width = width

		if float {
			if width != 4 {
				return operand, 0, &FormatError{0, "float operand is not 4 bytes wide"}
			}

			operand.Type = OPERAND_FLOAT
			operand.Bits = uint32(value)
		} else {
			operand.Type = OPERAND_CONST
			operand.Value = value
		}

		return operand, width + 1, nil
	}
}

// decodeValue reads the little-endian value following a long prefix.
func decodeValue(b []byte, size byte) (int64, int, error) {
	var width int

	switch size {
	case bytecode.PRIMPAR_1_BYTE:
		width = 1
	case bytecode.PRIMPAR_2_BYTES:
		width = 2
	case bytecode.PRIMPAR_4_BYTES:
		width = 4
	default:
		return 0, 0, &FormatError{0, "invalid operand size"}
	}

	if len(b) < width+1 {
		return 0, 0, &FormatError{len(b), "truncated operand"}
	}

	switch width {
	case 1:
		return int64(int8(b[1])), width, nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b[1:]))), width, nil
	default:
		return int64(int32(binary.LittleEndian.Uint32(b[1:]))), width, nil
	}
}
