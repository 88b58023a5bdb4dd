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

package bytecode

const (
	PARAM_INVALID ParamKind = iota
	PAR8
	PAR16
	PAR32
	PARF
	PARS
	PARV
	PARVALUES
	PARNO
	PARLAB
	PAROBJ
	PAROFFSET
	SUBP
)

var paramNames = map[string]ParamKind{
	"PAR8":      PAR8,
	"PAR16":     PAR16,
	"PAR32":     PAR32,
	"PARF":      PARF,
	"PARS":      PARS,
	"PARV":      PARV,
	"PARVALUES": PARVALUES,
	"PARNO":     PARNO,
	"PARLAB":    PARLAB,
	"PAROBJ":    PAROBJ,
	"PAROFFSET": PAROFFSET,
}

// Operand prefix byte
//
// Short:    |0|V|S|nnnnn | constant (V=0, S sign) or variable (V=1, S global)
// Long:     |1|V|G|H|A|sss| followed by sss-coded bytes
// ---- [ _ _ _ _ _ _ _ _ ]
const (
	PRIMPAR_SHORT      = 0x00
	PRIMPAR_LONG       = 0x80
	PRIMPAR_CONST      = 0x00
	PRIMPAR_VARIABLE   = 0x40
	PRIMPAR_LOCAL      = 0x00
	PRIMPAR_GLOBAL     = 0x20
	PRIMPAR_HANDLE     = 0x10
	PRIMPAR_ADDR       = 0x08
	PRIMPAR_INDEX      = 0x1F
	PRIMPAR_CONST_SIGN = 0x20
	PRIMPAR_VALUE      = 0x3F
	PRIMPAR_BYTES      = 0x07
	PRIMPAR_STRING_OLD = 0
	PRIMPAR_1_BYTE     = 1
	PRIMPAR_2_BYTES    = 2
	PRIMPAR_4_BYTES    = 3
	PRIMPAR_STRING     = 4
	PRIMPAR_LABEL      = 0x20
)

const (
	DATA8_MIN  = -127
	DATA8_MAX  = 127
	DATA16_MIN = -32767
	DATA16_MAX = 32767
	DATA32_MIN = -2147483647
	DATA32_MAX = 2147483647

	SHORT_MIN = -32
	SHORT_MAX = 31
)

// Reserved float bit patterns
const (
	DATAF_MAX uint32 = 0x7F7FFFFF
	DATAF_MIN uint32 = 0xFF7FFFFF
	DATAF_NAN uint32 = 0x7FC00000
)

type DataFormat uint8

const (
	DATA8 DataFormat = iota
	DATA16
	DATA32
	DATAF
	DATAS
)

// Sub-call parameter direction, OR'd with a DataFormat
const (
	CALLPARAM_IN  = 0x80
	CALLPARAM_OUT = 0x40
	CALLPARAM_IO  = CALLPARAM_IN | CALLPARAM_OUT

	CALLPARAM_FORMAT = 0x3F
)

const (
	OP_RETURN     = "RETURN"
	OP_CALL       = "CALL"
	OP_OBJECT_END = "OBJECT_END"
)

// Size is the storage size of one value, 0 for strings.
func (format DataFormat) Size() int64 {
	switch format {
	case DATA8:
		return 1
	case DATA16:
		return 2
	case DATA32, DATAF:
		return 4
	}

	return 0
}

var callParamFormats = []struct {
	Suffix string
	Format DataFormat
}{
	{"8", DATA8},
	{"16", DATA16},
	{"32", DATA32},
	{"F", DATAF},
	{"S", DATAS},
}

var callParamDirections = []struct {
	Prefix    string
	Direction byte
}{
	{"IN_", CALLPARAM_IN},
	{"OUT_", CALLPARAM_OUT},
	{"IO_", CALLPARAM_IO},
}

// ParseCallParam maps a declaration keyword such as IN_16 to its call
// parameter byte.
func ParseCallParam(name string) (byte, bool) {
	for _, dir := range callParamDirections {
		for _, f := range callParamFormats {
			if name == dir.Prefix+f.Suffix {
				return dir.Direction | byte(f.Format), true
			}
		}
	}

	return 0, false
}

// CallParamName is the inverse of ParseCallParam.
func CallParamName(b byte) (string, bool) {
	for _, dir := range callParamDirections {
		if b&^CALLPARAM_FORMAT != dir.Direction {
			continue
		}

		for _, f := range callParamFormats {
			if DataFormat(b&CALLPARAM_FORMAT) == f.Format {
				return dir.Prefix + f.Suffix, true
			}
		}
	}

	return "", false
}
