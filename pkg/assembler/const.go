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

package assembler

import (
	"github.com/lassandro/golms/pkg/bytecode"
)

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_LITERAL
	TOKEN_STRING
	TOKEN_LABEL
	TOKEN_BLOCK_START
	TOKEN_BLOCK_END
)

const (
	STATE_DECLARE State = iota
	STATE_ALLOCATE_AND_EMIT
	STATE_RESOLVE
	STATE_DONE
)

const (
	KEYWORD_VMTHREAD = "vmthread"
	KEYWORD_SUBCALL  = "subcall"
	KEYWORD_DEFINE   = "define"
	KEYWORD_GLOBAL   = "global"
	KEYWORD_LOCAL    = "local"
)

// Prefixes selecting a handle or address reference to a variable
const (
	PREFIX_HANDLE  = '@'
	PREFIX_ADDRESS = '&'
)

// Jump operands are always written in the 2 byte long form
const LABEL_REF_SIZE = 3

type declaration struct {
	Format bytecode.DataFormat

	// Element width, also the alignment
	Width int64

	// Takes a trailing element count
	Counted bool
}

var declarations = map[string]declaration{
	"DATA8":   {bytecode.DATA8, 1, false},
	"DATA16":  {bytecode.DATA16, 2, false},
	"DATA32":  {bytecode.DATA32, 4, false},
	"DATAF":   {bytecode.DATAF, 4, false},
	"HANDLE":  {bytecode.DATA16, 2, false},
	"DATAS":   {bytecode.DATAS, 1, true},
	"ARRAY8":  {bytecode.DATA8, 1, true},
	"ARRAY16": {bytecode.DATA16, 2, true},
	"ARRAY32": {bytecode.DATA32, 4, true},
	"ARRAYF":  {bytecode.DATAF, 4, true},
}
