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

package inspector

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/lassandro/golms/pkg/assembler"
)

var (
	ErrNoSource   = errors.New("No source file loaded")
	ErrNoSymTable = errors.New("No symbol table loaded")
)

// Inspector prints parts of an assembled image next to the source it was
// built from.
type Inspector struct {
	// Address used by commands given none
	Addr uint32

	Image    []byte
	Source   io.ReadSeeker
	SymTable *assembler.SymTable

	Out   io.Writer
	Color bool
}

type NoInstructionError struct {
	Addr uint32
}

func (err *NoInstructionError) Error() string {
	return fmt.Sprintf("No instruction found at %#06x", err.Addr)
}

type OutOfImageError struct {
	Addr uint32
	Size int
}

func (err *OutOfImageError) Error() string {
	return fmt.Sprintf("Address %#06x is outside the %d byte image", err.Addr, err.Size)
}

type UnknownNameError struct {
	Name string
}

func (err *UnknownNameError) Error() string {
	return fmt.Sprintf("Unable to find '%s'", err.Name)
}
