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

package main

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"github.com/lassandro/golms/pkg/assembler"
)

const SYMBOL_EXT = ".lmsdb"

func writeSymTable(filename string, symtable *assembler.SymTable) error {
	file, err := os.Create(filename)

	if err != nil {
		return errors.Wrap(err, "creating symbol table")
	}

	if err := gob.NewEncoder(file).Encode(symtable); err != nil {
		file.Close()
		return errors.Wrap(err, "writing symbol table")
	}

	return errors.Wrap(file.Close(), "writing symbol table")
}

func readSymTable(filename string) (*assembler.SymTable, error) {
	file, err := os.Open(filename)

	if err != nil {
		return nil, errors.Wrap(err, "loading symbol table")
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filename)
	}

	return &symtable, nil
}

// loadSymbols reads the table named by explicit, or the one next to the
// image. Only an explicitly named table has to exist.
func loadSymbols(imagefile string, explicit string) (*assembler.SymTable, error) {
	if explicit != "" {
		return readSymTable(explicit)
	}

	filename := withExt(imagefile, SYMBOL_EXT)

	if _, err := os.Stat(filename); err != nil {
		return nil, nil
	}

	return readSymTable(filename)
}
