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
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/golms/pkg/disassembler"
)

var disOutvar string
var disSymbolsvar string

var disCmd = &cobra.Command{
	Use:   "dis [-o outfile] [--symbols file] image",
	Short: "Disassemble an .rbf image into source",
	Long: `Dis prints the source form of an image. The output assembles back into
the same image. Names from a symbol table are used when one is found next
to the image or given with --symbols.`,

	Args: cobra.ExactArgs(1),
	RunE: runDis,
}

func init() {
	disCmd.Flags().StringVarP(
		&disOutvar, "out", "o", "",
		"Writes the source to a file instead of standard output",
	)
	disCmd.Flags().StringVar(
		&disSymbolsvar, "symbols", "",
		"Symbol table to take names from",
	)

	rootCmd.AddCommand(disCmd)
}

func runDis(cmd *cobra.Command, args []string) error {
	table, err := loadTable()

	if err != nil {
		return err
	}

	b, err := os.ReadFile(args[0])

	if err != nil {
		return errors.Wrap(err, "reading image")
	}

	symtable, err := loadSymbols(args[0], disSymbolsvar)

	if err != nil {
		return err
	}

	cfg := &disassembler.Config{Table: table, Name: filepath.Base(args[0])}
	text, err := cfg.Disassemble(b, symtable)

	if err != nil {
		return errors.Wrap(err, filepath.Base(args[0]))
	}

	if disOutvar == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}

	return errors.Wrap(os.WriteFile(disOutvar, []byte(text), 0666), "writing output file")
}
