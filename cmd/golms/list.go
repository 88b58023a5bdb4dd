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
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/golms/pkg/inspector"
)

var listMemvar bool
var listSymbolsvar string

var listCmd = &cobra.Command{
	Use:   "list [--mem] [--symbols file] image",
	Short: "Print the object table and the annotated source of an image",
	Long: `List prints the header and object table of an image. With a symbol
table it also prints the source the image was assembled from, each line
marked with the address of the instruction it produced.`,

	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listMemvar, "mem", false, "Appends a hex dump of the image")
	listCmd.Flags().StringVar(&listSymbolsvar, "symbols", "", "Symbol table to use")

	rootCmd.AddCommand(listCmd)
}

// openInspector loads an image with its symbol table and source, as far as
// they can be found.
func openInspector(imagefile string, symbols string) (*inspector.Inspector, func(), error) {
	b, err := os.ReadFile(imagefile)

	if err != nil {
		return nil, nil, errors.Wrap(err, "reading image")
	}

	symtable, err := loadSymbols(imagefile, symbols)

	if err != nil {
		return nil, nil, err
	}

	in := inspector.New(b, os.Stdout)
	in.SymTable = symtable
	in.Color = isTerminal(int(os.Stdout.Fd()))

	closer := func() {}

	if symtable != nil && symtable.Source != "" {
		if file, err := os.Open(symtable.Source); err == nil {
			in.Source = file
			closer = func() { file.Close() }
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	return in, closer, nil
}

func runList(cmd *cobra.Command, args []string) error {
	in, closer, err := openInspector(args[0], listSymbolsvar)

	if err != nil {
		return err
	}

	defer closer()

	in.Out = cmd.OutOrStdout()

	if err := in.PrintObjects(); err != nil {
		return err
	}

	if in.SymTable == nil {
		log.Printf("No symbol table found, assemble with --debug to create %s", withExt(args[0], SYMBOL_EXT))
	} else if in.Source != nil {
		fmt.Fprintln(in.Out)

		if err := in.PrintListing(); err != nil {
			return err
		}
	}

	if listMemvar {
		fmt.Fprintln(in.Out)
		return in.PrintMem(0, uint32(len(in.Image)))
	}

	return nil
}
