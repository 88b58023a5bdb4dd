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
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/golms/pkg/bytecode"
)

var opsCmd = &cobra.Command{
	Use:   "ops [operation|family]",
	Short: "Print the operation descriptor table",
	Long: `Ops lists every operation with its opcode and parameter signature.
Naming an operation also lists the sub-operations of the families it
selects from; naming a family lists its sub-operations.`,

	Args: cobra.MaximumNArgs(1),
	RunE: runOps,
}

func init() {
	rootCmd.AddCommand(opsCmd)
}

func printFamily(out io.Writer, family *bytecode.Family) {
	fmt.Fprintf(out, "%s\n", family.Name)

	for _, sub := range family.Sorted() {
		fmt.Fprintf(out, "  %3d %-20s %s\n", sub.Value, sub.Name, sub.Signature())
	}
}

func runOps(cmd *cobra.Command, args []string) error {
	table, err := loadTable()

	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, op := range table.Sorted() {
			fmt.Fprintf(out, "%#04x %-20s %s\n", op.Code, op.Name, op.Signature())
		}

		return nil
	}

	if op, exists := table.Op(args[0]); exists {
		fmt.Fprintf(out, "%#04x %-20s %s\n", op.Code, op.Name, op.Signature())

		for _, param := range op.Params {
			if param.Family != nil {
				fmt.Fprintln(out)
				printFamily(out, param.Family)
			}
		}

		return nil
	}

	if family, exists := table.Families[args[0]]; exists {
		printFamily(out, family)
		return nil
	}

	return errors.Errorf("unknown operation or family '%s'", args[0])
}
