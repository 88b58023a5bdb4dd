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
	"bufio"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lassandro/golms/pkg/disassembler"
	"github.com/lassandro/golms/pkg/image"
	"github.com/lassandro/golms/pkg/inspector"
)

var inspectSymbolsvar string

var inspectCmd = &cobra.Command{
	Use:   "inspect [--symbols file] image",
	Short: "Browse an image interactively",
	Long: `Inspect opens a prompt for looking around an image. Type 'help' for
the commands. An empty line repeats the last command.`,

	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSymbolsvar, "symbols", "", "Symbol table to use")

	rootCmd.AddCommand(inspectCmd)
}

const inspectHelp = `source  [0x####|label] [#]   print source lines
memory  [0x####|label] [#]   dump image bytes
labels                       list labels
objects                      list the object table
jump    [0x####|label]       move the cursor
dis                          disassemble the image
clear                        clear the screen
quit`

// parseCount reads an optional line or byte count.
func parseCount(s string) (int64, error) {
	value, err := strconv.ParseInt(s, 10, 32)

	if err == nil && value < 0 {
		err = fmt.Errorf("negative count %d", value)
	}

	return value, err
}

// target resolves the [address] [count] arguments shared by source and
// memory. A lone number is a count at the cursor.
func target(in *inspector.Inspector, args []string, size int64) (uint32, int64, bool) {
	addr := in.Addr

	if len(args) > 0 {
		if resolved, err := in.Resolve(args[0]); err == nil {
			addr = resolved
		} else if value, countErr := parseCount(args[0]); countErr == nil && len(args) == 1 {
			size = value
		} else {
			log.Println(err)
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := parseCount(args[1])

		if err != nil {
			log.Println(err)
			return 0, 0, false
		}

		size = value
	}

	return addr, size, true
}

func inspectSource(in *inspector.Inspector, args []string) {
	const usage = "source [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if addr, size, ok := target(in, args, 3); ok {
		if err := in.PrintSource(addr, int(size)); err != nil {
			log.Println(err)
		}
	}
}

func inspectMemory(in *inspector.Inspector, args []string) {
	const usage = "memory [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if addr, size, ok := target(in, args, 8); ok {
		if err := in.PrintMem(addr, uint32(size)); err != nil {
			log.Println(err)
		}
	}
}

func inspectJump(in *inspector.Inspector, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	addr, err := in.Resolve(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	in.Addr = addr
	fmt.Fprintf(in.Out, "Cursor at %#06x\n", addr)
}

func inspectREPL(cmd *cobra.Command, in *inspector.Inspector) {
	var lastcmd []string

	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(in.Out, "(lms) ")

		if !scanner.Scan() {
			fmt.Fprintln(in.Out)
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}

			args = lastcmd
		} else {
			lastcmd = args
		}

		name := args[0]
		args = args[1:]

		switch name {
		case "s", "src", "source":
			inspectSource(in, args)

		case "m", "mem", "memory":
			inspectMemory(in, args)

		case "l", "label", "labels":
			if err := in.PrintLabels(); err != nil {
				log.Println(err)
			}

		case "o", "obj", "objects":
			if err := in.PrintObjects(); err != nil {
				log.Println(err)
			}

		case "j", "jmp", "jump":
			inspectJump(in, args)

		case "d", "dis":
			table, err := loadTable()

			if err != nil {
				log.Println(err)
				continue
			}

			cfg := &disassembler.Config{Table: table}

			if text, err := cfg.Disassemble(in.Image, in.SymTable); err == nil {
				fmt.Fprint(in.Out, text)
			} else {
				log.Println(err)
			}

		case "h", "help":
			fmt.Fprintln(in.Out, inspectHelp)

		case "q", "quit", "exit":
			return

		case "clear":
			fmt.Fprint(in.Out, "\033[H\033[2J")

		default:
			fmt.Fprintf(in.Out, "error: '%s' is not a valid command\n", name)
		}
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	in, closer, err := openInspector(args[0], inspectSymbolsvar)

	if err != nil {
		return err
	}

	defer closer()

	in.Out = cmd.OutOrStdout()

	_, objects, err := image.Read(in.Image)

	if err != nil {
		return err
	}

	if len(objects) > 0 {
		in.Addr = uint32(objects[0].Offset)
	}

	if in.SymTable == nil {
		log.Println("No symbol table loaded")
	}

	inspectREPL(cmd, in)

	return nil
}
