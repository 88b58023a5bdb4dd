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

// Command golms assembles and disassembles lms2012 byte code images.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/golms/pkg/bytecode"
)

// Reported failures have already been logged
var errReported = errors.New("failed")

var bytecodesvar string

var rootCmd = &cobra.Command{
	Use:   "golms",
	Short: "Assembler and disassembler for lms2012 byte code",
	Long: `golms translates lms2012 assembly source into the byte code images
run by the EV3 virtual machine, and turns images back into source.

Images use the .rbf extension. Assembling with --debug also writes a symbol
table next to the image (.lmsdb) that the dis, list and inspect commands
pick up to show names and source lines.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().StringVar(
		&bytecodesvar, "bytecodes", "",
		"Operation descriptor table to use instead of the built-in one",
	)
}

// loadTable returns the descriptor table named by --bytecodes or the
// built-in one.
func loadTable() (*bytecode.Table, error) {
	if bytecodesvar == "" {
		return bytecode.Default()
	}

	file, err := os.Open(bytecodesvar)

	if err != nil {
		return nil, errors.Wrap(err, "opening descriptor table")
	}

	defer file.Close()

	table, err := bytecode.Load(file)

	return table, errors.Wrapf(err, "loading %s", bytecodesvar)
}

// withExt swaps the extension of path, keeping its directory.
func withExt(path string, ext string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ext

	return filepath.Join(filepath.Dir(path), base)
}

func prefix(filename string) string {
	if isTerminal(int(os.Stderr.Fd())) {
		return fmt.Sprintf("\033[1m%s:\033[0m ", filename)
	}

	return filename + ": "
}

func main() {
	log.SetPrefix(prefix("golms"))

	if err := rootCmd.Execute(); err != nil {
		if err != errReported {
			log.Println(err)
		}

		os.Exit(1)
	}
}
