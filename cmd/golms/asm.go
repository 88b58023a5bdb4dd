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
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lassandro/golms/pkg/assembler"
	"github.com/lassandro/golms/pkg/image"
)

var debugvar bool
var outvar string
var versionvar uint16

var asmCmd = &cobra.Command{
	Use:   "asm [--debug] [-o outfile] [file...]",
	Short: "Assemble source files into .rbf images",
	Long: `Asm assembles each source file into an image next to it, replacing the
extension with .rbf. Several files are assembled in parallel. Without file
arguments the source is read from standard input and written to out.rbf.

Every error found in a file is reported; no image is written for a file
with errors.`,

	RunE: runAsm,
}

func init() {
	asmCmd.Flags().BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'"+SYMBOL_EXT+"'",
	)
	asmCmd.Flags().StringVarP(
		&outvar, "out", "o", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	asmCmd.Flags().Uint16Var(
		&versionvar, "image-version", image.DEFAULT_VERSION,
		"Byte code version written to the image header, times 100",
	)

	rootCmd.AddCommand(asmCmd)
}

type asmJob struct {
	// Empty for standard input
	infile string

	outfile string
	source  []byte
	logger  *log.Logger
}

func runAsm(cmd *cobra.Command, args []string) error {
	table, err := loadTable()

	if err != nil {
		return err
	}

	cfg := &assembler.Config{Table: table, Version: versionvar}

	if len(args) == 0 {
		if stat, err := os.Stdin.Stat(); err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return errors.New("no input files")
		}

		source, err := io.ReadAll(os.Stdin)

		if err != nil {
			return errors.Wrap(err, "reading standard input")
		}

		job := &asmJob{
			outfile: outvar,
			source:  source,
			logger:  log.New(os.Stderr, prefix("<stdin>"), 0),
		}

		if job.outfile == "" {
			job.outfile = "out.rbf"
		}

		return assemble(cfg, job)
	}

	if outvar != "" && len(args) > 1 {
		return errors.New("--out needs exactly one input file")
	}

	var group errgroup.Group

	for _, infile := range args {
		infile := infile

		group.Go(func() error {
			return assembleFile(cfg, infile)
		})
	}

	return group.Wait()
}

func assembleFile(cfg *assembler.Config, infile string) error {
	filename := filepath.Base(infile)
	logger := log.New(os.Stderr, prefix(filename), 0)

	if stat, err := os.Stat(infile); err != nil {
		logger.Println(err)
		return errReported
	} else if stat.IsDir() {
		logger.Printf("%s is not a valid lms2012 assembly file", filename)
		return errReported
	}

	source, err := os.ReadFile(infile)

	if err != nil {
		logger.Println(err)
		return errReported
	}

	job := &asmJob{
		infile:  infile,
		outfile: outvar,
		source:  source,
		logger:  logger,
	}

	if job.outfile == "" {
		job.outfile = withExt(infile, ".rbf")
	}

	return assemble(cfg, job)
}

func assemble(cfg *assembler.Config, job *asmJob) error {
	var symtarget *assembler.SymTable

	if debugvar {
		symtarget = assembler.NewSymTable()

		if job.infile != "" {
			var err error

			if symtarget.Source, err = filepath.Abs(job.infile); err != nil {
				job.logger.Println(err)
				symtarget.Source = ""
			}
		}
	}

	result, errs := cfg.Assemble(bytes.NewReader(job.source), symtarget)

	if len(errs) > 0 {
		color := isTerminal(int(os.Stderr.Fd()))

		for _, err := range errs {
			job.logger.Println(diagnostic(job.source, err, color))
		}

		return errReported
	}

	if err := os.WriteFile(job.outfile, result, 0666); err != nil {
		job.logger.Println("Error writing output file")
		job.logger.Println(err)
		return errReported
	}

	if debugvar {
		if err := writeSymTable(withExt(job.outfile, SYMBOL_EXT), symtarget); err != nil {
			job.logger.Println(err)
			return errReported
		}
	}

	return nil
}

// diagnostic renders err with the offending source line and a marker under
// the token it points at.
func diagnostic(source []byte, err error, color bool) string {
	tokenErr, ok := err.(assembler.TokenError)

	if !ok {
		return err.Error()
	}

	cursor := tokenErr.GetPosition()

	if cursor.LineByte < 0 || cursor.LineByte > int64(len(source)) ||
		cursor.Byte < cursor.LineByte {
		return err.Error()
	}

	line := source[cursor.LineByte:]

	if end := bytes.IndexByte(line, '\n'); end != -1 {
		line = line[:end]
	}

	line = bytes.TrimRight(line, "\r")
	column := int(cursor.Byte - cursor.LineByte)

	if column > len(line) {
		column = len(line)
	}

	// Keep tabs so the marker lines up with the text above it
	var underline strings.Builder

	for _, c := range line[:column] {
		if c == '\t' {
			underline.WriteByte('\t')
		} else {
			underline.WriteByte(' ')
		}
	}

	underline.WriteByte('^')

	if cursor.Size > 1 {
		underline.WriteString(strings.Repeat("~", int(cursor.Size)-1))
	}

	marker := underline.String()

	if color {
		marker = "\033[31m" + marker + "\033[0m"
	}

	return fmt.Sprintf("%s\n%s\n%s", err, line, marker)
}
