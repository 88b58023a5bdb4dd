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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/lassandro/golms/pkg/assembler"
	"github.com/lassandro/golms/pkg/encoding"
	"github.com/lassandro/golms/pkg/image"
)

func New(b []byte, out io.Writer) *Inspector {
	return &Inspector{Image: b, Out: out}
}

func (in *Inspector) style(code string, s string) string {
	if !in.Color {
		return s
	}

	return "\033[" + code + "m" + s + "\033[0m"
}

func (in *Inspector) address(addr uint32) string {
	return in.style("1", fmt.Sprintf("[%#06x]", addr))
}

// lineAddrs maps the first byte of every source line holding an instruction
// to the lowest address assembled from it.
func (in *Inspector) lineAddrs() map[int64]uint32 {
	lines := make(map[int64]uint32, len(in.SymTable.Symbols))

	for addr, linebyte := range in.SymTable.Symbols {
		if prev, exists := lines[linebyte]; !exists || addr < prev {
			lines[linebyte] = addr
		}
	}

	return lines
}

// PrintSource prints count source lines starting at the line that addr was
// assembled from.
func (in *Inspector) PrintSource(addr uint32, count int) error {
	if in.SymTable == nil {
		return ErrNoSymTable
	}

	if in.Source == nil {
		return ErrNoSource
	}

	offset, exists := in.SymTable.Symbols[addr]

	if !exists {
		return &NoInstructionError{addr}
	}

	return in.printLines(offset, count)
}

// PrintListing prints the whole source, each line marked with the address
// of the instruction it produced.
func (in *Inspector) PrintListing() error {
	if in.SymTable == nil {
		return ErrNoSymTable
	}

	if in.Source == nil {
		return ErrNoSource
	}

	return in.printLines(0, -1)
}

// printLines prints count lines from offset, or every remaining line when
// count is negative.
func (in *Inspector) printLines(offset int64, count int) error {
	if _, err := in.Source.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking source")
	}

	lines := in.lineAddrs()
	reader := bufio.NewReader(in.Source)

	for i := 0; count < 0 || i < count; i++ {
		line, err := reader.ReadString('\n')

		if len(line) == 0 && err != nil {
			if err == io.EOF {
				break
			}

			return errors.Wrap(err, "reading source")
		}

		if lineaddr, found := lines[offset]; found {
			fmt.Fprint(in.Out, in.address(lineaddr), " ")
		} else {
			fmt.Fprint(in.Out, in.style("1;30", "~~~~~~~~"), " ")
		}

		fmt.Fprintln(in.Out, strings.TrimRight(line, "\r\n"))

		offset += int64(len(line))
	}

	return nil
}

// PrintMem dumps count image bytes from addr, eight to a row. The dump stops
// at the end of the image.
func (in *Inspector) PrintMem(addr, count uint32) error {
	size := uint32(len(in.Image))

	if addr >= size {
		return &OutOfImageError{addr, len(in.Image)}
	}

	end := addr + count

	if end > size || end < addr {
		end = size
	}

	for i := addr; i < end; i++ {
		if i == addr {
			fmt.Fprint(in.Out, in.address(i), " ")
		} else if (i-addr)%8 == 0 {
			fmt.Fprintln(in.Out)
			fmt.Fprint(in.Out, in.address(i), " ")
		}

		result := in.Image[i]

		if result == 0 {
			fmt.Fprint(in.Out, in.style("1;30", fmt.Sprintf("%02x", result)), " ")
		} else {
			fmt.Fprintf(in.Out, "%02x ", result)
		}
	}

	fmt.Fprintln(in.Out)

	return nil
}

func (in *Inspector) PrintLabels() error {
	if in.SymTable == nil {
		return ErrNoSymTable
	}

	keys := make([]uint32, 0, len(in.SymTable.Labels))

	for addr := range in.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Fprintf(in.Out, "%s %s\n", in.address(addr), in.SymTable.Labels[addr])
	}

	return nil
}

func (in *Inspector) objectName(i int) string {
	if in.SymTable != nil && i < len(in.SymTable.Objects) {
		return in.SymTable.Objects[i]
	}

	return fmt.Sprintf("OBJECT%d", i+1)
}

// PrintObjects lists the header and object table of the image.
func (in *Inspector) PrintObjects() error {
	h, objects, err := image.Read(in.Image)

	if err != nil {
		return err
	}

	fmt.Fprintf(
		in.Out,
		"Version %s, %d bytes, %d global bytes\n",
		image.VersionString(h.Version),
		h.Size,
		h.GlobalBytes,
	)

	for i, obj := range objects {
		kind := assembler.KEYWORD_VMTHREAD

		if obj.IsSubcall() {
			kind = assembler.KEYWORD_SUBCALL
		} else if obj.IsBlock() {
			kind = "block"
		}

		fmt.Fprintf(
			in.Out,
			"%s #%d %s %s, %d local bytes\n",
			in.address(uint32(obj.Offset)),
			i+1,
			kind,
			in.objectName(i),
			obj.LocalBytes,
		)
	}

	return nil
}

// Resolve turns a label, an object name or a hex address into an address.
func (in *Inspector) Resolve(name string) (uint32, error) {
	if addr, err := encoding.DecodeHex(name); err == nil {
		if addr < 0 {
			return 0, &UnknownNameError{name}
		}

		return uint32(addr), nil
	}

	if in.SymTable == nil {
		return 0, ErrNoSymTable
	}

	// Labels are per object, the first one wins
	found := false
	var first uint32

	for addr, label := range in.SymTable.Labels {
		if label == name && (!found || addr < first) {
			found, first = true, addr
		}
	}

	if found {
		return first, nil
	}

	for i, object := range in.SymTable.Objects {
		if object != name {
			continue
		}

		_, objects, err := image.Read(in.Image)

		if err != nil {
			return 0, err
		}

		if i < len(objects) {
			return uint32(objects[i].Offset), nil
		}
	}

	return 0, &UnknownNameError{name}
}
