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
	"github.com/lassandro/golms/pkg/encoding"
)

// Chunk is one piece of an object's code. Only Bytes survive Pass 2; the
// other kinds are placeholders and position markers whose length is known as
// soon as they are created.
type Chunk interface {
	Len() int64
}

type Bytes []byte

func (b Bytes) Len() int64 {
	return int64(len(b))
}

// LabelRef is a jump offset to a label of the same object.
type LabelRef struct {
	Name     string
	Position Cursor
}

func (ref *LabelRef) Len() int64 {
	return LABEL_REF_SIZE
}

// ObjectRef is the id of an object, possibly declared further down.
type ObjectRef struct {
	Name     string
	Index    int64
	Position Cursor
}

func (ref *ObjectRef) Len() int64 {
	return int64(encoding.ConstLen(ref.Index))
}

type LabelDef struct {
	Name string
}

func (def LabelDef) Len() int64 {
	return 0
}

// SourceMark ties the next instruction to the source line starting at
// LineByte.
type SourceMark struct {
	LineByte int64
}

func (mark SourceMark) Len() int64 {
	return 0
}
