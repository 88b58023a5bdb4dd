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

package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lassandro/golms/pkg/encoding"
)

const (
	MAGIC = "LEGO"

	HEADER_SIZE        = 16
	OBJECT_HEADER_SIZE = 12

	DEFAULT_VERSION uint16 = 109
)

// Header: |LEGO|size:i32|version:u16|objects:i16|globals:i32|
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
type Header struct {
	Magic       [4]byte
	Size        int32
	Version     uint16
	Objects     int16
	GlobalBytes int32
}

// ObjectHeader: |offset:i32|owner:u16|triggers:i16|locals:i32|
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ ]
type ObjectHeader struct {
	Offset     int32
	Owner      uint16
	Triggers   int16
	LocalBytes int32
}

func (obj *ObjectHeader) IsThread() bool {
	return obj.Owner == 0 && obj.Triggers == 0
}

func (obj *ObjectHeader) IsSubcall() bool {
	return obj.Owner == 0 && obj.Triggers == 1
}

func (obj *ObjectHeader) IsBlock() bool {
	return obj.Owner != 0
}

// VersionString renders a version stored as version*100.
func VersionString(version uint16) string {
	return fmt.Sprintf("%d.%02d", version/100, version%100)
}

// CodeStart is the offset of the first code byte for count objects.
func CodeStart(count int) int64 {
	return HEADER_SIZE + OBJECT_HEADER_SIZE*int64(count)
}

// Write lays out the header, one record per object and the code stream. The
// size, magic and object count fields of h are filled in.
func Write(h Header, objects []ObjectHeader, code []byte) ([]byte, error) {
	size := CodeStart(len(objects)) + int64(len(code))

	if size > math.MaxInt32 || len(objects) > math.MaxInt16 {
		return nil, &OversizedImageError{size, len(objects)}
	}

	copy(h.Magic[:], MAGIC)
	h.Size = int32(size)
	h.Objects = int16(len(objects))

	buffer := bytes.NewBuffer(make([]byte, 0, size))

	if err := binary.Write(buffer, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	if err := binary.Write(buffer, binary.LittleEndian, objects); err != nil {
		return nil, err
	}

	buffer.Write(code)

	return buffer.Bytes(), nil
}

// Read validates the program header against b and returns the header table.
func Read(b []byte) (Header, []ObjectHeader, error) {
	var h Header

	if len(b) < HEADER_SIZE {
		return h, nil, &encoding.FormatError{Offset: len(b), Reason: "truncated header"}
	}

	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return h, nil, err
	}

	if string(h.Magic[:]) != MAGIC {
		return h, nil, &encoding.FormatError{
			Offset: 0,
			Reason: fmt.Sprintf("bad magic %q", h.Magic[:]),
		}
	}

	if int64(h.Size) != int64(len(b)) {
		return h, nil, &SizeMismatchError{int64(h.Size), int64(len(b))}
	}

	if h.Objects < 0 || CodeStart(int(h.Objects)) > int64(len(b)) {
		return h, nil, &encoding.FormatError{
			Offset: HEADER_SIZE,
			Reason: fmt.Sprintf("object table of %d entries is truncated", h.Objects),
		}
	}

	objects := make([]ObjectHeader, h.Objects)

	if err := binary.Read(
		bytes.NewReader(b[HEADER_SIZE:]), binary.LittleEndian, objects,
	); err != nil {
		return h, nil, err
	}

	for i, obj := range objects {
		if obj.Offset < int32(CodeStart(len(objects))) || int64(obj.Offset) >= int64(len(b)) {
			return h, nil, &encoding.FormatError{
				Offset: int(CodeStart(i)),
				Reason: fmt.Sprintf("object %d offset %d is outside the code", i+1, obj.Offset),
			}
		}
	}

	return h, objects, nil
}

type SizeMismatchError struct {
	Required int64
	Received int64
}

func (err *SizeMismatchError) Is(target error) bool {
	return target == encoding.ErrRange
}

func (err *SizeMismatchError) Error() string {
	return fmt.Sprintf(
		"Image size does not match header\n\twant:%d\n\thave:%d",
		err.Required,
		err.Received,
	)
}

type OversizedImageError struct {
	Size    int64
	Objects int
}

func (err *OversizedImageError) Is(target error) bool {
	return target == encoding.ErrRange
}

func (err *OversizedImageError) Error() string {
	return fmt.Sprintf(
		"Image exceeds allowed size\n\twant:%d bytes, %d objects\n\thave:%d bytes, %d objects",
		math.MaxInt32,
		math.MaxInt16,
		err.Size,
		err.Objects,
	)
}
