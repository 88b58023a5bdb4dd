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

package encoding

import (
	"errors"
	"fmt"
)

var (
	ErrRange  = errors.New("value out of range")
	ErrFormat = errors.New("malformed byte code")
)

type RangeError struct {
	Received int64
	Min      int64
	Max      int64
}

func (err *RangeError) Is(target error) bool {
	return target == ErrRange
}

func (err *RangeError) Error() string {
	return fmt.Sprintf(
		"Value exceeds encodable range\n\twant:%d..%d\n\thave:%d",
		err.Min,
		err.Max,
		err.Received,
	)
}

// FormatError reports malformed byte code. Offset is relative to the
// buffer handed to the failing call until a caller rebases it.
type FormatError struct {
	Offset int
	Reason string
}

func (err *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (err *FormatError) Error() string {
	return fmt.Sprintf("%#06x: %s", err.Offset, err.Reason)
}

// Rebase shifts the offset of a FormatError by base and returns err.
func Rebase(err error, base int) error {
	var formatErr *FormatError

	if errors.As(err, &formatErr) {
		formatErr.Offset += base
	}

	return err
}
