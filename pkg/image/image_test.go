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

package image_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/lassandro/golms/pkg/encoding"
	"github.com/lassandro/golms/pkg/image"
)

func TestWrite(t *testing.T) {
	code := []byte{0xA3, 0x00, 0x01, 0x00, 0x0A, 0x00, 0x08, 0x0A}
	objects := []image.ObjectHeader{
		{Offset: 40, Owner: 0, Triggers: 0, LocalBytes: 3},
		{Offset: 45, Owner: 0, Triggers: 1, LocalBytes: 0},
	}

	have, err := image.Write(
		image.Header{Version: image.DEFAULT_VERSION, GlobalBytes: 6},
		objects,
		code,
	)

	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		'L', 'E', 'G', 'O',
		48, 0, 0, 0,
		109, 0,
		2, 0,
		6, 0, 0, 0,

		40, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0,
		45, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0,

		0xA3, 0x00, 0x01, 0x00, 0x0A, 0x00, 0x08, 0x0A,
	}

	if !bytes.Equal(have, want) {
		t.Fatalf("Image mismatch\nwant:% x\nhave:% x", want, have)
	}

	h, table, err := image.Read(have)

	if err != nil {
		t.Fatal(err)
	}

	if h.Size != 48 || h.Version != 109 || h.Objects != 2 || h.GlobalBytes != 6 {
		t.Fatalf("Header mismatch\n%s", spew.Sdump(h))
	}

	if !reflect.DeepEqual(table, objects) {
		t.Fatalf("Object table mismatch\nwant:%s\nhave:%s", spew.Sdump(objects), spew.Sdump(table))
	}

	if !table[0].IsThread() || !table[1].IsSubcall() || table[1].IsBlock() {
		t.Fatalf("Object kinds\n%s", spew.Sdump(table))
	}
}

func TestRead(t *testing.T) {
	valid, err := image.Write(
		image.Header{Version: image.DEFAULT_VERSION},
		[]image.ObjectHeader{{Offset: 28}},
		[]byte{0x0A},
	)

	if err != nil {
		t.Fatal(err)
	}

	badMagic := append([]byte{}, valid...)
	copy(badMagic, "LEGA")

	badOffset := append([]byte{}, valid...)
	badOffset[16] = 4

	tests := []struct {
		Name  string
		Input []byte
		Error error
	}{
		{"Truncated Header", valid[:10], encoding.ErrFormat},
		{"Bad Magic", badMagic, encoding.ErrFormat},
		{"Short File", valid[:len(valid)-1], encoding.ErrRange},
		{"Long File", append(append([]byte{}, valid...), 0), encoding.ErrRange},
		{"Bad Offset", badOffset, encoding.ErrFormat},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			if _, _, err := image.Read(test.Input); !errors.Is(err, test.Error) {
				t.Fatalf("Read\nwant:%v\nhave:%v", test.Error, err)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	if have := image.VersionString(109); have != "1.09" {
		t.Fatalf("VersionString(109)\nwant:1.09\nhave:%s", have)
	}

	if have := image.CodeStart(3); have != 52 {
		t.Fatalf("CodeStart(3)\nwant:52\nhave:%d", have)
	}
}
