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

package symbols_test

import (
	"errors"
	"testing"

	"github.com/lassandro/golms/pkg/symbols"
)

func TestAllocate(t *testing.T) {
	env := symbols.New()
	env.EnterLocal()

	tests := []struct {
		Size   int64
		Align  int64
		Offset int64
	}{
		{1, 1, 0},
		{2, 2, 2},
		{4, 4, 4},
		{1, 1, 8},
		{4, 4, 12},
		{3, 1, 16},
		{2, 2, 20},
	}

	for _, test := range tests {
		if have := env.Allocate(test.Size, test.Align); have != test.Offset {
			t.Fatalf(
				"Allocate(%d, %d)\nwant:%d\nhave:%d",
				test.Size,
				test.Align,
				test.Offset,
				have,
			)
		}
	}

	if have := env.LocalBytes(); have != 22 {
		t.Fatalf("LocalBytes\nwant:22\nhave:%d", have)
	}

	if have := env.GlobalBytes(); have != 0 {
		t.Fatalf("GlobalBytes\nwant:0\nhave:%d", have)
	}

	if have := env.AllocateGlobal(4, 4); have != 0 {
		t.Fatalf("AllocateGlobal\nwant:0\nhave:%d", have)
	}

	env.ExitLocal()

	if have := env.Allocate(2, 2); have != 4 {
		t.Fatalf("Allocate after ExitLocal\nwant:4\nhave:%d", have)
	}

	env.EnterLocal()

	if have := env.LocalBytes(); have != 0 {
		t.Fatalf("LocalBytes of a new scope\nwant:0\nhave:%d", have)
	}
}

func TestDeclare(t *testing.T) {
	env := symbols.New()

	if err := env.Declare(&symbols.Symbol{Name: "x", Kind: symbols.KIND_GLOBAL}); err != nil {
		t.Fatal(err)
	}

	err := env.Declare(&symbols.Symbol{Name: "x", Kind: symbols.KIND_DEFINE})

	if !errors.Is(err, symbols.ErrRedeclared) {
		t.Fatalf("Redeclared global\nwant:%v\nhave:%v", symbols.ErrRedeclared, err)
	}

	env.EnterLocal()

	if !env.InLocal() {
		t.Fatal("InLocal after EnterLocal")
	}

	shadow := &symbols.Symbol{Name: "x", Kind: symbols.KIND_LOCAL, Offset: 3}

	if err := env.Declare(shadow); err != nil {
		t.Fatalf("Shadowing a global: %v", err)
	}

	if sym, _ := env.Lookup("x"); sym != shadow {
		t.Fatalf("Lookup prefers the local\nwant:%v\nhave:%v", shadow, sym)
	}

	if sym, _ := env.LookupGlobal("x"); sym.Kind != symbols.KIND_GLOBAL {
		t.Fatalf("LookupGlobal\nwant:global\nhave:%s", sym.Kind)
	}

	err = env.Declare(&symbols.Symbol{Name: "x", Kind: symbols.KIND_LABEL})

	if !errors.Is(err, symbols.ErrRedeclared) {
		t.Fatalf("Redeclared local\nwant:%v\nhave:%v", symbols.ErrRedeclared, err)
	}

	if err := env.DeclareGlobal(&symbols.Symbol{Name: "y", Kind: symbols.KIND_GLOBAL}); err != nil {
		t.Fatal(err)
	}

	env.ExitLocal()

	if sym, _ := env.Lookup("x"); sym.Kind != symbols.KIND_GLOBAL {
		t.Fatalf("Local survived ExitLocal: %v", sym)
	}

	if _, exists := env.Lookup("y"); !exists {
		t.Fatal("Global declared from a local scope was lost")
	}

	if _, exists := env.Lookup("z"); exists {
		t.Fatal("Lookup found an undeclared name")
	}
}

func TestKind(t *testing.T) {
	if !symbols.KIND_LOCAL.Variable() || symbols.KIND_LABEL.Variable() {
		t.Fatal("Kind.Variable")
	}

	if !symbols.KIND_SUBCALL.Object() || symbols.KIND_ENUM.Object() {
		t.Fatal("Kind.Object")
	}

	if have := symbols.KIND_THREAD.String(); have != "vmthread" {
		t.Fatalf("Kind.String\nwant:vmthread\nhave:%s", have)
	}
}
