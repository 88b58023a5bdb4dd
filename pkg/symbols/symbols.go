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

// Package symbols holds the names visible to one assembly run: a global
// table that lives for the whole run and a local table that is replaced for
// every object.
package symbols

import (
	"errors"

	"github.com/lassandro/golms/pkg/bytecode"
)

type Kind uint

const (
	KIND_INVALID Kind = iota
	KIND_DEFINE
	KIND_GLOBAL
	KIND_LOCAL
	KIND_LABEL
	KIND_THREAD
	KIND_SUBCALL
	KIND_ENUM
)

func (kind Kind) String() string {
	switch kind {
	case KIND_DEFINE:
		return "define"
	case KIND_GLOBAL:
		return "global"
	case KIND_LOCAL:
		return "local"
	case KIND_LABEL:
		return "label"
	case KIND_THREAD:
		return "vmthread"
	case KIND_SUBCALL:
		return "subcall"
	case KIND_ENUM:
		return "enum"
	}

	return "<invalid>"
}

// Variable reports whether the symbol names storage.
func (kind Kind) Variable() bool {
	return kind == KIND_GLOBAL || kind == KIND_LOCAL
}

// Object reports whether the symbol names a code object.
func (kind Kind) Object() bool {
	return kind == KIND_THREAD || kind == KIND_SUBCALL
}

type Symbol struct {
	Name string
	Kind Kind

	// Literal text of a define, parsed again at every use
	Text string

	// Enum value or 1-based object index
	Value int64

	Offset int64
	Size   int64
	Format bytecode.DataFormat

	// Parameter count of a subcall
	Params int
}

var ErrRedeclared = errors.New("symbol already declared in this scope")

type Env struct {
	global map[string]*Symbol
	local  map[string]*Symbol

	globalBytes int64
	localBytes  int64
}

func New() *Env {
	return &Env{global: make(map[string]*Symbol)}
}

// InLocal reports whether an object scope is open.
func (env *Env) InLocal() bool {
	return env.local != nil
}

func (env *Env) EnterLocal() {
	env.local = make(map[string]*Symbol)
	env.localBytes = 0
}

func (env *Env) ExitLocal() {
	env.local = nil
	env.localBytes = 0
}

// Declare adds sym to the active scope. A local may shadow a global.
func (env *Env) Declare(sym *Symbol) error {
	if env.local != nil {
		return declare(env.local, sym)
	}

	return declare(env.global, sym)
}

func (env *Env) DeclareGlobal(sym *Symbol) error {
	return declare(env.global, sym)
}

func declare(scope map[string]*Symbol, sym *Symbol) error {
	if _, exists := scope[sym.Name]; exists {
		return ErrRedeclared
	}

	scope[sym.Name] = sym

	return nil
}

// Lookup searches the local scope first.
func (env *Env) Lookup(name string) (*Symbol, bool) {
	if env.local != nil {
		if sym, exists := env.local[name]; exists {
			return sym, true
		}
	}

	sym, exists := env.global[name]

	return sym, exists
}

// LookupGlobal ignores any local that shadows name.
func (env *Env) LookupGlobal(name string) (*Symbol, bool) {
	sym, exists := env.global[name]
	return sym, exists
}

// Allocate reserves size bytes in the active scope and returns their offset.
// Offsets only grow; align must be 1, 2 or 4.
func (env *Env) Allocate(size, align int64) int64 {
	if env.local != nil {
		return allocate(&env.localBytes, size, align)
	}

	return allocate(&env.globalBytes, size, align)
}

func (env *Env) AllocateGlobal(size, align int64) int64 {
	return allocate(&env.globalBytes, size, align)
}

func allocate(top *int64, size, align int64) int64 {
	if align > 1 {
		if rem := *top % align; rem != 0 {
			*top += align - rem
		}
	}

	offset := *top
	*top += size

	return offset
}

func (env *Env) GlobalBytes() int64 {
	return env.globalBytes
}

func (env *Env) LocalBytes() int64 {
	return env.localBytes
}
