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

package bytecode

import (
	_ "embed"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed bytecodes.yml
var defaultSource []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

type entry struct {
	Value  int      `yaml:"value"`
	Params []string `yaml:"params"`
}

type document struct {
	Families map[string]map[string]entry `yaml:"families"`
	Ops      map[string]entry            `yaml:"ops"`
	Enums    map[string]int64            `yaml:"enums"`
}

// Default returns the table built into the binary. It is parsed and
// validated once; the result is shared and must not be modified.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(defaultSource)
		defaultErr = errors.Wrap(defaultErr, "builtin bytecodes.yml")
	})

	return defaultTable, defaultErr
}

func Load(r io.Reader) (*Table, error) {
	b, err := io.ReadAll(r)

	if err != nil {
		return nil, errors.Wrap(err, "reading descriptor table")
	}

	return Parse(b)
}

func Parse(b []byte) (*Table, error) {
	var doc document

	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding descriptor table")
	}

	table := &Table{
		Ops:      make(map[string]*Op, len(doc.Ops)),
		ByCode:   make(map[byte]*Op, len(doc.Ops)),
		Families: make(map[string]*Family, len(doc.Families)),
		Enums:    make(map[string]int64, len(doc.Enums)),
	}

	// Families
	// - Sub-operation signatures may not select another family
	for _, name := range sortedKeys(doc.Families) {
		family := &Family{
			Name:     name,
			Subcodes: make(map[string]*Subcode),
			ByValue:  make(map[byte]*Subcode),
		}

		subcodes := doc.Families[name]

		for _, subname := range sortedKeys(subcodes) {
			owner := name + "." + subname
			e := subcodes[subname]

			if e.Value < 0 || e.Value > 0xFF {
				return nil, &OversizedValueError{owner, e.Value}
			}

			if existing, exists := family.ByValue[byte(e.Value)]; exists {
				return nil, &DuplicateValueError{owner, e.Value, existing.Name}
			}

			params, err := parseParams(owner, e.Params, doc.Families, nil)

			if err != nil {
				return nil, err
			}

			sub := &Subcode{Name: subname, Value: byte(e.Value), Params: params}
			family.Subcodes[subname] = sub
			family.ByValue[sub.Value] = sub
		}

		table.Families[name] = family
	}

	// Operations
	for _, name := range sortedKeys(doc.Ops) {
		e := doc.Ops[name]

		if e.Value < 0 || e.Value > 0xFF {
			return nil, &OversizedValueError{name, e.Value}
		}

		if existing, exists := table.ByCode[byte(e.Value)]; exists {
			return nil, &DuplicateValueError{name, e.Value, existing.Name}
		}

		params, err := parseParams(name, e.Params, doc.Families, table.Families)

		if err != nil {
			return nil, err
		}

		op := &Op{Name: name, Code: byte(e.Value), Params: params}
		table.Ops[name] = op
		table.ByCode[op.Code] = op
	}

	for name, value := range doc.Enums {
		table.Enums[name] = value
	}

	return table, nil
}

// Op looks up an operation by mnemonic.
func (table *Table) Op(name string) (*Op, bool) {
	op, exists := table.Ops[name]
	return op, exists
}

func (table *Table) OpByCode(code byte) (*Op, bool) {
	op, exists := table.ByCode[code]
	return op, exists
}

func (table *Table) Enum(name string) (int64, bool) {
	value, exists := table.Enums[name]
	return value, exists
}

// Sorted returns every operation ordered by opcode.
func (table *Table) Sorted() []*Op {
	ops := make([]*Op, 0, len(table.Ops))

	for _, op := range table.Ops {
		ops = append(ops, op)
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Code < ops[j].Code
	})

	return ops
}

// Sorted returns the family's sub-operations ordered by value.
func (family *Family) Sorted() []*Subcode {
	subs := make([]*Subcode, 0, len(family.Subcodes))

	for _, sub := range family.Subcodes {
		subs = append(subs, sub)
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Value < subs[j].Value
	})

	return subs
}

// parseParams resolves parameter names against the closed kind set. A nil
// families map means selector slots are not allowed.
func parseParams(
	owner string,
	names []string,
	declared map[string]map[string]entry,
	families map[string]*Family,
) ([]Param, error) {
	params := make([]Param, 0, len(names))

	for _, name := range names {
		if kind, exists := paramNames[name]; exists {
			params = append(params, Param{Kind: kind})
			continue
		}

		if _, exists := declared[name]; exists {
			if families == nil {
				return nil, &InvalidSignatureError{
					owner, "sub-operations cannot select family " + name,
				}
			}

			params = append(params, Param{Kind: SUBP, Family: families[name]})
			continue
		}

		return nil, &UnknownParamError{owner, name}
	}

	if err := checkSignature(owner, params); err != nil {
		return nil, err
	}

	return params, nil
}

func checkSignature(owner string, params []Param) error {
	last := len(params) - 1

	for i, p := range params {
		switch p.Kind {
		case PARNO:
			if i != last {
				return &InvalidSignatureError{owner, "PARNO must be the last slot"}
			}

		case SUBP:
			if i != last {
				return &InvalidSignatureError{owner, "a selector must be the last slot"}
			}

		case PARVALUES:
			if i == 0 || !params[i-1].Kind.Integer() {
				return &InvalidSignatureError{
					owner, "PARVALUES must follow an integer count",
				}
			}

			if i == last {
				return &InvalidSignatureError{
					owner, "PARVALUES is missing its element kind",
				}
			}

			if elem := params[i+1].Kind; !elem.Integer() && elem != PARF {
				return &InvalidSignatureError{
					owner, "PARVALUES elements must be integers or floats",
				}
			}
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))

	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
