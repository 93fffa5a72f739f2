// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package valuetype

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/vespa-engine/vespa-sub064/cell"
)

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) errorf(format string, a ...any) error {
	return errors.Wrapf(errors.Errorf(format, a...), "invalid type %q at position %d", p.src, p.pos)
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case !first && c >= '0' && c <= '9':
		return true
	}
	return false
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) number() (int, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected a dimension size")
	}
	return strconv.Atoi(p.src[start:p.pos])
}

func (p *parser) dimension() (Dimension, error) {
	name := p.ident()
	if name == "" {
		return Dimension{}, p.errorf("expected a dimension name")
	}
	switch p.peek() {
	case '{':
		p.pos++
		return Mapped(name), p.expect('}')
	case '[':
		p.pos++
		size, err := p.number()
		if err != nil {
			return Dimension{}, err
		}
		if size <= 0 {
			return Dimension{}, p.errorf("dimension %s has an invalid size %d", name, size)
		}
		return Indexed(name, size), p.expect(']')
	}
	return Dimension{}, p.errorf("expected '{' or '[' after dimension %s", name)
}

func (p *parser) dimensions() ([]Dimension, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var dims []Dimension
	if p.peek() == ')' {
		p.pos++
		return dims, nil
	}
	for {
		dim, err := p.dimension()
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return dims, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *parser) cellType() (cell.Type, error) {
	name := p.ident()
	ct, ok := cell.FromString(name)
	if !ok {
		return ct, p.errorf("unknown cell type %q", name)
	}
	return ct, nil
}

// cellTypeAlias parses the tensor(kind)(dims) form.
// It returns false without consuming the input if the alias is not used.
func (p *parser) cellTypeAlias() (cell.Type, bool) {
	start := p.pos
	if p.peek() != '(' {
		return cell.Double, false
	}
	p.pos++
	name := p.ident()
	ct, ok := cell.FromString(name)
	if ok && p.peek() == ')' {
		p.pos++
		if p.peek() == '(' {
			return ct, true
		}
	}
	p.pos = start
	return cell.Double, false
}

func (p *parser) tensorType() (*Type, error) {
	ct := cell.Double
	switch p.peek() {
	case '<':
		p.pos++
		var err error
		if ct, err = p.cellType(); err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
	default:
		if alias, ok := p.cellTypeAlias(); ok {
			ct = alias
		}
	}
	dims, err := p.dimensions()
	if err != nil {
		return nil, err
	}
	typ := Make(ct, dims)
	if typ.IsError() {
		return nil, p.errorf("invalid dimensions or cell type for %s", ct)
	}
	return typ, nil
}

// Parse parses a type specification.
//
// The grammar is:
//
//	double | error | tensor[<kind>](dim, ...) | tensor(kind)(dim, ...)
//
// where each dim is either name{} (mapped) or name[N] (indexed).
func Parse(src string) (*Type, error) {
	p := &parser{src: src}
	var typ *Type
	switch name := p.ident(); name {
	case "double":
		typ = Double()
	case "error":
		typ = Error()
	case "tensor":
		var err error
		if typ, err = p.tensorType(); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("unknown type %q", name)
	}
	if p.peek() != 0 {
		return nil, p.errorf("unexpected trailing characters")
	}
	return typ, nil
}

// FromSpec returns the type given its specification.
// The error type is returned if the specification is invalid.
func FromSpec(src string) *Type {
	typ, err := Parse(src)
	if err != nil {
		return Error()
	}
	return typ
}
