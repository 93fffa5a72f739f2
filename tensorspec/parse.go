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

package tensorspec

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vespa-engine/vespa-sub064/valuetype"
)

type parser struct {
	src  string
	pos  int
	typ  *valuetype.Type
	spec *Spec
}

func (p *parser) errorf(format string, a ...any) error {
	return errors.Wrapf(errors.Errorf(format, a...), "invalid tensor literal %q at position %d", p.src, p.pos)
}

func (p *parser) peek() byte {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
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

func (p *parser) number() (float64, error) {
	p.peek()
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(",]} \t\r\n", p.src[p.pos]) < 0 {
		p.pos++
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, p.errorf("invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}

func (p *parser) word() (string, error) {
	if p.peek() == '"' || p.peek() == '\'' {
		quote := p.src[p.pos]
		end := p.pos + 1
		for end < len(p.src) && p.src[end] != quote {
			if p.src[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(p.src) {
			return "", p.errorf("unterminated label")
		}
		raw := p.src[p.pos : end+1]
		p.pos = end + 1
		if quote == '\'' {
			raw = `"` + strings.ReplaceAll(raw[1:len(raw)-1], `"`, `\"`) + `"`
		}
		s, err := strconv.Unquote(raw)
		if err != nil {
			return "", p.errorf("invalid quoted label %s", raw)
		}
		return s, nil
	}
	start := p.pos
	for p.pos < len(p.src) && isLabelRune(rune(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return "", p.errorf("expected a label")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) label(dim valuetype.Dimension) (Label, error) {
	w, err := p.word()
	if err != nil {
		return Label{}, err
	}
	if dim.IsMapped() {
		return Lbl(w), nil
	}
	i, err := strconv.Atoi(w)
	if err != nil || i < 0 || i >= dim.Size {
		return Label{}, p.errorf("invalid index %q for dimension %s", w, dim)
	}
	return Idx(i), nil
}

func (p *parser) address() (Address, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	addr := Address{}
	for p.peek() != '}' {
		if len(addr) > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		name, err := p.word()
		if err != nil {
			return nil, err
		}
		dim, ok := p.typ.Dimension(name)
		if !ok {
			return nil, p.errorf("unknown dimension %s", name)
		}
		if _, dup := addr[name]; dup {
			return nil, p.errorf("dimension %s is repeated", name)
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		if addr[name], err = p.label(dim); err != nil {
			return nil, err
		}
	}
	p.pos++
	if len(addr) != p.typ.NumDims() {
		return nil, p.errorf("address %s does not have all the dimensions of %s", addr, p.typ)
	}
	return addr, nil
}

func (p *parser) verbose() error {
	if err := p.expect('{'); err != nil {
		return err
	}
	for i := 0; p.peek() != '}'; i++ {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return err
			}
		}
		addr, err := p.address()
		if err != nil {
			return err
		}
		if err := p.expect(':'); err != nil {
			return err
		}
		v, err := p.number()
		if err != nil {
			return err
		}
		p.spec.Add(addr, v)
	}
	p.pos++
	return nil
}

func (p *parser) denseBlock(base Address) error {
	indexed := p.typ.IndexedDims()
	pos := make([]int, len(indexed))
	var rec func(axis int) error
	rec = func(axis int) error {
		if axis == len(indexed) {
			v, err := p.number()
			if err != nil {
				return err
			}
			addr := Address{}
			for k, l := range base {
				addr[k] = l
			}
			for i, dim := range indexed {
				addr[dim.Name] = Idx(pos[i])
			}
			p.spec.Add(addr, v)
			return nil
		}
		if err := p.expect('['); err != nil {
			return err
		}
		for i := range indexed[axis].Size {
			if i > 0 {
				if err := p.expect(','); err != nil {
					return err
				}
			}
			pos[axis] = i
			if err := rec(axis + 1); err != nil {
				return err
			}
		}
		return p.expect(']')
	}
	return rec(0)
}

func (p *parser) singleMapped() error {
	dim := p.typ.MappedDims()[0]
	if err := p.expect('{'); err != nil {
		return err
	}
	for i := 0; p.peek() != '}'; i++ {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return err
			}
		}
		l, err := p.label(dim)
		if err != nil {
			return err
		}
		if err := p.expect(':'); err != nil {
			return err
		}
		addr := Address{dim.Name: l}
		if p.typ.IsSparse() {
			v, err := p.number()
			if err != nil {
				return err
			}
			p.spec.Add(addr, v)
			continue
		}
		if err := p.denseBlock(addr); err != nil {
			return err
		}
	}
	p.pos++
	return nil
}

// isVerbose returns true if the body at the current position is a list
// of cells with full addresses.
func (p *parser) isVerbose() bool {
	if p.peek() != '{' {
		return false
	}
	save := p.pos
	p.pos++
	next := p.peek()
	p.pos = save
	return next == '{' || next == '}'
}

func (p *parser) body() error {
	switch {
	case p.isVerbose():
		return p.verbose()
	case p.typ.IsDouble():
		v, err := p.number()
		if err != nil {
			return err
		}
		p.spec.Add(Address{}, v)
		return nil
	case p.typ.IsDense():
		return p.denseBlock(Address{})
	case p.typ.CountMappedDims() == 1:
		return p.singleMapped()
	}
	return p.errorf("a tensor with more than one mapped dimension requires full addresses")
}

// Parse a tensor literal of the form type:body.
//
// The body is either a list of cells with full addresses,
// {{x:a,y:0}:1,{x:a,y:1}:2}, a nested array for dense tensors, [[1,2],[3,4]],
// a map from labels to cells or dense blocks for tensors with a single mapped
// dimension, {a:[1,2],b:[3,4]}, or a number for doubles.
func Parse(src string) (*Spec, error) {
	sep := strings.IndexByte(src, ':')
	if sep < 0 {
		return nil, errors.Errorf("invalid tensor literal %q: missing type", src)
	}
	typ, err := valuetype.Parse(src[:sep])
	if err != nil {
		return nil, err
	}
	if typ.IsError() {
		return nil, errors.Errorf("invalid tensor literal %q: error type", src)
	}
	p := &parser{src: src, pos: sep + 1, typ: typ, spec: New(typ.String())}
	if err := p.body(); err != nil {
		return nil, err
	}
	if p.peek() != 0 {
		return nil, p.errorf("unexpected trailing characters")
	}
	return p.spec, nil
}

// MustParse parses a tensor literal and panics on error.
func MustParse(src string) *Spec {
	spec, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return spec
}
