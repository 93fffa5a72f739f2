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
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vespa-engine/vespa-sub064/valuetype"
	"gopkg.in/yaml.v3"
)

type (
	yamlCell struct {
		Address map[string]string `yaml:"address,omitempty,flow"`
		Value   float64           `yaml:"value"`
	}

	// yamlSpec is the YAML encoding of a spec.
	// A spec is given either as a literal or as a type and a list of cells.
	yamlSpec struct {
		Literal string     `yaml:"literal,omitempty"`
		Type    string     `yaml:"type,omitempty"`
		Cells   []yamlCell `yaml:"cells,omitempty"`
	}
)

var (
	_ yaml.Marshaler   = (*Spec)(nil)
	_ yaml.Unmarshaler = (*Spec)(nil)
)

// MarshalYAML encodes a spec as a type and a list of cells sorted by address.
func (s *Spec) MarshalYAML() (any, error) {
	ys := yamlSpec{Type: s.typ}
	for _, c := range s.Cells() {
		yc := yamlCell{Value: c.Value}
		if len(c.Address) > 0 {
			yc.Address = make(map[string]string, len(c.Address))
			for dim, l := range c.Address {
				if l.IsMapped() {
					yc.Address[dim] = l.Name
				} else {
					yc.Address[dim] = strconv.Itoa(l.Index)
				}
			}
		}
		ys.Cells = append(ys.Cells, yc)
	}
	return ys, nil
}

// UnmarshalYAML decodes a spec given either as a literal or as a type and
// a list of cells.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	var ys yamlSpec
	if err := node.Decode(&ys); err != nil {
		return err
	}
	if ys.Literal != "" {
		spec, err := Parse(ys.Literal)
		if err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		*s = *spec
		return nil
	}
	typ, err := valuetype.Parse(ys.Type)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	*s = *New(typ.String())
	for _, yc := range ys.Cells {
		addr := Address{}
		for name, label := range yc.Address {
			dim, ok := typ.Dimension(name)
			if !ok {
				return errors.Errorf("line %d: unknown dimension %s in %s", node.Line, name, typ)
			}
			if dim.IsMapped() {
				addr[name] = Lbl(label)
				continue
			}
			idx, err := strconv.Atoi(label)
			if err != nil || idx < 0 || idx >= dim.Size {
				return errors.Errorf("line %d: invalid index %q for dimension %s", node.Line, label, dim)
			}
			addr[name] = Idx(idx)
		}
		if len(addr) != typ.NumDims() {
			return errors.Errorf("line %d: address %s does not have all the dimensions of %s", node.Line, addr, typ)
		}
		s.Add(addr, yc.Value)
	}
	return nil
}

// ParseFixtures parses a YAML document mapping names to specs.
func ParseFixtures(data []byte) (map[string]*Spec, error) {
	fixtures := make(map[string]*Spec)
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, errors.Wrap(err, "cannot parse tensor fixtures")
	}
	return fixtures, nil
}

// LoadFixtures reads a YAML file mapping names to specs.
func LoadFixtures(path string) (map[string]*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read tensor fixtures")
	}
	return ParseFixtures(data)
}
