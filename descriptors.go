package observe

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Descriptor describes one registered property for introspection and
// documentation tooling.
type Descriptor struct {
	Name     string `json:"name"`
	Doc      string `json:"doc,omitempty"`
	Default  any    `json:"default,omitempty"`
	Type     string `json:"type,omitempty"`
	ReadOnly bool   `json:"read_only"`
	Accessor bool   `json:"accessor"`
}

// DescriptorDocument bundles the descriptors of one owner type.
type DescriptorDocument struct {
	Type       string       `json:"type"`
	Properties []Descriptor `json:"properties"`
}

// Descriptors returns one descriptor per registered property, in declaration
// order.
func (m *Manifest[O]) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(m.order))
	for _, name := range m.order {
		p := m.props[name]
		d := Descriptor{
			Name:     p.name,
			Doc:      p.doc,
			Default:  p.def,
			ReadOnly: p.ReadOnly(),
			Accessor: p.getter != nil,
		}
		if p.def != nil {
			d.Type = fmt.Sprintf("%T", p.def)
		}
		out = append(out, d)
	}
	return out
}

// Document bundles the manifest's descriptors with the owner type name.
func (m *Manifest[O]) Document() DescriptorDocument {
	return DescriptorDocument{
		Type:       reflect.TypeFor[O]().String(),
		Properties: m.Descriptors(),
	}
}

// ToJSON renders the document as indented JSON.
func (d DescriptorDocument) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
