package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/polysphere/internal/field"
)

// Terms is a polynomial written as a list of [c, i, j] triples, one per
// monomial c·x^i·y^j.
type Terms []field.Term

func (t Terms) Poly() field.Poly {
	return field.Poly(t).Zap()
}

func (t *Terms) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: polynomial must be a list of [c, i, j] terms", node.Line)
	}
	out := make(Terms, 0, len(node.Content))
	for _, n := range node.Content {
		var triple []float64
		if err := n.Decode(&triple); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		if len(triple) != 3 {
			return fmt.Errorf("line %d: term needs [c, i, j], got %d values", n.Line, len(triple))
		}
		i, j := int(triple[1]), int(triple[2])
		if float64(i) != triple[1] || float64(j) != triple[2] || i < 0 || j < 0 {
			return fmt.Errorf("line %d: exponents must be non-negative integers", n.Line)
		}
		out = append(out, field.Term{C: triple[0], I: i, J: j})
	}
	*t = out
	return nil
}

func (t Terms) MarshalYAML() (interface{}, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, term := range t {
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		if err := n.Encode([]interface{}{term.C, term.I, term.J}); err != nil {
			return nil, err
		}
		n.Style = yaml.FlowStyle
		seq.Content = append(seq.Content, n)
	}
	return seq, nil
}
