// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package palette assigns stable colours to category labels.
package palette

// Colors is the fixed categorical palette, cycled in order.
var Colors = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Fixed colours for overlays.
const (
	AllColor      = "#0000ff"
	TrackedColor  = "#ff0000"
	DiagonalColor = "#000000"
	BestFitColor  = "#ff0000"
)

// Assigner maps labels to palette colours in first-seen order. Once a
// label has a colour it keeps it for the life of the Assigner, so colours
// stay stable across re-plots in one session. An Assigner is not safe for
// concurrent use.
type Assigner struct {
	colors map[string]string
	order  []string
}

// NewAssigner returns an empty Assigner.
func NewAssigner() *Assigner {
	return &Assigner{colors: make(map[string]string)}
}

// Assign gives every label not yet seen the next palette colour, in the
// order given. Labels already assigned are left alone.
func (a *Assigner) Assign(labels ...string) {
	for _, l := range labels {
		if _, ok := a.colors[l]; ok {
			continue
		}
		a.colors[l] = Colors[len(a.order)%len(Colors)]
		a.order = append(a.order, l)
	}
}

// Color returns the colour of label, assigning one first if needed.
func (a *Assigner) Color(label string) string {
	a.Assign(label)
	return a.colors[label]
}

// Lookup returns the colour of label without assigning.
func (a *Assigner) Lookup(label string) (string, bool) {
	c, ok := a.colors[label]
	return c, ok
}

// Labels returns the assigned labels in assignment order.
func (a *Assigner) Labels() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}
