// Package synth implements the primitive descriptor interface consumed by
// HDL/schematic emitters: for each built-in module class, a
// Descriptor maps the class's logical port names onto the target
// language's primitive cell port names, derives parameters (widths,
// offsets) from the ports actually present, and records each port's
// direction. An emitter looks a module up by its built-in module type
// (NOT, AND2, ...) first and falls back to an exact match of its
// definitionName against overrides supplied through
// DescriptorTable.RegisterOverride or DescriptorTable.LoadOverrides.
package synth

import "regexp"

// PortRule names how a Descriptor's logical port maps onto the primitive
// cell's actual port name: Literal names it exactly, or Pattern matches
// (and the first capture group of) a regex against the Sig's own name
// when Literal is empty.
type PortRule struct {
	Literal string
	Pattern *regexp.Regexp
}

// Resolve returns the primitive port name for a hardware signal named
// sigName, given this rule.
func (r PortRule) Resolve(sigName string) (string, bool) {
	if r.Literal != "" {
		return r.Literal, true
	}
	if r.Pattern == nil {
		return "", false
	}
	m := r.Pattern.FindStringSubmatch(sigName)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// Direction is a primitive cell port's signal direction, matching the
// vocabulary hwmod.Mod already uses for input/output/inout.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
	DirInOut
)

// Param is a single derived parameter (a bit width, a slice offset, a
// replication count) an emitter substitutes into the primitive's
// instantiation template.
type Param struct {
	Name  string
	Value int
}

// Descriptor is the synthesized metadata for one built-in module class.
type Descriptor struct {
	// Primitive is the target-language cell name ("and2_cell", "dff", ...).
	Primitive string

	// PortMap maps this class's logical port name (the name the Go
	// builder uses, e.g. "a", "b", "y") to the rule an emitter resolves
	// against the actual Sig name to get the primitive's port name.
	PortMap map[string]PortRule

	// Directions records each logical port's direction.
	Directions map[string]Direction

	// DeriveParams computes the primitive's instantiation parameters
	// (widths, offsets, multipliers) from the actual port widths an
	// emitter observed on the elaborated module, keyed by logical port
	// name the same way PortMap and Directions are.
	DeriveParams func(portWidths map[string]int) []Param
}

func literal(name string) PortRule { return PortRule{Literal: name} }

// widthParams is the common case: one parameter per port, named
// "<port>Width", taken straight from the observed width.
func widthParams(ports ...string) func(map[string]int) []Param {
	return func(widths map[string]int) []Param {
		out := make([]Param, 0, len(ports))
		for _, p := range ports {
			out = append(out, Param{Name: p + "Width", Value: widths[p]})
		}
		return out
	}
}
