package synth

import "strings"

// PortRole classifies a Sequential block's port by the standardized
// name prefixes emitters recognize: the trigger clock, the data
// inputs/outputs, and condition-bearing control signals.
type PortRole int

const (
	RoleUnknown PortRole = iota
	RoleTrigger
	RoleInput
	RoleOutput
	RoleCondition
)

// conditionNames are the literal control-signal names recognized
// verbatim, in addition to the "_cond" prefix.
var conditionNames = map[string]bool{
	"greaterThan": true,
	"lessThan":    true,
	"equal":       true,
}

// ClassifyPort names the role of a Sequential block's port from its
// name alone: the standardized prefixes _trigger, _in, _out and _cond,
// plus the condition-bearing names greaterThan, lessThan and equal.
func ClassifyPort(name string) PortRole {
	switch {
	case strings.HasPrefix(name, "_trigger"):
		return RoleTrigger
	case strings.HasPrefix(name, "_in"):
		return RoleInput
	case strings.HasPrefix(name, "_out"):
		return RoleOutput
	case strings.HasPrefix(name, "_cond"), conditionNames[name]:
		return RoleCondition
	default:
		return RoleUnknown
	}
}

// SequentialShape is the port-name inventory an emitter extracts from an
// elaborated Sequential block before deciding how to synthesize it.
type SequentialShape struct {
	Triggers   []string
	Inputs     []string
	Outputs    []string
	Conditions []string
}

// ClassifyShape buckets a flat port name list into a SequentialShape.
func ClassifyShape(portNames []string) SequentialShape {
	var shape SequentialShape
	for _, name := range portNames {
		switch ClassifyPort(name) {
		case RoleTrigger:
			shape.Triggers = append(shape.Triggers, name)
		case RoleInput:
			shape.Inputs = append(shape.Inputs, name)
		case RoleOutput:
			shape.Outputs = append(shape.Outputs, name)
		case RoleCondition:
			shape.Conditions = append(shape.Conditions, name)
		}
	}
	return shape
}

// IsSimpleFlop reports whether shape matches the direct-to-dff case:
// exactly one trigger, one input, one output, and no condition signals.
func (s SequentialShape) IsSimpleFlop() bool {
	return len(s.Triggers) == 1 && len(s.Inputs) == 1 && len(s.Outputs) == 1 && len(s.Conditions) == 0
}

// CellInstance is one primitive cell an emitter should instantiate as
// part of decomposing a Sequential block.
type CellInstance struct {
	Class      string
	Descriptor *Descriptor
}

// Decompose resolves shape to the sequence of primitive cells an emitter
// should instantiate: a bare "dff" for the simple one-trigger/one-in/
// one-out case, or one "mux" per condition signal feeding a trailing
// "dff" otherwise.
func (t *DescriptorTable) Decompose(shape SequentialShape) ([]CellInstance, error) {
	flop, ok := t.Lookup("FLOP", "")
	if !ok {
		return nil, errNoBuiltin("FLOP")
	}

	if shape.IsSimpleFlop() {
		return []CellInstance{{Class: "FLOP", Descriptor: flop}}, nil
	}

	mux, ok := t.Lookup("MUX", "")
	if !ok {
		return nil, errNoBuiltin("MUX")
	}

	cells := make([]CellInstance, 0, len(shape.Conditions)+1)
	for range shape.Conditions {
		cells = append(cells, CellInstance{Class: "MUX", Descriptor: mux})
	}
	cells = append(cells, CellInstance{Class: "FLOP", Descriptor: flop})
	return cells, nil
}

type missingBuiltinError struct{ class string }

func (e *missingBuiltinError) Error() string {
	return "synth: no builtin descriptor registered for " + e.class
}

func errNoBuiltin(class string) error { return &missingBuiltinError{class: class} }
