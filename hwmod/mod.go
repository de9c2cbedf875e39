// Package hwmod implements Mod, the structural composition unit: a
// module declares input/output/inout ports, owns child modules, and has
// a build lifecycle that finalizes connectivity and enforces that its
// logic only consumes registered ports.
package hwmod

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sarchlab/rohdgo/rohderr"
	"github.com/sarchlab/rohdgo/wire"
)

// Mod is a structural module: a named instance of a named definition,
// with a fixed port set and a set of child modules.
type Mod struct {
	mu sync.Mutex

	name           string
	definitionName string
	reserveName    bool
	reserveDefName bool

	inputs  map[string]*wire.Sig
	outputs map[string]*wire.Sig
	inouts  map[string]*wire.Sig

	internal []*wire.Sig

	children []*Mod

	reservedNames map[string]bool

	built bool

	// asyncSetup, if set, runs during Build and may perform
	// wall-clock-bound external setup.
	asyncSetup func(context.Context) error
}

// New creates an unbuilt module instance named `name` of definition type
// `definitionName`.
func New(name, definitionName string) *Mod {
	return &Mod{
		name:           name,
		definitionName: definitionName,
		inputs:         map[string]*wire.Sig{},
		outputs:        map[string]*wire.Sig{},
		inouts:         map[string]*wire.Sig{},
		reservedNames:  map[string]bool{},
	}
}

// OwnerName implements wire.Owner.
func (m *Mod) OwnerName() string { return m.name }

// Name returns the instance name.
func (m *Mod) Name() string { return m.name }

// DefinitionName returns the emitted type name.
func (m *Mod) DefinitionName() string { return m.definitionName }

// ReserveName forbids uniquification of the instance name by emitters.
func (m *Mod) ReserveName() { m.reserveName = true }

// ReserveDefinitionName forbids uniquification of the definition name.
func (m *Mod) ReserveDefinitionName() { m.reserveDefName = true }

// NameReserved reports whether ReserveName was called.
func (m *Mod) NameReserved() bool { return m.reserveName }

// DefinitionNameReserved reports whether ReserveDefinitionName was called.
func (m *Mod) DefinitionNameReserved() bool { return m.reserveDefName }

// SetAsyncSetup registers a hook run once during Build, after children
// are built and before the topology check, that may block on external
// (wall-clock) setup. Build propagates ctx to it and fails if it errors.
func (m *Mod) SetAsyncSetup(f func(context.Context) error) { m.asyncSetup = f }

// AddChild registers a submodule whose outputs/inouts become visible to
// this module's topology checks.
func (m *Mod) AddChild(child *Mod) { m.children = append(m.children, child) }

// Children returns the registered submodules.
func (m *Mod) Children() []*Mod { return append([]*Mod(nil), m.children...) }

// AddInput declares an input port. If driver is non-nil it is wired
// immediately; the returned Sig is the one internal logic must read (and
// must never drive — any such attempt is rejected as a re-drive of an
// already-driven/locked signal). Width must equal driver's width when
// driver is non-nil.
func (m *Mod) AddInput(name string, driver *wire.Sig, width int) (*wire.Sig, error) {
	if _, exists := m.inputs[name]; exists {
		return nil, rohderr.New(rohderr.KindDuplicateReservedName, "input %q already declared", name)
	}
	in := wire.New(name, width)
	in.SetOwner(m)
	if driver != nil {
		if err := in.Drive(driver); err != nil {
			return nil, err
		}
	}
	in.Lock()
	m.inputs[name] = in
	return in, nil
}

// AddOutput declares an output port. The returned Sig is both the one
// internal logic drives and the one external callers read or use as
// another module's input driver.
func (m *Mod) AddOutput(name string, width int) (*wire.Sig, error) {
	if _, exists := m.outputs[name]; exists {
		return nil, rohderr.New(rohderr.KindDuplicateReservedName, "output %q already declared", name)
	}
	out := wire.New(name, width)
	out.SetOwner(m)
	m.outputs[name] = out
	return out, nil
}

// AddInOut declares a bidirectional net port. If driver is non-nil it is
// wired as one of the net's drivers; internal logic may also drive it
// (nets accept multiple drivers and resolve via tri-state merge).
func (m *Mod) AddInOut(name string, driver *wire.Sig, width int) (*wire.Sig, error) {
	if _, exists := m.inouts[name]; exists {
		return nil, rohderr.New(rohderr.KindDuplicateReservedName, "inout %q already declared", name)
	}
	io := wire.NewNet(name, width)
	io.SetOwner(m)
	if driver != nil {
		if err := io.Drive(driver); err != nil {
			return nil, err
		}
	}
	m.inouts[name] = io
	return io, nil
}

// AddInterfacePorts instantiates every port named by a cloned Interface,
// treating tags in inputTags as inputs and tags in outputTags as
// outputs, and returns the internal Sig for each by name. Fails
// InterfaceNotCloned if intf was not produced by Interface.Clone.
func (m *Mod) AddInterfacePorts(intf *Interface, inputTags, outputTags []DirTag) (map[string]*wire.Sig, error) {
	if err := requireCloned(intf); err != nil {
		return nil, err
	}
	result := map[string]*wire.Sig{}
	for _, tag := range inputTags {
		for _, d := range intf.Ports(tag) {
			s, err := m.AddInput(d.Name, nil, d.Width)
			if err != nil {
				return nil, err
			}
			result[d.Name] = s
		}
	}
	for _, tag := range outputTags {
		for _, d := range intf.Ports(tag) {
			s, err := m.AddOutput(d.Name, d.Width)
			if err != nil {
				return nil, err
			}
			result[d.Name] = s
		}
	}
	return result, nil
}

// NewInternalSig creates a width-bit signal owned by this module, for use
// entirely within its own logic (never exposed as a port).
func (m *Mod) NewInternalSig(name string, width int) *wire.Sig {
	s := wire.New(name, width)
	s.SetOwner(m)
	m.internal = append(m.internal, s)
	return s
}

// NewInternalNet is NewInternalSig for a multi-driver net.
func (m *Mod) NewInternalNet(name string, width int) *wire.Sig {
	s := wire.NewNet(name, width)
	s.SetOwner(m)
	m.internal = append(m.internal, s)
	return s
}

// ReserveSignalName marks s as NamingReserved; the emitter must keep its
// name exactly, and a second reservation of the same name within this
// module fails DuplicateReservedName.
func (m *Mod) ReserveSignalName(s *wire.Sig) error {
	if m.reservedNames[s.Name()] {
		return rohderr.New(rohderr.KindDuplicateReservedName, "signal name %q reserved twice in module %q", s.Name(), m.name)
	}
	m.reservedNames[s.Name()] = true
	s.SetNaming(wire.NamingReserved)
	return nil
}

// Input, Output, InOut look up a previously declared port by name.
func (m *Mod) Input(name string) *wire.Sig  { return m.inputs[name] }
func (m *Mod) Output(name string) *wire.Sig { return m.outputs[name] }
func (m *Mod) InOut(name string) *wire.Sig  { return m.inouts[name] }

// Inputs, Outputs, InOuts return the full port maps (a defensive copy).
func (m *Mod) Inputs() map[string]*wire.Sig  { return cloneSigMap(m.inputs) }
func (m *Mod) Outputs() map[string]*wire.Sig { return cloneSigMap(m.outputs) }
func (m *Mod) InOuts() map[string]*wire.Sig  { return cloneSigMap(m.inouts) }

func cloneSigMap(in map[string]*wire.Sig) map[string]*wire.Sig {
	out := make(map[string]*wire.Sig, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Built reports whether Build has completed successfully.
func (m *Mod) Built() bool { return m.built }

// Build recursively builds every submodule, runs any registered async
// setup hook, then verifies that every output (and inout) is reachable,
// tracing backward through drive edges, only from this module's own
// internal signals, its registered inputs, or a registered submodule's
// outputs/inouts. Build is idempotent: calling it again after success is
// a no-op; calling Build concurrently with, or after, a failed attempt is
// not supported.
func (m *Mod) Build(ctx context.Context) error {
	if m.built {
		return nil
	}
	slog.Debug("building module", "name", m.name, "definition", m.definitionName, "children", len(m.children))

	for _, c := range m.children {
		if err := c.Build(ctx); err != nil {
			return err
		}
	}

	if m.asyncSetup != nil {
		if err := m.asyncSetup(ctx); err != nil {
			return err
		}
	}

	for name, out := range m.outputs {
		if !m.portIsSourced(out) {
			slog.Warn("illegal topology at build", "module", m.name, "output", name)
			return rohderr.New(rohderr.KindIllegalTopology, "output %q of module %q is driven by a signal not registered to this module", name, m.name)
		}
	}
	for name, io := range m.inouts {
		if !m.portIsSourced(io) {
			slog.Warn("illegal topology at build", "module", m.name, "inout", name)
			return rohderr.New(rohderr.KindIllegalTopology, "inout %q of module %q is driven by a signal not registered to this module", name, m.name)
		}
	}

	m.built = true
	return nil
}

// portIsSourced checks an output/inout port's own driver chain, not the
// port node itself: the port is always owned by m (AddOutput/AddInOut
// call SetOwner(m)), so starting isReachableSource on the port would
// short-circuit true before ever looking at what drives it. Tracing
// from port.Driver()/Drivers() instead means an unconnected or
// stray-foreign-signal-driven port is correctly rejected.
func (m *Mod) portIsSourced(port *wire.Sig) bool {
	visited := map[*wire.Sig]bool{port: true}
	if d := port.Driver(); d != nil {
		return m.isReachableSource(d, visited)
	}
	if drivers := port.Drivers(); len(drivers) > 0 {
		for _, dr := range drivers {
			if !m.isReachableSource(dr, visited) {
				return false
			}
		}
		return true
	}
	return false
}

// isReachableSource reports whether s is legally reachable from this
// module's own signals: it is owned by this module (an input or an
// internal signal), or it is a registered submodule's output/inout, or
// every one of its own drivers is in turn reachable. Callers must not
// invoke this directly on an output/inout port itself -- use
// portIsSourced, which traces from the port's driver so the ownership
// check below doesn't rubber-stamp the port against its own name.
func (m *Mod) isReachableSource(s *wire.Sig, visited map[*wire.Sig]bool) bool {
	if visited[s] {
		return true
	}
	visited[s] = true

	if s.Owner() == wire.Owner(m) {
		return true
	}
	for _, child := range m.children {
		if child.outputs[s.Name()] == s || child.inouts[s.Name()] == s {
			return true
		}
	}

	if d := s.Driver(); d != nil {
		return m.isReachableSource(d, visited)
	}
	if drivers := s.Drivers(); len(drivers) > 0 {
		for _, dr := range drivers {
			if !m.isReachableSource(dr, visited) {
				return false
			}
		}
		return true
	}
	return false
}

// MustBuilt returns ModuleNotBuilt if the module has not yet been built;
// callers that require a finalized module tree (simulation, emission)
// should check this first.
func (m *Mod) MustBuilt() error {
	if !m.built {
		return rohderr.New(rohderr.KindModuleNotBuilt, "module %q has not been built", m.name)
	}
	return nil
}
