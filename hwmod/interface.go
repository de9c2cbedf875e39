package hwmod

import "github.com/sarchlab/rohdgo/rohderr"

// DirTag names a group of ports within an Interface, e.g. "data",
// "control". Which tags become a module's inputs vs. outputs is decided
// at connection time by the inputTags/outputTags lists the caller passes
// to Mod.AddInterfacePorts.
type DirTag string

// PortDescriptor names one port within a DirTag group.
type PortDescriptor struct {
	Name  string
	Width int
}

// Role picks which side of an Interface a module plays: a Provider drives
// the tags it owns, a Consumer receives them. Mod.AddInterfacePorts does
// not take a Role; the caller passes the tag lists for its side directly.
type Role int

// The two interface connection roles.
const (
	Provider Role = iota
	Consumer
)

type subInterfaceFactory struct {
	name    string
	factory func() *Interface
}

// Interface is a DirTag -> []PortDescriptor bundle, optionally composed
// of named sub-interfaces. It must be Clone()d before it is connected to
// a module (AddInterfacePorts rejects an un-cloned template), so that the
// template itself is never mutated by a particular instantiation.
type Interface struct {
	cloned        bool
	ports         map[DirTag][]PortDescriptor
	subInterfaces map[string]*Interface
	subFactories  []subInterfaceFactory
}

// NewInterface creates an empty interface template.
func NewInterface() *Interface {
	return &Interface{
		ports:         map[DirTag][]PortDescriptor{},
		subInterfaces: map[string]*Interface{},
	}
}

// AddPorts appends port descriptors under the given tag.
func (i *Interface) AddPorts(tag DirTag, descs ...PortDescriptor) {
	i.ports[tag] = append(i.ports[tag], descs...)
}

// AddSubInterface registers a named sub-interface factory. Each Clone()
// of the parent invokes the factory anew, so sub-interfaces never share
// state across instantiations — the reflection-free registration API
// called for in the design notes for "interfaces requiring clone".
func (i *Interface) AddSubInterface(name string, factory func() *Interface) {
	i.subFactories = append(i.subFactories, subInterfaceFactory{name: name, factory: factory})
}

// Ports returns the port descriptors registered under tag.
func (i *Interface) Ports(tag DirTag) []PortDescriptor {
	return i.ports[tag]
}

// SubInterface returns a previously cloned sub-interface by name, or nil.
func (i *Interface) SubInterface(name string) *Interface {
	return i.subInterfaces[name]
}

// Clone returns a fresh, structurally identical interface: an
// independent copy of every port list and a freshly-factoried copy of
// every sub-interface.
func (i *Interface) Clone() *Interface {
	clone := NewInterface()
	clone.cloned = true
	for tag, descs := range i.ports {
		clone.ports[tag] = append([]PortDescriptor(nil), descs...)
	}
	for _, sf := range i.subFactories {
		sub := sf.factory()
		sub.cloned = true
		clone.subInterfaces[sf.name] = sub
		clone.subFactories = append(clone.subFactories, sf)
	}
	return clone
}

// IsCloned reports whether this interface instance came from Clone (as
// opposed to being a template built directly with NewInterface).
func (i *Interface) IsCloned() bool { return i.cloned }

func requireCloned(i *Interface) error {
	if !i.cloned {
		return rohderr.New(rohderr.KindInterfaceNotCloned, "interface must be cloned before connection")
	}
	return nil
}
