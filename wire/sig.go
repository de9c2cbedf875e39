// Package wire implements Sig, the signal graph node, and the tri-state
// merge rule used to resolve multi-driver nets. A Sig holds a current LV
// and notifies subscribers whenever that value changes; non-net signals
// accept at most one driver, nets accept many and recompute their
// current value as the merge of all driver values.
package wire

import (
	"sync"

	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/rohderr"
)

// Naming tags the uniquification policy an emitter should apply to a
// signal's name.
type Naming int

// The five naming policies.
const (
	NamingReserved Naming = iota
	NamingRenameable
	NamingMergeable
	NamingUnnamed
	NamingUnpreferred
)

// Change describes a value transition delivered to subscribers.
type Change struct {
	Previous lval.LV
	New      lval.LV
}

// propagation depth guard: setCurrent recurses through Drive/Combinational
// subscriber chains as a single deposit ripples through the graph. The
// simulator (simkernel) bounds that recursion so a genuine combinational
// cycle fails CombinationalLoop instead of overflowing the goroutine stack.
var (
	propMu    sync.Mutex
	propDepth int
	propMax   int // 0 = unbounded (construction-time use outside a scheduler)
)

// SetMaxPropagationDepth bounds the depth of the setCurrent->subscriber
// recursion chain triggered by a single Deposit/Drive; exceeding it panics
// with a *rohderr.Error of KindCombinationalLoop. 0 disables the bound.
// simkernel's SchedulerBuilder.Build calls this, sized from its configured
// signal budget.
func SetMaxPropagationDepth(n int) {
	propMu.Lock()
	defer propMu.Unlock()
	propMax = n
}

func enterPropagation(sigName string) {
	propMu.Lock()
	if propMax <= 0 {
		propMu.Unlock()
		return
	}
	propDepth++
	exceeded := propDepth > propMax
	propMu.Unlock()
	if exceeded {
		panic(rohderr.New(rohderr.KindCombinationalLoop, "propagation depth exceeded %d while depositing %s", propMax, sigName))
	}
}

func exitPropagation() {
	propMu.Lock()
	defer propMu.Unlock()
	if propMax > 0 {
		propDepth--
	}
}

// Subscriber is notified, in registration order, whenever a Sig's current
// value changes.
type Subscriber func(Change)

// Owner is the minimal capability a parent module exposes to a Sig; it
// exists so this package never imports the module package.
type Owner interface {
	OwnerName() string
}

// Sig is a named wire of fixed width holding a current LV.
type Sig struct {
	mu sync.Mutex

	name   string
	width  int
	naming Naming
	isNet  bool

	current lval.LV

	driver  *Sig   // non-net: the single driver, or nil
	drivers []*Sig // net: every driver

	owner Owner

	subs     []Subscriber
	posedge  []func(Change)
	negedge  []func(Change)

	ignoreInvalidEdges bool

	locked bool
}

// New creates a width-bit signal with the given display name, initially
// holding all-X (the conventional "uninitialized wire" value).
func New(name string, width int) *Sig {
	return &Sig{
		name:    name,
		width:   width,
		naming:  NamingUnnamed,
		current: mustFillX(width),
	}
}

// NewNet creates a width-bit net signal (multiple drivers allowed, value
// is the tri-state merge of all drivers). Initial value is all-Z
// (floating) until a driver is attached.
func NewNet(name string, width int) *Sig {
	s := New(name, width)
	s.isNet = true
	s.current = mustFillZ(width)
	return s
}

func mustFillX(width int) lval.LV {
	v, err := lval.FromString(repeat('x', width))
	if err != nil {
		panic(err)
	}
	return v
}

func mustFillZ(width int) lval.LV {
	v, err := lval.FromString(repeat('z', width))
	if err != nil {
		panic(err)
	}
	return v
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

// Name returns the signal's display name.
func (s *Sig) Name() string { return s.name }

// Width returns the signal's bit width.
func (s *Sig) Width() int { return s.width }

// IsNet reports whether the signal accepts multiple drivers.
func (s *Sig) IsNet() bool { return s.isNet }

// Naming returns the signal's uniquification tag.
func (s *Sig) Naming() Naming { return s.naming }

// SetNaming sets the signal's uniquification tag.
func (s *Sig) SetNaming(n Naming) { s.naming = n }

// SetIgnoreInvalidEdges controls whether posedge/negedge fire across a
// transition where either side is X/Z. Off by default: edges are
// suppressed if either side is invalid unless ignoreInvalid is set.
func (s *Sig) SetIgnoreInvalidEdges(v bool) { s.ignoreInvalidEdges = v }

// SetOwner records the module that owns this signal, used by the module
// package's build-time topology checks.
func (s *Sig) SetOwner(o Owner) { s.owner = o }

// Owner returns the owning module, or nil if unset.
func (s *Sig) Owner() Owner { return s.owner }

// Current returns the signal's present value.
func (s *Sig) Current() lval.LV {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Driver returns the signal's single driver, or nil for an undriven/net
// signal.
func (s *Sig) Driver() *Sig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver
}

// Drivers returns the net's drivers (empty for a non-net signal).
func (s *Sig) Drivers() []*Sig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Sig, len(s.drivers))
	copy(out, s.drivers)
	return out
}

// Subscribe registers fn to be called, in registration order, whenever
// the signal's current value changes.
func (s *Sig) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// OnPosedge registers fn to fire on every 0->1 transition of a 1-bit
// signal. fn runs synchronously inside the Deposit/Drive call that makes
// the transition, in whatever simulator phase that call happens; it is
// not deferred to the clk-stable phase.
func (s *Sig) OnPosedge(fn func(Change)) {
	if s.width != 1 {
		panic("wire: posedge is only defined for 1-bit signals")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posedge = append(s.posedge, fn)
}

// OnNegedge registers fn to fire on every 1->0 transition of a 1-bit
// signal.
func (s *Sig) OnNegedge(fn func(Change)) {
	if s.width != 1 {
		panic("wire: negedge is only defined for 1-bit signals")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negedge = append(s.negedge, fn)
}

// Lock forbids any future Drive call on this signal. Used by the module
// package to enforce that a declared input is read-only from inside the
// owning module: internal logic must consume it, never drive it.
func (s *Sig) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = true
}

// Drive wires `from` as this signal's driver. For a non-net signal this
// may be called only once; calling it again (with a different driver)
// fails IllegalTopology, as does calling it at all on a locked (e.g.
// module-input) signal. For a net signal, it appends another driver and
// the net recomputes as the merge of all of them.
func (s *Sig) Drive(from *Sig) error {
	if from.width != s.width {
		return rohderr.New(rohderr.KindWidthMismatch, "driving %s (width %d) from %s (width %d)", s.name, s.width, from.name, from.width)
	}

	s.mu.Lock()
	locked := s.locked
	s.mu.Unlock()
	if locked {
		return rohderr.New(rohderr.KindIllegalTopology, "%s is a locked (input) signal and cannot be driven from inside its module", s.name)
	}

	if s.isNet {
		s.mu.Lock()
		s.drivers = append(s.drivers, from)
		s.mu.Unlock()
		from.Subscribe(func(Change) { s.recomputeNet() })
		s.recomputeNet()
		return nil
	}

	s.mu.Lock()
	if s.driver != nil && s.driver != from {
		s.mu.Unlock()
		return rohderr.New(rohderr.KindIllegalTopology, "%s already driven by %s, cannot redrive from %s", s.name, s.driver.name, from.name)
	}
	s.driver = from
	s.mu.Unlock()

	from.Subscribe(func(c Change) { s.setCurrent(c.New) })
	s.setCurrent(from.Current())
	return nil
}

func (s *Sig) recomputeNet() {
	s.mu.Lock()
	drivers := make([]lval.LV, len(s.drivers))
	for i, d := range s.drivers {
		drivers[i] = d.Current()
	}
	s.mu.Unlock()

	var merged lval.LV
	if len(drivers) == 0 {
		merged = mustFillZ(s.width)
	} else {
		m, err := lval.Merge(drivers...)
		if err != nil {
			panic(err)
		}
		merged = m
	}
	s.setCurrent(merged)
}

// Deposit sets the signal's current value directly (used by the
// simulator when a user action writes a value, and internally by Drive).
// It is the only way to change a non-driven, non-net signal's value.
func (s *Sig) Deposit(v lval.LV) error {
	if v.Width() != s.width {
		return rohderr.New(rohderr.KindWidthMismatch, "depositing width %d onto %s (width %d)", v.Width(), s.name, s.width)
	}
	s.setCurrent(v)
	return nil
}

func (s *Sig) setCurrent(v lval.LV) {
	enterPropagation(s.name)
	defer exitPropagation()

	s.mu.Lock()
	prev := s.current
	if prev.Equals(v) {
		s.mu.Unlock()
		return
	}
	s.current = v
	subs := append([]Subscriber(nil), s.subs...)
	var pos, neg []func(Change)
	if s.width == 1 {
		pos = append([]func(Change){}, s.posedge...)
		neg = append([]func(Change){}, s.negedge...)
	}
	ignoreInvalid := s.ignoreInvalidEdges
	s.mu.Unlock()

	ch := Change{Previous: prev, New: v}
	for _, fn := range subs {
		fn(ch)
	}

	if s.width != 1 {
		return
	}
	prevBit, newBit := prev.BitAt(0), v.BitAt(0)
	validEdge := prevBit != lval.InvalidX && prevBit != lval.HighZ &&
		newBit != lval.InvalidX && newBit != lval.HighZ
	if !validEdge && !ignoreInvalid {
		return
	}

	// With ignoreInvalid set, a transition landing on a known bit counts
	// as that edge even when the other side was X/Z -- the direction is
	// taken from whichever end is known.
	isPosedge := newBit == lval.One && prevBit != lval.One
	isNegedge := newBit == lval.Zero && prevBit != lval.Zero
	if isPosedge {
		for _, fn := range pos {
			fn(ch)
		}
	}
	if isNegedge {
		for _, fn := range neg {
			fn(ch)
		}
	}
}
