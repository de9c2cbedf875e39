package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

var _ = Describe("Sig driving", func() {
	It("mirrors the driver's value immediately and on every change", func() {
		a := wire.New("a", 4)
		b := wire.New("b", 4)

		Expect(b.Drive(a)).To(Succeed())

		v1, _ := lval.FromUint(5, 4)
		Expect(a.Deposit(v1)).To(Succeed())
		Expect(b.Current().Equals(v1)).To(BeTrue())

		v2, _ := lval.FromUint(9, 4)
		Expect(a.Deposit(v2)).To(Succeed())
		Expect(b.Current().Equals(v2)).To(BeTrue())
	})

	It("rejects width mismatches", func() {
		a := wire.New("a", 4)
		b := wire.New("b", 8)
		Expect(b.Drive(a)).To(HaveOccurred())
	})

	It("rejects redriving a non-net signal from a different source", func() {
		a := wire.New("a", 1)
		c := wire.New("c", 1)
		b := wire.New("b", 1)
		Expect(b.Drive(a)).To(Succeed())
		Expect(b.Drive(c)).To(HaveOccurred())
	})

	It("notifies subscribers in registration order", func() {
		a := wire.New("a", 1)
		var order []int
		a.Subscribe(func(wire.Change) { order = append(order, 1) })
		a.Subscribe(func(wire.Change) { order = append(order, 2) })
		one, _ := lval.FromUint(1, 1)
		Expect(a.Deposit(one)).To(Succeed())
		Expect(order).To(Equal([]int{1, 2}))
	})
})

var _ = Describe("posedge/negedge", func() {
	It("fires exactly once per 0->1 transition", func() {
		clk := wire.New("clk", 1)
		zero, _ := lval.FromUint(0, 1)
		Expect(clk.Deposit(zero)).To(Succeed())

		count := 0
		clk.OnPosedge(func(wire.Change) { count++ })

		one, _ := lval.FromUint(1, 1)
		for i := 0; i < 3; i++ {
			Expect(clk.Deposit(zero)).To(Succeed())
			Expect(clk.Deposit(one)).To(Succeed())
		}
		Expect(count).To(Equal(3))
	})

	It("suppresses edges across invalid transitions unless ignoreInvalid", func() {
		s := wire.New("s", 1)
		x, _ := lval.FromString("x")
		one, _ := lval.FromUint(1, 1)
		zero, _ := lval.FromUint(0, 1)
		Expect(s.Deposit(x)).To(Succeed())

		posCount, negCount := 0, 0
		s.OnPosedge(func(wire.Change) { posCount++ })
		s.OnNegedge(func(wire.Change) { negCount++ })

		Expect(s.Deposit(one)).To(Succeed())
		Expect(posCount).To(Equal(0), "an X->1 transition must not fire posedge while ignoreInvalid is unset")

		Expect(s.Deposit(x)).To(Succeed())
		Expect(s.Deposit(zero)).To(Succeed())
		Expect(negCount).To(Equal(0), "a 1->X->0 transition must not fire negedge while ignoreInvalid is unset")

		s.SetIgnoreInvalidEdges(true)
		Expect(s.Deposit(x)).To(Succeed())
		Expect(s.Deposit(one)).To(Succeed())
		Expect(posCount).To(Equal(1), "X->1 must fire posedge once ignoreInvalid is set")

		Expect(s.Deposit(x)).To(Succeed())
		Expect(s.Deposit(zero)).To(Succeed())
		Expect(negCount).To(Equal(1), "X->0 must fire negedge once ignoreInvalid is set")
	})
})

var _ = Describe("tri-state bus", func() {
	It("resolves a two-driver net per the enable truth table", func() {
		net := wire.NewNet("bus", 1)
		driveA := wire.New("driveA", 1)
		driveB := wire.New("driveB", 1)
		enableA := wire.New("enableA", 1)
		enableB := wire.New("enableB", 1)

		gatedA := wire.New("gatedA", 1)
		gatedB := wire.New("gatedB", 1)

		recompute := func() {
			av := driveA.Current()
			if enableA.Current().BitAt(0) != lval.One {
				z, _ := lval.FromString("z")
				av = z
			}
			bv := driveB.Current()
			if enableB.Current().BitAt(0) != lval.One {
				z, _ := lval.FromString("z")
				bv = z
			}
			_ = gatedA.Deposit(av)
			_ = gatedB.Deposit(bv)
		}

		Expect(net.Drive(gatedA)).To(Succeed())
		Expect(net.Drive(gatedB)).To(Succeed())

		set := func(sig *wire.Sig, bit uint64) {
			v, _ := lval.FromUint(bit, 1)
			Expect(sig.Deposit(v)).To(Succeed())
		}

		set(enableA, 1)
		set(enableB, 0)
		set(driveA, 1)
		recompute()
		Expect(net.Current().BitAt(0)).To(Equal(lval.One))

		set(enableA, 1)
		set(enableB, 1)
		set(driveA, 1)
		set(driveB, 0)
		recompute()
		Expect(net.Current().BitAt(0)).To(Equal(lval.InvalidX))

		set(enableA, 0)
		set(enableB, 0)
		recompute()
		Expect(net.Current().BitAt(0)).To(Equal(lval.HighZ))
	})
})
