package cond_test

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rohdgo/cond"
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// fakeRegistrar stands in for simkernel.Scheduler in these unit tests:
// it collects every registered Sequential and commits their staged
// writes only when Commit is called, modeling the clk-stable phase
// boundary explicitly instead of depositing immediately.
type fakeRegistrar struct {
	pending [][]cond.Write
}

func (f *fakeRegistrar) RegisterSequential(s *cond.Sequential) {
	s.OnFire(func(next []cond.Write) {
		f.pending = append(f.pending, next)
	})
}

func (f *fakeRegistrar) Commit() {
	for _, next := range f.pending {
		for _, w := range next {
			Expect(w.Sig.Deposit(w.Value)).To(Succeed())
		}
	}
	f.pending = nil
}

func bit(b lval.Bit) lval.LV {
	return lval.FromBool(b == lval.One)
}

var _ = Describe("Combinational", func() {
	It("re-evaluates its body whenever a read signal changes", func() {
		a := wire.New("a", 1)
		b := wire.New("b", 1)
		y := wire.New("y", 1)

		_, err := cond.NewCombinational("and2", false,
			cond.Assign{LHS: y, RHS: cond.And(cond.Read(a), cond.Read(b))})
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Deposit(bit(lval.One))).To(Succeed())
		Expect(b.Deposit(bit(lval.One))).To(Succeed())
		Expect(y.Current().BitAt(0)).To(Equal(lval.One))

		Expect(b.Deposit(bit(lval.Zero))).To(Succeed())
		Expect(y.Current().BitAt(0)).To(Equal(lval.Zero))
	})

	It("flags a latch when an If has no covering Else", func() {
		sel := wire.New("sel", 1)
		y := wire.New("y", 1)

		_, err := cond.NewCombinational("maybeLatch", false,
			cond.If{
				Cond: cond.Read(sel),
				Then: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(bit(lval.One))}},
			})
		Expect(err).To(HaveOccurred())
		var latchErr *cond.ErrLatchInferred
		Expect(err).To(BeAssignableToTypeOf(latchErr))
	})

	It("permits the same body when AllowLatches is requested", func() {
		sel := wire.New("sel2", 1)
		y := wire.New("y2", 1)

		_, err := cond.NewCombinational("latchOk", true,
			cond.If{
				Cond: cond.Read(sel),
				Then: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(bit(lval.One))}},
			})
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Case (priority vs unique)", func() {
	pattern := func(bits string) lval.LV {
		v, err := lval.FromString(bits)
		Expect(err).NotTo(HaveOccurred())
		return v
	}

	It("priority mode takes the first matching item under z-wildcards", func() {
		sel := wire.New("sel3", 2)
		y := wire.New("y3", 2)

		Expect(sel.Deposit(pattern("10"))).To(Succeed())

		c := cond.Case{
			Selector: cond.Read(sel),
			Z:        true,
			Mode:     cond.CasePriority,
			Items: []cond.CaseItem{
				{Pattern: pattern("1z"), Body: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(pattern("01"))}}},
				{Pattern: pattern("z0"), Body: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(pattern("10"))}}},
			},
			Default: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(pattern("00"))}},
		}
		_, err := cond.NewCombinational("priorityCase", true, c)
		Expect(err).NotTo(HaveOccurred())
		Expect(y.Current().Equals(pattern("01"))).To(BeTrue())
	})

	It("unique mode falls back to default and reports the violation when more than one item matches", func() {
		sel := wire.New("sel4", 2)
		y := wire.New("y4", 2)
		Expect(sel.Deposit(pattern("10"))).To(Succeed())

		violations := 0
		c := cond.Case{
			Selector: cond.Read(sel),
			Z:        true,
			Mode:     cond.CaseUnique,
			OnUniqueViolation: func(matches int) {
				violations = matches
			},
			Items: []cond.CaseItem{
				{Pattern: pattern("1z"), Body: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(pattern("01"))}}},
				{Pattern: pattern("z0"), Body: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(pattern("10"))}}},
			},
			Default: []cond.Stmt{cond.Assign{LHS: y, RHS: cond.Const(pattern("11"))}},
		}
		_, err := cond.NewCombinational("uniqueCase", true, c)
		Expect(err).NotTo(HaveOccurred())
		Expect(violations).To(Equal(2))
		Expect(y.Current().Equals(pattern("11"))).To(BeTrue())
	})
})

var _ = Describe("Sequential and Flop", func() {
	It("samples d at the clock edge but only exposes it on q after commit", func() {
		reg := &fakeRegistrar{}
		clk := wire.New("clk", 1)
		Expect(clk.Deposit(bit(lval.Zero))).To(Succeed())
		d := wire.New("d", 4)

		q, seq := cond.Flop(clk, d)
		reg.RegisterSequential(seq)

		four, err := lval.FromUint(4, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Deposit(four)).To(Succeed())

		Expect(clk.Deposit(bit(lval.One))).To(Succeed())
		Expect(q.Current().HasUnknown()).To(BeTrue()) // not yet committed

		reg.Commit()
		Expect(q.Current().Equals(four)).To(BeTrue())
	})

	It("holds its value across a posedge when WithEnable reads 0", func() {
		reg := &fakeRegistrar{}
		clk := wire.New("clk2", 1)
		Expect(clk.Deposit(bit(lval.Zero))).To(Succeed())
		d := wire.New("d2", 4)
		en := wire.New("en", 1)
		Expect(en.Deposit(bit(lval.Zero))).To(Succeed())

		five, _ := lval.FromUint(5, 4)
		Expect(d.Deposit(five)).To(Succeed())

		q, seq := cond.Flop(clk, d, cond.WithEnable(en))
		reg.RegisterSequential(seq)
		Expect(clk.Deposit(bit(lval.One))).To(Succeed())
		reg.Commit()
		Expect(q.Current().HasUnknown()).To(BeTrue())
	})
})

var _ = Describe("Pipeline", func() {
	It("registers exactly one Sequential per stage with the supplied Registrar", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		reg := NewMockRegistrar(mockCtrl)
		reg.EXPECT().RegisterSequential(gomock.Any()).Times(3)

		clk := wire.New("clk4", 1)
		Expect(clk.Deposit(bit(lval.Zero))).To(Succeed())

		in := map[string]*wire.Sig{"x": wire.New("x", 4)}
		passthrough := func(si *cond.StageInfo, in map[string]*wire.Sig) map[string]*wire.Sig {
			return map[string]*wire.Sig{"x": si.Register("x_stage", in["x"])}
		}

		out := cond.Pipeline(reg, clk, nil, nil, nil, in, passthrough, passthrough, passthrough)
		Expect(out).To(HaveKey("x"))
	})
})

var _ = Describe("StateMachine", func() {
	It("resets synchronously and advances on each posedge", func() {
		reg := &fakeRegistrar{}
		clk := wire.New("clk3", 1)
		Expect(clk.Deposit(bit(lval.Zero))).To(Succeed())
		rst := wire.New("rst", 1)
		Expect(rst.Deposit(bit(lval.One))).To(Succeed())

		zero, _ := lval.FromUint(0, 2)
		one, _ := lval.FromUint(1, 2)

		state := cond.StateMachine(reg, clk, rst, "fsm", zero, func(cur *wire.Sig) cond.Expr {
			return cond.Add(cond.Read(cur), cond.Const(one))
		})

		Expect(clk.Deposit(bit(lval.One))).To(Succeed())
		reg.Commit()
		Expect(state.Current().Equals(zero)).To(BeTrue()) // held at reset

		Expect(rst.Deposit(bit(lval.Zero))).To(Succeed())
		Expect(clk.Deposit(bit(lval.Zero))).To(Succeed())
		Expect(clk.Deposit(bit(lval.One))).To(Succeed())
		reg.Commit()
		Expect(state.Current().Equals(one)).To(BeTrue())
	})
})
