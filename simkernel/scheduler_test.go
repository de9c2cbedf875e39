package simkernel_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rohdgo/cond"
	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/simkernel"
	"github.com/sarchlab/rohdgo/wire"
)

// buildCounter wires up a free-running 4-bit up-counter,
// d = q + 1 combinationally feeding a clocked Flop back into q. It runs
// on an explicitly supplied serial engine, the way a caller sharing one
// engine across components would set things up.
func buildCounter() (sched *simkernel.Scheduler, clk, q *wire.Sig) {
	engine := sim.NewSerialEngine()
	sched = simkernel.NewBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		Build("sched")
	Expect(sched.Engine()).To(BeIdenticalTo(engine))

	clk = wire.New("clk", 1)
	zero, _ := lval.FromUint(0, 1)
	_ = clk.Deposit(zero)

	d := wire.New("d", 4)
	var seq *cond.Sequential
	q, seq = cond.Flop(clk, d)
	sched.RegisterSequential(seq)

	one, _ := lval.FromUint(1, 4)
	_, err := cond.NewCombinational("incr", false,
		cond.Assign{LHS: d, RHS: cond.Add(cond.Read(q), cond.Const(one))})
	Expect(err).NotTo(HaveOccurred())

	// q is deposited into directly (never Driven, only ever committed by
	// the scheduler at clk-stable), so seeding it here is legitimate and
	// kicks the incr block's first evaluation the same way a reset would.
	zero4, _ := lval.FromUint(0, 4)
	Expect(q.Deposit(zero4)).To(Succeed())

	return sched, clk, q
}

var _ = Describe("Scheduler (free-running counter)", func() {
	It("increments q once per clock period, committed only at clk-stable", func() {
		sched, clk, q := buildCounter()
		sched.DriveClock(clk, 1)

		// The clock starts low and DriveClock's first toggle runs at t=0,
		// so the first posedge -- and the first commit -- happens inside
		// timestep 0 itself.
		Expect(sched.RunFor(context.Background(), 1)).To(Succeed())
		one, _ := lval.FromUint(1, 4)
		Expect(q.Current().Equals(one)).To(BeTrue())

		// One full period (negedge then posedge) later, q has advanced
		// exactly once more.
		Expect(sched.RunFor(context.Background(), 2)).To(Succeed())
		two, _ := lval.FromUint(2, 4)
		Expect(q.Current().Equals(two)).To(BeTrue())
	})

	It("produces an identical value sequence across independent runs", func() {
		record := func() []lval.LV {
			sched, clk, q := buildCounter()
			sched.DriveClock(clk, 1)

			var seen []lval.LV
			sched.OnPostTick(func(uint64) {
				seen = append(seen, q.Current())
			})
			Expect(sched.RunFor(context.Background(), 20)).To(Succeed())
			return seen
		}

		a := record()
		b := record()
		Expect(len(a)).To(Equal(len(b)))
		for i := range a {
			Expect(a[i].Equals(b[i])).To(BeTrue())
		}
	})

	It("stops advancing once EndSimulation is called", func() {
		sched, clk, _ := buildCounter()
		sched.DriveClock(clk, 1)
		sched.ScheduleAt(5, func(sc *simkernel.Scheduler) { sc.EndSimulation() })

		Expect(sched.RunFor(context.Background(), 100)).To(Succeed())
		Expect(sched.Now()).To(BeNumerically("<=", 6))
	})

	It("honors SetMaxSimTime as an upper bound on Run", func() {
		sched, clk, _ := buildCounter()
		sched.DriveClock(clk, 1)
		sched.SetMaxSimTime(10)

		Expect(sched.Run(context.Background())).To(Succeed())
		Expect(sched.Now()).To(BeNumerically(">=", 10))
	})
})

var _ = Describe("Scheduler.WaitForEdge", func() {
	It("fires at most once per registration", func() {
		sched := simkernel.NewBuilder().Build("sched3")
		sig := wire.New("sig", 1)
		zero, _ := lval.FromUint(0, 1)
		one, _ := lval.FromUint(1, 1)
		_ = sig.Deposit(zero)

		fires := 0
		sched.WaitForEdge(sig, wire.Posedge, func(*simkernel.Scheduler) {
			fires++
		})

		sched.ScheduleAt(0, func(*simkernel.Scheduler) { _ = sig.Deposit(one) })
		sched.ScheduleAt(1, func(*simkernel.Scheduler) { _ = sig.Deposit(zero) })
		sched.ScheduleAt(2, func(*simkernel.Scheduler) { _ = sig.Deposit(one) })

		Expect(sched.RunFor(context.Background(), 4)).To(Succeed())
		Expect(fires).To(Equal(1))
	})

	It("never resumes a cancelled waiter", func() {
		sched := simkernel.NewBuilder().Build("sched4")
		sig := wire.New("sig", 1)
		zero, _ := lval.FromUint(0, 1)
		one, _ := lval.FromUint(1, 1)
		_ = sig.Deposit(zero)

		fired := false
		cancel := sched.WaitForEdge(sig, wire.Posedge, func(*simkernel.Scheduler) {
			fired = true
		})
		cancel()

		sched.ScheduleAt(0, func(*simkernel.Scheduler) { _ = sig.Deposit(one) })
		Expect(sched.RunFor(context.Background(), 2)).To(Succeed())
		Expect(fired).To(BeFalse())
	})

	It("runs its continuation through InjectAction rather than synchronously", func() {
		sched := simkernel.NewBuilder().Build("sched2")
		sig := wire.New("sig", 1)
		zero, _ := lval.FromUint(0, 1)
		one, _ := lval.FromUint(1, 1)
		_ = sig.Deposit(zero)

		fired := false
		sched.WaitForEdge(sig, wire.Posedge, func(*simkernel.Scheduler) {
			fired = true
		})

		sched.ScheduleAt(0, func(*simkernel.Scheduler) {
			_ = sig.Deposit(one)
		})

		Expect(sched.RunFor(context.Background(), 1)).To(Succeed())
		Expect(fired).To(BeFalse()) // edge fired during active phase; continuation is injected, not yet run

		Expect(sched.RunFor(context.Background(), 1)).To(Succeed())
		Expect(fired).To(BeTrue())
	})
})

var _ = Describe("Scheduler.WaitForChange", func() {
	It("resumes once on any value change, regardless of width", func() {
		sched := simkernel.NewBuilder().Build("sched5")
		sig := wire.New("data", 8)

		resumed := 0
		sched.WaitForChange(sig, func(*simkernel.Scheduler) { resumed++ })

		v1, _ := lval.FromUint(0xA5, 8)
		v2, _ := lval.FromUint(0x5A, 8)
		sched.ScheduleAt(0, func(*simkernel.Scheduler) { _ = sig.Deposit(v1) })
		sched.ScheduleAt(1, func(*simkernel.Scheduler) { _ = sig.Deposit(v2) })

		Expect(sched.RunFor(context.Background(), 3)).To(Succeed())
		Expect(resumed).To(Equal(1))
	})
})
