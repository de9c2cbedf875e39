package simkernel

import "github.com/sarchlab/rohdgo/lval"

// DriveClock schedules sig to toggle every halfPeriod timesteps, with
// the first rising edge at t=0, for the life of the scheduler (it reschedules
// itself from inside the active phase each time it runs -- there is no
// goroutine backing this clock).
func (s *Scheduler) DriveClock(sig interface {
	Deposit(v lval.LV) error
}, halfPeriod uint64) {
	zero, _ := lval.FromUint(0, 1)
	one, _ := lval.FromUint(1, 1)

	var tick Action
	low := true
	tick = func(sched *Scheduler) {
		if low {
			_ = sig.Deposit(one)
		} else {
			_ = sig.Deposit(zero)
		}
		low = !low
		sched.ScheduleAfter(halfPeriod, tick)
	}
	s.ScheduleAfter(0, tick)
}
