package engine

// decideRMS implements §4.5.1: a core runs whatever is ready; once idle, it
// lazily computes how long until its next release and sleeps if that gap
// reaches the global sleep threshold, otherwise idles.
func (s *Simulation) decideRMS(tick int64, c int, hasTau bool) Decision {
	if hasTau {
		return Exec
	}

	sl := &s.sleepers[c]
	if !sl.SleepingFlag {
		if next := s.nextWaitingOnCore(c); next != nil {
			sl.SleepingTime = next.ArrivalTime - tick
		} else {
			sl.SleepingTime = 0
		}
		sl.TimeSlept = 0
		sl.SleepingFlag = true
	}

	decision := Idle
	if sl.SleepingTime >= s.cfg.GlobalSleepTime {
		decision = Sleep
	}

	sl.TimeSlept++
	if sl.TimeSlept >= sl.SleepingTime {
		sl.SleepingFlag = false
	}
	return decision
}

// decideESRHSP implements §4.5.2: the core carries a periodic forced-sleep
// window (SleepPeriod/SleepPhase/SleepingTime, from partition.Admit); outside
// that window it either executes or, with nothing ready, treats the gap as
// deep sleep rather than idle.
func (s *Simulation) decideESRHSP(tick int64, c int, hasTau bool) Decision {
	sl := &s.sleepers[c]

	if sl.SleepPeriod > 0 && tick%sl.SleepPeriod == sl.SleepPhase {
		sl.TimeSlept = 1
		sl.SleepingFlag = true
		return Sleep
	}

	if sl.SleepingFlag {
		sl.TimeSlept++
		if sl.TimeSlept == sl.SleepingTime {
			sl.SleepingFlag = false
			sl.TimeSlept = 0
		}
		return Sleep
	}

	if hasTau {
		return Exec
	}
	return Sleep
}

// decideESRMS implements §4.5.3: the same forced-sleep window as ES-RHS+,
// but the idle gap between windows is either promoted to deep sleep or left
// as plain idle, depending on how long the gap is and whether it runs past
// the next scheduled sleep window.
func (s *Simulation) decideESRMS(tick int64, c int, hasTau bool) Decision {
	sl := &s.sleepers[c]
	es := &s.extraSleep[c]
	ds := &s.deepSleepFlag[c]

	if sl.SleepPeriod > 0 && tick%sl.SleepPeriod == sl.SleepPhase {
		sl.SleepingFlag = true
		sl.TimeSlept = 1
		if *es > 0 {
			*es--
		}
		return Sleep
	}

	if sl.SleepingFlag {
		sl.TimeSlept++
		if sl.TimeSlept == sl.SleepingTime {
			sl.SleepingFlag = false
			sl.TimeSlept = 0
			if *es == 0 {
				*ds = false
			}
		}
		if *es > 0 {
			*es--
		}
		return Sleep
	}

	if hasTau {
		return Exec
	}

	if *es == 0 {
		next := s.nextWaitingOnCore(c)
		switch {
		case next == nil:
			*es = 0
			*ds = false
		default:
			*es = next.ArrivalTime - tick
			*ds = *es >= s.cfg.GlobalSleepTime
			if sl.SleepPeriod > 0 {
				nsi := ((tick-sl.SleepPhase)/sl.SleepPeriod+1)*sl.SleepPeriod + sl.SleepPhase
				*ds = *ds || nsi <= next.ArrivalTime
			}
		}
	}
	if *es > 0 {
		*es--
	}

	if *ds {
		return Sleep
	}
	return Idle
}
