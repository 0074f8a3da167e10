// timer_unit.go - System timer / IPI unit for the VeridianCore VC100

/*
__     __        _     _ _              ____
\ \   / /__ _ __(_) __| (_) __ _ _ __  / ___|___  _ __ ___
 \ \ / / _ \ '__| |/ _` | |/ _` | '_ \| |   / _ \| '__/ _ \
  \ V /  __/ |  | | (_| | | (_| | | | | |__| (_) | | |  __/
   \_/ \___|_|  |_|\__,_|_|\__,_|_| |_|\____\___/|_|  \___|

(c) 2025 - 2026 Veridian Silicon Works
https://github.com/veridiansilicon/VeridianCore
License: GPLv3 or later
*/

/*
timer_unit.go - System Timer Unit for the VC100

This module implements the machine-side model of the VC100 system timer
block: a 64-bit free-running counter, per-hart 64-bit compare registers,
per-hart software-interrupt pending words, a control word and the software
reset request register. The register map is documented in registers.go.

Hardware behaviour modelled here:

    The counter advances by Tick(cycles) from the machine loop unless
    TIMESTOP is set. The CLKSRC bit selects the always-on clock; the machine
    loop may tick at a different rate for that source, the unit just stores
    the bit.
    The 64-bit counter and compare registers are stored as explicit low and
    high words. A bus access touches exactly one word, so a reader that
    interleaves with a writer sees genuine mid-update states. This is what
    makes the driver protocols in timer_driver.go testable rather than
    vacuously true.
    The timer interrupt line of hart N is level-triggered: pending whenever
    counter >= compare[N]. Raising compare above the counter, or rewinding
    the counter, drops the line.
    With CMPCLREN set the counter auto-clears to zero when it reaches the
    hart-0 compare value (the reference machine wires the auto-clear to the
    monitor hart, matching the single-timer silicon).
    A write of MSFRST_KEY to MSFTRST latches a reset request and invokes the
    machine's soft-reset callback. Any other value is ignored.

Thread safety: all register state sits behind one mutex. The unit is touched
by the machine loop (Tick), by hart-driven bus accesses, and by tests poking
words directly, and the interleavings between those are the whole point.
*/

package main

import "sync"

// TimerUnit models the VC100 system timer / IPI block as a bus device.
type TimerUnit struct {
	mu sync.Mutex

	// Counter and compares as explicit 32-bit halves. Mid-update states of
	// the pairs must be observable on the bus.
	mtimerLo, mtimerHi uint32
	cmpLo, cmpHi       [MAX_HARTS]uint32
	msip               [MAX_HARTS]uint32

	mtimectl uint32

	resetRequested bool
	onSoftReset    func()
}

// NewTimerUnit creates a timer unit. onSoftReset is invoked (with the unit
// lock released) when firmware writes the unlock key to MSFTRST; it may be
// nil for bench setups that never reset.
func NewTimerUnit(onSoftReset func()) *TimerUnit {
	return &TimerUnit{onSoftReset: onSoftReset}
}

// Attach maps the unit's register block onto the bus.
func (tu *TimerUnit) Attach(bus *MachineBus) {
	bus.MapIO(TIMER_BASE, TIMER_END, tu.HandleRead, tu.HandleWrite)
}

func (tu *TimerUnit) counter() uint64 {
	return uint64(tu.mtimerHi)<<32 | uint64(tu.mtimerLo)
}

func (tu *TimerUnit) setCounter(v uint64) {
	tu.mtimerLo = uint32(v)
	tu.mtimerHi = uint32(v >> 32)
}

func (tu *TimerUnit) compare(hartid int) uint64 {
	return uint64(tu.cmpHi[hartid])<<32 | uint64(tu.cmpLo[hartid])
}

// Tick advances the free-running counter by the given number of timer
// cycles. Honours TIMESTOP and the CMPCLREN auto-clear.
func (tu *TimerUnit) Tick(cycles uint64) {
	tu.mu.Lock()
	defer tu.mu.Unlock()

	if tu.mtimectl&MTIMECTL_TIMESTOP_MSK != 0 {
		return
	}
	next := tu.counter() + cycles
	if tu.mtimectl&MTIMECTL_CMPCLREN_MSK != 0 && next >= tu.compare(0) {
		next = 0
	}
	tu.setCounter(next)
}

// MTIPPending reports the level of hart N's timer interrupt line.
func (tu *TimerUnit) MTIPPending(hartid int) bool {
	tu.mu.Lock()
	defer tu.mu.Unlock()
	if hartid < 0 || hartid >= MAX_HARTS {
		return false
	}
	return tu.counter() >= tu.compare(hartid)
}

// MSIPPending reports the level of hart N's software interrupt line.
func (tu *TimerUnit) MSIPPending(hartid int) bool {
	tu.mu.Lock()
	defer tu.mu.Unlock()
	if hartid < 0 || hartid >= MAX_HARTS {
		return false
	}
	return tu.msip[hartid]&MSIP_MSIP_MSK != 0
}

// ResetRequested reports whether a valid MSFTRST write has been latched.
// Cleared only by Reset, as on the silicon where the flag survives until the
// reset it requested actually happens.
func (tu *TimerUnit) ResetRequested() bool {
	tu.mu.Lock()
	defer tu.mu.Unlock()
	return tu.resetRequested
}

// HandleRead decodes a 32-bit read of the register block.
func (tu *TimerUnit) HandleRead(addr uint32) uint32 {
	tu.mu.Lock()
	defer tu.mu.Unlock()

	ofs := addr - TIMER_BASE
	switch ofs {
	case TIMER_MTIMER_OFS:
		return tu.mtimerLo
	case TIMER_MTIMER_OFS + 4:
		return tu.mtimerHi
	case TIMER_MTIMERCMP_OFS:
		return tu.cmpLo[0]
	case TIMER_MTIMERCMP_OFS + 4:
		return tu.cmpHi[0]
	case TIMER_MSFTRST_OFS:
		// Reads back zero; the request flag is not software-visible.
		return 0
	case TIMER_MTIMECTL_OFS:
		return tu.mtimectl & MTIMECTL_MSK
	case TIMER_MSIP_OFS:
		return tu.msip[0] & MSIP_MSIP_MSK
	}

	if hartid, half, ok := clintCompareSlot(ofs); ok {
		if half == 0 {
			return tu.cmpLo[hartid]
		}
		return tu.cmpHi[hartid]
	}
	if hartid, ok := clintMsipSlot(ofs); ok {
		return tu.msip[hartid]
	}
	return 0
}

// HandleWrite decodes a 32-bit write to the register block.
func (tu *TimerUnit) HandleWrite(addr uint32, value uint32) {
	tu.mu.Lock()

	ofs := addr - TIMER_BASE
	var fireReset bool
	switch ofs {
	case TIMER_MTIMER_OFS:
		tu.mtimerLo = value
	case TIMER_MTIMER_OFS + 4:
		tu.mtimerHi = value
	case TIMER_MTIMERCMP_OFS:
		tu.cmpLo[0] = value
	case TIMER_MTIMERCMP_OFS + 4:
		tu.cmpHi[0] = value
	case TIMER_MSFTRST_OFS:
		if value == MSFRST_KEY && !tu.resetRequested {
			tu.resetRequested = true
			fireReset = tu.onSoftReset != nil
		}
	case TIMER_MTIMECTL_OFS:
		tu.mtimectl = value & MTIMECTL_MSK
	case TIMER_MSIP_OFS:
		tu.msip[0] = value & MSIP_MSIP_MSK
	default:
		if hartid, half, ok := clintCompareSlot(ofs); ok {
			if half == 0 {
				tu.cmpLo[hartid] = value
			} else {
				tu.cmpHi[hartid] = value
			}
		} else if hartid, ok := clintMsipSlot(ofs); ok {
			tu.msip[hartid] = value & MSIP_MSIP_MSK
		}
	}

	tu.mu.Unlock()
	if fireReset {
		tu.onSoftReset()
	}
}

// Reset returns the unit to power-on state: counter and compares zero,
// control word zero (counter running), no pending software interrupts.
func (tu *TimerUnit) Reset() {
	tu.mu.Lock()
	defer tu.mu.Unlock()
	tu.mtimerLo, tu.mtimerHi = 0, 0
	for i := range tu.cmpLo {
		tu.cmpLo[i], tu.cmpHi[i] = 0, 0
		tu.msip[i] = 0
	}
	tu.mtimectl = 0
	tu.resetRequested = false
}

// clintCompareSlot maps a block offset into the per-hart compare alias
// window. half is 0 for the low word, 1 for the high word.
func clintCompareSlot(ofs uint32) (hartid int, half int, ok bool) {
	if ofs < TIMER_CLINT_MTIMECMP_OFS || ofs >= TIMER_CLINT_MTIMECMP_OFS+MAX_HARTS*TIMER_CLINT_MTIMECMP_STRIDE {
		return 0, 0, false
	}
	rel := ofs - TIMER_CLINT_MTIMECMP_OFS
	return int(rel / TIMER_CLINT_MTIMECMP_STRIDE), int(rel % TIMER_CLINT_MTIMECMP_STRIDE / 4), true
}

// clintMsipSlot maps a block offset into the per-hart MSIP alias window.
func clintMsipSlot(ofs uint32) (hartid int, ok bool) {
	if ofs < TIMER_CLINT_MSIP_OFS || ofs >= TIMER_CLINT_MSIP_OFS+MAX_HARTS*TIMER_CLINT_MSIP_STRIDE {
		return 0, false
	}
	return int((ofs - TIMER_CLINT_MSIP_OFS) / TIMER_CLINT_MSIP_STRIDE), true
}
