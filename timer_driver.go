// timer_driver.go - System timer driver, SysTick and IPI for the VeridianCore VC100

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
timer_driver.go - System Timer Driver for the VC100

This module is the firmware-side view of the timer unit: the register access
protocols a VC100 hart must follow when talking to the 64-bit MTIMER and
MTIMERCMP registers over the 32-bit bus, plus the SysTick periodic-interrupt
facility and the inter-processor interrupt operations built on the same
block.

The two protocols that matter:

    Counter write (SetLoadValue): low word is zeroed first so that a stale
    low half cannot carry into the freshly written high half, then high, then
    low. The sequence matters; no step may be elided or reordered.

    Counter read (GetLoadValue): high, low, high again. If the two high reads
    differ a carry propagated through the window and the low word read
    belongs to neither value, so the low word is read once more. A naive
    high/low pair can splice words from different instants.

Compare writes drive the low word to all-ones first instead of zero: a
transient compare below the live counter would fire a false match while the
high half is still in flight.

Every access goes through the SysTimer handle, which exposes only these
protocol operations. There is deliberately no way to address a half-word of
MTIMER through the handle. Each hart holds its own handle; a handle is bound
to its hart at construction and the per-hart registers it computes addresses
for have a single logical writer by that convention.
*/

package main

import "runtime"

// WordBus is the 32-bit transaction interface the timer driver runs over.
// MachineBus satisfies it; tests substitute mock buses that mutate state
// between accesses to exercise the ordering protocols.
type WordBus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

// IRQController is the interrupt-controller capability the SysTick facility
// delegates to. The VC100 core consumes it and does not implement priority
// arithmetic behind it.
type IRQController interface {
	EnableIRQ(irq int)
	DisableIRQ(irq int)
	SetLevelIRQ(irq int, level uint8)
	SetShvIRQ(irq int, mode uint8)
}

// Interrupt delivery modes for IRQController.SetShvIRQ.
const (
	IRQ_MODE_NONVECTORED = 0
	IRQ_MODE_VECTORED    = 1
)

// SysTimer is the opaque per-hart handle to the timer register block. All
// access to the block goes through its methods; the ordering protocols
// cannot be bypassed because the half-word addresses are never exposed.
//
// Handles must not be copied: one handle per hart, bound at construction.
type SysTimer struct {
	bus    WordBus
	base   uint32
	hartid int
}

// NewSysTimer binds a timer handle for the given hart over the given bus.
func NewSysTimer(bus WordBus, base uint32, hartid int) *SysTimer {
	return &SysTimer{bus: bus, base: base, hartid: hartid}
}

// HartID returns the hart this handle is bound to.
func (st *SysTimer) HartID() int {
	return st.hartid
}

// SetLoadValue writes the 64-bit free-running counter. Write order: low word
// zero first to suppress a spurious carry, then high, then low. The counter
// equals value on return but may tick forward immediately afterwards.
func (st *SysTimer) SetLoadValue(value uint64) {
	addr := st.base + TIMER_MTIMER_OFS
	st.bus.Write32(addr, 0) // prevent carry
	st.bus.Write32(addr+4, uint32(value>>32))
	st.bus.Write32(addr, uint32(value))
}

// GetLoadValue returns the 64-bit counter tear-free despite two non-atomic
// word reads against a live counter: high, low, high; re-read low if the
// high words differ.
func (st *SysTimer) GetLoadValue() uint64 {
	addr := st.base + TIMER_MTIMER_OFS

	high0 := st.bus.Read32(addr + 4)
	low := st.bus.Read32(addr)
	high := st.bus.Read32(addr + 4)
	if high0 != high {
		low = st.bus.Read32(addr)
	}
	return uint64(high)<<32 | uint64(low)
}

// hartCompareAddr returns the bus address of the hart's compare pair.
// Hart 0 uses the in-block register; other harts go through the CLINT alias
// window.
func (st *SysTimer) hartCompareAddr(hartid int) uint32 {
	if hartid == 0 {
		return st.base + TIMER_MTIMERCMP_OFS
	}
	return st.base + TIMER_CLINT_MTIMECMP_OFS + uint32(hartid)*TIMER_CLINT_MTIMECMP_STRIDE
}

// hartMsipAddr returns the bus address of the hart's MSIP word.
func (st *SysTimer) hartMsipAddr(hartid int) uint32 {
	if hartid == 0 {
		return st.base + TIMER_MSIP_OFS
	}
	return st.base + TIMER_CLINT_MSIP_OFS + uint32(hartid)*TIMER_CLINT_MSIP_STRIDE
}

// SetHartCompareValue writes the 64-bit compare register of the given hart.
// Write order: low word all-ones first so the compare cannot transiently
// drop below the live counter and fire a false match, then high, then low.
func (st *SysTimer) SetHartCompareValue(value uint64, hartid int) {
	addr := st.hartCompareAddr(hartid)
	st.bus.Write32(addr, 0xFFFFFFFF) // prevent load > timecmp
	st.bus.Write32(addr+4, uint32(value>>32))
	st.bus.Write32(addr, uint32(value))
}

// SetCompareValue writes the compare register of the handle's own hart.
func (st *SysTimer) SetCompareValue(value uint64) {
	st.SetHartCompareValue(value, st.hartid)
}

// GetHartCompareValue reads the 64-bit compare register of the given hart.
// The compare register does not self-increment, so a plain high/low pair is
// sufficient here.
func (st *SysTimer) GetHartCompareValue(hartid int) uint64 {
	addr := st.hartCompareAddr(hartid)
	high := st.bus.Read32(addr + 4)
	low := st.bus.Read32(addr)
	return uint64(high)<<32 | uint64(low)
}

// GetCompareValue reads the compare register of the handle's own hart.
func (st *SysTimer) GetCompareValue() uint64 {
	return st.GetHartCompareValue(st.hartid)
}

// Start lets the counter run by clearing TIMESTOP. Read-modify-write on the
// control word; callers must not mutate other MTIMECTL bits concurrently.
func (st *SysTimer) Start() {
	addr := st.base + TIMER_MTIMECTL_OFS
	st.bus.Write32(addr, st.bus.Read32(addr)&^uint32(MTIMECTL_TIMESTOP_MSK))
}

// Stop freezes the counter by setting TIMESTOP.
func (st *SysTimer) Stop() {
	addr := st.base + TIMER_MTIMECTL_OFS
	st.bus.Write32(addr, st.bus.Read32(addr)|MTIMECTL_TIMESTOP_MSK)
}

// SetControlValue writes the control word, masked to its defined bits.
func (st *SysTimer) SetControlValue(mctl uint32) {
	st.bus.Write32(st.base+TIMER_MTIMECTL_OFS, mctl&MTIMECTL_MSK)
}

// GetControlValue reads the control word, masked to its defined bits.
func (st *SysTimer) GetControlValue() uint32 {
	return st.bus.Read32(st.base+TIMER_MTIMECTL_OFS) & MTIMECTL_MSK
}

// SetHartSWIRQ raises the software interrupt of the given hart.
func (st *SysTimer) SetHartSWIRQ(hartid int) {
	addr := st.hartMsipAddr(hartid)
	if hartid == 0 {
		st.bus.Write32(addr, st.bus.Read32(addr)|MSIP_MSIP_MSK)
	} else {
		st.bus.Write32(addr, MSIP_MSIP_MSK)
	}
}

// SetSWIRQ raises the software interrupt of the handle's own hart.
func (st *SysTimer) SetSWIRQ() {
	st.SetHartSWIRQ(st.hartid)
}

// ClearHartSWIRQ clears the software interrupt of the given hart.
func (st *SysTimer) ClearHartSWIRQ(hartid int) {
	addr := st.hartMsipAddr(hartid)
	if hartid == 0 {
		st.bus.Write32(addr, st.bus.Read32(addr)&^uint32(MSIP_MSIP_MSK))
	} else {
		st.bus.Write32(addr, 0)
	}
}

// ClearSWIRQ clears the software interrupt of the handle's own hart.
func (st *SysTimer) ClearSWIRQ() {
	st.ClearHartSWIRQ(st.hartid)
}

// GetHartMsipValue reads the MSIP word of the given hart. Bit 0 is the
// pending flag; a single 32-bit read, so no tearing concern.
func (st *SysTimer) GetHartMsipValue(hartid int) uint32 {
	return st.bus.Read32(st.hartMsipAddr(hartid)) & MSIP_MSIP_MSK
}

// GetMsipValue reads the MSIP word of the handle's own hart.
func (st *SysTimer) GetMsipValue() uint32 {
	return st.GetHartMsipValue(st.hartid)
}

// SetHartMsipValue writes the MSIP word of the given hart.
func (st *SysTimer) SetHartMsipValue(msip uint32, hartid int) {
	st.bus.Write32(st.hartMsipAddr(hartid), msip&MSIP_MSIP_MSK)
}

// SendIPI signals the target hart through its MSIP alias word.
func (st *SysTimer) SendIPI(hartid int) {
	st.bus.Write32(st.base+TIMER_CLINT_MSIP_OFS+uint32(hartid)*TIMER_CLINT_MSIP_STRIDE, 1)
}

// ClearIPI clears a previously sent IPI on the target hart.
func (st *SysTimer) ClearIPI(hartid int) {
	st.bus.Write32(st.base+TIMER_CLINT_MSIP_OFS+uint32(hartid)*TIMER_CLINT_MSIP_STRIDE, 0)
}

// SoftwareReset writes the unlock key to the reset request register and
// spins cooperatively awaiting the hardware reset. Diverging: never
// returns; the reset ends this instruction stream, not a return.
func (st *SysTimer) SoftwareReset() {
	st.bus.Write32(st.base+TIMER_MSFTRST_OFS, MSFRST_KEY)
	for {
		runtime.Gosched()
	}
}

// SysTick is the periodic-interrupt facility: a SysTimer handle plus the
// interrupt-controller capability it arms the timer line through.
type SysTick struct {
	timer *SysTimer
	irqc  IRQController
}

// NewSysTick builds the facility over an existing timer handle.
func NewSysTick(timer *SysTimer, irqc IRQController) *SysTick {
	return &SysTick{timer: timer, irqc: irqc}
}

// Config arms a one-shot tick interrupt on the handle's own hart: compare is
// set ticks cycles past the current counter and the timer line is enabled
// non-vectored at level 0. Firing does not rearm; the handler calls Reload.
// The return value is a reserved status code, always 0.
func (sk *SysTick) Config(ticks uint64) uint32 {
	return sk.HartConfig(ticks, sk.timer.hartid)
}

// HartConfig is Config targeting an explicit hart.
func (sk *SysTick) HartConfig(ticks uint64, hartid int) uint32 {
	loadticks := sk.timer.GetLoadValue()
	sk.timer.SetHartCompareValue(loadticks+ticks, hartid)
	sk.irqc.SetShvIRQ(IRQ_MTIP, IRQ_MODE_NONVECTORED)
	sk.irqc.SetLevelIRQ(IRQ_MTIP, 0)
	sk.irqc.EnableIRQ(IRQ_MTIP)
	return 0
}

// Reload rearms the tick from inside the timer interrupt handler. If the
// compare sum wraps 64 bits the epoch restarts: counter back to zero,
// compare to ticks. The fractional tick lost at the wrap boundary is the
// documented trade; downstream deadline code depends on exactly this.
func (sk *SysTick) Reload(ticks uint64) uint32 {
	return sk.HartReload(ticks, sk.timer.hartid)
}

// HartReload is Reload targeting an explicit hart.
func (sk *SysTick) HartReload(ticks uint64, hartid int) uint32 {
	curTicks := sk.timer.GetLoadValue()
	reloadTicks := ticks + curTicks

	if reloadTicks > curTicks {
		sk.timer.SetHartCompareValue(reloadTicks, hartid)
	} else {
		// Compare would land at or behind the counter: the sum overflowed.
		sk.timer.SetLoadValue(0)
		sk.timer.SetHartCompareValue(ticks, hartid)
	}
	return 0
}
