// hart_core.go - Hart execution context for the VeridianCore VC100

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
hart_core.go - Hart Model

A hart is one hardware execution context: its own stack window, its own IRQ
unit, its own timer handle, its own interrupt and exception state. The
machine steps every hart in turn; concurrency between harts is real (they
share the bus and the timer block) while each hart's own instruction stream
is sequential, interrupted only by the lines its IRQ unit accepts.

Two dispatch paths leave a hart, and they never meet:

    Interrupt: the IRQ unit picks the lowest pending enabled line, the hart
    fetches the entry address from the hardware vector table and calls it.
    The exception registry is not consulted.
    Synchronous exception: the hart pushes a saved frame to its stack and
    enters the trap dispatcher, which resolves the handler through the
    exception registry. The vector table is not consulted.

A hart in WFI sleeps until a pending enabled interrupt arrives. A parked
hart is out of the game for good; only a machine reset revives it. Parking
is what the default exception handler does instead of returning to a faulted
context.
*/

package main

import (
	"fmt"
	"sync/atomic"
)

// Hart run states.
const (
	HART_RUNNING = int32(0)
	HART_WFI     = int32(1)
	HART_PARKED  = int32(2)
)

// Hart is one execution context of the VC100.
type Hart struct {
	id      int
	machine *Machine
	bus     *MachineBus
	irqc    *IRQUnit
	timer   *SysTimer

	sp    uint32
	state atomic.Int32
}

// NewHart wires a hart into the machine with its own stack window, IRQ unit
// and timer handle.
func NewHart(m *Machine, id int) *Hart {
	return &Hart{
		id:      id,
		machine: m,
		bus:     m.bus,
		irqc:    NewIRQUnit(),
		timer:   NewSysTimer(m.bus, TIMER_BASE, id),
		sp:      STACK_TOP_BASE - uint32(id)*STACK_WINDOW_LEN,
	}
}

// ID returns the hart id.
func (h *Hart) ID() int { return h.id }

// IRQ returns the hart's interrupt request unit.
func (h *Hart) IRQ() *IRQUnit { return h.irqc }

// Timer returns the hart's timer handle.
func (h *Hart) Timer() *SysTimer { return h.timer }

// State returns the current run state.
func (h *Hart) State() int32 { return h.state.Load() }

// Step runs one machine-loop slice of this hart: accept at most one pending
// interrupt through the hardware vector path. Returns true if the hart did
// work or is runnable, false if it is asleep or parked.
func (h *Hart) Step() bool {
	switch h.state.Load() {
	case HART_PARKED:
		return false
	case HART_WFI:
		if h.irqc.NextPending() < 0 {
			return false
		}
		h.state.Store(HART_RUNNING)
	}

	if irq := h.irqc.NextPending(); irq >= 0 {
		// Hardware path: vector fetch, direct call. Level lines stay
		// pending until the handler clears the source; edge latches are
		// dropped on acceptance.
		h.irqc.ClearPend(irq)
		h.machine.vectors.Fetch(irq)(h, irq)
	}
	return h.state.Load() == HART_RUNNING
}

// WaitForInterrupt puts the hart to sleep until a pending enabled interrupt
// arrives.
func (h *Hart) WaitForInterrupt() {
	h.state.CompareAndSwap(HART_RUNNING, HART_WFI)
}

// Park stops the hart permanently. Used by the terminal exception policy;
// only a machine reset brings the hart back.
func (h *Hart) Park() {
	h.state.Store(HART_PARKED)
}

// resume returns the hart to the running state after a reset.
func (h *Hart) resume() {
	h.sp = STACK_TOP_BASE - uint32(h.id)*STACK_WINDOW_LEN
	h.state.Store(HART_RUNNING)
}

// RaiseException takes a synchronous exception on this hart: push the saved
// frame, enter the trap dispatcher, and unwind the frame if the handler
// came back. regs supplies the saved register values by name; nil means an
// all-zero register file. Returns the reserved trap status word.
func (h *Hart) RaiseException(cause uint32, epc uint32, regs map[string]uint32) uint32 {
	reduced := h.machine.cfg.ReducedRegs
	oldSP := h.sp
	h.sp = PushExcFrame(h.bus, h.sp, reduced, cause, epc, regs)

	status := h.machine.exc.Dispatch(h, cause, h.sp)

	// A handler that parked the hart or stopped the machine never returns
	// to the faulting context; the frame stays where it is for post-mortem
	// inspection. Otherwise unwind.
	if h.state.Load() != HART_PARKED && !h.machine.Stopped() {
		h.sp = oldSP
	}
	return status
}

// ConsolePrintf is firmware-style console output: format on the host, push
// the bytes through the bus into UART0's transmit FIFO one at a time.
func (h *Hart) ConsolePrintf(format string, args ...any) {
	consoleWrite(h.bus, fmt.Sprintf(format, args...))
}

// consoleWrite feeds a string through the bus into the UART transmit FIFO.
func consoleWrite(bus Bus32, s string) {
	for i := 0; i < len(s); i++ {
		bus.Write32(UART0_BASE+UART_TXFIFO_OFS, uint32(s[i]))
	}
}
