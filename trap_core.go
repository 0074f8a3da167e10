//go:build !vendorexc

// trap_core.go - Exception registry and trap dispatcher for the VeridianCore VC100

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
trap_core.go - Stock Exception Registry and Trap Dispatcher

This module implements the software dispatch path for synchronous
exceptions: a fixed table of twelve handler slots indexed by cause code, the
common trap entry that selects and invokes a handler, and the default
report-and-park handler bound to every slot at initialization.

Dispatch policy:

    Every slot always holds a callable handler. Init binds all twelve to the
    default handler before any exception can be taken; Register overwrites
    individual slots afterwards. There is no unbound state and the
    dispatcher never checks for one.
    Registration with an out-of-range cause code is a silent no-op. Lookup
    with an out-of-range cause code returns the default handler: the cause
    is not representable in the table, so it resolves to what the dispatcher
    would run for it anyway.
    The dispatcher masks MCAUSE to its low 12 bits, invokes the selected
    handler with the hart, raw cause and frame pointer, and returns a status
    word to the trap-return path. The word is reserved and currently always
    zero; callers must not interpret it.

The default handler reports MCAUSE, MEPC, the hart id and the full saved
frame over the hart's console, then parks the hart in a low-power wait it
never leaves. Under a simulation harness it instead stops the machine with a
nonzero status so test runs fail loudly. It never returns to the faulting
context either way.

Interrupts never pass through this table: the hardware vectors them straight
from the vector table in vector_table.go.

A vendor can replace this whole policy at build time with the vendorexc tag;
see trap_core_vendor.go.
*/

package main

// ExcRegistry is the fixed-capacity exception dispatch table. One instance
// per machine, process lifetime, handed explicitly to the trap entry path.
type ExcRegistry struct {
	handlers [MAX_SYSTEM_EXCEPTION_NUM]ExcHandler
	deflt    ExcHandler
}

// NewExcRegistry creates a registry whose slots will bind to deflt. The
// slots are not usable until Init runs; the machine calls Init during
// premain bring-up, before exceptions are unmasked.
func NewExcRegistry(deflt ExcHandler) *ExcRegistry {
	return &ExcRegistry{deflt: deflt}
}

// Init binds every slot to the default handler. It touches nothing but the
// registry itself, so it is safe to run before the rest of the machine's
// mutable state is committed.
func (er *ExcRegistry) Init() {
	for i := range er.handlers {
		er.handlers[i] = er.deflt
	}
}

// Register installs a handler for the given cause code. Out-of-range codes
// are not representable in the table and the call is a no-op; such causes
// fall through to the default handler at dispatch time. A nil handler
// rebinds the slot to the default, preserving the every-slot-callable
// invariant.
func (er *ExcRegistry) Register(cause uint32, handler ExcHandler) {
	if cause >= MAX_SYSTEM_EXCEPTION_NUM {
		return
	}
	if handler == nil {
		handler = er.deflt
	}
	er.handlers[cause] = handler
}

// Get returns the handler bound to the given cause code. Out-of-range codes
// return the default handler, which is what the dispatcher runs for them.
func (er *ExcRegistry) Get(cause uint32) ExcHandler {
	if cause >= MAX_SYSTEM_EXCEPTION_NUM {
		return er.deflt
	}
	return er.handlers[cause]
}

// Dispatch is the common trap entry. hart is the context the trap was taken
// on, mcause the raw cause register, sp the saved frame pointer. Returns the
// reserved trap-return status word.
func (er *ExcRegistry) Dispatch(hart *Hart, mcause uint32, sp uint32) uint32 {
	excn := mcause & MCAUSE_EXC_MASK

	var handler ExcHandler
	if excn < MAX_SYSTEM_EXCEPTION_NUM {
		handler = er.handlers[excn]
	} else {
		handler = er.deflt
	}
	if handler != nil {
		handler(hart, mcause, sp)
	}
	return 0
}

// systemDefaultExcHandler is the uniform terminal handler: report the fault
// and never come back.
func systemDefaultExcHandler(hart *Hart, mcause uint32, sp uint32) {
	reduced := hart.machine.cfg.ReducedRegs
	hart.ConsolePrintf("MCAUSE : 0x%x\r\n", mcause)
	hart.ConsolePrintf("MEPC   : 0x%x\r\n", ExcFrameRead(hart.bus, sp, reduced, "epc"))
	hart.ConsolePrintf("HARTID : %d\r\n", hart.id)
	DumpExcFrame(hart, sp, reduced)

	if hart.machine.cfg.SimulationMode {
		hart.machine.Stop(1)
		return
	}
	hart.Park()
}
