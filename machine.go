// machine.go - Machine assembly for the VeridianCore VC100

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
machine.go - Machine Assembly

This module assembles the VC100 machine: bus, system timer unit, UART0,
vector table, exception registry and harts, and runs the machine loop. The
loop ticks the timer and steps each hart in turn; when every hart has parked
or something calls Stop, the loop ends and Run returns the exit status.

Construction order matters and is fixed here: bus first, devices attached,
vector table populated (and optionally flashed), harts wired to their
interrupt sources, then the mapping seal. After sealing, the address space
is immutable; only register state changes.
*/

package main

import (
	"fmt"
	"sync/atomic"
)

// MachineConfig selects the machine variant to assemble.
type MachineConfig struct {
	// NumHarts in [1, MAX_HARTS]. Zero means one.
	NumHarts int
	// SimulationMode makes terminal exception policies stop the machine
	// with a nonzero status instead of parking the hart forever.
	SimulationMode bool
	// FlashedVectors marks the vector table region read-only after
	// population: runtime rebinding fails with ErrVectorReadOnly.
	FlashedVectors bool
	// PrebindVectors installs handlers into the table before it is flashed.
	PrebindVectors map[int]IntHandler
	// ReducedRegs selects the embedded register-set frame layout.
	ReducedRegs bool
	// TicksPerStep is how many timer cycles elapse per machine-loop
	// iteration. Zero means one.
	TicksPerStep uint64
	// ClockHz reported by the clock tree. Zero means SYSTEM_CLOCK.
	ClockHz uint32
}

// Machine is an assembled VC100.
type Machine struct {
	cfg     MachineConfig
	bus     *MachineBus
	timer   *TimerUnit
	uart    *UARTConsole
	entries *EntryPointRegistry
	vectors *VectorTable
	exc     *ExcRegistry
	harts   []*Hart

	// SystemCoreClock is the frequency in Hz last read from the clock
	// tree; see SystemCoreClockUpdate in system_config.go.
	SystemCoreClock uint32
	clock           ClockSource

	running    atomic.Bool
	halted     atomic.Bool
	exitStatus atomic.Int32
}

// NewMachine assembles a machine. The returned machine has not booted:
// call PremainInit (or the pieces of it) before Run.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.NumHarts <= 0 {
		cfg.NumHarts = 1
	}
	if cfg.NumHarts > MAX_HARTS {
		cfg.NumHarts = MAX_HARTS
	}
	if cfg.TicksPerStep == 0 {
		cfg.TicksPerStep = 1
	}
	if cfg.ClockHz == 0 {
		cfg.ClockHz = SYSTEM_CLOCK
	}

	m := &Machine{
		cfg:             cfg,
		bus:             NewMachineBus(),
		uart:            NewUARTConsole(),
		SystemCoreClock: cfg.ClockHz,
		clock:           fixedClock(cfg.ClockHz),
	}
	m.timer = NewTimerUnit(m.SoftReset)
	m.timer.Attach(m.bus)
	m.uart.Attach(m.bus)

	m.entries = NewEntryPointRegistry(defaultIntExcHandler)
	m.vectors = NewVectorTable(m.bus, m.entries)
	m.vectors.Populate()
	for irq, handler := range cfg.PrebindVectors {
		if err := m.vectors.SetVector(irq, m.entries.Bind(handler)); err != nil {
			panic(fmt.Sprintf("prebind vector irq %d: %v", irq, err))
		}
	}
	if cfg.FlashedVectors {
		m.bus.MarkReadOnly(VECTOR_TABLE_BASE, VECTOR_TABLE_BASE+VECTOR_TABLE_SIZE*4-1)
	}

	m.exc = NewExcRegistry(systemDefaultExcHandler)

	for id := 0; id < cfg.NumHarts; id++ {
		h := NewHart(m, id)
		hartid := id
		h.irqc.AttachSource(IRQ_MSIP, func() bool { return m.timer.MSIPPending(hartid) })
		h.irqc.AttachSource(IRQ_MTIP, func() bool { return m.timer.MTIPPending(hartid) })
		if id == 0 {
			h.irqc.AttachSource(IRQ_UART0, m.uart.RXPending)
		}
		m.harts = append(m.harts, h)
	}
	return m
}

// Bus returns the machine bus.
func (m *Machine) Bus() *MachineBus { return m.bus }

// Timer returns the system timer unit.
func (m *Machine) Timer() *TimerUnit { return m.timer }

// UART returns the UART0 console device.
func (m *Machine) UART() *UARTConsole { return m.uart }

// Vectors returns the hardware vector table.
func (m *Machine) Vectors() *VectorTable { return m.vectors }

// Exceptions returns the exception registry.
func (m *Machine) Exceptions() *ExcRegistry { return m.exc }

// Hart returns the hart with the given id.
func (m *Machine) Hart(id int) *Hart { return m.harts[id] }

// NumHarts returns the hart count.
func (m *Machine) NumHarts() int { return len(m.harts) }

// RegisterIRQ binds a handler to an interrupt line: assign it an entry
// address, install that address in the vector table, and enable the line at
// hart 0's IRQ unit. Fails on invalid lines and on flashed vector tables;
// a failed registration has no partial effect.
func (m *Machine) RegisterIRQ(irq int, handler IntHandler) error {
	return m.RegisterHartIRQ(irq, 0, handler)
}

// RegisterHartIRQ is RegisterIRQ with the line enabled at an explicit
// hart's IRQ unit. The vector table is shared; the enable is per hart.
func (m *Machine) RegisterHartIRQ(irq int, hartid int, handler IntHandler) error {
	if irq < 0 || irq >= SOC_INT_MAX {
		return fmt.Errorf("%w: irq %d", ErrBadIRQ, irq)
	}
	if hartid < 0 || hartid >= len(m.harts) {
		return fmt.Errorf("no hart %d", hartid)
	}
	if handler != nil {
		if err := m.vectors.SetVector(irq, m.entries.Bind(handler)); err != nil {
			return err
		}
	}
	m.harts[hartid].irqc.EnableIRQ(irq)
	return nil
}

// ConsolePrintf is machine-level console output (banner, boot messages);
// same UART path the harts use.
func (m *Machine) ConsolePrintf(format string, args ...any) {
	consoleWrite(m.bus, fmt.Sprintf(format, args...))
}

// Run seals the address space and runs the machine loop for at most
// maxSteps iterations (maxSteps <= 0 means until stopped). Returns the
// exit status: whatever Stop was given, or 0 when the loop ran out of
// steps or every hart parked.
func (m *Machine) Run(maxSteps int) int {
	m.bus.SealMappings()
	m.running.Store(true)

	for steps := 0; !m.halted.Load(); steps++ {
		if maxSteps > 0 && steps >= maxSteps {
			break
		}
		m.timer.Tick(m.cfg.TicksPerStep)

		allParked := true
		for _, h := range m.harts {
			h.Step()
			if h.State() != HART_PARKED {
				allParked = false
			}
		}
		if allParked {
			break
		}
	}
	m.running.Store(false)
	return int(m.exitStatus.Load())
}

// Stop ends the machine loop with the given exit status. The simulation
// harness maps a faulting default-handler invocation onto a nonzero status
// through this.
func (m *Machine) Stop(status int) {
	m.exitStatus.Store(int32(status))
	m.halted.Store(true)
}

// Stopped reports whether Stop has been called. The latch sticks whether or
// not the machine loop was running at the time, so a fault taken during
// bring-up still halts the subsequent Run.
func (m *Machine) Stopped() bool {
	return m.halted.Load()
}

// Running reports whether the machine loop is currently executing.
func (m *Machine) Running() bool {
	return m.running.Load()
}

// defaultIntExcHandler is the generic fallback entry bound to every vector
// slot without an assigned device. Spurious interrupts are reported and
// the hart carries on; a spurious line must never take the machine down.
func defaultIntExcHandler(hart *Hart, irq int) {
	hart.ConsolePrintf("spurious irq %d on hart %d\r\n", irq, hart.id)
	hart.irqc.DisableIRQ(irq)
}
