// irq_unit.go - Per-hart interrupt request unit for the VeridianCore VC100

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
irq_unit.go - Interrupt Request Unit

Each hart owns one IRQ unit: 32 lines, an enable mask, per-line level and
delivery-mode attribute words, a pending latch for edge sources and sampled
level sources wired in from devices (the timer unit's MTIP/MSIP levels, the
UART receive watermark).

The unit implements the IRQController capability the driver layer programs
through. Deliberately absent: nesting, preemption thresholds and priority
arithmetic between simultaneously pending lines beyond lowest-number-wins.
That logic belongs to a full interrupt controller, which the VC100 core
consumes as an external capability and does not model. The level and mode
words are stored for readback and inspection, not interpreted.
*/

package main

import "sync"

// IRQUnit is a hart's interrupt request unit.
type IRQUnit struct {
	mu      sync.Mutex
	enabled uint32
	latch   uint32
	level   [SOC_INT_MAX]uint8
	mode    [SOC_INT_MAX]uint8
	sources [SOC_INT_MAX]func() bool
}

// NewIRQUnit returns a unit with all lines disabled and nothing pending.
func NewIRQUnit() *IRQUnit {
	return &IRQUnit{}
}

// AttachSource wires a level line: fn is sampled on every pending query.
// Called at machine build time only.
func (iu *IRQUnit) AttachSource(irq int, fn func() bool) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.sources[irq] = fn
	}
}

// EnableIRQ unmasks a line.
func (iu *IRQUnit) EnableIRQ(irq int) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.enabled |= 1 << irq
	}
}

// DisableIRQ masks a line.
func (iu *IRQUnit) DisableIRQ(irq int) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.enabled &^= 1 << irq
	}
}

// IRQEnabled reports whether a line is unmasked.
func (iu *IRQUnit) IRQEnabled(irq int) bool {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	return irq >= 0 && irq < SOC_INT_MAX && iu.enabled&(1<<irq) != 0
}

// SetLevelIRQ stores the line's level attribute word.
func (iu *IRQUnit) SetLevelIRQ(irq int, level uint8) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.level[irq] = level
	}
}

// SetShvIRQ stores the line's delivery mode (vectored/non-vectored).
func (iu *IRQUnit) SetShvIRQ(irq int, mode uint8) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.mode[irq] = mode
	}
}

// GetLevelIRQ returns the stored level attribute.
func (iu *IRQUnit) GetLevelIRQ(irq int) uint8 {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq < 0 || irq >= SOC_INT_MAX {
		return 0
	}
	return iu.level[irq]
}

// GetShvIRQ returns the stored delivery mode.
func (iu *IRQUnit) GetShvIRQ(irq int) uint8 {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq < 0 || irq >= SOC_INT_MAX {
		return 0
	}
	return iu.mode[irq]
}

// Pend latches an edge on a line with no level source.
func (iu *IRQUnit) Pend(irq int) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.latch |= 1 << irq
	}
}

// ClearPend drops a latched edge.
func (iu *IRQUnit) ClearPend(irq int) {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	if irq >= 0 && irq < SOC_INT_MAX {
		iu.latch &^= 1 << irq
	}
}

// NextPending returns the lowest-numbered enabled line that is pending,
// either from its sampled level source or the edge latch, or -1 when no
// line wants service.
func (iu *IRQUnit) NextPending() int {
	iu.mu.Lock()
	enabled := iu.enabled
	latch := iu.latch
	var sources [SOC_INT_MAX]func() bool
	copy(sources[:], iu.sources[:])
	iu.mu.Unlock()

	// Level sources are sampled outside the lock: they reach into other
	// devices (timer unit, UART) that take their own locks.
	for irq := 0; irq < SOC_INT_MAX; irq++ {
		if enabled&(1<<irq) == 0 {
			continue
		}
		if latch&(1<<irq) != 0 {
			return irq
		}
		if sources[irq] != nil && sources[irq]() {
			return irq
		}
	}
	return -1
}

// Reset masks everything and clears the latch and attribute words. Attached
// sources survive, as the wiring is physical.
func (iu *IRQUnit) Reset() {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	iu.enabled = 0
	iu.latch = 0
	for i := range iu.level {
		iu.level[i] = 0
		iu.mode[i] = 0
	}
}
