// vector_table.go - Hardware interrupt vector table for the VeridianCore VC100

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
vector_table.go - Hardware Vector Table and Entry-Point Registry

The vector table is 32 word-size entries at a fixed base address, consulted
by the interrupt hardware alone: on an accepted interrupt the hart fetches
the entry word for the line and calls the address it finds, with no software
dispatch and no null check in between. The trap dispatcher never reads it;
interrupts and synchronous exceptions take entirely separate hardware paths.

Because the machine's handlers are Go functions rather than guest code, each
handler is assigned an entry address in a reserved window and the entry-point
registry maps addresses back to functions. This models the symbol layer the
linker provides on silicon: the table stores addresses, the registry knows
what lives at them. A fetched address with nothing bound resolves to the
generic fallback, exactly as a stale vector on hardware lands in whatever
routine occupies the slot's address.

Every slot is populated before execution starts; unassigned lines carry the
fallback entry. On deployments that flash the table, the region is marked
read-only on the bus and rebinding a vector reports failure rather than
appearing to succeed.
*/

package main

import (
	"errors"
	"fmt"
	"sync"
)

// IntHandler is the signature of interrupt entry points: the accepting hart
// and the interrupt line number.
type IntHandler func(hart *Hart, irq int)

var (
	// ErrVectorReadOnly reports a rebind attempt against a flashed table.
	ErrVectorReadOnly = errors.New("vector table is in read-only memory; vectors cannot be rebound at runtime")
	// ErrBadIRQ reports an interrupt number outside the table.
	ErrBadIRQ = errors.New("interrupt number out of range")
)

// EntryPointRegistry allocates entry addresses for Go handlers and resolves
// fetched addresses back to them.
type EntryPointRegistry struct {
	mu       sync.RWMutex
	byAddr   map[uint32]IntHandler
	next     uint32
	fallback IntHandler
}

// NewEntryPointRegistry creates a registry whose unknown addresses resolve
// to fallback. The fallback itself is bound at DEFAULT_INTEXC_ENTRY.
func NewEntryPointRegistry(fallback IntHandler) *EntryPointRegistry {
	r := &EntryPointRegistry{
		byAddr:   make(map[uint32]IntHandler),
		next:     ENTRY_WINDOW_BASE,
		fallback: fallback,
	}
	r.byAddr[DEFAULT_INTEXC_ENTRY] = fallback
	return r
}

// Bind assigns the next free entry address to handler and returns it.
func (r *EntryPointRegistry) Bind(handler IntHandler) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := r.next
	r.next += 4
	if addr >= DEFAULT_INTEXC_ENTRY {
		panic(fmt.Sprintf("entry-point window exhausted at $%08X", addr))
	}
	r.byAddr[addr] = handler
	return addr
}

// Resolve returns the handler at addr, or the fallback when nothing is
// bound there. Never nil: spurious fetches must land somewhere callable.
func (r *EntryPointRegistry) Resolve(addr uint32) IntHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.byAddr[addr]; ok {
		return h
	}
	return r.fallback
}

// VectorTable is the hardware-scanned table itself: a view over the fixed
// word array in machine memory plus the registry that gives fetched
// addresses meaning.
type VectorTable struct {
	bus     *MachineBus
	entries *EntryPointRegistry
	base    uint32
}

// NewVectorTable builds the view at the architectural base address.
func NewVectorTable(bus *MachineBus, entries *EntryPointRegistry) *VectorTable {
	return &VectorTable{bus: bus, entries: entries, base: VECTOR_TABLE_BASE}
}

// Populate binds every slot to the fallback entry. Runs at machine build
// time, before the region may be marked read-only and before any hart runs;
// afterwards every fetch resolves to something callable.
func (vt *VectorTable) Populate() {
	for irq := 0; irq < VECTOR_TABLE_SIZE; irq++ {
		vt.bus.Write32(vt.base+uint32(irq)*4, DEFAULT_INTEXC_ENTRY)
	}
}

// SetVector rebinds the entry for an interrupt line. Fails with
// ErrVectorReadOnly on flashed tables instead of silently not taking
// effect.
func (vt *VectorTable) SetVector(irq int, entry uint32) error {
	if irq < 0 || irq >= VECTOR_TABLE_SIZE {
		return fmt.Errorf("%w: irq %d", ErrBadIRQ, irq)
	}
	slot := vt.base + uint32(irq)*4
	if vt.bus.IsReadOnly(slot) {
		return ErrVectorReadOnly
	}
	if !vt.bus.Write32WithFault(slot, entry) {
		return fmt.Errorf("vector slot $%08X not writable", slot)
	}
	return nil
}

// GetVector returns the entry address currently in the slot.
func (vt *VectorTable) GetVector(irq int) uint32 {
	if irq < 0 || irq >= VECTOR_TABLE_SIZE {
		return DEFAULT_INTEXC_ENTRY
	}
	return vt.bus.Read32(vt.base + uint32(irq)*4)
}

// Fetch is the hardware path: read the entry word for the line and resolve
// it to the routine at that address. No range check beyond the table size
// and no null check, faithfully to the silicon.
func (vt *VectorTable) Fetch(irq int) IntHandler {
	return vt.entries.Resolve(vt.bus.Read32(vt.base + uint32(irq)*4))
}
