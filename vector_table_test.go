// vector_table_test.go - Tests for the hardware vector table and entry-point registry

package main

import (
	"errors"
	"testing"
)

// TestEntryRegistryBindResolve verifies bound addresses resolve to their
// handlers and unknown addresses to the fallback
func TestEntryRegistryBindResolve(t *testing.T) {
	fallbackHit := 0
	reg := NewEntryPointRegistry(func(hart *Hart, irq int) { fallbackHit++ })

	hit := 0
	addr := reg.Bind(func(hart *Hart, irq int) { hit++ })
	if addr < ENTRY_WINDOW_BASE || addr >= DEFAULT_INTEXC_ENTRY {
		t.Fatalf("entry address 0x%08X outside the reserved window", addr)
	}

	reg.Resolve(addr)(nil, 0)
	if hit != 1 {
		t.Fatal("bound address did not resolve to its handler")
	}

	reg.Resolve(0xDEAD0000)(nil, 0)
	reg.Resolve(DEFAULT_INTEXC_ENTRY)(nil, 0)
	if fallbackHit != 2 {
		t.Fatalf("fallback ran %d times, want 2 (unknown address and default entry)", fallbackHit)
	}
}

// TestVectorTablePopulate verifies every slot starts at the default entry
// and a fetch from any line lands in the fallback
func TestVectorTablePopulate(t *testing.T) {
	bus := NewMachineBus()
	fallbackHit := 0
	reg := NewEntryPointRegistry(func(hart *Hart, irq int) { fallbackHit++ })
	vt := NewVectorTable(bus, reg)
	vt.Populate()

	for irq := 0; irq < VECTOR_TABLE_SIZE; irq++ {
		if got := vt.GetVector(irq); got != DEFAULT_INTEXC_ENTRY {
			t.Fatalf("slot %d = 0x%08X, want default entry", irq, got)
		}
	}
	vt.Fetch(7)(nil, 7)
	if fallbackHit != 1 {
		t.Fatal("fetch from an unassigned line did not run the fallback")
	}
}

// TestVectorTableSetVector verifies rebinding a line redirects its fetch
// while leaving the others alone
func TestVectorTableSetVector(t *testing.T) {
	bus := NewMachineBus()
	reg := NewEntryPointRegistry(func(hart *Hart, irq int) {})
	vt := NewVectorTable(bus, reg)
	vt.Populate()

	hit := 0
	addr := reg.Bind(func(hart *Hart, irq int) { hit++ })
	if err := vt.SetVector(IRQ_UART0, addr); err != nil {
		t.Fatalf("SetVector: %v", err)
	}

	vt.Fetch(IRQ_UART0)(nil, IRQ_UART0)
	if hit != 1 {
		t.Fatal("rebound line did not fetch the new handler")
	}
	if got := vt.GetVector(IRQ_MTIP); got != DEFAULT_INTEXC_ENTRY {
		t.Fatalf("neighbouring slot disturbed: 0x%08X", got)
	}
}

// TestVectorTableBadIRQ verifies out-of-range lines are rejected
func TestVectorTableBadIRQ(t *testing.T) {
	bus := NewMachineBus()
	vt := NewVectorTable(bus, NewEntryPointRegistry(func(hart *Hart, irq int) {}))
	vt.Populate()

	if err := vt.SetVector(-1, 0); !errors.Is(err, ErrBadIRQ) {
		t.Fatalf("SetVector(-1) = %v, want ErrBadIRQ", err)
	}
	if err := vt.SetVector(VECTOR_TABLE_SIZE, 0); !errors.Is(err, ErrBadIRQ) {
		t.Fatalf("SetVector(%d) = %v, want ErrBadIRQ", VECTOR_TABLE_SIZE, err)
	}
	if got := vt.GetVector(99); got != DEFAULT_INTEXC_ENTRY {
		t.Fatalf("GetVector(99) = 0x%08X, want default entry", got)
	}
}

// TestVectorTableFlashed verifies a read-only table reports rebind failure
// instead of silently not taking effect
func TestVectorTableFlashed(t *testing.T) {
	bus := NewMachineBus()
	reg := NewEntryPointRegistry(func(hart *Hart, irq int) {})
	vt := NewVectorTable(bus, reg)
	vt.Populate()
	bus.MarkReadOnly(VECTOR_TABLE_BASE, VECTOR_TABLE_BASE+VECTOR_TABLE_SIZE*4-1)

	addr := reg.Bind(func(hart *Hart, irq int) {})
	err := vt.SetVector(IRQ_MTIP, addr)
	if !errors.Is(err, ErrVectorReadOnly) {
		t.Fatalf("SetVector on flashed table = %v, want ErrVectorReadOnly", err)
	}
	if got := vt.GetVector(IRQ_MTIP); got != DEFAULT_INTEXC_ENTRY {
		t.Fatalf("flashed slot changed to 0x%08X", got)
	}
}

// TestVectorTableSurvivesSoftReset verifies installed vectors live in RAM
// and keep their bindings across a machine soft reset
func TestVectorTableSurvivesSoftReset(t *testing.T) {
	m := NewMachine(MachineConfig{SimulationMode: true})
	hit := 0
	if err := m.RegisterIRQ(IRQ_UART0, func(h *Hart, irq int) { hit++ }); err != nil {
		t.Fatalf("RegisterIRQ: %v", err)
	}
	installed := m.Vectors().GetVector(IRQ_UART0)

	m.SoftReset()

	if got := m.Vectors().GetVector(IRQ_UART0); got != installed {
		t.Fatalf("vector slot changed across soft reset: 0x%08X -> 0x%08X", installed, got)
	}
	m.Vectors().Fetch(IRQ_UART0)(m.Hart(0), IRQ_UART0)
	if hit != 1 {
		t.Fatal("fetched handler lost its binding across soft reset")
	}
}
