// machine_bus.go - Machine bus for the VeridianCore VC100

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
machine_bus.go - Machine Bus for the VC100

This module implements the 32-bit memory bus that the VC100 harts and units
hang off. It provides little-endian 8/16/32-bit access to a contiguous block
of main RAM, memory-mapped I/O dispatch through a page-masked region table,
and an optional read-only range used when the vector table is flashed.

Core Features:

    4MB of main memory allocated as a contiguous block.
    Memory-mapped I/O via a region mapping table keyed by 256-byte page.
    I/O regions may live anywhere in the 32-bit address space, including
    above the RAM limit (the timer unit sits at 0x02000000).
    Little-endian read/write operations for 8/16/32-bit data.
    Faulting access variants that report out-of-bounds and read-only
    violations to the hart instead of silently dropping them.
    A seal that forbids further I/O mapping once execution begins.

The narrow-bus property the timer protocols depend on falls out of the
design: there is no 64-bit access path. A 64-bit register on this bus is two
words, full stop, and anything that reads or writes one as two operations can
observe or produce mid-update states. The driver-side ordering protocols in
timer_driver.go exist precisely because of this.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// Bus32 defines the memory operations available to harts and units of the
// VC100. Implementations must support memory-mapped I/O dispatch.
type Bus32 interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
	GetMemory() []byte
}

// IORegion represents a memory-mapped I/O region. Each region is defined by
// its start and end addresses and callback functions invoked when an access
// falls within the region's boundaries.
type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

// MachineBus implements Bus32 and serves as the primary memory bus of the
// VC100 machine model.
//
// The I/O mapping table is built during machine construction and sealed
// before any hart runs; after sealing it is read-only and accessed without
// locks from the machine loop and host goroutines alike.
type MachineBus struct {
	memory  []byte
	mapping map[uint32][]IORegion

	// Read-only ranges. Writes that land here fail with a store fault
	// instead of taking effect (flashed vector table deployments).
	romRanges [][2]uint32

	// Sealed state to prevent I/O mapping after execution has started.
	sealed atomic.Bool
}

// NewMachineBus initialises and returns a new MachineBus with 4MB of RAM and
// an empty I/O mapping table.
func NewMachineBus() *MachineBus {
	return &MachineBus{
		memory:  make([]byte, DEFAULT_MEMORY_SIZE),
		mapping: make(map[uint32][]IORegion),
	}
}

// SealMappings prevents further MapIO and MarkReadOnly calls. Called when
// execution starts so units cannot remap live address space.
func (bus *MachineBus) SealMappings() {
	bus.sealed.Store(true)
}

// MapIO registers an I/O region spanning [start, end] with the given read
// and write callbacks. Either callback may be nil; accesses of that kind
// then fall through to RAM (or read as zero above the RAM limit).
func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	if bus.sealed.Load() {
		panic(fmt.Sprintf("MapIO called after execution started (mapping range $%08X-$%08X)", start, end))
	}
	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}

	firstPage := start & PAGE_MASK
	lastPage := end & PAGE_MASK
	for page := firstPage; page <= lastPage; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
	}
}

// MarkReadOnly declares [start, end] as flashed memory. Subsequent faulting
// writes inside the range fail; plain writes are dropped.
func (bus *MachineBus) MarkReadOnly(start, end uint32) {
	if bus.sealed.Load() {
		panic(fmt.Sprintf("MarkReadOnly called after execution started (range $%08X-$%08X)", start, end))
	}
	bus.romRanges = append(bus.romRanges, [2]uint32{start, end})
}

// IsReadOnly reports whether addr falls in a flashed range.
func (bus *MachineBus) IsReadOnly(addr uint32) bool {
	for _, r := range bus.romRanges {
		if addr >= r[0] && addr <= r[1] {
			return true
		}
	}
	return false
}

func (bus *MachineBus) ioRegionFor(addr uint32) *IORegion {
	regions, exists := bus.mapping[addr&PAGE_MASK]
	if !exists {
		return nil
	}
	for i := range regions {
		if addr >= regions[i].start && addr <= regions[i].end {
			return &regions[i]
		}
	}
	return nil
}

// Read32 reads a 32-bit little-endian word, dispatching to I/O regions
// before touching RAM. Reads above the RAM limit with no region return 0.
func (bus *MachineBus) Read32(addr uint32) uint32 {
	value, _ := bus.Read32WithFault(addr)
	return value
}

// Read32WithFault is Read32 with an explicit ok result; ok is false when the
// access hit neither an I/O region nor RAM.
func (bus *MachineBus) Read32WithFault(addr uint32) (uint32, bool) {
	if region := bus.ioRegionFor(addr); region != nil && region.onRead != nil {
		return region.onRead(addr), true
	}
	if addr+4 <= uint32(len(bus.memory)) {
		return binary.LittleEndian.Uint32(bus.memory[addr : addr+4]), true
	}
	return 0, false
}

// Write32 writes a 32-bit little-endian word, dispatching to I/O regions
// before touching RAM. Writes to unmapped space or flashed ranges are
// dropped.
func (bus *MachineBus) Write32(addr uint32, value uint32) {
	bus.Write32WithFault(addr, value)
}

// Write32WithFault is Write32 with an explicit ok result; ok is false when
// the write landed in unmapped space or a flashed range.
func (bus *MachineBus) Write32WithFault(addr uint32, value uint32) bool {
	if region := bus.ioRegionFor(addr); region != nil && region.onWrite != nil {
		region.onWrite(addr, value)
		return true
	}
	if bus.IsReadOnly(addr) {
		return false
	}
	if addr+4 <= uint32(len(bus.memory)) {
		binary.LittleEndian.PutUint32(bus.memory[addr:addr+4], value)
		return true
	}
	return false
}

// Read16 reads a 16-bit little-endian value. I/O regions see a 32-bit read
// and the result is truncated, matching how the narrow peripherals decode.
func (bus *MachineBus) Read16(addr uint32) uint16 {
	if region := bus.ioRegionFor(addr); region != nil && region.onRead != nil {
		return uint16(region.onRead(addr))
	}
	if addr+2 <= uint32(len(bus.memory)) {
		return binary.LittleEndian.Uint16(bus.memory[addr : addr+2])
	}
	return 0
}

// Write16 writes a 16-bit little-endian value.
func (bus *MachineBus) Write16(addr uint32, value uint16) {
	if region := bus.ioRegionFor(addr); region != nil && region.onWrite != nil {
		region.onWrite(addr, uint32(value))
		return
	}
	if bus.IsReadOnly(addr) {
		return
	}
	if addr+2 <= uint32(len(bus.memory)) {
		binary.LittleEndian.PutUint16(bus.memory[addr:addr+2], value)
	}
}

// Read8 reads a single byte.
func (bus *MachineBus) Read8(addr uint32) uint8 {
	if region := bus.ioRegionFor(addr); region != nil && region.onRead != nil {
		return uint8(region.onRead(addr))
	}
	if addr < uint32(len(bus.memory)) {
		return bus.memory[addr]
	}
	return 0
}

// Write8 writes a single byte.
func (bus *MachineBus) Write8(addr uint32, value uint8) {
	if region := bus.ioRegionFor(addr); region != nil && region.onWrite != nil {
		region.onWrite(addr, uint32(value))
		return
	}
	if bus.IsReadOnly(addr) {
		return
	}
	if addr < uint32(len(bus.memory)) {
		bus.memory[addr] = value
	}
}

// Reset clears main memory. I/O mappings and flashed ranges survive a reset;
// devices reset their own state through the component reset path.
func (bus *MachineBus) Reset() {
	clear(bus.memory)
}

// GetMemory exposes the backing RAM slice for direct access by harts.
func (bus *MachineBus) GetMemory() []byte {
	return bus.memory
}
