// system_config.go - System configuration and boot sequence for the VeridianCore VC100

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
system_config.go - System Configuration and Boot Sequence

The SDK-side boot bring-up: refreshing SystemCoreClock from the clock tree,
printing the boot banner, and the premain initialization order. The clock
tree itself (PLL configuration, source muxing) is an external collaborator:
the core only consumes a frequency in Hz through the ClockSource capability
and treats all tick counts as opaque hardware cycles. Converting ticks to
wall time is the caller's arithmetic, using this frequency.

The premain order is a contract: clock first (the banner prints it), banner
before any trap can fire (a bricked boot should still show who booted), the
exception registry before exceptions are unmasked, interrupt configuration
last. Firmware that re-orders this loses diagnostics on early faults.
*/

package main

// SDK_VERSION is reported by the boot banner.
const SDK_VERSION = "0.9.1"

// ClockSource is the clock-tree capability: the one number the core needs
// from the PLL subsystem.
type ClockSource interface {
	CPUFreq() uint32
}

// fixedClock is the default clock tree of the reference machine: a crystal,
// no PLL, one answer.
type fixedClock uint32

func (c fixedClock) CPUFreq() uint32 { return uint32(c) }

// SetClockSource replaces the clock tree. Takes effect on the next
// SystemCoreClockUpdate.
func (m *Machine) SetClockSource(cs ClockSource) {
	if cs != nil {
		m.clock = cs
	}
}

// SystemCoreClockUpdate refreshes SystemCoreClock from the clock tree. Must
// be called whenever the core clock is changed and once at the start of
// main; a value captured during low-level init may predate the final PLL
// setup.
func (m *Machine) SystemCoreClockUpdate() {
	m.SystemCoreClock = m.clock.CPUFreq()
}

// BannerPrint writes the SDK boot banner to the console.
func (m *Machine) BannerPrint() {
	m.ConsolePrintf("VC100 VeridianCore SDK Version: %s\r\n", SDK_VERSION)
	m.ConsolePrintf("CPU Frequency %d Hz\r\n", m.SystemCoreClock)
	m.ConsolePrintf("CPU HartID: %d\r\n", 0)
}

// ExceptionInit binds every exception registry slot to the default handler.
func (m *Machine) ExceptionInit() {
	m.exc.Init()
}

// InterruptInit is the hook for interrupt-threshold configuration after
// boot. The VC100 reference machine has nothing to set here.
func (m *Machine) InterruptInit() {
}

// PremainInit is the fixed early-init sequence executed right before
// firmware main: clock, banner, exception defaults, interrupt config.
func (m *Machine) PremainInit() {
	m.SystemCoreClockUpdate()
	m.BannerPrint()
	m.ExceptionInit()
	m.InterruptInit()
}
