//go:build vendorexc

// trap_core_vendor.go - Vendor-dispatcher trap policy for the VeridianCore VC100

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
trap_core_vendor.go - Vendor Trap Policy

Built with -tags vendorexc, this file replaces the stock exception registry
wholesale: integrators bringing their own trap dispatcher link this instead
of trap_core.go. The stock table is compiled out, Init is a no-op, and the
default behaviour collapses to parking the hart on any exception. Register
and Get keep their signatures so firmware that only conditionally registers
handlers still builds, but they are inert.
*/

package main

// ExcRegistry under the vendor policy carries no table.
type ExcRegistry struct {
	deflt ExcHandler
}

// NewExcRegistry returns the inert vendor registry. The deflt argument is
// accepted for interface parity and ignored; the vendor policy always parks.
func NewExcRegistry(deflt ExcHandler) *ExcRegistry {
	return &ExcRegistry{deflt: vendorParkHandler}
}

// Init is a no-op under the vendor policy.
func (er *ExcRegistry) Init() {}

// Register is inert under the vendor policy.
func (er *ExcRegistry) Register(cause uint32, handler ExcHandler) {}

// Get always resolves to the park handler.
func (er *ExcRegistry) Get(cause uint32) ExcHandler {
	return er.deflt
}

// Dispatch parks the hart on any exception. The status word stays reserved.
func (er *ExcRegistry) Dispatch(hart *Hart, mcause uint32, sp uint32) uint32 {
	er.deflt(hart, mcause, sp)
	return 0
}

func vendorParkHandler(hart *Hart, mcause uint32, sp uint32) {
	if hart.machine.cfg.SimulationMode {
		hart.machine.Stop(1)
		return
	}
	hart.Park()
}

// systemDefaultExcHandler under the vendor policy is the park handler; the
// machine assembly passes it to NewExcRegistry in both build configurations.
func systemDefaultExcHandler(hart *Hart, mcause uint32, sp uint32) {
	vendorParkHandler(hart, mcause, sp)
}
