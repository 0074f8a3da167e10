// component_reset.go - Soft reset fan-out for the VeridianCore VC100

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
component_reset.go - Soft Reset Fan-Out

A software reset is requested by writing the unlock key to MSFTRST in the
timer unit; the unit latches the request and calls into here. The SoC then
does what the reset controller does on silicon: every device returns to
power-on register state, every hart restarts at the top of its stack window
in the running state (parked harts included; reset is the one thing that
revives them).

RAM content is preserved across a soft reset, so the vector table keeps
whatever was installed before the reset. I/O mappings and flashed ranges
are physical wiring and survive as well.
*/

package main

// SoftReset performs the SoC-side reset the MSFTRST write requested.
// Firmware that triggered it never sees it return: the driver's
// SoftwareReset parks its caller unconditionally after the register write.
func (m *Machine) SoftReset() {
	m.uart.Reset()
	m.timer.Reset()
	for _, h := range m.harts {
		h.irqc.Reset()
		h.resume()
	}
	// The exception registry re-binds its defaults exactly as it did on
	// the first boot.
	m.exc.Init()
}
