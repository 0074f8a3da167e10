// uart_console.go - UART0 console device for the VeridianCore VC100

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
uart_console.go - UART0 Console

The VC100's debug console: a small FIFO UART with the register layout in
registers.go. The banner, exception reports and firmware printf all leave
the machine through TXFIFO; host input arrives through RouteHostKey (wired
to the raw-mode terminal host in interactive runs, or poked directly by
tests) and queues up behind RXFIFO.

The transmit side never fills in this model; TXFIFO reads always report
space available. Output accumulates in a buffer the host adapter drains.
The receive watermark interrupt is a level line: pending while the receive
queue is non-empty and the watermark interrupt is enabled in IE.
*/

package main

import "sync"

// UARTConsole models UART0 as a bus device.
type UARTConsole struct {
	mu sync.Mutex

	txctrl uint32
	rxctrl uint32
	ie     uint32
	div    uint32

	rxBuf []byte

	// Output buffer, drained by the terminal host or tests.
	outputBuf []byte
}

// NewUARTConsole returns a console with transmit and receive enabled, as
// the boot ROM leaves it.
func NewUARTConsole() *UARTConsole {
	return &UARTConsole{txctrl: UART_TXEN, rxctrl: UART_RXEN}
}

// Attach maps the UART register block onto the bus.
func (u *UARTConsole) Attach(bus *MachineBus) {
	bus.MapIO(UART0_BASE, UART0_END, u.HandleRead, u.HandleWrite)
}

// HandleRead decodes a register read.
func (u *UARTConsole) HandleRead(addr uint32) uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch addr - UART0_BASE {
	case UART_TXFIFO_OFS:
		return 0 // bit 31 clear: transmit FIFO never full here
	case UART_RXFIFO_OFS:
		if len(u.rxBuf) == 0 {
			return 0x80000000 // bit 31: FIFO empty
		}
		b := u.rxBuf[0]
		u.rxBuf = u.rxBuf[1:]
		return uint32(b)
	case UART_TXCTRL_OFS:
		return u.txctrl
	case UART_RXCTRL_OFS:
		return u.rxctrl
	case UART_IE_OFS:
		return u.ie
	case UART_IP_OFS:
		if len(u.rxBuf) > 0 {
			return UART_IP_RXWM
		}
		return 0
	case UART_DIV_OFS:
		return u.div
	}
	return 0
}

// HandleWrite decodes a register write.
func (u *UARTConsole) HandleWrite(addr uint32, value uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch addr - UART0_BASE {
	case UART_TXFIFO_OFS:
		if u.txctrl&UART_TXEN != 0 {
			u.outputBuf = append(u.outputBuf, byte(value))
		}
	case UART_TXCTRL_OFS:
		u.txctrl = value
	case UART_RXCTRL_OFS:
		u.rxctrl = value
	case UART_IE_OFS:
		u.ie = value
	case UART_DIV_OFS:
		u.div = value
	}
}

// RouteHostKey queues one byte of host input behind RXFIFO.
func (u *UARTConsole) RouteHostKey(b byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rxctrl&UART_RXEN != 0 {
		u.rxBuf = append(u.rxBuf, b)
	}
}

// RXPending reports the level of the receive watermark interrupt line.
func (u *UARTConsole) RXPending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ie&UART_IP_RXWM != 0 && len(u.rxBuf) > 0
}

// DrainOutput returns and clears everything transmitted since the last
// drain.
func (u *UARTConsole) DrainOutput() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := string(u.outputBuf)
	u.outputBuf = u.outputBuf[:0]
	return out
}

// Reset returns the UART to boot state and discards both queues.
func (u *UARTConsole) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.txctrl = UART_TXEN
	u.rxctrl = UART_RXEN
	u.ie = 0
	u.div = 0
	u.rxBuf = nil
	u.outputBuf = u.outputBuf[:0]
}
