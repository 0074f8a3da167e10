// registers.go - Memory map and register reference for the VeridianCore VC100

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
registers.go - Master Memory Map Reference for the VC100

This file provides a centralized reference for all memory-mapped regions of
the VC100 machine model. Individual units define their behaviour in their own
files; the addresses and bit layouts below are the hardware contract and must
not drift, because driver code computes register addresses from them and real
VC100 firmware images bake them in.

MEMORY MAP OVERVIEW
===================

Address Range           Size    Region              File
---------------------------------------------------------------------------
0x00000000-0x003FFFFF   4MB     Main RAM            machine_bus.go
0x00000000-0x0000007F   128B    Vector table        vector_table.go
0x000F0000-0x000FFFFF   64KB    Entry-point window  vector_table.go
0x02000000-0x02005FFF   24KB    System timer unit   timer_unit.go
0x10013000-0x1001301B   28B     UART0               uart_console.go

SYSTEM TIMER UNIT (0x02000000) - timer_unit.go
==============================================

The timer unit carries the hart-0 register block plus CLINT-style alias
windows for the per-hart compare and software-interrupt words. All registers
are accessed as 32-bit words on the bus; the 64-bit MTIMER and MTIMERCMP
registers are addressable only as low/high halves, with no atomicity across
the pair. The tear-free access protocols live in timer_driver.go.

  +0x0000  MTIMER lo     Free-running counter, low word
  +0x0004  MTIMER hi     Free-running counter, high word
  +0x0008  MTIMERCMP lo  Hart 0 compare, low word
  +0x000C  MTIMERCMP hi  Hart 0 compare, high word
  +0x0018  MSFTRST       Software reset request (write MSFRST_KEY)
  +0x0020  MTIMECTL      Control word (TIMESTOP/CMPCLREN/CLKSRC)
  +0x0024  MSIP          Hart 0 software-interrupt pending word

  +0x1000 + hartid*4     Per-hart MSIP alias words
  +0x5000 + hartid*8     Per-hart MTIMERCMP alias pairs

Hart 0 is reachable both through the in-block registers and through its alias
slot; both decode to the same storage, as on the silicon.
*/

package main

const (
	// Main RAM
	DEFAULT_MEMORY_SIZE = 4 * 1024 * 1024
	PAGE_SIZE           = 0x100
	PAGE_MASK           = 0xFFFFFF00

	MAX_HARTS = 8
)

// ------------------------------------------------------------------------------
// Vector table and entry-point window
// ------------------------------------------------------------------------------
const (
	VECTOR_TABLE_BASE = 0x00000000 // Hardware-scanned interrupt vector table
	VECTOR_TABLE_SIZE = 32         // Entries, one word each

	// Synthetic entry-point window. Handler entry addresses handed to the
	// vector table and the IRQ unit live here; the machine resolves them back
	// to Go handlers through the entry-point registry in vector_table.go.
	ENTRY_WINDOW_BASE = 0x000F0000
	ENTRY_WINDOW_END  = 0x000FFFFF

	// Entry address of the generic fallback handler bound to every vector
	// slot that has no assigned device.
	DEFAULT_INTEXC_ENTRY = 0x000FFFF0

	// Per-hart stacks grow down from here, one 64KB window per hart.
	STACK_TOP_BASE   = 0x003F0000
	STACK_WINDOW_LEN = 0x00010000
)

// ------------------------------------------------------------------------------
// System timer unit
// ------------------------------------------------------------------------------
const (
	TIMER_BASE = 0x02000000
	TIMER_END  = TIMER_BASE + TIMER_CLINT_MTIMECMP_OFS + MAX_HARTS*8 - 1

	TIMER_MTIMER_OFS    = 0x0000
	TIMER_MTIMERCMP_OFS = 0x0008
	TIMER_MSFTRST_OFS   = 0x0018
	TIMER_MTIMECTL_OFS  = 0x0020
	TIMER_MSIP_OFS      = 0x0024

	// CLINT alias windows, offsets relative to TIMER_BASE.
	TIMER_CLINT_MSIP_OFS        = 0x1000 // + hartid*4
	TIMER_CLINT_MTIMECMP_OFS    = 0x5000 // + hartid*8
	TIMER_CLINT_MSIP_STRIDE     = 4
	TIMER_CLINT_MTIMECMP_STRIDE = 8

	// MSFTRST unlock key. Any other value written to MSFTRST is ignored.
	MSFRST_KEY = 0x80000A5F

	// MTIMECTL bits
	MTIMECTL_TIMESTOP_MSK = 0x1 // 1 = counter frozen
	MTIMECTL_CMPCLREN_MSK = 0x2 // 1 = auto-clear MTIMER when MTIMER >= MTIMERCMP
	MTIMECTL_CLKSRC_MSK   = 0x4 // 0 = mtime toggle, 1 = always-on core clock
	MTIMECTL_MSK          = MTIMECTL_TIMESTOP_MSK | MTIMECTL_CMPCLREN_MSK | MTIMECTL_CLKSRC_MSK

	// MSIP bit
	MSIP_MSIP_MSK = 0x1
)

// ------------------------------------------------------------------------------
// UART0 console
// ------------------------------------------------------------------------------
const (
	UART0_BASE = 0x10013000
	UART0_END  = UART0_BASE + 0x1B

	UART_TXFIFO_OFS = 0x00 // Write: transmit byte. Read: bit 31 = TX full
	UART_RXFIFO_OFS = 0x04 // Read: bit 31 = RX empty, bits 7:0 = data
	UART_TXCTRL_OFS = 0x08
	UART_RXCTRL_OFS = 0x0C
	UART_IE_OFS     = 0x10
	UART_IP_OFS     = 0x14
	UART_DIV_OFS    = 0x18

	UART_TXEN    = 0x1
	UART_RXEN    = 0x1
	UART_IP_RXWM = 0x2
)

// ------------------------------------------------------------------------------
// Interrupt numbers (vector table index)
// ------------------------------------------------------------------------------
const (
	IRQ_MSIP  = 0 // Software interrupt, per hart, from the timer unit MSIP word
	IRQ_MTIP  = 1 // Timer compare interrupt, per hart
	IRQ_UART0 = 2 // UART0 receive watermark
	// 3..31: external lines, unassigned on the reference machine

	SOC_INT_MAX = 32
)

// ------------------------------------------------------------------------------
// Synchronous exception cause codes (MCAUSE low bits)
// ------------------------------------------------------------------------------
const (
	EXC_INSN_MISALIGNED  = 0
	EXC_INSN_ACCESS      = 1
	EXC_INSN_ILLEGAL     = 2
	EXC_BREAKPOINT       = 3
	EXC_LOAD_MISALIGNED  = 4
	EXC_LOAD_ACCESS      = 5
	EXC_STORE_MISALIGNED = 6
	EXC_STORE_ACCESS     = 7
	EXC_ECALL_U          = 8
	EXC_ECALL_S          = 9
	EXC_RESERVED_10      = 10
	EXC_ECALL_M          = 11

	// Number of registry slots. Cause codes at or above this fall through to
	// the default handler in the dispatcher.
	MAX_SYSTEM_EXCEPTION_NUM = 12

	// The dispatcher masks MCAUSE to its low 12 bits before indexing.
	MCAUSE_EXC_MASK = 0x00000FFF
)

// Default core clock in Hz, until SystemCoreClockUpdate asks the clock tree.
const SYSTEM_CLOCK = 16000000
