// trap_frame.go - Saved register frames for the VeridianCore VC100 trap path

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
trap_frame.go - Saved Register Frames

On a synchronous exception the hart pushes the caller-saved register file,
the cause and the faulting pc to its stack and hands the stack pointer to the
trap dispatcher. Two frame layouts exist: the full variant and the reduced
variant of the embedded register-set cores, which carry fewer temporaries and
argument registers. The layouts below are word-for-word the hardware push
order; the dump routine and the test suite both index into them.

This file is shared by both trap policies (stock registry and vendor
dispatcher), so it carries no build tag.
*/

package main

import "fmt"

// ExcHandler is the signature of every exception handler: the executing hart
// (the hardware context the trap was taken on), the raw MCAUSE value and the
// stack pointer of the saved frame.
type ExcHandler func(hart *Hart, mcause uint32, sp uint32)

// Full frame, word offsets from sp.
var excFrameLayout = []string{
	"ra", "tp", "t0", "t1", "t2", "t3", "t4", "t5", "t6",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"cause", "epc",
}

// Reduced frame of the embedded register-set variant.
var excFrameLayoutE = []string{
	"ra", "tp", "t0", "t1", "t2",
	"a0", "a1", "a2", "a3", "a4", "a5",
	"cause", "epc",
}

// ExcFrameWords returns the frame size in words for the given variant.
func ExcFrameWords(reduced bool) int {
	if reduced {
		return len(excFrameLayoutE)
	}
	return len(excFrameLayout)
}

// excFrameField returns the word index of a named field, or -1.
func excFrameField(layout []string, name string) int {
	for i, f := range layout {
		if f == name {
			return i
		}
	}
	return -1
}

// PushExcFrame writes a frame below the hart's stack pointer and returns the
// new sp. regs supplies values by register name; missing registers push as
// zero, which is what an undisturbed register reads as after machine reset.
func PushExcFrame(bus Bus32, sp uint32, reduced bool, cause uint32, epc uint32, regs map[string]uint32) uint32 {
	layout := excFrameLayout
	if reduced {
		layout = excFrameLayoutE
	}
	sp -= uint32(len(layout) * 4)
	for i, name := range layout {
		var v uint32
		switch name {
		case "cause":
			v = cause
		case "epc":
			v = epc
		default:
			v = regs[name]
		}
		bus.Write32(sp+uint32(i*4), v)
	}
	return sp
}

// ExcFrameRead pulls a named field back out of a pushed frame.
func ExcFrameRead(bus Bus32, sp uint32, reduced bool, name string) uint32 {
	layout := excFrameLayout
	if reduced {
		layout = excFrameLayoutE
	}
	idx := excFrameField(layout, name)
	if idx < 0 {
		return 0
	}
	return bus.Read32(sp + uint32(idx*4))
}

// DumpExcFrame formats the saved frame at sp the way the SDK's exception
// report does: temporaries and argument registers on their own lines, cause
// and epc last. The output goes through the hart's console printf so it
// lands on UART0 like every other diagnostic.
func DumpExcFrame(hart *Hart, sp uint32, reduced bool) {
	layout := excFrameLayout
	if reduced {
		layout = excFrameLayoutE
	}
	line := ""
	for i, name := range layout {
		line += fmt.Sprintf("%s: 0x%x", name, hart.bus.Read32(sp+uint32(i*4)))
		// Break lines after the temporaries and after the argument registers.
		last := i == len(layout)-1
		brk := name == "t2" && reduced || name == "t6" && !reduced ||
			name == "a5" && reduced || name == "a7" && !reduced
		if last || brk {
			hart.ConsolePrintf("%s\r\n", line)
			line = ""
		} else {
			line += ", "
		}
	}
}
