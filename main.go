// main.go - Main entry point for the VeridianCore VC100 machine

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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func boilerPlate() {
	fmt.Println("\033[38;2;80;200;120m__     __        _     _ _              ____\033[0m")
	fmt.Println("\033[38;2;80;200;120m\\ \\   / /__ _ __(_) __| (_) __ _ _ __  / ___|___  _ __ ___\033[0m")
	fmt.Println("\033[38;2;90;210;130m \\ \\ / / _ \\ '__| |/ _` | |/ _` | '_ \\| |   / _ \\| '__/ _ \\\033[0m")
	fmt.Println("\033[38;2;100;220;140m  \\ V /  __/ |  | | (_| | | (_| | | | | |__| (_) | | |  __/\033[0m")
	fmt.Println("\033[38;2;110;230;150m   \\_/ \\___|_|  |_|\\__,_|_|\\__,_|_| |_|\\____\\___/|_|  \\___|\033[0m")
	fmt.Println("\n(c) 2025 - 2026 Veridian Silicon Works")
	fmt.Println("https://github.com/veridiansilicon/VeridianCore")
}

func main() {
	boilerPlate()

	var (
		harts       int
		period      uint64
		steps       int
		demo        string
		flashed     bool
		interactive bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&harts, "harts", 2, "Number of harts (1-8)")
	flagSet.Uint64Var(&period, "period", 1000, "SysTick period in timer cycles")
	flagSet.IntVar(&steps, "steps", 200000, "Machine loop step budget (0 = run until stopped)")
	flagSet.StringVar(&demo, "demo", "systick", "Demo to run: systick, ipi, fault, reset")
	flagSet.BoolVar(&flashed, "flashed", false, "Flash the vector table (rebinding fails)")
	flagSet.BoolVar(&interactive, "interactive", false, "Attach raw-mode stdin to UART0")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./veridian_core [-harts N] [-period CYCLES] [-steps N] [-demo systick|ipi|fault|reset] [-flashed] [-interactive]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	m := NewMachine(MachineConfig{
		NumHarts:       harts,
		SimulationMode: true,
		FlashedVectors: flashed,
	})
	m.PremainInit()

	var host *TerminalHost
	if interactive {
		host = NewTerminalHost(m.UART())
		host.Start()
	}

	status := 0
	switch demo {
	case "systick":
		status = runSysTickDemo(m, period, steps)
	case "ipi":
		status = runIPIDemo(m, steps)
	case "fault":
		status = runFaultDemo(m, steps)
	case "reset":
		status = runResetDemo(m, steps)
	default:
		fmt.Printf("Error: unknown demo %q\n", demo)
		os.Exit(1)
	}

	if host != nil {
		host.PrintOutput()
		host.Stop()
	} else {
		fmt.Print(m.UART().DrainOutput())
	}
	os.Exit(status)
}

// runSysTickDemo arms a periodic tick on hart 0 and lets it fire ten times.
// The handler reloads the compare register each time, exactly as firmware
// tick handlers do.
func runSysTickDemo(m *Machine, period uint64, steps int) int {
	const fireTarget = 10
	fired := 0

	hart0 := m.Hart(0)
	systick := NewSysTick(hart0.Timer(), hart0.IRQ())

	err := m.RegisterIRQ(IRQ_MTIP, func(h *Hart, irq int) {
		fired++
		h.ConsolePrintf("tick %d at cycle %d\r\n", fired, h.Timer().GetLoadValue())
		if fired >= fireTarget {
			h.machine.Stop(0)
			return
		}
		systick.Reload(period)
	})
	if err != nil {
		fmt.Printf("Error: register tick handler: %v\n", err)
		return 1
	}

	systick.Config(period)
	return m.Run(steps)
}

// runIPIDemo has hart 0 wake hart 1 through the software-interrupt path.
func runIPIDemo(m *Machine, steps int) int {
	if m.NumHarts() < 2 {
		fmt.Println("Error: ipi demo needs at least 2 harts")
		return 1
	}

	err := m.RegisterHartIRQ(IRQ_MSIP, 1, func(h *Hart, irq int) {
		h.ConsolePrintf("hart %d woke on IPI\r\n", h.ID())
		h.Timer().ClearSWIRQ()
		h.machine.Stop(0)
	})
	if err != nil {
		fmt.Printf("Error: register IPI handler: %v\n", err)
		return 1
	}

	m.Hart(1).WaitForInterrupt()
	m.Hart(0).Timer().SendIPI(1)
	return m.Run(steps)
}

// runFaultDemo takes an illegal-instruction exception with no registered
// handler; the default handler dumps the frame and, in simulation mode,
// stops the machine with a nonzero status.
func runFaultDemo(m *Machine, steps int) int {
	m.Hart(0).RaiseException(EXC_INSN_ILLEGAL, 0x1234, map[string]uint32{
		"ra": 0x2000, "a0": 0xDEADBEEF,
	})
	return m.Run(steps)
}

// runResetDemo requests a software reset through the timer unit and prints
// the banner again from the freshly reset machine.
func runResetDemo(m *Machine, steps int) int {
	m.Bus().Write32(TIMER_BASE+TIMER_MSFTRST_OFS, MSFRST_KEY)
	m.BannerPrint()
	return 0
}
