// Command emu is the headless host driver: it wires a bootrom, DRAM, and
// a UART MMIO page into a Memory per spec.md's canonical memory map and
// runs the CPU to completion or a breakpoint.
//
// Grounded on the teacher's cmd/-binary convention (several small main
// packages driving the shared engine), and on golang.org/x/term for
// putting the host terminal into raw mode so UART output isn't mangled
// by line buffering.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/rv64emu/emu64"
)

const (
	bootromVirt = 0x0000_1000
	dramVirt    = 0x8000_0000
	dramSize    = 0x1000_0000
	uartVirt    = 0x1000_0000
)

func main() {
	bootromPath := flag.String("bootrom", "", "path to the flat bootrom image")
	kernelPath := flag.String("kernel", "", "optional kernel image written to DRAM before execution")
	breakAddr := flag.Uint64("break", 0, "optional breakpoint virtual address")
	raw := flag.Bool("raw-console", false, "put the host terminal into raw mode for UART I/O")
	flag.Parse()

	if *bootromPath == "" {
		fmt.Fprintln(os.Stderr, "emu: -bootrom is required")
		os.Exit(1)
	}

	bootrom, err := os.ReadFile(*bootromPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emu: reading bootrom: %v\n", err)
		os.Exit(1)
	}

	builder := emu64.NewMemoryBuilder().
		WithBootrom(bootromVirt, bootrom).
		WithPhysicalSize(dramSize).
		WithMapping(dramVirt, 0, dramSize).
		WithMMIO(uartVirt, uartRead, uartWrite)

	mem, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "emu: %v\n", err)
		os.Exit(1)
	}

	if *kernelPath != "" {
		kernel, err := os.ReadFile(*kernelPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "emu: reading kernel: %v\n", err)
			os.Exit(1)
		}
		if err := mem.WriteSlice(dramVirt, kernel); err != nil {
			fmt.Fprintf(os.Stderr, "emu: loading kernel: %v\n", err)
			os.Exit(1)
		}
	}

	var restore func()
	if *raw {
		fd := int(os.Stdin.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "emu: raw console: %v\n", err)
			os.Exit(1)
		}
		restore = func() { _ = term.Restore(fd, oldState) }
		defer restore()
	}

	cpu := emu64.NewCPU(mem, emu64.Base())
	cpu.PC = builder.BootromBase()
	if *breakAddr != 0 {
		cpu.AddBreakpoint(*breakAddr)
	}
	cpu.SetState(emu64.StateRunning)

	stopped, reason := cpu.RunWithPoll(func() bool { return false })
	if restore != nil {
		restore()
		restore = nil
	}
	if stopped && reason == emu64.StopBreakpoint {
		fmt.Printf("\nemu: breakpoint hit at pc=%#x\n", cpu.PC)
	}
}

// uartRead implements spec.md §6: reads from the UART MMIO page are not
// implemented, so every byte reads back as zero.
func uartRead(addr uint64) uint8 { return 0 }

// uartWrite implements spec.md §6's UART-like console: every byte written
// to the MMIO page is echoed to the host's standard output.
func uartWrite(addr uint64, v uint8) {
	os.Stdout.Write([]byte{v})
}
