// Command tuidbg is an interactive terminal debugger: a PC/cycle/GPR
// register view plus single-step and breakpoint control driven through the
// DebugAdapter surface. It has no memory view.
//
// Grounded on _examples/hejops-gone/cpu/debugger.go's bubbletea
// Model/Update/View shape for a single-CPU step console, generalized
// from its fixed 6502 register set to the GPR/PC/FPR layout
// ReadAllRegisters exposes.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rv64emu/emu64"
)

const (
	bootromVirt = 0x0000_1000
	dramVirt    = 0x8000_0000
	dramSize    = 0x1000_0000
	uartVirt    = 0x1000_0000
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pcStyle     = lipgloss.NewStyle().Reverse(true)
)

type model struct {
	cpu     *emu64.CPU
	adapter emu64.DebugAdapter

	lastResult emu64.StepResult
	err        error
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s", " ":
		m.lastResult = m.adapter.StepOne()
	case "b":
		m.adapter.AddBreakpoint(m.cpu.PC)
	case "r":
		m.cpu.SetState(emu64.StateRunning)
		m.cpu.RunWithPoll(func() bool { return true })
		m.cpu.SetState(emu64.StatePaused)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("rv64 debugger") + "\n\n")
	b.WriteString(pcStyle.Render(fmt.Sprintf("pc=%#016x", m.cpu.PC)) + "\n")
	b.WriteString(fmt.Sprintf("cycles=%d state=%s last=%s\n\n", m.cpu.Cycles, m.cpu.State(), m.lastResult))
	b.WriteString(m.registerTable())
	b.WriteString("\n[s/space] step  [b] breakpoint here  [r] run one burst  [q] quit\n")
	return b.String()
}

func (m model) registerTable() string {
	regs := m.adapter.ReadAllRegisters()
	var b strings.Builder
	for i := 0; i < 32; i += 4 {
		for col := 0; col < 4; col++ {
			idx := i + col
			v := binary.LittleEndian.Uint64(regs[idx*8:])
			b.WriteString(fmt.Sprintf("x%-2d=%016x  ", idx, v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func main() {
	bootromPath := flag.String("bootrom", "", "path to the flat bootrom image")
	flag.Parse()
	if *bootromPath == "" {
		fmt.Fprintln(os.Stderr, "tuidbg: -bootrom is required")
		os.Exit(1)
	}
	bootrom, err := os.ReadFile(*bootromPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuidbg: %v\n", err)
		os.Exit(1)
	}

	mem, err := emu64.NewMemoryBuilder().
		WithBootrom(bootromVirt, bootrom).
		WithPhysicalSize(dramSize).
		WithMapping(dramVirt, 0, dramSize).
		WithMMIO(uartVirt, func(uint64) uint8 { return 0 }, func(addr uint64, v uint8) { os.Stdout.Write([]byte{v}) }).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuidbg: %v\n", err)
		os.Exit(1)
	}

	cpu := emu64.NewCPU(mem, emu64.Base())
	cpu.PC = bootromVirt
	cpu.SetState(emu64.StatePaused)

	m := model{cpu: cpu, adapter: emu64.NewDebugAdapter(cpu)}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tuidbg: %v\n", err)
		os.Exit(1)
	}
}
