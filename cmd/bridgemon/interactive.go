package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/bridge"
	"github.com/wippyai/runtime-bridge/heap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type monitorModel struct {
	b        *bridge.Bridge
	heapEng  *heap.Engine // non-nil only when monitoring the heap engine
	mut      *mutator
	gauge    progress.Model
	interval time.Duration

	free  uint64
	total uint64
	max   uint64
	procs int

	churning bool
	gcs      int
	notice   string
	err      error
}

type tickMsg time.Time

func newMonitorModel(b *bridge.Bridge, heapEng *heap.Engine, interval time.Duration) *monitorModel {
	return &monitorModel{
		b:        b,
		heapEng:  heapEng,
		gauge:    progress.New(progress.WithDefaultGradient()),
		interval: interval,
	}
}

func (m *monitorModel) Init() tea.Cmd {
	m.refresh()
	return m.tick()
}

func (m *monitorModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *monitorModel) refresh() {
	m.free = m.b.FreeMemory()
	m.total = m.b.TotalMemory()
	m.max = m.b.MaxMemory()
	m.procs = m.b.AvailableProcessors()
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "g":
			m.b.GC()
			m.gcs++
			m.notice = "collection requested"
			m.refresh()

		case "w":
			if m.heapEng == nil {
				m.notice = "mutator needs the heap engine"
				break
			}
			if m.mut == nil {
				mut, err := newMutator(m.heapEng)
				if err != nil {
					m.err = err
					return m, tea.Quit
				}
				m.mut = mut
			}
			m.churning = !m.churning
			if m.churning {
				m.notice = "mutator running"
			} else {
				m.notice = "mutator paused"
			}
		}

	case tea.WindowSizeMsg:
		w := msg.Width - 8
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.gauge.Width = w
		}

	case tickMsg:
		if m.churning {
			if err := m.mut.run(64); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		m.refresh()
		return m, m.tick()
	}

	return m, nil
}

// gaugeRatio maps the meters onto one fill fraction: claim against the
// cap when the engine has one, otherwise occupancy of what is claimed.
func (m *monitorModel) gaugeRatio() float64 {
	if m.max != runtimebridge.MemoryUnbounded && m.max > 0 {
		return float64(m.total) / float64(m.max)
	}
	if m.total > 0 && m.free <= m.total {
		return float64(m.total-m.free) / float64(m.total)
	}
	return 0
}

func (m *monitorModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err))
	}

	caps := m.b.Capabilities()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Bridge Monitor"))
	b.WriteString(fmt.Sprintf(" %s %s (bridge API %s)\n\n", caps.Name, caps.Version, caps.BridgeAPI))

	b.WriteString("  ")
	b.WriteString(m.gauge.ViewAs(m.gaugeRatio()))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"free", fmtBytes(m.free)},
		{"total", fmtBytes(m.total)},
		{"max", fmtMax(m.max)},
		{"procs", fmt.Sprintf("%d", m.procs)},
		{"gcs", fmt.Sprintf("%d", m.gcs)},
	}
	if m.mut != nil {
		allocs, frees := m.mut.stats()
		rows = append(rows, struct {
			label string
			value string
		}{"objects", fmt.Sprintf("%d (%d allocated, %d released)", m.mut.objects(), allocs, frees)})
	}
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-8s", r.label)))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n  ")
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  g collect • w mutator • q quit"))
	b.WriteString("\n")
	return b.String()
}

func runInteractive(engineName, guestFile string, maxHeap uint64, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	b, heapEng, cleanup, err := attach(engineName, guestFile, maxHeap)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(newMonitorModel(b, heapEng, interval), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
