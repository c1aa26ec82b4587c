package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/stack-image/image"
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

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectModel struct {
	err      error
	specFile string
	summary  string
	dump     string
	viewport viewport.Model
	ready    bool
}

type builtMsg struct {
	err     error
	summary string
	dump    string
}

func newInspectModel(specFile string) *inspectModel {
	return &inspectModel{specFile: specFile}
}

func (m *inspectModel) Init() tea.Cmd {
	return m.buildImage
}

func (m *inspectModel) buildImage() tea.Msg {
	spec, err := loadSpec(m.specFile)
	if err != nil {
		return builtMsg{err: err}
	}
	b, err := spec.builder()
	if err != nil {
		return builtMsg{err: err}
	}
	t, err := spec.target()
	if err != nil {
		return builtMsg{err: err}
	}

	buf, err := b.BuildFor(spec.Base)
	if err != nil {
		return builtMsg{err: err}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("size:"),
		valueStyle.Render(fmt.Sprintf("%d bytes", len(buf))))
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("base:"),
		valueStyle.Render(fmt.Sprintf("0x%x", spec.Base)))
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("word:"),
		valueStyle.Render(fmt.Sprintf("%d bytes", t.WordSize)))

	r := image.NewReaderAt(buf, t, spec.Base)
	args := r.Args()
	var argList []string
	for s, ok := args.Next(); ok; s, ok = args.Next() {
		argList = append(argList, fmt.Sprintf("%q", s))
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("args:"),
		valueStyle.Render(strings.Join(argList, " ")))

	env := r.Env()
	var envList []string
	for s, ok := env.Next(); ok; s, ok = env.Next() {
		envList = append(envList, s)
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("env: "),
		valueStyle.Render(strings.Join(envList, " ")))

	aux := r.Auxv()
	var auxList []string
	for v, ok := aux.Next(); ok; v, ok = aux.Next() {
		auxList = append(auxList, v.String())
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("aux: "),
		valueStyle.Render(strings.Join(auxList, ", ")))

	return builtMsg{summary: sb.String(), dump: hexDump(buf, spec.Base)}
}

// hexDump renders the image sixteen bytes per line, addressed in the
// target's address space.
func hexDump(buf []byte, base uint64) string {
	var sb strings.Builder
	for off := 0; off < len(buf); off += 16 {
		end := off + 16
		if end > len(buf) {
			end = len(buf)
		}
		line := buf[off:end]

		sb.WriteString(addrStyle.Render(fmt.Sprintf("%012x", base+uint64(off))))
		sb.WriteString("  ")
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x ", line[i])
			} else {
				sb.WriteString("   ")
			}
			if i == 7 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(" |")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			sb.WriteByte(c)
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-1)
			m.viewport.SetContent(m.dump)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - 1
		}

	case builtMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.summary = msg.summary
		m.dump = msg.dump
		if m.ready {
			m.viewport.SetContent(m.dump)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *inspectModel) headerView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Stack Image"))
	sb.WriteString(" ")
	sb.WriteString(m.specFile)
	sb.WriteString("\n\n")
	sb.WriteString(m.summary)
	return sb.String()
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.summary == "" {
		return "Building image..."
	}
	if !m.ready {
		return m.headerView()
	}
	return m.headerView() + m.viewport.View() + "\n" +
		helpStyle.Render("↑/↓ scroll • q quit")
}

func runInteractive(specFile string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newInspectModel(specFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
