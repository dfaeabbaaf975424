// Package tui implements the interactive dashboard: experiment selection,
// live trial progress with a sparkline of recent outcomes, and a system
// resource footer.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/styvesb/probsim/internal/config"
	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/sysmon"
)

// Layout constants for the dashboard.
const (
	sparklineCapacity = 60
	minPanelWidth     = 40
)

// TickMsg drives the elapsed timer and system sampling.
type TickMsg time.Time

// SysStatsMsg carries one system resource snapshot.
type SysStatsMsg sysmon.Stats

// TrialMsg reports one finished trial of the running experiment.
type TrialMsg struct {
	Completed  int
	Total      int
	Outcome    int
	Generation uint64
}

// RunDoneMsg reports the end of an experiment run.
type RunDoneMsg struct {
	Lines      []string
	Err        error
	Elapsed    time.Duration
	Generation uint64
}

// ContextCancelledMsg signals that the run context was cancelled externally.
type ContextCancelledMsg struct {
	Generation uint64
}

// Model is the root bubbletea model for the dashboard.
type Model struct {
	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc

	config  config.AppConfig
	presets []config.Preset
	version string
	ref     *programRef

	keymap KeyMap
	width  int
	height int

	presetIdx  int
	generation uint64
	running    bool
	done       bool
	err        error
	exitCode   int

	completed int
	total     int
	outcomes  *RingBuffer
	results   []string

	startTime time.Time
	elapsed   time.Duration
	sys       sysmon.Stats
}

// NewModel creates a new dashboard model.
func NewModel(parentCtx context.Context, cfg config.AppConfig, presets []config.Preset, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)

	presetIdx := 0
	for i, p := range presets {
		if p.Name == cfg.Preset {
			presetIdx = i
			break
		}
	}

	return Model{
		parentCtx: parentCtx,
		ctx:       ctx,
		cancel:    cancel,
		config:    cfg,
		presets:   presets,
		version:   version,
		ref:       &programRef{},
		keymap:    DefaultKeyMap(),
		presetIdx: presetIdx,
		outcomes:  NewRingBuffer(sparklineCapacity),
		exitCode:  apperrors.ExitSuccess,
		startTime: time.Now(),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), watchContextCmd(m.ctx, m.generation))
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TrialMsg:
		if msg.Generation != m.generation {
			return m, nil // stale message from a previous run
		}
		m.completed = msg.Completed
		m.total = msg.Total
		m.outcomes.Push(float64(msg.Outcome))
		return m, nil

	case RunDoneMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.running = false
		m.done = true
		m.elapsed = msg.Elapsed
		if msg.Err != nil {
			m.err = msg.Err
			m.exitCode = apperrors.ExitCodeFor(msg.Err)
		} else {
			m.results = msg.Lines
		}
		return m, nil

	case TickMsg:
		if m.running {
			m.elapsed = time.Since(m.startTime)
		}
		return m, tea.Batch(sampleSysStatsCmd(), tickCmd())

	case SysStatsMsg:
		m.sys = sysmon.Stats(msg)
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Start):
		if m.running {
			return m, nil
		}
		return m.startRun()

	case key.Matches(msg, m.keymap.Restart):
		// Cancel the current run and start over with a fresh context.
		if m.cancel != nil {
			m.cancel()
		}
		m.generation++
		ctx, cancel := context.WithCancel(m.parentCtx)
		m.ctx = ctx
		m.cancel = cancel
		m.resetRunState()
		cmd := watchContextCmd(m.ctx, m.generation)
		next, runCmd := m.startRun()
		return next, tea.Batch(cmd, runCmd)

	case key.Matches(msg, m.keymap.Switch):
		if m.running {
			return m, nil
		}
		if m.config.Experiment == config.ExperimentCoupon {
			m.config.Experiment = config.ExperimentBranching
		} else {
			m.config.Experiment = config.ExperimentCoupon
		}
		m.resetRunState()
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		if !m.running && m.config.Experiment == config.ExperimentBranching && m.presetIdx > 0 {
			m.presetIdx--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if !m.running && m.config.Experiment == config.ExperimentBranching && m.presetIdx < len(m.presets)-1 {
			m.presetIdx++
		}
		return m, nil
	}

	return m, nil
}

// startRun launches the selected experiment in the background.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	m.resetRunState()
	m.running = true
	m.startTime = time.Now()
	return m, startRunCmd(m.ref, m.ctx, m.config, m.currentPreset(), m.generation)
}

func (m *Model) resetRunState() {
	m.running = false
	m.done = false
	m.err = nil
	m.completed = 0
	m.total = 0
	m.results = nil
	m.elapsed = 0
	m.outcomes.Reset()
	m.exitCode = apperrors.ExitSuccess
}

func (m Model) currentPreset() config.Preset {
	if len(m.presets) == 0 {
		return config.DefaultPresets()[0]
	}
	if m.presetIdx >= len(m.presets) {
		return m.presets[0]
	}
	return m.presets[m.presetIdx]
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.viewHeader()
	body := m.viewBody()
	footer := m.viewFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) viewHeader() string {
	title := titleStyle.Render("ProbSim Lab")
	if m.version != "" && m.version != "dev" {
		title += versionStyle.Render(" " + m.version)
	}
	elapsed := elapsedStyle.Render(fmt.Sprintf("Elapsed: %s", m.elapsed.Round(time.Millisecond)))
	return headerStyle.Width(m.width).Render(title + versionStyle.Render(" | ") + elapsed)
}

func (m Model) viewBody() string {
	var b strings.Builder

	b.WriteString(labelStyle.Render("Experiment: "))
	b.WriteString(valueStyle.Render(m.config.Experiment))
	b.WriteString("\n")

	switch m.config.Experiment {
	case config.ExperimentBranching:
		b.WriteString(labelStyle.Render("Distribution: "))
		b.WriteString(selectedStyle.Render(m.currentPreset().Label))
		b.WriteString(labelStyle.Render(fmt.Sprintf("  generations=%d trials=%d", m.config.Generations, m.config.Trials)))
	default:
		b.WriteString(labelStyle.Render(fmt.Sprintf("n=%d trials=%d", m.config.N, m.config.Trials)))
	}
	b.WriteString("\n\n")

	switch {
	case m.running:
		b.WriteString(statusRunningStyle.Render("RUNNING"))
		b.WriteString(fmt.Sprintf("  %d/%d trials\n", m.completed, m.total))
		if spark := RenderSparkline(m.outcomes.Slice()); spark != "" {
			b.WriteString(labelStyle.Render("outcomes "))
			b.WriteString(sparklineStyle.Render(spark))
			b.WriteString("\n")
		}
	case m.err != nil:
		b.WriteString(statusErrorStyle.Render("ERROR"))
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	case m.done:
		b.WriteString(statusDoneStyle.Render("DONE"))
		b.WriteString(labelStyle.Render(fmt.Sprintf("  in %s\n", m.elapsed.Round(time.Millisecond))))
		for _, line := range m.results {
			b.WriteString(resultStyle.Render(line))
			b.WriteString("\n")
		}
	default:
		b.WriteString(labelStyle.Render("Press enter to run."))
		b.WriteString("\n")
	}

	width := m.width - 4
	if width < minPanelWidth {
		width = minPanelWidth
	}
	return panelStyle.Width(width).Render(b.String())
}

func (m Model) viewFooter() string {
	help := strings.Join([]string{
		footerKeyStyle.Render("enter") + footerDescStyle.Render(" run"),
		footerKeyStyle.Render("tab") + footerDescStyle.Render(" experiment"),
		footerKeyStyle.Render("↑/↓") + footerDescStyle.Render(" distribution"),
		footerKeyStyle.Render("r") + footerDescStyle.Render(" restart"),
		footerKeyStyle.Render("q") + footerDescStyle.Render(" quit"),
	}, footerDescStyle.Render("  "))

	return help + footerDescStyle.Render("   "+m.sys.String())
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, cfg config.AppConfig, presets []config.Preset, version string) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, cfg, presets, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before running so bridge goroutines can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}

	if m, ok := finalModel.(Model); ok {
		m.cancel()
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// tickCmd returns a command that sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleSysStatsCmd reads system-wide CPU and memory stats.
func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg(sysmon.Sample())
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Generation: gen}
	}
}
