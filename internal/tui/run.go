// Package tui renders a live progress view for simulation runs.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/simlab/internal/simulation"
	"github.com/mwiater/simlab/internal/util"
)

// RunFunc performs a run, reporting progress through obs.
type RunFunc func(ctx context.Context, obs simulation.Observer) (simulation.Outcome, error)

type progressMsg simulation.Progress

type doneMsg struct {
	outcome simulation.Outcome
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

const maxErrorWidth = 120

// programOptions are passed to every program; tests replace them to run headless.
var programOptions []tea.ProgramOption

type model struct {
	scenario string
	endTime  float64
	spinner  spinner.Model
	bar      progress.Model
	latest   simulation.Progress
	done     bool
	stopping bool
	outcome  simulation.Outcome
	err      error
	cancel   context.CancelFunc
}

func newModel(scenario string, endTime float64, cancel context.CancelFunc) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &model{
		scenario: scenario,
		endTime:  endTime,
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		latest:   simulation.Progress{Scenario: scenario, EndTime: endTime},
		cancel:   cancel,
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// The run goroutine reports back once it has closed the session.
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > 80 {
			width = 80
		}
		if width > 10 {
			m.bar.Width = width
		}
		return m, nil
	case progressMsg:
		m.latest = simulation.Progress(msg)
		return m, nil
	case doneMsg:
		m.done = true
		m.outcome = msg.outcome
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("scenario %s", m.scenario)))
	if m.latest.RunID != "" {
		b.WriteString(dimStyle.Render("  run " + m.latest.RunID))
	}
	b.WriteString("\n\n")

	status := m.spinner.View() + " running"
	switch {
	case m.done:
		status = "done: " + string(m.outcome.Reason)
	case m.stopping:
		status = m.spinner.View() + " stopping"
	}
	b.WriteString(fmt.Sprintf("  %s\n", status))
	b.WriteString(fmt.Sprintf("  %s\n", m.bar.ViewAs(m.latest.Fraction())))
	b.WriteString(fmt.Sprintf("  sim time %.1f / %.1f s   steps %d\n", m.latest.Time, m.endTime, m.latest.Steps))
	if m.latest.Closure != "" {
		b.WriteString(fmt.Sprintf("  lane closure: %s\n", m.latest.Closure))
	}
	if m.err != nil {
		b.WriteString(warnStyle.Render("  error: "+util.Truncate(m.err.Error(), maxErrorWidth)) + "\n")
	}
	if !m.done {
		b.WriteString(dimStyle.Render("\n  q to stop") + "\n")
	}
	return b.String()
}

// RunWithProgress executes run while showing a progress view. Quitting the
// view cancels the run and waits for it to finish.
func RunWithProgress(ctx context.Context, sc simulation.Scenario, run RunFunc) (simulation.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(sc.Name, sc.EndTime, cancel)
	p := tea.NewProgram(m, programOptions...)

	results := make(chan doneMsg, 1)
	go func() {
		out, err := run(ctx, func(pr simulation.Progress) { p.Send(progressMsg(pr)) })
		res := doneMsg{outcome: out, err: err}
		results <- res
		p.Send(res)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		res := <-results
		if res.err != nil {
			return res.outcome, res.err
		}
		return res.outcome, fmt.Errorf("progress view: %w", err)
	}
	res := <-results
	return res.outcome, res.err
}
