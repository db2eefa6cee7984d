// Package watch implements the interactive job monitor TUI. It polls the
// filesystem-derived job statuses on a timer; there is no in-process job
// state to subscribe to.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentd/agentd/internal/job"
	"github.com/agentd/agentd/internal/model"
	telem "github.com/agentd/agentd/internal/otel"
)

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// logTailLines bounds how much of a log the preview loads.
const logTailLines = 200

// view mode
type viewMode int

const (
	modeList viewMode = iota
	modeLog
)

// messages
type refreshMsg struct {
	statuses []model.JobStatus
}

type tickMsg struct{}

// TUI runs the interactive job monitor.
type TUI struct {
	Store           *job.StatusStore
	RefreshInterval time.Duration // 0 disables auto-refresh
	Metrics         *telem.Metrics
}

// tuiModel implements tea.Model.
type tuiModel struct {
	store           *job.StatusStore
	refreshInterval time.Duration
	metrics         *telem.Metrics

	statuses []model.JobStatus
	cursor   int
	mode     viewMode
	logView  viewport.Model
	logToken string

	width  int
	height int

	message string
}

// Run starts the TUI and blocks until the user quits.
func (t *TUI) Run(ctx context.Context) error {
	m := tuiModel{
		store:           t.Store,
		refreshInterval: t.RefreshInterval,
		metrics:         t.Metrics,
		logView:         viewport.New(80, 20),
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd())
}

// refreshCmd re-derives every job status from the filesystem.
func (m tuiModel) refreshCmd() tea.Cmd {
	store, metrics := m.store, m.metrics
	return func() tea.Msg {
		tokens := store.List()
		statuses := make([]model.JobStatus, 0, len(tokens))
		// Newest first: tokens sort chronologically by construction.
		for i := len(tokens) - 1; i >= 0; i-- {
			st := store.Status(tokens[i])
			statuses = append(statuses, st)
			metrics.RecordObserved(context.Background(), stateClass(st))
		}
		return refreshMsg{statuses: statuses}
	}
}

func (m tuiModel) tickCmd() tea.Cmd {
	if m.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width
		m.logView.Height = msg.Height - 3
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case refreshMsg:
		m.statuses = msg.statuses
		if m.cursor >= len(m.statuses) {
			m.cursor = len(m.statuses) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeLog {
			return m.updateLogView(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.statuses)-1 {
			m.cursor++
		}
	case "r":
		return m, m.refreshCmd()
	case "enter", "l":
		if m.cursor < len(m.statuses) {
			st := m.statuses[m.cursor]
			text, err := m.store.ReadLog(st.Token, logTailLines)
			if err != nil {
				m.message = fmt.Sprintf("no log yet for %s", st.Token)
				return m, nil
			}
			m.logToken = st.Token
			m.logView.SetContent(text)
			m.logView.GotoBottom()
			m.mode = modeLog
		}
	}
	return m, nil
}

func (m tuiModel) updateLogView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "enter":
		m.mode = modeList
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	if m.mode == modeLog {
		header := titleStyle.Render(fmt.Sprintf("log %s", m.logToken)) +
			dimStyle.Render("  (last lines — q/esc to go back)")
		return header + "\n" + m.logView.View()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("agentd jobs"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d known", len(m.statuses))))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-28s %-10s %-8s %s", "TOKEN", "STATE", "AGE", "LOG")))
	b.WriteString("\n")

	if len(m.statuses) == 0 {
		b.WriteString(dimStyle.Render("no jobs yet — launch one with `agentd run`"))
		b.WriteString("\n")
	}

	now := time.Now()
	for i, st := range m.statuses {
		line := fmt.Sprintf("%-28s %-10s %-8s %s", st.Token, stateLabel(st), ageLabel(st.Token, now), logLabel(st))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(stateStyle(st).Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "j/k move · enter log · r refresh · q quit"
	if m.message != "" {
		help = m.message + "  ·  " + help
	}
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

func stateLabel(st model.JobStatus) string {
	switch {
	case st.RC == nil:
		return "running"
	case *st.RC == 0:
		return "done"
	default:
		return fmt.Sprintf("exit %d", *st.RC)
	}
}

// stateClass buckets a status for metric attributes, where exit codes
// would blow up cardinality.
func stateClass(st model.JobStatus) string {
	switch {
	case st.RC == nil:
		return "running"
	case *st.RC == 0:
		return "done"
	default:
		return "failed"
	}
}

// ageLabel renders how long ago a job was launched, from the timestamp
// embedded in its token. Tokens without one render as "-".
func ageLabel(token string, now time.Time) string {
	ts := model.TokenTime(token)
	if ts.IsZero() {
		return "-"
	}
	age := now.Sub(ts)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

func stateStyle(st model.JobStatus) lipgloss.Style {
	switch {
	case st.RC == nil:
		return runningStyle
	case *st.RC == 0:
		return okStyle
	default:
		return failStyle
	}
}

func logLabel(st model.JobStatus) string {
	if !st.HasLog {
		return "-"
	}
	return st.LogPath
}
