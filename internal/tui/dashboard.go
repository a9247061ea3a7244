package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/driverhelper/internal/appstate"
	"github.com/manav03panchal/driverhelper/internal/connectivity"
)

// tickMsg is sent when the refresh timer fires.
type tickMsg time.Time

// loadedMsg carries the result of one poll.
type loadedMsg struct {
	snap appstate.Snapshot
	sync *connectivity.Status
	err  error
}

// StatusFunc asks the daemon for its controller status.
type StatusFunc func(ctx context.Context) (*connectivity.Status, error)

// DashboardConfig holds configuration for the dashboard.
type DashboardConfig struct {
	State *appstate.State
	// SyncStatus may be nil, in which case the daemon is shown as not running.
	SyncStatus      StatusFunc
	RefreshInterval time.Duration
	MaxRecent       int
	Now             func() time.Time
}

// DashboardModel is the bubbletea model for the dashboard.
type DashboardModel struct {
	cfg DashboardConfig

	snap appstate.Snapshot
	sync *connectivity.Status

	width      int
	height     int
	err        error
	message    string
	messageExp time.Time
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(cfg DashboardConfig) *DashboardModel {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 2 * time.Second
	}
	if cfg.MaxRecent == 0 {
		cfg.MaxRecent = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DashboardModel{cfg: cfg}
}

// Init starts polling.
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.loadCmd())
}

// Update handles messages and updates the model.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.cfg.Now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, tea.Batch(m.tickCmd(), m.loadCmd())

	case loadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
		}
		m.sync = msg.sync
		return m, nil
	}

	return m, nil
}

func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		m.setMessage("Refreshed", time.Second)
		return m, m.loadCmd()
	}
	return m, nil
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	now := m.cfg.Now()
	sections := []string{m.renderHeader(now)}

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	sync := &SyncComponent{Status: m.sync, Outbox: m.snap.Outbox, Width: m.width, Now: now}
	sections = append(sections, sync.View())

	summary := &SummaryComponent{Summary: m.cfg.State.DailySummary(now), Width: m.width}
	sections = append(sections, summary.View())

	if due := (&RemindersComponent{Due: m.cfg.State.DueReminders(now), Width: m.width}).View(); due != "" {
		sections = append(sections, due)
	}

	activity := &ActivityComponent{Transactions: m.snap.Transactions, Width: m.width, Limit: m.cfg.MaxRecent}
	sections = append(sections, activity.View())

	sections = append(sections, HelpBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *DashboardModel) renderHeader(now time.Time) string {
	name := "Driver"
	if m.snap.Profile != nil && m.snap.Profile.Name != "" {
		name = m.snap.Profile.Name
	}
	title := StyleTitle.Render("Driver Helper · " + name)
	timeStr := StyleSubtitle.Render(now.Format("Mon Jan 2, 15:04:05"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", timeStr) + "\n"
}

func (m *DashboardModel) setMessage(msg string, d time.Duration) {
	m.message = msg
	m.messageExp = m.cfg.Now().Add(d)
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadCmd polls the local store and the daemon.
func (m *DashboardModel) loadCmd() tea.Cmd {
	state, statusFn, timeout := m.cfg.State, m.cfg.SyncStatus, m.cfg.RefreshInterval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var msg loadedMsg
		msg.err = state.Refresh(ctx)
		msg.snap = state.Snapshot()
		if statusFn != nil {
			if st, err := statusFn(ctx); err == nil {
				msg.sync = st
			}
		}
		return msg
	}
}

// Run starts the dashboard TUI.
func Run(cfg DashboardConfig) error {
	p := tea.NewProgram(NewDashboardModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
