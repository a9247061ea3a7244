package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/appstate"
	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

func setupState(t *testing.T) (*appstate.State, appstate.Repos) {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true, Clock: func() time.Time { return testNow }})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := appstate.NewRepos(db)
	st := appstate.New(repos)
	db.OnCommit(st.Refresh)
	require.NoError(t, st.Refresh(context.Background()))
	return st, repos
}

// =============================================================================
// ProgressBar Tests
// =============================================================================

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		width      int
	}{
		{"zero", 0, 10},
		{"half", 50, 10},
		{"full", 100, 10},
		{"over", 150, 10},
		{"negative", -10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.width, lipgloss.Width(ProgressBar(tt.percentage, tt.width)))
		})
	}
}

// =============================================================================
// Component Tests
// =============================================================================

func TestSyncComponentLine(t *testing.T) {
	sc := &SyncComponent{Now: testNow}
	assert.Contains(t, sc.Line(), "Daemon not running")

	sc.Status = &connectivity.Status{State: connectivity.StateOffline}
	assert.Equal(t, output.SyncOfflineText, sc.Line())

	sc.Status = &connectivity.Status{State: connectivity.StateSyncing, Online: true, Syncing: true}
	assert.Equal(t, output.SyncSyncingText, sc.Line())

	sc.Status = &connectivity.Status{State: connectivity.StateIdle, Online: true}
	assert.Equal(t, output.SyncNeverText, sc.Line())

	sc.Status.LastSynced = testNow.Add(-30 * time.Second)
	assert.Equal(t, "Synced 30 seconds ago", sc.Line())
}

func TestSyncComponentView(t *testing.T) {
	sc := &SyncComponent{
		Status: &connectivity.Status{State: connectivity.StateIdle, Online: true, LastError: "webhook: HTTP 502"},
		Outbox: model.OutboxStats{Pending: 2, Synced: 6},
		Width:  80,
		Now:    testNow,
	}

	view := sc.View()
	assert.Contains(t, view, "2 pending · 6 synced")
	assert.Contains(t, view, "Last drain failed")
}

func TestSummaryComponent(t *testing.T) {
	view := (&SummaryComponent{Summary: model.DailySummary{Income: 900, Expense: 150, Balance: 750}, Width: 80}).View()
	assert.Contains(t, view, "₹900")
	assert.Contains(t, view, "₹150")
	assert.Contains(t, view, "₹750")
}

func TestActivityComponent(t *testing.T) {
	empty := (&ActivityComponent{Width: 80, Limit: 5}).View()
	assert.Contains(t, empty, "No transactions yet")

	txns := []model.Transaction{
		{Kind: model.KindIncome, Amount: 300, Category: "trip", Date: testNow},
		{Kind: model.KindExpense, Amount: 80, Category: "fuel", Date: testNow},
		{Kind: model.KindIncome, Amount: 1, Category: "hidden", Date: testNow},
	}
	view := (&ActivityComponent{Transactions: txns, Width: 80, Limit: 2}).View()
	assert.Contains(t, view, "+₹300")
	assert.Contains(t, view, "-₹80")
	assert.NotContains(t, view, "hidden")
}

func TestRemindersComponent(t *testing.T) {
	assert.Empty(t, (&RemindersComponent{Width: 80}).View())

	view := (&RemindersComponent{Due: []model.Reminder{{Title: "Renew permit", RemindAt: testNow}}, Width: 80}).View()
	assert.Contains(t, view, "1 reminder(s) due")
	assert.Contains(t, view, "Renew permit")
}

func TestHelpBar(t *testing.T) {
	help := HelpBar()
	assert.Contains(t, help, "refresh")
	assert.Contains(t, help, "quit")
}

// =============================================================================
// Dashboard Model Tests
// =============================================================================

func TestDashboardLoadingBeforeResize(t *testing.T) {
	st, _ := setupState(t)
	m := NewDashboardModel(DashboardConfig{State: st})
	assert.Equal(t, "Loading...", m.View())
}

func TestDashboardDefaults(t *testing.T) {
	st, _ := setupState(t)
	m := NewDashboardModel(DashboardConfig{State: st})
	assert.Equal(t, 2*time.Second, m.cfg.RefreshInterval)
	assert.Equal(t, 5, m.cfg.MaxRecent)
	assert.NotNil(t, m.Init())
}

func TestDashboardLoadAndRender(t *testing.T) {
	st, repos := setupState(t)
	ctx := context.Background()

	_, err := repos.Transactions.Create(ctx, model.TransactionInput{Kind: model.KindIncome, Amount: 450, Category: "trip", Date: testNow})
	require.NoError(t, err)
	require.NoError(t, repos.Profile.SaveName(ctx, "Asha"))

	status := &connectivity.Status{State: connectivity.StateOffline}
	m := NewDashboardModel(DashboardConfig{
		State:      st,
		SyncStatus: func(context.Context) (*connectivity.Status, error) { return status, nil },
		Now:        func() time.Time { return testNow },
	})

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	msg := m.loadCmd()()
	m.Update(msg)

	view := m.View()
	assert.Contains(t, view, "Driver Helper · Asha")
	assert.Contains(t, view, output.SyncOfflineText)
	assert.Contains(t, view, "₹450")
	assert.Contains(t, view, "2 pending")
}

func TestDashboardDaemonUnreachable(t *testing.T) {
	st, _ := setupState(t)
	m := NewDashboardModel(DashboardConfig{
		State:      st,
		SyncStatus: func(context.Context) (*connectivity.Status, error) { return nil, errors.New("connection refused") },
		Now:        func() time.Time { return testNow },
	})

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.loadCmd()())

	assert.Nil(t, m.sync)
	assert.Nil(t, m.err)
	assert.Contains(t, m.View(), "Daemon not running")
}

func TestDashboardKeys(t *testing.T) {
	st, _ := setupState(t)
	m := NewDashboardModel(DashboardConfig{State: st, Now: func() time.Time { return testNow }})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotNil(t, cmd)
	assert.Equal(t, "Refreshed", m.message)

	// The message expires on the next tick after its deadline.
	m.cfg.Now = func() time.Time { return testNow.Add(2 * time.Second) }
	m.Update(tickMsg(testNow))
	assert.Empty(t, m.message)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
