package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

func boxWidth(width int) int {
	return max(width-4, 20)
}

// SyncComponent shows the sync indicator and outbox progress.
type SyncComponent struct {
	// Status is nil when no daemon answered.
	Status *connectivity.Status
	Outbox model.OutboxStats
	Width  int
	Now    time.Time
}

// Line returns the indicator text.
func (sc *SyncComponent) Line() string {
	if sc.Status == nil {
		return "Daemon not running · changes stay on this device"
	}
	return output.SyncIndicator(sc.Status.Online, sc.Status.Syncing, sc.Status.LastSynced, sc.Now)
}

// View renders the sync component.
func (sc *SyncComponent) View() string {
	var content strings.Builder

	line := sc.Line()
	box := StyleBox
	switch {
	case sc.Status == nil:
		content.WriteString(StyleSubtitle.Render("○ " + line))
	case !sc.Status.Online:
		content.WriteString(StyleOffline.Render("● " + line))
		box = StyleOfflineBox
	case sc.Status.Syncing:
		content.WriteString(StyleSyncing.Render("◐ " + line))
	default:
		content.WriteString(StyleOnline.Render("● " + line))
	}
	content.WriteString("\n")

	total := sc.Outbox.Pending + sc.Outbox.Synced
	pct := 100.0
	if total > 0 {
		pct = float64(sc.Outbox.Synced) / float64(total) * 100
	}
	content.WriteString(ProgressBar(pct, 24))
	content.WriteString(StyleSubtitle.Render(fmt.Sprintf("  %d pending · %d synced", sc.Outbox.Pending, sc.Outbox.Synced)))

	if sc.Status != nil && sc.Status.LastError != "" {
		content.WriteString("\n")
		content.WriteString(StyleError.Render("Last drain failed: " + sc.Status.LastError))
	}

	return box.Width(boxWidth(sc.Width)).Render(content.String())
}

// SummaryComponent shows today's totals.
type SummaryComponent struct {
	Summary model.DailySummary
	Width   int
}

// View renders the summary component.
func (sc *SummaryComponent) View() string {
	cell := func(label, value string, style lipgloss.Style) string {
		return lipgloss.JoinVertical(lipgloss.Left, StyleSubtitle.Render(label), style.Render(value))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Income", output.FormatMoney(sc.Summary.Income), StyleIncome), "    ",
		cell("Expense", output.FormatMoney(sc.Summary.Expense), StyleExpense), "    ",
		cell("Balance", output.FormatMoney(sc.Summary.Balance), StyleBalance),
	)
	return StyleBox.Width(boxWidth(sc.Width)).Render(StyleTitle.Render("Today") + "\n" + row)
}

// ActivityComponent lists recent transactions.
type ActivityComponent struct {
	Transactions []model.Transaction
	Width        int
	Limit        int
}

// View renders the activity component.
func (ac *ActivityComponent) View() string {
	var content strings.Builder
	content.WriteString(StyleTitle.Render("Recent activity"))
	content.WriteString("\n")

	if len(ac.Transactions) == 0 {
		content.WriteString(StyleSubtitle.Render("No transactions yet"))
		return StyleBox.Width(boxWidth(ac.Width)).Render(content.String())
	}

	for i, t := range ac.Transactions {
		if i >= ac.Limit {
			break
		}
		amount := StyleIncome.Render(output.FormatSignedMoney(t.Amount, false))
		if t.Kind == model.KindExpense {
			amount = StyleExpense.Render(output.FormatSignedMoney(t.Amount, true))
		}
		fmt.Fprintf(&content, "%s  %-14s %s\n", output.FormatDate(t.Date), t.Category, amount)
	}
	return StyleBox.Width(boxWidth(ac.Width)).Render(strings.TrimRight(content.String(), "\n"))
}

// RemindersComponent lists reminders that are due.
type RemindersComponent struct {
	Due   []model.Reminder
	Width int
}

// View renders nothing when no reminder is due.
func (rc *RemindersComponent) View() string {
	if len(rc.Due) == 0 {
		return ""
	}
	var content strings.Builder
	content.WriteString(StyleWarning.Render(fmt.Sprintf("%d reminder(s) due", len(rc.Due))))
	for _, r := range rc.Due {
		content.WriteString("\n• " + r.Title + " " + StyleNote.Render(output.FormatTimeShort(r.RemindAt)))
	}
	return StyleBox.Width(boxWidth(rc.Width)).Render(content.String())
}

// HelpBar renders the keyboard shortcuts help bar.
func HelpBar() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"r", "refresh"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}
	return StyleHelp.Render(strings.Join(parts, "  "))
}
