package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/driverhelper/internal/model"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorSuccess = lipgloss.Color("#10B981")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleBold    = lipgloss.NewStyle().Bold(true)
	styleIncome  = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	styleExpense = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	styleNote    = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
	// Now is used for relative times. Defaults to time.Now.
	Now func() time.Time
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f, Now: time.Now}
}

func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// Note formats secondary text.
func (c *CLIFormatter) Note(text string) string {
	return c.render(styleNote, text)
}

// Amount formats a transaction amount with its sign and color.
func (c *CLIFormatter) Amount(t *model.Transaction) string {
	text := FormatSignedMoney(t.Amount, t.Kind == model.KindExpense)
	if t.Kind == model.KindExpense {
		return c.render(styleExpense, text)
	}
	return c.render(styleIncome, text)
}

func syncMark(synced bool) string {
	if synced {
		return "✓"
	}
	return "·"
}

// PrintSummary prints a day's totals.
func (c *CLIFormatter) PrintSummary(s model.DailySummary) {
	c.Title("Today · " + FormatDate(s.Day))
	c.Printf("  Income:  %s\n", c.render(styleIncome, FormatMoney(s.Income)))
	c.Printf("  Expense: %s\n", c.render(styleExpense, FormatMoney(s.Expense)))
	c.Printf("  Balance: %s\n", c.render(styleBold, FormatMoney(s.Balance)))
}

// PrintTransactions prints transactions, newest first.
func (c *CLIFormatter) PrintTransactions(txns []model.Transaction) {
	if len(txns) == 0 {
		c.Muted("No transactions yet.")
		c.Muted("Use 'driverhelper earn add <amount>' to log one.")
		return
	}
	rows := make([]TableRow, len(txns))
	for i := range txns {
		t := &txns[i]
		rows[i] = TableRow{Columns: []string{
			fmt.Sprint(t.ID), FormatDate(t.Date), t.Category,
			c.Amount(t), t.Notes, syncMark(t.Synced),
		}}
	}
	c.PrintTable([]string{"ID", "DATE", "CATEGORY", "AMOUNT", "NOTES", "SYNC"}, rows)
}

// PrintReminders prints reminders in due order.
func (c *CLIFormatter) PrintReminders(reminders []model.Reminder) {
	if len(reminders) == 0 {
		c.Muted("No reminders.")
		return
	}
	now := c.Now()
	rows := make([]TableRow, len(reminders))
	for i := range reminders {
		r := &reminders[i]
		state := "upcoming"
		switch {
		case r.Completed:
			state = "done"
		case r.IsDue(now):
			state = "due"
		}
		rows[i] = TableRow{Columns: []string{
			fmt.Sprint(r.ID), formatWhen(r.RemindAt, now), r.Title, state, syncMark(r.Synced),
		}}
	}
	c.PrintTable([]string{"ID", "AT", "TITLE", "STATE", "SYNC"}, rows)
}

// formatWhen drops the date for times on the same local day as now.
func formatWhen(t, now time.Time) string {
	ty, tm, td := t.Local().Date()
	ny, nm, nd := now.Local().Date()
	if ty == ny && tm == nm && td == nd {
		return FormatTimeOnly(t)
	}
	return FormatTimeShort(t)
}

// PrintNotes prints notes, most recently updated first.
func (c *CLIFormatter) PrintNotes(notes []model.Note) {
	if len(notes) == 0 {
		c.Muted("No notes.")
		return
	}
	for _, n := range notes {
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		c.Printf("%s %s  %s\n", c.render(styleBold, fmt.Sprintf("#%d", n.ID)), title, c.Note(FormatTimeShort(n.UpdatedAt)))
		c.Printf("  %s\n", n.Content)
		if tags := n.TagList(); len(tags) > 0 {
			c.Printf("  %s\n", c.Note("tags: "+strings.Join(tags, ", ")))
		}
	}
}

// PrintHealth prints health metrics with their age.
func (c *CLIFormatter) PrintHealth(metrics []model.HealthMetric) {
	if len(metrics) == 0 {
		c.Muted("No health metrics logged.")
		return
	}
	now := c.Now()
	for _, m := range metrics {
		label := m.Notes
		if label == "" {
			label = "Logged"
		}
		value := fmt.Sprintf("%g", m.Value)
		if m.Unit != "" {
			value += " " + m.Unit
		}
		c.Printf("%-12s %-12s %s\n", m.Metric, c.render(styleBold, value),
			c.Note(label+" · "+FormatAgo(m.RecordedAt, now)+" ago"))
	}
}

// PrintPosts prints community posts, newest first.
func (c *CLIFormatter) PrintPosts(posts []model.CommunityPost) {
	if len(posts) == 0 {
		c.Muted("No posts yet.")
		return
	}
	now := c.Now()
	for _, p := range posts {
		c.Printf("%s  %s\n", c.render(styleBold, p.Author), c.Note(FormatAgo(p.CreatedAt, now)+" ago"))
		c.Printf("  %s\n", p.Body)
	}
}

// PrintSosLogs prints SOS history.
func (c *CLIFormatter) PrintSosLogs(logs []model.SosLog) {
	if len(logs) == 0 {
		c.Muted("No SOS alerts.")
		return
	}
	rows := make([]TableRow, len(logs))
	for i, l := range logs {
		rows[i] = TableRow{Columns: []string{
			fmt.Sprint(l.ID), FormatTime(l.TriggeredAt), string(l.Status), l.Address, l.Message,
		}}
	}
	c.PrintTable([]string{"ID", "TRIGGERED", "STATUS", "LOCATION", "MESSAGE"}, rows)
}

// PrintNearby prints nearby drivers.
func (c *CLIFormatter) PrintNearby(drivers []model.NearbyDriver) {
	if len(drivers) == 0 {
		c.Muted("No nearby drivers.")
		return
	}
	rows := make([]TableRow, len(drivers))
	for i, d := range drivers {
		dist := "-"
		if d.DistanceKm != nil {
			dist = fmt.Sprintf("%.1f km", *d.DistanceKm)
		}
		rows[i] = TableRow{Columns: []string{d.Name, d.Vehicle, dist, d.Phone}}
	}
	c.PrintTable([]string{"NAME", "VEHICLE", "DISTANCE", "PHONE"}, rows)
}

// PrintProfile prints the local profile.
func (c *CLIFormatter) PrintProfile(p *model.UserProfile) {
	if p == nil {
		c.Muted("No profile yet.")
		c.Muted("Use 'driverhelper profile set-name <name>' to create one.")
		return
	}
	c.Printf("Name:    %s\n", c.render(styleBold, p.Name))
	c.Printf("Created: %s\n", FormatTime(p.CreatedAt))
}

// PrintQueue prints outbox records.
func (c *CLIFormatter) PrintQueue(records []model.OutboxRecord) {
	if len(records) == 0 {
		c.Muted("Sync queue is empty.")
		return
	}
	rows := make([]TableRow, len(records))
	for i, r := range records {
		entityID := "-"
		if r.EntityID != nil {
			entityID = fmt.Sprint(*r.EntityID)
		}
		rows[i] = TableRow{Columns: []string{
			fmt.Sprint(r.ID), string(r.Entity), entityID, string(r.Operation), string(r.Status), FormatTime(r.CreatedAt),
		}}
	}
	c.PrintTable([]string{"ID", "ENTITY", "ENTITY ID", "OP", "STATUS", "CREATED"}, rows)
}

// PrintSyncStatus prints outbox counts and, when known, the daemon's view.
func (c *CLIFormatter) PrintSyncStatus(resp *SyncStatusResponse) {
	c.Title("Sync")
	c.Printf("  Pending: %d\n", resp.Outbox.Pending)
	c.Printf("  Synced:  %d\n", resp.Outbox.Synced)
	if !resp.Outbox.OldestPending.IsZero() {
		c.Printf("  Oldest pending: %s ago\n", FormatAgo(resp.Outbox.OldestPending, c.Now()))
	}
	c.Printf("  Sink:    %s\n", resp.Sink)

	if resp.Controller == nil {
		c.Muted("Daemon not running. Changes sync when 'driverhelper daemon start' or 'driverhelper sync' runs.")
		return
	}
	c.Printf("  State:   %s\n", resp.Controller.State)
	c.Println("  " + c.render(styleNote, resp.Indicator))
	if resp.Controller.LastError != "" {
		c.Warning("Last drain failed: " + resp.Controller.LastError)
	}
}

// TableRow is one row of PrintTable output.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple aligned table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-lipgloss.Width(s)) + "  "
	}

	var header strings.Builder
	for i, h := range headers {
		header.WriteString(pad(h, widths[i]))
	}
	c.Println(c.render(styleBold, strings.TrimRight(header.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				line.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}
}
