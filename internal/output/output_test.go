package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/model"
)

func newTestCLI() (*CLIFormatter, *bytes.Buffer) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf, Format: FormatCLI, ColorMode: ColorNever}
	c := NewCLIFormatter(f)
	c.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c, &buf
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
}

func TestFormatterIsColorEnabled(t *testing.T) {
	assert.True(t, (&Formatter{ColorMode: ColorAlways}).IsColorEnabled())
	assert.False(t, (&Formatter{ColorMode: ColorNever}).IsColorEnabled())

	var buf bytes.Buffer
	assert.False(t, (&Formatter{Writer: &buf, ColorMode: ColorAuto}).IsColorEnabled())
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	require.NoError(t, f.JSON(map[string]int{"pending": 2}))
	assert.JSONEq(t, `{"pending":2}`, buf.String())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₹250", FormatMoney(250))
	assert.Equal(t, "₹1000", FormatMoney(999.6))
	assert.Equal(t, "-₹40", FormatMoney(-40))
	assert.Equal(t, "+₹250", FormatSignedMoney(250, false))
	assert.Equal(t, "-₹40", FormatSignedMoney(40, true))
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{3 * time.Hour, "3 hours"},
		{24 * time.Hour, "1 day"},
		{10 * 24 * time.Hour, "10 days"},
		{60 * 24 * time.Hour, "2 months"},
		{800 * 24 * time.Hour, "2 years"},
		{-time.Hour, "0 seconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAgo(now.Add(-tt.ago), now), tt.ago.String())
	}
}

func TestSyncIndicator(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, SyncOfflineText, SyncIndicator(false, false, now, now))
	assert.Equal(t, SyncOfflineText, SyncIndicator(false, true, now, now), "offline wins over a running drain")
	assert.Equal(t, SyncSyncingText, SyncIndicator(true, true, time.Time{}, now))
	assert.Equal(t, SyncNeverText, SyncIndicator(true, false, time.Time{}, now))
	assert.Equal(t, "Synced 2 minutes ago", SyncIndicator(true, false, now.Add(-2*time.Minute), now))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "1m", FormatDuration(time.Minute))
	assert.Equal(t, "1m 30s", FormatDuration(90*time.Second))
	assert.Equal(t, "2h 15m", FormatDuration(2*time.Hour+15*time.Minute))
}

// =============================================================================
// CLI Formatter Tests
// =============================================================================

func TestCLIMessages(t *testing.T) {
	c, buf := newTestCLI()

	c.Success("saved")
	c.Warning("careful")
	c.Error("failed")
	c.Muted("quiet")

	assert.Equal(t, "✓ saved\n⚠ careful\n✗ failed\nquiet\n", buf.String())
}

func TestPrintSummary(t *testing.T) {
	c, buf := newTestCLI()

	c.PrintSummary(model.DailySummary{
		Day:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local),
		Income:  1200,
		Expense: 300,
		Balance: 900,
	})

	out := buf.String()
	assert.Contains(t, out, "Today · 2024-06-01")
	assert.Contains(t, out, "Income:  ₹1200")
	assert.Contains(t, out, "Expense: ₹300")
	assert.Contains(t, out, "Balance: ₹900")
}

func TestPrintTransactions(t *testing.T) {
	c, buf := newTestCLI()

	c.PrintTransactions(nil)
	assert.Contains(t, buf.String(), "No transactions yet.")

	buf.Reset()
	c.PrintTransactions([]model.Transaction{
		{ID: 2, Kind: model.KindExpense, Amount: 40, Category: "fuel", Date: time.Now(), Synced: true},
		{ID: 1, Kind: model.KindIncome, Amount: 250, Category: "trip", Notes: "airport", Date: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "-₹40")
	assert.Contains(t, out, "+₹250")
	assert.Contains(t, out, "airport")
}

func TestPrintReminders(t *testing.T) {
	c, buf := newTestCLI()
	now := c.Now()

	c.PrintReminders([]model.Reminder{
		{ID: 1, Title: "Insurance", RemindAt: now.Add(-time.Hour)},
		{ID: 2, Title: "Service", RemindAt: now.Add(time.Hour)},
		{ID: 3, Title: "Tax", RemindAt: now.Add(-time.Hour), Completed: true},
	})

	out := buf.String()
	assert.Contains(t, out, "due")
	assert.Contains(t, out, "upcoming")
	assert.Contains(t, out, "done")
}

func TestFormatWhen(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

	assert.Equal(t, "09:30", formatWhen(time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local), now))
	assert.Equal(t, "2024-06-03 09:30", formatWhen(time.Date(2024, 6, 3, 9, 30, 0, 0, time.Local), now))
	assert.Equal(t, "2023-06-01 09:30", formatWhen(time.Date(2023, 6, 1, 9, 30, 0, 0, time.Local), now))
}

func TestPrintNotesAndPosts(t *testing.T) {
	c, buf := newTestCLI()
	now := c.Now()

	c.PrintNotes([]model.Note{{ID: 4, Content: "Check tyres", Tags: "car, weekly", UpdatedAt: now}})
	assert.Contains(t, buf.String(), "(untitled)")
	assert.Contains(t, buf.String(), "tags: car, weekly")

	buf.Reset()
	c.PrintPosts([]model.CommunityPost{{Author: "Ravi", Body: "Traffic on ring road", CreatedAt: now.Add(-3 * time.Minute)}})
	assert.Contains(t, buf.String(), "Ravi")
	assert.Contains(t, buf.String(), "3 minutes ago")
}

func TestPrintHealth(t *testing.T) {
	c, buf := newTestCLI()

	c.PrintHealth([]model.HealthMetric{{Metric: "water", Value: 2.5, Unit: "L", RecordedAt: c.Now().Add(-time.Hour)}})

	out := buf.String()
	assert.Contains(t, out, "2.5 L")
	assert.Contains(t, out, "Logged · 1 hour ago")
}

func TestPrintQueue(t *testing.T) {
	c, buf := newTestCLI()
	id := int64(9)

	c.PrintQueue([]model.OutboxRecord{
		{ID: 1, Entity: model.EntityTransactions, Operation: model.OpInsert, Status: model.StatusPending},
		{ID: 2, Entity: model.EntityNotes, EntityID: &id, Operation: model.OpUpdate, Status: model.StatusSynced},
	})

	out := buf.String()
	assert.Contains(t, out, "earnings")
	assert.Contains(t, out, "notes")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "synced")
}

func TestPrintSyncStatus(t *testing.T) {
	c, buf := newTestCLI()

	c.PrintSyncStatus(&SyncStatusResponse{Outbox: model.OutboxStats{Pending: 3}, Sink: "accept-all"})
	assert.Contains(t, buf.String(), "Pending: 3")
	assert.Contains(t, buf.String(), "Daemon not running")

	buf.Reset()
	c.PrintSyncStatus(&SyncStatusResponse{
		Sink:       "webhook",
		Controller: &connectivity.Status{State: connectivity.StateOffline, LastError: "sync transport error"},
		Indicator:  SyncOfflineText,
	})
	out := buf.String()
	assert.Contains(t, out, "ready-offline")
	assert.Contains(t, out, SyncOfflineText)
	assert.Contains(t, out, "Last drain failed")
}

func TestPrintTableAligns(t *testing.T) {
	c, buf := newTestCLI()

	c.PrintTable([]string{"A", "B"}, []TableRow{{Columns: []string{"long value", "x"}}, {Columns: []string{"s", "y"}}})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, "A           B", string(lines[0]))
	assert.Equal(t, "s           y", string(lines[3]))
}

func TestPrintTableEmpty(t *testing.T) {
	c, buf := newTestCLI()
	c.PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSON Formatter Tests
// =============================================================================

func TestJSONPrintCreated(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintCreated(model.EntityNotes, 7))
	assert.JSONEq(t, `{"status":"created","entity":"notes","id":7}`, buf.String())
}

func TestJSONPrintError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintError("amount must be positive", "user", ""))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "user", resp.Category)
	assert.Empty(t, resp.Suggestion)
}

func TestNewListResponse(t *testing.T) {
	data, err := json.Marshal(NewListResponse[model.Note](nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"count":0}`, string(data))

	resp := NewListResponse([]int{1, 2})
	assert.Equal(t, 2, resp.Count)
}
