package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/runtime"
)

// completionContext returns ctx, opening a short-lived one when completion
// runs before PersistentPreRunE.
func completionContext() (*runtime.Context, func(), error) {
	if ctx != nil && ctx.HasStore() {
		return ctx, func() {}, nil
	}
	rc, err := runtime.New(context.Background(), runtime.DefaultOptions())
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { rc.Close() }, nil
}

// completeNoteIDs completes the first argument with note ids.
func completeNoteIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	rc, done, err := completionContext()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer done()

	notes, err := rc.Repos.Notes.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var suggestions []string
	for _, n := range notes {
		id := strconv.FormatInt(n.ID, 10)
		if strings.HasPrefix(id, toComplete) {
			label := n.Title
			if label == "" {
				label = truncate(n.Content, 30)
			}
			suggestions = append(suggestions, fmt.Sprintf("%s\t%s", id, label))
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// completeReminderIDs completes the first argument with open reminder ids.
func completeReminderIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	rc, done, err := completionContext()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer done()

	reminders, err := rc.Repos.Reminders.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var suggestions []string
	for _, r := range reminders {
		id := strconv.FormatInt(r.ID, 10)
		if !r.Completed && strings.HasPrefix(id, toComplete) {
			suggestions = append(suggestions, fmt.Sprintf("%s\t%s", id, r.Title))
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// completeFixed completes the first argument from a fixed list.
func completeFixed(values ...string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
