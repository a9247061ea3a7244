package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

// Note command flags.
var (
	noteFlagTitle   string
	noteFlagTags    string
	noteFlagContent string
)

// noteCmd represents the note command.
var noteCmd = &cobra.Command{
	Use:     "note",
	Aliases: []string{"n", "notes"},
	Short:   "Keep notes",
	Long: `Write, edit and delete notes. Every change is queued for sync.

Examples:
  driverhelper note add "Airport pickup gate 4" --title Pickups --tags airport,work
  driverhelper note edit 2 --content "Gate 5 now"
  driverhelper note rm 2
  driverhelper note list`,
	RunE: runNoteList,
}

// noteAddCmd creates a note.
var noteAddCmd = &cobra.Command{
	Use:   "add CONTENT",
	Short: "Add a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteAdd,
}

// noteEditCmd edits a note.
var noteEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a note",
	Long: `Change a note's title, content or tags. Only the flags you pass are
changed. Pass an empty value to clear the title or tags.

Examples:
  driverhelper note edit 2 --title "Night shift"
  driverhelper note edit 2 --tags ""`,
	Args: cobra.ExactArgs(1),
	RunE: runNoteEdit,
}

// noteRmCmd deletes a note.
var noteRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete", "remove"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteRm,
}

// noteListCmd lists notes.
var noteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notes, most recently edited first",
	RunE:    runNoteList,
}

func init() {
	noteAddCmd.Flags().StringVarP(&noteFlagTitle, "title", "t", "", "Note title")
	noteAddCmd.Flags().StringVar(&noteFlagTags, "tags", "", "Comma-separated tags")

	noteEditCmd.Flags().StringVarP(&noteFlagTitle, "title", "t", "", "New title")
	noteEditCmd.Flags().StringVar(&noteFlagTags, "tags", "", "New comma-separated tags")
	noteEditCmd.Flags().StringVarP(&noteFlagContent, "content", "c", "", "New content")

	noteEditCmd.ValidArgsFunction = completeNoteIDs
	noteRmCmd.ValidArgsFunction = completeNoteIDs

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteRmCmd)
	noteCmd.AddCommand(noteListCmd)

	rootCmd.AddCommand(noteCmd)
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	in := model.NoteInput{Title: noteFlagTitle, Content: args[0], Tags: noteFlagTags}
	id, err := ctx.Repos.Notes.Create(cmd.Context(), in)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCreated(model.EntityNotes, id)
	}
	cliOut().Success("Note saved")
	return nil
}

func runNoteEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID("note", args[0])
	if err != nil {
		return err
	}

	var patch model.NotePatch
	if cmd.Flags().Changed("title") {
		patch.Title = &noteFlagTitle
	}
	if cmd.Flags().Changed("content") {
		patch.Content = &noteFlagContent
	}
	if cmd.Flags().Changed("tags") {
		patch.Tags = &noteFlagTags
	}
	if patch.IsEmpty() {
		return errors.NewUserError("nothing to change", "Pass --title, --content or --tags")
	}

	if err := ctx.Repos.Notes.Update(cmd.Context(), id, patch); err != nil {
		return err
	}

	if ctx.IsJSON() {
		n, err := ctx.Repos.Notes.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return ctx.Formatter.PrintJSON(map[string]any{"status": "updated", "note": n})
	}
	cliOut().Success("Note updated")
	return nil
}

func runNoteRm(cmd *cobra.Command, args []string) error {
	id, err := parseID("note", args[0])
	if err != nil {
		return err
	}
	if err := ctx.Repos.Notes.Delete(cmd.Context(), id); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]any{"status": "deleted", "id": id})
	}
	cliOut().Success("Note deleted")
	return nil
}

func runNoteList(cmd *cobra.Command, args []string) error {
	notes := ctx.State.Snapshot().Notes

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(notes))
	}
	cliOut().PrintNotes(notes)
	return nil
}
