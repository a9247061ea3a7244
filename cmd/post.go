package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

var postFlagAuthor string

// postCmd represents the post command.
var postCmd = &cobra.Command{
	Use:     "post",
	Aliases: []string{"community"},
	Short:   "Share posts with other drivers",
	Long: `Write community posts. Posts are stored locally and published on the
next sync.

Examples:
  driverhelper post add "Heavy traffic near the station"
  driverhelper post add "Fuel is cheaper on Ring Road" --author Ravi
  driverhelper post list`,
	RunE: runPostList,
}

// postAddCmd publishes a post.
var postAddCmd = &cobra.Command{
	Use:   "add BODY",
	Short: "Write a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostAdd,
}

// postListCmd lists posts.
var postListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List posts, newest first",
	RunE:    runPostList,
}

func init() {
	postAddCmd.Flags().StringVarP(&postFlagAuthor, "author", "a", "",
		"Author name (default: profile name, then \""+model.DefaultAuthor+"\")")

	postCmd.AddCommand(postAddCmd)
	postCmd.AddCommand(postListCmd)

	rootCmd.AddCommand(postCmd)
}

func runPostAdd(cmd *cobra.Command, args []string) error {
	author := postFlagAuthor
	if author == "" {
		if p := ctx.State.Snapshot().Profile; p != nil {
			author = p.Name
		}
	}

	id, err := ctx.Repos.Posts.Create(cmd.Context(), model.PostInput{Author: author, Body: args[0]})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCreated(model.EntityPosts, id)
	}
	cliOut().Success("Post saved")
	return nil
}

func runPostList(cmd *cobra.Command, args []string) error {
	posts := ctx.State.Snapshot().Posts

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(output.NewListResponse(posts))
	}
	cliOut().PrintPosts(posts)
	return nil
}
