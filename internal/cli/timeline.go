package cli

import (
	"github.com/spf13/cobra"

	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/timeline"
)

// timelineCommand creates the timeline listing command.
func (c *CLI) timelineCommand() *cobra.Command {
	var (
		limit  int
		filter string
	)

	cmd := &cobra.Command{
		Use:   "timeline [project-dir]",
		Short: "List available snapshots for a project",
		Long:  `List the points in time a project can be compared against: zip backup archives discovered near the project directory and git revisions of the enclosing repository, newest first.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := projectDirArg(args)
			if err != nil {
				return err
			}

			f := timeline.Filter(filter)
			switch f {
			case timeline.FilterAll, timeline.FilterBackups, timeline.FilterGit:
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown filter %q (want all, backups, or git)", filter)
			}

			items, err := timeline.List(cmd.Context(), c.gitClient(), projectDir, c.cfg.ClampTimelineLimit(limit), f)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				printInfo("No snapshots found for %s", projectDir)
				return nil
			}

			for _, item := range items {
				printSnapshot(item.Descriptor(), item.Label)
			}
			printNewline()
			printDetail("%d snapshots · compare with: boardsnap compare --before <descriptor>", len(items))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of snapshots to list")
	cmd.Flags().StringVar(&filter, "filter", string(timeline.FilterAll), "snapshot kinds to list (all, backups, git)")
	return cmd
}
