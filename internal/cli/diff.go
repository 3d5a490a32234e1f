package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecadlab/boardsnap/pkg/fileset"
)

// diffCommand creates the file-level diff command.
func (c *CLI) diffCommand() *cobra.Command {
	var (
		beforeDesc string
		afterDesc  string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "diff [project-dir]",
		Short: "Show which design files changed between two snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := projectDirArg(args)
			if err != nil {
				return err
			}

			before, after, err := c.readSides(cmd.Context(), projectDir, beforeDesc, afterDesc)
			if err != nil {
				return err
			}
			summary := fileset.Diff(before, after)

			if asJSON {
				out, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			printDiffSummary(summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&beforeDesc, "before", "current", "before snapshot (current, backup:<path>, git:<revision>)")
	cmd.Flags().StringVar(&afterDesc, "after", "current", "after snapshot (current, backup:<path>, git:<revision>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the summary as JSON")
	return cmd
}

// readSides parses both snapshot descriptors and reads their FileSets.
func (c *CLI) readSides(ctx context.Context, projectDir, beforeDesc, afterDesc string) (fileset.FileSet, fileset.FileSet, error) {
	beforeSrc, err := fileset.ParseSource(beforeDesc)
	if err != nil {
		return nil, nil, err
	}
	afterSrc, err := fileset.ParseSource(afterDesc)
	if err != nil {
		return nil, nil, err
	}

	gc := c.gitClient()
	before, err := beforeSrc.Read(ctx, gc, projectDir)
	if err != nil {
		return nil, nil, err
	}
	after, err := afterSrc.Read(ctx, gc, projectDir)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("snapshots read",
		"before", beforeSrc.String(), "before_files", len(before),
		"after", afterSrc.String(), "after_files", len(after),
	)
	return before, after, nil
}
