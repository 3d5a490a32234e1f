package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecadlab/boardsnap/pkg/timeline"
)

// backupCommand creates the snapshot-backup command.
func (c *CLI) backupCommand() *cobra.Command {
	var memo string

	cmd := &cobra.Command{
		Use:   "backup [project-dir]",
		Short: "Archive the project's design files as a timestamped zip backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := projectDirArg(args)
			if err != nil {
				return err
			}

			zipPath, err := timeline.CreateBackup(projectDir, filepath.Base(projectDir), memo)
			if err != nil {
				return err
			}
			printSuccess("Backup created")
			printFile(zipPath)
			printNextStep("Compare against it", "boardsnap compare --before backup:"+zipPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&memo, "memo", "m", "", "short note embedded in the archive name")
	return cmd
}
