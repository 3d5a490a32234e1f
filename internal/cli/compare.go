package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecadlab/boardsnap/pkg/compare"
	"github.com/ecadlab/boardsnap/pkg/errors"
)

// compareCommand creates the full visual-comparison command: render every
// target of a before/after pair and write the image triples to a directory.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		beforeDesc string
		afterDesc  string
		outDir     string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "compare [project-dir]",
		Short: "Render visual diffs for every changed sheet and board layer",
		Long: `Compare two snapshots of a project and render before/after/diff images
for every sheet, every board, and every board layer. Images are written to
the output directory named by target; targets that fail to render are
reported and skipped without aborting the rest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectDir, err := projectDirArg(args)
			if err != nil {
				return err
			}

			before, after, err := c.readSides(ctx, projectDir, beforeDesc, afterDesc)
			if err != nil {
				return err
			}

			toolCache := newToolCache(noCache)
			defer toolCache.Close()

			kc, err := c.kicadClient(ctx, toolCache)
			if err != nil {
				return err
			}

			tracker := newProgress(c.Logger)
			sess, err := compare.NewSession(ctx, before, after, kc, compare.SessionOptions{
				LayerCache: toolCache,
				Lister:     kc,
				Logger:     c.Logger,
			})
			if err != nil {
				return err
			}
			defer sess.Close()

			printDiffSummary(sess.Summary)
			printNewline()

			if len(sess.Targets) == 0 {
				printInfo("Nothing to render")
				return nil
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			rendered, failed := 0, 0
			for _, target := range sess.Targets {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				spinner := newSpinnerWithContext(ctx, "Rendering "+target.Label())
				spinner.Start()
				res, err := sess.Ensure(ctx, target.Key())
				spinner.Stop()

				if err != nil {
					failed++
					printError("%s — %s", target.Label(), errors.UserMessage(err))
					continue
				}
				rendered++
				printVerdict(target.Label(), res)

				if err := copyImages(res, filepath.Join(outDir, target.SafeKey())); err != nil {
					return err
				}
			}

			printNewline()
			tracker.done(fmt.Sprintf("Rendered %d targets (%d failed)", rendered, failed))
			printFile(outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&beforeDesc, "before", "current", "before snapshot (current, backup:<path>, git:<revision>)")
	cmd.Flags().StringVar(&afterDesc, "after", "current", "after snapshot (current, backup:<path>, git:<revision>)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "boardsnap-out", "output directory for rendered images")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the persistent tool-output cache")
	return cmd
}

// copyImages copies one target's before/after/diff bitmaps out of the
// session-scoped cache, which is deleted when the session closes.
func copyImages(res *compare.Result, destBase string) error {
	for suffix, src := range map[string]string{
		"_before.png": res.BeforePath,
		"_after.png":  res.AfterPath,
		"_diff.png":   res.DiffPath,
	} {
		if err := copyFile(src, destBase+suffix); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
