package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecadlab/boardsnap/internal/api"
)

// serveCommand creates the HTTP API server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [project-dir]",
		Short: "Serve the comparison API over HTTP for a local frontend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectDir, err := projectDirArg(args)
			if err != nil {
				return err
			}

			toolCache := newToolCache(noCache)
			defer toolCache.Close()

			kc, err := c.kicadClient(ctx, toolCache)
			if err != nil {
				return err
			}

			gc := c.gitClient()
			if !gc.Available(ctx) {
				printWarning("git not found; the timeline will list backups only")
			}

			server := api.NewServer(api.Options{
				ProjectDir:  projectDir,
				Config:      &c.cfg,
				Exporter:    kc,
				Lister:      kc,
				ToolVersion: kc.Version,
				Git:         gc,
				LayerCache:  toolCache,
				Logger:      c.Logger,
			})
			defer server.Close()

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			printInfo("Serving %s", projectDir)
			printKeyValue("address", "http://"+addr)
			printKeyValue("kicad", kc.Version)

			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8731", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the persistent tool-output cache")
	return cmd
}
