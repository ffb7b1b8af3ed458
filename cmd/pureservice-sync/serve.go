package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vestfoldfylke/pureservice-sync/internal/app"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	*rootOptions
	Address  string
	Interval time.Duration
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	var opts = &serveOptions{rootOptions: rootOpts}

	var cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the synchronization trigger and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var cfg, log, er1 = opts.load()
			if er1 != nil {
				return er1
			}
			if cmd.Flags().Changed("address") {
				cfg.Server.Address = opts.Address
			}
			if cmd.Flags().Changed("interval") {
				cfg.Server.SyncInterval = opts.Interval
			}

			var ctx = cmd.Context()
			var a *app.App
			if a, err = app.New(ctx, cfg, log); err != nil {
				return
			}
			if cfg.Server.SyncInterval > 0 {
				log.WithField("interval", cfg.Server.SyncInterval.String()).Info("Scheduling synchronization")
				go a.Schedule(ctx, cfg.Server.SyncInterval)
			}

			var server = &http.Server{
				Addr:              cfg.Server.Address,
				Handler:           a.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				var shutdownCtx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			log.WithField("address", cfg.Server.Address).Info("Listening")
			if err = server.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			return
		},
	}
	cmd.Flags().StringVar(&opts.Address, "address", ":8080", "listen address, overrides server.address")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "run a synchronization every interval, overrides server.sync_interval")
	return cmd
}
