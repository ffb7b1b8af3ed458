package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vestfoldfylke/pureservice-sync/internal/app"
	"github.com/vestfoldfylke/pureservice-sync/reconcile"
)

type syncOptions struct {
	*rootOptions
	Output string
}

func newSyncCommand(rootOpts *rootOptions) *cobra.Command {
	var opts = &syncOptions{rootOptions: rootOpts}

	var cmd = &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization and print the tally",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Output {
			case app.FormatText, app.FormatJson, app.FormatYaml:
				return nil
			}
			return fmt.Errorf("invalid output %q: must be one of text, json, yaml", opts.Output)
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var cfg, log, er1 = opts.load()
			if er1 != nil {
				return er1
			}
			var a *app.App
			if a, err = app.New(cmd.Context(), cfg, log); err != nil {
				return
			}
			var result *reconcile.Result
			result, err = a.Run(cmd.Context())
			if result != nil {
				if er2 := app.PrintStatistics(cmd.OutOrStdout(), result, opts.Output); er2 != nil && err == nil {
					err = er2
				}
			}
			return
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", app.FormatText, "tally format (text|json|yaml)")
	return cmd
}
